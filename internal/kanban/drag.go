package kanban

import (
	"context"
	"fmt"

	"github.com/sakif/jobtrack/internal/model"
)

// StatusChanger performs the status mutation a drop requests. The tracker
// store implements it by calling the persistence API and reconciling its
// collection once the API confirms.
type StatusChanger interface {
	ChangeStatus(ctx context.Context, id int64, status model.Status) (*model.Application, error)
}

// Lookup resolves the current record for an id.
type Lookup func(id int64) (model.Application, bool)

// Phase is the state of a drag session.
type Phase int

const (
	Idle         Phase = iota // no drag in progress
	Dragging                  // a card is picked up
	DraggingOver              // a card hovers over a column
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case DraggingOver:
		return "dragging-over"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// State is a snapshot of the session, what a renderer uses to dim the card
// being dragged and highlight the hovered column.
type State struct {
	Phase  Phase
	ID     int64        // dragged record, valid unless Phase is Idle
	Target model.Status // hovered column, valid only in DraggingOver
}

// Session is the drag-and-drop state machine:
//
//	Idle --Start(id)--> Dragging --Over(s)--> DraggingOver(s)
//	DraggingOver --Over(t)--> DraggingOver(t)
//	DraggingOver --Leave(s)--> Dragging
//	any --End--> Idle
//
// Drop never changes the phase; the drag always finishes with End, whether
// the drop succeeded, failed or never happened.
//
// A Session is driven by one UI loop and is not safe for concurrent use.
type Session struct {
	lookup  Lookup
	changer StatusChanger
	state   State
}

// NewSession creates an idle session.
func NewSession(lookup Lookup, changer StatusChanger) *Session {
	return &Session{lookup: lookup, changer: changer}
}

// State returns the current session state.
func (s *Session) State() State {
	return s.state
}

// Start picks up the card for id. Starting while another drag is active
// replaces it.
func (s *Session) Start(id int64) {
	s.state = State{Phase: Dragging, ID: id}
}

// Over marks target as the hovered column. Ignored while idle.
func (s *Session) Over(target model.Status) {
	if s.state.Phase == Idle || !target.Valid() {
		return
	}
	s.state.Phase = DraggingOver
	s.state.Target = target
}

// Leave clears the hover highlight if target is the hovered column.
func (s *Session) Leave(target model.Status) {
	if s.state.Phase == DraggingOver && s.state.Target == target {
		s.state.Phase = Dragging
		s.state.Target = ""
	}
}

// Drop releases the dragged card on target. It requests a status change
// only when the card's current status differs from target; dropping a card
// on its own column, dropping while idle, or dropping an id that no longer
// exists does nothing and returns (nil, nil).
//
// On failure the error from the StatusChanger is returned unchanged. The
// local collection is untouched, so the card snaps back.
func (s *Session) Drop(ctx context.Context, target model.Status) (*model.Application, error) {
	if s.state.Phase == Idle || !target.Valid() {
		return nil, nil
	}
	current, ok := s.lookup(s.state.ID)
	if !ok || current.Status == target {
		return nil, nil
	}
	return s.changer.ChangeStatus(ctx, current.ID, target)
}

// End finishes the drag, successful or not, and clears all session state.
func (s *Session) End() {
	s.state = State{}
}

// Move runs a complete drag of id onto target: Start, Over, Drop, End.
// It is what keyboard and command-line moves use.
func (s *Session) Move(ctx context.Context, id int64, target model.Status) (*model.Application, error) {
	s.Start(id)
	defer s.End()
	s.Over(target)
	return s.Drop(ctx, target)
}
