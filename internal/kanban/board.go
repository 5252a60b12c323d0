// Package kanban groups applications into status columns and implements the
// drag-and-drop protocol used to move a card between columns.
package kanban

import "github.com/sakif/jobtrack/internal/model"

// Column is one status bucket of the board.
type Column struct {
	Status       model.Status        `json:"status"`
	Label        string              `json:"label"`
	Applications []model.Application `json:"applications"`
}

// Board holds exactly one column per status, in pipeline order.
type Board [model.StatusCount]Column

// Group partitions records into the five columns in a single pass. Every
// record lands in exactly one column. Records whose status is outside the
// enum cannot exist once validated, so they are skipped rather than
// guessed into a column.
//
// Within a column, records keep their input order, so grouping an already
// sorted view yields sorted columns.
func Group(records []model.Application) Board {
	var b Board
	for i, s := range model.Statuses {
		b[i] = Column{
			Status:       s,
			Label:        s.Info().Label,
			Applications: []model.Application{},
		}
	}
	for _, r := range records {
		i := r.Status.Index()
		if i < 0 {
			continue
		}
		b[i].Applications = append(b[i].Applications, r)
	}
	return b
}

// Column returns the column for s.
func (b *Board) Column(s model.Status) (*Column, bool) {
	i := s.Index()
	if i < 0 {
		return nil, false
	}
	return &b[i], true
}

// Len returns the number of cards on the board.
func (b *Board) Len() int {
	n := 0
	for _, c := range b {
		n += len(c.Applications)
	}
	return n
}
