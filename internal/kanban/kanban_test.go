package kanban

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/jobtrack/internal/model"
)

// fakeChanger records every status change request.
type fakeChanger struct {
	calls []call
	err   error
}

type call struct {
	id     int64
	status model.Status
}

func (f *fakeChanger) ChangeStatus(_ context.Context, id int64, status model.Status) (*model.Application, error) {
	f.calls = append(f.calls, call{id, status})
	if f.err != nil {
		return nil, f.err
	}
	return &model.Application{ID: id, Status: status}, nil
}

func lookupFrom(records ...model.Application) Lookup {
	return func(id int64) (model.Application, bool) {
		for _, r := range records {
			if r.ID == id {
				return r, true
			}
		}
		return model.Application{}, false
	}
}

func TestGroup_PartitionIsTotalAndDisjoint(t *testing.T) {
	var records []model.Application
	for i := 0; i < 23; i++ {
		records = append(records, model.Application{
			ID:     int64(i + 1),
			Status: model.Statuses[i%model.StatusCount],
		})
	}

	board := Group(records)

	seen := map[int64]int{}
	for i, col := range board {
		assert.Equal(t, model.Statuses[i], col.Status, "columns follow pipeline order")
		for _, a := range col.Applications {
			assert.Equal(t, col.Status, a.Status)
			seen[a.ID]++
		}
	}
	assert.Len(t, seen, len(records))
	for id, n := range seen {
		assert.Equal(t, 1, n, "record %d appears %d times", id, n)
	}
	assert.Equal(t, len(records), board.Len())
}

func TestGroup_EmptyColumnsAreNotNil(t *testing.T) {
	board := Group(nil)
	for _, col := range board {
		assert.NotNil(t, col.Applications)
		assert.NotEmpty(t, col.Label)
	}
}

func TestGroup_KeepsInputOrder(t *testing.T) {
	board := Group([]model.Application{
		{ID: 3, Status: model.StatusApplied},
		{ID: 1, Status: model.StatusOffer},
		{ID: 2, Status: model.StatusApplied},
	})
	col, ok := board.Column(model.StatusApplied)
	require.True(t, ok)
	assert.Equal(t, int64(3), col.Applications[0].ID)
	assert.Equal(t, int64(2), col.Applications[1].ID)
}

func TestSession_DropChangesStatusOnce(t *testing.T) {
	changer := &fakeChanger{}
	rec := model.Application{ID: 7, Status: model.StatusApplied}
	s := NewSession(lookupFrom(rec), changer)

	s.Start(7)
	s.Over(model.StatusInterview)
	got, err := s.Drop(context.Background(), model.StatusInterview)
	s.End()

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []call{{7, model.StatusInterview}}, changer.calls)

	// Dropping back onto the card's own column triggers nothing.
	changer.calls = nil
	s.Start(7)
	s.Over(model.StatusApplied)
	got, err = s.Drop(context.Background(), model.StatusApplied)
	s.End()

	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, changer.calls)
}

func TestSession_DropOnSelfIsNoOpForEveryStatus(t *testing.T) {
	for _, status := range model.Statuses {
		changer := &fakeChanger{}
		s := NewSession(lookupFrom(model.Application{ID: 1, Status: status}), changer)

		_, err := s.Move(context.Background(), 1, status)

		require.NoError(t, err)
		assert.Empty(t, changer.calls, "status %s", status)
	}
}

func TestSession_Transitions(t *testing.T) {
	s := NewSession(lookupFrom(), &fakeChanger{})
	assert.Equal(t, Idle, s.State().Phase)

	s.Over(model.StatusOffer)
	assert.Equal(t, Idle, s.State().Phase, "hover without a drag is ignored")

	s.Start(4)
	assert.Equal(t, State{Phase: Dragging, ID: 4}, s.State())

	s.Over(model.StatusOffer)
	assert.Equal(t, State{Phase: DraggingOver, ID: 4, Target: model.StatusOffer}, s.State())

	s.Over(model.StatusRejected)
	assert.Equal(t, model.StatusRejected, s.State().Target, "every dragover overwrites the target")

	s.Leave(model.StatusOffer)
	assert.Equal(t, DraggingOver, s.State().Phase, "leaving a column that is not hovered changes nothing")

	s.Leave(model.StatusRejected)
	assert.Equal(t, State{Phase: Dragging, ID: 4}, s.State())

	s.End()
	assert.Equal(t, State{}, s.State())
}

func TestSession_EndClearsAfterFailedDrop(t *testing.T) {
	boom := errors.New("network down")
	changer := &fakeChanger{err: boom}
	s := NewSession(lookupFrom(model.Application{ID: 1, Status: model.StatusApplied}), changer)

	_, err := s.Move(context.Background(), 1, model.StatusOffer)

	assert.ErrorIs(t, err, boom)
	assert.Len(t, changer.calls, 1)
	assert.Equal(t, State{}, s.State())
}

func TestSession_CancelledDragMakesNoCalls(t *testing.T) {
	changer := &fakeChanger{}
	s := NewSession(lookupFrom(model.Application{ID: 1, Status: model.StatusApplied}), changer)

	s.Start(1)
	s.Over(model.StatusOffer)
	s.End() // Escape or drop outside any column

	_, err := s.Drop(context.Background(), model.StatusOffer)
	require.NoError(t, err)
	assert.Empty(t, changer.calls)
}

func TestSession_UnknownRecord(t *testing.T) {
	changer := &fakeChanger{}
	s := NewSession(lookupFrom(), changer)

	got, err := s.Move(context.Background(), 99, model.StatusOffer)

	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, changer.calls)
}
