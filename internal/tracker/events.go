package tracker

import (
	"fmt"
	"log/slog"
)

// Op names the operation an Event reports on.
type Op string

const (
	OpLoad         Op = "load"
	OpCreate       Op = "create"
	OpUpdate       Op = "update"
	OpStatusChange Op = "status_change"
	OpDelete       Op = "delete"
)

// Event is an outcome notification. Err is nil on success.
type Event struct {
	Op  Op
	ID  int64
	Err error
}

// Failed reports whether the event signals a failure.
func (e Event) Failed() bool { return e.Err != nil }

// Notifier presents outcomes to the user. How (toast, log line, terminal
// message) is up to the implementation.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) Notify(Event) {}

// LogNotifier writes events to a structured logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(e Event) {
	if e.Failed() {
		n.Logger.Error("operation failed",
			slog.String("op", string(e.Op)),
			slog.Int64("id", e.ID),
			slog.String("error", e.Err.Error()),
		)
		return
	}
	n.Logger.Info("operation succeeded",
		slog.String("op", string(e.Op)),
		slog.Int64("id", e.ID),
	)
}

// LoadError reports a failed initial or refresh fetch. The collection keeps
// whatever it held before.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string { return fmt.Sprintf("loading applications: %v", e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// MutationError reports a create, update, status change or delete that the
// API rejected. The collection is unchanged.
type MutationError struct {
	Op  Op
	ID  int64
	Err error
}

func (e *MutationError) Error() string {
	if e.ID == 0 {
		return fmt.Sprintf("%s application: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s application %d: %v", e.Op, e.ID, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }
