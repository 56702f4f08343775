package stepper

import (
	"fmt"
	"time"
)

// Kind classifies the transition a ChangeRecord describes.
type Kind int

const (
	// KindStarted is emitted once when the first available step starts.
	KindStarted Kind = iota
	// KindForward is emitted when the engine advances to a later step.
	KindForward
	// KindBackward is emitted when the engine returns to a visited step.
	KindBackward
	// KindCompleted is the terminal kind of a run that ran out of steps.
	KindCompleted
	// KindAborted is the terminal kind of an aborted or failed run.
	KindAborted
)

var kindStrings = []string{
	"started",
	"forward",
	"backward",
	"completed",
	"aborted",
}

// String returns the lower-case name of the kind, or "unknown".
func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindStrings) {
		return "unknown"
	}
	return kindStrings[k]
}

// MarshalText encodes the kind by name so records log and serialize as
// readable strings.
func (k Kind) MarshalText() ([]byte, error) {
	if int(k) < 0 || int(k) >= len(kindStrings) {
		return nil, fmt.Errorf("stepper: unknown kind %d", int(k))
	}
	return []byte(kindStrings[k]), nil
}

// UnmarshalText decodes a kind name produced by MarshalText.
func (k *Kind) UnmarshalText(text []byte) error {
	for i, s := range kindStrings {
		if s == string(text) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("stepper: unknown kind %q", string(text))
}

// Terminal reports whether the kind ends a run.
func (k Kind) Terminal() bool { return k == KindCompleted || k == KindAborted }

// ChangeRecord is an immutable snapshot of one engine transition.
type ChangeRecord struct {
	// Current is the step now running, nil once the run has terminated.
	Current Step
	// Previous is the step the engine left, nil on the first start.
	Previous Step
	// Index is the position of Current, or -1 when no step is running.
	Index int
	// Total is the number of steps in the list at the time of the record.
	Total int
	// Kind is the transition kind.
	Kind Kind
	// UserInitiated is set on Aborted records caused by a user gesture.
	UserInitiated bool
	// Err carries the error of a failed run.
	Err error
	// At is the time the transition was recorded.
	At time.Time
}

// CurrentID returns the id of Current, or "" when nil.
func (r ChangeRecord) CurrentID() string { return stepID(r.Current) }

// PreviousID returns the id of Previous, or "" when nil.
func (r ChangeRecord) PreviousID() string { return stepID(r.Previous) }

// Terminal reports whether the record ends the run.
func (r ChangeRecord) Terminal() bool { return r.Kind.Terminal() }

// String renders the record on one line for logs and plain output.
func (r ChangeRecord) String() string {
	switch {
	case r.Err != nil:
		return fmt.Sprintf("%s (from %q): %v", r.Kind, r.PreviousID(), r.Err)
	case r.Current == nil:
		return fmt.Sprintf("%s (from %q)", r.Kind, r.PreviousID())
	default:
		return fmt.Sprintf("%s -> %q [%d/%d]", r.Kind, r.CurrentID(), r.Index+1, r.Total)
	}
}

func stepID(s Step) string {
	if s == nil {
		return ""
	}
	return s.ID()
}

// Status is the coarse lifecycle state of an Engine.
type Status int

const (
	// StatusNotStarted is the state before Start.
	StatusNotStarted Status = iota
	// StatusRunning is the state while a step is current.
	StatusRunning
	// StatusTerminated is the state after Completed or Aborted.
	StatusTerminated
)

// String returns a human-readable label for the status.
func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "not_started"
	case StatusRunning:
		return "running"
	case StatusTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}
