package stepper

// Handle is the control surface a running Step uses to report back to the
// engine. Transition calls (Advance, NavigateBack, Abort, Fail) are
// asynchronous: they queue a command and return immediately. A handle is
// bound to one visit of one step; once the engine has left that visit its
// transition calls are ignored.
//
// Payload accessors and list mutators act on engine state directly and are
// serialized with every transition.
type Handle interface {
	// Advance moves to the next available step, or completes the run.
	Advance()

	// NavigateBack returns to the previously visited step, or aborts the
	// run when there is none.
	NavigateBack()

	// CanNavigateBack reports whether NavigateBack would resume a step
	// rather than abort: the history holds at least one step that is still
	// available.
	CanNavigateBack() bool

	// Abort terminates the run as Aborted.
	Abort(userInitiated bool)

	// Fail terminates the run as Aborted and reports err to the error
	// callback and to the caller of Engine.Start.
	Fail(err error)

	// Payload returns the shared payload slot.
	Payload() any

	// SetPayload replaces the shared payload slot. Last writer wins.
	SetPayload(v any)

	// Value returns an entry of the auxiliary string-keyed map.
	Value(key string) (any, bool)

	// SetValue writes an entry of the auxiliary string-keyed map.
	SetValue(key string, v any)

	// AppendStep adds s to the end of the step list.
	AppendStep(s Step) error

	// InsertAfter inserts s immediately after the step with the given id.
	InsertAfter(id string, s Step) error

	// InsertBefore inserts s immediately before the step with the given id.
	InsertBefore(id string, s Step) error

	// RemoveStep removes the step with the given id. The running step
	// cannot be removed.
	RemoveStep(id string) error
}

// PayloadAs returns the shared payload of h converted to T. The second
// result is false when the payload is nil or of another type.
func PayloadAs[T any](h Handle) (T, bool) {
	v, ok := h.Payload().(T)
	return v, ok
}

// handle is the engine-backed Handle given to one visit of one step.
type handle struct {
	engine *Engine
	visit  uint64
	stepID string
}

func (h *handle) Advance() {
	h.engine.post(command{op: opAdvance, visit: h.visit, stepID: h.stepID})
}

func (h *handle) NavigateBack() {
	h.engine.post(command{op: opBack, visit: h.visit, stepID: h.stepID})
}

func (h *handle) CanNavigateBack() bool { return h.engine.canNavigateBack() }

func (h *handle) Abort(userInitiated bool) {
	h.engine.post(command{op: opAbort, visit: h.visit, stepID: h.stepID, userInitiated: userInitiated})
}

func (h *handle) Fail(err error) {
	h.engine.post(command{op: opFail, visit: h.visit, stepID: h.stepID, err: err})
}

func (h *handle) Payload() any { return h.engine.payloadValue() }

func (h *handle) SetPayload(v any) { h.engine.setPayload(v) }

func (h *handle) Value(key string) (any, bool) { return h.engine.value(key) }

func (h *handle) SetValue(key string, v any) { h.engine.setValue(key, v) }

func (h *handle) AppendStep(s Step) error { return h.engine.appendStep(s) }

func (h *handle) InsertAfter(id string, s Step) error { return h.engine.insertRelative(id, s, true) }

func (h *handle) InsertBefore(id string, s Step) error { return h.engine.insertRelative(id, s, false) }

func (h *handle) RemoveStep(id string) error { return h.engine.removeStep(id) }
