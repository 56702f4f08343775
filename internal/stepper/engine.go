package stepper

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

type commandOp int

const (
	opAdvance commandOp = iota
	opBack
	opAbort
	opFail
)

func (op commandOp) String() string {
	switch op {
	case opAdvance:
		return "advance"
	case opBack:
		return "navigate_back"
	case opAbort:
		return "abort"
	default:
		return "fail"
	}
}

// command is a transition request queued by a Handle or by Engine.Abort.
// visit 0 is never stale.
type command struct {
	op            commandOp
	visit         uint64
	stepID        string
	userInitiated bool
	err           error
}

// Engine executes a resolved step order. The step list, history stack and
// current index form one resource group guarded by mu; transitions are
// applied one at a time by the goroutine running Start, and every
// transition emits exactly one ChangeRecord.
type Engine struct {
	mu      sync.Mutex
	steps   []Step
	current int
	history []int
	status  Status
	visit   uint64
	payload any
	values  map[string]any
	last    ChangeRecord
	failure error

	cmds      chan command
	done      chan struct{}
	runCtx    context.Context
	cancelRun context.CancelFunc

	stream    *Stream
	logger    *log.Logger
	observers []func(ChangeRecord)
	onSuccess func()
	onError   func(error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a charmbracelet/log Logger. When nil the engine
// operates silently.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithObserver registers fn to receive every ChangeRecord synchronously, in
// emission order. fn must not block and must not call back into the engine.
func WithObserver(fn func(ChangeRecord)) Option {
	return func(e *Engine) {
		if fn != nil {
			e.observers = append(e.observers, fn)
		}
	}
}

// WithOnSuccess registers fn to be called once when the run completes.
func WithOnSuccess(fn func()) Option {
	return func(e *Engine) { e.onSuccess = fn }
}

// WithOnError registers fn to be called once with the error of a failed
// run.
func WithOnError(fn func(error)) Option {
	return func(e *Engine) { e.onError = fn }
}

func newEngine(steps []Step, opts ...Option) *Engine {
	e := &Engine{
		steps:   steps,
		current: -1,
		values:  make(map[string]any),
		cmds:    make(chan command, 1),
		done:    make(chan struct{}),
		stream:  newStream(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start runs the engine until it reaches a terminal state and returns the
// terminal record. payload, when non-nil, seeds the shared payload slot.
//
// The returned error is the error passed to Handle.Fail, ctx.Err() when ctx
// ends the run, or ErrAlreadyStarted when the engine has been started
// before. A plain abort returns a nil error; inspect the record's Kind.
func (e *Engine) Start(ctx context.Context, payload any) (ChangeRecord, error) {
	e.mu.Lock()
	if e.status != StatusNotStarted {
		e.mu.Unlock()
		return ChangeRecord{}, fmt.Errorf("stepper: %w", ErrAlreadyStarted)
	}
	e.status = StatusRunning
	if payload != nil {
		e.payload = payload
	}
	e.runCtx, e.cancelRun = context.WithCancel(ctx)
	e.mu.Unlock()
	defer e.cancelRun()

	e.log("engine started", "steps", e.Len())

	rec := e.begin()
	for !rec.Terminal() {
		select {
		case cmd := <-e.cmds:
			rec = e.apply(cmd)
		case <-ctx.Done():
			e.log("context done, aborting", "error", ctx.Err())
			rec = e.terminate(KindAborted, false, nil, true)
			return rec, ctx.Err()
		}
	}

	e.mu.Lock()
	err := e.failure
	e.mu.Unlock()
	return rec, err
}

// Abort terminates a running engine as Aborted. It is safe to call at any
// time and from any goroutine; it does nothing unless the engine is
// running.
func (e *Engine) Abort(userInitiated bool) {
	e.post(command{op: opAbort, userInitiated: userInitiated})
}

// CurrentStep returns the running step, or nil.
func (e *Engine) CurrentStep() Step {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status != StatusRunning || e.current < 0 {
		return nil
	}
	return e.steps[e.current]
}

// Steps returns a snapshot of the step ids in execution order.
func (e *Engine) Steps() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, len(e.steps))
	for i, s := range e.steps {
		ids[i] = s.ID()
	}
	return ids
}

// Len returns the number of steps in the list.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.steps)
}

// State returns the lifecycle status of the engine.
func (e *Engine) State() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Changes returns the engine's change stream.
func (e *Engine) Changes() *Stream { return e.stream }

// begin starts the first available step, or completes an empty run.
func (e *Engine) begin() ChangeRecord {
	e.mu.Lock()
	next := e.nextAvailable(-1)
	if next < 0 {
		e.mu.Unlock()
		return e.terminate(KindCompleted, false, nil, false)
	}
	e.current = next
	rec := e.recordLocked(KindStarted, nil)
	step, h := e.steps[next], e.newHandleLocked(next)
	e.mu.Unlock()

	e.emit(rec)
	e.launch(step, h, false)
	return rec
}

// apply executes one queued command. Commands from stale handles are
// dropped and the last record is returned unchanged.
func (e *Engine) apply(cmd command) ChangeRecord {
	e.mu.Lock()
	if e.stale(cmd) {
		last := e.last
		e.mu.Unlock()
		e.debug("ignoring stale command", "op", cmd.op, "step", cmd.stepID)
		return last
	}
	e.mu.Unlock()

	e.debug("command", "op", cmd.op, "step", cmd.stepID)

	switch cmd.op {
	case opAdvance:
		return e.forward()
	case opBack:
		return e.backward()
	case opAbort:
		return e.terminate(KindAborted, cmd.userInitiated, nil, true)
	default:
		err := cmd.err
		if err == nil {
			err = fmt.Errorf("step %q failed", cmd.stepID)
		}
		e.mu.Lock()
		e.failure = err
		e.mu.Unlock()
		return e.terminate(KindAborted, false, err, true)
	}
}

// forward stops the current step and moves to the next available one.
func (e *Engine) forward() ChangeRecord {
	prev := e.stopCurrent()

	e.mu.Lock()
	next := e.nextAvailable(e.current)
	if next < 0 {
		e.mu.Unlock()
		return e.terminate(KindCompleted, false, nil, false)
	}
	e.history = append(e.history, e.current)
	e.current = next
	rec := e.recordLocked(KindForward, prev)
	step, h := e.steps[next], e.newHandleLocked(next)
	e.mu.Unlock()

	e.emit(rec)
	e.launch(step, h, false)
	return rec
}

// backward stops the current step and resumes the most recent visited
// step that is still available. With no such step the run aborts.
func (e *Engine) backward() ChangeRecord {
	prev := e.stopCurrent()

	e.mu.Lock()
	target := -1
	for len(e.history) > 0 {
		k := e.history[len(e.history)-1]
		e.history = e.history[:len(e.history)-1]
		if e.steps[k].Available() {
			target = k
			break
		}
	}
	if target < 0 {
		e.mu.Unlock()
		return e.terminate(KindAborted, true, nil, false)
	}
	e.current = target
	rec := e.recordLocked(KindBackward, prev)
	step, h := e.steps[target], e.newHandleLocked(target)
	e.mu.Unlock()

	e.emit(rec)
	e.launch(step, h, true)
	return rec
}

// stopCurrent invalidates the current visit and calls OnStopped outside
// the lock so the hook may still mutate the list.
func (e *Engine) stopCurrent() Step {
	e.mu.Lock()
	e.visit++
	cur := e.steps[e.current]
	e.mu.Unlock()

	cur.OnStopped()
	return cur
}

// terminate ends the run: the current step is stopped (when stop is set),
// every step is cleaned up exactly once, history is cleared, and one
// terminal record is emitted.
func (e *Engine) terminate(kind Kind, userInitiated bool, err error, stop bool) ChangeRecord {
	var prev Step
	if stop {
		prev = e.stopCurrent()
	} else {
		e.mu.Lock()
		if e.current >= 0 {
			prev = e.steps[e.current]
		}
		e.mu.Unlock()
	}

	e.mu.Lock()
	e.status = StatusTerminated
	e.visit++
	close(e.done)
	steps := slices.Clone(e.steps)
	e.mu.Unlock()

	e.cancelRun()
	for _, s := range steps {
		s.OnCleanup()
	}

	e.mu.Lock()
	e.history = nil
	e.current = -1
	rec := e.recordLocked(kind, prev)
	rec.UserInitiated = userInitiated
	rec.Err = err
	e.last = rec
	e.mu.Unlock()

	e.emit(rec)
	e.stream.close()

	switch {
	case kind == KindCompleted:
		e.log("engine completed", "steps", rec.Total)
		if e.onSuccess != nil {
			e.onSuccess()
		}
	case err != nil:
		e.log("engine failed", "step", rec.PreviousID(), "error", err)
		if e.onError != nil {
			e.onError(err)
		}
	default:
		e.log("engine aborted", "step", rec.PreviousID(), "user", userInitiated)
	}
	return rec
}

// nextAvailable scans forward from index from+1 and returns the first
// available step, or -1. Called with mu held.
func (e *Engine) nextAvailable(from int) int {
	for i := from + 1; i < len(e.steps); i++ {
		if e.steps[i].Available() {
			return i
		}
		e.debug("skipping unavailable step", "step", e.steps[i].ID())
	}
	return -1
}

// recordLocked builds a record for the current position. Called with mu
// held; it also remembers the record as the last one.
func (e *Engine) recordLocked(kind Kind, prev Step) ChangeRecord {
	rec := ChangeRecord{
		Previous: prev,
		Index:    e.current,
		Total:    len(e.steps),
		Kind:     kind,
		At:       time.Now(),
	}
	if e.current >= 0 {
		rec.Current = e.steps[e.current]
	}
	e.last = rec
	return rec
}

// newHandleLocked opens a new visit of the step at idx. Called with mu
// held.
func (e *Engine) newHandleLocked(idx int) *handle {
	e.visit++
	return &handle{engine: e, visit: e.visit, stepID: e.steps[idx].ID()}
}

// launch runs the step's start or resume hook on its own goroutine. A
// panic in the hook fails the run.
func (e *Engine) launch(step Step, h *handle, resumed bool) {
	ctx := e.runCtx
	go func() {
		defer func() {
			if r := recover(); r != nil {
				h.Fail(fmt.Errorf("stepper: step %q panicked: %v", step.ID(), r))
			}
		}()
		if resumed {
			step.OnResumed(ctx, h)
			return
		}
		step.OnStarted(ctx, h)
	}()
}

// post queues cmd for the run loop. Stale commands and commands sent after
// termination are dropped.
func (e *Engine) post(cmd command) {
	e.mu.Lock()
	if e.stale(cmd) {
		e.mu.Unlock()
		e.debug("dropping command", "op", cmd.op, "step", cmd.stepID, "status", e.State())
		return
	}
	e.mu.Unlock()

	select {
	case e.cmds <- cmd:
	case <-e.done:
	}
}

// stale reports whether cmd no longer applies. Called with mu held.
func (e *Engine) stale(cmd command) bool {
	if e.status != StatusRunning {
		return true
	}
	return cmd.visit != 0 && cmd.visit != e.visit
}

// emit publishes rec to the stream and to every observer.
func (e *Engine) emit(rec ChangeRecord) {
	e.stream.publish(rec)
	for _, fn := range e.observers {
		fn(rec)
	}
	e.log("transition", "kind", rec.Kind, "step", rec.CurrentID(), "index", rec.Index, "total", rec.Total)
}

// --- shared payload ---

func (e *Engine) payloadValue() any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.payload
}

func (e *Engine) setPayload(v any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.payload = v
}

func (e *Engine) value(key string) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.values[key]
	return v, ok
}

func (e *Engine) setValue(key string, v any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.values[key] = v
}

func (e *Engine) canNavigateBack() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := len(e.history) - 1; i >= 0; i-- {
		if e.steps[e.history[i]].Available() {
			return true
		}
	}
	return false
}

// --- runtime mutation ---

func (e *Engine) appendStep(s Step) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkInsertLocked(s); err != nil {
		return err
	}
	e.steps = append(e.steps, s)
	e.debug("step appended", "step", s.ID())
	return nil
}

func (e *Engine) insertRelative(target string, s Step, after bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkInsertLocked(s); err != nil {
		return err
	}
	idx := indexOf(e.steps, target)
	if idx < 0 {
		return fmt.Errorf("stepper: inserting %q: target %q: %w", s.ID(), target, ErrStepNotFound)
	}
	if after {
		idx++
	}
	e.insertAtLocked(idx, s)
	e.debug("step inserted", "step", s.ID(), "target", target, "after", after)
	return nil
}

// insertAtLocked inserts s at pos and shifts the current index and history
// entries that sit at or after pos.
func (e *Engine) insertAtLocked(pos int, s Step) {
	e.steps = slices.Insert(e.steps, pos, s)
	if e.current >= pos {
		e.current++
	}
	for i, h := range e.history {
		if h >= pos {
			e.history[i] = h + 1
		}
	}
}

func (e *Engine) checkInsertLocked(s Step) error {
	if e.status == StatusTerminated {
		return fmt.Errorf("stepper: %w", ErrTerminated)
	}
	if s == nil || s.ID() == "" {
		return fmt.Errorf("stepper: %w: nil step or empty id", ErrInvalidStep)
	}
	if indexOf(e.steps, s.ID()) >= 0 {
		return fmt.Errorf("stepper: step %q: %w", s.ID(), ErrDuplicateID)
	}
	return nil
}

func (e *Engine) removeStep(id string) error {
	e.mu.Lock()
	if e.status == StatusTerminated {
		e.mu.Unlock()
		return fmt.Errorf("stepper: %w", ErrTerminated)
	}
	idx := indexOf(e.steps, id)
	if idx < 0 {
		e.mu.Unlock()
		return fmt.Errorf("stepper: removing %q: %w", id, ErrStepNotFound)
	}
	if idx == e.current && e.status == StatusRunning {
		e.mu.Unlock()
		return fmt.Errorf("stepper: removing %q: %w", id, ErrStepRunning)
	}

	removed := e.steps[idx]
	e.steps = slices.Delete(e.steps, idx, idx+1)
	if e.current > idx {
		e.current--
	}
	history := e.history[:0]
	for _, h := range e.history {
		switch {
		case h == idx:
		case h > idx:
			history = append(history, h-1)
		default:
			history = append(history, h)
		}
	}
	e.history = history
	e.mu.Unlock()

	e.debug("step removed", "step", id)
	removed.OnCleanup()
	return nil
}

// --- logging ---

func (e *Engine) log(msg string, kvs ...any) {
	if e.logger == nil {
		return
	}
	e.logger.Info(msg, kvs...)
}

func (e *Engine) debug(msg string, kvs ...any) {
	if e.logger == nil {
		return
	}
	e.logger.Debug(msg, kvs...)
}
