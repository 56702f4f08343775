package stepper

import "context"

// Step is one stage of a workflow. The engine owns every Step once the
// Builder has resolved the order; a Step only talks back to the engine
// through the Handle it receives in OnStarted and OnResumed.
type Step interface {
	// ID returns the stable identifier of the step. Ids are unique within
	// an engine and are used as insertion anchors.
	ID() string

	// Available reports whether the step applies to the current run. It
	// must be cheap and free of side effects, may be called any number of
	// times, and must not call back into the engine.
	Available() bool

	// OnStarted is invoked when the engine moves forward onto the step.
	// It runs on its own goroutine and may block for as long as the step
	// needs; the step reports its outcome through h. ctx is cancelled when
	// the run terminates.
	OnStarted(ctx context.Context, h Handle)

	// OnResumed is invoked when backward navigation returns to the step.
	OnResumed(ctx context.Context, h Handle)

	// OnStopped is invoked when the engine leaves the step, before the next
	// step is evaluated.
	OnStopped()

	// OnCleanup is invoked exactly once for every step when the run
	// terminates, whether or not the step was ever visited.
	OnCleanup()
}

// BaseStep supplies the id and the default behavior of a Step: always
// available, no-op resume, stop and cleanup hooks. Embed it and implement
// OnStarted.
type BaseStep struct {
	StepID string
}

// NewBaseStep returns a BaseStep with the given id.
func NewBaseStep(id string) BaseStep { return BaseStep{StepID: id} }

// ID returns the step id.
func (b BaseStep) ID() string { return b.StepID }

// Available returns true.
func (BaseStep) Available() bool { return true }

// OnResumed does nothing.
func (BaseStep) OnResumed(context.Context, Handle) {}

// OnStopped does nothing.
func (BaseStep) OnStopped() {}

// OnCleanup does nothing.
func (BaseStep) OnCleanup() {}

// StepFunc adapts a plain function to a Step. The function serves both
// OnStarted and OnResumed.
type StepFunc struct {
	BaseStep
	Fn func(ctx context.Context, h Handle)
}

// NewStepFunc returns a Step with the given id that runs fn whenever the
// engine starts or resumes it.
func NewStepFunc(id string, fn func(ctx context.Context, h Handle)) *StepFunc {
	return &StepFunc{BaseStep: NewBaseStep(id), Fn: fn}
}

// OnStarted calls Fn.
func (s *StepFunc) OnStarted(ctx context.Context, h Handle) { s.Fn(ctx, h) }

// OnResumed calls Fn.
func (s *StepFunc) OnResumed(ctx context.Context, h Handle) { s.Fn(ctx, h) }
