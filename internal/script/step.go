package script

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/AbdelazizMoustafa10m/Stepwise/internal/stepper"
)

// VisitedKey is the auxiliary value under which scripted steps record the
// ids they have run, in visit order, as a []string.
const VisitedKey = "visited"

var (
	// ErrStepFailed wraps the message of a step whose action is fail.
	ErrStepFailed = errors.New("step failed")

	// ErrNoPrompter is returned when a prompt step runs without a Prompter.
	ErrNoPrompter = errors.New("no prompter configured")

	// ErrPromptCancelled is returned by a Prompter when the user dismisses
	// the prompt. The step aborts the run as a user gesture.
	ErrPromptCancelled = errors.New("prompt cancelled")
)

// Choice is the answer to a Prompt.
type Choice string

const (
	ChoiceNext  Choice = "next"
	ChoiceBack  Choice = "back"
	ChoiceAbort Choice = "abort"
)

// Prompt is the question a prompt step asks.
type Prompt struct {
	StepID  string
	Title   string
	Message string
	// CanGoBack reports whether answering ChoiceBack resumes an earlier
	// step. When false, going back would abort the run.
	CanGoBack bool
}

// Prompter asks the user what a prompt step should do. Ask blocks until the
// user answers or ctx is done.
type Prompter interface {
	Ask(ctx context.Context, p Prompt) (Choice, error)
}

// PrompterFunc adapts a function to a Prompter.
type PrompterFunc func(ctx context.Context, p Prompt) (Choice, error)

// Ask calls f.
func (f PrompterFunc) Ask(ctx context.Context, p Prompt) (Choice, error) { return f(ctx, p) }

// StepOption configures a ScriptedStep. Options are inherited by the steps
// a ScriptedStep spawns.
type StepOption func(*ScriptedStep)

// WithPrompter sets the Prompter used by prompt actions.
func WithPrompter(p Prompter) StepOption {
	return func(s *ScriptedStep) { s.prompter = p }
}

// WithDefaultDelay sets the delay of steps that declare none.
func WithDefaultDelay(d time.Duration) StepOption {
	return func(s *ScriptedStep) { s.defaultDelay = d }
}

// WithLookupEnv replaces os.LookupEnv for skip_env checks.
func WithLookupEnv(fn func(string) (string, bool)) StepOption {
	return func(s *ScriptedStep) { s.lookupEnv = fn }
}

// WithStepLogger attaches a logger to the step.
func WithStepLogger(logger *log.Logger) StepOption {
	return func(s *ScriptedStep) { s.logger = logger }
}

var _ stepper.Step = (*ScriptedStep)(nil)

// ScriptedStep is a stepper.Step driven by a StepDef. On its first visit it
// spawns its declared children and performs FirstAction; later visits,
// forward or backward, perform RepeatAction. Every visit waits the step's
// delay and records the id under VisitedKey first.
type ScriptedStep struct {
	def          StepDef
	prompter     Prompter
	defaultDelay time.Duration
	lookupEnv    func(string) (string, bool)
	logger       *log.Logger
	opts         []StepOption

	mu     sync.Mutex
	visits int
}

// NewScriptedStep returns a step for def.
func NewScriptedStep(def StepDef, opts ...StepOption) *ScriptedStep {
	s := &ScriptedStep{
		def:       def,
		lookupEnv: os.LookupEnv,
		opts:      opts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the declared id.
func (s *ScriptedStep) ID() string { return s.def.ID }

// Def returns the declaration the step was built from.
func (s *ScriptedStep) Def() StepDef { return s.def }

// Available is false when skip is set, or when skip_env names a variable
// holding a true value. Values that are not booleans count as true.
func (s *ScriptedStep) Available() bool {
	if s.def.Skip {
		return false
	}
	if s.def.SkipEnv == "" {
		return true
	}
	v, ok := s.lookupEnv(s.def.SkipEnv)
	if !ok || v == "" {
		return true
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return !b
	}
	return false
}

// OnStarted runs a forward visit.
func (s *ScriptedStep) OnStarted(ctx context.Context, h stepper.Handle) {
	first := s.visit()
	action := s.def.RepeatAction()
	if first {
		action = s.def.FirstAction()
		if err := s.spawn(h); err != nil {
			h.Fail(err)
			return
		}
	}
	s.run(ctx, h, action)
}

// OnResumed runs a backward visit.
func (s *ScriptedStep) OnResumed(ctx context.Context, h stepper.Handle) {
	s.visit()
	s.run(ctx, h, s.def.RepeatAction())
}

// OnStopped logs the departure.
func (s *ScriptedStep) OnStopped() {
	s.debug("step stopped")
}

// OnCleanup resets the visit count.
func (s *ScriptedStep) OnCleanup() {
	s.mu.Lock()
	s.visits = 0
	s.mu.Unlock()
	s.debug("step cleaned up")
}

// Visits returns how many times the step has been started or resumed in
// the current run.
func (s *ScriptedStep) Visits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visits
}

// visit counts a visit and reports whether it is the first.
func (s *ScriptedStep) visit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visits++
	return s.visits == 1
}

func (s *ScriptedStep) spawn(h stepper.Handle) error {
	for _, def := range s.def.Spawn {
		child := NewScriptedStep(def, s.opts...)
		var err error
		switch {
		case def.After != "":
			err = h.InsertAfter(def.After, child)
		case def.Before != "":
			err = h.InsertBefore(def.Before, child)
		default:
			err = h.AppendStep(child)
		}
		if err != nil {
			return fmt.Errorf("step %q spawning %q: %w", s.def.ID, def.ID, err)
		}
		s.debug("spawned step", "child", def.ID)
	}
	return nil
}

func (s *ScriptedStep) run(ctx context.Context, h stepper.Handle, action Action) {
	recordVisit(h, s.def.ID)
	if !s.wait(ctx) {
		return
	}
	s.debug("performing action", "action", action)
	s.perform(ctx, h, action)
}

// wait sleeps for the step's delay. It returns false when ctx ends first.
func (s *ScriptedStep) wait(ctx context.Context) bool {
	d := s.def.Delay.Duration
	if d == 0 {
		d = s.defaultDelay
	}
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *ScriptedStep) perform(ctx context.Context, h stepper.Handle, action Action) {
	switch action {
	case ActionBack:
		h.NavigateBack()
	case ActionAbort:
		h.Abort(true)
	case ActionFail:
		msg := s.def.Message
		if msg == "" {
			msg = s.def.ID
		}
		h.Fail(fmt.Errorf("%w: %s", ErrStepFailed, msg))
	case ActionPrompt:
		s.prompt(ctx, h)
	default:
		h.Advance()
	}
}

func (s *ScriptedStep) prompt(ctx context.Context, h stepper.Handle) {
	if s.prompter == nil {
		h.Fail(fmt.Errorf("step %q: %w", s.def.ID, ErrNoPrompter))
		return
	}

	choice, err := s.prompter.Ask(ctx, Prompt{
		StepID:    s.def.ID,
		Title:     s.def.Label(),
		Message:   s.def.Message,
		CanGoBack: h.CanNavigateBack(),
	})
	switch {
	case ctx.Err() != nil:
		return
	case errors.Is(err, ErrPromptCancelled):
		h.Abort(true)
		return
	case err != nil:
		h.Fail(fmt.Errorf("step %q prompt: %w", s.def.ID, err))
		return
	}

	s.debug("prompt answered", "choice", choice)
	switch choice {
	case ChoiceBack:
		h.NavigateBack()
	case ChoiceAbort:
		h.Abort(true)
	default:
		h.Advance()
	}
}

func (s *ScriptedStep) debug(msg string, kvs ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Debug(msg, append([]any{"step", s.def.ID}, kvs...)...)
}

// Visited returns the ids recorded under VisitedKey.
func Visited(h stepper.Handle) []string {
	v, _ := h.Value(VisitedKey)
	ids, _ := v.([]string)
	return ids
}

func recordVisit(h stepper.Handle, id string) {
	h.SetValue(VisitedKey, append(slices.Clone(Visited(h)), id))
}
