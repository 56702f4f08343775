package script

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/AbdelazizMoustafa10m/Stepwise/internal/stepper"
)

// Issue codes reported by Validate.
const (
	// IssueNoSteps is a warning: an empty definition completes immediately.
	IssueNoSteps = "NO_STEPS"

	// IssueUnknownAction is reported when action or then is not one of the
	// Action constants.
	IssueUnknownAction = "UNKNOWN_ACTION"

	// IssueConflictingAnchors is reported when a step sets both after and
	// before.
	IssueConflictingAnchors = "CONFLICTING_ANCHORS"

	// IssueNegativeDelay is reported for a delay below zero.
	IssueNegativeDelay = "NEGATIVE_DELAY"

	// IssueUnreachableBack is a warning for a back action on the first
	// declared step, which aborts the run.
	IssueUnreachableBack = "BACK_ON_FIRST_STEP"

	// IssueSpawnDuplicate is reported when a spawned step reuses an id
	// that is already in the step list when its parent first runs.
	IssueSpawnDuplicate = "SPAWN_DUPLICATE_ID"

	// IssueSpawnMissingTarget is reported when a spawned step is anchored
	// to an id that is not in the step list when its parent first runs.
	IssueSpawnMissingTarget = "SPAWN_MISSING_TARGET"

	// IssueResolve wraps every problem the stepper builder reports when
	// resolving the declared order.
	IssueResolve = "RESOLVE"
)

// ValidationIssue describes one problem in a Definition.
type ValidationIssue struct {
	Code    string
	Step    string
	Message string
}

// ValidationResult holds the outcome of Validate. Errors prevent a run;
// warnings do not.
type ValidationResult struct {
	Errors   []ValidationIssue
	Warnings []ValidationIssue
}

// IsValid reports whether the definition has no errors.
func (r *ValidationResult) IsValid() bool { return len(r.Errors) == 0 }

// String renders every issue, errors first, one per line.
func (r *ValidationResult) String() string {
	var b strings.Builder
	write := func(level string, issues []ValidationIssue) {
		for _, issue := range issues {
			if issue.Step != "" {
				fmt.Fprintf(&b, "%s [%s] step %q: %s\n", level, issue.Code, issue.Step, issue.Message)
			} else {
				fmt.Fprintf(&b, "%s [%s] %s\n", level, issue.Code, issue.Message)
			}
		}
	}
	write("error", r.Errors)
	write("warning", r.Warnings)
	return b.String()
}

// Validate checks d for declaration problems and then resolves its order
// with the stepper builder, folding resolution issues into the result.
// Spawn declarations are replayed against the resolved order so inserts
// the engine would reject at run time are reported here.
// It always returns a non-nil result.
func Validate(d *Definition) *ValidationResult {
	r := &ValidationResult{}
	if len(d.Steps) == 0 {
		r.Warnings = append(r.Warnings, ValidationIssue{
			Code:    IssueNoSteps,
			Message: "definition declares no steps",
		})
		return r
	}

	for i, def := range d.Steps {
		validateStep(r, def)
		if i == 0 && def.After == "" && def.Before == "" && def.FirstAction() == ActionBack {
			r.Warnings = append(r.Warnings, ValidationIssue{
				Code:    IssueUnreachableBack,
				Step:    def.ID,
				Message: "navigating back from the first step aborts the run",
			})
		}
	}

	resolved, err := d.Builder().Resolve()
	if err == nil {
		validateSpawns(r, resolved)
	}
	if err != nil {
		var be *stepper.BuildError
		if errors.As(err, &be) {
			for _, issue := range be.Issues {
				r.Errors = append(r.Errors, ValidationIssue{
					Code:    IssueResolve,
					Step:    issue.StepID,
					Message: fmt.Sprintf("[%s] %s", issue.Code, issue.Message),
				})
			}
		} else {
			r.Errors = append(r.Errors, ValidationIssue{Code: IssueResolve, Message: err.Error()})
		}
	}
	return r
}

// validateSpawns replays the runtime inserts of every spawn declaration in
// forward visit order, starting from the resolved list, and reports the
// inserts the engine would reject.
func validateSpawns(r *ValidationResult, resolved []stepper.Step) {
	order := make([]StepDef, 0, len(resolved))
	ids := make(map[string]bool, len(resolved))
	for _, st := range resolved {
		ss, ok := st.(*ScriptedStep)
		if !ok {
			continue
		}
		order = append(order, ss.Def())
		ids[ss.ID()] = true
	}

	for i := 0; i < len(order); i++ {
		parent := order[i]
		for _, child := range parent.Spawn {
			if ids[child.ID] {
				r.Errors = append(r.Errors, ValidationIssue{
					Code:    IssueSpawnDuplicate,
					Step:    parent.ID,
					Message: fmt.Sprintf("spawned step %q duplicates an existing step id", child.ID),
				})
				continue
			}

			pos := len(order)
			anchor := child.After
			if anchor == "" {
				anchor = child.Before
			}
			if anchor != "" {
				at := slices.IndexFunc(order, func(d StepDef) bool { return d.ID == anchor })
				if at < 0 {
					r.Errors = append(r.Errors, ValidationIssue{
						Code:    IssueSpawnMissingTarget,
						Step:    parent.ID,
						Message: fmt.Sprintf("spawned step %q is anchored to unknown step %q", child.ID, anchor),
					})
					continue
				}
				pos = at
				if child.After != "" {
					pos = at + 1
				}
			}
			order = slices.Insert(order, pos, child)
			ids[child.ID] = true
			if pos <= i {
				i++
			}
		}
	}
}

func validateStep(r *ValidationResult, def StepDef) {
	for _, a := range []Action{def.Action, def.Then} {
		if !a.Valid() {
			r.Errors = append(r.Errors, ValidationIssue{
				Code:    IssueUnknownAction,
				Step:    def.ID,
				Message: fmt.Sprintf("unknown action %q (want advance, back, abort, fail or prompt)", a),
			})
		}
	}
	if def.After != "" && def.Before != "" {
		r.Errors = append(r.Errors, ValidationIssue{
			Code:    IssueConflictingAnchors,
			Step:    def.ID,
			Message: fmt.Sprintf("both after %q and before %q are set", def.After, def.Before),
		})
	}
	if def.Delay.Duration < 0 {
		r.Errors = append(r.Errors, ValidationIssue{
			Code:    IssueNegativeDelay,
			Step:    def.ID,
			Message: fmt.Sprintf("delay %s is negative", def.Delay.Duration),
		})
	}
	for _, child := range def.Spawn {
		validateStep(r, child)
	}
}
