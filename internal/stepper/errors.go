package stepper

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Build failures wrap the build sentinels inside a
// *BuildError; runtime errors are returned wrapped with the step id.
var (
	ErrMissingTarget  = errors.New("insertion target not found")
	ErrDuplicateID    = errors.New("duplicate step id")
	ErrSelfReference  = errors.New("step inserted relative to itself")
	ErrInsertionCycle = errors.New("insertion cycle")
	ErrInvalidStep    = errors.New("invalid step")

	ErrBuilderConsumed = errors.New("builder already built")
	ErrAlreadyStarted  = errors.New("engine already started")
	ErrTerminated      = errors.New("engine terminated")
	ErrStepNotFound    = errors.New("step not found")
	ErrStepRunning     = errors.New("step is running")
)

// Issue code constants classify each build Issue. Codes are stable strings
// so callers can switch on them.
const (
	// IssueNilStep is reported for a nil step declaration.
	IssueNilStep = "NIL_STEP"

	// IssueEmptyID is reported for a step whose ID is empty.
	IssueEmptyID = "EMPTY_ID"

	// IssueSelfReference is reported when a step is inserted relative to a
	// target with its own id.
	IssueSelfReference = "SELF_REFERENCE"

	// IssueInsertionCycle is reported when chained insertion requests
	// anchor on each other (X after Y, Y before X).
	IssueInsertionCycle = "INSERTION_CYCLE"

	// IssueMissingTarget is reported when an insertion target id is not in
	// the list at the time the insertion is applied.
	IssueMissingTarget = "MISSING_TARGET"

	// IssueDuplicateID is reported when the resolved list holds the same id
	// more than once.
	IssueDuplicateID = "DUPLICATE_ID"
)

var issueSentinels = map[string]error{
	IssueNilStep:        ErrInvalidStep,
	IssueEmptyID:        ErrInvalidStep,
	IssueSelfReference:  ErrSelfReference,
	IssueInsertionCycle: ErrInsertionCycle,
	IssueMissingTarget:  ErrMissingTarget,
	IssueDuplicateID:    ErrDuplicateID,
}

// Issue describes one problem found while resolving a Builder.
type Issue struct {
	// Code is one of the Issue* constants.
	Code string
	// StepID names the offending id (the missing target for
	// IssueMissingTarget). Empty for nil or unnamed steps.
	StepID string
	// Message is a human-readable description.
	Message string
}

// Err returns the issue as an error wrapping its sentinel.
func (i Issue) Err() error {
	sentinel, ok := issueSentinels[i.Code]
	if !ok {
		return errors.New(i.Message)
	}
	return fmt.Errorf("%w: %s", sentinel, i.Message)
}

// BuildError aggregates every Issue found by Builder.Build. errors.Is
// matches the sentinel of any contained issue.
type BuildError struct {
	Issues []Issue
}

// Error lists every issue on its own line.
func (e *BuildError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "stepper: build failed with %d issue(s)", len(e.Issues))
	for _, issue := range e.Issues {
		fmt.Fprintf(&b, "\n  [%s] %s", issue.Code, issue.Message)
	}
	return b.String()
}

// Unwrap exposes one error per issue.
func (e *BuildError) Unwrap() []error {
	errs := make([]error, len(e.Issues))
	for i, issue := range e.Issues {
		errs[i] = issue.Err()
	}
	return errs
}

// IDs returns the step ids named by issues with the given code, in order.
func (e *BuildError) IDs(code string) []string {
	var ids []string
	for _, issue := range e.Issues {
		if issue.Code == code {
			ids = append(ids, issue.StepID)
		}
	}
	return ids
}

// IsBuildError reports whether err came from Builder resolution.
func IsBuildError(err error) bool {
	var be *BuildError
	return errors.As(err, &be)
}
