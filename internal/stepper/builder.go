package stepper

import (
	"fmt"
	"slices"
	"strings"
)

// placement says on which side of its target an insertion lands.
type placement int

const (
	placeBefore placement = iota
	placeAfter
)

func (p placement) String() string {
	if p == placeAfter {
		return "after"
	}
	return "before"
}

// insertion is a deferred relative-insertion request, consumed once by
// Build.
type insertion struct {
	step   Step
	target string
	place  placement
}

// Builder accumulates a base list of steps plus relative insertions and
// resolves them into the linear order an Engine executes. A Builder is
// single-use: Build consumes it whether or not it succeeds.
type Builder struct {
	steps   []Step
	inserts []insertion
	built   bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddStep appends s to the base list.
func (b *Builder) AddStep(s Step) *Builder {
	b.steps = append(b.steps, s)
	return b
}

// AddStepAfter records that s goes immediately after the step with id
// target. The target does not need to exist yet.
func (b *Builder) AddStepAfter(target string, s Step) *Builder {
	b.inserts = append(b.inserts, insertion{step: s, target: target, place: placeAfter})
	return b
}

// AddStepBefore records that s goes immediately before the step with id
// target. The target does not need to exist yet.
func (b *Builder) AddStepBefore(target string, s Step) *Builder {
	b.inserts = append(b.inserts, insertion{step: s, target: target, place: placeBefore})
	return b
}

// Build resolves the declarations and returns an Engine bound to the
// resulting order. Every problem found is reported in one *BuildError; no
// Engine is produced unless the order is fully valid.
func (b *Builder) Build(opts ...Option) (*Engine, error) {
	if b.built {
		return nil, fmt.Errorf("stepper: %w", ErrBuilderConsumed)
	}
	b.built = true

	order, issues := b.resolve()
	if len(issues) > 0 {
		return nil, &BuildError{Issues: issues}
	}
	return newEngine(order, opts...), nil
}

// Resolve returns the order Build would produce without consuming the
// Builder.
func (b *Builder) Resolve() ([]Step, error) {
	order, issues := b.resolve()
	if len(issues) > 0 {
		return nil, &BuildError{Issues: issues}
	}
	return order, nil
}

// resolve applies every "before" insertion and then every "after"
// insertion, each in declaration order, and validates the result.
//
// Validation sequence:
//  1. Declarations: nil steps and empty ids.
//  2. Self-reference: a step anchored on its own id.
//  3. Insertion cycles: DFS three-color marking over inserted ids.
//  4. Missing targets, found while applying insertions.
//  5. Duplicate ids in the resolved list.
func (b *Builder) resolve() ([]Step, []Issue) {
	var issues []Issue

	for i, s := range b.steps {
		issues = appendDeclIssues(issues, s, fmt.Sprintf("step at position %d", i))
	}

	pending := make([]insertion, 0, len(b.inserts))
	for _, ins := range b.inserts {
		before := len(issues)
		issues = appendDeclIssues(issues, ins.step, fmt.Sprintf("step inserted %s %q", ins.place, ins.target))
		if len(issues) > before {
			continue
		}
		if ins.step.ID() == ins.target {
			issues = append(issues, Issue{
				Code:    IssueSelfReference,
				StepID:  ins.target,
				Message: fmt.Sprintf("step %q is inserted %s itself", ins.target, ins.place),
			})
			continue
		}
		pending = append(pending, ins)
	}

	cycleIssues, cyclic := findInsertionCycles(pending)
	issues = append(issues, cycleIssues...)

	order := slices.Clone(b.steps)
	order = slices.DeleteFunc(order, func(s Step) bool { return s == nil || s.ID() == "" })

	for _, place := range []placement{placeBefore, placeAfter} {
		for _, ins := range pending {
			if ins.place != place || cyclic[ins.step.ID()] {
				continue
			}
			idx := indexOf(order, ins.target)
			if idx < 0 {
				issues = append(issues, Issue{
					Code:    IssueMissingTarget,
					StepID:  ins.target,
					Message: fmt.Sprintf("insertion target %q not found for step %q (%s)", ins.target, ins.step.ID(), ins.place),
				})
				continue
			}
			if place == placeAfter {
				idx++
			}
			order = slices.Insert(order, idx, ins.step)
		}
	}

	issues = append(issues, duplicateIssues(order)...)
	return order, issues
}

func appendDeclIssues(issues []Issue, s Step, where string) []Issue {
	if s == nil {
		return append(issues, Issue{Code: IssueNilStep, Message: where + " is nil"})
	}
	if s.ID() == "" {
		return append(issues, Issue{Code: IssueEmptyID, Message: where + " has an empty id"})
	}
	return issues
}

// findInsertionCycles reports chains of insertions that anchor on each
// other and can therefore never be placed. It returns the issues and the
// set of inserted ids that take part in a cycle.
func findInsertionCycles(pending []insertion) ([]Issue, map[string]bool) {
	var ids []string
	adjacency := make(map[string][]string)
	for _, ins := range pending {
		id := ins.step.ID()
		if _, seen := adjacency[id]; !seen {
			ids = append(ids, id)
		}
		adjacency[id] = append(adjacency[id], ins.target)
	}

	const (
		colorWhite = 0
		colorGray  = 1
		colorBlack = 2
	)

	var issues []Issue
	cyclic := make(map[string]bool)
	color := make(map[string]int, len(ids))

	var dfs func(node string, path []string)
	dfs = func(node string, path []string) {
		color[node] = colorGray
		path = append(path, node)

		for _, next := range adjacency[node] {
			if _, inserted := adjacency[next]; !inserted {
				continue
			}
			switch color[next] {
			case colorGray:
				start := slices.Index(path, next)
				loop := append(slices.Clone(path[start:]), next)
				for _, id := range loop {
					cyclic[id] = true
				}
				issues = append(issues, Issue{
					Code:    IssueInsertionCycle,
					StepID:  next,
					Message: fmt.Sprintf("insertion cycle involving steps: %s", strings.Join(loop, " → ")),
				})
			case colorWhite:
				dfs(next, path)
			}
		}

		color[node] = colorBlack
	}

	for _, id := range ids {
		if color[id] == colorWhite {
			dfs(id, nil)
		}
	}
	return issues, cyclic
}

// duplicateIssues names every id that appears more than once, in order of
// first appearance.
func duplicateIssues(order []Step) []Issue {
	counts := make(map[string]int, len(order))
	var ids []string
	for _, s := range order {
		if counts[s.ID()] == 0 {
			ids = append(ids, s.ID())
		}
		counts[s.ID()]++
	}

	var issues []Issue
	for _, id := range ids {
		if counts[id] > 1 {
			issues = append(issues, Issue{
				Code:    IssueDuplicateID,
				StepID:  id,
				Message: fmt.Sprintf("step id %q appears %d times", id, counts[id]),
			})
		}
	}
	return issues
}

func indexOf(steps []Step, id string) int {
	return slices.IndexFunc(steps, func(s Step) bool { return s.ID() == id })
}
