package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ---------------------------------------------------------------------------
// Color Palette
// ---------------------------------------------------------------------------

// ColorPrimary is the accent color used for titles and key hints.
var ColorPrimary = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7B78FF"}

// ColorAccent marks the running step.
var ColorAccent = lipgloss.AdaptiveColor{Light: "#10B981", Dark: "#34D399"}

// ColorSuccess marks finished steps and completed runs.
var ColorSuccess = lipgloss.AdaptiveColor{Light: "#16A34A", Dark: "#4ADE80"}

// ColorWarning marks aborted runs.
var ColorWarning = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// ColorError marks failed runs.
var ColorError = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#F87171"}

// ColorMuted is used for pending and skipped steps.
var ColorMuted = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}

// ColorSubtle is used for dividers and the empty part of the progress bar.
var ColorSubtle = lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#4B5563"}

// ---------------------------------------------------------------------------
// Theme
// ---------------------------------------------------------------------------

// Theme holds the lipgloss styles of the run view.
type Theme struct {
	Title       lipgloss.Style
	Description lipgloss.Style

	StepPending lipgloss.Style
	StepCurrent lipgloss.Style
	StepDone    lipgloss.Style
	StepSkipped lipgloss.Style
	StepFailed  lipgloss.Style

	OutcomeCompleted lipgloss.Style
	OutcomeAborted   lipgloss.Style
	OutcomeFailed    lipgloss.Style

	ProgressFilled lipgloss.Style
	ProgressEmpty  lipgloss.Style
	ProgressLabel  lipgloss.Style

	PromptBox lipgloss.Style
	Spinner   lipgloss.Style
	ErrorText lipgloss.Style
}

// DefaultTheme returns the default theme with adaptive colors.
func DefaultTheme() Theme {
	return Theme{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary),
		Description: lipgloss.NewStyle().
			Foreground(ColorMuted).
			MarginBottom(1),

		StepPending: lipgloss.NewStyle().Foreground(ColorMuted),
		StepCurrent: lipgloss.NewStyle().Bold(true).Foreground(ColorAccent),
		StepDone:    lipgloss.NewStyle().Foreground(ColorSuccess),
		StepSkipped: lipgloss.NewStyle().Foreground(ColorMuted).Strikethrough(true),
		StepFailed:  lipgloss.NewStyle().Bold(true).Foreground(ColorError),

		OutcomeCompleted: lipgloss.NewStyle().Bold(true).Foreground(ColorSuccess),
		OutcomeAborted:   lipgloss.NewStyle().Bold(true).Foreground(ColorWarning),
		OutcomeFailed:    lipgloss.NewStyle().Bold(true).Foreground(ColorError),

		ProgressFilled: lipgloss.NewStyle().Foreground(ColorAccent),
		ProgressEmpty:  lipgloss.NewStyle().Foreground(ColorSubtle),
		ProgressLabel:  lipgloss.NewStyle().Foreground(ColorMuted),

		PromptBox: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 1).
			MarginTop(1),
		Spinner:   lipgloss.NewStyle().Foreground(ColorAccent),
		ErrorText: lipgloss.NewStyle().Bold(true).Foreground(ColorError),
	}
}

// StepState is the display state of one step in the list.
type StepState int

const (
	StepPending StepState = iota
	StepCurrent
	StepDone
	StepSkipped
	StepFailed
)

// String returns a lower-case label for the state.
func (s StepState) String() string {
	switch s {
	case StepCurrent:
		return "current"
	case StepDone:
		return "done"
	case StepSkipped:
		return "skipped"
	case StepFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Indicator returns the styled symbol for a step state. The running step
// uses the spinner instead, so StepCurrent maps to a plain arrow here.
//
//   - pending → "○"
//   - current → "›"
//   - done    → "✓"
//   - skipped → "–"
//   - failed  → "✗"
func (t Theme) Indicator(s StepState) string {
	switch s {
	case StepCurrent:
		return t.StepCurrent.Render("›")
	case StepDone:
		return t.StepDone.Render("✓")
	case StepSkipped:
		return t.StepSkipped.Render("–")
	case StepFailed:
		return t.StepFailed.Render("✗")
	default:
		return t.StepPending.Render("○")
	}
}

// StepStyle returns the label style for a step state.
func (t Theme) StepStyle(s StepState) lipgloss.Style {
	switch s {
	case StepCurrent:
		return t.StepCurrent
	case StepDone:
		return t.StepDone
	case StepSkipped:
		return t.StepSkipped
	case StepFailed:
		return t.StepFailed
	default:
		return t.StepPending
	}
}

// ProgressBar renders a bar of the given width. filled is clamped to
// [0, 1]; a non-positive width renders nothing.
func (t Theme) ProgressBar(filled float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled = min(max(filled, 0), 1)

	filledCount := int(filled * float64(width))
	emptyCount := width - filledCount

	var sb strings.Builder
	if filledCount > 0 {
		sb.WriteString(t.ProgressFilled.Render(strings.Repeat("█", filledCount)))
	}
	if emptyCount > 0 {
		sb.WriteString(t.ProgressEmpty.Render(strings.Repeat("░", emptyCount)))
	}
	return sb.String()
}
