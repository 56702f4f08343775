package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/AbdelazizMoustafa10m/Stepwise/internal/logging"
	"github.com/AbdelazizMoustafa10m/Stepwise/internal/script"
	"github.com/AbdelazizMoustafa10m/Stepwise/internal/stepper"
)

// defaultBarWidth is the progress bar width used before the first
// WindowSizeMsg arrives.
const defaultBarWidth = 30

// AppConfig holds what the run view needs from the caller.
type AppConfig struct {
	// Title is the wizard name shown in the header.
	Title string
	// Description is shown under the title when non-empty.
	Description string
	// Steps returns the current step ids in order. The list can change
	// while the run is in progress.
	Steps func() []string
	// Labels maps step ids to display labels. Missing ids render as the id.
	Labels map[string]string
	// Records delivers every change record of the run, in order. Use a
	// RecordFeed; a conflating Stream subscription can drop forward
	// records and make visited steps show as skipped.
	Records <-chan stepper.ChangeRecord
	// Abort is called when the user asks to stop the run.
	Abort func(userInitiated bool)
	// Prompts is the broker steps use to ask questions. May be nil.
	Prompts *PromptBroker
}

// App is the Bubble Tea model of the run view. It lists the steps with
// their state, shows the running step's prompt and ends with the outcome
// of the run.
type App struct {
	ctx    context.Context
	config AppConfig
	theme  Theme
	keys   KeyMap

	spinner spinner.Model
	help    help.Model
	prompt  PromptModel

	width    int
	visited  map[string]bool
	last     stepper.ChangeRecord
	hasLast  bool
	aborting bool
	done     bool
}

// NewApp returns an App bound to ctx. Commands issued by the App stop
// waiting once ctx is done.
func NewApp(ctx context.Context, cfg AppConfig) App {
	theme := DefaultTheme()
	return App{
		ctx:    ctx,
		config: cfg,
		theme:  theme,
		keys:   DefaultKeyMap(),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(theme.Spinner),
		),
		help:    help.New(),
		prompt:  NewPromptModel(theme),
		visited: make(map[string]bool),
	}
}

// Init starts the spinner and begins draining records and prompts.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.spinner.Tick, RecordCmd(a.ctx, a.config.Records)}
	if a.config.Prompts != nil {
		cmds = append(cmds, a.config.Prompts.NextCmd(a.ctx))
	}
	return tea.Batch(cmds...)
}

// Update handles records, prompts, keys and window resizes.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = m.Width
		a.help.Width = m.Width
		a.prompt.SetWidth(m.Width)
		return a, nil

	case RecordMsg:
		a.observe(m.Record)
		return a, RecordCmd(a.ctx, a.config.Records)

	case StreamClosedMsg:
		a.done = true
		if a.prompt.IsActive() {
			a.prompt.Cancel()
		}
		return a, tea.Quit

	case PromptRequestMsg:
		next := a.config.Prompts.NextCmd(a.ctx)
		if a.done {
			m.Reply <- PromptReply{Err: script.ErrPromptCancelled}
			return a, next
		}
		return a, tea.Batch(a.prompt.Start(m), next)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(m)
		return a, cmd

	case tea.KeyMsg:
		return a.handleKey(m)
	}

	if a.prompt.IsActive() {
		var cmd tea.Cmd
		a.prompt, cmd = a.prompt.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(m, a.keys.Quit) {
		a.abort()
		return a, tea.Quit
	}

	if a.prompt.IsActive() {
		var cmd tea.Cmd
		a.prompt, cmd = a.prompt.Update(m)
		return a, cmd
	}

	switch {
	case key.Matches(m, a.keys.Abort):
		a.abort()
	case key.Matches(m, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
	}
	return a, nil
}

func (a *App) abort() {
	if a.aborting || a.done {
		return
	}
	a.aborting = true
	if a.prompt.IsActive() {
		a.prompt.Cancel()
	}
	if a.config.Abort != nil {
		a.config.Abort(true)
	}
}

func (a *App) observe(rec stepper.ChangeRecord) {
	if id := rec.CurrentID(); id != "" {
		a.visited[id] = true
	}
	a.last = rec
	a.hasLast = true
}

// Outcome returns the terminal record once the run has ended.
func (a App) Outcome() (stepper.ChangeRecord, bool) {
	if !a.hasLast || !a.last.Terminal() {
		return stepper.ChangeRecord{}, false
	}
	return a.last, true
}

// StepStates returns the display state of every step id, in order.
//
// Steps before the running step are done when they were visited and
// skipped otherwise. Once the run has ended the step that was running when
// it failed is marked failed.
func (a App) StepStates() ([]string, []StepState) {
	var ids []string
	if a.config.Steps != nil {
		ids = a.config.Steps()
	}
	states := make([]StepState, len(ids))

	pivot := -1
	if a.hasLast {
		anchor := a.last.CurrentID()
		if a.last.Terminal() {
			anchor = a.last.PreviousID()
		}
		for i, id := range ids {
			if id == anchor {
				pivot = i
				break
			}
		}
	}
	completed := a.hasLast && a.last.Kind == stepper.KindCompleted

	for i, id := range ids {
		switch {
		case completed || i < pivot:
			if a.visited[id] {
				states[i] = StepDone
			} else {
				states[i] = StepSkipped
			}
		case i == pivot && a.last.Err != nil:
			states[i] = StepFailed
		case i == pivot:
			states[i] = StepCurrent
		default:
			states[i] = StepPending
		}
	}
	return ids, states
}

// View renders the header, progress, step list, prompt and outcome.
func (a App) View() string {
	var sb strings.Builder

	title := a.config.Title
	if title == "" {
		title = "stepwise"
	}
	sb.WriteString(a.theme.Title.Render(title))
	sb.WriteString("\n")
	if a.config.Description != "" {
		sb.WriteString(a.theme.Description.Render(a.config.Description))
		sb.WriteString("\n")
	}

	ids, states := a.StepStates()
	sb.WriteString(a.renderProgress(len(ids)))
	sb.WriteString("\n\n")

	_, ended := a.Outcome()
	for i, id := range ids {
		indicator := a.theme.Indicator(states[i])
		if states[i] == StepCurrent && !ended {
			indicator = a.spinner.View()
		}
		label := id
		if l, ok := a.config.Labels[id]; ok && l != "" {
			label = l
		}
		fmt.Fprintf(&sb, " %s %s\n", indicator, a.theme.StepStyle(states[i]).Render(label))
	}

	if view := a.prompt.View(); view != "" {
		sb.WriteString(view)
		sb.WriteString("\n")
	}

	if outcome := a.renderOutcome(); outcome != "" {
		sb.WriteString("\n")
		sb.WriteString(outcome)
		sb.WriteString("\n")
	} else if !a.done {
		sb.WriteString("\n")
		sb.WriteString(a.help.View(a.keys))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (a App) renderProgress(total int) string {
	width := defaultBarWidth
	if a.width > 0 {
		width = min(defaultBarWidth, max(a.width-12, 0))
	}

	position := 0
	if a.hasLast {
		switch {
		case a.last.Kind == stepper.KindCompleted:
			position = total
		case a.last.Index >= 0:
			position = a.last.Index + 1
		}
	}

	filled := 0.0
	if total > 0 {
		filled = float64(position) / float64(total)
	}
	label := a.theme.ProgressLabel.Render(fmt.Sprintf("%d/%d", position, total))
	return lipgloss.JoinHorizontal(lipgloss.Top, a.theme.ProgressBar(filled, width), " ", label)
}

func (a App) renderOutcome() string {
	rec, ok := a.Outcome()
	if !ok {
		if a.aborting {
			return a.theme.OutcomeAborted.Render("Aborting...")
		}
		return ""
	}
	switch {
	case rec.Kind == stepper.KindCompleted:
		return a.theme.OutcomeCompleted.Render("✓ Completed")
	case rec.Err != nil:
		return a.theme.OutcomeFailed.Render("✗ Failed: ") + a.theme.ErrorText.Render(rec.Err.Error())
	case rec.UserInitiated:
		return a.theme.OutcomeAborted.Render("Aborted by user")
	default:
		return a.theme.OutcomeAborted.Render("Aborted")
	}
}

// RunApp runs the run view until the change stream closes, the user quits
// or ctx is done. It returns the final model.
func RunApp(ctx context.Context, cfg AppConfig, opts ...tea.ProgramOption) (App, error) {
	logger := logging.New("tui")
	logger.Debug("starting run view", "wizard", cfg.Title)

	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(NewApp(ctx, cfg), opts...)

	final, err := p.Run()
	app, _ := final.(App)
	if err != nil {
		return app, fmt.Errorf("running TUI: %w", err)
	}
	return app, nil
}
