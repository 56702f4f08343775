package tui

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/AbdelazizMoustafa10m/Stepwise/internal/script"
)

// choiceField builds the select shown for a prompt. Going back is only
// offered when there is somewhere to go back to.
func choiceField(p script.Prompt, value *script.Choice) *huh.Select[script.Choice] {
	opts := []huh.Option[script.Choice]{huh.NewOption("Continue", script.ChoiceNext)}
	if p.CanGoBack {
		opts = append(opts, huh.NewOption("Go back", script.ChoiceBack))
	}
	opts = append(opts, huh.NewOption("Abort", script.ChoiceAbort))

	title := p.Title
	if title == "" {
		title = p.StepID
	}
	return huh.NewSelect[script.Choice]().
		Title(title).
		Description(p.Message).
		Options(opts...).
		Value(value)
}

// ---------------------------------------------------------------------------
// PromptModel
// ---------------------------------------------------------------------------

// PromptModel is the Bubble Tea sub-model that shows one prompt inside the
// run view. It wraps a huh form and answers the pending PromptRequestMsg
// when the form completes or is dismissed.
type PromptModel struct {
	theme  Theme
	form   *huh.Form
	choice *script.Choice
	prompt script.Prompt
	reply  chan<- PromptReply
	width  int
	active bool
}

// NewPromptModel returns an inactive prompt model.
func NewPromptModel(theme Theme) PromptModel {
	return PromptModel{theme: theme}
}

// IsActive reports whether a prompt is being shown.
func (m PromptModel) IsActive() bool { return m.active }

// Prompt returns the prompt being shown.
func (m PromptModel) Prompt() script.Prompt { return m.prompt }

// SetWidth sizes the form.
func (m *PromptModel) SetWidth(width int) {
	m.width = width
	if m.form != nil {
		m.form = m.form.WithWidth(width)
	}
}

// Start activates the model for req and returns the form's Init command.
func (m *PromptModel) Start(req PromptRequestMsg) tea.Cmd {
	choice := script.ChoiceNext
	m.choice = &choice
	m.prompt = req.Prompt
	m.reply = req.Reply
	m.form = huh.NewForm(huh.NewGroup(choiceField(req.Prompt, m.choice))).WithShowHelp(false)
	if m.width > 0 {
		m.form = m.form.WithWidth(m.width)
	}
	m.active = true
	return m.form.Init()
}

// Cancel answers the pending prompt with script.ErrPromptCancelled.
func (m *PromptModel) Cancel() {
	m.answer(PromptReply{Err: script.ErrPromptCancelled})
}

// Update forwards msg to the form and answers the request once the form is
// done. Esc dismisses the prompt.
func (m PromptModel) Update(msg tea.Msg) (PromptModel, tea.Cmd) {
	if !m.active {
		return m, nil
	}
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.Cancel()
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.answer(PromptReply{Choice: *m.choice})
		return m, nil
	case huh.StateAborted:
		m.Cancel()
		return m, nil
	}
	return m, cmd
}

// View renders the prompt box, or nothing when inactive.
func (m PromptModel) View() string {
	if !m.active || m.form == nil {
		return ""
	}
	return m.theme.PromptBox.Render(m.form.View())
}

func (m *PromptModel) answer(r PromptReply) {
	if !m.active {
		return
	}
	m.active = false
	if m.reply != nil {
		m.reply <- r
	}
	m.reply = nil
	m.form = nil
}

// ---------------------------------------------------------------------------
// HuhPrompter
// ---------------------------------------------------------------------------

var _ script.Prompter = HuhPrompter{}

// HuhPrompter asks prompts with a standalone huh form. It is used by plain
// runs where no Bubble Tea program owns the terminal.
type HuhPrompter struct {
	// Accessible switches huh to its line-based accessible mode.
	Accessible bool
	Input      io.Reader
	Output     io.Writer
}

// Ask runs a one-field form for p.
func (h HuhPrompter) Ask(ctx context.Context, p script.Prompt) (script.Choice, error) {
	choice := script.ChoiceNext
	form := huh.NewForm(huh.NewGroup(choiceField(p, &choice))).WithAccessible(h.Accessible)
	if h.Input != nil {
		form = form.WithInput(h.Input)
	}
	if h.Output != nil {
		form = form.WithOutput(h.Output)
	}

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", script.ErrPromptCancelled
		}
		return "", err
	}
	return choice, nil
}
