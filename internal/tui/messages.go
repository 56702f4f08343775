package tui

import (
	"github.com/AbdelazizMoustafa10m/Stepwise/internal/script"
	"github.com/AbdelazizMoustafa10m/Stepwise/internal/stepper"
)

// RecordMsg carries one engine ChangeRecord into the update loop.
type RecordMsg struct {
	Record stepper.ChangeRecord
}

// StreamClosedMsg is sent once the change stream has delivered its terminal
// record and closed.
type StreamClosedMsg struct{}

// PromptRequestMsg asks the view to show a prompt. The answer goes back on
// Reply, which is buffered.
type PromptRequestMsg struct {
	Prompt script.Prompt
	Reply  chan<- PromptReply
}

// PromptReply is the outcome of a prompt shown in the view.
type PromptReply struct {
	Choice script.Choice
	Err    error
}
