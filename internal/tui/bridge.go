package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/AbdelazizMoustafa10m/Stepwise/internal/script"
	"github.com/AbdelazizMoustafa10m/Stepwise/internal/stepper"
)

// RecordCmd returns a tea.Cmd that reads a single record from ch and wraps
// it in a RecordMsg. It returns StreamClosedMsg once ch is closed and nil
// when ctx is done.
//
// Call it again after every RecordMsg to keep draining the subscription:
//
//	case RecordMsg:
//	    // handle...
//	    return a, RecordCmd(ctx, ch)
func RecordCmd(ctx context.Context, ch <-chan stepper.ChangeRecord) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case rec, ok := <-ch:
			if !ok {
				return StreamClosedMsg{}
			}
			return RecordMsg{Record: rec}
		}
	}
}

// RecordFeed queues every record an engine emits and replays them, in
// order and without conflation, on the channel returned by Records. Pass
// Observe to stepper.WithObserver; it never blocks the engine. The channel
// closes after the terminal record has been delivered or when the context
// given to NewRecordFeed is done.
type RecordFeed struct {
	mu     sync.Mutex
	queue  []stepper.ChangeRecord
	ended  bool
	notify chan struct{}
	out    chan stepper.ChangeRecord
}

// NewRecordFeed returns a feed whose delivery goroutine lives until the
// terminal record is read or ctx is done.
func NewRecordFeed(ctx context.Context) *RecordFeed {
	f := &RecordFeed{
		notify: make(chan struct{}, 1),
		out:    make(chan stepper.ChangeRecord),
	}
	go f.deliver(ctx)
	return f
}

// Observe queues rec. Records after a terminal record are dropped.
func (f *RecordFeed) Observe(rec stepper.ChangeRecord) {
	f.mu.Lock()
	if f.ended {
		f.mu.Unlock()
		return
	}
	f.queue = append(f.queue, rec)
	f.ended = rec.Terminal()
	f.mu.Unlock()

	select {
	case f.notify <- struct{}{}:
	default:
	}
}

// Records returns the channel the queued records are delivered on.
func (f *RecordFeed) Records() <-chan stepper.ChangeRecord { return f.out }

func (f *RecordFeed) deliver(ctx context.Context) {
	defer close(f.out)
	for {
		f.mu.Lock()
		batch, ended := f.queue, f.ended
		f.queue = nil
		f.mu.Unlock()

		for _, rec := range batch {
			select {
			case f.out <- rec:
			case <-ctx.Done():
				return
			}
		}
		if ended {
			return
		}

		select {
		case <-f.notify:
		case <-ctx.Done():
			return
		}
	}
}

var _ script.Prompter = (*PromptBroker)(nil)

// PromptBroker is a script.Prompter that forwards prompts from step
// goroutines into the Bubble Tea update loop and waits for the answer.
type PromptBroker struct {
	requests chan PromptRequestMsg
}

// NewPromptBroker returns a broker with no pending requests.
func NewPromptBroker() *PromptBroker {
	return &PromptBroker{requests: make(chan PromptRequestMsg)}
}

// Ask hands p to the view and blocks until it is answered or ctx is done.
func (b *PromptBroker) Ask(ctx context.Context, p script.Prompt) (script.Choice, error) {
	reply := make(chan PromptReply, 1)
	select {
	case b.requests <- PromptRequestMsg{Prompt: p, Reply: reply}:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case r := <-reply:
		return r.Choice, r.Err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// NextCmd returns a tea.Cmd that waits for the next prompt request. It
// returns nil when ctx is done.
func (b *PromptBroker) NextCmd(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		select {
		case req := <-b.requests:
			return req
		case <-ctx.Done():
			return nil
		}
	}
}
