package tui

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbdelazizMoustafa10m/Stepwise/internal/script"
	"github.com/AbdelazizMoustafa10m/Stepwise/internal/stepper"
)

func TestRecordCmd(t *testing.T) {
	t.Parallel()

	rec := stepper.ChangeRecord{Current: stepper.NewStepFunc("scan", nil), Index: 0, Total: 2}

	t.Run("delivers a record", func(t *testing.T) {
		t.Parallel()
		ch := make(chan stepper.ChangeRecord, 1)
		ch <- rec
		msg := RecordCmd(context.Background(), ch)()
		got, ok := msg.(RecordMsg)
		require.True(t, ok, "expected RecordMsg, got %T", msg)
		assert.Equal(t, "scan", got.Record.CurrentID())
	})

	t.Run("reports a closed stream", func(t *testing.T) {
		t.Parallel()
		ch := make(chan stepper.ChangeRecord)
		close(ch)
		assert.IsType(t, StreamClosedMsg{}, RecordCmd(context.Background(), ch)())
	})

	t.Run("returns nil when the context is done", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Nil(t, RecordCmd(ctx, make(chan stepper.ChangeRecord))())
	})
}

func TestPromptBroker_RoundTrip(t *testing.T) {
	t.Parallel()

	broker := NewPromptBroker()
	ctx := context.Background()

	type answer struct {
		choice script.Choice
		err    error
	}
	done := make(chan answer, 1)
	go func() {
		c, err := broker.Ask(ctx, script.Prompt{StepID: "pair", CanGoBack: true})
		done <- answer{c, err}
	}()

	msg := broker.NextCmd(ctx)()
	req, ok := msg.(PromptRequestMsg)
	require.True(t, ok, "expected PromptRequestMsg, got %T", msg)
	assert.Equal(t, "pair", req.Prompt.StepID)
	assert.True(t, req.Prompt.CanGoBack)

	req.Reply <- PromptReply{Choice: script.ChoiceBack}

	select {
	case got := <-done:
		require.NoError(t, got.err)
		assert.Equal(t, script.ChoiceBack, got.choice)
	case <-time.After(2 * time.Second):
		t.Fatal("Ask did not return")
	}
}

func TestPromptBroker_ContextDone(t *testing.T) {
	t.Parallel()

	broker := NewPromptBroker()

	t.Run("before the request is taken", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := broker.Ask(ctx, script.Prompt{StepID: "x"})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("while waiting for the reply", func(t *testing.T) {
		t.Parallel()
		b := NewPromptBroker()
		ctx, cancel := context.WithCancel(context.Background())
		errc := make(chan error, 1)
		go func() {
			_, err := b.Ask(ctx, script.Prompt{StepID: "x"})
			errc <- err
		}()
		_, ok := b.NextCmd(context.Background())().(PromptRequestMsg)
		require.True(t, ok)
		cancel()
		select {
		case err := <-errc:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(2 * time.Second):
			t.Fatal("Ask did not return")
		}
	})

	t.Run("NextCmd returns nil", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Nil(t, NewPromptBroker().NextCmd(ctx)())
	})
}

func autoSteps(ids ...string) *stepper.Builder {
	b := stepper.NewBuilder()
	for _, id := range ids {
		b.AddStep(stepper.NewStepFunc(id, func(_ context.Context, h stepper.Handle) { h.Advance() }))
	}
	return b
}

func TestRecordFeed_DeliversEveryRecordToSlowReader(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rf := NewRecordFeed(ctx)
	engine, err := autoSteps("a", "b", "c", "d", "e").Build(stepper.WithObserver(rf.Observe))
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = engine.Start(ctx, nil)
	}()

	var got []string
	for rec := range rf.Records() {
		// Simulates a render tick between reads.
		time.Sleep(5 * time.Millisecond)
		got = append(got, rec.Kind.String()+":"+rec.CurrentID())
	}
	<-done

	assert.Equal(t, []string{
		"started:a", "forward:b", "forward:c", "forward:d", "forward:e", "completed:",
	}, got)
}

func TestRecordFeed_DropsRecordsAfterTerminal(t *testing.T) {
	t.Parallel()

	rf := NewRecordFeed(context.Background())
	rf.Observe(stepper.ChangeRecord{Kind: stepper.KindAborted, Index: -1})
	rf.Observe(stepper.ChangeRecord{Kind: stepper.KindForward, Current: stepper.NewStepFunc("late", nil)})

	var kinds []stepper.Kind
	for rec := range rf.Records() {
		kinds = append(kinds, rec.Kind)
	}
	assert.Equal(t, []stepper.Kind{stepper.KindAborted}, kinds)
}

func TestRecordFeed_ClosesWhenContextDone(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	rf := NewRecordFeed(ctx)
	cancel()

	select {
	case _, ok := <-rf.Records():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("records channel not closed after cancel")
	}
}
