package stepper

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

const waitTimeout = 2 * time.Second

var _ Step = (*fakeStep)(nil)

// fakeStep is a Step that counts every hook call. By default it hands its
// Handle to the test through handles so the test decides what happens next;
// onStart/onResume override that.
type fakeStep struct {
	BaseStep

	mu        sync.Mutex
	available bool
	started   int
	resumed   int
	stopped   int
	cleaned   int
	onStart   func(ctx context.Context, h Handle)
	onResume  func(ctx context.Context, h Handle)

	handles chan Handle
}

func newFakeStep(id string) *fakeStep {
	return &fakeStep{
		BaseStep:  NewBaseStep(id),
		available: true,
		handles:   make(chan Handle, 8),
	}
}

// autoStep returns a fakeStep that advances as soon as it starts or resumes.
func autoStep(id string) *fakeStep {
	p := newFakeStep(id)
	p.onStart = func(_ context.Context, h Handle) { h.Advance() }
	p.onResume = p.onStart
	return p
}

func (p *fakeStep) Available() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.available
}

func (p *fakeStep) setAvailable(v bool) {
	p.mu.Lock()
	p.available = v
	p.mu.Unlock()
}

func (p *fakeStep) OnStarted(ctx context.Context, h Handle) {
	p.mu.Lock()
	p.started++
	fn := p.onStart
	p.mu.Unlock()
	if fn != nil {
		fn(ctx, h)
		return
	}
	p.handles <- h
}

func (p *fakeStep) OnResumed(ctx context.Context, h Handle) {
	p.mu.Lock()
	p.resumed++
	fn := p.onResume
	p.mu.Unlock()
	if fn != nil {
		fn(ctx, h)
		return
	}
	p.handles <- h
}

func (p *fakeStep) OnStopped() {
	p.mu.Lock()
	p.stopped++
	p.mu.Unlock()
}

func (p *fakeStep) OnCleanup() {
	p.mu.Lock()
	p.cleaned++
	p.mu.Unlock()
}

// counts returns started, resumed, stopped and cleaned counters.
func (p *fakeStep) counts() (started, resumed, stopped, cleaned int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started, p.resumed, p.stopped, p.cleaned
}

// waitHandle blocks until p publishes a handle.
func waitHandle(t *testing.T, p *fakeStep) Handle {
	t.Helper()
	select {
	case h := <-p.handles:
		return h
	case <-time.After(waitTimeout):
		t.Fatalf("step %q was never started or resumed", p.ID())
		return nil
	}
}

// recorder collects every ChangeRecord delivered to an observer.
type recorder struct {
	mu      sync.Mutex
	records []ChangeRecord
}

func (r *recorder) observe(rec ChangeRecord) {
	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()
}

func (r *recorder) all() []ChangeRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ChangeRecord, len(r.records))
	copy(out, r.records)
	return out
}

// transitions renders records as "kind:current" strings.
func (r *recorder) transitions() []string {
	recs := r.all()
	out := make([]string, len(recs))
	for i, rec := range recs {
		out[i] = rec.Kind.String() + ":" + rec.CurrentID()
	}
	return out
}

type runResult struct {
	rec ChangeRecord
	err error
}

// startAsync runs e.Start on a goroutine and returns a channel carrying the
// result.
func startAsync(ctx context.Context, e *Engine, payload any) <-chan runResult {
	ch := make(chan runResult, 1)
	go func() {
		rec, err := e.Start(ctx, payload)
		ch <- runResult{rec: rec, err: err}
	}()
	return ch
}

// waitResult blocks until the run finishes.
func waitResult(t *testing.T, ch <-chan runResult) runResult {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(waitTimeout):
		t.Fatal("engine did not terminate")
		return runResult{}
	}
}

// build builds steps in order with a recorder attached.
func build(t *testing.T, steps ...Step) (*Engine, *recorder) {
	t.Helper()
	rec := &recorder{}
	b := NewBuilder()
	for _, s := range steps {
		b.AddStep(s)
	}
	e, err := b.Build(WithObserver(rec.observe))
	require.NoError(t, err)
	return e, rec
}

// lockedBuffer is a bytes.Buffer safe for the engine and test goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
