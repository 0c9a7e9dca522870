package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakePruner struct {
	mu      sync.Mutex
	cutoffs []time.Time
	deleted int64
	err     error
	called  chan struct{}
}

func newFakePruner() *fakePruner {
	return &fakePruner{called: make(chan struct{}, 16)}
}

func (p *fakePruner) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	p.mu.Lock()
	p.cutoffs = append(p.cutoffs, cutoff)
	p.mu.Unlock()
	p.called <- struct{}{}
	return p.deleted, p.err
}

func waitCall(t *testing.T, p *fakePruner) {
	t.Helper()
	select {
	case <-p.called:
	case <-time.After(2 * time.Second):
		t.Fatal("prune did not run")
	}
}

func TestAuditRetention_PrunesOnStartWithCutoff(t *testing.T) {
	p := newFakePruner()
	p.deleted = 3
	core, logs := observer.New(zapcore.InfoLevel)

	w := NewAuditRetention(p, zap.New(core), time.Hour, 24*time.Hour)
	fixed := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	w.Start()
	waitCall(t, p)
	w.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.cutoffs) != 1 {
		t.Fatalf("prunes = %d, want 1", len(p.cutoffs))
	}
	if want := fixed.Add(-24 * time.Hour); !p.cutoffs[0].Equal(want) {
		t.Errorf("cutoff = %v, want %v", p.cutoffs[0], want)
	}
	if logs.FilterMessage("pruned audit events").Len() != 1 {
		t.Error("expected a log entry for the pruned events")
	}
}

func TestAuditRetention_RepeatsEveryInterval(t *testing.T) {
	p := newFakePruner()
	w := NewAuditRetention(p, nil, 10*time.Millisecond, time.Hour)

	w.Start()
	waitCall(t, p)
	waitCall(t, p)
	waitCall(t, p)
	w.Stop()
}

func TestAuditRetention_ErrorIsLogged(t *testing.T) {
	p := newFakePruner()
	p.err = errors.New("mongo down")
	core, logs := observer.New(zapcore.ErrorLevel)

	w := NewAuditRetention(p, zap.New(core), time.Hour, time.Hour)
	w.Start()
	waitCall(t, p)
	w.Stop()

	if logs.FilterMessage("failed to prune audit events").Len() != 1 {
		t.Error("expected the prune failure to be logged")
	}
}

func TestAuditRetention_StopIsIdempotent(t *testing.T) {
	var nilWorker *AuditRetention
	nilWorker.Start()
	nilWorker.Stop()

	w := NewAuditRetention(newFakePruner(), nil, time.Hour, time.Hour)
	w.Start()
	w.Stop()
	w.Stop()
}
