package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

type countingLoader struct {
	calls atomic.Int32
	fail  bool
}

func (l *countingLoader) Load(ctx context.Context, source string) error {
	l.calls.Add(1)
	if l.fail {
		return errors.New("sheet unreachable")
	}
	return nil
}

func TestRefresherKeepsTickingAfterFailures(t *testing.T) {
	defer goleak.VerifyNone(t)

	loader := &countingLoader{fail: true}
	w := NewRefresher(loader, slog.New(slog.NewTextHandler(io.Discard, nil)), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for loader.calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 loads, got %d", loader.calls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("refresher did not stop after cancel")
	}
}

func TestRefresherDisabled(t *testing.T) {
	loader := &countingLoader{}
	w := NewRefresher(loader, slog.New(slog.NewTextHandler(io.Discard, nil)), 0)
	w.Start(context.Background())
	if loader.calls.Load() != 0 {
		t.Fatalf("expected no loads, got %d", loader.calls.Load())
	}
}
