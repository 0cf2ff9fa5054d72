package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"budget/internal/amqp"
)

type fakePublisher struct {
	mu    sync.Mutex
	ticks []time.Time
	err   error
}

func (p *fakePublisher) PublishRecurringTick(_ context.Context, asOf time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.ticks = append(p.ticks, asOf)
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ticks)
}

type fakeProcessor struct {
	asOf []time.Time
	err  error
}

func (p *fakeProcessor) ProcessDue(_ context.Context, asOf time.Time) (int, error) {
	p.asOf = append(p.asOf, asOf)
	return 1, p.err
}

func TestTickWorker_Tick(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	pub := &fakePublisher{}
	w := NewTickWorker(pub, time.Hour)
	w.now = func() time.Time { return now }

	if err := w.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(pub.ticks) != 1 || !pub.ticks[0].Equal(now) {
		t.Errorf("ticks = %v", pub.ticks)
	}

	pub.err = errors.New("broker down")
	if err := w.Tick(context.Background()); err == nil {
		t.Error("expected publish error")
	}

	if err := NewTickWorker(nil, time.Hour).Tick(context.Background()); err == nil {
		t.Error("expected error without publisher")
	}
}

func TestTickWorker_Run(t *testing.T) {
	pub := &fakePublisher{}
	w := NewTickWorker(pub, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for pub.count() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d ticks published", pub.count())
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestTickWorker_RunRejectsBadInterval(t *testing.T) {
	if err := NewTickWorker(&fakePublisher{}, 0).Run(context.Background()); err == nil {
		t.Error("expected error for zero interval")
	}
}

func TestTickHandler_Handle(t *testing.T) {
	received := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	asOf := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		tick     *amqp.RecurringTick
		procErr  error
		wantAsOf time.Time
		wantErr  bool
	}{
		{"uses tick asOf", &amqp.RecurringTick{AsOf: asOf}, nil, asOf, false},
		{"falls back to receive time", &amqp.RecurringTick{}, nil, received, false},
		{"propagates processor error", &amqp.RecurringTick{AsOf: asOf}, context.DeadlineExceeded, asOf, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc := &fakeProcessor{err: tt.procErr}
			h := NewTickHandler(proc)
			h.now = func() time.Time { return received }

			err := h.Handle(context.Background(), tt.tick)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Handle() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(proc.asOf) != 1 || !proc.asOf[0].Equal(tt.wantAsOf) {
				t.Errorf("processed asOf = %v, want %v", proc.asOf, tt.wantAsOf)
			}
		})
	}
}
