package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunCallerCancellationDoesNotTripBreaker(t *testing.T) {
	t.Parallel()

	s := New(nil, time.Second)
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 20; i++ {
		err := s.run(canceled, "nearby_events", func(ctx context.Context) error {
			t.Error("fn must not run for a finished context")
			return nil
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
		if errors.Is(err, ErrTransient) {
			t.Fatalf("caller cancellation reported as transient: %v", err)
		}
	}

	if err := s.run(context.Background(), "ping", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("healthy call after cancellations: %v", err)
	}
}

func TestRunCancellationMidQuery(t *testing.T) {
	t.Parallel()

	s := New(nil, time.Second)
	for i := 0; i < 20; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		err := s.run(ctx, "insert_attendance", func(qctx context.Context) error {
			cancel()
			<-qctx.Done()
			return qctx.Err()
		})
		if !errors.Is(err, context.Canceled) || errors.Is(err, ErrTransient) {
			t.Fatalf("err = %v, want context.Canceled and not transient", err)
		}
	}

	if err := s.run(context.Background(), "ping", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("healthy call after client hang-ups: %v", err)
	}
}

func TestRunQueryTimeoutTripsBreaker(t *testing.T) {
	t.Parallel()

	s := New(nil, 10*time.Millisecond)
	for i := 0; i < 10; i++ {
		err := s.run(context.Background(), "nearby_events", func(qctx context.Context) error {
			<-qctx.Done()
			return qctx.Err()
		})
		if !errors.Is(err, ErrTransient) {
			t.Fatalf("call %d: err = %v, want transient", i, err)
		}
	}

	called := false
	err := s.run(context.Background(), "ping", func(context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("err = %v, want transient from open breaker", err)
	}
	if called {
		t.Fatal("open breaker must not call through")
	}
}
