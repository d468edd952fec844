package eventloop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap/zaptest"
)

func startLoop(t *testing.T, clk clock.Clock) *Loop {
	t.Helper()
	l := New(clk, zaptest.NewLogger(t), 8)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-errCh
	})
	return l
}

func TestDoRunsInOrder(t *testing.T) {
	l := startLoop(t, clock.NewMock())

	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		if !l.Post(func() { order = append(order, i) }) {
			t.Fatalf("Post(%d) rejected", i)
		}
	}
	if err := l.Do(context.Background(), func() { order = append(order, 4) }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	for i, v := range order {
		if v != i+1 {
			t.Fatalf("order = %v, want 1..4", order)
		}
	}
}

func TestAfterFuncRunsOnLoop(t *testing.T) {
	mock := clock.NewMock()
	l := startLoop(t, mock)

	fired := make(chan struct{})
	l.AfterFunc(time.Second, func() { close(fired) })

	mock.Add(999 * time.Millisecond)
	select {
	case <-fired:
		t.Fatalf("timer fired early")
	default:
	}

	mock.Add(time.Millisecond)
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatalf("timer did not fire")
	}
}

func TestAfterFuncStop(t *testing.T) {
	mock := clock.NewMock()
	l := startLoop(t, mock)

	ran := false
	var stop func() bool
	if err := l.Do(context.Background(), func() {
		stop = l.AfterFunc(time.Second, func() { ran = true })
	}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if err := l.Do(context.Background(), func() { stop() }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	mock.Add(2 * time.Second)

	if err := l.Do(context.Background(), func() {}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if err := l.Do(context.Background(), func() {
		if ran {
			t.Errorf("stopped timer ran")
		}
	}); err != nil {
		t.Fatalf("Do: %v", err)
	}
}

func TestPanicDoesNotStopLoop(t *testing.T) {
	l := startLoop(t, clock.NewMock())

	l.Post(func() { panic("boom") })
	done := false
	if err := l.Do(context.Background(), func() { done = true }); err != nil {
		t.Fatalf("Do after panic: %v", err)
	}
	if !done {
		t.Fatalf("loop stopped after a panic")
	}
}

func TestClosedLoopRejectsWork(t *testing.T) {
	l := New(clock.NewMock(), nil, 1)
	l.Close()

	if l.Post(func() {}) {
		t.Fatalf("Post accepted after Close")
	}
	if err := l.Do(context.Background(), func() {}); !errors.Is(err, ErrClosed) {
		t.Fatalf("Do error = %v, want ErrClosed", err)
	}
	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run on closed loop = %v, want nil", err)
	}
}
