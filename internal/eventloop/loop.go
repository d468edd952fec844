package eventloop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

const defaultQueueSize = 64

var ErrClosed = errors.New("event loop closed")

// Loop runs posted work one item at a time on a single goroutine.
type Loop struct {
	clock  clock.Clock
	logger *zap.Logger
	queue  chan func()
	done   chan struct{}
	once   sync.Once
}

func New(clk clock.Clock, logger *zap.Logger, queueSize int) *Loop {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Loop{
		clock:  clk,
		logger: logger,
		queue:  make(chan func(), queueSize),
		done:   make(chan struct{}),
	}
}

// Clock returns the clock timers are scheduled on.
func (l *Loop) Clock() clock.Clock { return l.clock }

// Done is closed once the loop stops accepting work.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Run processes work until ctx is cancelled or Close is called.
func (l *Loop) Run(ctx context.Context) error {
	defer l.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.queue:
			l.run(fn)
		}
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("event loop task panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	fn()
}

// Close stops the loop. Work still queued is dropped.
func (l *Loop) Close() {
	l.once.Do(func() { close(l.done) })
}

// Post queues fn. It blocks while the queue is full and reports false once the loop is closed.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.queue <- fn:
		return true
	case <-l.done:
		return false
	}
}

// AfterFunc runs fn on the loop once d has elapsed. The returned stop func
// also prevents a timer that already fired from running fn, as long as it is
// called from the loop before fn runs.
func (l *Loop) AfterFunc(d time.Duration, fn func()) func() bool {
	var cancelled atomic.Bool
	t := l.clock.AfterFunc(d, func() {
		l.Post(func() {
			if !cancelled.Load() {
				fn()
			}
		})
	})
	return func() bool {
		cancelled.Store(true)
		return t.Stop()
	}
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrClosed
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for event loop: %w", ctx.Err())
	case <-l.done:
		return ErrClosed
	}
}
