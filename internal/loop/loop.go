// Package loop serializes every session mutation onto one goroutine.
// HTTP handlers, websocket readers and fired timers all post closures here.
package loop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aaronzipp/you-are-officially-mafia/internal/game"
)

// ErrStopped is returned when posting to a loop that is no longer running
var ErrStopped = errors.New("event loop stopped")

// Loop runs posted closures one at a time in arrival order
type Loop struct {
	commands chan func()
	done     chan struct{}
	logger   zerolog.Logger
}

// New creates a loop with a command queue of the given size
func New(buffer int, logger zerolog.Logger) *Loop {
	return &Loop{
		commands: make(chan func(), buffer),
		done:     make(chan struct{}),
		logger:   logger.With().Str("component", "Loop").Logger(),
	}
}

// Run executes commands until ctx is cancelled
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		select {
		case fn := <-l.commands:
			l.exec(fn)
		case <-ctx.Done():
			return nil
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			l.logger.Error().Interface("panic", rec).Msg("command panicked")
		}
	}()
	fn()
}

// Post queues fn. It blocks while the queue is full and reports false once
// the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.commands <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Call runs fn on the loop and waits for its error
func (l *Loop) Call(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	if !l.Post(func() { result <- fn() }) {
		return ErrStopped
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return fmt.Errorf("waiting for event loop: %w", ctx.Err())
	case <-l.done:
		return ErrStopped
	}
}

// AfterFunc implements game.Scheduler: fn is posted to the loop once d has
// elapsed, so it runs on the same goroutine as every other mutation.
func (l *Loop) AfterFunc(d time.Duration, fn func()) game.Handle {
	return time.AfterFunc(d, func() {
		if !l.Post(fn) {
			l.logger.Debug().Msg("timer fired after loop stopped")
		}
	})
}
