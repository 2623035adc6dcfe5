package core

import (
	"context"
	"io"
	"sync"
	"time"
)

// stopper is the subset of [*time.Timer] the composer relies on.
type stopper interface {
	Stop() bool
}

// afterFunc schedules f after d. It matches [time.AfterFunc] and is
// replaced in tests to observe timer cleanup.
type afterFunc func(d time.Duration, f func()) stopper

func defaultAfterFunc(d time.Duration, f func()) stopper {
	return time.AfterFunc(d, f)
}

// cancellation is the effective cancellation signal of one call: the caller
// context, optionally bounded by a timeout. Whichever fires first wins.
type cancellation struct {
	ctx      context.Context
	cancel   context.CancelCauseFunc
	timer    stopper
	stopOnce sync.Once
}

// composeCancellation derives the effective signal for a call. A zero
// timeout leaves the caller context untouched.
func composeCancellation(parent context.Context, timeout time.Duration, schedule afterFunc) *cancellation {
	if timeout <= 0 {
		return &cancellation{ctx: parent}
	}
	if schedule == nil {
		schedule = defaultAfterFunc
	}
	ctx, cancel := context.WithCancelCause(parent)
	c := &cancellation{ctx: ctx, cancel: cancel}
	c.timer = schedule(timeout, func() { cancel(ErrTimeout) })
	return c
}

// Context returns the effective context to attach to the request.
func (c *cancellation) Context() context.Context {
	return c.ctx
}

// cause returns why the effective context was cancelled, or nil.
func (c *cancellation) cause() error {
	if c.ctx.Err() == nil {
		return nil
	}
	return context.Cause(c.ctx)
}

// stopTimer disarms the timeout. Safe to call repeatedly.
func (c *cancellation) stopTimer() {
	c.stopOnce.Do(func() {
		if c.timer != nil {
			c.timer.Stop()
		}
	})
}

// settle disarms the timer and releases the derived context.
// It must run on every exit path of a call.
func (c *cancellation) settle() {
	c.stopTimer()
	c.release()
}

// handOff disarms the timer but leaves the context alive: the caller now
// owns the response body and closing it releases the context.
func (c *cancellation) handOff() {
	c.stopTimer()
}

func (c *cancellation) release() {
	if c.cancel != nil {
		c.cancel(context.Canceled)
	}
}

// track wraps a response body so that closing it releases the context.
func (c *cancellation) track(body io.ReadCloser) io.ReadCloser {
	if c.cancel == nil || body == nil {
		return body
	}
	return &releasingBody{ReadCloser: body, release: c.release}
}

// releasingBody releases the call context when the body is closed.
type releasingBody struct {
	io.ReadCloser
	release   func()
	closeOnce sync.Once
}

// Close closes the underlying body and releases the call context.
func (b *releasingBody) Close() (err error) {
	b.closeOnce.Do(func() {
		err = b.ReadCloser.Close()
		b.release()
	})
	return
}
