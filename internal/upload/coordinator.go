package upload

import (
	"context"
	"sync"
)

// Ticket identifies one upload attempt.
type Ticket struct {
	Gen uint64
	Ctx context.Context
}

// Outcome is what a finished upload reports back to the UI loop.
type Outcome struct {
	Ticket Ticket
	Result *Result
	Err    error
}

// Coordinator lets a newer upload supersede an older one. Starting an upload
// cancels the one in flight, and only the newest ticket is ever accepted, so
// a slow early response cannot overwrite a later one.
type Coordinator struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// Start issues a new ticket and cancels any upload still in flight.
func (c *Coordinator) Start(parent context.Context) Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	ctx, cancel := context.WithCancel(parent)
	c.cancel = cancel
	return Ticket{Gen: c.gen, Ctx: ctx}
}

// Run performs the upload for t. It is safe to call from a goroutine.
func (c *Coordinator) Run(t Ticket, up Uploader, path string) Outcome {
	res, err := up.Upload(t.Ctx, path)
	return Outcome{Ticket: t, Result: res, Err: err}
}

// Accept reports whether t is still the newest ticket. Accepting finishes the
// upload; superseded or cancelled tickets are rejected.
func (c *Coordinator) Accept(t Ticket) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.Gen != c.gen || c.cancel == nil {
		return false
	}
	c.cancel()
	c.cancel = nil
	return true
}

// Cancel aborts the upload in flight, if any, and reports whether there was one.
func (c *Coordinator) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel == nil {
		return false
	}
	c.cancel()
	c.cancel = nil
	c.gen++
	return true
}

// InFlight reports whether an upload is waiting for its result.
func (c *Coordinator) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

// Generation returns the newest ticket number.
func (c *Coordinator) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}
