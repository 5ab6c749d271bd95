package views

import (
	"context"
	"sync/atomic"
)

// Ticket identifies one request started through a Scope.
type Ticket uint64

// Scope ties the requests of a view to its lifetime. Closing the scope
// cancels every bound context; starting a new request makes the tickets of
// older ones stale.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc
	gen    atomic.Uint64
}

func NewScope() *Scope {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scope{ctx: ctx, cancel: cancel}
}

// Begin starts a request and returns its ticket.
func (s *Scope) Begin() Ticket {
	return Ticket(s.gen.Add(1))
}

// Current reports whether t is the latest ticket of an open scope.
func (s *Scope) Current(t Ticket) bool {
	return s.ctx.Err() == nil && s.gen.Load() == uint64(t)
}

// Bind derives a context from ctx that is also cancelled when the scope
// closes.
func (s *Scope) Bind(ctx context.Context) (context.Context, context.CancelFunc) {
	c, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return c, func() {
		stop()
		cancel()
	}
}

func (s *Scope) Close() {
	s.cancel()
}

func (s *Scope) Closed() bool {
	return s.ctx.Err() != nil
}
