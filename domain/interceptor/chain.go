package interceptor

import (
	"fmt"

	"github.com/voxmind/voxmind/domain/action"
)

// FaultHandler receives failures raised by interceptors themselves. The
// chain swallows the failure either way; the handler exists so callers can
// log it.
type FaultHandler func(name string, recovered any)

// Chain invokes interceptors in registration order. A panicking interceptor
// is caught, reported to the fault handler, and skipped; it never fails the
// underlying action.
//
// Thread Safety: the chain is configured before the executor starts and
// immutable thereafter.
type Chain struct {
	interceptors []Interceptor
	onFault      FaultHandler
}

// NewChain creates a chain over the given interceptors.
func NewChain(interceptors ...Interceptor) *Chain {
	return &Chain{interceptors: interceptors}
}

// Use appends an interceptor. Call before execution begins.
func (c *Chain) Use(i Interceptor) *Chain {
	c.interceptors = append(c.interceptors, i)
	return c
}

// SetFaultHandler installs the handler notified when an interceptor fails.
func (c *Chain) SetFaultHandler(h FaultHandler) {
	c.onFault = h
}

// Len returns the number of interceptors in the chain.
func (c *Chain) Len() int {
	return len(c.interceptors)
}

// BeforeStart notifies every interceptor before the action starts.
func (c *Chain) BeforeStart(info Info) {
	for _, i := range c.interceptors {
		c.safely(i, func() { i.BeforeStart(info) })
	}
}

// AfterTick notifies every interceptor after a tick.
func (c *Chain) AfterTick(info Info) {
	for _, i := range c.interceptors {
		c.safely(i, func() { i.AfterTick(info) })
	}
}

// OnComplete notifies every interceptor of a terminal status.
func (c *Chain) OnComplete(info Info, status action.Status) {
	for _, i := range c.interceptors {
		c.safely(i, func() { i.OnComplete(info, status) })
	}
}

// OnError notifies every interceptor of a behavior error.
func (c *Chain) OnError(info Info, err error) {
	for _, i := range c.interceptors {
		c.safely(i, func() { i.OnError(info, err) })
	}
}

func (c *Chain) safely(i Interceptor, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if c.onFault != nil {
				c.onFault(i.Name(), r)
			}
		}
	}()
	fn()
}

// String describes the chain for debugging.
func (c *Chain) String() string {
	return fmt.Sprintf("interceptor.Chain(%d)", len(c.interceptors))
}
