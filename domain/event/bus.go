package event

import (
	"sync"
	"sync/atomic"
)

// Bus fans events out to subscribers without ever blocking the publisher.
// A subscriber whose buffer is full misses the event; observers can never
// delay the tick loop.
type Bus struct {
	mu          sync.RWMutex
	subscribers []chan Event
	sequence    atomic.Uint64
	dropped     atomic.Uint64
	closed      bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers an observer with the given buffer size and returns
// its receive channel.
func (b *Bus) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Publish stamps the event with the next sequence number and delivers it to
// every subscriber that has buffer room. Never blocks.
func (b *Bus) Publish(e Event) {
	e.Sequence = b.sequence.Add(1)

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subscribers {
		select {
		case ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped reports how many deliveries were skipped due to full buffers.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Close closes all subscriber channels. Publish after Close is a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subscribers {
		close(ch)
	}
	b.subscribers = nil
}
