package ingest

import (
	"context"
	"sync"
)

// Subscriber opens a subscription on a push channel. Events must be
// delivered in arrival order; missed events are not replayed.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (Subscription, error)
}

// Publisher emits a raw event on a push channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

type Subscription interface {
	Events() <-chan []byte
	Close() error
}

// MemoryBus is an in-process push channel. Every subscriber of a channel
// receives every event published after it subscribed.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[string]map[*memorySub]struct{}
	buffer int
}

func NewMemoryBus(buffer int) *MemoryBus {
	if buffer <= 0 {
		buffer = 64
	}
	return &MemoryBus{subs: make(map[string]map[*memorySub]struct{}), buffer: buffer}
}

type memorySub struct {
	bus     *MemoryBus
	channel string
	ch      chan []byte
	done    chan struct{}
	once    sync.Once
}

func (s *memorySub) Events() <-chan []byte { return s.ch }

func (s *memorySub) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.bus.mu.Lock()
		delete(s.bus.subs[s.channel], s)
		s.bus.mu.Unlock()
	})
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	s := &memorySub{bus: b, channel: channel, ch: make(chan []byte, b.buffer), done: make(chan struct{})}
	b.mu.Lock()
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[*memorySub]struct{})
	}
	b.subs[channel][s] = struct{}{}
	b.mu.Unlock()
	return s, nil
}

// Publish delivers payload to every current subscriber, waiting for slow
// subscribers rather than dropping the event.
func (b *MemoryBus) Publish(ctx context.Context, channel string, payload []byte) error {
	b.mu.RLock()
	targets := make([]*memorySub, 0, len(b.subs[channel]))
	for s := range b.subs[channel] {
		targets = append(targets, s)
	}
	b.mu.RUnlock()

	for _, s := range targets {
		msg := make([]byte, len(payload))
		copy(msg, payload)
		select {
		case s.ch <- msg:
		case <-s.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Subscribers reports how many subscriptions a channel has.
func (b *MemoryBus) Subscribers(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[channel])
}
