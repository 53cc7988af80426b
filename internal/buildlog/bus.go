package buildlog

import "sync"

type subscription struct {
	mu  sync.Mutex
	sub Subscriber
}

// Bus fans build events out to its subscribers. The zero value is ready to use
// and safe for concurrent use.
type Bus struct {
	mu   sync.RWMutex
	subs []*subscription
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{}
}

// Subscribe registers sub and returns a function that removes it again.
// Calling the returned function more than once is a no-op.
func (b *Bus) Subscribe(sub Subscriber) (unsubscribe func()) {
	s := &subscription{sub: sub}
	b.mu.Lock()
	b.subs = append(b.subs, s)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, cur := range b.subs {
				if cur == s {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Log publishes a message. asset may be empty.
func (b *Bus) Log(level Level, text, asset string) {
	m := Message{Level: level, Text: text, Asset: asset}
	for _, s := range b.snapshot() {
		s.mu.Lock()
		s.sub.OnMessage(m)
		s.mu.Unlock()
	}
}

// SetStatus publishes a status transition for asset.
func (b *Bus) SetStatus(status Status, asset string) {
	c := StatusChange{Status: status, Asset: asset}
	for _, s := range b.snapshot() {
		s.mu.Lock()
		s.sub.OnStatus(c)
		s.mu.Unlock()
	}
}

// snapshot copies the subscriber list so delivery happens without b.mu held.
func (b *Bus) snapshot() []*subscription {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.subs) == 0 {
		return nil
	}
	out := make([]*subscription, len(b.subs))
	copy(out, b.subs)
	return out
}
