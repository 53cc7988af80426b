package buildlog

import (
	"maps"
	"sync"
)

// Counts is a summary of a Tally.
type Counts struct {
	Waiting            int `json:"waiting"`
	Building           int `json:"building"`
	Skipped            int `json:"skipped"`
	Success            int `json:"success"`
	SuccessWithWarning int `json:"success_with_warning"`
	Failed             int `json:"failed"`
	Errors             int `json:"errors"`
	Warnings           int `json:"warnings"`
}

// Tally keeps the last status of every asset and counts error and warning
// messages. Its readers may run concurrently with a build.
type Tally struct {
	mu       sync.RWMutex
	last     map[string]Status
	errors   int
	warnings int
}

// NewTally returns an empty tally.
func NewTally() *Tally {
	return &Tally{last: make(map[string]Status)}
}

// OnMessage implements Subscriber.
func (t *Tally) OnMessage(m Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch m.Level {
	case Error:
		t.errors++
	case Warning:
		t.warnings++
	}
}

// OnStatus implements Subscriber.
func (t *Tally) OnStatus(c StatusChange) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last[c.Asset] = c.Status
}

// Status returns the last status seen for asset.
func (t *Tally) Status(asset string) (Status, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.last[asset]
	return s, ok
}

// Statuses returns a copy of the last status per asset.
func (t *Tally) Statuses() map[string]Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return maps.Clone(t.last)
}

// Counts summarizes the tally.
func (t *Tally) Counts() Counts {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c := Counts{Errors: t.errors, Warnings: t.warnings}
	for _, s := range t.last {
		switch s {
		case Waiting:
			c.Waiting++
		case Building:
			c.Building++
		case Skipped:
			c.Skipped++
		case Success:
			c.Success++
		case SuccessWithWarning:
			c.SuccessWithWarning++
		case Failed:
			c.Failed++
		}
	}
	return c
}
