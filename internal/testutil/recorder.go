package testutil

import (
	"slices"
	"sync"

	"github.com/specialistvlad/assetgrid/internal/buildlog"
)

// Recorder is a buildlog.Subscriber that keeps every event it receives.
type Recorder struct {
	mu       sync.Mutex
	messages []buildlog.Message
	statuses []buildlog.StatusChange
}

// OnMessage implements buildlog.Subscriber.
func (r *Recorder) OnMessage(m buildlog.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
}

// OnStatus implements buildlog.Subscriber.
func (r *Recorder) OnStatus(c buildlog.StatusChange) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, c)
}

// Messages returns the messages received so far, optionally only those of the
// given levels.
func (r *Recorder) Messages(levels ...buildlog.Level) []buildlog.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []buildlog.Message
	for _, m := range r.messages {
		if len(levels) == 0 || slices.Contains(levels, m.Level) {
			out = append(out, m)
		}
	}
	return out
}

// History returns the status transitions of one asset in order.
func (r *Recorder) History(asset string) []buildlog.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []buildlog.Status
	for _, c := range r.statuses {
		if c.Asset == asset {
			out = append(out, c.Status)
		}
	}
	return out
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
	r.statuses = nil
}
