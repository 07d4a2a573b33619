package tracker

import (
	"github.com/tgienger/tally/internal/activity"
	"github.com/tgienger/tally/internal/models"
)

// Change is published after a mutation commits. Consumers re-read the task
// through the Tracker rather than patching local copies.
type Change struct {
	TaskID    string
	SubtaskID string
	Kind      activity.Kind
	Surface   models.Surface
}

// Subscribe registers fn to be called after every committed mutation. The
// returned func removes the subscription. fn runs on the mutating goroutine
// after the task lock is released, so it may call back into the Tracker.
func (t *Tracker) Subscribe(fn func(Change)) (cancel func()) {
	t.subMu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subscribers[id] = fn
	t.subMu.Unlock()

	return func() {
		t.subMu.Lock()
		delete(t.subscribers, id)
		t.subMu.Unlock()
	}
}

func (t *Tracker) publish(changes []Change) {
	if len(changes) == 0 {
		return
	}
	t.subMu.RLock()
	fns := make([]func(Change), 0, len(t.subscribers))
	for _, fn := range t.subscribers {
		fns = append(fns, fn)
	}
	t.subMu.RUnlock()

	for _, c := range changes {
		for _, fn := range fns {
			fn(c)
		}
	}
}
