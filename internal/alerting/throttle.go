package alerting

import (
	"sync"
	"time"

	"github.com/louweal/trusense-web-server/internal/models"
)

// DefaultThrottleWindow is the minimum time between two notifications for the
// same (topic, subscriber, metric).
const DefaultThrottleWindow = 4 * time.Hour

type throttleKey struct {
	topic      string
	subscriber string
	metric     models.Metric
}

// Throttle enforces a minimum re-notification interval per
// (topic, subscriber, metric). Independent subscribers and independent
// metrics never suppress each other.
type Throttle struct {
	mu     sync.Mutex
	window int64 // milliseconds
	last   map[throttleKey]int64
}

// NewThrottle creates a throttle with the given window.
func NewThrottle(window time.Duration) *Throttle {
	return &Throttle{
		window: window.Milliseconds(),
		last:   make(map[throttleKey]int64),
	}
}

// ShouldNotify reports whether a notification at time now (ms since epoch) is
// outside the throttle window. A never-notified key has a last-alerted time
// of 0. This is a pure check; it does not mutate state.
func (t *Throttle) ShouldNotify(topic, subscriber string, metric models.Metric, now int64) bool {
	k := throttleKey{topic: topic, subscriber: subscriber, metric: metric}

	t.mu.Lock()
	last := t.last[k]
	t.mu.Unlock()

	return now >= last+t.window
}

// RecordNotified unconditionally sets the last-alerted time for the key.
// Callers invoke it right after dispatch is requested; the mail collaborator
// gives no synchronous delivery guarantee, so a transient send failure after
// this point counts as already notified within the window.
func (t *Throttle) RecordNotified(topic, subscriber string, metric models.Metric, now int64) {
	k := throttleKey{topic: topic, subscriber: subscriber, metric: metric}

	t.mu.Lock()
	t.last[k] = now
	t.mu.Unlock()
}
