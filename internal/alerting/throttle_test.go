package alerting

import (
	"testing"
	"time"

	"github.com/louweal/trusense-web-server/internal/models"
)

const fourHoursMs = 4 * 3600 * 1000

func TestThrottleWindowBoundary(t *testing.T) {
	tr := NewThrottle(DefaultThrottleWindow)
	base := int64(1_700_000_000_000)

	if !tr.ShouldNotify("t1", "s1", models.MetricTemperature, base) {
		t.Fatal("never-notified key should allow notification")
	}
	tr.RecordNotified("t1", "s1", models.MetricTemperature, base)

	if tr.ShouldNotify("t1", "s1", models.MetricTemperature, base+fourHoursMs-1) {
		t.Error("one millisecond before the window elapses should still throttle")
	}
	if !tr.ShouldNotify("t1", "s1", models.MetricTemperature, base+fourHoursMs) {
		t.Error("exactly at the window boundary should allow notification")
	}
}

func TestShouldNotifyIsPure(t *testing.T) {
	tr := NewThrottle(DefaultThrottleWindow)
	base := int64(1_700_000_000_000)

	// Repeated checks without RecordNotified never flip the state.
	for i := 0; i < 3; i++ {
		if !tr.ShouldNotify("t1", "s1", models.MetricHumidity, base) {
			t.Fatal("ShouldNotify mutated state")
		}
	}
}

func TestThrottleIndependentPerTriple(t *testing.T) {
	tr := NewThrottle(DefaultThrottleWindow)
	base := int64(1_700_000_000_000)

	tr.RecordNotified("t1", "s1", models.MetricTemperature, base)

	if !tr.ShouldNotify("t1", "s1", models.MetricHumidity, base+1) {
		t.Error("temperature notification throttled humidity on the same subscriber")
	}
	if !tr.ShouldNotify("t1", "s2", models.MetricTemperature, base+1) {
		t.Error("one subscriber's notification throttled another subscriber")
	}
	if !tr.ShouldNotify("t2", "s1", models.MetricTemperature, base+1) {
		t.Error("notification on one topic throttled the same subscriber ID on another topic")
	}
	if tr.ShouldNotify("t1", "s1", models.MetricTemperature, base+1) {
		t.Error("the recorded triple itself should be throttled")
	}
}

func TestRecordNotifiedOverwrites(t *testing.T) {
	tr := NewThrottle(time.Hour)
	base := int64(1_700_000_000_000)
	window := time.Hour.Milliseconds()

	tr.RecordNotified("t1", "s1", models.MetricPressure, base)
	tr.RecordNotified("t1", "s1", models.MetricPressure, base+window)

	if tr.ShouldNotify("t1", "s1", models.MetricPressure, base+window+1) {
		t.Error("window should be measured from the most recent record")
	}
	if !tr.ShouldNotify("t1", "s1", models.MetricPressure, base+2*window) {
		t.Error("window elapsed from the most recent record should notify")
	}
}
