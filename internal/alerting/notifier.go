package alerting

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/louweal/trusense-web-server/internal/logger"
	"github.com/louweal/trusense-web-server/internal/metrics"
	"github.com/louweal/trusense-web-server/internal/models"
)

// Sender hands a rendered message to the outbound mail collaborator,
// fire-and-forget.
type Sender interface {
	Enqueue(to, subject, body string) error
}

// Notifier renders threshold-breach emails and dispatches them through the
// Sender, gated by the Throttle.
type Notifier struct {
	sender       Sender
	throttle     *Throttle
	dashboardURL string
}

// NewNotifier creates a notifier.
func NewNotifier(sender Sender, throttle *Throttle, dashboardURL string) *Notifier {
	return &Notifier{
		sender:       sender,
		throttle:     throttle,
		dashboardURL: strings.TrimRight(dashboardURL, "/"),
	}
}

// Notify dispatches an alert email for one violation observed at the given
// reading timestamp. It is a no-op when the subscriber has no contact email
// or the (topic, subscriber, metric) is still inside the throttle window.
// The throttle is recorded with the reading's timestamp, not the wall clock
// at send time, so windows are computed relative to when the out-of-range
// condition was observed.
func (n *Notifier) Notify(topic string, v Violation, timestamp int64) error {
	sub := v.Subscriber
	if sub.Email == "" {
		return nil
	}

	if !n.throttle.ShouldNotify(topic, sub.ID, v.Metric, timestamp) {
		metrics.NotificationsThrottled.Inc()
		log := logger.WithComponent("notifier")
		log.Debug().
			Str("topic", topic).
			Str("subscriber", sub.ID).
			Str("metric", string(v.Metric)).
			Msg("notification throttled")
		return nil
	}

	subject := fmt.Sprintf("TruSense alert for %s: %s out of range", sub.DisplayName(), v.Metric.Label())
	body := n.renderBody(topic, v, timestamp)

	if err := n.sender.Enqueue(sub.Email, subject, body); err != nil {
		return fmt.Errorf("dispatching alert to %s: %w", sub.ID, err)
	}

	n.throttle.RecordNotified(topic, sub.ID, v.Metric, timestamp)
	metrics.NotificationsSent.Inc()

	log := logger.WithComponent("notifier")
	log.Info().
		Str("topic", topic).
		Str("subscriber", sub.ID).
		Str("metric", string(v.Metric)).
		Float64("value", v.Value).
		Msg("alert dispatched")
	return nil
}

func (n *Notifier) renderBody(topic string, v Violation, timestamp int64) string {
	var b strings.Builder

	at := time.UnixMilli(timestamp).UTC().Format("2006-01-02 15:04:05 UTC")
	fmt.Fprintf(&b, "At %s the %s reading for topic %s was %s%s.\n",
		at, v.Metric.Label(), topic, formatValue(v.Value), v.Metric.Unit())

	if v.Lower != models.LowerUnbounded {
		fmt.Fprintf(&b, "Configured minimum: %s%s\n", formatValue(v.Lower), v.Metric.Unit())
	}
	if v.Upper != models.UpperUnbounded {
		fmt.Fprintf(&b, "Configured maximum: %s%s\n", formatValue(v.Upper), v.Metric.Unit())
	}

	fmt.Fprintf(&b, "\nView the live data at %s/topics/%s\n", n.dashboardURL, topic)
	return b.String()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
