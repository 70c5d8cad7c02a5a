package alerting

import "github.com/louweal/trusense-web-server/internal/models"

// Violation is one metric reading outside a subscriber's configured bounds.
// Violations are transient; they exist only within one evaluation pass.
type Violation struct {
	Subscriber *models.Subscriber
	Metric     models.Metric
	Value      float64
	Lower      float64
	Upper      float64
}

// Evaluate computes the violations a reading produces against the topic's
// subscriber set. Subscribers are walked in insertion order, metrics in the
// fixed metric order. A violation is produced iff the value is strictly below
// the lower bound or strictly above the upper bound; a value exactly at a
// bound is in range. Metrics with no configured bounds never produce a
// violation. Pure, no side effects.
func Evaluate(r *models.Reading, subscribers []*models.Subscriber) []Violation {
	var violations []Violation
	for _, sub := range subscribers {
		for _, m := range models.MetricOrder {
			value, ok := r.Value(m)
			if !ok {
				continue
			}
			bounds, ok := sub.Bound(m)
			if !ok {
				continue
			}
			if bounds.Contains(value) {
				continue
			}
			violations = append(violations, Violation{
				Subscriber: sub,
				Metric:     m,
				Value:      value,
				Lower:      bounds.Lower,
				Upper:      bounds.Upper,
			})
		}
	}
	return violations
}
