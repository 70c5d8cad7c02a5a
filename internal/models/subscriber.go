package models

import "math"

// Sentinels for an unset bound side. A strict comparison against these can
// never produce a violation, so "unset" and "unbounded" coincide.
const (
	LowerUnbounded = -math.MaxFloat64
	UpperUnbounded = math.MaxFloat64
)

// Bounds is the inclusive in-range interval for one metric. Values exactly at
// a bound are in range.
type Bounds struct {
	Lower float64
	Upper float64
}

// Unbounded returns bounds that match every value.
func Unbounded() Bounds {
	return Bounds{Lower: LowerUnbounded, Upper: UpperUnbounded}
}

// Contains reports whether v is inside the bounds.
func (b Bounds) Contains(v float64) bool {
	return v >= b.Lower && v <= b.Upper
}

// Subscriber is a party registered to receive threshold-breach alerts for one
// topic. The same subscriber ID under two topics denotes two independent
// entities.
type Subscriber struct {
	ID     string
	Name   string
	Email  string // empty suppresses notification
	Bounds map[Metric]Bounds
}

// NewSubscriber creates an empty subscriber with no configured bounds.
func NewSubscriber(id string) *Subscriber {
	return &Subscriber{ID: id, Bounds: make(map[Metric]Bounds)}
}

// Bound returns the configured bounds for a metric, if any side was ever set.
func (s *Subscriber) Bound(m Metric) (Bounds, bool) {
	b, ok := s.Bounds[m]
	return b, ok
}

// Clone returns a deep copy safe to read outside the store lock.
func (s *Subscriber) Clone() *Subscriber {
	c := &Subscriber{
		ID:     s.ID,
		Name:   s.Name,
		Email:  s.Email,
		Bounds: make(map[Metric]Bounds, len(s.Bounds)),
	}
	for m, b := range s.Bounds {
		c.Bounds[m] = b
	}
	return c
}

// DisplayName returns the name to address the subscriber by in notifications.
func (s *Subscriber) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// SubscriberPatch carries a partial settings update. Nil fields are left
// untouched on merge; a patch never replaces a subscriber wholesale.
type SubscriberPatch struct {
	Name    *string  `json:"name,omitempty"`
	Email   *string  `json:"email,omitempty"`
	MinTemp *float64 `json:"minTemp,omitempty"`
	MaxTemp *float64 `json:"maxTemp,omitempty"`
	MinHum  *float64 `json:"minHum,omitempty"`
	MaxHum  *float64 `json:"maxHum,omitempty"`
	MinPres *float64 `json:"minPres,omitempty"`
	MaxPres *float64 `json:"maxPres,omitempty"`
}

// Apply merges the non-nil fields of the patch into the subscriber.
func (p SubscriberPatch) Apply(s *Subscriber) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Email != nil {
		s.Email = *p.Email
	}
	applyLower(s, MetricTemperature, p.MinTemp)
	applyUpper(s, MetricTemperature, p.MaxTemp)
	applyLower(s, MetricHumidity, p.MinHum)
	applyUpper(s, MetricHumidity, p.MaxHum)
	applyLower(s, MetricPressure, p.MinPres)
	applyUpper(s, MetricPressure, p.MaxPres)
}

func applyLower(s *Subscriber, m Metric, v *float64) {
	if v == nil {
		return
	}
	b, ok := s.Bounds[m]
	if !ok {
		b = Unbounded()
	}
	b.Lower = *v
	s.Bounds[m] = b
}

func applyUpper(s *Subscriber, m Metric, v *float64) {
	if v == nil {
		return
	}
	b, ok := s.Bounds[m]
	if !ok {
		b = Unbounded()
	}
	b.Upper = *v
	s.Bounds[m] = b
}
