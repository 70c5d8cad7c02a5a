package alerting

import (
	"context"

	"github.com/louweal/trusense-web-server/internal/logger"
	"github.com/louweal/trusense-web-server/internal/metrics"
	"github.com/louweal/trusense-web-server/internal/models"
)

// Engine ties the threshold store, evaluator, and notifier together for one
// ingested reading.
type Engine struct {
	store    *ThresholdStore
	notifier *Notifier
}

// NewEngine creates an engine.
func NewEngine(store *ThresholdStore, notifier *Notifier) *Engine {
	return &Engine{store: store, notifier: notifier}
}

// Store exposes the underlying threshold store for the settings handlers.
func (e *Engine) Store() *ThresholdStore {
	return e.store
}

// Process evaluates a reading against the topic's subscribers and dispatches
// whatever notifications are due. A hydration failure degrades to "no
// subscribers"; one subscriber's notification failure never prevents
// evaluation for the remaining subscribers or metrics.
func (e *Engine) Process(ctx context.Context, r *models.Reading) {
	log := logger.WithComponent("alert_engine")

	if err := e.store.EnsureHydrated(ctx, r.Topic); err != nil {
		log.Warn().
			Err(err).
			Str("topic", r.Topic).
			Msg("hydration failed, evaluating without backing store subscribers")
	}

	subscribers := e.store.Subscribers(r.Topic)
	if len(subscribers) == 0 {
		return
	}

	for _, v := range Evaluate(r, subscribers) {
		metrics.ViolationsEvaluated.WithLabelValues(string(v.Metric)).Inc()

		if err := e.notifier.Notify(r.Topic, v, r.Timestamp); err != nil {
			log.Error().
				Err(err).
				Str("topic", r.Topic).
				Str("subscriber", v.Subscriber.ID).
				Str("metric", string(v.Metric)).
				Msg("notification failed")
		}
	}
}
