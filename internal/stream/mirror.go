package stream

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/louweal/trusense-web-server/internal/config"
	"github.com/louweal/trusense-web-server/internal/logger"
	"github.com/louweal/trusense-web-server/internal/metrics"
	"github.com/louweal/trusense-web-server/internal/models"
)

// Mirror streams accepted readings to a Kafka topic for downstream
// dashboards and analytics. Offer never blocks ingestion: a full queue drops
// the reading and counts it. A nil Mirror (no brokers configured) is a no-op.
type Mirror struct {
	writer       *kafka.Writer
	readings     chan *models.Reading
	batchSize    int
	batchTimeout time.Duration

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewMirror creates a mirror, or nil when no brokers are configured.
func NewMirror(cfg config.MirrorConfig) *Mirror {
	if len(cfg.Brokers) == 0 {
		return nil
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{}, // partition by ledger topic for ordering
		BatchTimeout: 100 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		Async:        false,
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Mirror{
		writer:       writer,
		readings:     make(chan *models.Reading, cfg.QueueSize),
		batchSize:    100,
		batchTimeout: 100 * time.Millisecond,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start begins draining the reading queue.
func (m *Mirror) Start() {
	if m == nil {
		return
	}
	log := logger.WithComponent("mirror")
	log.Info().
		Str("topic", m.writer.Topic).
		Int("batch_size", m.batchSize).
		Msg("starting analytics mirror")

	m.wg.Add(1)
	go m.worker()
}

// Stop flushes pending readings and closes the writer.
func (m *Mirror) Stop() {
	if m == nil {
		return
	}
	m.cancel()
	m.wg.Wait()
	if err := m.writer.Close(); err != nil {
		log := logger.WithComponent("mirror")
		log.Warn().Err(err).Msg("error closing kafka writer")
	}
}

// Offer queues a reading for mirroring without blocking the caller.
func (m *Mirror) Offer(r *models.Reading) {
	if m == nil {
		return
	}
	select {
	case m.readings <- r:
	default:
		metrics.MirrorDropped.Inc()
	}
}

// worker batches readings and publishes them, flushing on size or timeout.
func (m *Mirror) worker() {
	defer m.wg.Done()

	batch := make([]*models.Reading, 0, m.batchSize)
	timer := time.NewTimer(m.batchTimeout)
	defer timer.Stop()

	for {
		select {
		case <-m.ctx.Done():
			m.publish(batch)
			return

		case r := <-m.readings:
			batch = append(batch, r)
			if len(batch) >= m.batchSize {
				m.publish(batch)
				batch = batch[:0]
				timer.Reset(m.batchTimeout)
			}

		case <-timer.C:
			if len(batch) > 0 {
				m.publish(batch)
				batch = batch[:0]
			}
			timer.Reset(m.batchTimeout)
		}
	}
}

func (m *Mirror) publish(batch []*models.Reading) {
	if len(batch) == 0 {
		return
	}
	log := logger.WithComponent("mirror")
	start := time.Now()

	messages := make([]kafka.Message, 0, len(batch))
	for _, r := range batch {
		value, err := r.LedgerMessage()
		if err != nil {
			log.Error().Err(err).Str("topic", r.Topic).Msg("failed to serialize reading")
			metrics.MirrorPublished.WithLabelValues("failed").Inc()
			continue
		}
		messages = append(messages, kafka.Message{
			Key:   []byte(r.Topic),
			Value: value,
			Headers: []kafka.Header{
				{Key: "topic_id", Value: []byte(r.Topic)},
			},
			Time: time.UnixMilli(r.Timestamp),
		})
	}
	if len(messages) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := m.writer.WriteMessages(ctx, messages...)
	duration := time.Since(start)
	metrics.MirrorPublishDuration.Observe(duration.Seconds())

	if err != nil {
		log.Error().
			Err(err).
			Int("batch_size", len(messages)).
			Dur("duration", duration).
			Msg("failed to publish batch")
		metrics.MirrorPublished.WithLabelValues("failed").Add(float64(len(messages)))
		return
	}

	log.Debug().
		Int("batch_size", len(messages)).
		Dur("duration", duration).
		Msg("batch published")
	metrics.MirrorPublished.WithLabelValues("success").Add(float64(len(messages)))
}
