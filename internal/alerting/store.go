package alerting

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/louweal/trusense-web-server/internal/logger"
	"github.com/louweal/trusense-web-server/internal/metrics"
	"github.com/louweal/trusense-web-server/internal/models"
)

// SubscriberSource fetches all subscriber rows for a topic from the backing
// store. Implementations live outside this package.
type SubscriberSource interface {
	FetchSubscribers(ctx context.Context, topic string) ([]*models.Subscriber, error)
}

// topicState holds everything the store knows about one topic. Each topic has
// its own lock so operations on different topics do not contend.
type topicState struct {
	mu          sync.RWMutex
	hydrated    bool
	order       []string // subscriber IDs in insertion order
	subscribers map[string]*models.Subscriber
	device      *models.DeviceSettings
}

func newTopicState() *topicState {
	return &topicState{subscribers: make(map[string]*models.Subscriber)}
}

// ThresholdStore keeps per-topic, per-subscriber alert thresholds and the
// per-topic device settings. Topics hydrate lazily from the SubscriberSource
// at most once per process lifetime and are never evicted; subscriber counts
// are assumed small and process lifetime short relative to staleness
// tolerance.
type ThresholdStore struct {
	mu     sync.RWMutex
	topics map[string]*topicState
	source SubscriberSource
	group  singleflight.Group
}

// NewThresholdStore creates an empty store. A nil source means there is no
// backing store; topics then hydrate as empty.
func NewThresholdStore(source SubscriberSource) *ThresholdStore {
	return &ThresholdStore{
		topics: make(map[string]*topicState),
		source: source,
	}
}

// state returns the state for a topic, creating it if absent.
func (s *ThresholdStore) state(topic string) *topicState {
	s.mu.RLock()
	st, ok := s.topics[topic]
	s.mu.RUnlock()
	if ok {
		return st
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok = s.topics[topic]; ok {
		return st
	}
	st = newTopicState()
	s.topics[topic] = st
	return st
}

// Subscribers returns an insertion-ordered snapshot of the topic's cached
// subscribers. It never triggers hydration. The returned subscribers are
// copies, safe to read without holding any store lock.
func (s *ThresholdStore) Subscribers(topic string) []*models.Subscriber {
	s.mu.RLock()
	st, ok := s.topics[topic]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	st.mu.RLock()
	defer st.mu.RUnlock()
	snapshot := make([]*models.Subscriber, 0, len(st.order))
	for _, id := range st.order {
		snapshot = append(snapshot, st.subscribers[id].Clone())
	}
	return snapshot
}

// EnsureHydrated populates the topic's subscriber set from the backing store
// on first use. Concurrent calls for the same topic collapse into a single
// fetch. A failed fetch leaves the topic unhydrated so a later reading can
// try again; a fetch returning zero rows marks the topic hydrated-but-empty
// so it is not refetched on every reading.
func (s *ThresholdStore) EnsureHydrated(ctx context.Context, topic string) error {
	st := s.state(topic)

	st.mu.RLock()
	hydrated := st.hydrated
	st.mu.RUnlock()
	if hydrated {
		return nil
	}

	_, err, _ := s.group.Do(topic, func() (interface{}, error) {
		// A previous flight may have completed while we queued.
		st.mu.RLock()
		done := st.hydrated
		st.mu.RUnlock()
		if done {
			return nil, nil
		}

		var rows []*models.Subscriber
		if s.source != nil {
			// The fetch runs without holding any store lock.
			var err error
			rows, err = s.source.FetchSubscribers(ctx, topic)
			if err != nil {
				metrics.HydrationFetches.WithLabelValues("failed").Inc()
				log := logger.WithComponent("threshold_store")
				log.Warn().
					Err(err).
					Str("topic", topic).
					Msg("subscriber fetch failed, topic treated as empty")
				return nil, err
			}
			metrics.HydrationFetches.WithLabelValues("success").Inc()
		}

		st.mu.Lock()
		defer st.mu.Unlock()
		if st.hydrated {
			return nil, nil
		}
		for _, row := range rows {
			// Settings written explicitly before hydration are newer than
			// the backing store; keep them.
			if _, exists := st.subscribers[row.ID]; exists {
				continue
			}
			st.order = append(st.order, row.ID)
			st.subscribers[row.ID] = row.Clone()
		}
		st.hydrated = true
		return nil, nil
	})
	return err
}

// UpsertSetting merges the non-nil fields of the patch into the subscriber,
// creating the topic and subscriber entries if absent. Omitted fields are
// never cleared.
func (s *ThresholdStore) UpsertSetting(topic, subscriberID string, patch models.SubscriberPatch) {
	st := s.state(topic)

	st.mu.Lock()
	defer st.mu.Unlock()
	sub, ok := st.subscribers[subscriberID]
	if !ok {
		sub = models.NewSubscriber(subscriberID)
		st.order = append(st.order, subscriberID)
		st.subscribers[subscriberID] = sub
	}
	patch.Apply(sub)
}

// DeviceSettings returns the topic's device configuration, if one was ever
// written.
func (s *ThresholdStore) DeviceSettings(topic string) (models.DeviceSettings, bool) {
	s.mu.RLock()
	st, ok := s.topics[topic]
	s.mu.RUnlock()
	if !ok {
		return models.DeviceSettings{}, false
	}

	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.device == nil {
		return models.DeviceSettings{}, false
	}
	return *st.device, true
}

// UpsertDeviceSettings validates and merges a device settings patch. An
// interval below the minimum is rejected, not clamped.
func (s *ThresholdStore) UpsertDeviceSettings(topic string, patch models.DeviceSettingsPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}

	st := s.state(topic)

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.device == nil {
		st.device = &models.DeviceSettings{}
	}
	patch.Apply(st.device)
	return nil
}
