package alerting

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/louweal/trusense-web-server/internal/models"
)

// fakeSource is a SubscriberSource with a controllable result.
type fakeSource struct {
	mu      sync.Mutex
	fetches atomic.Int64
	rows    []*models.Subscriber
	err     error
}

func (f *fakeSource) FetchSubscribers(ctx context.Context, topic string) ([]*models.Subscriber, error) {
	f.fetches.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeSource) set(rows []*models.Subscriber, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = rows
	f.err = err
}

func TestEnsureHydratedConcurrentSingleFetch(t *testing.T) {
	src := &fakeSource{}
	src.set([]*models.Subscriber{subscriberWith("s1", models.SubscriberPatch{MinTemp: f(10)})}, nil)
	store := NewThresholdStore(src)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.EnsureHydrated(context.Background(), "0.0.1")
		}()
	}
	wg.Wait()

	if n := src.fetches.Load(); n != 1 {
		t.Fatalf("expected exactly one backing store fetch, got %d", n)
	}
	if subs := store.Subscribers("0.0.1"); len(subs) != 1 || subs[0].ID != "s1" {
		t.Fatalf("unexpected subscribers after hydration: %+v", subs)
	}
}

func TestEnsureHydratedEmptyTopicNotRefetched(t *testing.T) {
	src := &fakeSource{}
	store := NewThresholdStore(src)

	for i := 0; i < 3; i++ {
		if err := store.EnsureHydrated(context.Background(), "0.0.2"); err != nil {
			t.Fatalf("hydration failed: %v", err)
		}
	}

	// Hydrated-but-empty is distinct from unhydrated: one fetch only.
	if n := src.fetches.Load(); n != 1 {
		t.Fatalf("empty topic was refetched: %d fetches", n)
	}
}

func TestEnsureHydratedFailureLeavesTopicUnhydrated(t *testing.T) {
	src := &fakeSource{}
	src.set(nil, errors.New("connection refused"))
	store := NewThresholdStore(src)

	if err := store.EnsureHydrated(context.Background(), "0.0.3"); err == nil {
		t.Fatal("expected hydration error")
	}
	if subs := store.Subscribers("0.0.3"); len(subs) != 0 {
		t.Fatalf("failed hydration should leave zero subscribers, got %d", len(subs))
	}

	// The store recovers: a later reading triggers another attempt.
	src.set([]*models.Subscriber{subscriberWith("s1", models.SubscriberPatch{})}, nil)
	if err := store.EnsureHydrated(context.Background(), "0.0.3"); err != nil {
		t.Fatalf("second hydration attempt failed: %v", err)
	}
	if subs := store.Subscribers("0.0.3"); len(subs) != 1 {
		t.Fatalf("expected 1 subscriber after recovery, got %d", len(subs))
	}
}

func TestEnsureHydratedNilSource(t *testing.T) {
	store := NewThresholdStore(nil)
	if err := store.EnsureHydrated(context.Background(), "0.0.4"); err != nil {
		t.Fatalf("nil source should hydrate as empty, got %v", err)
	}
}

func TestUpsertSettingMergesPartialFields(t *testing.T) {
	store := NewThresholdStore(nil)

	store.UpsertSetting("0.0.5", "s1", models.SubscriberPatch{MinTemp: f(10)})
	store.UpsertSetting("0.0.5", "s1", models.SubscriberPatch{MaxTemp: f(30)})

	subs := store.Subscribers("0.0.5")
	if len(subs) != 1 {
		t.Fatalf("expected 1 subscriber, got %d", len(subs))
	}
	bounds, ok := subs[0].Bound(models.MetricTemperature)
	if !ok {
		t.Fatal("temperature bounds missing after two partial updates")
	}
	if bounds.Lower != 10 || bounds.Upper != 30 {
		t.Fatalf("partial update clobbered a field: %+v", bounds)
	}
}

func TestUpsertSettingDoesNotClearOmittedFields(t *testing.T) {
	store := NewThresholdStore(nil)

	email := "s1@example.com"
	name := "Subscriber One"
	store.UpsertSetting("0.0.5", "s1", models.SubscriberPatch{Email: &email, Name: &name})
	store.UpsertSetting("0.0.5", "s1", models.SubscriberPatch{MinHum: f(30)})

	sub := store.Subscribers("0.0.5")[0]
	if sub.Email != email || sub.Name != name {
		t.Fatalf("omitted fields were cleared: %+v", sub)
	}
}

func TestUpsertBeforeHydrationWins(t *testing.T) {
	src := &fakeSource{}
	src.set([]*models.Subscriber{subscriberWith("s1", models.SubscriberPatch{MaxTemp: f(99)})}, nil)
	store := NewThresholdStore(src)

	// Explicit settings written before the first reading are newer than the
	// backing store row and must survive hydration.
	store.UpsertSetting("0.0.6", "s1", models.SubscriberPatch{MaxTemp: f(26)})
	store.EnsureHydrated(context.Background(), "0.0.6")

	bounds, _ := store.Subscribers("0.0.6")[0].Bound(models.MetricTemperature)
	if bounds.Upper != 26 {
		t.Fatalf("hydration clobbered an explicit setting: %+v", bounds)
	}
}

func TestSubscribersInsertionOrder(t *testing.T) {
	store := NewThresholdStore(nil)
	for _, id := range []string{"c", "a", "b"} {
		store.UpsertSetting("0.0.7", id, models.SubscriberPatch{})
	}

	subs := store.Subscribers("0.0.7")
	got := []string{subs[0].ID, subs[1].ID, subs[2].ID}
	want := []string{"c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("insertion order not preserved: got %v, want %v", got, want)
		}
	}
}

func TestSubscribersReturnsCopies(t *testing.T) {
	store := NewThresholdStore(nil)
	store.UpsertSetting("0.0.8", "s1", models.SubscriberPatch{MinTemp: f(10)})

	snapshot := store.Subscribers("0.0.8")
	snapshot[0].Email = "mutated@example.com"

	if store.Subscribers("0.0.8")[0].Email != "" {
		t.Fatal("snapshot mutation leaked into the store")
	}
}

func TestDeviceSettings(t *testing.T) {
	store := NewThresholdStore(nil)

	if _, ok := store.DeviceSettings("0.0.9"); ok {
		t.Fatal("device settings for an unknown topic should be absent")
	}

	small := int64(500)
	err := store.UpsertDeviceSettings("0.0.9", models.DeviceSettingsPatch{Interval: &small})
	if !errors.Is(err, models.ErrIntervalTooSmall) {
		t.Fatalf("interval 500 should be rejected, got %v", err)
	}
	if _, ok := store.DeviceSettings("0.0.9"); ok {
		t.Fatal("rejected patch must not create settings")
	}

	valid := int64(5000)
	if err := store.UpsertDeviceSettings("0.0.9", models.DeviceSettingsPatch{Interval: &valid}); err != nil {
		t.Fatalf("interval 5000 should be accepted, got %v", err)
	}
	settings, ok := store.DeviceSettings("0.0.9")
	if !ok || settings.Interval != 5000 {
		t.Fatalf("unexpected device settings: %+v ok=%v", settings, ok)
	}
}
