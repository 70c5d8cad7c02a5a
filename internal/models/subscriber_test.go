package models

import "testing"

func str(s string) *string { return &s }

func TestPatchApplyMergesOnlyProvidedFields(t *testing.T) {
	sub := NewSubscriber("s1")

	SubscriberPatch{MinTemp: f(10), Email: str("a@example.com")}.Apply(sub)
	SubscriberPatch{MaxTemp: f(30)}.Apply(sub)

	if sub.Email != "a@example.com" {
		t.Errorf("email cleared by later patch: %q", sub.Email)
	}
	b, ok := sub.Bound(MetricTemperature)
	if !ok || b.Lower != 10 || b.Upper != 30 {
		t.Errorf("bounds not merged: %+v ok=%v", b, ok)
	}
}

func TestPatchApplyOneSidedBoundLeavesOtherUnbounded(t *testing.T) {
	sub := NewSubscriber("s1")
	SubscriberPatch{MaxHum: f(60)}.Apply(sub)

	b, ok := sub.Bound(MetricHumidity)
	if !ok {
		t.Fatal("humidity bounds missing")
	}
	if b.Lower != LowerUnbounded || b.Upper != 60 {
		t.Errorf("unexpected bounds: %+v", b)
	}
}

func TestBoundsContains(t *testing.T) {
	b := Bounds{Lower: 18, Upper: 26}
	for _, v := range []float64{18, 22, 26} {
		if !b.Contains(v) {
			t.Errorf("%v should be in range", v)
		}
	}
	for _, v := range []float64{17.9, 26.1} {
		if b.Contains(v) {
			t.Errorf("%v should be out of range", v)
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	sub := NewSubscriber("s1")
	SubscriberPatch{MinTemp: f(10)}.Apply(sub)

	c := sub.Clone()
	SubscriberPatch{MinTemp: f(99)}.Apply(c)

	if b, _ := sub.Bound(MetricTemperature); b.Lower != 10 {
		t.Errorf("clone mutation leaked into original: %+v", b)
	}
}

func TestDisplayNameFallsBackToID(t *testing.T) {
	sub := NewSubscriber("s1")
	if sub.DisplayName() != "s1" {
		t.Errorf("got %q", sub.DisplayName())
	}
	sub.Name = "Greenhouse East"
	if sub.DisplayName() != "Greenhouse East" {
		t.Errorf("got %q", sub.DisplayName())
	}
}
