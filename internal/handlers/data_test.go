package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/louweal/trusense-web-server/internal/alerting"
	"github.com/louweal/trusense-web-server/internal/models"
)

type fakeSubmitter struct {
	topic   string
	message []byte
	txID    string
	err     error
}

func (s *fakeSubmitter) Submit(ctx context.Context, topic string, message []byte) (string, error) {
	s.topic = topic
	s.message = message
	if s.err != nil {
		return "", s.err
	}
	return s.txID, nil
}

type fakeSender struct {
	sent []string // recipient addresses
}

func (s *fakeSender) Enqueue(to, subject, body string) error {
	s.sent = append(s.sent, to)
	return nil
}

func newTestEngine(sender alerting.Sender) *alerting.Engine {
	store := alerting.NewThresholdStore(nil)
	notifier := alerting.NewNotifier(sender, alerting.NewThrottle(alerting.DefaultThrottleWindow), "https://trusense.app")
	return alerting.NewEngine(store, notifier)
}

func postData(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/data", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestDataHandlerForwardsToLedger(t *testing.T) {
	submitter := &fakeSubmitter{txID: "0.0.999@1700000000.000000001"}
	handler := NewDataHandler(submitter, newTestEngine(&fakeSender{}), nil)

	w := postData(t, handler, `{"topicId":"0.0.123","temperature":21.5,"humidity":48,"pressure":1013.2}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp DataResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.Status != "ok" || resp.TxID != submitter.txID {
		t.Errorf("unexpected response: %+v", resp)
	}

	if submitter.topic != "0.0.123" {
		t.Errorf("submitted to topic %q", submitter.topic)
	}

	var msg models.LedgerMessage
	if err := json.Unmarshal(submitter.message, &msg); err != nil {
		t.Fatalf("submitted message is not valid JSON: %v", err)
	}
	if msg.Temperature == nil || *msg.Temperature != 21.5 ||
		msg.AirPressure == nil || *msg.AirPressure != 1013.2 {
		t.Errorf("unexpected ledger message: %s", submitter.message)
	}
	if msg.Timestamp == 0 {
		t.Error("ledger message missing ingestion timestamp")
	}
	if resp.Sent != string(submitter.message) {
		t.Error("response echo does not match the submitted message")
	}
}

func TestDataHandlerLedgerFailureReturns500ButStillAlerts(t *testing.T) {
	submitter := &fakeSubmitter{err: errors.New("consensus node unreachable")}
	sender := &fakeSender{}
	engine := newTestEngine(sender)

	email := "s1@example.com"
	engine.Store().UpsertSetting("0.0.123", "s1", models.SubscriberPatch{
		MaxTemp: floatPtr(26),
		Email:   &email,
	})

	handler := NewDataHandler(submitter, engine, nil)
	w := postData(t, handler, `{"topicId":"0.0.123","temperature":30}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["error"] == "" {
		t.Errorf("error body missing: %s", w.Body.String())
	}

	// Alert evaluation proceeds regardless of the ledger outcome.
	if len(sender.sent) != 1 || sender.sent[0] != email {
		t.Errorf("alerting did not run on ledger failure: %v", sender.sent)
	}
}

func TestDataHandlerRejectsInvalidBody(t *testing.T) {
	handler := NewDataHandler(&fakeSubmitter{}, newTestEngine(&fakeSender{}), nil)

	cases := []struct {
		name, body string
	}{
		{"malformed JSON", `{"topicId":`},
		{"missing topic", `{"temperature":21}`},
		{"no values", `{"topicId":"0.0.123"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postData(t, handler, tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
		})
	}
}

func floatPtr(v float64) *float64 { return &v }
