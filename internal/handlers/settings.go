package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/louweal/trusense-web-server/internal/alerting"
	"github.com/louweal/trusense-web-server/internal/models"
)

// SettingsHandler manages per-subscriber alert thresholds and per-topic
// device settings.
type SettingsHandler struct {
	store *alerting.ThresholdStore
}

// NewSettingsHandler creates the settings handlers.
func NewSettingsHandler(store *alerting.ThresholdStore) *SettingsHandler {
	return &SettingsHandler{store: store}
}

// UpsertSubscriber handles POST /settings/{topicId}/{subscriberId}. The body
// is a partial update; omitted fields keep their current values.
func (h *SettingsHandler) UpsertSubscriber(w http.ResponseWriter, r *http.Request) {
	topicID := r.PathValue("topicId")
	subscriberID := r.PathValue("subscriberId")

	var patch models.SubscriberPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	h.store.UpsertSetting(topicID, subscriberID, patch)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"received": patch,
	})
}

// GetDeviceSettings handles GET /device-settings/{topicId}.
func (h *SettingsHandler) GetDeviceSettings(w http.ResponseWriter, r *http.Request) {
	topicID := r.PathValue("topicId")

	settings, ok := h.store.DeviceSettings(topicID)
	if !ok {
		writeError(w, http.StatusNotFound, "Device settings not found")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// UpsertDeviceSettings handles POST /device-settings/{topicId}. Intervals
// below the minimum are rejected with a validation error.
func (h *SettingsHandler) UpsertDeviceSettings(w http.ResponseWriter, r *http.Request) {
	topicID := r.PathValue("topicId")

	var patch models.DeviceSettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.store.UpsertDeviceSettings(topicID, patch); err != nil {
		if errors.Is(err, models.ErrIntervalTooSmall) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"received": patch,
	})
}
