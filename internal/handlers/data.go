package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/louweal/trusense-web-server/internal/alerting"
	"github.com/louweal/trusense-web-server/internal/ledger"
	"github.com/louweal/trusense-web-server/internal/logger"
	"github.com/louweal/trusense-web-server/internal/metrics"
	"github.com/louweal/trusense-web-server/internal/models"
	"github.com/louweal/trusense-web-server/internal/stream"
)

// DataHandler ingests sensor readings: each reading is forwarded to the
// consensus topic, evaluated against alert thresholds, and mirrored to the
// analytics stream.
type DataHandler struct {
	submitter   ledger.Submitter
	engine      *alerting.Engine
	mirror      *stream.Mirror
	maxBodySize int64
}

// NewDataHandler creates the /data handler.
func NewDataHandler(submitter ledger.Submitter, engine *alerting.Engine, mirror *stream.Mirror) *DataHandler {
	return &DataHandler{
		submitter:   submitter,
		engine:      engine,
		mirror:      mirror,
		maxBodySize: 1 << 20, // 1MB; readings are tiny
	}
}

// DataRequest is the incoming reading payload. Metric fields are optional; a
// device may report any subset.
type DataRequest struct {
	TopicID     string   `json:"topicId"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Pressure    *float64 `json:"pressure"`
}

// DataResponse is returned on successful ingestion.
type DataResponse struct {
	Status string `json:"status"`
	Sent   string `json:"sent"`
	TxID   string `json:"txId"`
}

// ServeHTTP handles POST /data.
func (h *DataHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var req DataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.ReadingsIngested.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	reading := models.NewReading(req.TopicID, req.Temperature, req.Humidity, req.Pressure)
	if err := reading.Validate(); err != nil {
		metrics.ReadingsIngested.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	message, err := reading.LedgerMessage()
	if err != nil {
		metrics.ReadingsIngested.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	txID, submitErr := h.submitter.Submit(r.Context(), reading.Topic, message)

	// Alert evaluation and mirroring proceed regardless of the ledger
	// outcome; only the HTTP status reflects a submit failure.
	h.engine.Process(r.Context(), reading)
	h.mirror.Offer(reading)

	if submitErr != nil {
		log := logger.WithComponent("data_handler")
		log.Error().
			Err(submitErr).
			Str("topic", reading.Topic).
			Msg("ledger submit failed")
		metrics.ReadingsIngested.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusInternalServerError, submitErr.Error())
		return
	}

	metrics.ReadingsIngested.WithLabelValues("accepted").Inc()
	writeJSON(w, http.StatusOK, DataResponse{
		Status: "ok",
		Sent:   string(message),
		TxID:   txID,
	})
}
