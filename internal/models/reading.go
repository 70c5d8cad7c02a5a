package models

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Metric identifies one monitored sensor quantity.
type Metric string

const (
	MetricTemperature Metric = "temperature"
	MetricHumidity    Metric = "humidity"
	MetricPressure    Metric = "pressure"
)

// MetricOrder is the fixed order in which metrics are evaluated and rendered.
var MetricOrder = []Metric{MetricTemperature, MetricHumidity, MetricPressure}

// Unit returns the display unit for the metric.
func (m Metric) Unit() string {
	switch m {
	case MetricTemperature:
		return "°C"
	case MetricHumidity:
		return "%"
	case MetricPressure:
		return "hPa"
	default:
		return ""
	}
}

// Label returns the human-readable metric name used in notifications.
func (m Metric) Label() string {
	switch m {
	case MetricTemperature:
		return "Temperature"
	case MetricHumidity:
		return "Humidity"
	case MetricPressure:
		return "Air Pressure"
	default:
		return string(m)
	}
}

// Validation errors
var (
	ErrEmptyTopic = errors.New("topic ID cannot be empty")
	ErrNoValues   = errors.New("reading carries no metric values")
)

// Reading is one ingested data point for a topic. It exists only for the
// duration of a single ingestion call and is never persisted.
type Reading struct {
	Topic     string
	Values    map[Metric]float64
	Timestamp int64 // milliseconds since epoch, assigned at ingestion
}

// NewReading builds a Reading from the optional metric values of an ingest
// request. Absent metrics are simply not part of the value map. The timestamp
// is assigned here, not supplied by the device.
func NewReading(topic string, temperature, humidity, pressure *float64) *Reading {
	values := make(map[Metric]float64, 3)
	if temperature != nil {
		values[MetricTemperature] = *temperature
	}
	if humidity != nil {
		values[MetricHumidity] = *humidity
	}
	if pressure != nil {
		values[MetricPressure] = *pressure
	}
	return &Reading{
		Topic:     strings.TrimSpace(topic),
		Values:    values,
		Timestamp: time.Now().UnixMilli(),
	}
}

// Value returns the measured value for a metric, if present in this reading.
func (r *Reading) Value(m Metric) (float64, bool) {
	v, ok := r.Values[m]
	return v, ok
}

// Validate checks the reading has a topic and at least one metric value.
func (r *Reading) Validate() error {
	if r.Topic == "" {
		return ErrEmptyTopic
	}
	if len(r.Values) == 0 {
		return ErrNoValues
	}
	return nil
}

// LedgerMessage is the JSON payload appended to the consensus topic. Field
// names match what downstream consumers of the topic already expect.
type LedgerMessage struct {
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	AirPressure *float64 `json:"airPressure,omitempty"`
	Timestamp   int64    `json:"timestamp"`
}

// LedgerMessage serializes the reading for submission to the ledger.
func (r *Reading) LedgerMessage() ([]byte, error) {
	msg := LedgerMessage{Timestamp: r.Timestamp}
	if v, ok := r.Values[MetricTemperature]; ok {
		msg.Temperature = &v
	}
	if v, ok := r.Values[MetricHumidity]; ok {
		msg.Humidity = &v
	}
	if v, ok := r.Values[MetricPressure]; ok {
		msg.AirPressure = &v
	}
	return json.Marshal(msg)
}
