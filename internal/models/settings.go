package models

import "errors"

// MinInterval is the lowest accepted sampling interval in milliseconds.
const MinInterval = 1000

// ErrIntervalTooSmall rejects device settings below the minimum interval.
// Values below the minimum are rejected, never silently clamped.
var ErrIntervalTooSmall = errors.New("interval must be at least 1000 ms")

// DeviceSettings is the per-topic device configuration record, independent of
// the per-subscriber alert thresholds.
type DeviceSettings struct {
	Interval int64 `json:"interval"`
}

// DeviceSettingsPatch carries a partial device settings update.
type DeviceSettingsPatch struct {
	Interval *int64 `json:"interval,omitempty"`
}

// Validate checks the patch before it is merged.
func (p DeviceSettingsPatch) Validate() error {
	if p.Interval != nil && *p.Interval < MinInterval {
		return ErrIntervalTooSmall
	}
	return nil
}

// Apply merges the non-nil fields of the patch into the settings.
func (p DeviceSettingsPatch) Apply(s *DeviceSettings) {
	if p.Interval != nil {
		s.Interval = *p.Interval
	}
}
