package models

import "time"

// Default stream configuration values, applied field by field when a start
// request leaves them unset.
const (
	DefaultStreamName    = "books"
	DefaultInterval      = 3000   // ms between ticks
	DefaultDuration      = 120000 // ms until the stream completes itself
	DefaultBurstSize     = 3
	DefaultBurstInterval = 10000 // ms between bursts
)

// StreamConfig is the immutable configuration snapshot taken when a stream
// starts. All durations are milliseconds, matching the wire format.
type StreamConfig struct {
	StreamName     string  `json:"streamName"`
	Interval       int64   `json:"interval"`
	Duration       int64   `json:"duration"`
	ErrorRate      float64 `json:"errorRate"`
	DuplicateRate  float64 `json:"duplicateRate"`
	DelayVariation int64   `json:"delayVariation"`
	BurstMode      bool    `json:"burstMode"`
	BurstSize      int     `json:"burstSize"`
	BurstInterval  int64   `json:"burstInterval"`
}

// DefaultStreamConfig returns the configuration a bare start request
// resolves to.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		StreamName:    DefaultStreamName,
		Interval:      DefaultInterval,
		Duration:      DefaultDuration,
		BurstSize:     DefaultBurstSize,
		BurstInterval: DefaultBurstInterval,
	}
}

// StreamRequest is the inbound form of a stream configuration. Fields are
// pointers so an absent field and an explicit zero can be told apart:
// duration:0 is a legal request (the stream completes on its first tick),
// while a missing duration falls back to the default.
type StreamRequest struct {
	StreamName     *string  `json:"streamName"`
	Interval       *int64   `json:"interval"`
	Duration       *int64   `json:"duration"`
	ErrorRate      *float64 `json:"errorRate"`
	DuplicateRate  *float64 `json:"duplicateRate"`
	DelayVariation *int64   `json:"delayVariation"`
	BurstMode      *bool    `json:"burstMode"`
	BurstSize      *int     `json:"burstSize"`
	BurstInterval  *int64   `json:"burstInterval"`
}

// Config resolves the request against the defaults. Rates are taken as
// given, with no clamping: an errorRate above 100 simply makes every tick
// an error tick, a negative one never triggers.
func (r StreamRequest) Config() StreamConfig {
	cfg := DefaultStreamConfig()
	if r.StreamName != nil && *r.StreamName != "" {
		cfg.StreamName = *r.StreamName
	}
	if r.Interval != nil && *r.Interval > 0 {
		cfg.Interval = *r.Interval
	}
	if r.Duration != nil && *r.Duration >= 0 {
		cfg.Duration = *r.Duration
	}
	if r.ErrorRate != nil {
		cfg.ErrorRate = *r.ErrorRate
	}
	if r.DuplicateRate != nil {
		cfg.DuplicateRate = *r.DuplicateRate
	}
	if r.DelayVariation != nil && *r.DelayVariation > 0 {
		cfg.DelayVariation = *r.DelayVariation
	}
	if r.BurstMode != nil {
		cfg.BurstMode = *r.BurstMode
	}
	if r.BurstSize != nil && *r.BurstSize >= 1 {
		cfg.BurstSize = *r.BurstSize
	}
	if r.BurstInterval != nil && *r.BurstInterval > 0 {
		cfg.BurstInterval = *r.BurstInterval
	}
	return cfg
}

// Lifecycle event names broadcast to every session-channel listener.
// Payload, error and completion events are named after the stream itself,
// see ErrorEvent and CompleteEvent.
const (
	EventStreamStarted = "stream-started"
	EventStreamStopped = "stream-stopped"
	EventStreamConfigs = "stream-configs"
)

// ErrorEvent returns the error channel name for a stream.
func ErrorEvent(stream string) string { return stream + "-error" }

// CompleteEvent returns the completion channel name for a stream.
func CompleteEvent(stream string) string { return stream + "-complete" }

// StreamStarted announces a newly started stream together with its resolved
// configuration.
type StreamStarted struct {
	StreamName string       `json:"streamName"`
	Config     StreamConfig `json:"config"`
}

// StreamStopped announces an explicitly stopped stream.
type StreamStopped struct {
	StreamName string `json:"streamName"`
}

// StreamError is the payload of an injected error tick. It is a simulated
// fault broadcast as a regular event; the emitting stream keeps running.
type StreamError struct {
	Error     bool      `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// StreamComplete reports a stream that ran out its configured duration.
// Duration is the elapsed wall time in milliseconds.
type StreamComplete struct {
	StreamName     string `json:"streamName"`
	TotalEmissions int64  `json:"totalEmissions"`
	Duration       int64  `json:"duration"`
}
