// Package telemetry publishes advisory transitions and lifecycle events to
// MQTT so home-automation consumers can react to them. Publishing failures
// are absorbed by callers; the display never depends on the broker.
package telemetry

import (
	"encoding/json"
	"time"
)

// TopicAdvisory carries leave-time advisory transitions.
const TopicAdvisory = "transit/display/advisory"

// TopicSystem carries system lifecycle events.
const TopicSystem = "transit/display/system"

// Publisher publishes display events to MQTT.
type Publisher interface {
	// PublishAdvisory sends an advisory transition. Returns an error if
	// publishing fails (must not crash the process).
	PublishAdvisory(event AdvisoryEvent) error

	// PublishSystem sends a system lifecycle event.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// AdvisoryEvent is an advisory state transition for the favorite station.
type AdvisoryEvent struct {
	Timestamp  time.Time
	StationKey string
	State      string // CATCHABLE, NO_FEASIBLE_TRAIN, STALE, NO_DATA
	LeaveInMin int    // meaningful only for CATCHABLE
	Route      string
}

// SystemEvent is a lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp time.Time
	Event     string // "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason    string // e.g. "SIGTERM" (shutdown only)
	Retained  bool
}

// advisoryPayload is the MQTT message structure for advisory events.
type advisoryPayload struct {
	Advisory advisoryInner `json:"advisory"`
}

type advisoryInner struct {
	Timestamp  string `json:"timestamp"`
	Session    string `json:"session"`
	StationKey string `json:"station_key"`
	State      string `json:"state"`
	LeaveInMin *int   `json:"leave_in_min,omitempty"`
	Route      string `json:"route,omitempty"`
}

// FormatAdvisoryPayload creates the JSON payload for an advisory event.
// The session ID identifies one boot of the display.
func FormatAdvisoryPayload(event AdvisoryEvent, sessionID string) ([]byte, error) {
	inner := advisoryInner{
		Timestamp:  event.Timestamp.UTC().Format(time.RFC3339),
		Session:    sessionID,
		StationKey: event.StationKey,
		State:      event.State,
		Route:      event.Route,
	}
	if event.State == "CATCHABLE" {
		leaveIn := event.LeaveInMin
		inner.LeaveInMin = &leaveIn
	}
	return json.Marshal(advisoryPayload{Advisory: inner})
}

// systemPayload is the MQTT message structure for system events.
type systemPayload struct {
	System systemInner `json:"system"`
}

type systemInner struct {
	Timestamp string `json:"timestamp"`
	Session   string `json:"session"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
func FormatSystemPayload(event SystemEvent, sessionID string) ([]byte, error) {
	return json.Marshal(systemPayload{
		System: systemInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Session:   sessionID,
			Event:     event.Event,
			Reason:    event.Reason,
		},
	})
}
