package telemetry

import (
	"log"
	"time"

	"github.com/RonishNadar/mta-train-updates/internal/leavetime"
)

// Observer publishes an advisory event only when the favorite's advisory
// state changes, so the broker sees transitions rather than a 1Hz stream.
type Observer struct {
	pub Publisher
	now func() time.Time

	lastKey   string
	lastState leavetime.State
}

// NewObserver creates an Observer in front of the publisher.
func NewObserver(pub Publisher, now func() time.Time) *Observer {
	return &Observer{pub: pub, now: now}
}

// Observe is called from the UI goroutine on every home render. Only state
// transitions (or a favorite change) produce a publish; failures are logged
// and absorbed.
func (o *Observer) Observe(stationKey string, adv leavetime.Advisory) {
	if stationKey == o.lastKey && adv.State == o.lastState {
		return
	}
	o.lastKey = stationKey
	o.lastState = adv.State

	event := AdvisoryEvent{
		Timestamp:  o.now(),
		StationKey: stationKey,
		State:      string(adv.State),
		LeaveInMin: adv.LeaveIn,
		Route:      adv.Train.Route,
	}
	if err := o.pub.PublishAdvisory(event); err != nil {
		log.Printf("telemetry: advisory publish: %v", err)
	}
}
