// Package leavetime decides when the rider should leave for the favorite
// station. It is pure logic: no I/O, no clocks, only values in and out.
package leavetime

import (
	"time"

	"github.com/RonishNadar/mta-train-updates/internal/state"
	"github.com/RonishNadar/mta-train-updates/internal/transit"
)

// State classifies the advisory outcome.
type State string

const (
	// StateNoData means no usable arrival data exists for the station.
	StateNoData State = "NO_DATA"
	// StateStale means data exists but has aged past the freshness threshold.
	// A numeric countdown must never be shown in this state.
	StateStale State = "STALE"
	// StateNoFeasibleTrain means data is fresh but no arrival leaves enough
	// time to walk to the station.
	StateNoFeasibleTrain State = "NO_FEASIBLE_TRAIN"
	// StateCatchable means Train can still be caught; leave in LeaveIn minutes.
	StateCatchable State = "CATCHABLE"
)

// Advisory is the leave-time decision for one station.
type Advisory struct {
	State State
	// LeaveIn is whole minutes until the rider must leave; 0 means leave now.
	// Only meaningful when State is StateCatchable.
	LeaveIn int
	// Train is the chosen arrival when State is StateCatchable.
	Train transit.Arrival
}

// Evaluate computes the advisory for a station snapshot.
//
// The earliest arrival whose ETA leaves at least leaveBuffer of walking time
// is chosen; anything sooner is a train the rider cannot make and is skipped.
// maxAge is the snapshot staleness threshold.
func Evaluate(now time.Time, snap state.ArrivalSnapshot, leaveBuffer, maxAge time.Duration) Advisory {
	if snap.NeverFetched() {
		return Advisory{State: StateNoData}
	}
	if snap.Stale(now, maxAge) {
		return Advisory{State: StateStale}
	}
	if len(snap.Arrivals) == 0 {
		return Advisory{State: StateNoData}
	}

	for _, a := range snap.Arrivals {
		until := a.ETA.Sub(now)
		if until <= 0 {
			continue
		}
		if until < leaveBuffer {
			// The rider cannot make this one; advise toward the next.
			continue
		}

		leaveIn := int((until - leaveBuffer) / time.Minute)
		if leaveIn < 0 {
			leaveIn = 0
		}
		return Advisory{State: StateCatchable, LeaveIn: leaveIn, Train: a}
	}

	return Advisory{State: StateNoFeasibleTrain}
}
