package telemetry

import "log"

// queuedMsg is a serialized MQTT message held for replay once the broker is
// reachable again.
type queuedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox is a fixed-capacity FIFO of messages queued while disconnected.
// Beyond capacity the oldest message is overwritten; advisory history loses
// value fast, so keeping the newest is the right trade.
// Not safe for concurrent use; the publisher synchronizes access.
type outbox struct {
	msgs    []queuedMsg
	next    int // next write slot
	queued  int
	dropped bool // a message was lost since the last drain
}

func newOutbox(capacity int) *outbox {
	return &outbox{msgs: make([]queuedMsg, capacity)}
}

func (o *outbox) add(msg queuedMsg) {
	if o.queued == len(o.msgs) {
		if !o.dropped {
			log.Printf("telemetry: outbox full (%d messages), overwriting oldest", len(o.msgs))
			o.dropped = true
		}
		// next already points at the oldest slot; queued stays at capacity.
		o.msgs[o.next] = msg
		o.next = (o.next + 1) % len(o.msgs)
		return
	}
	o.msgs[o.next] = msg
	o.next = (o.next + 1) % len(o.msgs)
	o.queued++
}

// drain returns the queued messages oldest-first and resets the outbox.
func (o *outbox) drain() []queuedMsg {
	if o.queued == 0 {
		return nil
	}

	out := make([]queuedMsg, o.queued)
	oldest := (o.next - o.queued + len(o.msgs)) % len(o.msgs)
	for i := range out {
		out[i] = o.msgs[(oldest+i)%len(o.msgs)]
	}

	o.queued = 0
	o.next = 0
	o.dropped = false
	return out
}

func (o *outbox) len() int { return o.queued }
