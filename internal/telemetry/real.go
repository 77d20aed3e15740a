package telemetry

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// outboxCap bounds how many messages are held while the broker is down.
const outboxCap = 32

// RealPublisher publishes to an actual MQTT broker. While the broker is
// unreachable, messages queue in a fixed-capacity outbox and replay on
// reconnect.
type RealPublisher struct {
	client  paho.Client
	session string

	mu  sync.Mutex
	out *outbox
}

// NewRealPublisher creates a publisher for the given broker. The initial
// connect is attempted synchronously but a slow or absent broker is not
// fatal: paho keeps retrying and queued messages replay on connect.
func NewRealPublisher(broker, sessionID string) (*RealPublisher, error) {
	p := &RealPublisher{
		session: sessionID,
		out:     newOutbox(outboxCap),
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("mta-display-" + sessionID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(paho.Client) { p.replay() })

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if token.WaitTimeout(10 * time.Second) {
		if err := token.Error(); err != nil {
			return nil, fmt.Errorf("connect to broker: %w", err)
		}
	}
	return p, nil
}

// PublishAdvisory sends an advisory transition at QoS 0.
func (p *RealPublisher) PublishAdvisory(event AdvisoryEvent) error {
	payload, err := FormatAdvisoryPayload(event, p.session)
	if err != nil {
		return fmt.Errorf("format advisory payload: %w", err)
	}
	return p.publish(TopicAdvisory, payload, 0, false)
}

// PublishSystem sends a lifecycle event at QoS 1 - startup and shutdown
// should survive a flaky link.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event, p.session)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(TopicSystem, payload, 1, event.Retained)
}

func (p *RealPublisher) publish(topic string, payload []byte, qos byte, retained bool) error {
	if !p.client.IsConnected() {
		p.mu.Lock()
		p.out.add(queuedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		n := p.out.len()
		p.mu.Unlock()
		return fmt.Errorf("broker unreachable, queued (%d waiting)", n)
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// replay flushes the outbox after a (re)connect.
func (p *RealPublisher) replay() {
	p.mu.Lock()
	msgs := p.out.drain()
	p.mu.Unlock()

	for _, m := range msgs {
		token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
		token.WaitTimeout(5 * time.Second)
	}
}

// IsConnected reports the broker connection state.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}

// NopPublisher discards everything; used when telemetry is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishAdvisory(AdvisoryEvent) error { return nil }
func (NopPublisher) PublishSystem(SystemEvent) error     { return nil }
func (NopPublisher) Close() error                        { return nil }
