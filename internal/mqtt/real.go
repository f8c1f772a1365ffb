package mqtt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/leak-sensor/internal/logger"
)

const (
	// bufferCapacity bounds the offline queue.
	bufferCapacity = 64

	connectWait    = 10 * time.Second
	publishWait    = 5 * time.Second
	retryInterval  = 5 * time.Second
	maxReconnect   = 2 * time.Minute
	disconnectWait = 1000 // milliseconds
)

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the connection is down are buffered and replayed on (re)connect.
type RealPublisher struct {
	ctx    context.Context
	client paho.Client

	mu  sync.Mutex
	buf *ringBuffer
}

// NewRealPublisher creates a publisher for broker. If the broker is not
// reachable within the connect timeout, the publisher is still returned and
// paho keeps retrying with backoff in the background.
func NewRealPublisher(ctx context.Context, broker, clientID string) (*RealPublisher, error) {
	ctx = logger.WithName(ctx, "mqtt")
	p := &RealPublisher{
		ctx: ctx,
		buf: newRingBuffer(bufferCapacity),
	}

	will, err := FormatSystemPayload(SystemEvent{Event: "OFFLINE"})
	if err != nil {
		return nil, fmt.Errorf("format will: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(retryInterval).
		SetMaxReconnectInterval(maxReconnect).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.WarnKV(ctx, "connection lost", "error", err)
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(connectWait) {
		logger.WarnKV(ctx, "broker not reachable yet, buffering until connected", "broker", broker)
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

// Publish sends a leak event to the MQTT broker.
func (p *RealPublisher) Publish(event Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 1: an alert should survive a flaky link.
	return p.publish(Topic, 1, false, payload)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	return p.publish(TopicSystem, 1, event.Retained, payload)
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	p.mu.Lock()
	if !p.client.IsConnectionOpen() {
		if p.buf.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained}) {
			logger.WarnKV(p.ctx, "offline buffer full, dropped oldest", "capacity", bufferCapacity)
		}
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishWait) {
		return errors.New("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	return nil
}

// onConnect replays buffered messages. paho runs it on its own goroutine.
func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	msgs, dropped := p.buf.drainAll()
	p.mu.Unlock()

	logger.InfoKV(p.ctx, "connected", "replaying", len(msgs), "dropped", dropped)
	if failed := p.replay(c, msgs); failed > 0 {
		logger.WarnKV(p.ctx, "replay incomplete", "failed", failed, "total", len(msgs))
	}
}

// replay publishes msgs in order and returns how many did not go through.
// Failed messages are logged and not buffered again.
func (p *RealPublisher) replay(c paho.Client, msgs []bufferedMsg) int {
	failed := 0
	for _, m := range msgs {
		token := c.Publish(m.topic, m.qos, m.retained, m.payload)
		if !token.WaitTimeout(publishWait) {
			failed++
			logger.WarnKV(p.ctx, "replay timeout", "topic", m.topic)
			continue
		}
		if err := token.Error(); err != nil {
			failed++
			logger.WarnKV(p.ctx, "replay failed", "topic", m.topic, "error", err)
		}
	}
	return failed
}

// IsConnected reports whether the client currently has an open connection.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(disconnectWait)
	return nil
}
