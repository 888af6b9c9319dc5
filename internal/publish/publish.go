package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"ecdrivers/internal/config"
	"ecdrivers/internal/console"
)

const publishTimeout = 2 * time.Second

// client is the part of mqtt.Client the publisher uses.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// Publisher sends matrix snapshots to an MQTT broker as JSON.
type Publisher struct {
	client client
	topic  string
	qos    byte
	logger *zap.Logger
}

// Dial connects to the broker named in cfg.
func Dial(cfg config.MQTT, logger *zap.Logger) (*Publisher, error) {
	opts := mqtt.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.SetKeepAlive(2 * time.Second)
	opts.SetPingTimeout(1 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", zap.Error(err))
	})

	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Broker, token.Error())
	}
	logger.Info("Connected to broker", zap.String("broker", cfg.Broker), zap.String("topic", cfg.Topic))

	return newPublisher(c, cfg, logger), nil
}

func newPublisher(c client, cfg config.MQTT, logger *zap.Logger) *Publisher {
	return &Publisher{client: c, topic: cfg.Topic, qos: cfg.QoS, logger: logger}
}

// payload is the JSON form of a snapshot. Rows are widened so they encode
// as arrays of numbers; []uint8 would encode as base64 strings.
type payload struct {
	ScanRate uint16     `json:"scan_rate"`
	Raw      [][]uint16 `json:"raw"`
	At       time.Time  `json:"at"`
}

func newPayload(s console.Snapshot) payload {
	raw := make([][]uint16, len(s.Raw))
	for r, row := range s.Raw {
		raw[r] = make([]uint16, len(row))
		for c, v := range row {
			raw[r][c] = uint16(v)
		}
	}
	return payload{ScanRate: s.ScanRate, Raw: raw, At: s.At}
}

// Publish sends one snapshot and waits for the broker to accept it.
func (p *Publisher) Publish(s console.Snapshot) error {
	msg, err := json.Marshal(newPayload(s))
	if err != nil {
		return err
	}
	token := p.client.Publish(p.topic, p.qos, false, msg)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timed out", p.topic)
	}
	return token.Error()
}

// Run publishes every snapshot from in until ctx ends or in is closed.
// Failed publishes are logged and skipped.
func (p *Publisher) Run(ctx context.Context, in <-chan console.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-in:
			if !ok {
				return
			}
			if err := p.Publish(s); err != nil {
				p.logger.Warn("Failed to publish snapshot", zap.Error(err))
			}
		}
	}
}

func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
