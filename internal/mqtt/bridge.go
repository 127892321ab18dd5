// Package mqtt bridges units that report over MQTT instead of the stream
// transport into the same ingestion pipeline. Payloads are the same
// sensor-payload JSON objects the line protocol carries.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/Preko700/GreenView-sub000/config"
	"github.com/Preko700/GreenView-sub000/internal/ingest"
	"github.com/Preko700/GreenView-sub000/internal/store"
)

// Bridge subscribes to the readings topic and feeds payloads to ingestion.
type Bridge struct {
	client paho.Client
	cfg    *config.MQTTConfig
	ingest *ingest.Service
}

// NewBridge connects to the broker. The returned bridge is not yet
// subscribed; call Start.
func NewBridge(cfg *config.MQTTConfig, ing *ingest.Service) (*Bridge, error) {
	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &Bridge{client: client, cfg: cfg, ingest: ing}, nil
}

// Start subscribes to the configured topic.
func (b *Bridge) Start(ctx context.Context) error {
	handler := func(_ paho.Client, msg paho.Message) {
		b.handle(ctx, msg.Topic(), msg.Payload())
	}
	if token := b.client.Subscribe(b.cfg.Topic, byte(b.cfg.QoS), handler); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", b.cfg.Topic, token.Error())
	}
	log.Printf("mqtt: subscribed to %s", b.cfg.Topic)
	return nil
}

// Stop disconnects from the broker.
func (b *Bridge) Stop() {
	b.client.Disconnect(250)
}

func (b *Bridge) handle(ctx context.Context, topic string, payload []byte) {
	var item store.ReadingItem
	if err := json.Unmarshal(payload, &item); err != nil {
		log.Printf("mqtt: dropping malformed payload on %s: %v", topic, err)
		return
	}
	if item.HardwareID == "" {
		log.Printf("mqtt: dropping payload on %s without hardwareId", topic)
		return
	}

	res, err := b.ingest.Ingest(ctx, []store.ReadingItem{item})
	if err != nil {
		log.Printf("mqtt: failed to ingest payload from %s: %v", item.HardwareID, err)
		return
	}
	for _, rej := range res.Rejected {
		log.Printf("mqtt: payload from %s rejected: %s", item.HardwareID, rej.Reason)
	}
}
