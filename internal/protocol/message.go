package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TypeHello is the handshake message type reported by the unit.
const TypeHello = "hello_arduino"

// ackPrefix marks command acknowledgements (ack_set_interval, ...).
const ackPrefix = "ack_"

// Kind classifies a parsed message.
type Kind int

const (
	// KindUnknown covers messages with a recognized shape problem: a typed
	// message without an identifier, or an unrecognized type.
	KindUnknown Kind = iota
	KindHello
	KindAck
	KindSensor
)

// Message is one inbound record decoded from the stream. Metric fields are
// all optional; a nil pointer means the field was absent.
type Message struct {
	Type       string `json:"type"`
	HardwareID string `json:"hardwareId"`

	Temperature  *float64 `json:"temperature"`
	AirHumidity  *float64 `json:"airHumidity"`
	SoilHumidity *float64 `json:"soilHumidity"`
	LightLevel   *float64 `json:"lightLevel"`
	WaterLevel   *float64 `json:"waterLevel"`
	PH           *float64 `json:"ph"`

	// Raw is the framed record the message was decoded from, kept for
	// acknowledgement logging.
	Raw string `json:"-"`
}

// Parse decodes one framed record. A failure is non-fatal to the stream; the
// caller logs and drops the record.
func Parse(record string) (Message, error) {
	var msg Message
	if err := json.Unmarshal([]byte(record), &msg); err != nil {
		return Message{}, fmt.Errorf("malformed message: %w", err)
	}
	msg.Raw = record
	return msg, nil
}

// Classify determines how a parsed message is routed:
// hello → device resolution + configuration sync, ack → session log,
// untyped with an identifier → sensor payload, anything else → dropped.
func (m Message) Classify() Kind {
	switch {
	case m.Type == TypeHello:
		if m.HardwareID == "" {
			return KindUnknown
		}
		return KindHello
	case strings.HasPrefix(m.Type, ackPrefix):
		if m.HardwareID == "" {
			return KindUnknown
		}
		return KindAck
	case m.Type == "" && m.HardwareID != "":
		return KindSensor
	default:
		return KindUnknown
	}
}

// AckCommand returns the command name echoed by an acknowledgement.
func (m Message) AckCommand() string {
	return strings.TrimPrefix(m.Type, ackPrefix)
}
