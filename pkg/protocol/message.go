// Package protocol defines the wire messages exchanged between the live
// client and the server, and the codecs that encode them.
package protocol

import (
	"fmt"
	"strconv"
	"time"
)

// Event names used on the wire.
const (
	EventJoin      = "phx_join"
	EventLeave     = "phx_leave"
	EventReply     = "phx_reply"
	EventHeartbeat = "heartbeat"
	EventDiff      = "diff"
)

// Message represents a protocol message exchanged between client and server.
type Message struct {
	// Ref is a correlation ID for request/response matching
	Ref string `json:"ref,omitempty" msgpack:"ref,omitempty"`

	// JoinRef is the join reference for the channel
	JoinRef string `json:"join_ref,omitempty" msgpack:"join_ref,omitempty"`

	// Topic is the channel this message belongs to (e.g., "lv:socket-id")
	Topic string `json:"topic" msgpack:"topic"`

	// Event is the specific event name (e.g., "select", "phx_join")
	Event string `json:"event" msgpack:"event"`

	// Payload contains the message data
	Payload map[string]any `json:"payload,omitempty" msgpack:"payload,omitempty"`

	// Timestamp is when the message was created, in Unix milliseconds
	Timestamp int64 `json:"ts,omitempty" msgpack:"ts,omitempty"`
}

// NewMessage creates a new message.
func NewMessage(topic, event string, payload map[string]any) Message {
	return Message{
		Topic:     topic,
		Event:     event,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	}
}

// WithRef adds a reference to the message.
func (m Message) WithRef(ref string) Message {
	m.Ref = ref
	return m
}

// ReplyMessage creates a reply message.
func ReplyMessage(ref, topic, status string, response map[string]any) Message {
	return NewMessage(topic, EventReply, map[string]any{
		"status":   status,
		"response": response,
	}).WithRef(ref)
}

// OkReply creates a successful reply message.
func OkReply(ref, topic string, response map[string]any) Message {
	return ReplyMessage(ref, topic, "ok", response)
}

// ErrorReply creates an error reply message.
func ErrorReply(ref, topic, reason string) Message {
	return ReplyMessage(ref, topic, "error", map[string]any{"reason": reason})
}

// PayloadString retrieves a string value from the payload.
func (m Message) PayloadString(key string) string {
	if v, ok := m.Payload[key].(string); ok {
		return v
	}
	return ""
}

// PayloadInt reads an integer from a payload. Browsers send attribute
// values as strings and msgpack narrows numbers to the smallest width, so
// every numeric kind plus decimal strings is accepted.
func PayloadInt(payload map[string]any, key string) (int, error) {
	raw, ok := payload[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %q", ErrInvalidPayload, key)
	}

	switch v := raw.(type) {
	case int:
		return v, nil
	case int8:
		return int(v), nil
	case int16:
		return int(v), nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint8:
		return int(v), nil
	case uint16:
		return int(v), nil
	case uint32:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidPayload, key)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrInvalidPayload, key, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: %q has type %T", ErrInvalidPayload, key, raw)
	}
}
