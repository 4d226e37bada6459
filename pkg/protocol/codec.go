package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Common codec errors.
var (
	ErrInvalidMessage = errors.New("invalid message format")
	ErrInvalidPayload = errors.New("invalid payload")
	ErrUnknownCodec   = errors.New("unknown codec")
)

// Codec handles message encoding/decoding.
type Codec interface {
	// Encode serializes a message to bytes.
	Encode(msg Message) ([]byte, error)

	// Decode deserializes bytes to a message.
	Decode(data []byte) (Message, error)

	// Name returns the codec name, as used in the vsn query parameter.
	Name() string

	// Binary reports whether frames must be sent as binary.
	Binary() bool
}

// JSONCodec implements Codec using JSON encoding.
// This is what the browser client speaks.
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Encode encodes a message to JSON.
func (c *JSONCodec) Encode(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// Decode decodes JSON to a message.
func (c *JSONCodec) Decode(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if msg.Event == "" {
		return Message{}, fmt.Errorf("%w: missing event", ErrInvalidMessage)
	}
	return msg, nil
}

// Name returns "json".
func (c *JSONCodec) Name() string {
	return "json"
}

// Binary returns false.
func (c *JSONCodec) Binary() bool {
	return false
}

// MsgPackCodec implements Codec using MessagePack encoding.
// More compact for non-browser clients.
type MsgPackCodec struct{}

// NewMsgPackCodec creates a new MsgPack codec.
func NewMsgPackCodec() *MsgPackCodec {
	return &MsgPackCodec{}
}

// Encode encodes a message to MsgPack.
func (c *MsgPackCodec) Encode(msg Message) ([]byte, error) {
	return msgpack.Marshal(&msg)
}

// Decode decodes MsgPack to a message.
func (c *MsgPackCodec) Decode(data []byte) (Message, error) {
	var msg Message
	if err := msgpack.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if msg.Event == "" {
		return Message{}, fmt.Errorf("%w: missing event", ErrInvalidMessage)
	}
	return msg, nil
}

// Name returns "msgpack".
func (c *MsgPackCodec) Name() string {
	return "msgpack"
}

// Binary returns true.
func (c *MsgPackCodec) Binary() bool {
	return true
}

// CodecFor returns the codec for a vsn query value. An empty value
// selects JSON.
func CodecFor(vsn string) (Codec, error) {
	switch vsn {
	case "", "json":
		return NewJSONCodec(), nil
	case "msgpack":
		return NewMsgPackCodec(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, vsn)
	}
}
