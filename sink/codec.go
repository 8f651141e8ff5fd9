package sink

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Encoding selects the wire format for external sinks.
type Encoding string

const (
	// EncodingJSON encodes messages as JSON objects.
	EncodingJSON Encoding = "json"
	// EncodingMsgpack encodes messages as MessagePack maps.
	EncodingMsgpack Encoding = "msgpack"
)

// ParseEncoding validates s. An empty string selects JSON.
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(s) {
	case "", EncodingJSON:
		return EncodingJSON, nil
	case EncodingMsgpack:
		return EncodingMsgpack, nil
	default:
		return "", fmt.Errorf("unknown sink encoding %q (want json or msgpack)", s)
	}
}

// ContentType returns the HTTP content type for the encoding.
func (e Encoding) ContentType() string {
	if e == EncodingMsgpack {
		return "application/msgpack"
	}
	return "application/json"
}

// Encode serializes msg.
func Encode(e Encoding, msg Message) ([]byte, error) {
	switch e {
	case EncodingMsgpack:
		data, err := msgpack.Marshal(msg)
		if err != nil {
			return nil, fmt.Errorf("msgpack encode %s: %w", msg.Event, err)
		}
		return data, nil
	case "", EncodingJSON:
		data, err := json.Marshal(msg)
		if err != nil {
			return nil, fmt.Errorf("json encode %s: %w", msg.Event, err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unknown sink encoding %q", e)
	}
}
