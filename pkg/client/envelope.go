package client

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
)

// Meta describes envelope members that sit next to data.
type Meta struct {
	// Cached is true when the gateway served the payload from its own cache.
	Cached bool
	// Extra holds the raw value of sibling members requested via DecodeEnvelope.
	Extra map[string]json.RawMessage
}

// DecodeEnvelope unwraps {success, data, cached?} and decodes data into dst.
// A missing success or data member is ErrEnvelopeShape; success:false is
// ErrEnvelopeFailed. Unknown members are ignored. Members named in extra are
// returned raw in Meta.Extra.
func DecodeEnvelope(body []byte, dst any, extra ...string) (Meta, error) {
	var meta Meta

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return meta, fmt.Errorf("%w: body is not a JSON object", ErrEnvelopeShape)
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &members); err != nil {
		return meta, fmt.Errorf("%w: %v", ErrEnvelopeShape, err)
	}

	rawSuccess, ok := members["success"]
	if !ok {
		return meta, fmt.Errorf("%w: missing success member", ErrEnvelopeShape)
	}
	var success bool
	if err := json.Unmarshal(rawSuccess, &success); err != nil {
		return meta, fmt.Errorf("%w: success is not a boolean", ErrEnvelopeShape)
	}

	if rawCached, ok := members["cached"]; ok {
		// cached is advisory; a non-boolean value is ignored
		_ = json.Unmarshal(rawCached, &meta.Cached)
	}

	if !success {
		var message string
		if rawMsg, ok := members["message"]; ok {
			_ = json.Unmarshal(rawMsg, &message)
		}
		if message != "" {
			return meta, fmt.Errorf("%w: %s", ErrEnvelopeFailed, message)
		}
		return meta, ErrEnvelopeFailed
	}

	rawData, ok := members["data"]
	if !ok {
		return meta, fmt.Errorf("%w: missing data member", ErrEnvelopeShape)
	}

	if len(extra) > 0 {
		meta.Extra = make(map[string]json.RawMessage, len(extra))
		for _, name := range extra {
			if raw, ok := members[name]; ok {
				meta.Extra[name] = raw
			}
		}
	}

	if dst == nil || len(rawData) == 0 || bytes.Equal(bytes.TrimSpace(rawData), []byte("null")) {
		return meta, nil
	}
	if err := json.Unmarshal(rawData, dst); err != nil {
		return meta, fmt.Errorf("%w: decode data: %v", ErrEnvelopeShape, err)
	}
	return meta, nil
}

// envelopeSucceeded reports whether body is a well-formed envelope with
// success:true.
func envelopeSucceeded(body []byte) bool {
	_, err := DecodeEnvelope(body, nil)
	return err == nil
}
