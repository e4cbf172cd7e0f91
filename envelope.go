package goAuthClient

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Envelope is the canonical response shape. The server nests payloads under
// varying keys depending on the handler generation ("data", "result",
// "payload", or none at all); normalization happens once here, at the
// boundary, so the rest of the engine never branches on body shape.
type Envelope struct {
	// Success mirrors the server's success flag; true when the flag is
	// absent, since older handlers signal failure by status code alone.
	Success bool
	// Message is the human-readable message or error text, if any.
	Message string
	// Data is the normalized payload.
	Data json.RawMessage
}

type rawEnvelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
	Result  json.RawMessage `json:"result"`
	Payload json.RawMessage `json:"payload"`
}

// ParseEnvelope normalizes a JSON response body. An empty body yields an
// empty successful envelope; a non-object body (array, bare string) is kept
// verbatim as the payload.
func ParseEnvelope(body []byte) (*Envelope, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return &Envelope{Success: true}, nil
	}

	if trimmed[0] != '{' {
		if !json.Valid(trimmed) {
			return nil, fmt.Errorf("%w: not valid JSON", ErrEnvelopeInvalid)
		}
		return &Envelope{Success: true, Data: append(json.RawMessage(nil), trimmed...)}, nil
	}

	var raw rawEnvelope
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnvelopeInvalid, err)
	}

	env := &Envelope{Success: true, Message: raw.Message}
	if raw.Success != nil {
		env.Success = *raw.Success
	}
	if env.Message == "" {
		env.Message = raw.Error
	}

	switch {
	case len(raw.Data) > 0 && !bytes.Equal(raw.Data, []byte("null")):
		env.Data = raw.Data
	case len(raw.Result) > 0 && !bytes.Equal(raw.Result, []byte("null")):
		env.Data = raw.Result
	case len(raw.Payload) > 0 && !bytes.Equal(raw.Payload, []byte("null")):
		env.Data = raw.Payload
	default:
		// No recognized nesting key: the object itself is the payload.
		env.Data = append(json.RawMessage(nil), trimmed...)
	}

	return env, nil
}

// Bind unmarshals the normalized payload into v.
func (e *Envelope) Bind(v any) error {
	if e == nil || len(e.Data) == 0 {
		return fmt.Errorf("%w: empty payload", ErrEnvelopeInvalid)
	}
	return json.Unmarshal(e.Data, v)
}

// Envelope parses the response body into the canonical envelope.
func (r *APIResponse) Envelope() (*Envelope, error) {
	if r == nil {
		return nil, ErrEnvelopeInvalid
	}
	return ParseEnvelope(r.Body)
}
