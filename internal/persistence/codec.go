package persistence

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"github.com/petrijr/stepflow/pkg/api"
)

func init() {
	// Types the engine itself sends through the codec. Workflow result
	// and payload types beyond these are the caller's responsibility.
	gob.Register(time.Duration(0))
	gob.Register(api.StepRecord{})
	gob.Register([]api.StepRecord{})
	gob.Register(api.StepConfig{})
	gob.Register(api.RetryConfig{})
	gob.Register(map[string]any{})
	gob.Register([]any{})
}

// ErrNotSerializable is returned when a value crossing the external
// boundary (a step result, run result, or event payload) cannot be
// safely copied.
var ErrNotSerializable = errors.New("value is not serializable")

// EncodeValue serializes arbitrary Go values using encoding/gob.
// Custom struct types must be registered with gob.Register by the
// caller.
func EncodeValue(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	// Encode as interface{} so payloads can be decoded back into
	// interface{} without knowing their concrete type.
	iv := v
	if err := enc.Encode(&iv); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeValue decodes a payload produced by EncodeValue into T.
func DecodeValue[T any](data []byte) (T, error) {
	var zero T
	if len(data) == 0 {
		return zero, nil
	}

	var iv any
	dec := gob.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&iv); err != nil {
		return zero, err
	}
	v, ok := iv.(T)
	if !ok {
		return zero, fmt.Errorf("gob: decoded payload of type %T not assignable to target", iv)
	}
	return v, nil
}

// CheckSerializable verifies that v survives a serialization attempt,
// without keeping the encoded bytes. It is the runtime copy-check for
// values that cross the engine's external boundary; a failure wraps
// ErrNotSerializable.
func CheckSerializable(v any) error {
	if v == nil {
		return nil
	}
	if _, err := EncodeValue(v); err != nil {
		return fmt.Errorf("%w: %v", ErrNotSerializable, err)
	}
	return nil
}
