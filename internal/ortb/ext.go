package ortb

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrExtNotObject is returned when an existing ext value is present but is not
// a JSON object, so a key cannot be merged into it.
var ErrExtNotObject = errors.New("ext is not a JSON object")

// SetExtField returns ext with key set to value. Other keys are preserved.
// An empty ext starts a new object; an ext that is not a JSON object is
// returned unchanged together with ErrExtNotObject.
func SetExtField(ext json.RawMessage, key string, value any) (json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if trimmed := bytes.TrimSpace(ext); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		if trimmed[0] != '{' {
			return ext, ErrExtNotObject
		}
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return ext, ErrExtNotObject
		}
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return ext, err
	}
	fields[key] = raw

	out, err := json.Marshal(fields)
	if err != nil {
		return ext, err
	}
	return out, nil
}
