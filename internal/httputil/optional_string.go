package httputil

import (
	"bytes"
	"encoding/json"
)

// OptionalString is a PATCH field that distinguishes absent from null:
//   - Present=false: field absent from JSON (keep current)
//   - Present=true, Value=nil: field is JSON null (clear)
//   - Present=true, Value=&"x": field has a value
type OptionalString struct {
	Present bool
	Value   *string
}

// UnmarshalJSON is only called for fields present in the document
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Present = true

	if string(bytes.TrimSpace(data)) == "null" {
		o.Value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// Resolve applies the field to current. An empty string clears like null.
func (o OptionalString) Resolve(current *string) *string {
	if !o.Present {
		return current
	}
	if o.Value == nil || *o.Value == "" {
		return nil
	}
	return o.Value
}
