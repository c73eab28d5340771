package models

import (
	"bytes"
	"encoding/json"
)

// UnmarshalJSON decodes a build strictly at the top level. Sub-builds are decoded
// field by field: a field of the wrong type is left at its zero value and an entry
// that is not an object is dropped, so one odd sub-build never fails the record.
func (b *Build) UnmarshalJSON(data []byte) error {
	type plain Build
	var raw struct {
		plain
		SubBuilds []json.RawMessage `json:"subBuilds"`
		Nested    json.RawMessage   `json:"build"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = Build(raw.plain)
	b.SubBuilds = decodeSubBuilds(raw.SubBuilds)
	b.Nested = nil
	if nested, ok := decodeSubBuild(raw.Nested); ok {
		b.Nested = &nested
	}
	return nil
}

func decodeSubBuilds(items []json.RawMessage) []Build {
	var out []Build
	for _, item := range items {
		if sub, ok := decodeSubBuild(item); ok {
			out = append(out, sub)
		}
	}
	return out
}

func decodeSubBuild(data json.RawMessage) (Build, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Build{}, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Build{}, false
	}

	var b Build
	decodeField(fields, "number", &b.Number)
	decodeField(fields, "url", &b.URL)
	decodeField(fields, "timestamp", &b.Timestamp)
	decodeField(fields, "duration", &b.Duration)
	decodeField(fields, "result", &b.Result)
	decodeField(fields, "building", &b.Building)
	decodeField(fields, "description", &b.Description)
	decodeField(fields, "jobName", &b.JobName)

	var items []json.RawMessage
	decodeField(fields, "subBuilds", &items)
	b.SubBuilds = decodeSubBuilds(items)
	if nested, ok := decodeSubBuild(fields["build"]); ok {
		b.Nested = &nested
	}
	return b, true
}

// decodeField sets dest only when the named field decodes cleanly.
func decodeField[T any](fields map[string]json.RawMessage, name string, dest *T) {
	raw, ok := fields[name]
	if !ok {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err == nil {
		*dest = v
	}
}
