package models

import (
	"encoding/json"
	"fmt"
)

// DataValue is the payload that flows along graph edges. It is a closed union:
// either a binary Blob or a tabular Record. The routing engine only reads it;
// producing and mutating payloads is the job of the upstream processors.
type DataValue interface {
	dataValue()
}

// Blob is a binary payload, typically a file handed over by an ingestion or
// transform node. Data may be nil when the bytes live in object storage and
// only Size is known.
type Blob struct {
	Path        string            `json:"path"`
	ContentType string            `json:"content_type"`
	Size        int64             `json:"size"`
	Data        []byte            `json:"data,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

func (Blob) dataValue() {}

// ByteSize returns the blob's length in bytes, preferring the in-memory data
// over the declared size.
func (b Blob) ByteSize() int64 {
	if b.Data != nil {
		return int64(len(b.Data))
	}

	return b.Size
}

// Record is a tabular payload: one row of named columns, typically produced by
// a structured-extraction stage.
type Record struct {
	Columns map[string]any `json:"columns"`
}

func (Record) dataValue() {}

// MarshalDataValue serializes a payload with a "kind" discriminator so it can
// travel through queues and event streams.
func MarshalDataValue(v DataValue) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("cannot marshal nil data value")
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, err
	}

	switch v.(type) {
	case Blob:
		fields["kind"] = json.RawMessage(`"blob"`)
	case Record:
		fields["kind"] = json.RawMessage(`"record"`)
	default:
		return nil, fmt.Errorf("unknown data value type %T", v)
	}

	return json.Marshal(fields)
}

// UnmarshalDataValue is the inverse of MarshalDataValue.
func UnmarshalDataValue(data []byte) (DataValue, error) {
	var probe struct {
		Kind string `json:"kind"`
	}

	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}

	switch probe.Kind {
	case "blob":
		var blob Blob
		if err := json.Unmarshal(data, &blob); err != nil {
			return nil, err
		}

		return blob, nil
	case "record":
		var record Record
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, err
		}

		return record, nil
	default:
		return nil, fmt.Errorf("unknown data value kind %q", probe.Kind)
	}
}
