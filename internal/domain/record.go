package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Record is one fetched data row. Records are treated as read-only input.
type Record map[string]Value

// FieldPath locates a possibly nested field. Numeric segments index lists.
type FieldPath []string

// ParseFieldPath splits dotted text like "work_type.name".
func ParseFieldPath(text string) FieldPath {
	text = strings.TrimSpace(text)
	if text == "" {
		return FieldPath{}
	}
	return FieldPath(strings.Split(text, "."))
}

func (p FieldPath) String() string { return strings.Join(p, ".") }

func (p FieldPath) IsZero() bool { return len(p) == 0 }

// Lookup resolves a path. Missing keys, out of range indexes and
// non-container intermediates resolve to Absent.
func (r Record) Lookup(path FieldPath) Value {
	if len(path) == 0 || r == nil {
		return Absent()
	}
	current := Nested(r)
	for _, segment := range path {
		switch current.kind {
		case KindRecord:
			next, ok := current.rec[segment]
			if !ok {
				return Absent()
			}
			current = next
		case KindList:
			index, err := strconv.Atoi(segment)
			if err != nil || index < 0 || index >= len(current.list) {
				return Absent()
			}
			current = current.list[index]
		default:
			return Absent()
		}
	}
	return current
}

// Get returns the top-level field or Absent.
func (r Record) Get(key string) Value {
	if v, ok := r[key]; ok {
		return v
	}
	return Absent()
}

func (r Record) Equal(other Record) bool {
	if len(r) != len(other) {
		return false
	}
	for key, value := range r {
		otherValue, ok := other[key]
		if !ok || !value.Equal(otherValue) {
			return false
		}
	}
	return true
}

// Map converts the record into plain Go values.
func (r Record) Map() map[string]any {
	out := make(map[string]any, len(r))
	for key, value := range r {
		if value.IsAbsent() {
			continue
		}
		out[key] = value.Any()
	}
	return out
}

func (r Record) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	fields := make(map[string]Value, len(r))
	for key, value := range r {
		if value.IsAbsent() {
			continue
		}
		fields[key] = value
	}
	return json.Marshal(fields)
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var value Value
	if err := value.UnmarshalJSON(data); err != nil {
		return err
	}
	switch value.kind {
	case KindRecord:
		*r = value.rec
		return nil
	case KindNull:
		*r = nil
		return nil
	default:
		return fmt.Errorf("record must be a JSON object, got %s", value.kind)
	}
}

// RecordFromMap converts a decoded JSON object into a Record.
func RecordFromMap(fields map[string]any) Record {
	rec, _ := FromAny(fields).AsRecord()
	return rec
}

// DecodeRecords reads a JSON array of objects, or an object wrapping one
// under "data".
func DecodeRecords(r io.Reader) ([]Record, error) {
	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return []Record{}, nil
	}
	if payload[0] == '{' {
		var envelope struct {
			Data []Record `json:"data"`
		}
		if err := json.Unmarshal(payload, &envelope); err != nil {
			return nil, fmt.Errorf("decode records envelope: %w", err)
		}
		if envelope.Data == nil {
			return []Record{}, nil
		}
		return envelope.Data, nil
	}
	var records []Record
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// Collection is a fetched record set with an identity. A new identity is
// assigned every time a fetch result is accepted.
type Collection struct {
	ID      uuid.UUID
	Records []Record
}

// NewCollection assigns a fresh identity to records.
func NewCollection(records []Record) Collection {
	if records == nil {
		records = []Record{}
	}
	return Collection{ID: uuid.New(), Records: records}
}

func (c Collection) Len() int { return len(c.Records) }
