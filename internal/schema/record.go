package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Keys the display dereferences unconditionally.
const (
	KeySourceURLs = "sourceUrls"
	KeyFields     = "fields"
	KeyTags       = "tags"
)

// ShapeError reports a record that lacks a key the render pass needs.
type ShapeError struct {
	Index int    // position of the record in the collection
	Bill  string // bill of the offending record, if any
	Key   string
}

func (e *ShapeError) Error() string {
	if e.Bill != "" {
		return fmt.Sprintf("record %d (%s): missing %q", e.Index, e.Bill, e.Key)
	}
	return fmt.Sprintf("record %d: missing %q", e.Index, e.Key)
}

// UnmarshalJSON decodes a record and remembers which of the nullable
// collection keys were present and non-null. No other validation is done.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	*r = Record(p)
	r.present = presence{
		decoded:    true,
		sourceURLs: nonNull(keys[KeySourceURLs]),
		fields:     nonNull(keys[KeyFields]),
		tags:       nonNull(keys[KeyTags]),
	}
	return nil
}

func nonNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

// Missing returns the first collection key the record lacks, or "".
// Records built in Go rather than decoded count a nil slice as missing.
func (r *Record) Missing() string {
	if r.present.decoded {
		switch {
		case !r.present.sourceURLs:
			return KeySourceURLs
		case !r.present.fields:
			return KeyFields
		case !r.present.tags:
			return KeyTags
		}
		return ""
	}
	switch {
	case r.SourceURLs == nil:
		return KeySourceURLs
	case r.Fields == nil:
		return KeyFields
	case r.Tags == nil:
		return KeyTags
	}
	return ""
}

// PrimarySource returns sourceUrls[0], or "" when the list is empty.
func (r Record) PrimarySource() string {
	if len(r.SourceURLs) == 0 {
		return ""
	}
	return r.SourceURLs[0]
}

// Check returns a *ShapeError for the first record that cannot be rendered.
func Check(records []Record) error {
	for i := range records {
		if key := records[i].Missing(); key != "" {
			return &ShapeError{Index: i, Bill: records[i].Bill, Key: key}
		}
	}
	return nil
}

// DecodeRecords reads a JSON array of records. The shape of each record is
// trusted; missing collection keys only surface later through Check.
func DecodeRecords(r io.Reader) ([]Record, error) {
	var records []Record
	dec := json.NewDecoder(r)
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding regulations: %w", err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}
