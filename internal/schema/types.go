package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record is one regulatory item of regulations.json.
type Record struct {
	ID           string   `json:"id,omitempty"`
	Bill         string   `json:"bill"`
	Jurisdiction string   `json:"jurisdiction"`
	Docket       string   `json:"docket"`
	Status       string   `json:"status"`
	Confidence   Score    `json:"confidence"`
	LastUpdated  string   `json:"lastUpdated"`
	SourceURLs   []string `json:"sourceUrls"`
	Fields       Fields   `json:"fields"`
	Tags         []Tag    `json:"tags"`

	// present records which nullable keys were found in the decoded document.
	present presence
}

type presence struct {
	decoded    bool
	sourceURLs bool
	fields     bool
	tags       bool
}

// FieldValue is a single extracted answer with its confidence.
type FieldValue struct {
	Answer     string `json:"answer"`
	Confidence Score  `json:"confidence"`
}

// Field is a named FieldValue. Fields keeps them in document order.
type Field struct {
	Name  string
	Value FieldValue
}

// Fields is an insertion-ordered mapping of field name to FieldValue.
type Fields []Field

// Get returns the value stored under name.
func (f Fields) Get(name string) (FieldValue, bool) {
	for _, e := range f {
		if e.Name == name {
			return e.Value, true
		}
	}
	return FieldValue{}, false
}

// Set replaces the value under name, or appends it when name is new.
func (f *Fields) Set(name string, v FieldValue) {
	for i := range *f {
		if (*f)[i].Name == name {
			(*f)[i].Value = v
			return
		}
	}
	*f = append(*f, Field{Name: name, Value: v})
}

// MarshalJSON writes the fields as a JSON object in slice order.
func (f Fields) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeCompact(&buf, e.Name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := encodeCompact(&buf, e.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeCompact writes v without HTML escaping or a trailing newline.
func encodeCompact(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1)
	return nil
}

// UnmarshalJSON reads a JSON object and keeps its keys in document order.
// A repeated key keeps its first position and its last value.
func (f *Fields) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("fields: expected object, got %v", tok)
	}
	out := Fields{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("fields: expected key, got %v", tok)
		}
		var v FieldValue
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("fields: %q: %w", name, err)
		}
		out.Set(name, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*f = out
	return nil
}

// Tag is a (text, category) pair, encoded as a two-element JSON array.
type Tag struct {
	Text     string
	Category string
}

func (t Tag) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{t.Text, t.Category})
}

// UnmarshalJSON reads [text, category]. Missing elements are empty and
// extra ones are ignored; non-string elements keep their JSON text.
func (t *Tag) UnmarshalJSON(data []byte) error {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return fmt.Errorf("tag: %w", err)
	}
	var pair [2]string
	for i := 0; i < len(elems) && i < len(pair); i++ {
		pair[i] = tagElem(elems[i])
	}
	t.Text, t.Category = pair[0], pair[1]
	return nil
}

func tagElem(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// Score is a confidence value that may be a JSON number or string.
// It is displayed verbatim and never interpreted beyond number formatting.
type Score struct {
	raw string
}

// Number returns a numeric Score.
func Number(f float64) Score {
	return Score{raw: strconv.FormatFloat(f, 'f', -1, 64)}
}

// Text returns a string Score.
func Text(s string) Score {
	b, _ := json.Marshal(s)
	return Score{raw: string(b)}
}

// IsZero reports whether the score was absent from the document.
func (s Score) IsZero() bool { return s.raw == "" || s.raw == "null" }

// Float returns the numeric value when the score is a number
// or a string holding a number.
func (s Score) Float() (float64, bool) {
	if s.IsZero() {
		return 0, false
	}
	v := s.raw
	if v[0] == '"' {
		if err := json.Unmarshal([]byte(v), &v); err != nil {
			return 0, false
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// String renders the score the way a default string conversion would:
// numbers as a JavaScript Number prints them, strings unquoted, absent
// values and booleans empty.
func (s Score) String() string {
	switch {
	case s.IsZero():
		return ""
	case s.raw[0] == '"':
		var v string
		if err := json.Unmarshal([]byte(s.raw), &v); err != nil {
			return s.raw
		}
		return v
	case s.raw == "true" || s.raw == "false":
		return ""
	}
	f, err := strconv.ParseFloat(s.raw, 64)
	if err != nil {
		return s.raw
	}
	return formatNumber(f)
}

// formatNumber prints decimals for magnitudes in [1e-6, 1e21) and exponent
// form otherwise, with an explicit sign and no padded exponent ("1e+21",
// "1.5e-7").
func formatNumber(f float64) string {
	if f == 0 {
		return "0"
	}
	if a := math.Abs(f); a >= 1e-6 && a < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	mant, exp, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
	sign := exp[:1]
	digits := strings.TrimLeft(exp[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mant + "e" + sign + digits
}

func (s Score) MarshalJSON() ([]byte, error) {
	if s.IsZero() {
		return []byte("null"), nil
	}
	return []byte(s.raw), nil
}

func (s *Score) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && (data[0] == '{' || data[0] == '[') {
		return fmt.Errorf("confidence: expected number or string, got %s", data)
	}
	s.raw = string(data)
	return nil
}
