package schema

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

const twoRecords = `[
  {"bill":"A","jurisdiction":"US","docket":"D1","status":"pending","confidence":0.8,
   "lastUpdated":"2024-01-01","sourceUrls":["http://x","http://y"],
   "fields":{"f2":{"answer":"no","confidence":"high"},"f1":{"answer":"yes","confidence":0.90}},
   "tags":[["t1","cat1"],["t2","cat2"]]},
  {"bill":"B","jurisdiction":"EU","docket":"D2","status":"final","confidence":"0.5",
   "lastUpdated":"2024-02-02","sourceUrls":[],"fields":{},"tags":[]}
]`

func TestDecodeRecords_PreservesFieldOrder(t *testing.T) {
	recs, err := DecodeRecords(strings.NewReader(twoRecords))
	if err != nil {
		t.Fatalf("DecodeRecords: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2", len(recs))
	}
	f := recs[0].Fields
	if len(f) != 2 || f[0].Name != "f2" || f[1].Name != "f1" {
		t.Errorf("field order = %+v, want f2 then f1", f)
	}
	if got := f[1].Value.Confidence.String(); got != "0.9" {
		t.Errorf("f1 confidence = %q, want 0.9", got)
	}
	if got := f[0].Value.Confidence.String(); got != "high" {
		t.Errorf("f2 confidence = %q, want high", got)
	}
}

func TestDecodeRecords_Tags(t *testing.T) {
	recs, err := DecodeRecords(strings.NewReader(twoRecords))
	if err != nil {
		t.Fatal(err)
	}
	want := []Tag{{"t1", "cat1"}, {"t2", "cat2"}}
	if len(recs[0].Tags) != len(want) {
		t.Fatalf("tags = %+v", recs[0].Tags)
	}
	for i, tag := range want {
		if recs[0].Tags[i] != tag {
			t.Errorf("tag[%d] = %+v, want %+v", i, recs[0].Tags[i], tag)
		}
	}
}

func TestDecodeRecords_Malformed(t *testing.T) {
	_, err := DecodeRecords(strings.NewReader(`[{"bill":`))
	if err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}

func TestDecodeRecords_ShortAndLongTags(t *testing.T) {
	recs, err := DecodeRecords(strings.NewReader(`[{"tags":[["only-one"],["a","b","extra"],[],[null,3]]}]`))
	if err != nil {
		t.Fatalf("DecodeRecords: %v", err)
	}
	want := []Tag{{"only-one", ""}, {"a", "b"}, {"", ""}, {"", "3"}}
	if len(recs[0].Tags) != len(want) {
		t.Fatalf("tags = %+v", recs[0].Tags)
	}
	for i, tag := range want {
		if recs[0].Tags[i] != tag {
			t.Errorf("tag[%d] = %+v, want %+v", i, recs[0].Tags[i], tag)
		}
	}
}

func TestDecodeRecords_TagNotArray(t *testing.T) {
	_, err := DecodeRecords(strings.NewReader(`[{"tags":["pfas"]}]`))
	if err == nil {
		t.Fatal("expected error for a tag that is not an array")
	}
}

func TestCheck_MissingTags(t *testing.T) {
	recs, err := DecodeRecords(strings.NewReader(`[
	  {"bill":"A","sourceUrls":["u"],"fields":{},"tags":[]},
	  {"bill":"B","sourceUrls":["u"],"fields":{}}
	]`))
	if err != nil {
		t.Fatalf("decode should trust the shape: %v", err)
	}
	err = Check(recs)
	var se *ShapeError
	if !errors.As(err, &se) {
		t.Fatalf("Check error = %v, want *ShapeError", err)
	}
	if se.Index != 1 || se.Key != KeyTags {
		t.Errorf("ShapeError = %+v, want index 1 key tags", se)
	}
}

func TestCheck_NullCountsAsMissing(t *testing.T) {
	recs, err := DecodeRecords(strings.NewReader(`[{"sourceUrls":null,"fields":{},"tags":[]}]`))
	if err != nil {
		t.Fatal(err)
	}
	var se *ShapeError
	if !errors.As(Check(recs), &se) || se.Key != KeySourceURLs {
		t.Errorf("expected missing sourceUrls, got %v", Check(recs))
	}
}

func TestCheck_EmptyCollectionsAreFine(t *testing.T) {
	recs, err := DecodeRecords(strings.NewReader(twoRecords))
	if err != nil {
		t.Fatal(err)
	}
	if err := Check(recs); err != nil {
		t.Errorf("Check: %v", err)
	}
	if got := recs[1].PrimarySource(); got != "" {
		t.Errorf("PrimarySource of empty list = %q", got)
	}
}

func TestFields_MarshalKeepsOrder(t *testing.T) {
	var f Fields
	f.Set("zeta", FieldValue{Answer: "z", Confidence: Number(0.5)})
	f.Set("alpha", FieldValue{Answer: "a", Confidence: Number(1)})
	out, err := json.Marshal(f)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"zeta":{"answer":"z","confidence":0.5},"alpha":{"answer":"a","confidence":1}}`
	if string(out) != want {
		t.Errorf("got %s\nwant %s", out, want)
	}
}

func TestScore_Verbatim(t *testing.T) {
	cases := map[string]string{
		`0.80`:   "0.8",
		`1.0`:    "1",
		`0.25`:   "0.25",
		`"0.5"`:  "0.5",
		`"high"`: "high",
		`0`:      "0",
		`-0.0`:   "0",
		`1e21`:   "1e+21",
		`1.5e22`: "1.5e+22",
		`1e-7`:   "1e-7",
		`2.5e-8`: "2.5e-8",
		`1e-6`:   "0.000001",
		`123e18`: "123000000000000000000",
		`true`:   "",
		`false`:  "",
	}
	for in, want := range cases {
		var s Score
		if err := json.Unmarshal([]byte(in), &s); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if got := s.String(); got != want {
			t.Errorf("Score(%s).String() = %q, want %q", in, got, want)
		}
	}
}

func TestScore_RejectsObjects(t *testing.T) {
	var s Score
	if err := json.Unmarshal([]byte(`{"x":1}`), &s); err == nil {
		t.Error("expected error for object confidence")
	}
}

func TestScore_Float(t *testing.T) {
	if f, ok := Text("0.75").Float(); !ok || f != 0.75 {
		t.Errorf("Text float = %v %v", f, ok)
	}
	if _, ok := Text("high").Float(); ok {
		t.Error("non-numeric string should not parse")
	}
}
