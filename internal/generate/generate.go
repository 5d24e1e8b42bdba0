// Package generate assembles regulation records from a scraped page and
// writes the regulations.json collection.
package generate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dshills/regconsole/internal/extract"
	"github.com/dshills/regconsole/internal/schema"
	"github.com/dshills/regconsole/internal/scrape"
)

// DateLayout is the lastUpdated format.
const DateLayout = "2006-01-02"

// Options controls values that do not come from the page.
type Options struct {
	Status  string    // defaults to "final"
	Updated time.Time // defaults to now
}

// Build assembles one record. bill, jurisdiction and docket come from the
// billName, jurisdiction and docketNumber fields; the record confidence is the
// mean of all field confidences rounded to two decimals.
func Build(page *scrape.Page, fields schema.Fields, tags []schema.Tag, opts Options) schema.Record {
	if opts.Status == "" {
		opts.Status = "final"
	}
	if opts.Updated.IsZero() {
		opts.Updated = time.Now()
	}
	if fields == nil {
		fields = schema.Fields{}
	}
	if tags == nil {
		tags = []schema.Tag{}
	}
	bill := answerOf(fields, "billName")
	return schema.Record{
		ID:           Slug(bill),
		Jurisdiction: answerOf(fields, "jurisdiction"),
		Bill:         bill,
		Docket:       answerOf(fields, "docketNumber"),
		Status:       opts.Status,
		Confidence:   schema.Number(MeanConfidence(fields)),
		LastUpdated:  opts.Updated.Format(DateLayout),
		SourceURLs:   []string{page.URL},
		Fields:       fields,
		Tags:         tags,
	}
}

// Slug lowercases s and replaces spaces and slashes with hyphens.
func Slug(s string) string {
	s = strings.ToLower(s)
	return strings.NewReplacer(" ", "-", "/", "-").Replace(s)
}

// MeanConfidence averages every numeric field confidence. Fields whose
// confidence is not numeric are skipped; no fields yields 0.
func MeanConfidence(fields schema.Fields) float64 {
	var sum float64
	var n int
	for _, f := range fields {
		if v, ok := f.Value.Confidence.Float(); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return extract.Round2(sum / float64(n))
}

func answerOf(fields schema.Fields, name string) string {
	v, _ := fields.Get(name)
	return v.Answer
}

// Encode renders records as a JSON array indented by two spaces.
func Encode(records []schema.Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("encoding regulations: %w", err)
	}
	return buf.Bytes(), nil
}

// Write replaces path with the encoded records. The file is written to a
// temporary sibling first so a concurrent reader never sees a partial file.
func Write(path string, records []schema.Record) error {
	data, err := Encode(records)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".regulations-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
