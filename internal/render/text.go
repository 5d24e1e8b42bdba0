package render

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dshills/regconsole/internal/schema"
)

type textRenderer struct{}

// Render writes one block per record:
//
//	A (US)
//	Docket: D1
//	...
//	Source: http://x
//
//	Extracted Fields
//	f1: yes (confidence: 0.9)
//
//	Tags
//	- t1 (cat1)
func (r *textRenderer) Render(records []schema.Record) ([]byte, error) {
	if err := checkShape(records); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n", Title)
	for _, rec := range records {
		fmt.Fprintf(&buf, "\n%s (%s)\n", rec.Bill, rec.Jurisdiction)
		fmt.Fprintf(&buf, "Docket: %s\n", rec.Docket)
		fmt.Fprintf(&buf, "Status: %s\n", rec.Status)
		fmt.Fprintf(&buf, "Confidence: %s\n", rec.Confidence)
		fmt.Fprintf(&buf, "Last Updated: %s\n", rec.LastUpdated)
		fmt.Fprintf(&buf, "Source: %s\n", rec.PrimarySource())
		buf.WriteString("\nExtracted Fields\n")
		for _, f := range rec.Fields {
			fmt.Fprintf(&buf, "%s: %s (confidence: %s)\n", f.Name, f.Value.Answer, f.Value.Confidence)
		}
		buf.WriteString("\nTags\n")
		for _, tag := range rec.Tags {
			fmt.Fprintf(&buf, "- %s (%s)\n", tag.Text, tag.Category)
		}
	}
	return buf.Bytes(), nil
}

type jsonRenderer struct{}

func (r *jsonRenderer) Render(records []schema.Record) ([]byte, error) {
	if err := checkShape(records); err != nil {
		return nil, err
	}
	return json.MarshalIndent(records, "", "  ")
}
