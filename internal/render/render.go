package render

import (
	"fmt"

	"github.com/dshills/regconsole/internal/schema"
)

// Title heads every rendering of the console.
const Title = "Regulation Review Console"

// Renderer formats a record collection into bytes for output.
// Rendering is a pure function of its input: the same records always
// produce the same bytes.
type Renderer interface {
	Render(records []schema.Record) ([]byte, error)
}

// Formats lists the supported format names.
var Formats = []string{"html", "md", "text", "json"}

// NewRenderer returns a Renderer for the given format string.
func NewRenderer(format string) (Renderer, error) {
	switch format {
	case "html", "":
		return &htmlRenderer{}, nil
	case "md":
		return &markdownRenderer{}, nil
	case "text":
		return &textRenderer{}, nil
	case "json":
		return &jsonRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q: supported formats are html, md, text, json", format)
	}
}

// checkShape fails the whole pass when any record lacks sourceUrls, fields
// or tags. There is no per-record isolation.
func checkShape(records []schema.Record) error {
	if err := schema.Check(records); err != nil {
		return fmt.Errorf("rendering regulations: %w", err)
	}
	return nil
}
