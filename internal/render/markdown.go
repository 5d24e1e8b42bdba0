package render

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/dshills/regconsole/internal/schema"
)

type markdownRenderer struct{}

var mdTemplate = template.Must(template.New("console").Parse(`# {{ .Title }}
{{ range .Records }}
---

## {{ .Bill }} ({{ .Jurisdiction }})

**Docket:** {{ .Docket }}
**Status:** {{ .Status }}
**Confidence:** {{ .Confidence }}
**Last Updated:** {{ .LastUpdated }}
**Source:** [{{ .PrimarySource }}]({{ .PrimarySource }})

### Extracted Fields
{{ range .Fields }}
**{{ .Name }}:** {{ .Value.Answer }} *(confidence: {{ .Value.Confidence }})*
{{ end }}
### Tags
{{ range .Tags }}
- {{ .Text }} *({{ .Category }})*
{{- end }}
{{ end }}`))

func (r *markdownRenderer) Render(records []schema.Record) ([]byte, error) {
	if err := checkShape(records); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err := mdTemplate.Execute(&buf, struct {
		Title   string
		Records []schema.Record
	}{Title, records})
	if err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.Bytes(), nil
}
