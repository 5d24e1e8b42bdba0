package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/dshills/regconsole/internal/schema"
)

type htmlRenderer struct{}

var htmlTemplate = template.Must(template.New("console").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{ .Title }}</title>
<style>
.console { padding: 2rem; }
.regulation { margin-bottom: 2rem; border-bottom: 1px solid #ccc; }
</style>
</head>
<body>
<div class="console">
<h1>{{ .Title }}</h1>
{{- range .Records }}
<div class="regulation">
<h2>{{ .Bill }} ({{ .Jurisdiction }})</h2>
<p><strong>Docket:</strong> {{ .Docket }}</p>
<p><strong>Status:</strong> {{ .Status }}</p>
<p><strong>Confidence:</strong> {{ .Confidence }}</p>
<p><strong>Last Updated:</strong> {{ .LastUpdated }}</p>
<p><strong>Source:</strong> <a href="{{ .PrimarySource }}" target="_blank" rel="noreferrer">{{ .PrimarySource }}</a></p>
<h3>Extracted Fields</h3>
{{- range .Fields }}
<div><p><strong>{{ .Name }}:</strong> {{ .Value.Answer }} <em>(confidence: {{ .Value.Confidence }})</em></p></div>
{{- end }}
<h3>Tags</h3>
<ul>
{{- range .Tags }}
<li>{{ .Text }} <em>({{ .Category }})</em></li>
{{- end }}
</ul>
</div>
{{- end }}
</div>
</body>
</html>
`))

func (r *htmlRenderer) Render(records []schema.Record) ([]byte, error) {
	if err := checkShape(records); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err := htmlTemplate.Execute(&buf, struct {
		Title   string
		Records []schema.Record
	}{Title, records})
	if err != nil {
		return nil, fmt.Errorf("rendering html: %w", err)
	}
	return buf.Bytes(), nil
}
