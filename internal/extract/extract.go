// Package extract answers a fixed set of questions about a regulation's text,
// producing the "fields" of a record.
package extract

import (
	"context"
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"

	"github.com/dshills/regconsole/internal/schema"
)

// Question is one field to extract and the question that elicits it.
type Question struct {
	Field string
	Text  string
}

// Questions are asked in this order; the resulting fields keep it.
var Questions = []Question{
	{"billName", "What is the name or citation of this regulation or rule?"},
	{"docketNumber", "What is the docket number for this rule?"},
	{"jurisdiction", "Which agency or country issued this regulation?"},
	{"overview", "Summarize the purpose of this regulation in 2 sentences."},
	{"requirements", "What are the reporting or compliance requirements for manufacturers?"},
	{"penalties", "What are the penalties for non-compliance?"},
	{"keyDates", "What are the key dates, including deadlines and effective dates?"},
	{"coveredProducts", "Which products or substances are covered by this regulation?"},
	{"exemptions", "What exemptions or exclusions are included in this regulation?"},
}

// Input is the document the questions are asked about.
type Input struct {
	Title  string
	Source string
	Text   string
}

// Extractor answers every entry of Questions for one document.
type Extractor interface {
	Extract(ctx context.Context, in Input) (schema.Fields, error)
}

// New returns the extractor registered under name.
func New(name string, opts ...Option) (Extractor, error) {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	switch name {
	case "heuristic", "":
		return &Heuristic{}, nil
	case "llm":
		if o.provider == nil {
			return nil, fmt.Errorf("llm extractor requires a provider")
		}
		return &LLM{Provider: o.provider, Logger: o.logger, Limiter: o.limiter}, nil
	default:
		return nil, fmt.Errorf("unknown extractor %q: supported extractors are heuristic, llm", name)
	}
}

var markup = bluemonday.StrictPolicy()

// answer builds a FieldValue with markup stripped, text NFC-normalized,
// whitespace collapsed and the confidence clamped to [0,1] and rounded to two
// decimals.
func answer(text string, confidence float64) schema.FieldValue {
	text = norm.NFC.String(html.UnescapeString(markup.Sanitize(text)))
	text = strings.Join(strings.Fields(text), " ")
	confidence = math.Max(0, math.Min(1, confidence))
	return schema.FieldValue{Answer: text, Confidence: schema.Number(Round2(confidence))}
}

// Round2 rounds half away from zero to two decimal places.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}
