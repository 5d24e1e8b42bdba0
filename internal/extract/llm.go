package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"

	"github.com/dshills/regconsole/internal/llm"
	"github.com/dshills/regconsole/internal/redact"
	"github.com/dshills/regconsole/internal/schema"
)

// maxContextRunes bounds the page text sent with each question.
const maxContextRunes = 24000

const systemPrompt = `You answer questions about a single regulatory document.

Rules:
- Use only the text inside <document>; do not rely on outside knowledge
- Quote or closely paraphrase the document; keep answers under 80 words
- If the document does not answer the question, return an empty answer with confidence 0
- confidence is your probability (0.0 to 1.0) that the answer is correct

Return JSON only, no prose and no markdown fences:
{"answer": "...", "confidence": 0.0}`

// LLM answers each question with one completion call. The page text is
// redacted before it is sent. A non-nil Limiter paces the calls.
type LLM struct {
	Provider llm.Provider
	Logger   *slog.Logger
	Limiter  *rate.Limiter
}

type options struct {
	provider llm.Provider
	logger   *slog.Logger
	limiter  *rate.Limiter
}

// Option configures New.
type Option func(*options)

// WithProvider sets the completion backend of the llm extractor.
func WithProvider(p llm.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithRateLimit caps the llm extractor at rps completion calls per second.
// rps <= 0 leaves it unlimited.
func WithRateLimit(rps float64) Option {
	return func(o *options) {
		if rps > 0 {
			o.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithLogger sets the logger of the llm extractor.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

type llmAnswer struct {
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
}

func (e *LLM) Extract(ctx context.Context, in Input) (schema.Fields, error) {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	doc, report := buildDocument(in)
	if n := report.Total(); n > 0 {
		logger.Debug("redacted page text", "replacements", n)
	}
	fields := schema.Fields{}
	for _, q := range Questions {
		if e.Limiter != nil {
			if err := e.Limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("extracting %s: %w", q.Field, err)
			}
		}
		resp, err := e.Provider.Complete(ctx, &llm.Request{
			SystemPrompt: systemPrompt,
			UserPrompt:   doc + "\nQuestion: " + q.Text + "\n",
			Temperature:  0,
			MaxTokens:    512,
		})
		if err != nil {
			return nil, fmt.Errorf("extracting %s: %w", q.Field, err)
		}
		a, err := parseAnswer(resp.Content)
		if err != nil {
			return nil, fmt.Errorf("extracting %s: %w", q.Field, err)
		}
		logger.Debug("field extracted", "field", q.Field, "confidence", a.Confidence, "model", resp.Model)
		fields.Set(q.Field, answer(a.Answer, a.Confidence))
	}
	return fields, nil
}

func buildDocument(in Input) (string, redact.Report) {
	clean, report := redact.Scan(in.Text)
	text := []rune(clean)
	if len(text) > maxContextRunes {
		text = text[:maxContextRunes]
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "<document title=%q source=%q>\n", in.Title, in.Source)
	sb.WriteString(string(text))
	if len(text) > 0 && text[len(text)-1] != '\n' {
		sb.WriteByte('\n')
	}
	sb.WriteString("</document>\n")
	return sb.String(), report
}

func parseAnswer(raw string) (llmAnswer, error) {
	var a llmAnswer
	if err := json.Unmarshal([]byte(stripFences(raw)), &a); err != nil {
		return a, fmt.Errorf("JSON parse failed: %w", err)
	}
	return a, nil
}

// stripFences removes leading/trailing markdown code fences.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
	}
	if strings.HasSuffix(s, "```") {
		if idx := strings.LastIndex(s, "\n```"); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}
