package extract

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/dshills/regconsole/internal/schema"
)

// Heuristic answers the questions with patterns over the page text. It needs
// no network access; its confidences are fixed per rule and 0 when no rule
// matched.
type Heuristic struct{}

var (
	docketPattern  = regexp.MustCompile(`\b[A-Z]{2,}-HQ-[A-Z]+-\d{4}-\d{4}\b`)
	genericDocket  = regexp.MustCompile(`\b[A-Z]{2,5}-\d{4}-\d{3,6}\b`)
	citationPatt   = regexp.MustCompile(`\b\d+\s+(?:CFR|U\.S\.C\.)\s+(?:[Pp]art\s+)?\d+(?:\.\d+)?\b`)
	datePattern    = regexp.MustCompile(`\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},\s+\d{4}\b`)
	titleSeparator = regexp.MustCompile(`\s+[|\x{2013}\x{2014}]\s+`)
)

// agencies maps a phrase found in text to the jurisdiction it names.
var agencies = []struct{ phrase, name string }{
	{"Environmental Protection Agency", "EPA"},
	{"EPA", "EPA"},
	{"European Chemicals Agency", "ECHA"},
	{"European Commission", "European Union"},
	{"Health Canada", "Canada"},
	{"Food and Drug Administration", "FDA"},
}

func (h *Heuristic) Extract(ctx context.Context, in Input) (schema.Fields, error) {
	sentences := splitSentences(in.Text)
	fields := schema.Fields{}
	for _, q := range Questions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, conf := h.answer(q.Field, in, sentences)
		fields.Set(q.Field, answer(text, conf))
	}
	return fields, nil
}

func (h *Heuristic) answer(field string, in Input, sentences []string) (string, float64) {
	switch field {
	case "billName":
		if t := cleanTitle(in.Title); t != "" {
			return t, 0.6
		}
		if m := citationPatt.FindString(in.Text); m != "" {
			return m, 0.5
		}
	case "docketNumber":
		if m := docketPattern.FindString(in.Text); m != "" {
			return m, 0.95
		}
		if m := genericDocket.FindString(in.Text); m != "" {
			return m, 0.5
		}
	case "jurisdiction":
		for _, a := range agencies {
			if strings.Contains(in.Text, a.phrase) {
				return a.name, 0.7
			}
		}
		if in.Source != "" && in.Source != "Unknown" {
			return in.Source, 0.5
		}
	case "overview":
		if len(sentences) > 0 {
			n := min(2, len(sentences))
			return strings.Join(sentences[:n], " "), 0.3
		}
	case "requirements":
		return firstContaining(sentences, 0.4, "must report", "required to", "must", "reporting")
	case "penalties":
		return firstContaining(sentences, 0.4, "penalt", "civil fine", "violation")
	case "keyDates":
		if dates := datePattern.FindAllString(in.Text, 3); len(dates) > 0 {
			return strings.Join(dedupe(dates), "; "), 0.5
		}
	case "coveredProducts":
		return firstContaining(sentences, 0.35, "substances", "articles", "products", "mixtures")
	case "exemptions":
		return firstContaining(sentences, 0.4, "exempt", "exclu")
	}
	return "", 0
}

// firstContaining returns the first sentence holding any of the phrases,
// trying the phrases in priority order.
func firstContaining(sentences []string, conf float64, phrases ...string) (string, float64) {
	for _, p := range phrases {
		for _, s := range sentences {
			if strings.Contains(strings.ToLower(s), p) {
				return s, conf
			}
		}
	}
	return "", 0
}

// cleanTitle drops a trailing site name ("Rule | US EPA") and placeholder titles.
func cleanTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" || title == "Untitled" {
		return ""
	}
	if loc := titleSeparator.FindStringIndex(title); loc != nil {
		title = title[:loc[0]]
	}
	return strings.TrimSpace(title)
}

// splitSentences cuts text after '.', '!' or '?' followed by whitespace.
func splitSentences(text string) []string {
	var out []string
	start := 0
	runes := []rune(text)
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
