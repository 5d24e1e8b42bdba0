// Package redact scrubs scraped page text before it leaves the process.
package redact

import (
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

// rule is one named pattern. Multiline rules keep the line count of the
// match by redacting each line separately.
type rule struct {
	name      string
	re        *regexp.Regexp
	multiline bool
}

// rules are applied in order; PEM blocks go first so their bodies are not
// partially matched by the single-line rules.
var rules = []rule{
	{name: "pem", re: regexp.MustCompile(`(?s)-----BEGIN [A-Z ]+KEY-----.*?-----END [A-Z ]+KEY-----`), multiline: true},
	{name: "aws_key", re: regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
	{name: "api_key", re: regexp.MustCompile(`(?:^|\s|["'])sk-[a-zA-Z0-9]{20,}`)},
	{name: "jwt", re: regexp.MustCompile(`eyJ[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_]+`)},
	{name: "bearer", re: regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9\-._~+/]{20,}=*`)},
	{name: "email", re: regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)},
	{name: "phone", re: regexp.MustCompile(`\(?\b\d{3}\)?[\s.\-]\d{3}[\s.\-]\d{4}\b`)},
}

// Report counts replacements per rule name. Rules with no hits are absent.
type Report map[string]int

// Total is the number of replacements across all rules.
func (r Report) Total() int {
	n := 0
	for _, c := range r {
		n += c
	}
	return n
}

// Text replaces secrets and contact details in s with [REDACTED].
// The number of lines is unchanged.
func Text(s string) string {
	out, _ := Scan(s)
	return out
}

// Scan is Text that also reports what was replaced.
func Scan(s string) (string, Report) {
	report := Report{}
	for _, r := range rules {
		s = r.re.ReplaceAllStringFunc(s, func(match string) string {
			report[r.name]++
			if !r.multiline {
				return redacted
			}
			return strings.Repeat(redacted+"\n", strings.Count(match, "\n")) + redacted
		})
	}
	return s, report
}
