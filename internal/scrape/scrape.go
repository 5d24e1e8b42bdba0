// Package scrape fetches a regulation web page and extracts its paragraph text.
package scrape

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultTimeout bounds a single page fetch.
const DefaultTimeout = 10 * time.Second

const maxPageBytes = 16 * 1024 * 1024

// Page is the scraped content of one source page.
type Page struct {
	Title    string
	Source   string
	URL      string
	FullText string
}

// Scraper fetches pages over HTTP.
type Scraper struct {
	Client *http.Client
	Logger *slog.Logger
}

// New returns a Scraper whose client times out after timeout
// (DefaultTimeout when zero).
func New(timeout time.Duration, logger *slog.Logger) *Scraper {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scraper{Client: &http.Client{Timeout: timeout}, Logger: logger}
}

// Page fetches url and returns its title and the text of every non-empty
// <p>, one paragraph per line. source labels the issuing body (e.g. "EPA").
func (s *Scraper) Page(ctx context.Context, url, source string) (*Page, error) {
	if source == "" {
		source = "Unknown"
	}
	s.Logger.Info("scraping", "url", url, "source", source)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scraping %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("scraping %s: HTTP %d", url, resp.StatusCode)
	}

	p, err := Parse(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", url, err)
	}
	p.Source = source
	p.URL = url
	return p, nil
}

// Parse extracts the title and paragraph text of an HTML document.
func Parse(r io.Reader) (*Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	title := findTitle(doc)
	if title == "" {
		title = "Untitled"
	}
	var paras []string
	collectParagraphs(doc, &paras)
	return &Page{Title: title, FullText: strings.Join(paras, "\n")}, nil
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		return strings.TrimSpace(nodeText(n))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

// collectParagraphs appends the text of each <p> whose text is not blank.
// Nested paragraphs are not descended into twice.
func collectParagraphs(n *html.Node, out *[]string) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript:
			return
		case atom.P:
			text := nodeText(n)
			if strings.TrimSpace(text) != "" {
				*out = append(*out, text)
			}
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectParagraphs(c, out)
	}
}

// nodeText concatenates the text nodes under n without reformatting them.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
