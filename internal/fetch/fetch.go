// Package fetch performs the single unconditional read of regulations.json.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/dshills/regconsole/internal/schema"
)

// DefaultResource is the fixed path of the collection relative to the origin.
const DefaultResource = "regulations.json"

// maxBodyBytes bounds the size of a fetched document.
const maxBodyBytes = 32 * 1024 * 1024

// Source yields the record collection. Implementations perform exactly one
// read per call and no retries.
type Source interface {
	Fetch(ctx context.Context) ([]schema.Record, error)
}

// StatusError is returned for a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.StatusCode)
}

// HTTP reads the collection with a plain GET.
type HTTP struct {
	URL    string
	Client *http.Client // nil uses http.DefaultClient, which has no timeout
}

func (h *HTTP) Fetch(ctx context.Context) ([]schema.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", h.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: h.URL, StatusCode: resp.StatusCode}
	}
	return schema.DecodeRecords(io.LimitReader(resp.Body, maxBodyBytes))
}

// File reads the collection from disk.
type File struct {
	Path string
}

func (f *File) Fetch(ctx context.Context) ([]schema.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", f.Path, err)
	}
	defer fh.Close()
	return schema.DecodeRecords(io.LimitReader(fh, maxBodyBytes))
}

// Resolve joins resource onto origin the way a browser resolves a relative
// fetch against the page URL.
func Resolve(origin, resource string) (string, error) {
	if resource == "" {
		resource = DefaultResource
	}
	base, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("parsing origin %q: %w", origin, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("origin %q must be an absolute http(s) URL", origin)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	ref, err := url.Parse(resource)
	if err != nil {
		return "", fmt.Errorf("parsing resource %q: %w", resource, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// Open picks a Source for ref. An http(s) URL is fetched as-is, anything else
// is a file path. An empty ref resolves DefaultResource against origin when
// origin is set, otherwise reads DefaultResource from the working directory.
func Open(ref, origin string, client *http.Client) (Source, error) {
	if ref == "" {
		if origin == "" {
			return &File{Path: DefaultResource}, nil
		}
		u, err := Resolve(origin, DefaultResource)
		if err != nil {
			return nil, err
		}
		return &HTTP{URL: u, Client: client}, nil
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return &HTTP{URL: ref, Client: client}, nil
	}
	if origin != "" {
		u, err := Resolve(origin, ref)
		if err != nil {
			return nil, err
		}
		return &HTTP{URL: u, Client: client}, nil
	}
	return &File{Path: ref}, nil
}
