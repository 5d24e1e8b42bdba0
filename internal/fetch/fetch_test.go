package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

const oneRecord = `[{"bill":"A","jurisdiction":"US","sourceUrls":["http://x"],"fields":{},"tags":[]}]`

func TestHTTP_Fetch(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/regulations.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(oneRecord)) //nolint:errcheck
	}))
	defer srv.Close()

	src, err := Open("", srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	recs, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(recs) != 1 || recs[0].Bill != "A" {
		t.Errorf("records = %+v", recs)
	}
	if hits.Load() != 1 {
		t.Errorf("requests = %d, want exactly 1", hits.Load())
	}
}

func TestHTTP_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := &HTTP{URL: srv.URL + "/regulations.json", Client: srv.Client()}
	_, err := src.Fetch(context.Background())
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if se.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d", se.StatusCode)
	}
}

func TestHTTP_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>")) //nolint:errcheck
	}))
	defer srv.Close()

	src := &HTTP{URL: srv.URL, Client: srv.Client()}
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestFile_Fetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regulations.json")
	if err := os.WriteFile(path, []byte(oneRecord), 0o644); err != nil {
		t.Fatal(err)
	}
	src, err := Open(path, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := src.(*File); !ok {
		t.Fatalf("Open(%q) = %T, want *File", path, src)
	}
	recs, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(recs) != 1 {
		t.Errorf("len = %d", len(recs))
	}
}

func TestFile_Missing(t *testing.T) {
	src := &File{Path: filepath.Join(t.TempDir(), "nope.json")}
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestResolve(t *testing.T) {
	cases := []struct {
		origin, resource, want string
	}{
		{"http://localhost:8080", "", "http://localhost:8080/regulations.json"},
		{"https://example.org/console/", "regulations.json", "https://example.org/console/regulations.json"},
		{"https://example.org/console", "data/regs.json", "https://example.org/console/data/regs.json"},
	}
	for _, c := range cases {
		got, err := Resolve(c.origin, c.resource)
		if err != nil {
			t.Fatalf("Resolve(%q, %q): %v", c.origin, c.resource, err)
		}
		if got != c.want {
			t.Errorf("Resolve(%q, %q) = %q, want %q", c.origin, c.resource, got, c.want)
		}
	}
}

func TestResolve_RelativeOrigin(t *testing.T) {
	if _, err := Resolve("localhost", ""); err == nil {
		t.Error("expected error for origin without scheme")
	}
}
