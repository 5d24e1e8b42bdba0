package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_EmptyPathIsDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Resource != "regulations.json" || cfg.Listen != ":8080" || cfg.Format != "html" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Scrape.Timeout != 10*time.Second {
		t.Errorf("Scrape.Timeout = %v", cfg.Scrape.Timeout)
	}
	if cfg.Generate.Extractor != "heuristic" || cfg.Generate.Status != "final" {
		t.Errorf("Generate = %+v", cfg.Generate)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regconsole.yaml")
	content := `origin: "https://regs.example.org/console/"
listen: ":9090"
scrape:
  timeout: 3s
  source: EPA
generate:
  extractor: llm
  llm_rps: 0.5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Origin != "https://regs.example.org/console/" || cfg.Listen != ":9090" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Scrape.Timeout != 3*time.Second || cfg.Scrape.Source != "EPA" {
		t.Errorf("Scrape = %+v", cfg.Scrape)
	}
	if cfg.Generate.Extractor != "llm" || cfg.Generate.Status != "final" {
		t.Errorf("Generate = %+v", cfg.Generate)
	}
	if cfg.Generate.LLMRate != 0.5 {
		t.Errorf("Generate.LLMRate = %v", cfg.Generate.LLMRate)
	}
	if cfg.DataPath != "regulations.json" {
		t.Errorf("DataPath default not applied: %q", cfg.DataPath)
	}
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("listen: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load("/nonexistent/regconsole.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_ExampleFile(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "regconsole.example.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Origin != "" || cfg.Scrape.Source != "EPA" || cfg.Generate.LLMRate != 1 {
		t.Errorf("cfg = %+v", cfg)
	}
}
