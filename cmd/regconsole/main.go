package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/regconsole/internal/changes"
	"github.com/dshills/regconsole/internal/config"
	"github.com/dshills/regconsole/internal/display"
	"github.com/dshills/regconsole/internal/extract"
	"github.com/dshills/regconsole/internal/fetch"
	"github.com/dshills/regconsole/internal/generate"
	"github.com/dshills/regconsole/internal/llm"
	"github.com/dshills/regconsole/internal/render"
	"github.com/dshills/regconsole/internal/schema"
	"github.com/dshills/regconsole/internal/scrape"
	"github.com/dshills/regconsole/internal/server"
	"github.com/dshills/regconsole/internal/tagger"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

// codeError returns an exitErr for the given code.
func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

// Exit codes.
const (
	exitInput    = 3 // invalid flags, config or input files
	exitProvider = 4 // LLM provider could not be created
	exitRuntime  = 5 // fetch, scrape, extraction or render failure
)

type commonFlags struct {
	configPath string
	verbose    bool
}

type renderFlags struct {
	commonFlags
	format  string
	out     string
	origin  string
	timeout time.Duration
}

type serveFlags struct {
	commonFlags
	listen string
	data   string
}

type generateFlags struct {
	commonFlags
	out       string
	source    string
	status    string
	updated   string
	extractor string
	diffOut   string
	merge     bool
}

func main() {
	root := newRootCmd(os.Stdout)
	if err := root.Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", ee.msg)
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "regconsole",
		Short:         "Render and maintain a regulation review console",
		Long:          "regconsole renders regulations.json as a review console, serves it over HTTP and regenerates it from source pages.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var rf renderFlags
	renderCmd := &cobra.Command{
		Use:   "render [source]",
		Short: "Load regulations.json once and render the console",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := ""
			if len(args) == 1 {
				ref = args[0]
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runRender(ctx, ref, rf, stdout)
		},
	}
	f := renderCmd.Flags()
	f.StringVar(&rf.format, "format", "", "Output format: html, md, text or json (default from config, html)")
	f.StringVar(&rf.out, "out", "", "Write output to file instead of stdout")
	f.StringVar(&rf.origin, "origin", "", "Hosting origin to resolve the resource against (e.g. http://localhost:8080)")
	f.DurationVar(&rf.timeout, "timeout", 0, "Abort the fetch after this long (0 waits indefinitely)")
	addCommon(renderCmd, &rf.commonFlags)

	var sf serveFlags
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve regulations.json, the /regulations API and the console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, sf)
		},
	}
	f = serveCmd.Flags()
	f.StringVar(&sf.listen, "listen", "", "Listen address (default from config, :8080)")
	f.StringVar(&sf.data, "data", "", "Path of regulations.json (default from config)")
	addCommon(serveCmd, &sf.commonFlags)

	var gf generateFlags
	generateCmd := &cobra.Command{
		Use:   "generate <url>",
		Short: "Scrape a regulation page and write regulations.json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runGenerate(ctx, args[0], gf)
		},
	}
	f = generateCmd.Flags()
	f.StringVar(&gf.out, "out", "", "Output path (default from config data_path)")
	f.StringVar(&gf.source, "source", "", "Issuing body label, e.g. EPA")
	f.StringVar(&gf.status, "status", "", "Record status (default final)")
	f.StringVar(&gf.updated, "updated", "", "lastUpdated date as YYYY-MM-DD (default today)")
	f.StringVar(&gf.extractor, "extractor", "", "Field extractor: heuristic or llm (llm reads REGCONSOLE_MODEL)")
	f.StringVar(&gf.diffOut, "diff-out", "", "Write a diff-match-patch patch of the console text against the previous file")
	f.BoolVar(&gf.merge, "merge", false, "Replace or append the record in the existing file instead of overwriting it")
	addCommon(generateCmd, &gf.commonFlags)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(stdout, version)
		},
	}

	root.AddCommand(renderCmd, serveCmd, generateCmd, versionCmd)
	return root
}

func addCommon(cmd *cobra.Command, c *commonFlags) {
	cmd.Flags().StringVar(&c.configPath, "config", "", "YAML config file")
	cmd.Flags().BoolVar(&c.verbose, "verbose", false, "Log debug detail to stderr")
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runRender(ctx context.Context, ref string, flags renderFlags, stdout io.Writer) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return codeError(exitInput, "loading config: %s", err)
	}
	logger := newLogger(flags.verbose)

	format := flags.format
	if format == "" {
		format = cfg.Format
	}
	if !slices.Contains(render.Formats, format) {
		return codeError(exitInput, "--format must be one of %s, got %q", strings.Join(render.Formats, ", "), format)
	}
	renderer, err := render.NewRenderer(format)
	if err != nil {
		return codeError(exitInput, "invalid format: %s", err)
	}

	origin := flags.origin
	if origin == "" {
		origin = cfg.Origin
	}
	if ref == "" {
		ref = cfg.Resource
	}
	src, err := fetch.Open(ref, origin, &http.Client{Timeout: flags.timeout})
	if err != nil {
		return codeError(exitInput, "resolving source: %s", err)
	}

	d := display.New(src, renderer, display.WithLogger(logger))
	logger.Debug("mounting display", "source", describe(src), "format", format)
	if err := d.Mount(ctx); err != nil {
		return codeError(exitRuntime, "loading regulations: %s", err)
	}
	out, err := d.Render()
	if err != nil {
		return codeError(exitRuntime, "%s", err)
	}
	return writeOutput(flags.out, out, stdout)
}

func runServe(ctx context.Context, flags serveFlags) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return codeError(exitInput, "loading config: %s", err)
	}
	listen := flags.listen
	if listen == "" {
		listen = cfg.Listen
	}
	data := flags.data
	if data == "" {
		data = cfg.DataPath
	}
	srv := server.New(data, newLogger(flags.verbose))
	if err := srv.ListenAndServe(ctx, listen); err != nil {
		return codeError(exitRuntime, "serving: %s", err)
	}
	return nil
}

func runGenerate(ctx context.Context, url string, flags generateFlags) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return codeError(exitInput, "loading config: %s", err)
	}
	logger := newLogger(flags.verbose)

	out := firstNonEmpty(flags.out, cfg.DataPath)
	source := firstNonEmpty(flags.source, cfg.Scrape.Source)
	status := firstNonEmpty(flags.status, cfg.Generate.Status)
	extractorName := firstNonEmpty(flags.extractor, cfg.Generate.Extractor)

	var updated time.Time
	if flags.updated != "" {
		updated, err = time.Parse(generate.DateLayout, flags.updated)
		if err != nil {
			return codeError(exitInput, "--updated must be YYYY-MM-DD, got %q", flags.updated)
		}
	}

	var opts []extract.Option
	opts = append(opts, extract.WithLogger(logger))
	if extractorName == "llm" {
		model, set := llm.ModelFromEnv(nil)
		if !set {
			logger.Warn("REGCONSOLE_MODEL not set, using default", "model", model)
		}
		provider, err := llm.NewProvider(model, nil)
		if err != nil {
			return codeError(exitProvider, "creating LLM provider: %s", err)
		}
		opts = append(opts, extract.WithProvider(provider), extract.WithRateLimit(cfg.Generate.LLMRate))
	}
	extractor, err := extract.New(extractorName, opts...)
	if err != nil {
		return codeError(exitInput, "%s", err)
	}

	page, err := scrape.New(cfg.Scrape.Timeout, logger).Page(ctx, url, source)
	if err != nil {
		return codeError(exitRuntime, "%s", err)
	}

	logger.Debug("extracting fields", "extractor", extractorName, "chars", len(page.FullText))
	fields, err := extractor.Extract(ctx, extract.Input{Title: page.Title, Source: page.Source, Text: page.FullText})
	if err != nil {
		return codeError(exitRuntime, "%s", err)
	}
	rec := generate.Build(page, fields, tagger.Tag(page.FullText), generate.Options{Status: status, Updated: updated})

	var previous []schema.Record
	if flags.merge || flags.diffOut != "" {
		previous, err = loadPrevious(ctx, out)
		if err != nil {
			return codeError(exitInput, "reading existing %s: %s", out, err)
		}
	}
	records := []schema.Record{rec}
	if flags.merge {
		records = mergeRecord(previous, rec)
	}

	if flags.diffOut != "" {
		patch, sum, err := changes.Diff(previous, records)
		if err != nil {
			logger.Warn("diff skipped", "error", err)
		} else {
			logger.Info("changes", "inserted", sum.Inserted, "deleted", sum.Deleted)
			if err := os.WriteFile(flags.diffOut, []byte(patch), 0o644); err != nil {
				// The diff is advisory; the data file is still written.
				logger.Warn("diff write failed", "path", flags.diffOut, "error", err)
			}
		}
	}

	if err := generate.Write(out, records); err != nil {
		return codeError(exitRuntime, "%s", err)
	}
	logger.Info("wrote regulations", "path", out, "records", len(records), "id", rec.ID, "confidence", rec.Confidence.String())
	return nil
}

// loadPrevious reads the current collection at path; a missing file is empty.
func loadPrevious(ctx context.Context, path string) ([]schema.Record, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return []schema.Record{}, nil
	}
	return (&fetch.File{Path: path}).Fetch(ctx)
}

// mergeRecord replaces the record with rec's id, or appends rec.
func mergeRecord(records []schema.Record, rec schema.Record) []schema.Record {
	out := slices.Clone(records)
	for i := range out {
		if out[i].ID != "" && out[i].ID == rec.ID {
			out[i] = rec
			return out
		}
	}
	return append(out, rec)
}

func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path != "" {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return codeError(exitInput, "writing output file: %s", err)
		}
		return nil
	}
	if _, err := stdout.Write(data); err != nil {
		return codeError(exitInput, "writing output: %s", err)
	}
	// Ensure output ends with a newline for terminal friendliness.
	if len(data) > 0 && data[len(data)-1] != '\n' {
		fmt.Fprintln(stdout)
	}
	return nil
}

func describe(src fetch.Source) string {
	switch s := src.(type) {
	case *fetch.HTTP:
		return s.URL
	case *fetch.File:
		return s.Path
	}
	return fmt.Sprintf("%T", src)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
