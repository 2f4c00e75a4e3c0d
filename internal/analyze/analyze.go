// Package analyze runs the full pipeline over a project root and returns the
// Report.
package analyze

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"

	"github.com/phobologic/callmap/internal/check"
	"github.com/phobologic/callmap/internal/config"
	"github.com/phobologic/callmap/internal/discover"
	"github.com/phobologic/callmap/internal/graph"
	"github.com/phobologic/callmap/internal/lang"
	"github.com/phobologic/callmap/internal/model"
	"github.com/phobologic/callmap/internal/parse"
	"github.com/phobologic/callmap/internal/registry"
	"github.com/phobologic/callmap/internal/report"
	"github.com/phobologic/callmap/internal/usage"
)

// Options configures a run. The zero value uses DefaultConfig and discards logs.
type Options struct {
	Config *config.Config
	Logger *slog.Logger

	// Files, when set, replaces crawling. Paths are relative to root.
	Files []discover.FileEntry
	// Skipped carries the crawl diagnostics that accompany Files.
	Skipped []model.Diagnostic

	// OnCrawled is called once with the number of files to extract.
	OnCrawled func(n int)
	// OnProgress is called after each file is extracted.
	OnProgress func()
}

type extraction struct {
	defs  []model.Definition
	calls []model.CallSite
	diag  *model.Diagnostic
}

// CrawlOptions maps the crawl settings of cfg onto discover.Options.
func CrawlOptions(cfg *config.Config, logger *slog.Logger) discover.Options {
	return discover.Options{
		ExcludeDirs:     cfg.Crawl.ExcludeDirs,
		ExcludePatterns: cfg.Crawl.ExcludePatterns,
		MaxFileSize:     cfg.Crawl.MaxFileSize,
		Gitignore:       cfg.Crawl.Gitignore,
		Hidden:          cfg.Crawl.Hidden,
		Logger:          logger,
	}
}

// Run analyzes root. Only a missing or non-directory root and context
// cancellation are errors; problems with individual files become diagnostics.
func Run(ctx context.Context, root string, opts Options) (*report.Report, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if err := discover.CheckRoot(root); err != nil {
		return nil, err
	}

	start := time.Now()
	files := opts.Files
	diags := append([]model.Diagnostic(nil), opts.Skipped...)
	if files == nil {
		var err error
		files, diags, err = discover.Files(root, CrawlOptions(cfg, logger))
		if err != nil {
			return nil, err
		}
	}
	for _, d := range diags {
		logger.Warn("skipping file", "path", d.Path, "kind", d.Kind, "reason", d.Message)
	}
	logger.Info("crawl complete", "phase", "crawl", "files", len(files), "skipped", len(diags))
	if opts.OnCrawled != nil {
		opts.OnCrawled(len(files))
	}

	results, err := extractAll(ctx, root, files, cfg.Analysis.Workers, opts.OnProgress)
	if err != nil {
		return nil, err
	}

	b := registry.NewBuilder()
	var calls []model.CallSite
	paths := make([]string, 0, len(files))
	for i, res := range results {
		if res.diag != nil {
			logger.Warn("skipping file", "path", res.diag.Path, "kind", res.diag.Kind, "reason", res.diag.Message)
			diags = append(diags, *res.diag)
			continue
		}
		paths = append(paths, files[i].Path)
		for _, d := range res.defs {
			b.Insert(d)
		}
		calls = append(calls, res.calls...)
	}
	reg := b.Build()
	logger.Info("extraction complete", "phase", "extract", "files", len(paths), "definitions", reg.Len(), "calls", len(calls))

	g := graph.Build(reg, calls)
	logger.Info("resolution complete", "phase", "resolve", "edges", len(g.Edges()), "matched", len(g.Matched()))

	var (
		findings []model.MismatchFinding
		unused   []model.Definition
	)
	wg := conc.NewWaitGroup()
	wg.Go(func() { findings = check.Run(reg, g) })
	wg.Go(func() { unused = usage.Unused(reg, g) })
	wg.Wait()
	logger.Info("checks complete", "phase", "check", "mismatches", len(findings), "unused", len(unused))

	rep := report.Build(report.Input{
		Files:       paths,
		Registry:    reg,
		Graph:       g,
		Findings:    findings,
		Unused:      unused,
		Diagnostics: diags,
	})
	logger.Info("report built", "phase", "report", "elapsed", time.Since(start))
	return rep, nil
}

// extractAll extracts every file on a bounded pool. Each task uses its own
// parser. Results are indexed by crawl position so registry insertion order
// never depends on scheduling.
func extractAll(ctx context.Context, root string, files []discover.FileEntry, workers int, onProgress func()) ([]extraction, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]extraction, len(files))
	var progressMu sync.Mutex

	p := pool.New().WithMaxGoroutines(workers)
	for i, f := range files {
		p.Go(func() {
			if ctx.Err() != nil {
				return
			}
			results[i] = extractOne(ctx, root, f)
			if onProgress != nil {
				progressMu.Lock()
				onProgress()
				progressMu.Unlock()
			}
		})
	}
	p.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func extractOne(ctx context.Context, root string, f discover.FileEntry) extraction {
	l := lang.Languages[f.Language]
	if l == nil {
		return extraction{diag: &model.Diagnostic{Kind: model.ParseFailure, Path: f.Path, Message: "unsupported language"}}
	}

	src, err := discover.Read(root, f)
	if err != nil {
		return extraction{diag: &model.Diagnostic{Kind: model.UnreadableFile, Path: f.Path, Message: err.Error()}}
	}

	parser := l.NewParser()
	defer parser.Close()

	res, err := parse.Extract(ctx, l, parser, src)
	if err != nil {
		var pe *parse.ParseError
		if errors.As(err, &pe) {
			return extraction{diag: &model.Diagnostic{Kind: model.ParseFailure, Path: f.Path, Message: pe.Reason}}
		}
		return extraction{diag: &model.Diagnostic{Kind: model.ParseFailure, Path: f.Path, Message: err.Error()}}
	}
	return extraction{defs: res.Definitions, calls: res.Calls}
}
