// callmap cross-references function definitions and call sites in Python and
// PHP projects and reports parameter mismatches, duplicates and unused code.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/phobologic/callmap/internal/analyze"
	"github.com/phobologic/callmap/internal/cache"
	"github.com/phobologic/callmap/internal/config"
	"github.com/phobologic/callmap/internal/discover"
	"github.com/phobologic/callmap/internal/progress"
	"github.com/phobologic/callmap/internal/render"
)

var version = "dev"

// errMismatches is returned when --fail-on-mismatch is set and the report
// contains at least one mismatch.
var errMismatches = errors.New("parameter mismatches found")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
		if errors.Is(err, errMismatches) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	app := newApp(stdout, stderr)
	return app.Run(append([]string{app.Name}, reorderArgs(args)...))
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "callmap",
		Usage:     "Cross-reference function definitions and calls in Python and PHP code",
		ArgsUsage: "[path]",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		Description: `callmap indexes every function and method definition under path
(default: the current directory), resolves each call site to definitions by
name, and reports calls whose arguments do not fit the definition's
parameters, functions defined more than once, and functions never called.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: " + strings.Join(render.Formats, ", "),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"CALLMAP_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Hide the progress bar",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log pipeline phases to stderr",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Parallel extraction workers (0 uses all CPUs)",
			},
			&cli.Int64Flag{
				Name:  "max-file-size",
				Usage: "Skip files larger than this many bytes (0 disables the limit)",
			},
			&cli.StringFlag{
				Name:  "cache",
				Usage: "Cache rendered output in `DIR`",
			},
			&cli.BoolFlag{
				Name:  "clear-cache",
				Usage: "Remove cached output before analyzing (with --cache or cache.enabled)",
			},
			&cli.BoolFlag{
				Name:  "fail-on-mismatch",
				Usage: "Exit with status 2 when any mismatch is found",
			},
			&cli.IntFlag{
				Name:  "depth",
				Usage: "Depth limit for the tree format (0 is unlimited)",
			},
		},
		Action:         analyzeAction,
		Commands:       []*cli.Command{initCmd()},
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

// cachedOutput is what the output cache stores for one run.
type cachedOutput struct {
	Output     []byte `json:"output"`
	Mismatches int    `json:"mismatches"`
}

func analyzeAction(c *cli.Context) error {
	if c.Args().Len() > 1 {
		return fmt.Errorf("expected at most one path, got %d", c.Args().Len())
	}
	root := "."
	if c.Args().Len() == 1 {
		root = c.Args().First()
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving root: %w", err)
	}

	cfg, err := loadConfig(c, root)
	if err != nil {
		return err
	}
	applyFlags(c, cfg)

	format, err := render.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	opts := render.Options{
		Color: cfg.Output.Color && !c.Bool("no-color") && !color.NoColor && c.String("output") == "",
		Depth: cfg.Output.Depth,
		Root:  filepath.Base(root),
	}

	logger := newLogger(c.App.ErrWriter, c.Bool("verbose"))

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := produce(ctx, c, root, cfg, format, opts, logger)
	if err != nil {
		return err
	}

	if path := c.String("output"); path != "" {
		if err := os.WriteFile(path, out.Output, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		if !c.Bool("quiet") {
			_, _ = fmt.Fprintf(c.App.ErrWriter, "wrote report to %s\n", path)
		}
	} else if _, err := c.App.Writer.Write(out.Output); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if c.Bool("fail-on-mismatch") && out.Mismatches > 0 {
		return fmt.Errorf("%d %w", out.Mismatches, errMismatches)
	}
	return nil
}

// produce renders the report for root, serving it from the cache when the
// analyzed sources and settings are unchanged.
func produce(ctx context.Context, c *cli.Context, root string, cfg *config.Config, format render.Format, opts render.Options, logger *slog.Logger) (cachedOutput, error) {
	runOpts := analyze.Options{Config: cfg, Logger: logger}

	var (
		store      *cache.Cache
		key, fresh string
	)
	if cfg.Cache.Enabled {
		files, skipped, err := discover.Files(root, analyze.CrawlOptions(cfg, logger))
		if err != nil {
			return cachedOutput{}, err
		}
		runOpts.Files = files
		runOpts.Skipped = skipped

		dir := cfg.Cache.Dir
		if !c.IsSet("cache") && !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
		store, err = cache.New(dir, cfg.Cache.TTL, true)
		if err != nil {
			return cachedOutput{}, fmt.Errorf("opening cache: %w", err)
		}
		if c.Bool("clear-cache") {
			if err := store.Clear(); err != nil {
				return cachedOutput{}, fmt.Errorf("clearing cache: %w", err)
			}
			logger.Debug("cache cleared", "dir", dir)
		}
		settings, err := config.Marshal(cfg)
		if err != nil {
			return cachedOutput{}, err
		}
		key = cache.Key(root, string(format), strconv.FormatBool(opts.Color), strconv.Itoa(opts.Depth), settings)
		fresh, err = cache.Fingerprint(root, files)
		if err != nil {
			return cachedOutput{}, fmt.Errorf("fingerprinting sources: %w", err)
		}
		if data, ok := store.GetWithHash(key, fresh); ok {
			var hit cachedOutput
			if err := json.Unmarshal(data, &hit); err == nil {
				logger.Debug("cache hit", "key", key)
				return hit, nil
			}
		}
	}

	var tracker *progress.Tracker
	if !c.Bool("quiet") {
		runOpts.OnCrawled = func(n int) {
			tracker = progress.NewTracker(c.App.ErrWriter, "extracting", n)
		}
		runOpts.OnProgress = func() {
			tracker.Tick()
		}
	}

	rep, err := analyze.Run(ctx, root, runOpts)
	if tracker != nil {
		logger.Debug("extraction progress", "files", tracker.Current())
		tracker.Finish()
	}
	if err != nil {
		return cachedOutput{}, fmt.Errorf("analyzing %s: %w", root, err)
	}

	var buf bytes.Buffer
	if err := render.Render(&buf, rep, format, opts); err != nil {
		return cachedOutput{}, fmt.Errorf("rendering %s: %w", format, err)
	}
	out := cachedOutput{Output: buf.Bytes(), Mismatches: rep.Summary().Mismatches}

	if store != nil {
		data, err := json.Marshal(out)
		if err == nil {
			err = store.SetWithHash(key, fresh, data)
		}
		if err != nil {
			logger.Warn("cache write failed", "error", err)
		}
	}
	return out, nil
}

func loadConfig(c *cli.Context, root string) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	return config.LoadOrDefault(root)
}

// applyFlags overrides config values with flags given on the command line.
func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("format") {
		cfg.Output.Format = c.String("format")
	}
	if c.IsSet("depth") {
		cfg.Output.Depth = c.Int("depth")
	}
	if c.IsSet("workers") {
		cfg.Analysis.Workers = c.Int("workers")
	}
	if c.IsSet("max-file-size") {
		cfg.Crawl.MaxFileSize = c.Int64("max-file-size")
	}
	if c.IsSet("cache") {
		cfg.Cache.Enabled = true
		cfg.Cache.Dir = c.String("cache")
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// flagsWithValue lists flags that take a value argument.
var flagsWithValue = map[string]bool{
	"-f": true, "--f": true,
	"-format": true, "--format": true,
	"-o": true, "--o": true,
	"-output": true, "--output": true,
	"-c": true, "--c": true,
	"-config": true, "--config": true,
	"-workers": true, "--workers": true,
	"-max-file-size": true, "--max-file-size": true,
	"-cache": true, "--cache": true,
	"-depth": true, "--depth": true,
}

var commandNames = map[string]bool{"init": true, "help": true, "h": true}

// reorderArgs moves positional arguments after all flags so that flags given
// after the path are still parsed. A leading subcommand name stays first.
func reorderArgs(args []string) []string {
	if len(args) > 0 && commandNames[args[0]] {
		return append([]string{args[0]}, reorderArgs(args[1:])...)
	}
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(args[i]) > 1 && args[i][0] == '-' {
			flags = append(flags, args[i])
			if flagsWithValue[args[i]] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, args[i])
		}
	}
	if len(positional) == 0 {
		return flags
	}
	return append(append(flags, "--"), positional...)
}
