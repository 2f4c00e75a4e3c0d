package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/phobologic/callmap/internal/config"
)

const (
	sentinelStart = "# callmap:start"
	sentinelEnd   = "# callmap:end"

	defaultConfigPath = "callmap.toml"
)

func initCmd() *cli.Command {
	return &cli.Command{
		Name:      "init",
		Usage:     "Write the default settings to a callmap config file",
		ArgsUsage: "[path]",
		Description: `Write the default callmap settings to a TOML config file. The settings are
wrapped in sentinel comments so they can be refreshed in place on later runs
without touching surrounding content. Creates the file if it does not exist.

path defaults to ./` + defaultConfigPath + `.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Print what would be written without modifying the file",
			},
		},
		Action: runInit,
	}
}

// runInit writes (or updates) the managed settings block in a config file.
func runInit(c *cli.Context) error {
	if c.Args().Len() > 1 {
		return fmt.Errorf("expected at most one path, got %d", c.Args().Len())
	}
	dryRun := c.Bool("dry-run")

	section, err := generateSection()
	if err != nil {
		return err
	}

	// --dry-run with no path: just print the section itself.
	if dryRun && c.Args().Len() == 0 {
		_, _ = fmt.Fprintln(c.App.Writer, section)
		return nil
	}

	path := defaultConfigPath
	if c.Args().Len() == 1 {
		path = c.Args().First()
	}

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	updated := applySection(string(existing), section)

	if dryRun {
		_, _ = fmt.Fprint(c.App.Writer, updated)
		return nil
	}

	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(c.App.ErrWriter, "wrote callmap settings to %s\n", path)
	return nil
}

// generateSection returns the sentinel-wrapped default settings.
func generateSection() (string, error) {
	body, err := config.Marshal(config.DefaultConfig())
	if err != nil {
		return "", err
	}
	header := `# Managed by "callmap init". Edits inside this block are replaced on the
# next run; keep overrides outside it in tables it does not define.
`
	return sentinelStart + "\n" + header + strings.TrimRight(body, "\n") + "\n" + sentinelEnd, nil
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	if content == "" {
		return section + "\n"
	}
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}
