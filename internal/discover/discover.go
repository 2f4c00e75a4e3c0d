// Package discover finds analyzable source files in a project tree.
package discover

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/callmap/internal/lang"
	"github.com/phobologic/callmap/internal/model"
)

// ErrProjectNotFound is returned when the root is missing or not a directory.
var ErrProjectNotFound = errors.New("project not found")

// ProjectNotFoundError carries the offending root path.
type ProjectNotFoundError struct {
	Path   string
	Reason string
}

func (e *ProjectNotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// Is lets errors.Is match ErrProjectNotFound.
func (e *ProjectNotFoundError) Is(target error) bool {
	return target == ErrProjectNotFound
}

// FileEntry represents a discovered source file.
type FileEntry struct {
	Path     string // slash-separated, relative to root
	Language model.Language
	Size     int64
}

// Options controls discovery.
type Options struct {
	ExcludeDirs     []string
	ExcludePatterns []string // gitignore syntax
	MaxFileSize     int64    // <= 0 disables the limit
	Gitignore       bool
	Hidden          bool // walk dot directories and files too
	Logger          *slog.Logger
}

var tempSuffixes = []string{"~", ".swp"}

// CheckRoot verifies that root exists and is a directory.
func CheckRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return &ProjectNotFoundError{Path: root, Reason: "does not exist"}
	}
	if !info.IsDir() {
		return &ProjectNotFoundError{Path: root, Reason: "not a directory"}
	}
	return nil
}

// Files discovers .py and .php files under root, sorted by path. Problems with
// individual entries are returned as diagnostics; only a bad root is an error.
func Files(root string, opts Options) ([]FileEntry, []model.Diagnostic, error) {
	if err := CheckRoot(root); err != nil {
		return nil, nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	skipDirs := make(map[string]struct{}, len(opts.ExcludeDirs))
	for _, d := range opts.ExcludeDirs {
		skipDirs[d] = struct{}{}
	}

	var matchers []*ignore.GitIgnore
	if opts.Gitignore {
		if gi := loadGitignore(root); gi != nil {
			matchers = append(matchers, gi)
		}
	}
	if len(opts.ExcludePatterns) > 0 {
		matchers = append(matchers, ignore.CompileIgnoreLines(opts.ExcludePatterns...))
	}

	var (
		results []FileEntry
		diags   []model.Diagnostic
	)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if err != nil {
			if path != root {
				diags = append(diags, model.Diagnostic{
					Kind:    model.UnreadableFile,
					Path:    rel,
					Message: err.Error(),
				})
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip {
				return filepath.SkipDir
			}
			if !opts.Hidden && strings.HasPrefix(name, ".") {
				logger.Debug("skipping hidden directory", "path", rel)
				return filepath.SkipDir
			}
			if ignored(matchers, rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			logger.Debug("skipping symlink", "path", rel)
			return nil
		}
		if !opts.Hidden && strings.HasPrefix(name, ".") {
			logger.Debug("skipping hidden file", "path", rel)
			return nil
		}
		for _, suffix := range tempSuffixes {
			if strings.HasSuffix(name, suffix) {
				return nil
			}
		}

		l := lang.ForExtension(filepath.Ext(name))
		if l == "" {
			return nil
		}
		if ignored(matchers, rel) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			diags = append(diags, model.Diagnostic{Kind: model.UnreadableFile, Path: rel, Message: err.Error()})
			return nil
		}
		if opts.MaxFileSize > 0 && info.Size() > opts.MaxFileSize {
			diags = append(diags, model.Diagnostic{
				Kind:    model.OversizedFile,
				Path:    rel,
				Message: fmt.Sprintf("skipped (%d bytes > %d)", info.Size(), opts.MaxFileSize),
			})
			return nil
		}

		results = append(results, FileEntry{Path: rel, Language: l, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walking %s: %w", root, err)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})
	sort.SliceStable(diags, func(i, j int) bool {
		return diags[i].Path < diags[j].Path
	})

	return results, diags, nil
}

// Read loads the content of a discovered file.
func Read(root string, entry FileEntry) (model.SourceFile, error) {
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(entry.Path)))
	if err != nil {
		return model.SourceFile{}, err
	}
	return model.SourceFile{
		Path:     entry.Path,
		Language: entry.Language,
		Content:  data,
		Size:     int64(len(data)),
	}, nil
}

func ignored(matchers []*ignore.GitIgnore, rel string) bool {
	for _, m := range matchers {
		if m.MatchesPath(rel) {
			return true
		}
	}
	return false
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
