// Package render writes a Report in one of several output formats.
// Renderers only read the Report.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/phobologic/callmap/internal/report"
)

// Format is an output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
	FormatTree  Format = "tree"
	FormatTOON  Format = "toon"
)

// Formats lists the accepted format names, aliases included.
var Formats = []string{"table", "text", "plain", "txt", "json", "csv", "tree", "toon"}

// ParseFormat maps a format name to a Format. text, plain and txt are
// aliases of table.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table", "text", "plain", "txt":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "tree":
		return FormatTree, nil
	case "toon":
		return FormatTOON, nil
	default:
		return "", fmt.Errorf("unknown format %q (want one of %s)", s, strings.Join(Formats, ", "))
	}
}

// Options tunes rendering.
type Options struct {
	Color bool
	Depth int    // tree depth limit; <= 0 means unlimited
	Root  string // project name shown in headers
}

// Render writes rep to w in format f.
func Render(w io.Writer, rep *report.Report, f Format, opts Options) error {
	switch f {
	case FormatJSON:
		return JSON(w, rep)
	case FormatCSV:
		return CSV(w, rep)
	case FormatTree:
		return Tree(w, rep, opts)
	case FormatTOON:
		_, err := fmt.Fprintln(w, TOON(rep, opts.Root))
		return err
	default:
		return Table(w, rep, opts)
	}
}

// JSON writes the report's data view as indented JSON.
func JSON(w io.Writer, rep *report.Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(rep.Data())
}

func location(file string, line int) string {
	return fmt.Sprintf("%s:%d", file, line)
}

func defLabel(ref report.DefRef) string {
	return fmt.Sprintf("%s (%s)", ref.Name, location(ref.File, ref.Line))
}
