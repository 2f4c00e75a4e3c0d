package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/phobologic/callmap/internal/report"
)

type palette struct {
	title *color.Color
	bad   *color.Color
	warn  *color.Color
	ok    *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		title: color.New(color.Bold),
		bad:   color.New(color.FgRed),
		warn:  color.New(color.FgYellow),
		ok:    color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.title, p.bad, p.warn, p.ok} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) status(s report.Status) string {
	switch s {
	case report.StatusMismatch:
		return p.bad.Sprint(string(s))
	case report.StatusAmbiguous:
		return p.warn.Sprint(string(s))
	default:
		return p.ok.Sprint(string(s))
	}
}

// Table writes the human-readable report: definitions with their calls,
// then mismatches, duplicates, unused definitions, calls to unknown functions,
// diagnostics and a summary.
func Table(w io.Writer, rep *report.Report, opts Options) error {
	p := newPalette(opts.Color)

	defs := rep.Definitions()
	section(w, p, "Definitions")
	if len(defs) == 0 {
		fmt.Fprintln(w, "No definitions found.")
		fmt.Fprintln(w)
	} else {
		var rows [][]string
		for _, e := range defs {
			d := e.Definition
			rows = append(rows, []string{d.Name, location(d.File, d.Line), d.Signature, string(d.Language), strconv.Itoa(e.CallCount)})
			for _, c := range e.Calls {
				status := p.status(c.Status)
				if c.Reason != "" {
					status += " (" + string(c.Reason) + ")"
				}
				rows = append(rows, []string{
					"  <- " + location(c.Call.File, c.Call.Line),
					"",
					truncate(c.Call.Callee+"("+c.Call.ArgsText()+")", 60),
					"",
					status,
				})
			}
		}
		writeTable(w, []string{"Function", "Location", "Signature / Call", "Lang", "Calls"}, rows)
	}

	mismatches := rep.Mismatches()
	section(w, p, "Mismatches")
	if len(mismatches) == 0 {
		fmt.Fprintln(w, p.ok.Sprint("No parameter mismatches."))
		fmt.Fprintln(w)
	} else {
		var rows [][]string
		for _, m := range mismatches {
			rows = append(rows, []string{
				m.Function,
				location(m.File, m.Line),
				p.bad.Sprint(string(m.Reason)),
				m.Expected,
				m.Actual,
				location(m.DefFile, m.DefLine),
			})
		}
		writeTable(w, []string{"Function", "Call", "Reason", "Expected", "Actual", "Defined"}, rows)
	}

	dups := rep.DuplicateGroups()
	section(w, p, "Duplicates")
	if len(dups) == 0 {
		fmt.Fprintln(w, "No duplicate definitions.")
		fmt.Fprintln(w)
	} else {
		var rows [][]string
		for _, d := range dups {
			rows = append(rows, []string{d.Name, strconv.Itoa(len(d.Files)), strings.Join(d.Files, ", ")})
		}
		writeTable(w, []string{"Function", "Count", "Files"}, rows)
	}

	unused := rep.UnusedDefinitions()
	section(w, p, "Unused")
	if len(unused) == 0 {
		fmt.Fprintln(w, "No unused definitions.")
		fmt.Fprintln(w)
	} else {
		var rows [][]string
		for _, d := range unused {
			rows = append(rows, []string{d.Name, location(d.File, d.Line)})
		}
		writeTable(w, []string{"Function", "Location"}, rows)
	}

	if unmatched := rep.Unmatched(); len(unmatched) > 0 {
		section(w, p, "Unmatched")
		var rows [][]string
		for _, c := range unmatched {
			rows = append(rows, []string{c.Callee, location(c.File, c.Line), truncate(c.ArgsText(), 60)})
		}
		writeTable(w, []string{"Function", "Call", "Args"}, rows)
	}

	if diags := rep.Diagnostics(); len(diags) > 0 {
		section(w, p, "Diagnostics")
		var rows [][]string
		for _, d := range diags {
			rows = append(rows, []string{p.warn.Sprint(string(d.Kind)), d.Path, d.Message})
		}
		writeTable(w, []string{"Kind", "Path", "Message"}, rows)
	}

	s := rep.Summary()
	fmt.Fprintf(w, "%d files, %d definitions, %d calls (%d matched, %d ambiguous, %d unmatched), %s, %d unused, %d duplicate names\n",
		s.Files, s.Definitions, s.Calls, s.Matched, s.Ambiguous, s.Unmatched,
		mismatchCount(p, s.Mismatches), s.Unused, s.Duplicates)
	return nil
}

func mismatchCount(p palette, n int) string {
	text := fmt.Sprintf("%d mismatches", n)
	if n > 0 {
		return p.bad.Sprint(text)
	}
	return text
}

func section(w io.Writer, p palette, title string) {
	fmt.Fprintln(w, p.title.Sprint(title))
	fmt.Fprintln(w, strings.Repeat("=", len(title)))
}

func writeTable(w io.Writer, headers []string, rows [][]string) {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
			},
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.Border{
				Left:   tw.Off,
				Right:  tw.Off,
				Top:    tw.Off,
				Bottom: tw.Off,
			},
			Settings: tw.Settings{
				Separators: tw.Separators{
					BetweenColumns: tw.Off,
				},
			},
		}),
	)

	table.Header(headers)
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
	fmt.Fprintln(w)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
