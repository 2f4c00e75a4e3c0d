package render

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/callmap/internal/report"
)

var (
	toonNeedsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	toonNumeric      = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	toonKeywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// TOON encodes the report as Token-Oriented Object Notation: one tabular
// block per section, each headed by its row count and column names.
func TOON(rep *report.Report, root string) string {
	var parts []string

	if root != "" {
		parts = append(parts, fmt.Sprintf("project: %s", encodeValue(root)))
	}

	s := rep.Summary()
	parts = append(parts, formatTabular("summary",
		[]string{"files", "definitions", "calls", "matched", "ambiguous", "unmatched", "mismatches", "unused", "duplicates", "diagnostics"},
		[][]string{ints(s.Files, s.Definitions, s.Calls, s.Matched, s.Ambiguous, s.Unmatched, s.Mismatches, s.Unused, s.Duplicates, s.Diagnostics)}))

	var defRows, callRows [][]string
	for _, e := range rep.Definitions() {
		d := e.Definition
		defRows = append(defRows, []string{d.Name, d.File, strconv.Itoa(d.Line), string(d.Language), d.Signature, strconv.Itoa(e.CallCount)})
		for _, c := range e.Calls {
			callRows = append(callRows, []string{
				d.Name,
				location(d.File, d.Line),
				c.Call.File,
				strconv.Itoa(c.Call.Line),
				c.Call.ArgsText(),
				string(c.Status),
				string(c.Reason),
			})
		}
	}
	parts = append(parts, formatTabular("definitions", []string{"name", "file", "line", "language", "signature", "calls"}, defRows))
	parts = append(parts, formatTabular("calls", []string{"function", "definition", "file", "line", "args", "status", "reason"}, callRows))

	var mismatchRows [][]string
	for _, m := range rep.Mismatches() {
		mismatchRows = append(mismatchRows, []string{m.Function, m.File, strconv.Itoa(m.Line), string(m.Reason), m.Expected, m.Actual})
	}
	parts = append(parts, formatTabular("mismatches", []string{"function", "file", "line", "reason", "expected", "actual"}, mismatchRows))

	var dupRows [][]string
	for _, d := range rep.DuplicateGroups() {
		dupRows = append(dupRows, []string{d.Name, strings.Join(d.Files, " ")})
	}
	parts = append(parts, formatTabular("duplicates", []string{"name", "files"}, dupRows))

	var unusedRows [][]string
	for _, d := range rep.UnusedDefinitions() {
		unusedRows = append(unusedRows, []string{d.Name, d.File, strconv.Itoa(d.Line)})
	}
	parts = append(parts, formatTabular("unused", []string{"name", "file", "line"}, unusedRows))

	var edgeRows [][]string
	for _, e := range rep.CallEdges() {
		edgeRows = append(edgeRows, []string{defLabel(e.Caller), defLabel(e.Callee)})
	}
	parts = append(parts, formatTabular("edges", []string{"caller", "callee"}, edgeRows))

	if cycles := rep.Cycles(); len(cycles) > 0 {
		var cycleRows [][]string
		for _, c := range cycles {
			names := make([]string, len(c))
			for i, ref := range c {
				names[i] = ref.Name
			}
			cycleRows = append(cycleRows, []string{strings.Join(names, " ")})
		}
		parts = append(parts, formatTabular("cycles", []string{"members"}, cycleRows))
	}

	if diags := rep.Diagnostics(); len(diags) > 0 {
		var diagRows [][]string
		for _, d := range diags {
			diagRows = append(diagRows, []string{string(d.Kind), d.Path, d.Message})
		}
		parts = append(parts, formatTabular("diagnostics", []string{"kind", "path", "message"}, diagRows))
	}

	return strings.Join(parts, "\n")
}

func ints(values ...int) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strconv.Itoa(v)
	}
	return out
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) || strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := toonKeywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if toonNumeric.MatchString(value) {
		return value
	}

	if toonNeedsQuoting.MatchString(value) || strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	return `"` + r.Replace(value) + `"`
}
