package render

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/callmap/internal/check"
	"github.com/phobologic/callmap/internal/graph"
	"github.com/phobologic/callmap/internal/model"
	"github.com/phobologic/callmap/internal/registry"
	"github.com/phobologic/callmap/internal/report"
	"github.com/phobologic/callmap/internal/usage"
)

func build(defs []model.Definition, calls []model.CallSite, diags ...model.Diagnostic) *report.Report {
	b := registry.NewBuilder()
	for _, d := range defs {
		b.Insert(d)
	}
	reg := b.Build()
	g := graph.Build(reg, calls)
	return report.Build(report.Input{
		Files:       []string{"a.py", "b.py"},
		Registry:    reg,
		Graph:       g,
		Findings:    check.Run(reg, g),
		Unused:      usage.Unused(reg, g),
		Diagnostics: diags,
	})
}

func scenarioReport() *report.Report {
	return build(
		[]model.Definition{
			{
				Name: "process", File: "a.py", Line: 10, Language: model.Python,
				Signature: "process(data, verbose=False)",
				Params: []model.Parameter{
					{Name: "data", Kind: model.KeywordOrPositional},
					{Name: "verbose", Kind: model.KeywordOrPositional, HasDefault: true},
				},
			},
			{Name: "h", File: "a.py", Line: 20, Language: model.Python, Signature: "h()"},
			{Name: "h", File: "b.py", Line: 1, Language: model.Python, Signature: "h()"},
		},
		[]model.CallSite{
			{Callee: "process", File: "b.py", Line: 5, Args: []model.Argument{
				{Kind: model.ArgPositional, Text: `["x"]`},
				{Kind: model.ArgPositional, Text: "True"},
			}},
			{Callee: "process", File: "b.py", Line: 6},
		},
		model.Diagnostic{Kind: model.ParseFailure, Path: "c.py", Message: "syntax error at line 2"},
	)
}

func cycleReport() *report.Report {
	return build(
		[]model.Definition{
			{Name: "main", File: "app.py", Line: 1},
			{Name: "parse", File: "app.py", Line: 10},
			{Name: "emit", File: "out.py", Line: 1},
			{Name: "a", File: "m.py", Line: 1},
			{Name: "b", File: "m.py", Line: 5},
			{Name: "fact", File: "m.py", Line: 20},
		},
		[]model.CallSite{
			{Callee: "parse", File: "app.py", Line: 2, Enclosing: "main", EnclosingLine: 1},
			{Callee: "emit", File: "app.py", Line: 11, Enclosing: "parse", EnclosingLine: 10},
			{Callee: "b", File: "m.py", Line: 2, Enclosing: "a", EnclosingLine: 1},
			{Callee: "a", File: "m.py", Line: 6, Enclosing: "b", EnclosingLine: 5},
			{Callee: "fact", File: "m.py", Line: 21, Enclosing: "fact", EnclosingLine: 20},
		},
	)
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatTable},
		{"table", FormatTable},
		{"text", FormatTable},
		{"plain", FormatTable},
		{"TXT", FormatTable},
		{"json", FormatJSON},
		{"csv", FormatCSV},
		{"tree", FormatTree},
		{"toon", FormatTOON},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseFormat("xml")
	assert.ErrorContains(t, err, "unknown format")
}

func TestJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, scenarioReport(), FormatJSON, Options{}))

	var data report.Data
	require.NoError(t, json.Unmarshal(buf.Bytes(), &data))
	assert.Equal(t, 3, data.Summary.Definitions)
	assert.Equal(t, 1, data.Summary.Mismatches)
	require.Len(t, data.Mismatches, 1)
	assert.Equal(t, model.ReasonMissingRequired, data.Mismatches[0].Reason)
	assert.Equal(t, []string{"h"}, data.Unused)
	assert.Equal(t, []report.DuplicateGroup{{Name: "h", Files: []string{"a.py", "b.py"}}}, data.Duplicates)
}

func TestCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, scenarioReport(), FormatCSV, Options{}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, []string{"process", "a.py", "10", "process(data, verbose=False)", "py", "2", "b.py", "5", `["x"], True`, "ok", ""}, records[1])
	assert.Equal(t, []string{"process", "a.py", "10", "process(data, verbose=False)", "py", "2", "b.py", "6", "", "mismatch", "missing-required"}, records[2])
	assert.Equal(t, "h", records[3][0])
	assert.Equal(t, "", records[3][6])
}

func TestTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, scenarioReport(), FormatTable, Options{Color: false}))
	out := buf.String()

	for _, want := range []string{
		"Definitions",
		"process(data, verbose=False)",
		"missing-required",
		`argument for "data"`,
		"Duplicates",
		"a.py, b.py",
		"Unused",
		"Diagnostics",
		"syntax error at line 2",
		"3 definitions, 2 calls (2 matched, 0 ambiguous, 0 unmatched), 1 mismatches",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "\x1b[", "no escape codes without color")
}

func TestTableEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Table(&buf, build(nil, nil), Options{}))
	out := buf.String()
	assert.Contains(t, out, "No definitions found.")
	assert.Contains(t, out, "No parameter mismatches.")
	assert.Contains(t, out, "No duplicate definitions.")
	assert.Contains(t, out, "No unused definitions.")
}

func TestTree(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, cycleReport(), FormatTree, Options{}))

	want := strings.Join([]string{
		"main (app.py:1)",
		"└── parse (app.py:10)",
		"    └── emit (out.py:1)",
		"fact (m.py:20) [cycle]",
		"└── fact (m.py:20) [recursive]",
		"a (m.py:1) [cycle]",
		"└── b (m.py:5)",
		"    └── a (m.py:1) [recursive]",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestTreeDepthLimit(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Tree(&buf, cycleReport(), Options{Depth: 1}))
	out := buf.String()
	assert.Contains(t, out, "└── parse (app.py:10) [...]")
	assert.NotContains(t, out, "emit")
}

func TestTreeNoEdges(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Tree(&buf, scenarioReport(), Options{}))
	assert.Equal(t, "No calls between definitions.\n", buf.String())
}

func TestEncodeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", `""`},
		{"simple", "hello", "hello"},
		{"leading space", " hello", `" hello"`},
		{"newline", "a\nb", `"a\nb"`},
		{"true keyword", "true", `"true"`},
		{"True keyword", "True", `"True"`},
		{"null keyword", "null", `"null"`},
		{"integer", "42", "42"},
		{"negative integer", "-1", "-1"},
		{"float", "3.14", "3.14"},
		{"comma", "a,b", `"a,b"`},
		{"colon", "a.py:10", `"a.py:10"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `App\render`, `"App\\render"`},
		{"bracket", `["x"]`, `"[\"x\"]"`},
		{"dash prefix", "-foo", `"-foo"`},
		{"path", "src/main.py", "src/main.py"},
		{"signature", "run(self) -> None", "run(self) -> None"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, encodeValue(tt.in))
		})
	}
}

func TestTOON(t *testing.T) {
	t.Parallel()

	out := TOON(scenarioReport(), "shop")
	lines := strings.Split(out, "\n")
	assert.Equal(t, "project: shop", lines[0])
	assert.Equal(t, "summary[1]{files,definitions,calls,matched,ambiguous,unmatched,mismatches,unused,duplicates,diagnostics}:", lines[1])
	assert.Equal(t, "  2,3,2,2,0,0,1,2,1,1", lines[2])

	assert.Contains(t, out, "definitions[3]{name,file,line,language,signature,calls}:")
	assert.Contains(t, out, `  process,a.py,10,py,"process(data, verbose=False)",2`)
	assert.Contains(t, out, "calls[2]{function,definition,file,line,args,status,reason}:")
	assert.Contains(t, out, `  process,"a.py:10",b.py,6,"",mismatch,missing-required`)
	assert.Contains(t, out, "mismatches[1]{function,file,line,reason,expected,actual}:")
	assert.Contains(t, out, "duplicates[1]{name,files}:\n  h,a.py b.py")
	assert.Contains(t, out, "unused[2]{name,file,line}:")
	assert.Contains(t, out, "edges[0]{caller,callee}:")
	assert.Contains(t, out, "diagnostics[1]{kind,path,message}:")
	assert.NotContains(t, out, "cycles[")
}

func TestTOONCycles(t *testing.T) {
	t.Parallel()

	out := TOON(cycleReport(), "")
	assert.False(t, strings.HasPrefix(out, "project:"))
	assert.Contains(t, out, "cycles[2]{members}:\n  a b\n  fact")
}

func TestTableUnmatched(t *testing.T) {
	t.Parallel()

	rep := build(
		[]model.Definition{{Name: "f", File: "a.py", Line: 1, Signature: "f()"}},
		[]model.CallSite{{Callee: "missing", File: "a.py", Line: 3, Args: []model.Argument{{Kind: model.ArgPositional, Text: "1"}}}},
	)
	var buf bytes.Buffer
	require.NoError(t, Table(&buf, rep, Options{}))
	out := buf.String()
	assert.Contains(t, out, "Unmatched")
	assert.Contains(t, out, "missing")
	assert.Contains(t, out, "a.py:3")
}
