package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/callmap/internal/graph"
	"github.com/phobologic/callmap/internal/model"
	"github.com/phobologic/callmap/internal/registry"
)

func pos(texts ...string) []model.Argument {
	out := make([]model.Argument, len(texts))
	for i, t := range texts {
		out[i] = model.Argument{Kind: model.ArgPositional, Text: t}
	}
	return out
}

func kw(name, text string) model.Argument {
	return model.Argument{Kind: model.ArgKeyword, Name: name, Text: text}
}

func param(name string, kind model.ParamKind, hasDefault bool) model.Parameter {
	return model.Parameter{Name: name, Kind: kind, HasDefault: hasDefault}
}

// fab is f(a, b=1).
var fab = model.Definition{
	ID:   0,
	Name: "f",
	File: "a.py",
	Line: 1,
	Params: []model.Parameter{
		param("a", model.KeywordOrPositional, false),
		param("b", model.KeywordOrPositional, true),
	},
}

func TestCall(t *testing.T) {
	t.Parallel()

	variadic := model.Definition{Name: "v", Params: []model.Parameter{
		param("first", model.KeywordOrPositional, false),
		param("rest", model.VariadicPositional, false),
	}}
	kwargs := model.Definition{Name: "k", Params: []model.Parameter{
		param("a", model.KeywordOrPositional, false),
		param("b", model.KeywordOrPositional, false),
		param("options", model.VariadicKeyword, false),
	}}
	kwOnly := model.Definition{Name: "ko", Params: []model.Parameter{
		param("a", model.Positional, false),
		param("key", model.KeywordOnly, false),
	}}
	php := model.Definition{Name: "send", Language: model.PHP, Params: []model.Parameter{
		param("to", model.Positional, false),
		param("body", model.Positional, true),
	}}

	tests := []struct {
		name     string
		def      model.Definition
		args     []model.Argument
		reason   model.Reason
		expected string
		actual   string
	}{
		{name: "ok single positional", def: fab, args: pos("1")},
		{name: "ok both positional", def: fab, args: pos("1", "2")},
		{name: "ok keyword", def: fab, args: []model.Argument{kw("a", "1"), kw("b", "2")}},
		{
			name: "too many positional", def: fab, args: pos("1", "2", "3"),
			reason: model.ReasonArity, expected: "1-2 positional", actual: "3 positional",
		},
		{
			name: "unknown keyword", def: fab, args: []model.Argument{kw("a", "1"), kw("c", "2")},
			reason: model.ReasonUnknownKeyword, expected: "one of a, b", actual: `keyword "c"`,
		},
		{
			name: "missing required", def: fab, args: nil,
			reason: model.ReasonMissingRequired, expected: `argument for "a"`, actual: "0 positional",
		},
		{
			name: "missing beats unknown keyword", def: fab, args: []model.Argument{kw("c", "2")},
			reason: model.ReasonMissingRequired, expected: `argument for "a"`, actual: "0 positional; keywords c",
		},
		{
			name: "arity beats unknown keyword", def: fab, args: append(pos("1", "2", "3"), kw("zz", "1")),
			reason: model.ReasonArity,
		},
		{name: "variadic absorbs extras", def: variadic, args: pos("1", "2", "3", "4")},
		{
			name: "variadic still needs first", def: variadic, args: nil,
			reason: model.ReasonMissingRequired, expected: `argument for "first"`,
		},
		{name: "kwargs accepts anything", def: kwargs, args: []model.Argument{kw("a", "1"), kw("b", "2"), kw("x", "3")}},
		{
			name: "kwargs too few", def: kwargs, args: pos("1"),
			reason: model.ReasonArity, expected: "at least 2 arguments", actual: "1 arguments",
		},
		{name: "splat fills positional", def: fab, args: []model.Argument{{Kind: model.ArgPositionalSplat, Text: "*xs"}}},
		{name: "kw splat fills keywords", def: kwOnly, args: append(pos("1"), model.Argument{Kind: model.ArgKeywordSplat, Text: "**kw"})},
		{
			name: "keyword only not positional", def: kwOnly, args: pos("1", "2"),
			reason: model.ReasonArity, expected: "1 positional", actual: "2 positional",
		},
		{
			name: "positional only not keyword", def: kwOnly, args: []model.Argument{kw("a", "1"), kw("key", "2")},
			reason: model.ReasonMissingRequired, expected: `argument for "a"`,
		},
		{name: "php ok", def: php, args: pos("$to")},
		{
			name: "php too many", def: php, args: pos("$a", "$b", "$c"),
			reason: model.ReasonArity, expected: "1-2 positional",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			call := model.CallSite{Callee: tt.def.Name, File: "b.py", Line: 3, Args: tt.args}
			f, ok := Call(tt.def, call)
			if tt.reason == "" {
				assert.False(t, ok, "unexpected finding %+v", f)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.reason, f.Reason)
			assert.Equal(t, call, f.Call)
			if tt.expected != "" {
				assert.Equal(t, tt.expected, f.Expected)
			}
			if tt.actual != "" {
				assert.Equal(t, tt.actual, f.Actual)
			}
		})
	}
}

func TestRunProcessScenario(t *testing.T) {
	t.Parallel()

	b := registry.NewBuilder()
	b.Insert(model.Definition{
		Name: "process", File: "a.py", Line: 10,
		Params: []model.Parameter{
			param("data", model.KeywordOrPositional, false),
			param("verbose", model.KeywordOrPositional, true),
		},
	})
	reg := b.Build()

	g := graph.Build(reg, []model.CallSite{
		{Callee: "process", File: "b.py", Line: 5, Args: pos(`["x"]`, "True")},
		{Callee: "process", File: "b.py", Line: 6},
	})

	findings := Run(reg, g)
	require.Len(t, findings, 1)
	assert.Equal(t, model.ReasonMissingRequired, findings[0].Reason)
	assert.Equal(t, 6, findings[0].Call.Line)
	assert.Equal(t, model.DefID(0), findings[0].Def)
	assert.Equal(t, 1, findings[0].Edge)
}

func TestRunSkipsAmbiguous(t *testing.T) {
	t.Parallel()

	b := registry.NewBuilder()
	b.Insert(model.Definition{Name: "h", File: "a.py", Line: 1})
	b.Insert(model.Definition{Name: "h", File: "b.py", Line: 1})
	reg := b.Build()

	g := graph.Build(reg, []model.CallSite{
		{Callee: "h", File: "c.py", Line: 1, Args: pos("1", "2", "3")},
		{Callee: "missing", File: "c.py", Line: 2, Args: pos("1")},
	})
	assert.Empty(t, Run(reg, g))
}

func TestRunSkipsCallableReferences(t *testing.T) {
	t.Parallel()

	b := registry.NewBuilder()
	b.Insert(model.Definition{
		Name: "helper", File: "a.php", Line: 2, Language: model.PHP,
		Params: []model.Parameter{param("x", model.Positional, false)},
	})
	reg := b.Build()

	g := graph.Build(reg, []model.CallSite{
		{Callee: "helper", File: "a.php", Line: 3, Reference: true},
		{Callee: "helper", File: "a.php", Line: 4},
	})

	findings := Run(reg, g)
	require.Len(t, findings, 1)
	assert.Equal(t, 4, findings[0].Call.Line)
	assert.Equal(t, 1, findings[0].Edge)
}
