package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phobologic/callmap/internal/graph"
	"github.com/phobologic/callmap/internal/model"
	"github.com/phobologic/callmap/internal/registry"
)

func names(defs []model.Definition) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.Name + "@" + d.File
	}
	return out
}

func TestUnused(t *testing.T) {
	t.Parallel()

	b := registry.NewBuilder()
	b.Insert(model.Definition{Name: "used", File: "a.py", Line: 1})
	b.Insert(model.Definition{Name: "g", File: "a.py", Line: 5})
	b.Insert(model.Definition{Name: "h", File: "a.py", Line: 9})
	b.Insert(model.Definition{Name: "h", File: "b.py", Line: 1})
	reg := b.Build()

	g := graph.Build(reg, []model.CallSite{
		{Callee: "used", File: "c.py", Line: 1},
		{Callee: "h", File: "c.py", Line: 2},
		{Callee: "unknown", File: "c.py", Line: 3},
	})

	assert.Equal(t, []string{"g@a.py", "h@a.py", "h@b.py"}, names(Unused(reg, g)))
}

func TestUnusedRecursionCounts(t *testing.T) {
	t.Parallel()

	b := registry.NewBuilder()
	b.Insert(model.Definition{Name: "fact", File: "m.py", Line: 1})
	reg := b.Build()

	g := graph.Build(reg, []model.CallSite{
		{Callee: "fact", File: "m.py", Line: 2, Enclosing: "fact", EnclosingLine: 1},
	})
	assert.Empty(t, Unused(reg, g))
}

func TestUnusedEmpty(t *testing.T) {
	t.Parallel()

	reg := registry.NewBuilder().Build()
	assert.Empty(t, Unused(reg, graph.Build(reg, nil)))
}
