package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/callmap/internal/model"
)

func def(name, file string, line int) model.Definition {
	return model.Definition{Name: name, File: file, Line: line, Language: model.Python}
}

func TestInsertAssignsIDs(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	assert.Equal(t, model.DefID(0), b.Insert(def("f", "a.py", 1)))
	assert.Equal(t, model.DefID(1), b.Insert(def("g", "a.py", 5)))

	r := b.Build()
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, "g", r.Definition(1).Name)
	assert.Equal(t, model.DefID(1), r.Definition(1).ID)
}

func TestLookupMultimap(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	b.Insert(def("h", "b.py", 3))
	b.Insert(def("g", "a.py", 1))
	b.Insert(def("h", "a.py", 9))
	r := b.Build()

	hs := r.Lookup("h")
	require.Len(t, hs, 2)
	assert.Equal(t, "b.py", hs[0].File)
	assert.Equal(t, "a.py", hs[1].File)
	assert.Nil(t, r.Lookup("missing"))
	assert.Equal(t, []model.DefID{0, 2}, r.IDs("h"))
}

func TestGroupsOrderedByFirstInsertion(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	b.Insert(def("z", "a.py", 1))
	b.Insert(def("a", "a.py", 2))
	b.Insert(def("z", "b.py", 1))
	r := b.Build()

	groups := r.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, "z", groups[0].Name)
	assert.Len(t, groups[0].Definitions, 2)
	assert.Equal(t, "a", groups[1].Name)
}

func TestDuplicates(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	b.Insert(def("h", "a.py", 1))
	b.Insert(def("h", "b.py", 1))
	b.Insert(def("solo", "a.py", 4))
	b.Insert(def("twice", "c.py", 1))
	b.Insert(def("twice", "c.py", 8))
	r := b.Build()

	assert.Equal(t, []string{"a.py", "b.py"}, r.DuplicatesOf("h"))
	assert.Equal(t, []string{"c.py", "c.py"}, r.DuplicatesOf("twice"))
	assert.Nil(t, r.DuplicatesOf("solo"))
	assert.Nil(t, r.DuplicatesOf("missing"))

	dups := r.Duplicates()
	require.Len(t, dups, 2)
	assert.Equal(t, "h", dups[0].Name)
	assert.Equal(t, "twice", dups[1].Name)
}

func TestInsertAfterBuildPanics(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	b.Insert(def("f", "a.py", 1))
	b.Build()
	assert.Panics(t, func() { b.Insert(def("g", "a.py", 2)) })
}

func TestAllReturnsCopy(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	b.Insert(def("f", "a.py", 1))
	r := b.Build()

	all := r.All()
	all[0].Name = "mutated"
	assert.Equal(t, "f", r.Definition(0).Name)
}
