// Package registry indexes definitions by name. A Builder collects
// definitions during extraction; Build freezes them into a read-only Registry
// that later stages share without locking.
package registry

import (
	"github.com/phobologic/callmap/internal/model"
)

// Group is every definition sharing one name, in insertion order.
type Group struct {
	Name        string
	Definitions []model.Definition
}

// Builder accumulates definitions. It is not safe for concurrent use.
type Builder struct {
	defs   []model.Definition
	byName map[string][]model.DefID
	order  []string
	frozen bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{byName: make(map[string][]model.DefID)}
}

// Insert adds def and returns its assigned ID. It panics after Build.
func (b *Builder) Insert(def model.Definition) model.DefID {
	if b.frozen {
		panic("registry: Insert after Build")
	}
	id := model.DefID(len(b.defs))
	def.ID = id
	b.defs = append(b.defs, def)
	if _, seen := b.byName[def.Name]; !seen {
		b.order = append(b.order, def.Name)
	}
	b.byName[def.Name] = append(b.byName[def.Name], id)
	return id
}

// Build freezes the builder and returns the snapshot.
func (b *Builder) Build() *Registry {
	b.frozen = true
	return &Registry{defs: b.defs, byName: b.byName, order: b.order}
}

// Registry is a frozen name-to-definitions multimap.
type Registry struct {
	defs   []model.Definition
	byName map[string][]model.DefID
	order  []string
}

// Len returns the number of definitions.
func (r *Registry) Len() int {
	return len(r.defs)
}

// Definition returns the definition with the given ID.
func (r *Registry) Definition(id model.DefID) model.Definition {
	return r.defs[id]
}

// Lookup returns every definition named name, in insertion order.
func (r *Registry) Lookup(name string) []model.Definition {
	ids := r.byName[name]
	if len(ids) == 0 {
		return nil
	}
	out := make([]model.Definition, len(ids))
	for i, id := range ids {
		out[i] = r.defs[id]
	}
	return out
}

// IDs returns the IDs of the definitions named name.
func (r *Registry) IDs(name string) []model.DefID {
	return append([]model.DefID(nil), r.byName[name]...)
}

// All returns every definition in insertion order.
func (r *Registry) All() []model.Definition {
	return append([]model.Definition(nil), r.defs...)
}

// Groups returns all definitions grouped by name. Groups are ordered by the
// first insertion of each name.
func (r *Registry) Groups() []Group {
	groups := make([]Group, 0, len(r.order))
	for _, name := range r.order {
		groups = append(groups, Group{Name: name, Definitions: r.Lookup(name)})
	}
	return groups
}

// DuplicatesOf returns the defining file of each definition named name, or
// nil when the name is defined fewer than twice. A file appears once per
// definition it holds.
func (r *Registry) DuplicatesOf(name string) []string {
	ids := r.byName[name]
	if len(ids) < 2 {
		return nil
	}
	files := make([]string, len(ids))
	for i, id := range ids {
		files[i] = r.defs[id].File
	}
	return files
}

// Duplicates returns the groups with two or more definitions.
func (r *Registry) Duplicates() []Group {
	var out []Group
	for _, name := range r.order {
		if len(r.byName[name]) > 1 {
			out = append(out, Group{Name: name, Definitions: r.Lookup(name)})
		}
	}
	return out
}
