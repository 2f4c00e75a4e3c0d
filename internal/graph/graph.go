// Package graph resolves call sites to definitions by name and exposes the
// resulting caller/callee edges.
package graph

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/phobologic/callmap/internal/model"
	"github.com/phobologic/callmap/internal/registry"
)

// DefEdge is a definition-level call edge: the body of Caller contains a
// matched call to Callee.
type DefEdge struct {
	Caller model.DefID
	Callee model.DefID
}

type defKey struct {
	name string
	file string
	line int
}

// CallGraph holds exactly one resolution edge per call site, in call order.
// It is read-only after Build.
type CallGraph struct {
	edges    []model.ResolutionEdge
	incoming map[model.DefID][]int
	byCallee map[string][]int
	defs     map[defKey]model.DefID
}

// Build resolves every call against reg. Zero candidates is unmatched, one is
// matched, more than one is ambiguous. File proximity is never used to pick
// among candidates.
func Build(reg *registry.Registry, calls []model.CallSite) *CallGraph {
	g := &CallGraph{
		edges:    make([]model.ResolutionEdge, 0, len(calls)),
		incoming: make(map[model.DefID][]int),
		byCallee: make(map[string][]int),
		defs:     make(map[defKey]model.DefID, reg.Len()),
	}

	for _, d := range reg.All() {
		g.defs[defKey{d.Name, d.File, d.Line}] = d.ID
	}

	for _, call := range calls {
		edge := model.ResolutionEdge{Call: call, Target: model.NoDef}
		ids := reg.IDs(call.Callee)
		switch len(ids) {
		case 0:
			edge.Outcome = model.Unmatched
		case 1:
			edge.Outcome = model.Matched
			edge.Target = ids[0]
		default:
			edge.Outcome = model.Ambiguous
			edge.Candidates = ids
		}

		idx := len(g.edges)
		g.edges = append(g.edges, edge)
		if edge.Outcome == model.Matched {
			g.incoming[edge.Target] = append(g.incoming[edge.Target], idx)
			g.byCallee[call.Callee] = append(g.byCallee[call.Callee], idx)
		}
	}
	return g
}

// Edges returns every resolution edge in call order.
func (g *CallGraph) Edges() []model.ResolutionEdge {
	return append([]model.ResolutionEdge(nil), g.edges...)
}

// Matched returns the matched edges in call order.
func (g *CallGraph) Matched() []model.ResolutionEdge {
	var out []model.ResolutionEdge
	for _, e := range g.edges {
		if e.Outcome == model.Matched {
			out = append(out, e)
		}
	}
	return out
}

// IncomingMatched returns the matched edges that resolve to id.
func (g *CallGraph) IncomingMatched(id model.DefID) []model.ResolutionEdge {
	return g.pick(g.incoming[id])
}

// CalleeEdges returns the matched edges whose callee is name.
func (g *CallGraph) CalleeEdges(name string) []model.ResolutionEdge {
	return g.pick(g.byCallee[name])
}

func (g *CallGraph) pick(idx []int) []model.ResolutionEdge {
	if len(idx) == 0 {
		return nil
	}
	out := make([]model.ResolutionEdge, len(idx))
	for i, j := range idx {
		out[i] = g.edges[j]
	}
	return out
}

// CallerOf returns the definition whose body contains the edge's call site.
// Module-level calls have no caller.
func (g *CallGraph) CallerOf(edge model.ResolutionEdge) (model.DefID, bool) {
	c := edge.Call
	if c.Enclosing == "" {
		return model.NoDef, false
	}
	id, ok := g.defs[defKey{c.Enclosing, c.File, c.EnclosingLine}]
	return id, ok
}

// DefEdges returns the distinct definition-level edges of matched calls made
// from inside a definition, sorted by caller then callee.
func (g *CallGraph) DefEdges() []DefEdge {
	seen := make(map[DefEdge]struct{})
	var out []DefEdge
	for _, e := range g.edges {
		if e.Outcome != model.Matched {
			continue
		}
		caller, ok := g.CallerOf(e)
		if !ok {
			continue
		}
		de := DefEdge{Caller: caller, Callee: e.Target}
		if _, dup := seen[de]; dup {
			continue
		}
		seen[de] = struct{}{}
		out = append(out, de)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Caller != out[j].Caller {
			return out[i].Caller < out[j].Caller
		}
		return out[i].Callee < out[j].Callee
	})
	return out
}

// Cycles returns the recursive groups of the definition-level graph: strongly
// connected components with more than one member, plus self-recursive
// definitions. Members are sorted by ID and groups by their first member.
func (g *CallGraph) Cycles() [][]model.DefID {
	directed := simple.NewDirectedGraph()
	selfLoops := make(map[model.DefID]bool)

	for _, e := range g.DefEdges() {
		if e.Caller == e.Callee {
			selfLoops[e.Caller] = true
			continue
		}
		for _, id := range []model.DefID{e.Caller, e.Callee} {
			if directed.Node(int64(id)) == nil {
				directed.AddNode(simple.Node(id))
			}
		}
		directed.SetEdge(simple.Edge{F: simple.Node(e.Caller), T: simple.Node(e.Callee)})
	}

	var cycles [][]model.DefID
	inMulti := make(map[model.DefID]bool)
	for _, scc := range topo.TarjanSCC(directed) {
		if len(scc) < 2 {
			continue
		}
		members := make([]model.DefID, len(scc))
		for i, n := range scc {
			members[i] = model.DefID(n.ID())
			inMulti[members[i]] = true
		}
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
		cycles = append(cycles, members)
	}
	for id := range selfLoops {
		if !inMulti[id] {
			cycles = append(cycles, []model.DefID{id})
		}
	}

	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}
