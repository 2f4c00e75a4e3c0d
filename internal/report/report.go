// Package report assembles the analysis results into one immutable Report.
// Renderers read it through accessors that return copies.
package report

import (
	"github.com/phobologic/callmap/internal/graph"
	"github.com/phobologic/callmap/internal/model"
	"github.com/phobologic/callmap/internal/registry"
)

// Status is the per-call verdict shown under a definition.
type Status string

const (
	StatusOK        Status = "ok"
	StatusMismatch  Status = "mismatch"
	StatusAmbiguous Status = "ambiguous"
)

// CallEntry is one call listed under a definition.
type CallEntry struct {
	Call   model.CallSite
	Status Status
	Reason model.Reason // set when Status is StatusMismatch
}

// DefinitionEntry is a definition with the calls that reach it.
type DefinitionEntry struct {
	Definition model.Definition
	CallCount  int // matched calls only
	Calls      []CallEntry
}

// Mismatch is a flattened MismatchFinding.
type Mismatch struct {
	Function string       `json:"function"`
	File     string       `json:"file"`
	Line     int          `json:"line"`
	Reason   model.Reason `json:"reason"`
	Expected string       `json:"expected"`
	Actual   string       `json:"actual"`
	DefFile  string       `json:"def_file"`
	DefLine  int          `json:"def_line"`
}

// DefRef identifies a definition by name and location.
type DefRef struct {
	Name string `json:"name"`
	File string `json:"file"`
	Line int    `json:"line"`
}

// CallEdge is a definition-level edge for tree views.
type CallEdge struct {
	Caller DefRef `json:"caller"`
	Callee DefRef `json:"callee"`
}

// DuplicateGroup lists the defining files of a name defined more than once.
type DuplicateGroup struct {
	Name  string   `json:"name"`
	Files []string `json:"files"`
}

// Summary holds headline counts.
type Summary struct {
	Files       int `json:"files"`
	Definitions int `json:"definitions"`
	Calls       int `json:"calls"`
	Matched     int `json:"matched"`
	Ambiguous   int `json:"ambiguous"`
	Unmatched   int `json:"unmatched"`
	Mismatches  int `json:"mismatches"`
	Unused      int `json:"unused"`
	Duplicates  int `json:"duplicates"`
	Diagnostics int `json:"diagnostics"`
}

// Input is everything Build projects into a Report.
type Input struct {
	Files       []string
	Registry    *registry.Registry
	Graph       *graph.CallGraph
	Findings    []model.MismatchFinding
	Unused      []model.Definition
	Diagnostics []model.Diagnostic
}

// Report is the immutable result of one analysis run.
type Report struct {
	files       []string
	definitions []DefinitionEntry
	unused      []model.Definition
	mismatches  []Mismatch
	duplicates  []DuplicateGroup
	edges       []model.ResolutionEdge
	unmatched   []model.CallSite
	callEdges   []CallEdge
	cycles      [][]DefRef
	diagnostics []model.Diagnostic
	summary     Summary
}

// Build projects in into a Report without recomputing any analysis.
func Build(in Input) *Report {
	reg, g := in.Registry, in.Graph

	r := &Report{
		files:       append([]string(nil), in.Files...),
		unused:      append([]model.Definition(nil), in.Unused...),
		edges:       g.Edges(),
		diagnostics: append([]model.Diagnostic(nil), in.Diagnostics...),
	}

	findings := make(map[int]model.MismatchFinding, len(in.Findings))
	for _, f := range in.Findings {
		findings[f.Edge] = f
		def := reg.Definition(f.Def)
		r.mismatches = append(r.mismatches, Mismatch{
			Function: def.Name,
			File:     f.Call.File,
			Line:     f.Call.Line,
			Reason:   f.Reason,
			Expected: f.Expected,
			Actual:   f.Actual,
			DefFile:  def.File,
			DefLine:  def.Line,
		})
	}

	calls := make(map[model.DefID][]CallEntry)
	counts := make(map[model.DefID]int)
	for i, e := range r.edges {
		r.summary.Calls++
		switch e.Outcome {
		case model.Matched:
			r.summary.Matched++
			entry := CallEntry{Call: e.Call, Status: StatusOK}
			if f, ok := findings[i]; ok {
				entry.Status = StatusMismatch
				entry.Reason = f.Reason
			}
			calls[e.Target] = append(calls[e.Target], entry)
			counts[e.Target]++
		case model.Ambiguous:
			r.summary.Ambiguous++
			for _, id := range e.Candidates {
				calls[id] = append(calls[id], CallEntry{Call: e.Call, Status: StatusAmbiguous})
			}
		default:
			r.summary.Unmatched++
			r.unmatched = append(r.unmatched, e.Call)
		}
	}

	for _, group := range reg.Groups() {
		for _, d := range group.Definitions {
			r.definitions = append(r.definitions, DefinitionEntry{
				Definition: d,
				CallCount:  counts[d.ID],
				Calls:      calls[d.ID],
			})
		}
	}

	for _, group := range reg.Duplicates() {
		r.duplicates = append(r.duplicates, DuplicateGroup{
			Name:  group.Name,
			Files: reg.DuplicatesOf(group.Name),
		})
	}

	ref := func(id model.DefID) DefRef {
		d := reg.Definition(id)
		return DefRef{Name: d.Name, File: d.File, Line: d.Line}
	}
	for _, e := range g.DefEdges() {
		r.callEdges = append(r.callEdges, CallEdge{Caller: ref(e.Caller), Callee: ref(e.Callee)})
	}
	for _, cycle := range g.Cycles() {
		refs := make([]DefRef, len(cycle))
		for i, id := range cycle {
			refs[i] = ref(id)
		}
		r.cycles = append(r.cycles, refs)
	}

	r.summary.Files = len(r.files)
	r.summary.Definitions = reg.Len()
	r.summary.Mismatches = len(r.mismatches)
	r.summary.Unused = len(r.unused)
	r.summary.Duplicates = len(r.duplicates)
	r.summary.Diagnostics = len(r.diagnostics)
	return r
}

// Definitions returns every definition grouped by name, names in the order
// first encountered.
func (r *Report) Definitions() []DefinitionEntry {
	out := make([]DefinitionEntry, len(r.definitions))
	for i, d := range r.definitions {
		d.Calls = append([]CallEntry(nil), d.Calls...)
		out[i] = d
	}
	return out
}

// Unused returns the names of unused definitions in definition order. A name
// defined several times appears once.
func (r *Report) Unused() []string {
	seen := make(map[string]struct{}, len(r.unused))
	var names []string
	for _, d := range r.unused {
		if _, dup := seen[d.Name]; dup {
			continue
		}
		seen[d.Name] = struct{}{}
		names = append(names, d.Name)
	}
	return names
}

// UnusedDefinitions returns the unused definitions themselves.
func (r *Report) UnusedDefinitions() []model.Definition {
	return append([]model.Definition(nil), r.unused...)
}

// Mismatches returns the mismatch findings in call order.
func (r *Report) Mismatches() []Mismatch {
	return append([]Mismatch(nil), r.mismatches...)
}

// Duplicates maps each name defined more than once to its defining files.
func (r *Report) Duplicates() map[string][]string {
	out := make(map[string][]string, len(r.duplicates))
	for _, d := range r.duplicates {
		out[d.Name] = append([]string(nil), d.Files...)
	}
	return out
}

// DuplicateGroups returns the duplicate groups in first-encounter order.
func (r *Report) DuplicateGroups() []DuplicateGroup {
	out := make([]DuplicateGroup, len(r.duplicates))
	for i, d := range r.duplicates {
		out[i] = DuplicateGroup{Name: d.Name, Files: append([]string(nil), d.Files...)}
	}
	return out
}

// Unmatched returns the calls that resolved to no definition.
func (r *Report) Unmatched() []model.CallSite {
	return append([]model.CallSite(nil), r.unmatched...)
}

// Edges returns every resolution edge in call order.
func (r *Report) Edges() []model.ResolutionEdge {
	return append([]model.ResolutionEdge(nil), r.edges...)
}

// CallEdges returns the definition-level call edges.
func (r *Report) CallEdges() []CallEdge {
	return append([]CallEdge(nil), r.callEdges...)
}

// Cycles returns groups of mutually recursive definitions.
func (r *Report) Cycles() [][]DefRef {
	out := make([][]DefRef, len(r.cycles))
	for i, c := range r.cycles {
		out[i] = append([]DefRef(nil), c...)
	}
	return out
}

// Diagnostics returns the recoverable problems met during the run.
func (r *Report) Diagnostics() []model.Diagnostic {
	return append([]model.Diagnostic(nil), r.diagnostics...)
}

// Summary returns headline counts.
func (r *Report) Summary() Summary {
	return r.summary
}

// Files returns the analyzed file paths in crawl order.
func (r *Report) Files() []string {
	return append([]string(nil), r.files...)
}
