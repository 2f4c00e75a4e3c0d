// Package check compares the arguments of matched calls with the parameters
// of the definition they resolve to.
package check

import (
	"fmt"
	"strings"

	"github.com/phobologic/callmap/internal/graph"
	"github.com/phobologic/callmap/internal/model"
	"github.com/phobologic/callmap/internal/registry"
)

// Run checks every matched edge of g and returns the findings in call order.
// Ambiguous and unmatched edges and callable references are never checked.
func Run(reg *registry.Registry, g *graph.CallGraph) []model.MismatchFinding {
	var findings []model.MismatchFinding
	for i, e := range g.Edges() {
		if e.Outcome != model.Matched || e.Call.Reference {
			continue
		}
		if f, ok := Call(reg.Definition(e.Target), e.Call); ok {
			f.Edge = i
			findings = append(findings, f)
		}
	}
	return findings
}

type shape struct {
	positional   int
	keywords     []model.Argument
	posSplat     bool
	kwSplat      bool
	maxPos       int // -1 when a variadic-positional parameter absorbs extras
	minPos       int
	required     int
	variadicKw   bool
	keywordNames map[string]struct{}
}

func describe(def model.Definition, call model.CallSite) shape {
	s := shape{keywordNames: make(map[string]struct{})}
	for _, a := range call.Args {
		switch a.Kind {
		case model.ArgPositional:
			s.positional++
		case model.ArgKeyword:
			s.keywords = append(s.keywords, a)
		case model.ArgPositionalSplat:
			s.posSplat = true
		case model.ArgKeywordSplat:
			s.kwSplat = true
		}
	}
	for _, p := range def.Params {
		switch {
		case p.Kind == model.VariadicPositional:
			s.maxPos = -1
		case p.Kind == model.VariadicKeyword:
			s.variadicKw = true
		}
		if p.Kind.AcceptsPositional() {
			if s.maxPos >= 0 {
				s.maxPos++
			}
			if p.Required() {
				s.minPos++
			}
		}
		if p.Kind.AcceptsKeyword() {
			s.keywordNames[p.Name] = struct{}{}
		}
		if p.Required() {
			s.required++
		}
	}
	return s
}

// Call checks one call against def. It reports at most one finding, taking
// the first failing rule in the order: too many positional arguments,
// missing required parameter, too few arguments, unknown keyword.
func Call(def model.Definition, call model.CallSite) (model.MismatchFinding, bool) {
	s := describe(def, call)
	finding := func(reason model.Reason, expected, actual string) (model.MismatchFinding, bool) {
		return model.MismatchFinding{
			Call:     call,
			Def:      def.ID,
			Reason:   reason,
			Expected: expected,
			Actual:   actual,
		}, true
	}

	if !s.posSplat && s.maxPos >= 0 && s.positional > s.maxPos {
		return finding(model.ReasonArity, positionalRange(s), fmt.Sprintf("%d positional", s.positional))
	}

	if !s.variadicKw {
		if name, ok := firstUnbound(def, s); ok {
			return finding(model.ReasonMissingRequired, fmt.Sprintf("argument for %q", name), argSummary(s))
		}
	}

	if !s.posSplat && !s.kwSplat && s.positional+len(s.keywords) < s.required {
		return finding(model.ReasonArity,
			fmt.Sprintf("at least %d arguments", s.required),
			fmt.Sprintf("%d arguments", s.positional+len(s.keywords)))
	}

	if !s.variadicKw {
		for _, kw := range s.keywords {
			if _, ok := s.keywordNames[kw.Name]; !ok {
				return finding(model.ReasonUnknownKeyword, keywordChoices(def), fmt.Sprintf("keyword %q", kw.Name))
			}
		}
	}

	return model.MismatchFinding{}, false
}

// firstUnbound returns the first required parameter that neither a
// positional slot nor a keyword can fill. Splats fill every parameter of the
// kind they could reach.
func firstUnbound(def model.Definition, s shape) (string, bool) {
	named := make(map[string]struct{}, len(s.keywords))
	for _, kw := range s.keywords {
		named[kw.Name] = struct{}{}
	}

	slot := 0
	for _, p := range def.Params {
		bound := false
		if p.Kind.AcceptsPositional() {
			bound = slot < s.positional || s.posSplat
			slot++
		}
		if !bound && p.Kind.AcceptsKeyword() {
			_, byName := named[p.Name]
			bound = byName || s.kwSplat
		}
		if !bound && p.Required() {
			return p.Name, true
		}
	}
	return "", false
}

func positionalRange(s shape) string {
	switch {
	case s.maxPos < 0:
		return fmt.Sprintf("at least %d positional", s.minPos)
	case s.minPos == s.maxPos:
		return fmt.Sprintf("%d positional", s.maxPos)
	default:
		return fmt.Sprintf("%d-%d positional", s.minPos, s.maxPos)
	}
}

func argSummary(s shape) string {
	parts := []string{fmt.Sprintf("%d positional", s.positional)}
	if n := len(s.keywords); n > 0 {
		names := make([]string, n)
		for i, kw := range s.keywords {
			names[i] = kw.Name
		}
		parts = append(parts, fmt.Sprintf("keywords %s", strings.Join(names, ", ")))
	}
	return strings.Join(parts, "; ")
}

func keywordChoices(def model.Definition) string {
	var names []string
	for _, p := range def.Params {
		if p.Kind.AcceptsKeyword() {
			names = append(names, p.Name)
		}
	}
	if len(names) == 0 {
		return "no keyword parameters"
	}
	return "one of " + strings.Join(names, ", ")
}
