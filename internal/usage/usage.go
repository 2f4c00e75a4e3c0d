// Package usage finds definitions that no call resolves to.
package usage

import (
	"github.com/phobologic/callmap/internal/graph"
	"github.com/phobologic/callmap/internal/model"
	"github.com/phobologic/callmap/internal/registry"
)

// Unused returns the definitions without a matched incoming edge, in
// definition order. Ambiguous and unmatched edges never count as usage.
func Unused(reg *registry.Registry, g *graph.CallGraph) []model.Definition {
	var out []model.Definition
	for _, d := range reg.All() {
		if len(g.IncomingMatched(d.ID)) == 0 {
			out = append(out, d)
		}
	}
	return out
}
