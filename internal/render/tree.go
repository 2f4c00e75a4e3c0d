package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/phobologic/callmap/internal/report"
)

type callTree struct {
	children map[report.DefRef][]report.DefRef
	inCycle  map[report.DefRef]bool
	roots    []report.DefRef
}

func buildCallTree(rep *report.Report) callTree {
	t := callTree{
		children: make(map[report.DefRef][]report.DefRef),
		inCycle:  make(map[report.DefRef]bool),
	}

	var callers []report.DefRef
	called := make(map[report.DefRef]bool)
	for _, e := range rep.CallEdges() {
		if _, seen := t.children[e.Caller]; !seen {
			callers = append(callers, e.Caller)
		}
		t.children[e.Caller] = append(t.children[e.Caller], e.Callee)
		if e.Caller != e.Callee {
			called[e.Callee] = true
		}
	}
	for _, cycle := range rep.Cycles() {
		for _, ref := range cycle {
			t.inCycle[ref] = true
		}
	}

	for _, c := range callers {
		if !called[c] {
			t.roots = append(t.roots, c)
		}
	}
	// A cycle nobody outside it calls has no natural root; start from its
	// first member.
	reached := make(map[report.DefRef]bool)
	var mark func(report.DefRef)
	mark = func(ref report.DefRef) {
		if reached[ref] {
			return
		}
		reached[ref] = true
		for _, child := range t.children[ref] {
			mark(child)
		}
	}
	for _, r := range t.roots {
		mark(r)
	}
	for _, cycle := range rep.Cycles() {
		if !reached[cycle[0]] {
			t.roots = append(t.roots, cycle[0])
			mark(cycle[0])
		}
	}
	return t
}

// Tree writes the caller to callee hierarchy built from definition-level
// edges. A definition already on the current path is printed once more with
// a recursion marker and not expanded. Depth limits the nesting.
func Tree(w io.Writer, rep *report.Report, opts Options) error {
	p := newPalette(opts.Color)
	t := buildCallTree(rep)

	if len(t.roots) == 0 {
		_, err := fmt.Fprintln(w, "No calls between definitions.")
		return err
	}

	var b strings.Builder
	for _, root := range t.roots {
		label := defLabel(root)
		if t.inCycle[root] {
			label += " " + p.warn.Sprint("[cycle]")
		}
		b.WriteString(label + "\n")
		t.writeChildren(&b, p, root, "", map[report.DefRef]bool{root: true}, 1, opts.Depth)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (t callTree) writeChildren(b *strings.Builder, p palette, node report.DefRef, prefix string, path map[report.DefRef]bool, depth, maxDepth int) {
	children := t.children[node]
	for i, child := range children {
		last := i == len(children)-1
		branch, indent := "├── ", "│   "
		if last {
			branch, indent = "└── ", "    "
		}

		label := defLabel(child)
		switch {
		case path[child]:
			b.WriteString(prefix + branch + label + " " + p.warn.Sprint("[recursive]") + "\n")
			continue
		case maxDepth > 0 && depth >= maxDepth && len(t.children[child]) > 0:
			b.WriteString(prefix + branch + label + " " + p.warn.Sprint("[...]") + "\n")
			continue
		}

		b.WriteString(prefix + branch + label + "\n")
		path[child] = true
		t.writeChildren(b, p, child, prefix+indent, path, depth+1, maxDepth)
		delete(path, child)
	}
}
