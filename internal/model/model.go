// Package model defines the language-agnostic data structures shared by every
// callmap pipeline stage.
package model

import (
	"fmt"
	"strings"
)

// Language identifies the source language of a file.
type Language string

const (
	Python Language = "py"
	PHP    Language = "php"
)

// SourceFile is a crawled file and its content. Immutable once read.
type SourceFile struct {
	Path     string // slash-separated, relative to the project root
	Language Language
	Content  []byte
	Size     int64
}

// ParamKind classifies how a parameter may be bound at a call.
type ParamKind string

const (
	Positional          ParamKind = "positional"
	KeywordOrPositional ParamKind = "keyword-or-positional"
	KeywordOnly         ParamKind = "keyword-only"
	VariadicPositional  ParamKind = "variadic-positional"
	VariadicKeyword     ParamKind = "variadic-keyword"
)

// AcceptsPositional reports whether a positional argument can fill the parameter.
func (k ParamKind) AcceptsPositional() bool {
	return k == Positional || k == KeywordOrPositional
}

// AcceptsKeyword reports whether a keyword argument can fill the parameter.
func (k ParamKind) AcceptsKeyword() bool {
	return k == KeywordOrPositional || k == KeywordOnly
}

// Variadic reports whether the parameter absorbs any number of arguments.
func (k ParamKind) Variadic() bool {
	return k == VariadicPositional || k == VariadicKeyword
}

// Parameter is one declared parameter. Order within a Definition is significant.
type Parameter struct {
	Name       string
	Kind       ParamKind
	HasDefault bool
	// Default is the default expression as written. DefaultKnown is false when
	// the expression is not a static literal.
	Default      string
	DefaultKnown bool
	Type         string
}

// Required reports whether a call must supply the parameter.
func (p Parameter) Required() bool {
	return !p.HasDefault && !p.Kind.Variadic()
}

// DefID indexes a Definition inside a frozen registry.
type DefID int

// NoDef marks the absence of a definition.
const NoDef DefID = -1

// Definition is a function or method declaration.
// Identity is (Name, File, Line).
type Definition struct {
	ID        DefID
	Name      string
	File      string
	Line      int
	Params    []Parameter
	Signature string
	Language  Language
	Class     string
	// Receiver is the bound first parameter of a Python method (self, cls).
	// It is not part of Params.
	Receiver string
}

// Key returns the identity of the definition as a string.
func (d Definition) Key() string {
	return fmt.Sprintf("%s@%s:%d", d.Name, d.File, d.Line)
}

// ArgKind classifies an argument at a call site.
type ArgKind string

const (
	ArgPositional      ArgKind = "positional"
	ArgKeyword         ArgKind = "keyword"
	ArgPositionalSplat ArgKind = "positional-splat"
	ArgKeywordSplat    ArgKind = "keyword-splat"
)

// Argument is one argument as written at a call. Arguments are never evaluated.
type Argument struct {
	Kind ArgKind
	Name string
	Text string
}

// String renders the argument roughly as it appeared in source.
func (a Argument) String() string {
	switch a.Kind {
	case ArgKeyword:
		return a.Name + "=" + a.Text
	default:
		return a.Text
	}
}

// CallSite is one invocation expression.
type CallSite struct {
	Callee   string
	File     string
	Line     int
	Args     []Argument
	Language Language
	Receiver string
	// Enclosing names the definition whose body contains the call, or "" at
	// module level. EnclosingLine is that definition's line.
	Enclosing     string
	EnclosingLine int
	// Reference marks a callable taken without invoking it, as in PHP
	// helper(...). It resolves like a call but its arguments are not checked.
	Reference bool
}

// ArgsText joins the arguments as written.
func (c CallSite) ArgsText() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

// Outcome is the result of resolving a call by name.
type Outcome string

const (
	Matched   Outcome = "matched"
	Ambiguous Outcome = "ambiguous"
	Unmatched Outcome = "unmatched"
)

// ResolutionEdge records how one CallSite resolved. Target is set only when
// Outcome is Matched; Candidates only when it is Ambiguous.
type ResolutionEdge struct {
	Call       CallSite
	Outcome    Outcome
	Target     DefID
	Candidates []DefID
}

// Reason classifies a parameter mismatch.
type Reason string

const (
	ReasonArity           Reason = "arity"
	ReasonMissingRequired Reason = "missing-required"
	ReasonUnknownKeyword  Reason = "unknown-keyword"
)

// MismatchFinding is a matched call whose arguments cannot bind to the
// definition's parameters.
type MismatchFinding struct {
	Edge     int // index of the resolution edge in graph order
	Call     CallSite
	Def      DefID
	Reason   Reason
	Expected string
	Actual   string
}

// DiagnosticKind classifies a recoverable problem.
type DiagnosticKind string

const (
	UnreadableFile DiagnosticKind = "unreadable-file"
	ParseFailure   DiagnosticKind = "parse-error"
	OversizedFile  DiagnosticKind = "oversized-file"
)

// Diagnostic is a non-fatal issue attached to the report.
type Diagnostic struct {
	Kind    DiagnosticKind
	Path    string
	Message string
}
