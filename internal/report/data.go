package report

// Data is a plain, serializable view of a Report.
type Data struct {
	Summary     Summary          `json:"summary"`
	Definitions []DefinitionData `json:"definitions"`
	Unused      []string         `json:"unused"`
	Mismatches  []Mismatch       `json:"mismatches"`
	Duplicates  []DuplicateGroup `json:"duplicates"`
	Unmatched   []CallData       `json:"unmatched"`
	Cycles      [][]DefRef       `json:"cycles"`
	Diagnostics []DiagnosticData `json:"diagnostics"`
}

// DefinitionData is the serializable form of a DefinitionEntry.
type DefinitionData struct {
	Name      string     `json:"name"`
	File      string     `json:"file"`
	Line      int        `json:"line"`
	Signature string     `json:"signature"`
	Language  string     `json:"language"`
	Class     string     `json:"class,omitempty"`
	CallCount int        `json:"call_count"`
	Calls     []CallData `json:"calls"`
}

// CallData is the serializable form of a call.
type CallData struct {
	Callee string `json:"callee"`
	File   string `json:"file"`
	Line   int    `json:"line"`
	Args   string `json:"args"`
	Status string `json:"status,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// DiagnosticData is the serializable form of a diagnostic.
type DiagnosticData struct {
	Kind    string `json:"kind"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Data returns the serializable view. Slices are never nil so encoders emit
// empty lists rather than null.
func (r *Report) Data() Data {
	d := Data{
		Summary:     r.summary,
		Definitions: make([]DefinitionData, 0, len(r.definitions)),
		Unused:      r.Unused(),
		Mismatches:  r.Mismatches(),
		Duplicates:  r.DuplicateGroups(),
		Unmatched:   make([]CallData, 0, len(r.unmatched)),
		Cycles:      r.Cycles(),
		Diagnostics: make([]DiagnosticData, 0, len(r.diagnostics)),
	}
	if d.Unused == nil {
		d.Unused = []string{}
	}
	if d.Mismatches == nil {
		d.Mismatches = []Mismatch{}
	}

	for _, e := range r.definitions {
		def := e.Definition
		dd := DefinitionData{
			Name:      def.Name,
			File:      def.File,
			Line:      def.Line,
			Signature: def.Signature,
			Language:  string(def.Language),
			Class:     def.Class,
			CallCount: e.CallCount,
			Calls:     make([]CallData, 0, len(e.Calls)),
		}
		for _, c := range e.Calls {
			dd.Calls = append(dd.Calls, CallData{
				Callee: c.Call.Callee,
				File:   c.Call.File,
				Line:   c.Call.Line,
				Args:   c.Call.ArgsText(),
				Status: string(c.Status),
				Reason: string(c.Reason),
			})
		}
		d.Definitions = append(d.Definitions, dd)
	}

	for _, c := range r.unmatched {
		d.Unmatched = append(d.Unmatched, CallData{
			Callee: c.Callee,
			File:   c.File,
			Line:   c.Line,
			Args:   c.ArgsText(),
		})
	}

	for _, diag := range r.diagnostics {
		d.Diagnostics = append(d.Diagnostics, DiagnosticData{
			Kind:    string(diag.Kind),
			Path:    diag.Path,
			Message: diag.Message,
		})
	}
	return d
}
