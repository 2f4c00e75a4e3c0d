package render

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/phobologic/callmap/internal/report"
)

var csvHeader = []string{
	"function", "def_file", "def_line", "signature", "language", "call_count",
	"call_file", "call_line", "args", "status", "reason",
}

// CSV writes one row per (definition, call). A definition without calls
// gets a single row with empty call columns.
func CSV(w io.Writer, rep *report.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, e := range rep.Definitions() {
		d := e.Definition
		base := []string{d.Name, d.File, strconv.Itoa(d.Line), d.Signature, string(d.Language), strconv.Itoa(e.CallCount)}
		if len(e.Calls) == 0 {
			if err := cw.Write(append(base, "", "", "", "", "")); err != nil {
				return err
			}
			continue
		}
		for _, c := range e.Calls {
			row := append(append([]string(nil), base...),
				c.Call.File, strconv.Itoa(c.Call.Line), c.Call.ArgsText(), string(c.Status), string(c.Reason))
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
