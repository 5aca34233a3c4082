package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

var ErrUnknownFormat = errors.New("unknown output format")

const (
	FormatText    = "text"
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

// Record is the serialized form of a Diagnostic.
type Record struct {
	Severity string `json:"severity" msgpack:"severity"`
	File     string `json:"file" msgpack:"file"`
	Line     int    `json:"line" msgpack:"line"`
	Col      int    `json:"col" msgpack:"col"`
	EndLine  int    `json:"end_line" msgpack:"end_line"`
	EndCol   int    `json:"end_col" msgpack:"end_col"`
	Message  string `json:"message" msgpack:"message"`
}

func (d *Diagnostic) Record() Record {
	return Record{
		Severity: d.Severity.String(),
		File:     d.Location.File,
		Line:     d.Location.Span.Lineno0,
		Col:      d.Location.Span.Col0,
		EndLine:  d.Location.Span.Lineno,
		EndCol:   d.Location.Span.Col,
		Message:  d.Message(),
	}
}

// Encode writes diags to w in the given format.
func Encode(w io.Writer, format string, diags []*Diagnostic) error {
	switch format {
	case FormatText, "":
		for _, d := range diags {
			if _, err := fmt.Fprintln(w, d.Error()); err != nil {
				return err
			}
		}
		return nil
	}
	recs := make([]Record, 0, len(diags))
	for _, d := range diags {
		recs = append(recs, d.Record())
	}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(recs)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
