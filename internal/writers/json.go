package writers

import (
	"encoding/json"
	"io"

	"sampass/internal/jsonlutil"
	"sampass/pkg/api"
)

func init() {
	Register("json", writeJSON)
	Register("jsonl", writeJSONL)
}

// writeJSON writes the whole document indented. Names are not HTML-escaped
// since reports carry read and reference names verbatim.
func writeJSON(w io.Writer, doc api.DocumentV1) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}

// writeJSONL streams one report per line.
func writeJSONL(w io.Writer, doc api.DocumentV1) error {
	return jsonlutil.WriteAll(w, doc.Reports,
		func(enc *json.Encoder, r api.ReportV1) error { return enc.Encode(r) },
		IsBrokenPipe,
	)
}
