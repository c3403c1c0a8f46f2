// Package writers turns consumer reports into serialized outputs.
//
// Design:
//   - Writers own all presentation knowledge (tables, JSON/JSONL/YAML, SQLite).
//   - Consumers only build api.ReportV1 values; the pipeline never formats.
//   - Structured formats go through pkg/api (v1) for a stable wire format.
package writers
