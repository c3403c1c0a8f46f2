package pipeline

import "sampass-core/sam"

// StopReason says why the accumulation loop ended.
type StopReason string

const (
	StopExhausted    StopReason = "exhausted"
	StopRecordCap    StopReason = "record_cap"
	StopUnmappedTail StopReason = "unmapped_tail"
	StopAborted      StopReason = "aborted"
)

// policy decides when the accumulation loop stops early.
//
// The unmapped boundary is checked before a record is appended, so the first
// record without a reference and everything after it are never delivered.
// The cap is checked after appending, so exactly cap records are delivered.
type policy struct {
	cap            uint64 // 0 means no cap
	stopAtUnmapped bool   // no consumer wants the unmapped tail
}

// atBoundary reports whether rec starts the unmapped tail and the pass should
// stop without delivering it.
func (p policy) atBoundary(rec *sam.Record) bool {
	return p.stopAtUnmapped && rec.RefID == sam.NoReference
}

// capReached reports whether accepted records have hit the cap.
func (p policy) capReached(accepted uint64) bool {
	return p.cap > 0 && accepted >= p.cap
}
