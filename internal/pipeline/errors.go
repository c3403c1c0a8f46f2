// internal/pipeline/errors.go
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"sampass-core/sam"
)

// ErrPrecondition matches every error raised before any record is pulled:
// unreadable inputs, a sort order that is not coordinate and a reference whose
// catalogue disagrees with the alignment header.
var ErrPrecondition = errors.New("precondition failed")

// SourceError reports an input that could not be opened.
type SourceError struct {
	Role string // "alignment" or "reference"
	Path string
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("cannot open %s file %s: %v", e.Role, e.Path, e.Err)
}

func (e *SourceError) Unwrap() error        { return e.Err }
func (e *SourceError) Is(target error) bool { return target == ErrPrecondition }

// SortOrderError reports an alignment file whose header does not declare
// coordinate order while sorting is not assumed.
type SortOrderError struct {
	Path  string
	Order sam.SortOrder
}

func (e *SortOrderError) Error() string {
	order := string(e.Order)
	if order == "" {
		order = string(sam.Unknown)
	}
	return fmt.Sprintf("file %s should be coordinate sorted but the header says the sort order is %s; "+
		"if you believe the file is coordinate sorted, pass --assume-sorted", e.Path, order)
}

func (e *SortOrderError) Is(target error) bool { return target == ErrPrecondition }

// ReferenceMismatchError reports differing sequence catalogues between the
// alignment header and the reference, or a record on a sequence the
// reference does not contain when the header has no catalogue.
type ReferenceMismatchError struct {
	Source    string
	Reference string
	Detail    string
}

func (e *ReferenceMismatchError) Error() string {
	return fmt.Sprintf("sequence catalogue of %s does not match reference %s: %s", e.Source, e.Reference, e.Detail)
}

func (e *ReferenceMismatchError) Is(target error) bool { return target == ErrPrecondition }

// ConsumerError wraps a failure returned by one consumer.
type ConsumerError struct {
	Consumer string
	Op       string // "initialize", "process" or "finalize"
	Record   string // position of the record being processed, if any
	Err      error
}

func (e *ConsumerError) Error() string {
	if e.Record != "" {
		return fmt.Sprintf("consumer %s: %s at %s: %v", e.Consumer, e.Op, e.Record, e.Err)
	}
	return fmt.Sprintf("consumer %s: %s: %v", e.Consumer, e.Op, e.Err)
}

func (e *ConsumerError) Unwrap() error { return e.Err }

// TaskError reports a batch whose processing failed or panicked.
type TaskError struct {
	Batch int
	Sync  bool // the tail batch, run on the producer goroutine
	Err   error
}

func (e *TaskError) Error() string {
	kind := "batch"
	if e.Sync {
		kind = "tail batch"
	}
	return fmt.Sprintf("%s %d: %v", kind, e.Batch, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// JoinTimeoutError reports that outstanding batches were still running when
// the bounded wait ran out. Consumers were finalized regardless. Batches that
// failed before Finalize returned are joined into the error Run returns;
// batches still running after that are abandoned and their outcome is lost.
type JoinTimeoutError struct {
	Timeout     time.Duration
	Outstanding int64
}

func (e *JoinTimeoutError) Error() string {
	return fmt.Sprintf("%d batch(es) still running after waiting %s", e.Outstanding, e.Timeout)
}

// DispatchError reports a pass aborted after accumulation started. Finalize
// was not called on any consumer.
type DispatchError struct {
	Phase Phase // the phase that was running when the pass aborted
	Err   error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("pass aborted while %s: %v", e.Phase, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }
