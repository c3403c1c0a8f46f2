package pipeline

import (
	"sampass-core/sam"

	"sampass/internal/reference"
)

// Pair is one unit of work: an alignment record and the reference window of
// the sequence it maps to (nil when unmapped or when no reference is used).
type Pair struct {
	Rec *sam.Record
	Ref *reference.Window
}

// Batch is an ordered group of pairs. Seq numbers batches from 1 in the
// order they were sealed.
type Batch struct {
	Seq   int
	Pairs []Pair
}

// Len returns the number of pairs in the batch.
func (b Batch) Len() int { return len(b.Pairs) }

// Accumulator packs pairs into batches of exactly K pairs. Every Append that
// fills the buffer seals it and hands the batch back; the accumulator then
// starts over with a fresh buffer, so a sealed batch is never touched again.
type Accumulator struct {
	k      int
	buf    []Pair
	sealed int
}

// NewAccumulator returns an Accumulator for batches of k pairs (k < 1 means 1).
func NewAccumulator(k int) *Accumulator {
	if k < 1 {
		k = 1
	}
	return &Accumulator{k: k, buf: make([]Pair, 0, k)}
}

// Size returns K.
func (a *Accumulator) Size() int { return a.k }

// Pending returns the number of pairs buffered but not yet sealed.
func (a *Accumulator) Pending() int { return len(a.buf) }

// Sealed returns how many batches have been produced so far, including a
// non-empty batch returned by Flush.
func (a *Accumulator) Sealed() int { return a.sealed }

// Append adds p. When the buffer reaches K pairs the full batch is returned
// with ok == true.
func (a *Accumulator) Append(p Pair) (b Batch, ok bool) {
	a.buf = append(a.buf, p)
	if len(a.buf) < a.k {
		return Batch{}, false
	}
	return a.seal(), true
}

// Flush seals and returns whatever is buffered. The batch is empty (and not
// counted) when nothing is pending.
func (a *Accumulator) Flush() Batch {
	if len(a.buf) == 0 {
		return Batch{}
	}
	return a.seal()
}

func (a *Accumulator) seal() Batch {
	a.sealed++
	b := Batch{Seq: a.sealed, Pairs: a.buf}
	a.buf = make([]Pair, 0, a.k)
	return b
}
