// Package sam models the SAM text format closely enough for a single forward
// pass: the header (sort order + sequence catalogue) and alignment records.
package sam

import (
	"fmt"
	"strconv"

	"sampass-core/dict"
)

// NoReference is the reference index of a record with no aligned reference (RNAME "*").
const NoReference = -1

// SortOrder is the @HD SO value.
type SortOrder string

const (
	Unknown    SortOrder = "unknown"
	Unsorted   SortOrder = "unsorted"
	QueryName  SortOrder = "queryname"
	Coordinate SortOrder = "coordinate"
)

// Header is the parsed SAM header.
type Header struct {
	Version   string
	SortOrder SortOrder
	Dict      dict.Dictionary
	Text      []string // every header line, verbatim
}

// Flags is the SAM FLAG bit field.
type Flags uint16

const (
	Paired        Flags = 0x1
	ProperPair    Flags = 0x2
	Unmapped      Flags = 0x4
	MateUnmapped  Flags = 0x8
	Reverse       Flags = 0x10
	MateReverse   Flags = 0x20
	Read1         Flags = 0x40
	Read2         Flags = 0x80
	Secondary     Flags = 0x100
	QCFail        Flags = 0x200
	Duplicate     Flags = 0x400
	Supplementary Flags = 0x800
)

// Has reports whether all bits in f2 are set.
func (f Flags) Has(f2 Flags) bool { return f&f2 == f2 }

// Record is one alignment line.
type Record struct {
	Name    string
	Flags   Flags
	RefID   int    // index into Header.Dict, NoReference for "*"
	RefName string // "*" when unaligned
	Pos     int    // 1-based leftmost position, 0 when unavailable
	MapQ    uint8
	Cigar   Cigar
	MateRef string
	MatePos int
	TLen    int
	Seq     []byte
	Qual    []byte
	Aux     []string
}

// Mapped reports whether the record is aligned (flag 0x4 clear and a reference).
func (r *Record) Mapped() bool {
	return r.RefID != NoReference && !r.Flags.Has(Unmapped)
}

// Primary reports whether the record is neither secondary nor supplementary.
func (r *Record) Primary() bool {
	return r.Flags&(Secondary|Supplementary) == 0
}

// Position renders "ref:pos" for progress output; "*/*" for unaligned records.
func (r *Record) Position() string {
	if r.RefID == NoReference {
		return "*/*"
	}
	return r.RefName + ":" + strconv.Itoa(r.Pos)
}

func (r *Record) String() string {
	return fmt.Sprintf("%s@%s", r.Name, r.Position())
}
