package sam

import (
	"fmt"
	"strconv"
	"strings"
)

// CigarOp is one CIGAR operation.
type CigarOp struct {
	Len int
	Op  byte // one of MIDNSHP=X
}

// Cigar is a parsed CIGAR string. A nil Cigar stands for "*".
type Cigar []CigarOp

// ParseCigar parses a CIGAR string ("*" yields nil).
func ParseCigar(s string) (Cigar, error) {
	if s == "*" || s == "" {
		return nil, nil
	}
	var out Cigar
	n := 0
	digits := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			n = n*10 + int(c-'0')
			digits = true
			continue
		}
		if !strings.ContainsRune("MIDNSHP=X", rune(c)) {
			return nil, fmt.Errorf("cigar %q: bad operation %q", s, c)
		}
		if !digits {
			return nil, fmt.Errorf("cigar %q: operation %q has no length", s, c)
		}
		out = append(out, CigarOp{Len: n, Op: c})
		n, digits = 0, false
	}
	if digits {
		return nil, fmt.Errorf("cigar %q: trailing length", s)
	}
	return out, nil
}

// ConsumesRef reports whether op advances along the reference.
func ConsumesRef(op byte) bool {
	switch op {
	case 'M', 'D', 'N', '=', 'X':
		return true
	}
	return false
}

// ConsumesQuery reports whether op advances along the read.
func ConsumesQuery(op byte) bool {
	switch op {
	case 'M', 'I', 'S', '=', 'X':
		return true
	}
	return false
}

// AlignedBases sums M/=/X lengths.
func (c Cigar) AlignedBases() int {
	n := 0
	for _, op := range c {
		switch op.Op {
		case 'M', '=', 'X':
			n += op.Len
		}
	}
	return n
}

func (c Cigar) String() string {
	if len(c) == 0 {
		return "*"
	}
	var b strings.Builder
	for _, op := range c {
		b.WriteString(strconv.Itoa(op.Len))
		b.WriteByte(op.Op)
	}
	return b.String()
}
