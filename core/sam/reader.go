package sam

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"sampass-core/dict"
)

// Reader pulls records from SAM text one at a time. It is forward-only.
type Reader struct {
	sc      *bufio.Scanner
	hdr     *Header
	pending string
	hasPend bool
	line    int
	idx     map[string]int
	// idx grows on first sight of a name when the header has no @SQ lines
	dynamic bool
}

// NewReader consumes the header from r and returns a Reader positioned at
// the first record.
func NewReader(r io.Reader) (*Reader, error) {
	sc := bufio.NewScanner(r)
	const maxLine = 64 * 1024 * 1024 // long reads with long tags
	buf := make([]byte, 64*1024)
	sc.Buffer(buf, maxLine)

	sr := &Reader{sc: sc, hdr: &Header{SortOrder: Unknown}}
	for sc.Scan() {
		sr.line++
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		if line[0] != '@' {
			sr.pending, sr.hasPend = line, true
			break
		}
		if err := sr.hdr.parseLine(line); err != nil {
			return nil, fmt.Errorf("sam header line %d: %w", sr.line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("sam scan: %w", err)
	}
	sr.idx = make(map[string]int, len(sr.hdr.Dict))
	for i, e := range sr.hdr.Dict {
		sr.idx[e.Name] = i
	}
	sr.dynamic = len(sr.hdr.Dict) == 0
	return sr, nil
}

// Header returns the parsed header. Never nil.
func (r *Reader) Header() *Header { return r.hdr }

// Read returns the next record, or io.EOF after the last one.
func (r *Reader) Read() (*Record, error) {
	var line string
	switch {
	case r.hasPend:
		line, r.hasPend = r.pending, false
	default:
		for {
			if !r.sc.Scan() {
				if err := r.sc.Err(); err != nil {
					return nil, fmt.Errorf("sam scan: %w", err)
				}
				return nil, io.EOF
			}
			r.line++
			line = strings.TrimRight(r.sc.Text(), "\r")
			if line != "" {
				break
			}
		}
	}
	rec, err := r.parseRecord(line)
	if err != nil {
		return nil, fmt.Errorf("sam line %d: %w", r.line, err)
	}
	return rec, nil
}

func (h *Header) parseLine(line string) error {
	h.Text = append(h.Text, line)
	fields := strings.Split(line, "\t")
	switch fields[0] {
	case "@HD":
		for _, f := range fields[1:] {
			k, v, ok := strings.Cut(f, ":")
			if !ok {
				continue
			}
			switch k {
			case "VN":
				h.Version = v
			case "SO":
				h.SortOrder = SortOrder(v)
			}
		}
	case "@SQ":
		var e dict.Entry
		haveLen := false
		for _, f := range fields[1:] {
			k, v, ok := strings.Cut(f, ":")
			if !ok {
				continue
			}
			switch k {
			case "SN":
				e.Name = v
			case "LN":
				n, err := strconv.Atoi(v)
				if err != nil || n < 0 {
					return fmt.Errorf("@SQ bad LN %q", v)
				}
				e.Length, haveLen = n, true
			}
		}
		if e.Name == "" || !haveLen {
			return fmt.Errorf("@SQ needs SN and LN: %q", line)
		}
		if _, dup := h.Dict.Index(e.Name); dup {
			return fmt.Errorf("@SQ duplicate SN %q", e.Name)
		}
		h.Dict = append(h.Dict, e)
	}
	return nil
}

func (r *Reader) parseRecord(line string) (*Record, error) {
	f := strings.Split(line, "\t")
	if len(f) < 11 {
		return nil, fmt.Errorf("want at least 11 fields, got %d", len(f))
	}
	flag, err := strconv.ParseUint(f[1], 10, 16)
	if err != nil {
		return nil, fmt.Errorf("bad FLAG %q", f[1])
	}
	pos, err := strconv.Atoi(f[3])
	if err != nil || pos < 0 {
		return nil, fmt.Errorf("bad POS %q", f[3])
	}
	mapq, err := strconv.ParseUint(f[4], 10, 8)
	if err != nil {
		return nil, fmt.Errorf("bad MAPQ %q", f[4])
	}
	cig, err := ParseCigar(f[5])
	if err != nil {
		return nil, err
	}
	pnext, err := strconv.Atoi(f[7])
	if err != nil {
		return nil, fmt.Errorf("bad PNEXT %q", f[7])
	}
	tlen, err := strconv.Atoi(f[8])
	if err != nil {
		return nil, fmt.Errorf("bad TLEN %q", f[8])
	}
	refID, err := r.refIndex(f[2])
	if err != nil {
		return nil, err
	}
	rec := &Record{
		Name:    f[0],
		Flags:   Flags(flag),
		RefID:   refID,
		RefName: f[2],
		Pos:     pos,
		MapQ:    uint8(mapq),
		Cigar:   cig,
		MateRef: f[6],
		MatePos: pnext,
		TLen:    tlen,
	}
	if f[9] != "*" {
		rec.Seq = []byte(f[9])
	}
	if f[10] != "*" {
		rec.Qual = []byte(f[10])
	}
	if len(f) > 11 {
		rec.Aux = f[11:]
	}
	return rec, nil
}

func (r *Reader) refIndex(name string) (int, error) {
	if name == "*" {
		return NoReference, nil
	}
	if i, ok := r.idx[name]; ok {
		return i, nil
	}
	if !r.dynamic {
		return NoReference, fmt.Errorf("RNAME %q not in @SQ catalogue", name)
	}
	i := len(r.idx)
	r.idx[name] = i
	return i, nil
}
