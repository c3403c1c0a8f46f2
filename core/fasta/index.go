package fasta

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"sampass-core/dict"
)

// ReadIndex parses a samtools .fai index (NAME LENGTH OFFSET LINEBASES LINEWIDTH)
// into a catalogue. Only the first two columns are used.
func ReadIndex(r io.Reader) (dict.Dictionary, error) {
	var out dict.Dictionary
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		f := strings.Split(line, "\t")
		if len(f) < 2 {
			return nil, fmt.Errorf("fai line %d: want at least 2 columns", n)
		}
		l, err := strconv.Atoi(f[1])
		if err != nil || l < 0 {
			return nil, fmt.Errorf("fai line %d: bad length %q", n, f[1])
		}
		out = append(out, dict.Entry{Name: f[0], Length: l})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("fai scan: %w", err)
	}
	return out, nil
}

// Catalogue builds a catalogue by scanning every record of r.
func Catalogue(r io.Reader) (dict.Dictionary, error) {
	var out dict.Dictionary
	fr := NewReader(r, false)
	for {
		rec, err := fr.Next(0)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, dict.Entry{Name: rec.ID, Length: len(rec.Seq)})
	}
}
