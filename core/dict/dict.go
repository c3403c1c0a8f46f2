// Package dict holds the sequence catalogue shared by alignment headers and
// reference indexes: an ordered list of (name, length) entries.
package dict

import "fmt"

// Entry is one reference sequence in a catalogue.
type Entry struct {
	Name   string
	Length int
}

// Dictionary is an ordered sequence catalogue. Position in the slice is the
// reference index used by alignment records.
type Dictionary []Entry

// Index returns the position of name, or -1 and false.
func (d Dictionary) Index(name string) (int, bool) {
	for i, e := range d {
		if e.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Diff reports the first difference between two catalogues, or "" when
// they are equal (same names, same lengths, same order).
func (d Dictionary) Diff(o Dictionary) string {
	if len(d) != len(o) {
		return fmt.Sprintf("catalogues differ in size (%d vs %d sequences)", len(d), len(o))
	}
	for i := range d {
		a, b := d[i], o[i]
		if a.Name != b.Name {
			return fmt.Sprintf("sequence #%d differs in name (%q vs %q)", i, a.Name, b.Name)
		}
		if a.Length != b.Length {
			return fmt.Sprintf("sequence %q differs in length (%d vs %d)", a.Name, a.Length, b.Length)
		}
	}
	return ""
}

// Equal reports whether both catalogues list the same sequences in order.
func (d Dictionary) Equal(o Dictionary) bool { return d.Diff(o) == "" }
