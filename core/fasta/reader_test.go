package fasta

import (
	"context"
	"io"
	"strings"
	"testing"
)

const plain = `>seq1 first one
ACGT
acgt
>seq2
NNnn

>seq3
`

func TestReader_PullsRecords(t *testing.T) {
	r := NewReader(strings.NewReader(plain), true)
	var ids []string
	var seqs []string
	for {
		rec, err := r.Next(0)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		ids = append(ids, rec.ID)
		seqs = append(seqs, string(rec.Seq))
	}
	if len(ids) != 3 || ids[0] != "seq1" || ids[2] != "seq3" {
		t.Fatalf("ids=%v", ids)
	}
	if seqs[0] != "ACGTACGT" || seqs[1] != "NNNN" || seqs[2] != "" {
		t.Fatalf("seqs=%q", seqs)
	}
	if _, err := r.Next(0); err != io.EOF {
		t.Fatalf("want EOF after end, got %v", err)
	}
}

func TestReader_KeepsCaseWhenAsked(t *testing.T) {
	r := NewReader(strings.NewReader(">a\nacGT\n"), false)
	rec, err := r.Next(8)
	if err != nil || string(rec.Seq) != "acGT" {
		t.Fatalf("rec=%q err=%v", rec.Seq, err)
	}
}

func TestReader_DataBeforeHeader(t *testing.T) {
	r := NewReader(strings.NewReader("ACGT\n>a\nA\n"), false)
	if _, err := r.Next(0); err == nil {
		t.Fatalf("expected error for sequence before header")
	}
}

func TestReader_Empty(t *testing.T) {
	r := NewReader(strings.NewReader(""), false)
	if _, err := r.Next(0); err != io.EOF {
		t.Fatalf("want EOF, got %v", err)
	}
}

func TestScan_CancelImmediately_YieldsNoRecords(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n := 0
	err := Scan(ctx, strings.NewReader(plain), func(Record) error { n++; return nil })
	if err != context.Canceled {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 records due to immediate cancel, got %d", n)
	}
}

func TestScan_All(t *testing.T) {
	n := 0
	if err := Scan(context.Background(), strings.NewReader(plain), func(Record) error { n++; return nil }); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if n != 3 {
		t.Fatalf("want 3, got %d", n)
	}
}

func TestReadIndexAndCatalogue(t *testing.T) {
	d, err := ReadIndex(strings.NewReader("chr1\t8\t6\t4\t5\nchr2\t4\t22\t4\t5\n"))
	if err != nil {
		t.Fatalf("fai: %v", err)
	}
	if len(d) != 2 || d[0].Name != "chr1" || d[0].Length != 8 || d[1].Length != 4 {
		t.Fatalf("fai dict=%+v", d)
	}
	if _, err := ReadIndex(strings.NewReader("chr1\n")); err == nil {
		t.Fatalf("expected error for 1-column fai")
	}

	c, err := Catalogue(strings.NewReader(plain))
	if err != nil {
		t.Fatalf("catalogue: %v", err)
	}
	if len(c) != 3 || c[0].Length != 8 || c[1].Length != 4 || c[2].Length != 0 {
		t.Fatalf("catalogue=%+v", c)
	}
}
