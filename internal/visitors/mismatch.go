package visitors

import (
	"sort"
	"strconv"
	"sync"

	"sampass-core/sam"

	"sampass/internal/pipeline"
	"sampass/internal/reference"
	"sampass/pkg/api"
)

func init() { Register("mismatch", func() pipeline.Consumer { return NewMismatch() }) }

// Mismatch compares aligned read bases with the reference and reports the
// mismatch rate per reference sequence. N in either sequence never counts.
type Mismatch struct {
	source string

	mu      sync.Mutex
	byRef   map[int]*mmTally
	noRef   int64
	skipped int64 // mapped records without SEQ or CIGAR
}

type mmTally struct {
	name       string
	aligned    int64
	mismatches int64
}

func NewMismatch() *Mismatch { return &Mismatch{byRef: map[int]*mmTally{}} }

func (m *Mismatch) Name() string            { return "mismatch" }
func (m *Mismatch) UsesUnmappedTail() bool  { return false }
func (m *Mismatch) RequiresReference() bool { return true }

func (m *Mismatch) Initialize(_ *sam.Header, sourceFile string) error {
	m.source = sourceFile
	return nil
}

func (m *Mismatch) ProcessOne(rec *sam.Record, ref *reference.Window) error {
	if !rec.Mapped() || !rec.Primary() {
		return nil
	}
	if ref == nil {
		m.mu.Lock()
		m.noRef++
		m.mu.Unlock()
		return nil
	}
	if len(rec.Seq) == 0 || len(rec.Cigar) == 0 {
		m.mu.Lock()
		m.skipped++
		m.mu.Unlock()
		return nil
	}

	aligned, mm := compare(rec, ref.Bases)

	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byRef[rec.RefID]
	if !ok {
		t = &mmTally{name: ref.Name}
		m.byRef[rec.RefID] = t
	}
	t.aligned += aligned
	t.mismatches += mm
	return nil
}

// compare walks the CIGAR and counts compared and mismatching bases of the
// M, = and X operations.
func compare(rec *sam.Record, refBases []byte) (aligned, mismatches int64) {
	qi, ri := 0, rec.Pos-1
	for _, op := range rec.Cigar {
		switch op.Op {
		case 'M', '=', 'X':
			for k := 0; k < op.Len; k++ {
				q, r := qi+k, ri+k
				if q >= len(rec.Seq) || r < 0 || r >= len(refBases) {
					break
				}
				rb, qb := refBases[r], upper(rec.Seq[q])
				if rb == 'N' || qb == 'N' {
					continue
				}
				aligned++
				if qb != '=' && qb != rb {
					mismatches++
				}
			}
		}
		if sam.ConsumesQuery(op.Op) {
			qi += op.Len
		}
		if sam.ConsumesRef(op.Op) {
			ri += op.Len
		}
	}
	return aligned, mismatches
}

func upper(b byte) byte {
	if 'a' <= b && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

func (m *Mismatch) Finalize() error { return nil }

func (m *Mismatch) Report() api.ReportV1 {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]int, 0, len(m.byRef))
	for id := range m.byRef {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var aligned, mm int64
	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		t := m.byRef[id]
		aligned += t.aligned
		mm += t.mismatches
		rows = append(rows, []string{
			t.name,
			strconv.FormatInt(t.aligned, 10),
			strconv.FormatInt(t.mismatches, 10),
			strconv.FormatFloat(rate(t.mismatches, t.aligned), 'f', 6, 64),
		})
	}
	return api.ReportV1{
		Consumer: m.Name(),
		Source:   m.source,
		Counters: map[string]int64{
			"aligned_bases": aligned,
			"mismatches":    mm,
			"no_reference":  m.noRef,
			"skipped":       m.skipped,
		},
		Values: map[string]float64{"mismatch_rate": rate(mm, aligned)},
		Table: &api.TableV1{
			Columns: []string{"reference", "aligned_bases", "mismatches", "rate"},
			Rows:    rows,
		},
	}
}

func rate(n, d int64) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
