package visitors

import (
	"sort"
	"strconv"
	"sync"

	"sampass-core/dict"
	"sampass-core/sam"

	"sampass/internal/pipeline"
	"sampass/internal/reference"
	"sampass/pkg/api"
)

func init() { Register("refcounts", func() pipeline.Consumer { return NewRefCounts() }) }

type refTally struct {
	name    string
	reads   int64
	aligned int64
}

// RefCounts counts mapped reads and aligned bases per reference sequence.
type RefCounts struct {
	source string
	cat    dict.Dictionary

	mu    sync.Mutex
	byRef map[int]*refTally
}

func NewRefCounts() *RefCounts { return &RefCounts{byRef: map[int]*refTally{}} }

func (r *RefCounts) Name() string           { return "refcounts" }
func (r *RefCounts) UsesUnmappedTail() bool { return false }

func (r *RefCounts) Initialize(hdr *sam.Header, sourceFile string) error {
	r.source = sourceFile
	r.cat = hdr.Dict
	return nil
}

func (r *RefCounts) ProcessOne(rec *sam.Record, _ *reference.Window) error {
	if !rec.Mapped() {
		return nil
	}
	aligned := int64(rec.Cigar.AlignedBases())

	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byRef[rec.RefID]
	if !ok {
		t = &refTally{name: rec.RefName}
		r.byRef[rec.RefID] = t
	}
	t.reads++
	t.aligned += aligned
	return nil
}

func (r *RefCounts) Finalize() error { return nil }

func (r *RefCounts) Report() api.ReportV1 {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]int, 0, len(r.byRef))
	for id := range r.byRef {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var reads, aligned int64
	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		t := r.byRef[id]
		length := ""
		if id < len(r.cat) {
			length = strconv.Itoa(r.cat[id].Length)
		}
		reads += t.reads
		aligned += t.aligned
		rows = append(rows, []string{
			t.name, length,
			strconv.FormatInt(t.reads, 10),
			strconv.FormatInt(t.aligned, 10),
		})
	}
	return api.ReportV1{
		Consumer: r.Name(),
		Source:   r.source,
		Counters: map[string]int64{"references": int64(len(ids)), "reads": reads, "aligned_bases": aligned},
		Table: &api.TableV1{
			Columns: []string{"reference", "length", "reads", "aligned_bases"},
			Rows:    rows,
		},
	}
}
