package visitors

import (
	"strconv"
	"sync"

	"sampass-core/sam"

	"sampass/internal/pipeline"
	"sampass/internal/reference"
	"sampass/pkg/api"
)

func init() { Register("mapq", func() pipeline.Consumer { return NewMapQ() }) }

// mapqUnavailable is the SAM value for "no mapping quality".
const mapqUnavailable = 255

// MapQ builds a mapping-quality histogram over primary mapped reads.
type MapQ struct {
	source string

	mu   sync.Mutex
	bins [256]int64
}

func NewMapQ() *MapQ { return &MapQ{} }

func (m *MapQ) Name() string           { return "mapq" }
func (m *MapQ) UsesUnmappedTail() bool { return false }

func (m *MapQ) Initialize(_ *sam.Header, sourceFile string) error {
	m.source = sourceFile
	return nil
}

func (m *MapQ) ProcessOne(rec *sam.Record, _ *reference.Window) error {
	if !rec.Mapped() || !rec.Primary() {
		return nil
	}
	m.mu.Lock()
	m.bins[rec.MapQ]++
	m.mu.Unlock()
	return nil
}

func (m *MapQ) Finalize() error { return nil }

func (m *MapQ) Report() api.ReportV1 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var reads, sum, scored int64
	rows := [][]string{}
	for q, n := range m.bins {
		if n == 0 {
			continue
		}
		reads += n
		if q != mapqUnavailable {
			sum += int64(q) * n
			scored += n
		}
		rows = append(rows, []string{strconv.Itoa(q), strconv.FormatInt(n, 10)})
	}
	var mean float64
	if scored > 0 {
		mean = float64(sum) / float64(scored)
	}
	return api.ReportV1{
		Consumer: m.Name(),
		Source:   m.source,
		Counters: map[string]int64{"reads": reads, "unavailable": m.bins[mapqUnavailable]},
		Values:   map[string]float64{"mean": mean},
		Table:    &api.TableV1{Columns: []string{"mapq", "count"}, Rows: rows},
	}
}
