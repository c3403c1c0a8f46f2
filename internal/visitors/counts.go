package visitors

import (
	"sync/atomic"

	"sampass-core/sam"

	"sampass/internal/pipeline"
	"sampass/internal/reference"
	"sampass/pkg/api"
)

func init() { Register("counts", func() pipeline.Consumer { return NewCounts() }) }

// Counts tallies records by flag category.
type Counts struct {
	source string

	total, mapped, unmapped  atomic.Int64
	paired, properPair       atomic.Int64
	secondary, supplementary atomic.Int64
	duplicate, qcFail        atomic.Int64
}

func NewCounts() *Counts { return &Counts{} }

func (c *Counts) Name() string           { return "counts" }
func (c *Counts) UsesUnmappedTail() bool { return true }

func (c *Counts) Initialize(_ *sam.Header, sourceFile string) error {
	c.source = sourceFile
	return nil
}

func (c *Counts) ProcessOne(rec *sam.Record, _ *reference.Window) error {
	c.total.Add(1)
	if rec.Mapped() {
		c.mapped.Add(1)
	} else {
		c.unmapped.Add(1)
	}
	f := rec.Flags
	if f.Has(sam.Paired) {
		c.paired.Add(1)
		if f.Has(sam.ProperPair) {
			c.properPair.Add(1)
		}
	}
	if f.Has(sam.Secondary) {
		c.secondary.Add(1)
	}
	if f.Has(sam.Supplementary) {
		c.supplementary.Add(1)
	}
	if f.Has(sam.Duplicate) {
		c.duplicate.Add(1)
	}
	if f.Has(sam.QCFail) {
		c.qcFail.Add(1)
	}
	return nil
}

func (c *Counts) Finalize() error { return nil }

func (c *Counts) Report() api.ReportV1 {
	return api.ReportV1{
		Consumer: c.Name(),
		Source:   c.source,
		Counters: map[string]int64{
			"total":         c.total.Load(),
			"mapped":        c.mapped.Load(),
			"unmapped":      c.unmapped.Load(),
			"paired":        c.paired.Load(),
			"proper_pair":   c.properPair.Load(),
			"secondary":     c.secondary.Load(),
			"supplementary": c.supplementary.Load(),
			"duplicate":     c.duplicate.Load(),
			"qc_fail":       c.qcFail.Load(),
		},
	}
}
