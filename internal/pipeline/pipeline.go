// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"sampass-core/dict"
	"sampass-core/sam"

	"sampass/internal/logging"
	"sampass/internal/progress"
	"sampass/internal/reference"
	"sampass/internal/source"
)

const (
	DefaultBatchSize   = 1000
	DefaultJoinTimeout = 5 * time.Minute
)

var tracer = otel.Tracer("sampass/pipeline")

// Source yields alignment records in file order.
type Source interface {
	Path() string
	Header() *sam.Header
	// Next returns the next record, or ok == false at the end of input.
	Next(ctx context.Context) (rec *sam.Record, ok bool, err error)
	Close() error
}

// Resolver hands out reference windows by catalogue index, forward only.
type Resolver interface {
	Path() string
	Dictionary() dict.Dictionary
	Get(index int) (*reference.Window, error)
	Close() error
}

// Config controls one pass.
type Config struct {
	SourcePath    string // alignment file, "-" for stdin
	ReferencePath string // FASTA reference; empty disables reference lookup
	AssumeSorted  bool   // accept a header whose sort order is not coordinate
	RecordCap     uint64 // stop after this many delivered records; 0 = no cap
	BatchSize     int    // records per batch (K); <= 0 selects DefaultBatchSize
	JoinTimeout   time.Duration
	MaxInFlight   int // max batches processed at once; 0 = unbounded

	Logger   *zerolog.Logger // nil discards logs
	Metrics  *Metrics        // nil disables metrics
	Progress *progress.Logger

	// OpenSource and OpenReference replace the file openers (tests).
	OpenSource    func(path string) (Source, error)
	OpenReference func(path string) (Resolver, error)
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.JoinTimeout <= 0 {
		c.JoinTimeout = DefaultJoinTimeout
	}
	if c.Logger == nil {
		nop := zerolog.Nop()
		c.Logger = &nop
	}
	if c.OpenSource == nil {
		c.OpenSource = func(path string) (Source, error) {
			r, err := source.Open(path)
			if err != nil {
				return nil, err
			}
			return r, nil
		}
	}
	if c.OpenReference == nil {
		c.OpenReference = func(path string) (Resolver, error) {
			w, err := reference.Open(path)
			if err != nil {
				return nil, err
			}
			return w, nil
		}
	}
	return c
}

// Summary describes a finished (or aborted) pass.
type Summary struct {
	RunID    string
	Pulled   uint64 // records read from the source
	Accepted uint64 // records placed into a batch
	Batches  int    // full batches handed to the pool
	TailSize int    // records in the batch processed on the caller
	Sealed   int    // Batches, plus one when the tail was non-empty
	Stop     StopReason
	// Finalized is set once Finalize has been called on the consumers, so
	// their results can be read even when an error is returned.
	Finalized bool

	Elapsed   time.Duration
	CycleTime time.Duration // from the first read to the end of the join
	ReadTime  time.Duration // CycleTime minus time spent pairing and dispatching
}

// Run opens the configured inputs and runs one pass over them.
func Run(ctx context.Context, cfg Config, consumers []Consumer) (Summary, error) {
	cfg = cfg.withDefaults()
	log := *cfg.Logger

	src, err := cfg.OpenSource(cfg.SourcePath)
	if err != nil {
		return Summary{}, &SourceError{Role: "alignment", Path: cfg.SourcePath, Err: err}
	}
	defer closeLogged(log, src.Path(), src.Close)

	var ref Resolver
	if cfg.ReferencePath != "" {
		r, err := cfg.OpenReference(cfg.ReferencePath)
		if err != nil {
			return Summary{}, &SourceError{Role: "reference", Path: cfg.ReferencePath, Err: err}
		}
		defer closeLogged(log, r.Path(), r.Close)
		ref = r
	}
	return RunSource(ctx, cfg, src, ref, consumers)
}

// RunSource runs one pass over an already opened source. ref may be nil.
// The caller keeps ownership of src and ref.
func RunSource(ctx context.Context, cfg Config, src Source, ref Resolver, consumers []Consumer) (Summary, error) {
	cfg = cfg.withDefaults()
	reg, err := NewRegistry(consumers...)
	if err != nil {
		return Summary{}, err
	}
	p := &pass{
		cfg:  cfg,
		log:  logging.WithComponent(*cfg.Logger, "pipeline"),
		src:  src,
		ref:  ref,
		reg:  reg,
		acc:  NewAccumulator(cfg.BatchSize),
		pool: newPool(cfg.MaxInFlight, cfg.Metrics),
		sum:  Summary{RunID: uuid.NewString()},
	}
	return p.run(ctx)
}

type pass struct {
	cfg    Config
	log    zerolog.Logger
	src    Source
	ref    Resolver
	reg    *Registry
	acc    *Accumulator
	pool   *pool
	policy policy

	// byName resolves windows through RNAME because the alignment header
	// has no catalogue and record RefIDs are in order of first appearance.
	byName bool

	phase    Phase
	span     trace.Span
	sum      Summary
	dispatch time.Duration
}

func (p *pass) run(ctx context.Context) (Summary, error) {
	ctx, span := tracer.Start(ctx, "pipeline.Run", trace.WithAttributes(
		attribute.String("sampass.run_id", p.sum.RunID),
		attribute.String("sampass.source", p.src.Path()),
		attribute.Int("sampass.batch_size", p.acc.Size()),
		attribute.StringSlice("sampass.consumers", p.reg.Names()),
	))
	defer span.End()
	p.span = span

	start := time.Now()
	err := p.execute(ctx)
	p.sum.Elapsed = time.Since(start)
	p.sum.Sealed = p.acc.Sealed()

	span.SetAttributes(
		attribute.Int64("sampass.records_accepted", int64(p.sum.Accepted)),
		attribute.String("sampass.stop", string(p.sum.Stop)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	p.logSummary(err)
	return p.sum, err
}

func (p *pass) execute(ctx context.Context) error {
	p.enter(PhaseValidating)
	if err := p.validate(); err != nil {
		p.enter(PhaseAborted)
		return err
	}

	p.enter(PhaseInitializing)
	if err := p.reg.Initialize(p.src.Header(), p.src.Path()); err != nil {
		p.enter(PhaseAborted)
		return err
	}
	p.policy = policy{cap: p.cfg.RecordCap, stopAtUnmapped: !p.reg.UsesUnmappedTail()}

	cycle := time.Now()
	p.enter(PhaseAccumulating)
	if err := p.accumulate(ctx); err != nil || p.pool.Failed() {
		return p.abort(PhaseAccumulating, err)
	}

	p.enter(PhaseDraining)
	if err := p.drain(ctx); err != nil {
		return p.abort(PhaseDraining, err)
	}

	p.enter(PhaseAwaiting)
	timeout := p.pool.Await(p.cfg.JoinTimeout)
	p.sum.CycleTime = time.Since(cycle)
	p.sum.ReadTime = p.sum.CycleTime - p.dispatch
	if err := p.pool.Err(); err != nil {
		p.sum.Stop = StopAborted
		p.enter(PhaseAborted)
		return &DispatchError{Phase: PhaseAwaiting, Err: err}
	}
	var joinErr error
	if timeout != nil {
		p.log.Error().
			Int64("outstanding", timeout.Outstanding).
			Dur("timeout", timeout.Timeout).
			Msg("batches still running after the join timeout; finalizing consumers anyway")
		joinErr = timeout
	}

	p.enter(PhaseFinalizing)
	finErr := p.reg.Finalize()
	p.sum.Finalized = true
	// Batches left running by the timeout may have failed meanwhile.
	var late error
	if timeout != nil {
		late = p.pool.Err()
	}
	p.enter(PhaseDone)
	return errors.Join(joinErr, late, finErr)
}

func (p *pass) validate() error {
	hdr := p.src.Header()
	if hdr.SortOrder != sam.Coordinate {
		if !p.cfg.AssumeSorted {
			return &SortOrderError{Path: p.src.Path(), Order: hdr.SortOrder}
		}
		p.log.Warn().
			Str("file", p.src.Path()).
			Str("sort_order", string(hdr.SortOrder)).
			Msg("header does not declare coordinate order; assuming the file is coordinate sorted")
	}
	if p.ref != nil {
		if len(hdr.Dict) == 0 {
			p.byName = true
			p.log.Warn().
				Str("file", p.src.Path()).
				Msg("header has no @SQ lines; matching records to the reference by name")
		} else if d := hdr.Dict.Diff(p.ref.Dictionary()); d != "" {
			return &ReferenceMismatchError{Source: p.src.Path(), Reference: p.ref.Path(), Detail: d}
		}
	}
	return nil
}

// window returns the reference window rec aligns to.
func (p *pass) window(rec *sam.Record) (*reference.Window, error) {
	idx := rec.RefID
	if p.byName {
		i, ok := p.ref.Dictionary().Index(rec.RefName)
		if !ok {
			return nil, &ReferenceMismatchError{
				Source:    p.src.Path(),
				Reference: p.ref.Path(),
				Detail:    fmt.Sprintf("record %s is on %q, which the reference does not contain", rec.Name, rec.RefName),
			}
		}
		idx = i
	}
	return p.ref.Get(idx)
}

// accumulate pulls records until the source ends, a stop condition fires, a
// pooled batch fails or ctx is cancelled.
func (p *pass) accumulate(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if p.pool.Failed() {
			return nil
		}
		rec, ok, err := p.src.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			p.sum.Stop = StopExhausted
			return nil
		}
		p.sum.Pulled++
		p.cfg.Metrics.recordPulled()
		if p.policy.atBoundary(rec) {
			p.sum.Stop = StopUnmappedTail
			p.log.Debug().Str("name", rec.Name).Msg("reached the unmapped tail; stopping")
			return nil
		}

		t0 := time.Now()
		pair := Pair{Rec: rec}
		if p.ref != nil && rec.RefID != sam.NoReference {
			win, err := p.window(rec)
			if err != nil {
				return err
			}
			pair.Ref = win
		}
		if b, full := p.acc.Append(pair); full {
			if err := p.submit(ctx, b); err != nil {
				return err
			}
		}
		p.dispatch += time.Since(t0)

		p.sum.Accepted++
		p.cfg.Metrics.recordAccepted()
		if p.cfg.Progress != nil {
			p.cfg.Progress.Record(rec)
		}
		if p.policy.capReached(p.sum.Accepted) {
			p.sum.Stop = StopRecordCap
			return nil
		}
	}
}

func (p *pass) submit(ctx context.Context, b Batch) error {
	if err := p.pool.Submit(ctx, b.Seq, func() error { return p.deliver(b) }); err != nil {
		return err
	}
	p.sum.Batches++
	p.cfg.Metrics.batch("async")
	return nil
}

// drain processes the partially filled last batch on the caller.
func (p *pass) drain(ctx context.Context) error {
	tail := p.acc.Flush()
	p.sum.TailSize = tail.Len()
	if tail.Len() == 0 {
		return nil
	}
	p.cfg.Metrics.batch("sync")
	return p.pool.RunSync(ctx, tail.Seq, func() error { return p.deliver(tail) })
}

func (p *pass) deliver(b Batch) error {
	start := time.Now()
	defer func() { p.cfg.Metrics.observe(time.Since(start)) }()
	return p.reg.Deliver(b)
}

// abort waits for pooled batches still running, so no consumer call outlives
// the pass, and wraps every failure seen. Finalize is not called.
func (p *pass) abort(at Phase, err error) error {
	p.sum.Stop = StopAborted
	p.enter(PhaseAborted)
	errs := []error{err}
	if timeout := p.pool.Await(p.cfg.JoinTimeout); timeout != nil {
		errs = append(errs, timeout)
	}
	errs = append(errs, p.pool.Err())
	return &DispatchError{Phase: at, Err: errors.Join(errs...)}
}

func (p *pass) enter(next Phase) {
	p.log.Debug().Stringer("from", p.phase).Stringer("to", next).Msg("phase")
	p.span.AddEvent("phase", trace.WithAttributes(attribute.String("sampass.phase", next.String())))
	p.phase = next
}

func (p *pass) logSummary(err error) {
	ev := p.log.Info()
	if err != nil {
		ev = p.log.Error().Err(err)
	}
	ev.Str("run_id", p.sum.RunID).
		Uint64("pulled", p.sum.Pulled).
		Uint64("accepted", p.sum.Accepted).
		Int("batches", p.sum.Batches).
		Int("tail", p.sum.TailSize).
		Str("stop", string(p.sum.Stop)).
		Dur("elapsed", p.sum.Elapsed).
		Dur("cycle_time", p.sum.CycleTime).
		Dur("read_time", p.sum.ReadTime).
		Msg("pass finished")
}

func closeLogged(log zerolog.Logger, path string, closeFn func() error) {
	if err := closeFn(); err != nil {
		log.Warn().Err(err).Str("file", path).Msg("close failed")
	}
}
