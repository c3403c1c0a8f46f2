// Package progress logs a line every N records while a pass runs.
package progress

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"sampass-core/sam"
)

// DefaultEvery is the record interval between progress lines.
const DefaultEvery = 1_000_000

// Logger counts records and logs every Every of them.
// It is meant for a single producer goroutine.
type Logger struct {
	log   zerolog.Logger
	every uint64

	n     uint64
	start time.Time
	last  time.Time
	now   func() time.Time
}

// New returns a Logger; every == 0 selects DefaultEvery.
func New(log zerolog.Logger, every uint64) *Logger {
	if every == 0 {
		every = DefaultEvery
	}
	return &Logger{log: log, every: every, now: time.Now}
}

// Record counts rec and reports whether a progress line was logged.
func (p *Logger) Record(rec *sam.Record) bool {
	now := p.now()
	if p.n == 0 {
		p.start, p.last = now, now
	}
	p.n++
	if p.n%p.every != 0 {
		return false
	}
	pos := "*/*"
	if rec != nil {
		pos = rec.Position()
	}
	p.log.Info().
		Str("elapsed", now.Sub(p.start).Truncate(time.Second).String()).
		Float64("last_interval_s", now.Sub(p.last).Seconds()).
		Str("last_read_position", pos).
		Msgf("Processed %s records", humanize.Comma(int64(p.n)))
	p.last = now
	return true
}

// Count returns the number of records seen.
func (p *Logger) Count() uint64 { return p.n }
