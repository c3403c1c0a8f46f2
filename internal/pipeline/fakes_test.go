package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"sampass-core/dict"
	"sampass-core/sam"

	"sampass/internal/reference"
)

var testDict = dict.Dictionary{{Name: "chr1", Length: 1_000_000}, {Name: "chr2", Length: 500_000}}

func coordHeader() *sam.Header {
	return &sam.Header{Version: "1.6", SortOrder: sam.Coordinate, Dict: testDict}
}

// records returns mapped records on refID named r000000, r000001, ...
// starting at index from.
func records(from, n, refID int) []*sam.Record {
	out := make([]*sam.Record, 0, n)
	for i := from; i < from+n; i++ {
		out = append(out, &sam.Record{
			Name:    fmt.Sprintf("r%06d", i),
			RefID:   refID,
			RefName: testDict[refID].Name,
			Pos:     i + 1,
			MapQ:    60,
		})
	}
	return out
}

func unmapped(from, n int) []*sam.Record {
	out := make([]*sam.Record, 0, n)
	for i := from; i < from+n; i++ {
		out = append(out, &sam.Record{
			Name:    fmt.Sprintf("r%06d", i),
			Flags:   sam.Unmapped,
			RefID:   sam.NoReference,
			RefName: "*",
		})
	}
	return out
}

type sliceSource struct {
	hdr    *sam.Header
	recs   []*sam.Record
	i      int
	errAt  int // index at which err is returned; -1 never
	err    error
	closed bool
}

func newSource(hdr *sam.Header, recs []*sam.Record) *sliceSource {
	return &sliceSource{hdr: hdr, recs: recs, errAt: -1}
}

func (s *sliceSource) Path() string        { return "test.sam" }
func (s *sliceSource) Header() *sam.Header { return s.hdr }
func (s *sliceSource) Close() error        { s.closed = true; return nil }

func (s *sliceSource) Next(ctx context.Context) (*sam.Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if s.i == s.errAt {
		return nil, false, s.err
	}
	if s.i >= len(s.recs) {
		return nil, false, nil
	}
	r := s.recs[s.i]
	s.i++
	return r, true, nil
}

type fakeResolver struct {
	cat    dict.Dictionary
	err    error // returned by every Get when set
	calls  []int
	closed bool
}

func (f *fakeResolver) Path() string                { return "test.fa" }
func (f *fakeResolver) Dictionary() dict.Dictionary { return f.cat }
func (f *fakeResolver) Close() error                { f.closed = true; return nil }

func (f *fakeResolver) Get(i int) (*reference.Window, error) {
	if f.err != nil {
		return nil, f.err
	}
	if i < 0 || i >= len(f.cat) {
		return nil, fmt.Errorf("index %d out of range", i)
	}
	f.calls = append(f.calls, i)
	return &reference.Window{Index: i, Name: f.cat[i].Name}, nil
}

// recorder is a Consumer that remembers what it was given.
type recorder struct {
	name   string
	noTail bool
	log    *eventLog // shared between consumers when ordering matters

	// before runs ahead of each ProcessOne, outside the lock.
	before  func(rec *sam.Record) error
	initErr error
	finErr  error
	// onFinalize runs at the start of Finalize.
	onFinalize func()

	inits atomic.Int32
	fins  atomic.Int32

	mu      sync.Mutex
	names   []string
	refs    map[string]*reference.Window
	srcFile string
}

func newRecorder(name string) *recorder {
	return &recorder{name: name, refs: map[string]*reference.Window{}}
}

func (r *recorder) Name() string           { return r.name }
func (r *recorder) UsesUnmappedTail() bool { return !r.noTail }

func (r *recorder) Initialize(_ *sam.Header, sourceFile string) error {
	r.inits.Add(1)
	r.srcFile = sourceFile
	r.log.add(r.name + ":init")
	return r.initErr
}

func (r *recorder) ProcessOne(rec *sam.Record, ref *reference.Window) error {
	if r.before != nil {
		if err := r.before(rec); err != nil {
			return err
		}
	}
	r.mu.Lock()
	r.names = append(r.names, rec.Name)
	r.refs[rec.Name] = ref
	r.mu.Unlock()
	r.log.add(r.name + ":" + rec.Name)
	return nil
}

func (r *recorder) Finalize() error {
	if r.onFinalize != nil {
		r.onFinalize()
	}
	r.fins.Add(1)
	r.log.add(r.name + ":fin")
	return r.finErr
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}
