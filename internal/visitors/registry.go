// internal/visitors/registry.go
package visitors

import (
	"fmt"
	"sort"
	"strings"

	"sampass/internal/pipeline"
	"sampass/pkg/api"
)

// Reporter is implemented by consumers that produce a report after Finalize.
type Reporter interface {
	Report() api.ReportV1
}

// ReferenceUser is implemented by consumers that need reference windows.
type ReferenceUser interface {
	RequiresReference() bool
}

// Factory builds a fresh consumer for one pass.
type Factory func() pipeline.Consumer

// Consumer factories (name → constructor). Register in init() blocks.
var factories = map[string]Factory{}

// Register adds or replaces a factory (last wins).
func Register(name string, f Factory) { factories[name] = f }

// Names lists the registered consumer names, sorted.
func Names() []string {
	out := make([]string, 0, len(factories))
	for n := range factories {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// New builds one consumer per name, in the given order.
func New(names []string) ([]pipeline.Consumer, error) {
	seen := make(map[string]bool, len(names))
	out := make([]pipeline.Consumer, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(strings.ToLower(n))
		f, ok := factories[n]
		if !ok {
			return nil, fmt.Errorf("unknown consumer %q (available: %s)", n, strings.Join(Names(), ", "))
		}
		if seen[n] {
			return nil, fmt.Errorf("consumer %q listed twice", n)
		}
		seen[n] = true
		out = append(out, f())
	}
	return out, nil
}

// NeedReference returns the names of consumers that require a reference.
func NeedReference(cs []pipeline.Consumer) []string {
	var out []string
	for _, c := range cs {
		if r, ok := pipeline.Unwrap(c).(ReferenceUser); ok && r.RequiresReference() {
			out = append(out, pipeline.NameOf(c))
		}
	}
	return out
}

// Reports collects the reports of every consumer that produces one.
func Reports(cs []pipeline.Consumer, runID string) []api.ReportV1 {
	out := make([]api.ReportV1, 0, len(cs))
	for _, c := range cs {
		r, ok := pipeline.Unwrap(c).(Reporter)
		if !ok {
			continue
		}
		rep := r.Report()
		rep.RunID = runID
		out = append(out, rep)
	}
	return out
}
