package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })
	Version = "1.2.3"
	s := String()
	if !strings.HasPrefix(s, "sampass 1.2.3 (commit: ") {
		t.Fatalf("unexpected version string %q", s)
	}
}
