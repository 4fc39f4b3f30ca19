package internaldefs

import (
	"strings"
	"testing"

	examAuth "github.com/MrEthical07/examAuth"
)

func TestDefsCoverEveryCounterOnce(t *testing.T) {
	seen := map[examAuth.MetricID]bool{}
	names := map[string]bool{}
	for _, def := range CounterDefs {
		if seen[def.ID] {
			t.Fatalf("duplicate id %d", def.ID)
		}
		if names[def.Name] {
			t.Fatalf("duplicate name %s", def.Name)
		}
		if !strings.HasPrefix(def.Name, "examauth_") || !strings.HasSuffix(def.Name, "_total") {
			t.Fatalf("bad counter name %s", def.Name)
		}
		seen[def.ID], names[def.Name] = true, true
	}

	m := examAuth.NewMetrics(examAuth.MetricsConfig{Enabled: true})
	for id := range m.Snapshot().Counters {
		if !seen[id] {
			t.Fatalf("counter %d has no definition", id)
		}
	}
}

func TestBoundTablesAgree(t *testing.T) {
	if len(HistogramBounds) != 8 || len(HistogramBoundSuffix) != 8 || len(HistogramBoundValues) != 8 {
		t.Fatalf("bucket tables must have 8 entries")
	}
}

func TestCumulativeBuckets(t *testing.T) {
	got := CumulativeBuckets(NormalizeBuckets([]uint64{1, 2, 3}))
	want := [8]uint64{1, 3, 6, 6, 6, 6, 6, 6}
	if got != want {
		t.Fatalf("got %v want %v", got, want)
	}
}
