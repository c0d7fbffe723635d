package log

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/JS123524/2D-Resource-Competition-Simulation/internal/observerproto"
	"github.com/JS123524/2D-Resource-Competition-Simulation/internal/sim/runtime"
)

func readEntries(t *testing.T, path string) []runtime.TickLogEntry {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer dec.Close()

	var out []runtime.TickLogEntry
	jd := json.NewDecoder(dec)
	for jd.More() {
		var e runtime.TickLogEntry
		if err := jd.Decode(&e); err != nil {
			t.Fatalf("decode: %v", err)
		}
		out = append(out, e)
	}
	return out
}

func TestTickLoggerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewTickLogger(dir)

	want := []runtime.TickLogEntry{
		{RunID: "run_a", Tick: 1, Alive: 5, TotalResource: 120},
		{RunID: "run_a", Tick: 2, Alive: 4, TotalResource: 115,
			Deaths: []observerproto.Death{{AgentID: 3, CellID: 7}}},
	}
	for _, e := range want {
		if err := l.WriteTick(e); err != nil {
			t.Fatalf("write tick %d: %v", e.Tick, err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got := readEntries(t, filepath.Join(dir, "ticks", "ticks-run_a.jsonl.zst"))
	if len(got) != 2 {
		t.Fatalf("read %d entries, want 2", len(got))
	}
	if got[0].Tick != 1 || got[0].Alive != 5 {
		t.Fatalf("first entry: %+v", got[0])
	}
	if len(got[1].Deaths) != 1 || got[1].Deaths[0].AgentID != 3 {
		t.Fatalf("second entry deaths: %+v", got[1].Deaths)
	}
}

func TestTickLoggerRotatesPerRun(t *testing.T) {
	dir := t.TempDir()
	l := NewTickLogger(dir)

	if err := l.WriteTick(runtime.TickLogEntry{RunID: "run_a", Tick: 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l.WriteTick(runtime.TickLogEntry{RunID: "run_b", Tick: 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	for _, run := range []string{"run_a", "run_b"} {
		path := filepath.Join(dir, "ticks", "ticks-"+run+".jsonl.zst")
		got := readEntries(t, path)
		if len(got) != 1 || got[0].RunID != run {
			t.Fatalf("%s: %+v", run, got)
		}
	}
}
