package runlog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"

	"cargonetsim/internal/protocol"
)

func readEntries(t *testing.T, dir string, out func(*json.Decoder) error) int {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.jsonl.zst"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("log files: %v (%v)", matches, err)
	}
	f, err := os.Open(matches[0])
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	defer dec.Close()

	n := 0
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		d := json.NewDecoder(strings.NewReader(sc.Text()))
		if err := out(d); err != nil {
			t.Fatalf("decode line %d: %v", n, err)
		}
		n++
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return n
}

func TestPathLoggerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewPathLogger(dir)

	entry := PathEntry{
		At:          time.Now().UTC(),
		Origin:      "o1",
		Destination: "d1",
		K:           3,
		Paths:       []protocol.Path{{ID: 1, Terminals: []string{"o1", "d1"}, TotalDistance: 42}},
	}
	if err := l.WritePath(entry); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l.WritePath(PathEntry{At: time.Now().UTC(), Origin: "o1", Destination: "d1", Error: "E_PATH_NOT_FOUND"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var got PathEntry
	n := readEntries(t, filepath.Join(dir, "paths"), func(d *json.Decoder) error {
		var e PathEntry
		if err := d.Decode(&e); err != nil {
			return err
		}
		if e.Error == "" {
			got = e
		}
		return nil
	})
	if n != 2 {
		t.Fatalf("entries: %d", n)
	}
	if got.Origin != "o1" || len(got.Paths) != 1 || got.Paths[0].TotalDistance != 42 {
		t.Fatalf("round trip: %+v", got)
	}
}

func TestRunLoggerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewRunLogger(dir)
	if err := l.WriteRun(RunEntry{
		At:           time.Now().UTC(),
		PathIDs:      []int{1, 2},
		RailNetworks: []string{"railnetA"},
		Vehicles:     4,
	}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	n := readEntries(t, filepath.Join(dir, "runs"), func(d *json.Decoder) error {
		var e RunEntry
		if err := d.Decode(&e); err != nil {
			return err
		}
		if e.Vehicles != 4 || len(e.PathIDs) != 2 {
			t.Fatalf("round trip: %+v", e)
		}
		return nil
	})
	if n != 1 {
		t.Fatalf("entries: %d", n)
	}
}
