package sweep

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
)

func TestDataLogConcurrentAppendAndSnapshot(t *testing.T) {
	log := NewDataLog()
	const writers, perWriter = 4, 250

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				log.Append(Sample{Timestamp: float64(base + i), Voltage: 1.5})
			}
		}(w * perWriter)
	}
	// snapshot concurrently; every observed sample must be fully formed
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			for _, s := range log.Snapshot() {
				if s.Voltage != 1.5 {
					t.Errorf("torn sample observed: %+v", s)
					return
				}
			}
		}
	}()
	wg.Wait()
	<-done

	if got := log.Len(); got != writers*perWriter {
		t.Fatalf("expected %d samples, got %d", writers*perWriter, got)
	}
}

func TestDataLogSnapshotIsACopy(t *testing.T) {
	log := NewDataLog()
	log.Append(Sample{Timestamp: 1, Voltage: 2})
	snap := log.Snapshot()
	snap[0].Voltage = 99
	if log.Snapshot()[0].Voltage != 2 {
		t.Fatal("snapshot aliases the internal slice")
	}
}

func TestSaveCSVRoundTrip(t *testing.T) {
	log := NewDataLog()
	samples := []Sample{
		{Timestamp: 1700000000.25, Voltage: 0},
		{Timestamp: 1700000001.5, Voltage: 0.1},
		{Timestamp: 1700000002.75, Voltage: 3.3},
	}
	for _, s := range samples {
		log.Append(s)
	}

	path := filepath.Join(t.TempDir(), "run.csv")
	if err := log.SaveCSV(path); err != nil {
		t.Fatalf("SaveCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open exported csv: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse exported csv: %v", err)
	}
	if len(rows) != len(samples)+1 {
		t.Fatalf("expected header + %d rows, got %d", len(samples), len(rows))
	}
	if rows[0][0] != "timestamp" || rows[0][1] != "voltage" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	for i, s := range samples {
		ts, _ := strconv.ParseFloat(rows[i+1][0], 64)
		v, _ := strconv.ParseFloat(rows[i+1][1], 64)
		if ts != s.Timestamp || v != s.Voltage {
			t.Fatalf("row %d: got (%g, %g), want (%g, %g)", i, ts, v, s.Timestamp, s.Voltage)
		}
	}
}

func TestSaveCSVEmptyLogWritesHeaderOnly(t *testing.T) {
	log := NewDataLog()
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := log.SaveCSV(path); err != nil {
		t.Fatalf("SaveCSV: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read exported csv: %v", err)
	}
	if strings.TrimSpace(string(data)) != "timestamp,voltage" {
		t.Fatalf("expected header only, got %q", string(data))
	}
}

func TestSaveCSVLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	log := NewDataLog()
	log.Append(Sample{Timestamp: 1, Voltage: 2})
	if err := log.SaveCSV(filepath.Join(dir, "run.csv")); err != nil {
		t.Fatalf("SaveCSV: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "run.csv" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected only run.csv, found %v", names)
	}
}

func TestSaveCSVMissingDirectoryFails(t *testing.T) {
	log := NewDataLog()
	path := filepath.Join(t.TempDir(), "nope", "run.csv")
	if err := log.SaveCSV(path); err == nil {
		t.Fatal("expected error for missing target directory")
	}
}
