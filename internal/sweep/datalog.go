package sweep

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// Sample is one applied set-point: wall-clock Unix seconds and the voltage.
type Sample struct {
	Timestamp float64
	Voltage   float64
}

// DataLog is the append-only record of a single run. The sweep loop appends
// while the event sink reads snapshots for live plotting, so access is guarded
// by a mutex. The lock is held only for an append or a snapshot copy, never
// across a port call or a sleep.
type DataLog struct {
	mu      sync.Mutex
	samples []Sample
}

func NewDataLog() *DataLog { return &DataLog{} }

// Append records one sample in emission order.
func (l *DataLog) Append(s Sample) {
	l.mu.Lock()
	l.samples = append(l.samples, s)
	l.mu.Unlock()
}

// Len returns the current sample count.
func (l *DataLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.samples)
}

// Snapshot returns a copy of the log. Readers never observe a torn sample.
func (l *DataLog) Snapshot() []Sample {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Sample, len(l.samples))
	copy(out, l.samples)
	return out
}

// SaveCSV exports the log as UTF-8 CSV with a "timestamp,voltage" header, one
// row per sample. It writes a temporary file in the target directory and
// renames it into place, so a crash or concurrent reader never observes a
// partially written file.
func (l *DataLog) SaveCSV(path string) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp log file in %q: %w", dir, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err = w.Write([]string{"timestamp", "voltage"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, s := range l.Snapshot() {
		row := []string{
			strconv.FormatFloat(s.Timestamp, 'f', -1, 64),
			strconv.FormatFloat(s.Voltage, 'f', -1, 64),
		}
		if err = w.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp log file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %q to %q: %w", tmp.Name(), path, err)
	}
	return nil
}
