package provenance

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"
	"time"
)

// TrialLog is the session's append-only trial history file. Every row is
// flushed as soon as it is written so the file stays valid if the process
// is interrupted mid-session.
type TrialLog struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewTrialLog creates (or truncates) the trial log and writes its header.
func NewTrialLog(path string) (*TrialLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create trial log %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Iteration", "Pr_t", "RMSE", "Time_Sec"}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write trial log header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to flush trial log header: %w", err)
	}

	return &TrialLog{file: f, writer: w}, nil
}

// Append writes one completed trial and flushes it to disk.
func (l *TrialLog) Append(iteration int, param, loss float64, elapsed time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	record := []string{
		fmt.Sprintf("%d", iteration),
		fmt.Sprintf("%.6f", param),
		fmt.Sprintf("%.6f", loss),
		fmt.Sprintf("%.2f", elapsed.Seconds()),
	}
	if err := l.writer.Write(record); err != nil {
		return fmt.Errorf("failed to append trial %d: %w", iteration, err)
	}
	l.writer.Flush()
	return l.writer.Error()
}

// Close flushes and closes the underlying file.
func (l *TrialLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer.Flush()
	return l.file.Close()
}
