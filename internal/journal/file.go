package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/openquant/helix/internal/core"
)

// FileConfig holds settings for the file-backed journal.
type FileConfig struct {
	// Path is the journal file location.
	Path string
	// MaxSizeMB rotates the file after this many megabytes.
	MaxSizeMB int
	// MaxBackups is the number of rotated files to keep.
	MaxBackups int
	// MaxAgeDays removes rotated files older than this.
	MaxAgeDays int
}

// DefaultFileConfig returns sensible journal rotation defaults.
func DefaultFileConfig(path string) FileConfig {
	return FileConfig{
		Path:       path,
		MaxSizeMB:  50,
		MaxBackups: 10,
		MaxAgeDays: 30,
	}
}

// FileJournal appends events as JSON lines to a rotating log file.
type FileJournal struct {
	writer *lumberjack.Logger
	mu     sync.Mutex
}

var _ Journal = (*FileJournal)(nil)

// NewFile creates a file-backed journal with rotation.
func NewFile(cfg FileConfig) *FileJournal {
	return &FileJournal{
		writer: &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		},
	}
}

// Append writes the event as one JSON line.
func (f *FileJournal) Append(ctx context.Context, event core.Event) error {
	line, err := json.Marshal(event)
	if err != nil {
		return core.WrapError(core.ErrJournalFailed, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.writer.Write(append(line, '\n')); err != nil {
		return core.WrapError(core.ErrJournalFailed, err)
	}
	return nil
}

// Close closes the underlying file.
func (f *FileJournal) Close() error {
	return f.writer.Close()
}

// ReadFile loads all events from a journal file, oldest first. Lines that
// fail to parse are skipped rather than aborting the read.
func ReadFile(path string) ([]core.Event, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	defer file.Close()

	var events []core.Event
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var e core.Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	return events, nil
}
