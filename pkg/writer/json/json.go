// Package json implements a Writer that persists candidate expenses to a JSON file.
package json

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/smsledger/smsledger/pkg/api"
	"github.com/smsledger/smsledger/pkg/writer/buffered"
)

// Writer writes candidate expenses to a JSON file with buffered batching.
// The whole array is rewritten on every flush; JSON has no append.
type Writer struct {
	filePath string
	expenses []*api.CandidateExpense
	mu       sync.Mutex
	buffered *buffered.Writer
	logger   *slog.Logger
}

// Config holds configuration for the JSON writer.
type Config struct {
	// FilePath is the path to the JSON output file.
	FilePath string
	// BatchSize is the number of expenses to buffer before writing.
	BatchSize int
	// FlushInterval is the interval between automatic flushes, in seconds.
	FlushInterval int
}

// New creates a new JSON writer, loading any expenses already in the file.
func New(cfg Config, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	w := &Writer{
		filePath: cfg.FilePath,
		expenses: make([]*api.CandidateExpense, 0),
		logger:   logger,
	}

	if err := w.loadExisting(); err != nil {
		logger.Warn("could not load existing expenses", "error", err)
	}

	bufCfg := buffered.Config{BatchSize: cfg.BatchSize}
	if cfg.FlushInterval > 0 {
		bufCfg.FlushInterval = time.Duration(cfg.FlushInterval) * time.Second
	}
	w.buffered = buffered.New(w.flushBatch, bufCfg, logger.With("component", "json_buffer"))

	logger.Info("json writer initialized", "file", cfg.FilePath, "existing_count", len(w.expenses))
	return w, nil
}

func (w *Writer) loadExisting() error {
	data, err := os.ReadFile(w.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, &w.expenses)
}

// Write consumes candidate expenses from the input channel and writes them to JSON.
func (w *Writer) Write(ctx context.Context, in <-chan *api.CandidateExpense, ackChan chan<- string) error {
	return w.buffered.Write(ctx, in, ackChan)
}

func (w *Writer) flushBatch(expenses []*api.CandidateExpense) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.expenses = append(w.expenses, expenses...)

	data, err := json.MarshalIndent(w.expenses, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling json: %w", err)
	}

	if err := os.WriteFile(w.filePath, data, 0o600); err != nil {
		return fmt.Errorf("writing json file: %w", err)
	}

	w.logger.Debug("wrote expenses to json",
		"batch_count", len(expenses),
		"total_count", len(w.expenses),
	)
	return nil
}

// ExpenseCount returns the total number of expenses written.
func (w *Writer) ExpenseCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.expenses)
}
