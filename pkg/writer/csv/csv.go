// Package csv implements a Writer that appends candidate expenses to a CSV file.
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/smsledger/smsledger/pkg/api"
	"github.com/smsledger/smsledger/pkg/writer/buffered"
)

// Writer writes candidate expenses to a CSV file with buffered batching.
type Writer struct {
	filePath string
	file     *os.File
	writer   *csv.Writer
	mu       sync.Mutex
	buffered *buffered.Writer
	logger   *slog.Logger
}

// Config holds configuration for the CSV writer.
type Config struct {
	// FilePath is the path to the CSV output file.
	FilePath string
	// BatchSize is the number of expenses to buffer before writing.
	BatchSize int
	// FlushInterval is the interval between automatic flushes, in seconds.
	FlushInterval int
}

// New creates a new CSV writer, appending to an existing file or creating a
// new one with headers.
func New(cfg Config, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening csv file: %w", err)
	}

	w := &Writer{
		filePath: cfg.FilePath,
		file:     file,
		writer:   csv.NewWriter(file),
		logger:   logger,
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat csv file: %w", err)
	}
	if stat.Size() == 0 {
		if err := w.writeHeaders(); err != nil {
			file.Close()
			return nil, fmt.Errorf("writing headers: %w", err)
		}
	}

	bufCfg := buffered.Config{BatchSize: cfg.BatchSize}
	if cfg.FlushInterval > 0 {
		bufCfg.FlushInterval = time.Duration(cfg.FlushInterval) * time.Second
	}
	w.buffered = buffered.New(w.flushBatch, bufCfg, logger.With("component", "csv_buffer"))

	logger.Info("csv writer initialized", "file", cfg.FilePath)
	return w, nil
}

func (w *Writer) writeHeaders() error {
	headers := []string{"Date", "Amount", "Merchant", "Category", "Type", "Confidence", "Sender", "RawText"}
	if err := w.writer.Write(headers); err != nil {
		return err
	}
	w.writer.Flush()
	return w.writer.Error()
}

// Write consumes candidate expenses from the input channel and writes them to CSV.
func (w *Writer) Write(ctx context.Context, in <-chan *api.CandidateExpense, ackChan chan<- string) error {
	defer w.Close()
	return w.buffered.Write(ctx, in, ackChan)
}

func (w *Writer) flushBatch(expenses []*api.CandidateExpense) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, e := range expenses {
		record := []string{
			e.Date.Format(time.DateOnly),
			strconv.FormatFloat(e.Amount, 'f', 2, 64),
			e.Merchant,
			e.Category,
			string(e.Type),
			strconv.Itoa(e.Confidence),
			e.Address,
			e.RawText,
		}
		if err := w.writer.Write(record); err != nil {
			return fmt.Errorf("writing csv record: %w", err)
		}
	}

	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	w.logger.Debug("wrote expenses to csv", "count", len(expenses))
	return nil
}

// Close flushes and closes the CSV file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.writer.Flush()
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("closing csv file: %w", err)
	}

	w.logger.Info("csv writer closed", "file", w.filePath)
	return nil
}
