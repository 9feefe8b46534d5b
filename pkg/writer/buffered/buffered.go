// Package buffered provides a batching base shared by the expense writers.
package buffered

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/smsledger/smsledger/pkg/api"
)

// DefaultBatchSize is the number of expenses buffered before a flush.
const DefaultBatchSize = 10

// DefaultFlushInterval is the interval between automatic flushes.
const DefaultFlushInterval = 30 * time.Second

// Flusher writes a batch of candidate expenses to the destination.
type Flusher func(expenses []*api.CandidateExpense) error

// Config holds batching options.
type Config struct {
	// BatchSize defaults to DefaultBatchSize.
	BatchSize int
	// FlushInterval defaults to DefaultFlushInterval.
	FlushInterval time.Duration
}

// Writer buffers candidate expenses and flushes them in batches through a
// Flusher. After a successful flush it acknowledges the source message IDs.
type Writer struct {
	buffer  []*api.CandidateExpense
	mu      sync.Mutex
	flusher Flusher
	config  Config
	logger  *slog.Logger
}

// New creates a buffered writer around the given flusher.
func New(flusher Flusher, cfg Config, logger *slog.Logger) *Writer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Writer{
		buffer:  make([]*api.CandidateExpense, 0, cfg.BatchSize),
		flusher: flusher,
		config:  cfg,
		logger:  logger,
	}
}

// Write consumes candidate expenses from in, flushing on batch size, on the
// interval, on channel close and on cancellation.
func (w *Writer) Write(ctx context.Context, in <-chan *api.CandidateExpense, ackChan chan<- string) error {
	ticker := time.NewTicker(w.config.FlushInterval)
	defer ticker.Stop()

	w.logger.Info("buffered writer started",
		"batch_size", w.config.BatchSize,
		"flush_interval", w.config.FlushInterval,
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("buffered writer stopping, flushing remaining buffer")
			if err := w.flush(ctx, ackChan); err != nil {
				w.logger.Error("failed to flush on shutdown", "error", err)
			}
			return context.Canceled

		case <-ticker.C:
			if err := w.flush(ctx, ackChan); err != nil {
				w.logger.Error("failed to flush on interval", "error", err)
			}

		case expense, ok := <-in:
			if !ok {
				w.logger.Info("input channel closed, flushing remaining buffer")
				return w.flush(ctx, ackChan)
			}

			w.mu.Lock()
			w.buffer = append(w.buffer, expense)
			full := len(w.buffer) >= w.config.BatchSize
			w.mu.Unlock()

			if full {
				if err := w.flush(ctx, ackChan); err != nil {
					w.logger.Error("failed to flush on batch size", "error", err)
				}
			}
		}
	}
}

func (w *Writer) flush(ctx context.Context, ackChan chan<- string) error {
	w.mu.Lock()
	if len(w.buffer) == 0 {
		w.mu.Unlock()
		return nil
	}

	toFlush := make([]*api.CandidateExpense, len(w.buffer))
	copy(toFlush, w.buffer)
	w.buffer = w.buffer[:0]
	w.mu.Unlock()

	if err := w.flusher(toFlush); err != nil {
		return err
	}

	for _, expense := range toFlush {
		if expense.MessageID == "" {
			continue
		}
		select {
		case ackChan <- expense.MessageID:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	w.logger.Info("flushed expenses", "count", len(toFlush))
	return nil
}

// BufferLen returns the current number of buffered expenses.
func (w *Writer) BufferLen() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.buffer)
}
