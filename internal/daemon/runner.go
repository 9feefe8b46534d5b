// Package daemon provides the core pipeline runner for smsledger.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/smsledger/smsledger/internal/plugins"
	"github.com/smsledger/smsledger/pkg/api"
	"github.com/smsledger/smsledger/pkg/config"
	"github.com/smsledger/smsledger/pkg/extract"
	"github.com/smsledger/smsledger/pkg/patterns"
)

// Runner manages the extraction pipeline lifecycle:
// reader → extractor → writer, with acknowledgments flowing back from the
// writer to the reader.
type Runner struct {
	registry   *plugins.Registry
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a new pipeline runner.
func New(registry *plugins.Registry, httpClient *http.Client, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		registry:   registry,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Run starts the pipeline with the given configuration and blocks until the
// reader finishes or the context is canceled.
func (r *Runner) Run(ctx context.Context, cfg config.Config) error {
	if cfg.ReaderPlugin == "" {
		return fmt.Errorf("SMSLEDGER_READER environment variable is required")
	}
	if cfg.WriterPlugin == "" {
		return fmt.Errorf("SMSLEDGER_WRITER environment variable is required")
	}

	minConfidence := cfg.MinConfidence
	if minConfidence == 0 {
		minConfidence = extract.DefaultMinConfidence
	}
	filterDuplicates := true
	if cfg.FilterDuplicates != nil {
		filterDuplicates = *cfg.FilterDuplicates
	}

	r.logger.Info("starting smsledger pipeline",
		"reader", cfg.ReaderPlugin,
		"writer", cfg.WriterPlugin,
		"min_confidence", minConfidence,
		"filter_duplicates", filterDuplicates,
	)

	reader, err := r.registry.CreateReader(
		cfg.ReaderPlugin,
		r.httpClient,
		cfg.ReaderConfig,
		r.logger.With("component", "reader", "plugin", cfg.ReaderPlugin),
	)
	if err != nil {
		return fmt.Errorf("creating reader: %w", err)
	}

	writer, err := r.registry.CreateWriter(
		cfg.WriterPlugin,
		r.httpClient,
		cfg.WriterConfig,
		r.logger.With("component", "writer", "plugin", cfg.WriterPlugin),
	)
	if err != nil {
		return fmt.Errorf("creating writer: %w", err)
	}

	extractor := extract.New(r.logger.With("component", "extractor"))

	messages := make(chan *api.RawMessage, 100)
	candidates := make(chan *api.CandidateExpense, 100)
	ackChan := make(chan string, 100)

	writerDone := make(chan error, 1)
	go func() {
		writerDone <- writer.Write(ctx, candidates, ackChan)
	}()

	extractDone := make(chan struct{})
	go func() {
		defer close(extractDone)
		defer close(candidates)
		r.runExtraction(ctx, extractor, messages, candidates, minConfidence, filterDuplicates)
	}()

	r.logger.Info("pipeline started")
	if err := reader.Read(ctx, messages, ackChan); err != nil && !errors.Is(err, context.Canceled) {
		r.logger.Error("reader error", "error", err)
	}

	<-extractDone
	if err := <-writerDone; err != nil && !errors.Is(err, context.Canceled) {
		r.logger.Error("writer error", "error", err)
	}
	close(ackChan)

	r.logger.Info("pipeline stopped")
	return nil
}

// runExtraction applies the extractor to each incoming message, filters by
// confidence, and deduplicates by message body. Messages arrive in source
// order on a single channel, so "first occurrence wins" holds without any
// re-sorting.
func (r *Runner) runExtraction(
	ctx context.Context,
	extractor *extract.Extractor,
	in <-chan *api.RawMessage,
	out chan<- *api.CandidateExpense,
	minConfidence int,
	filterDuplicates bool,
) {
	seen := make(map[string]struct{})
	processed, emitted := 0, 0

	for msg := range in {
		processed++

		candidate := extractor.One(msg)
		if candidate == nil {
			r.logger.Debug("no expense in message", "message_id", msg.ID)
			continue
		}
		if candidate.Confidence < minConfidence {
			r.logger.Debug("candidate below confidence threshold",
				"message_id", msg.ID,
				"confidence", candidate.Confidence,
			)
			continue
		}
		if filterDuplicates {
			if _, dup := seen[candidate.RawText]; dup {
				r.logger.Debug("duplicate message body, skipping", "message_id", msg.ID)
				continue
			}
			seen[candidate.RawText] = struct{}{}
		}

		if app, ok := patterns.AppName(msg.Address); ok {
			r.logger.Debug("message from known app", "app", app)
		}

		select {
		case <-ctx.Done():
			return
		case out <- candidate:
			emitted++
		}
	}

	r.logger.Info("extraction stage finished", "processed", processed, "emitted", emitted)
}
