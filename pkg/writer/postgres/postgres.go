// Package postgres provides a PostgreSQL writer for candidate expense storage.
package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smsledger/smsledger/pkg/api"
	"github.com/smsledger/smsledger/pkg/patterns"
)

//go:embed 001_create_expenses.sql
var migrationSQL string

// Config holds the PostgreSQL writer configuration.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string

	// Categories is the live category list to reconcile suggested
	// categories against. Defaults to the built-in category set plus
	// "Other".
	Categories []string

	// BatchSize is the number of expenses to buffer before writing.
	BatchSize int
	// FlushInterval is the time between automatic flushes.
	FlushInterval time.Duration

	// MaxPoolSize is the maximum number of connections in the pool.
	MaxPoolSize int
}

// Writer writes candidate expenses to a PostgreSQL database.
type Writer struct {
	pool          *pgxpool.Pool
	logger        *slog.Logger
	categories    []string
	batchSize     int
	flushInterval time.Duration
}

// New creates a new PostgreSQL writer and runs migrations.
func New(cfg Config, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Port == 0 {
		cfg.Port = 5432
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 10
	}
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = 30 * time.Second
	}
	if cfg.MaxPoolSize == 0 {
		cfg.MaxPoolSize = 10
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = append(patterns.CategoryNames(), patterns.CategoryOther)
	}

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxPoolSize)
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.Info("connected to PostgreSQL",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.Database,
	)

	w := &Writer{
		pool:          pool,
		logger:        logger,
		categories:    cfg.Categories,
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
	}

	if err := w.runMigrations(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return w, nil
}

func (w *Writer) runMigrations(ctx context.Context) error {
	w.logger.Info("running database migrations")

	if _, err := w.pool.Exec(ctx, migrationSQL); err != nil {
		return fmt.Errorf("executing migration: %w", err)
	}

	w.logger.Info("migrations completed successfully")
	return nil
}

// Write consumes candidate expenses from the channel and writes them to
// PostgreSQL in batches, acknowledging message IDs after each flush.
func (w *Writer) Write(ctx context.Context, in <-chan *api.CandidateExpense, ackChan chan<- string) error {
	batch := make([]*api.CandidateExpense, 0, w.batchSize)
	ticker := time.NewTicker(w.flushInterval)
	defer ticker.Stop()

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}

		if err := w.writeBatch(ctx, batch); err != nil {
			return err
		}

		for _, expense := range batch {
			if expense.MessageID == "" {
				continue
			}
			select {
			case ackChan <- expense.MessageID:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		w.logger.Info("wrote expense batch", "count", len(batch))
		batch = batch[:0]
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			if err := flush(); err != nil {
				w.logger.Error("failed to flush final batch", "error", err)
			}
			return ctx.Err()

		case expense, ok := <-in:
			if !ok {
				return flush()
			}

			batch = append(batch, expense)
			if len(batch) >= w.batchSize {
				if err := flush(); err != nil {
					return err
				}
			}

		case <-ticker.C:
			if err := flush(); err != nil {
				return err
			}
		}
	}
}

// writeBatch upserts a batch of candidate expenses keyed on message_id, so a
// re-read source never duplicates rows.
func (w *Writer) writeBatch(ctx context.Context, expenses []*api.CandidateExpense) error {
	if len(expenses) == 0 {
		return nil
	}

	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, e := range expenses {
		batch.Queue(`
			INSERT INTO candidate_expenses (
				message_id, amount, merchant, expense_date, category,
				suggested_category, transaction_type, confidence, raw_text, sender
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (message_id) DO UPDATE SET
				amount = EXCLUDED.amount,
				merchant = EXCLUDED.merchant,
				expense_date = EXCLUDED.expense_date,
				category = EXCLUDED.category,
				suggested_category = EXCLUDED.suggested_category,
				transaction_type = EXCLUDED.transaction_type,
				confidence = EXCLUDED.confidence,
				raw_text = EXCLUDED.raw_text,
				sender = EXCLUDED.sender,
				updated_at = NOW()
		`,
			e.MessageID,
			e.Amount,
			nullable(e.Merchant),
			e.Date,
			w.resolveCategory(e.Category),
			e.Category,
			string(e.Type),
			e.Confidence,
			e.RawText,
			nullable(e.Address),
		)
	}

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < len(expenses); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("inserting expense %d: %w", i, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("closing batch results: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// resolveCategory matches a suggested category against the live category
// list by case-insensitive exact name. No match falls back to "Other" if the
// list has it, otherwise the category is left unset.
func (w *Writer) resolveCategory(suggested string) *string {
	var other *string
	for i := range w.categories {
		name := w.categories[i]
		if strings.EqualFold(name, suggested) {
			return &w.categories[i]
		}
		if name == patterns.CategoryOther {
			other = &w.categories[i]
		}
	}
	return other
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Close closes the database connection pool.
func (w *Writer) Close() {
	if w.pool != nil {
		w.pool.Close()
		w.logger.Info("closed PostgreSQL connection pool")
	}
}
