// Package extract assembles candidate expenses from raw messages using the
// pattern tables. It is pure and stateless: the same message always yields
// the same candidate, and concurrent use needs no locking.
package extract

import (
	"log/slog"

	"github.com/smsledger/smsledger/pkg/api"
	"github.com/smsledger/smsledger/pkg/patterns"
)

// Confidence contributions per resolved field. The amount contribution is
// effectively unconditional: a candidate without an amount is never built.
const (
	amountScore   = 40
	merchantScore = 30
	categoryScore = 30
)

// DefaultMinConfidence is the batch threshold used when the caller does not
// choose one. It admits any candidate that cleared the amount gate.
const DefaultMinConfidence = 40

// Options controls batch extraction.
type Options struct {
	// MinConfidence discards candidates scoring below it.
	MinConfidence int
	// FilterDuplicates drops candidates whose raw body was already seen,
	// keeping the first occurrence in input order.
	FilterDuplicates bool
}

// Extractor turns raw messages into candidate expenses.
type Extractor struct {
	logger *slog.Logger
}

// New creates an Extractor.
func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// One extracts a candidate expense from a single message. It returns nil
// when no positive amount can be found: a message without a discernible
// amount is never surfaced, whatever else it contains. Every other missing
// field degrades to a fallback instead of failing.
func (e *Extractor) One(msg *api.RawMessage) *api.CandidateExpense {
	txType := patterns.DetermineType(msg.Body)

	amount, ok := patterns.ExtractAmount(msg.Body, txType)
	if !ok {
		return nil
	}

	merchant, hasMerchant := patterns.ExtractMerchant(msg.Body)
	date := patterns.ExtractDate(msg.Body, msg.Timestamp)
	category, _ := patterns.DetermineCategory(msg.Body, merchant)

	confidence := amountScore
	if hasMerchant {
		confidence += merchantScore
	}
	if category != patterns.CategoryOther {
		confidence += categoryScore
	}

	if ref, ok := patterns.ExtractCardReference(msg.Body); ok {
		e.logger.Debug("card reference found", "message_id", msg.ID, "last_four", ref)
	}

	return &api.CandidateExpense{
		Amount:     amount,
		Merchant:   merchant,
		Date:       date,
		Category:   category,
		Type:       txType,
		Confidence: confidence,
		RawText:    msg.Body,
		Address:    msg.Address,
		MessageID:  msg.ID,
	}
}

// Batch extracts candidates from every message, drops those below the
// confidence threshold and optionally deduplicates by exact raw-text
// equality. Order is preserved; dedup keeps the first occurrence.
func (e *Extractor) Batch(msgs []*api.RawMessage, opts Options) []*api.CandidateExpense {
	seen := make(map[string]struct{}, len(msgs))
	out := make([]*api.CandidateExpense, 0, len(msgs))

	for _, msg := range msgs {
		candidate := e.One(msg)
		if candidate == nil {
			continue
		}
		if candidate.Confidence < opts.MinConfidence {
			e.logger.Debug("dropping low-confidence candidate",
				"message_id", msg.ID,
				"confidence", candidate.Confidence,
			)
			continue
		}
		if opts.FilterDuplicates {
			if _, dup := seen[candidate.RawText]; dup {
				continue
			}
			seen[candidate.RawText] = struct{}{}
		}
		out = append(out, candidate)
	}

	return out
}
