// Package api defines the core interfaces and data structures for smsledger.
package api

import (
	"context"
	"time"
)

// TransactionType classifies the direction of a transaction.
type TransactionType string

const (
	// Expense is money leaving the account. Ambiguous messages default to this.
	Expense TransactionType = "expense"
	// Income is money entering the account.
	Income TransactionType = "income"
)

// RawMessage is a single SMS or notification message as received from a source.
type RawMessage struct {
	// ID identifies the message within its source (used for acknowledgment).
	ID string `json:"id"`
	// Body is the message text. May be empty.
	Body string `json:"body"`
	// Address is the sender identifier: a phone number, a short code like
	// VM-HDFCBK, or an app package name. Empty if unknown.
	Address string `json:"address,omitempty"`
	// Timestamp is when the message was received. Used as the fallback
	// expense date when the body carries no recognizable date.
	Timestamp time.Time `json:"timestamp"`
}

// CandidateExpense is an unconfirmed transaction heuristically extracted from
// a message, awaiting user review. It is only ever built with Amount > 0.
type CandidateExpense struct {
	Amount float64 `json:"amount"`
	// Merchant is the best-effort extracted name, trimmed and with trailing
	// legal suffixes stripped. Empty if no pattern matched.
	Merchant string `json:"merchant,omitempty"`
	// Date is the transaction date from the message body, or the message
	// timestamp if none was found.
	Date time.Time `json:"date"`
	// Category is one of the fixed category names, or "Other".
	Category string          `json:"category"`
	Type     TransactionType `json:"type"`
	// Confidence is 0-100: 40 for the amount, plus 30 each for a resolved
	// merchant and a non-Other category.
	Confidence int `json:"confidence"`
	// RawText is the original message body, kept for review display and as
	// the deduplication key.
	RawText string `json:"raw_text"`
	// Address is the sender of the originating message, carried through for
	// display.
	Address string `json:"address,omitempty"`
	// MessageID is the source message ID (used for acknowledgment after a
	// successful write).
	MessageID string `json:"-"`
}

// Reader reads raw messages from a source and sends them to the provided channel.
// Implementations should close the channel when done or on error.
// The ackChan delivers IDs of messages whose extracted expenses were
// successfully written, so the source can mark them processed.
type Reader interface {
	Read(ctx context.Context, out chan<- *RawMessage, ackChan <-chan string) error
}

// Writer consumes candidate expenses from a channel and writes them to a
// destination. Successfully written message IDs are sent to the ackChan.
type Writer interface {
	Write(ctx context.Context, in <-chan *CandidateExpense, ackChan chan<- string) error
}
