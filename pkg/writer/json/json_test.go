package json

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smsledger/smsledger/pkg/api"
)

func writeOne(t *testing.T, w *Writer, expense *api.CandidateExpense) {
	t.Helper()

	in := make(chan *api.CandidateExpense, 1)
	ackChan := make(chan string, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- w.Write(ctx, in, ackChan)
	}()

	in <- expense
	close(in)

	if err := <-errChan; err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
}

func TestWrite_PersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expenses.json")

	w, err := New(Config{FilePath: path, BatchSize: 1}, nil)
	if err != nil {
		t.Fatalf("failed to create writer: %v", err)
	}

	writeOne(t, w, &api.CandidateExpense{
		MessageID:  "m1",
		Amount:     1250.00,
		Merchant:   "SWIGGY",
		Date:       time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC),
		Category:   "Food & Dining",
		Type:       api.Expense,
		Confidence: 100,
		RawText:    "Rs.1,250.00 debited for UPI payment to SWIGGY",
	})

	if w.ExpenseCount() != 1 {
		t.Errorf("expense count: got %d, want 1", w.ExpenseCount())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output file: %v", err)
	}

	var got []*api.CandidateExpense
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("failed to unmarshal output: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d expenses, want 1", len(got))
	}
	if got[0].Amount != 1250.00 || got[0].Merchant != "SWIGGY" {
		t.Errorf("unexpected expense: %+v", got[0])
	}

	// A new writer over the same file loads the existing expenses and
	// appends instead of overwriting.
	w2, err := New(Config{FilePath: path, BatchSize: 1}, nil)
	if err != nil {
		t.Fatalf("failed to create second writer: %v", err)
	}
	if w2.ExpenseCount() != 1 {
		t.Fatalf("existing count: got %d, want 1", w2.ExpenseCount())
	}

	writeOne(t, w2, &api.CandidateExpense{
		MessageID:  "m2",
		Amount:     40,
		Type:       api.Expense,
		Confidence: 40,
		RawText:    "You sent Rs.40 using Google Pay",
	})

	if w2.ExpenseCount() != 2 {
		t.Errorf("expense count after append: got %d, want 2", w2.ExpenseCount())
	}
}
