package csv

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smsledger/smsledger/pkg/api"
)

func TestWrite_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expenses.csv")

	w, err := New(Config{FilePath: path, BatchSize: 1}, nil)
	if err != nil {
		t.Fatalf("failed to create writer: %v", err)
	}

	expense := &api.CandidateExpense{
		MessageID:  "m1",
		Amount:     1250.00,
		Merchant:   "SWIGGY",
		Date:       time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC),
		Category:   "Food & Dining",
		Type:       api.Expense,
		Confidence: 100,
		RawText:    "Rs.1,250.00 debited from a/c for UPI payment to SWIGGY on 05-06-2024",
		Address:    "VM-HDFCBK",
	}

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

	select {
	case id := <-ackChan:
		if id != "m1" {
			t.Errorf("ack: got %s, want m1", id)
		}
	default:
		t.Error("missing acknowledgment")
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open output file: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to read csv: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("got %d rows, want header plus one record", len(records))
	}
	if records[0][0] != "Date" {
		t.Errorf("header: got %q, want Date first", records[0][0])
	}

	row := records[1]
	if row[0] != "2024-06-05" {
		t.Errorf("date column: got %q, want 2024-06-05", row[0])
	}
	if row[1] != "1250.00" {
		t.Errorf("amount column: got %q, want 1250.00", row[1])
	}
	if row[2] != "SWIGGY" {
		t.Errorf("merchant column: got %q, want SWIGGY", row[2])
	}
	if row[5] != "100" {
		t.Errorf("confidence column: got %q, want 100", row[5])
	}
}

// TestNew_AppendsWithoutDuplicateHeaders verifies that reopening an existing
// file does not write a second header row.
func TestNew_AppendsWithoutDuplicateHeaders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expenses.csv")

	for i := 0; i < 2; i++ {
		w, err := New(Config{FilePath: path}, nil)
		if err != nil {
			t.Fatalf("failed to create writer: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("failed to close writer: %v", err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open output file: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to read csv: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("got %d rows, want exactly one header row", len(records))
	}
}
