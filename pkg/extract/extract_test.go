package extract

import (
	"testing"
	"time"

	"github.com/smsledger/smsledger/pkg/api"
)

func msg(id, body string) *api.RawMessage {
	return &api.RawMessage{
		ID:        id,
		Body:      body,
		Address:   "VM-HDFCBK",
		Timestamp: time.Date(2024, 1, 15, 14, 30, 45, 0, time.UTC),
	}
}

func TestOne_FullExtraction(t *testing.T) {
	e := New(nil)

	m := msg("m1", "Rs.1,250.00 debited from a/c for UPI payment to SWIGGY on 05-06-2024")
	got := e.One(m)
	if got == nil {
		t.Fatal("expected a candidate, got nil")
	}

	if got.Amount != 1250.00 {
		t.Errorf("amount: got %v, want 1250.00", got.Amount)
	}
	if got.Merchant != "SWIGGY" {
		t.Errorf("merchant: got %q, want %q", got.Merchant, "SWIGGY")
	}
	if got.Category != "Food & Dining" {
		t.Errorf("category: got %q, want %q", got.Category, "Food & Dining")
	}
	if got.Type != api.Expense {
		t.Errorf("type: got %v, want %v", got.Type, api.Expense)
	}
	if got.Confidence != 100 {
		t.Errorf("confidence: got %d, want 100", got.Confidence)
	}
	want := time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)
	if !got.Date.Equal(want) {
		t.Errorf("date: got %v, want %v", got.Date, want)
	}
	if got.RawText != m.Body {
		t.Errorf("raw text: got %q, want original body", got.RawText)
	}
	if got.MessageID != "m1" {
		t.Errorf("message id: got %q, want %q", got.MessageID, "m1")
	}
}

// TestOne_AmountGate verifies that a message with no recognizable amount
// never yields a candidate, whatever else it contains.
func TestOne_AmountGate(t *testing.T) {
	e := New(nil)

	bodies := []string{
		"Your OTP is 482910. Do not share it with anyone.",
		"Reminder: your statement is ready",
		"Recharge offers at AIRTEL just for you",
	}

	for _, body := range bodies {
		if got := e.One(msg("m1", body)); got != nil {
			t.Errorf("One(%q) = %+v, want nil", body, got)
		}
	}
}

func TestOne_ConfidenceLevels(t *testing.T) {
	e := New(nil)

	tests := []struct {
		name string
		body string
		want int
	}{
		{
			name: "amount only",
			body: "Rs.250 debited via UPI",
			want: 40,
		},
		{
			name: "amount and merchant, unknown category",
			body: "Rs.250 debited for payment to RELIANCE CAPITAL",
			want: 70,
		},
		{
			name: "amount and category, no merchant",
			body: "Rs.349 debited for netflix subscription",
			want: 70,
		},
		{
			name: "all fields resolved",
			body: "Rs.450 debited for payment to ZOMATO",
			want: 100,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := e.One(msg("m1", tc.body))
			if got == nil {
				t.Fatal("expected a candidate, got nil")
			}
			if got.Confidence != tc.want {
				t.Errorf("confidence: got %d, want %d", got.Confidence, tc.want)
			}
		})
	}
}

func TestOne_IncomeClassification(t *testing.T) {
	e := New(nil)

	got := e.One(msg("m1", "Rs.9,000.00 credited to your a/c XX1234"))
	if got == nil {
		t.Fatal("expected a candidate, got nil")
	}
	if got.Type != api.Income {
		t.Errorf("type: got %v, want %v", got.Type, api.Income)
	}
	if got.Amount != 9000 {
		t.Errorf("amount: got %v, want 9000", got.Amount)
	}
}

func TestOne_DateFallsBackToTimestamp(t *testing.T) {
	e := New(nil)

	m := msg("m1", "Rs.250 debited via UPI")
	got := e.One(m)
	if got == nil {
		t.Fatal("expected a candidate, got nil")
	}
	if !got.Date.Equal(m.Timestamp) {
		t.Errorf("date: got %v, want message timestamp %v", got.Date, m.Timestamp)
	}
}

func TestBatch_FiltersByConfidence(t *testing.T) {
	e := New(nil)

	msgs := []*api.RawMessage{
		msg("m1", "Rs.250 debited via UPI"),                   // 40
		msg("m2", "Rs.450 debited for payment to ZOMATO"),     // 100
		msg("m3", "Your OTP is 482910"),                       // no candidate
		msg("m4", "Rs.349 debited for netflix subscription"),  // 70
	}

	got := e.Batch(msgs, Options{MinConfidence: 70})
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
	if got[0].MessageID != "m2" || got[1].MessageID != "m4" {
		t.Errorf("got order [%s %s], want [m2 m4]", got[0].MessageID, got[1].MessageID)
	}
}

// TestBatch_DedupKeepsFirstOccurrence verifies that duplicate bodies keep
// the first message, in its original position.
func TestBatch_DedupKeepsFirstOccurrence(t *testing.T) {
	e := New(nil)

	msgs := []*api.RawMessage{
		msg("a1", "Rs.250 debited via UPI"),
		msg("b1", "Rs.450 debited for payment to ZOMATO"),
		msg("a2", "Rs.250 debited via UPI"), // same body as a1
	}

	got := e.Batch(msgs, Options{MinConfidence: DefaultMinConfidence, FilterDuplicates: true})
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
	if got[0].MessageID != "a1" {
		t.Errorf("first candidate: got %s, want a1 (first occurrence wins)", got[0].MessageID)
	}
	if got[1].MessageID != "b1" {
		t.Errorf("second candidate: got %s, want b1", got[1].MessageID)
	}
}

func TestBatch_DedupDisabled(t *testing.T) {
	e := New(nil)

	msgs := []*api.RawMessage{
		msg("a1", "Rs.250 debited via UPI"),
		msg("a2", "Rs.250 debited via UPI"),
	}

	got := e.Batch(msgs, Options{MinConfidence: DefaultMinConfidence})
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2 (dedup disabled)", len(got))
	}
}
