package buffered

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/smsledger/smsledger/pkg/api"
)

func expense(id string, amount float64) *api.CandidateExpense {
	return &api.CandidateExpense{
		MessageID:  id,
		Amount:     amount,
		Type:       api.Expense,
		Confidence: 40,
		RawText:    "Rs.100 debited",
	}
}

// collectingFlusher records every batch it receives.
type collectingFlusher struct {
	mu      sync.Mutex
	batches [][]*api.CandidateExpense
}

func (f *collectingFlusher) flush(expenses []*api.CandidateExpense) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, expenses)
	return nil
}

func (f *collectingFlusher) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func TestWrite_FlushOnBatchSize(t *testing.T) {
	flusher := &collectingFlusher{}
	w := New(flusher.flush, Config{BatchSize: 2, FlushInterval: time.Hour}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	in := make(chan *api.CandidateExpense, 4)
	ackChan := make(chan string, 4)

	errChan := make(chan error, 1)
	go func() {
		errChan <- w.Write(ctx, in, ackChan)
	}()

	in <- expense("m1", 100)
	in <- expense("m2", 200)
	in <- expense("m3", 300)
	close(in)

	if err := <-errChan; err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	// Two flushes: one at batch size, one on channel close.
	if got := flusher.batchCount(); got != 2 {
		t.Errorf("got %d flushes, want 2", got)
	}

	var acks []string
	for i := 0; i < 3; i++ {
		select {
		case id := <-ackChan:
			acks = append(acks, id)
		default:
			t.Fatalf("missing ack %d", i)
		}
	}
	want := []string{"m1", "m2", "m3"}
	for i, id := range want {
		if acks[i] != id {
			t.Errorf("ack %d: got %s, want %s", i, acks[i], id)
		}
	}
}

func TestWrite_FlushOnClose(t *testing.T) {
	flusher := &collectingFlusher{}
	w := New(flusher.flush, Config{BatchSize: 100, FlushInterval: time.Hour}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	in := make(chan *api.CandidateExpense, 1)
	ackChan := make(chan string, 1)

	errChan := make(chan error, 1)
	go func() {
		errChan <- w.Write(ctx, in, ackChan)
	}()

	in <- expense("m1", 100)
	close(in)

	if err := <-errChan; err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if got := flusher.batchCount(); got != 1 {
		t.Errorf("got %d flushes, want 1", got)
	}
	if w.BufferLen() != 0 {
		t.Errorf("buffer not drained, %d left", w.BufferLen())
	}
}

func TestWrite_EmptyBufferSkipsFlush(t *testing.T) {
	flusher := &collectingFlusher{}
	w := New(flusher.flush, Config{BatchSize: 10, FlushInterval: time.Hour}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	in := make(chan *api.CandidateExpense)
	ackChan := make(chan string, 1)

	errChan := make(chan error, 1)
	go func() {
		errChan <- w.Write(ctx, in, ackChan)
	}()

	close(in)

	if err := <-errChan; err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if got := flusher.batchCount(); got != 0 {
		t.Errorf("got %d flushes, want 0 for empty buffer", got)
	}
}
