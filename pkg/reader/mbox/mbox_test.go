package mbox

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smsledger/smsledger/pkg/api"
)

func TestRead(t *testing.T) {
	reader, err := New(Config{Path: filepath.Join("testdata", "alerts.mbox")}, nil)
	if err != nil {
		t.Fatalf("failed to create reader: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out := make(chan *api.RawMessage, 10)
	ackChan := make(chan string)

	errChan := make(chan error, 1)
	go func() {
		errChan <- reader.Read(ctx, out, ackChan)
	}()

	var got []*api.RawMessage
	for msg := range out {
		got = append(got, msg)
	}

	if err := <-errChan; err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d messages, want 2", len(got))
	}

	first := got[0]
	if first.ID != "<alert-001@hdfcbank.net>" {
		t.Errorf("id: got %q, want %q", first.ID, "<alert-001@hdfcbank.net>")
	}
	if first.Address != "alerts@hdfcbank.net" {
		t.Errorf("address: got %q, want %q", first.Address, "alerts@hdfcbank.net")
	}
	if !strings.Contains(first.Body, "Rs.1,250.00 debited") {
		t.Errorf("body missing alert text: %q", first.Body)
	}

	want := time.Date(2024, 6, 5, 10, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	if !first.Timestamp.Equal(want) {
		t.Errorf("timestamp: got %v, want %v", first.Timestamp, want)
	}

	close(ackChan)
}

func TestNew_RequiresPath(t *testing.T) {
	if _, err := New(Config{}, nil); err == nil {
		t.Error("expected error for empty path, got nil")
	}
}
