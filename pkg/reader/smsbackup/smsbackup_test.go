package smsbackup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smsledger/smsledger/pkg/api"
)

func TestParse(t *testing.T) {
	msgs, err := Parse(filepath.Join("testdata", "backup.xml"))
	if err != nil {
		t.Fatalf("failed to parse backup file: %v", err)
	}

	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}

	first := msgs[0]
	if first.Address != "VM-HDFCBK" {
		t.Errorf("address: got %q, want %q", first.Address, "VM-HDFCBK")
	}
	if first.Body != "Rs.1,250.00 debited from a/c for UPI payment to SWIGGY on 05-06-2024" {
		t.Errorf("unexpected body: %q", first.Body)
	}

	// date attribute is epoch milliseconds
	want := time.UnixMilli(1717570800000)
	if !first.Timestamp.Equal(want) {
		t.Errorf("timestamp: got %v, want %v", first.Timestamp, want)
	}

	// IDs must be unique and stable across rescans of the same file
	seen := make(map[string]struct{})
	for _, m := range msgs {
		if m.ID == "" {
			t.Error("message has empty ID")
		}
		if _, dup := seen[m.ID]; dup {
			t.Errorf("duplicate message ID %q", m.ID)
		}
		seen[m.ID] = struct{}{}
	}
}

// TestParse_StableIDsAcrossReexport verifies that IDs are derived from
// message content, so a fresh export with an extra message inserted in the
// middle keeps the IDs of the messages around it unchanged.
func TestParse_StableIDsAcrossReexport(t *testing.T) {
	const (
		recA = `<sms address="VM-HDFCBK" date="1717570800000" body="Rs.1,250.00 debited for UPI payment to SWIGGY" />`
		recB = `<sms address="VM-ICICIB" date="1717657200000" body="Rs.9,000.00 credited to your a/c XX1234" />`
		recX = `<sms address="AX-AIRTEL" date="1717600000000" body="Your OTP is 482910" />`
	)

	dir := t.TempDir()
	original := filepath.Join(dir, "export1.xml")
	reexport := filepath.Join(dir, "export2.xml")
	if err := os.WriteFile(original, []byte(`<smses count="2">`+recA+recB+`</smses>`), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	if err := os.WriteFile(reexport, []byte(`<smses count="3">`+recA+recX+recB+`</smses>`), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	before, err := Parse(original)
	if err != nil {
		t.Fatalf("failed to parse original export: %v", err)
	}
	after, err := Parse(reexport)
	if err != nil {
		t.Fatalf("failed to parse re-export: %v", err)
	}

	if len(before) != 2 || len(after) != 3 {
		t.Fatalf("got %d and %d messages, want 2 and 3", len(before), len(after))
	}
	if after[0].ID != before[0].ID {
		t.Errorf("first message re-keyed: %q vs %q", after[0].ID, before[0].ID)
	}
	if after[2].ID != before[1].ID {
		t.Errorf("last message re-keyed by insertion: %q vs %q", after[2].ID, before[1].ID)
	}
	if after[1].ID == after[0].ID || after[1].ID == after[2].ID {
		t.Error("inserted message must get its own ID")
	}
}

func TestParse_MissingFile(t *testing.T) {
	if _, err := Parse(filepath.Join("testdata", "nonexistent.xml")); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestNew_RequiresPath(t *testing.T) {
	if _, err := New(Config{}, nil); err == nil {
		t.Error("expected error for empty path, got nil")
	}
}

// TestRead_OneShot verifies that without an interval the reader emits every
// message once, closes the output channel and returns.
func TestRead_OneShot(t *testing.T) {
	reader, err := New(Config{Path: filepath.Join("testdata", "backup.xml")}, nil)
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
	if len(got) != 3 {
		t.Fatalf("got %d messages, want 3", len(got))
	}
	if got[0].Address != "VM-HDFCBK" {
		t.Errorf("first message address: got %q, want %q", got[0].Address, "VM-HDFCBK")
	}

	close(ackChan)
}
