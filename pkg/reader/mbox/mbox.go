// Package mbox implements a Reader for bank alert emails exported as an
// mbox file (Thunderbird, Google Takeout).
package mbox

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/mail"
	"os"
	"time"

	gomboxpkg "github.com/emersion/go-mbox"

	"github.com/smsledger/smsledger/pkg/api"
)

// Config holds configuration for the mbox reader.
type Config struct {
	// Path to the mbox file.
	Path string
}

// Reader emits one raw message per email in the mbox file. The email body is
// passed through untouched; the extraction patterns work on alert text
// whether it arrived by SMS or mail.
type Reader struct {
	path   string
	logger *slog.Logger
}

// New creates an mbox reader.
func New(cfg Config, logger *slog.Logger) (*Reader, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("mbox file path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Reader{path: cfg.Path, logger: logger}, nil
}

// Read emits every parseable email in the file, in file order, then returns.
// Emails that cannot be parsed are skipped with a warning.
func (r *Reader) Read(ctx context.Context, out chan<- *api.RawMessage, ackChan <-chan string) error {
	defer close(out)

	go r.drainAcks(ctx, ackChan)

	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("opening mbox file: %w", err)
	}
	defer f.Close()

	mr := gomboxpkg.NewReader(f)
	count := 0
	for i := 0; ; i++ {
		msgReader, err := mr.NextMessage()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading mbox message: %w", err)
		}

		raw, err := parseEmail(msgReader, i)
		if err != nil {
			r.logger.Warn("skipping unparseable email", "index", i, "error", err)
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- raw:
			count++
		}
	}

	r.logger.Info("mbox file read complete", "path", r.path, "messages", count)
	return nil
}

func (r *Reader) drainAcks(ctx context.Context, ackChan <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case id, ok := <-ackChan:
			if !ok {
				return
			}
			r.logger.Debug("expense written for message", "message_id", id)
		}
	}
}

func parseEmail(mr io.Reader, index int) (*api.RawMessage, error) {
	msg, err := mail.ReadMessage(mr)
	if err != nil {
		return nil, fmt.Errorf("parsing email headers: %w", err)
	}

	body, err := io.ReadAll(msg.Body)
	if err != nil {
		return nil, fmt.Errorf("reading email body: %w", err)
	}

	id := msg.Header.Get("Message-ID")
	if id == "" {
		id = fmt.Sprintf("mbox-%d", index)
	}

	ts := time.Now()
	if date, err := msg.Header.Date(); err == nil {
		ts = date
	}

	address := msg.Header.Get("From")
	if addr, err := mail.ParseAddress(address); err == nil {
		address = addr.Address
	}

	return &api.RawMessage{
		ID:        id,
		Body:      string(body),
		Address:   address,
		Timestamp: ts,
	}, nil
}
