// Package smsbackup implements a Reader for SMS Backup & Restore XML exports.
package smsbackup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/smsledger/smsledger/pkg/api"
)

// backupFile mirrors the XML layout of an Android SMS backup:
//
//	<smses count="\d+">
//	  <sms address="VM-HDFCBK" date="1717570800000" body="..." />
//	</smses>
type backupFile struct {
	XMLName  xml.Name    `xml:"smses"`
	Messages []smsRecord `xml:"sms"`
}

type smsRecord struct {
	Address string `xml:"address,attr"`
	// Date is epoch milliseconds, as a string in the export.
	Date string `xml:"date,attr"`
	Body string `xml:"body,attr"`
}

// Config holds configuration for the backup reader.
type Config struct {
	// Path to the backup XML file.
	Path string
	// Interval between rescans of the file. Zero means read once and stop.
	Interval time.Duration
}

// Reader emits raw messages from an SMS backup file. With an interval set it
// rescans the file and emits only messages it has not seen before.
type Reader struct {
	path     string
	interval time.Duration
	seen     map[string]struct{}
	logger   *slog.Logger
}

// New creates a backup file reader.
func New(cfg Config, logger *slog.Logger) (*Reader, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("backup file path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Reader{
		path:     cfg.Path,
		interval: cfg.Interval,
		seen:     make(map[string]struct{}),
		logger:   logger,
	}, nil
}

// Read emits every message in the backup file, then either returns (one-shot
// mode) or keeps rescanning until the context is canceled. Acknowledgments
// are drained and logged; a file export has nothing to mark as processed.
func (r *Reader) Read(ctx context.Context, out chan<- *api.RawMessage, ackChan <-chan string) error {
	defer close(out)

	go r.drainAcks(ctx, ackChan)

	if err := r.scan(ctx, out); err != nil {
		return err
	}
	if r.interval == 0 {
		r.logger.Info("backup file read complete", "path", r.path)
		return nil
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("backup reader stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if err := r.scan(ctx, out); err != nil {
				r.logger.Error("rescan failed", "error", err)
			}
		}
	}
}

func (r *Reader) scan(ctx context.Context, out chan<- *api.RawMessage) error {
	msgs, err := Parse(r.path)
	if err != nil {
		return err
	}

	emitted := 0
	for _, msg := range msgs {
		if _, ok := r.seen[msg.ID]; ok {
			continue
		}
		r.seen[msg.ID] = struct{}{}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- msg:
			emitted++
		}
	}

	r.logger.Info("scanned backup file", "path", r.path, "total", len(msgs), "new", emitted)
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

// Parse reads an SMS backup XML file into raw messages, in file order.
func Parse(path string) ([]*api.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading backup file: %w", err)
	}

	var backup backupFile
	if err := xml.Unmarshal(data, &backup); err != nil {
		return nil, fmt.Errorf("parsing backup xml: %w", err)
	}

	msgs := make([]*api.RawMessage, 0, len(backup.Messages))
	for _, rec := range backup.Messages {
		ts := time.Now()
		if ms, err := strconv.ParseInt(rec.Date, 10, 64); err == nil {
			ts = time.UnixMilli(ms)
		}

		msgs = append(msgs, &api.RawMessage{
			ID:        messageID(rec),
			Body:      rec.Body,
			Address:   rec.Address,
			Timestamp: ts,
		})
	}

	return msgs, nil
}

// messageID derives a content-stable ID from the record itself, so a
// re-export that inserts or reorders messages does not re-key the ones the
// rescan seen-set has already emitted.
func messageID(rec smsRecord) string {
	sum := sha256.Sum256([]byte(rec.Address + "\x00" + rec.Date + "\x00" + rec.Body))
	return hex.EncodeToString(sum[:8])
}
