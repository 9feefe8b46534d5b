// Command smsdump parses an SMS backup file and dumps message bodies to
// files. This utility is used to collect message samples for unit testing
// and to preview what the extractor makes of them.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kJson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/smsledger/smsledger/pkg/extract"
	"github.com/smsledger/smsledger/pkg/logging"
	"github.com/smsledger/smsledger/pkg/patterns"
	"github.com/smsledger/smsledger/pkg/reader/smsbackup"
)

var k = koanf.New(".")

const dumpDir = "tests/data/messages"

func main() {
	logger := logging.Setup(logging.DefaultConfig())

	backupPath := ""
	if len(os.Args) > 1 {
		backupPath = os.Args[1]
	} else {
		// Fall back to config.json next to the binary
		if err := k.Load(file.Provider("config.json"), kJson.Parser()); err != nil {
			logger.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		backupPath = k.String("backupPath")
	}

	if backupPath == "" {
		logger.Error("usage: smsdump <backup.xml> (or set backupPath in config.json)")
		os.Exit(1)
	}

	messages, err := smsbackup.Parse(backupPath)
	if err != nil {
		logger.Error("failed to parse backup file", "path", backupPath, "error", err)
		os.Exit(1)
	}

	logger.Info("parsed backup file", "path", backupPath, "messages", len(messages))

	if err := os.MkdirAll(dumpDir, 0o755); err != nil {
		logger.Error("failed to create dump directory", "error", err)
		os.Exit(1)
	}

	extractor := extract.New(logger.With("component", "extractor"))

	dumped, extracted := 0, 0
	for i, msg := range messages {
		sender := sanitizeFilename(msg.Address)
		if app, ok := patterns.AppName(msg.Address); ok {
			sender = sanitizeFilename(app)
		}

		name := fmt.Sprintf("%03d_%s.txt", i, sender)
		if err := os.WriteFile(filepath.Join(dumpDir, name), []byte(msg.Body), 0o644); err != nil {
			logger.Warn("failed to dump message", "message_id", msg.ID, "error", err)
			continue
		}
		dumped++

		candidate := extractor.One(msg)
		if candidate == nil {
			continue
		}
		extracted++

		fmt.Printf("%s  amount=%.2f merchant=%q category=%q type=%s confidence=%d\n",
			name,
			candidate.Amount,
			candidate.Merchant,
			candidate.Category,
			candidate.Type,
			candidate.Confidence,
		)
	}

	logger.Info("sms dump complete",
		"dumped", dumped,
		"extracted", extracted,
		"directory", dumpDir,
	)
}

// sanitizeFilename makes a sender address safe to use in a filename.
func sanitizeFilename(s string) string {
	s = strings.ToLower(s)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, s)
}
