// Package smsbackup provides a plugin wrapper for the SMS backup file reader.
package smsbackup

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/smsledger/smsledger/pkg/api"
	backupreader "github.com/smsledger/smsledger/pkg/reader/smsbackup"
)

// Plugin implements the ReaderPlugin interface for SMS Backup & Restore
// XML exports.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "smsbackup"
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Read messages from an SMS Backup & Restore XML export"
}

// RequiredScopes returns the OAuth scopes needed by this plugin.
func (p *Plugin) RequiredScopes() []string {
	// Local file access only
	return nil
}

// ConfigSchema returns a JSON schema describing the plugin's configuration.
func (p *Plugin) ConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Path to the backup XML file",
			},
			"interval": map[string]any{
				"type":        "integer",
				"description": "Seconds between rescans of the file; 0 reads once and stops",
				"default":     0,
			},
		},
		"required": []string{"path"},
	}
}

// Config represents the backup reader configuration.
type Config struct {
	Path     string `json:"path"`
	Interval int    `json:"interval,omitempty"`
}

// NewReader creates a new backup file reader instance.
func (p *Plugin) NewReader(_ *http.Client, config json.RawMessage, logger *slog.Logger) (api.Reader, error) {
	var cfg Config
	if err := json.Unmarshal(config, &cfg); err != nil {
		return nil, fmt.Errorf("parsing smsbackup config: %w", err)
	}

	return backupreader.New(backupreader.Config{
		Path:     cfg.Path,
		Interval: time.Duration(cfg.Interval) * time.Second,
	}, logger)
}
