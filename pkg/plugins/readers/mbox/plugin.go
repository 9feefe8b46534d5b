// Package mbox provides a plugin wrapper for the mbox email reader.
package mbox

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/smsledger/smsledger/pkg/api"
	mboxreader "github.com/smsledger/smsledger/pkg/reader/mbox"
)

// Plugin implements the ReaderPlugin interface for mbox email exports.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "mbox"
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Read bank alert emails from an mbox export"
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
				"description": "Path to the mbox file",
			},
		},
		"required": []string{"path"},
	}
}

// Config represents the mbox reader configuration.
type Config struct {
	Path string `json:"path"`
}

// NewReader creates a new mbox reader instance.
func (p *Plugin) NewReader(_ *http.Client, config json.RawMessage, logger *slog.Logger) (api.Reader, error) {
	var cfg Config
	if err := json.Unmarshal(config, &cfg); err != nil {
		return nil, fmt.Errorf("parsing mbox config: %w", err)
	}

	return mboxreader.New(mboxreader.Config{Path: cfg.Path}, logger)
}
