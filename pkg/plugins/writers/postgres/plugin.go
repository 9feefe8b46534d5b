// Package postgres provides a plugin wrapper for the PostgreSQL writer.
package postgres

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/smsledger/smsledger/pkg/api"
	pgwriter "github.com/smsledger/smsledger/pkg/writer/postgres"
)

// Plugin implements the WriterPlugin interface for PostgreSQL.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "postgres"
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Write candidate expenses to a PostgreSQL database"
}

// RequiredScopes returns the OAuth scopes needed by this plugin.
func (p *Plugin) RequiredScopes() []string {
	return nil
}

// ConfigSchema returns a JSON schema describing the plugin's configuration.
func (p *Plugin) ConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"host": map[string]any{
				"type":        "string",
				"description": "Database host (default: localhost)",
				"default":     "localhost",
			},
			"port": map[string]any{
				"type":        "integer",
				"description": "Database port (default: 5432)",
				"default":     5432,
			},
			"database": map[string]any{
				"type":        "string",
				"description": "Database name",
			},
			"user": map[string]any{
				"type":        "string",
				"description": "Database user",
			},
			"password": map[string]any{
				"type":        "string",
				"description": "Database password",
			},
			"sslMode": map[string]any{
				"type":        "string",
				"description": "SSL mode (default: prefer)",
				"default":     "prefer",
			},
			"categories": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Category names to reconcile suggested categories against",
			},
			"batchSize": map[string]any{
				"type":        "integer",
				"description": "Number of expenses to buffer before writing (default: 10)",
				"default":     10,
			},
			"flushInterval": map[string]any{
				"type":        "integer",
				"description": "Interval in seconds between automatic flushes (default: 30)",
				"default":     30,
			},
		},
		"required": []string{"database", "user", "password"},
	}
}

// Config represents the PostgreSQL writer configuration.
type Config struct {
	Host          string   `json:"host,omitempty"`
	Port          int      `json:"port,omitempty"`
	Database      string   `json:"database"`
	User          string   `json:"user"`
	Password      string   `json:"password"`
	SSLMode       string   `json:"sslMode,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	BatchSize     int      `json:"batchSize,omitempty"`
	FlushInterval int      `json:"flushInterval,omitempty"`
}

// NewWriter creates a new PostgreSQL writer instance.
func (p *Plugin) NewWriter(_ *http.Client, config json.RawMessage, logger *slog.Logger) (api.Writer, error) {
	var cfg Config
	if err := json.Unmarshal(config, &cfg); err != nil {
		return nil, fmt.Errorf("parsing postgres config: %w", err)
	}

	return pgwriter.New(pgwriter.Config{
		Host:          cfg.Host,
		Port:          cfg.Port,
		Database:      cfg.Database,
		User:          cfg.User,
		Password:      cfg.Password,
		SSLMode:       cfg.SSLMode,
		Categories:    cfg.Categories,
		BatchSize:     cfg.BatchSize,
		FlushInterval: time.Duration(cfg.FlushInterval) * time.Second,
	}, logger)
}
