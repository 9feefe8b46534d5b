package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/smsledger/smsledger/internal/daemon"
	"github.com/smsledger/smsledger/internal/plugins"
	"github.com/smsledger/smsledger/pkg/client"
	"github.com/smsledger/smsledger/pkg/config"
	mboxplugin "github.com/smsledger/smsledger/pkg/plugins/readers/mbox"
	smsbackupplugin "github.com/smsledger/smsledger/pkg/plugins/readers/smsbackup"
	csvplugin "github.com/smsledger/smsledger/pkg/plugins/writers/csv"
	jsonplugin "github.com/smsledger/smsledger/pkg/plugins/writers/json"
	postgresplugin "github.com/smsledger/smsledger/pkg/plugins/writers/postgres"
	sheetsplugin "github.com/smsledger/smsledger/pkg/plugins/writers/sheets"
)

// runDaemon starts the extraction pipeline.
func runDaemon(logger *slog.Logger) error {
	registry, err := buildRegistry()
	if err != nil {
		return err
	}

	logger.Info("plugins registered",
		"readers", len(registry.ListReaders()),
		"writers", len(registry.ListWriters()),
	)

	// Load configuration from environment
	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return fmt.Errorf("loading config from environment: %w", err)
	}

	var cfg config.Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return fmt.Errorf("unmarshaling config: %w", err)
	}

	// If no plugin config provided, build defaults from the environment
	if cfg.ReaderPlugin == "" {
		cfg.ReaderPlugin = "smsbackup"
	}
	if len(cfg.ReaderConfig) == 0 {
		readerCfg, err := buildDefaultReaderConfig(k)
		if err != nil {
			return fmt.Errorf("building default reader config: %w", err)
		}
		cfg.ReaderConfig = readerCfg
	}

	if cfg.WriterPlugin == "" {
		cfg.WriterPlugin = "csv"
	}
	if len(cfg.WriterConfig) == 0 {
		writerCfg, err := buildDefaultWriterConfig(cfg)
		if err != nil {
			return fmt.Errorf("building default writer config: %w", err)
		}
		cfg.WriterConfig = writerCfg
	}

	logger.Info("configuration loaded",
		"reader", cfg.ReaderPlugin,
		"writer", cfg.WriterPlugin,
	)

	// Get required OAuth scopes from plugins
	scopes, err := registry.GetAllScopes(cfg.ReaderPlugin, cfg.WriterPlugin)
	if err != nil {
		return fmt.Errorf("getting required scopes: %w", err)
	}

	// Only the sheets writer needs an authenticated client; skip OAuth
	// setup entirely for file and database backends.
	runner := daemon.New(registry, nil, logger)
	if len(scopes) > 0 {
		logger.Info("OAuth scopes required", "scopes", scopes)

		httpClient, err := client.New(config.ClientSecretFile, scopes...)
		if err != nil {
			return fmt.Errorf("creating http client: %w", err)
		}
		runner = daemon.New(registry, httpClient, logger)
	}

	// Setup context with cancellation on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	return runner.Run(ctx, cfg)
}

func buildRegistry() (*plugins.Registry, error) {
	registry := plugins.NewRegistry()

	if err := registry.RegisterReader(&smsbackupplugin.Plugin{}); err != nil {
		return nil, fmt.Errorf("registering smsbackup plugin: %w", err)
	}
	if err := registry.RegisterReader(&mboxplugin.Plugin{}); err != nil {
		return nil, fmt.Errorf("registering mbox plugin: %w", err)
	}

	if err := registry.RegisterWriter(&csvplugin.Plugin{}); err != nil {
		return nil, fmt.Errorf("registering csv plugin: %w", err)
	}
	if err := registry.RegisterWriter(&jsonplugin.Plugin{}); err != nil {
		return nil, fmt.Errorf("registering json plugin: %w", err)
	}
	if err := registry.RegisterWriter(&postgresplugin.Plugin{}); err != nil {
		return nil, fmt.Errorf("registering postgres plugin: %w", err)
	}
	if err := registry.RegisterWriter(&sheetsplugin.Plugin{}); err != nil {
		return nil, fmt.Errorf("registering sheets plugin: %w", err)
	}

	return registry, nil
}

// buildDefaultReaderConfig builds default reader config from environment.
func buildDefaultReaderConfig(k *koanf.Koanf) (json.RawMessage, error) {
	path := k.String("SMSLEDGER_BACKUP_PATH")
	if path == "" {
		return nil, fmt.Errorf("SMSLEDGER_BACKUP_PATH is required when no reader config is set")
	}

	cfg := map[string]any{
		"path": path,
	}
	if interval := k.Int("SMSLEDGER_SCAN_INTERVAL"); interval > 0 {
		cfg["interval"] = interval
	}

	return json.Marshal(cfg)
}

// buildDefaultWriterConfig builds default writer config from environment.
func buildDefaultWriterConfig(cfg config.Config) (json.RawMessage, error) {
	switch cfg.WriterPlugin {
	case "csv":
		return json.Marshal(map[string]any{
			"filePath":      "data/expenses.csv",
			"batchSize":     10,
			"flushInterval": 30,
		})
	case "json":
		return json.Marshal(map[string]any{
			"filePath":      "data/expenses.json",
			"batchSize":     10,
			"flushInterval": 30,
		})
	case "postgres":
		pg := cfg.Postgres
		if pg.Database == "" || pg.User == "" {
			return nil, fmt.Errorf("POSTGRES_DB and POSTGRES_USER are required for the postgres writer")
		}
		return json.Marshal(map[string]any{
			"host":     pg.Host,
			"port":     pg.Port,
			"database": pg.Database,
			"user":     pg.User,
			"password": pg.Password,
			"sslMode":  pg.SSLMode,
		})
	default:
		return nil, fmt.Errorf("no default config for writer %q, set SMSLEDGER_WRITER_CONFIG", cfg.WriterPlugin)
	}
}
