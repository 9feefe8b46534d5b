// Package config defines the daemon configuration loaded from the environment.
package config

import "encoding/json"

// ClientSecretFile is the default path to the Google OAuth credentials JSON
// file (needed only by the sheets writer).
const ClientSecretFile = "data/client_secret.json"

// Config holds the daemon configuration loaded from environment variables.
type Config struct {
	// ReaderPlugin is the name of the message reader plugin to use.
	// Environment variable: SMSLEDGER_READER
	ReaderPlugin string `koanf:"SMSLEDGER_READER"`

	// WriterPlugin is the name of the expense writer plugin to use.
	// Environment variable: SMSLEDGER_WRITER
	WriterPlugin string `koanf:"SMSLEDGER_WRITER"`

	// ReaderConfig is the JSON configuration for the reader plugin.
	// Environment variable: SMSLEDGER_READER_CONFIG
	ReaderConfig json.RawMessage `koanf:"SMSLEDGER_READER_CONFIG"`

	// WriterConfig is the JSON configuration for the writer plugin.
	// Environment variable: SMSLEDGER_WRITER_CONFIG
	WriterConfig json.RawMessage `koanf:"SMSLEDGER_WRITER_CONFIG"`

	// MinConfidence discards extracted candidates scoring below it.
	// Environment variable: SMSLEDGER_MIN_CONFIDENCE (default 40)
	MinConfidence int `koanf:"SMSLEDGER_MIN_CONFIDENCE"`

	// FilterDuplicates drops repeated message bodies, keeping the first.
	// Environment variable: SMSLEDGER_FILTER_DUPLICATES (default true)
	FilterDuplicates *bool `koanf:"SMSLEDGER_FILTER_DUPLICATES"`

	// Postgres connection settings, used by the postgres writer plugin.
	Postgres PostgresConfig
}

// PostgresConfig holds PostgreSQL connection configuration.
type PostgresConfig struct {
	Host     string `koanf:"POSTGRES_HOST"`
	Port     int    `koanf:"POSTGRES_PORT"`
	Database string `koanf:"POSTGRES_DB"`
	User     string `koanf:"POSTGRES_USER"`
	Password string `koanf:"POSTGRES_PASSWORD"`
	SSLMode  string `koanf:"POSTGRES_SSLMODE"`
}
