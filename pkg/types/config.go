package types

import (
	"errors"
	"strings"
)

// Config holds backend selection and runtime parameters for an admin session.
type Config struct {
	Backend     string `json:"backend" yaml:"backend" mapstructure:"backend"`
	DataDir     string `json:"data_dir" yaml:"data_dir,omitempty" mapstructure:"data_dir"`
	PostgresDSN string `json:"postgres_dsn" yaml:"postgres_dsn,omitempty" mapstructure:"postgres_dsn"`
	IDStrategy  string `json:"id_strategy" yaml:"id_strategy" mapstructure:"id_strategy"`
	LogLevel    string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	ListenAddr  string `json:"listen_addr" yaml:"listen_addr" mapstructure:"listen_addr"`
}

// Supported backend names.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Supported id strategies.
const (
	IDSequence = "sequence"
	IDUUID     = "uuid"
	IDULID     = "ulid"
)

// Defaults applied by WithDefaults.
const (
	DefaultBackend    = BackendSQLite
	DefaultIDStrategy = IDSequence
	DefaultLogLevel   = "info"
	DefaultListenAddr = ":8080"
)

// Config validation errors.
var (
	ErrBackendEmpty        = errors.New("backend must not be empty")
	ErrBackendUnknown      = errors.New("unknown backend")
	ErrIDStrategyUnknown   = errors.New("unknown id strategy")
	ErrLogLevelUnknown     = errors.New("unknown log level")
	ErrPostgresDSNRequired = errors.New("postgres backend requires postgres_dsn")
)

var knownBackends = map[string]bool{
	BackendMemory:   true,
	BackendSQLite:   true,
	BackendPostgres: true,
}

var knownIDStrategies = map[string]bool{
	IDSequence: true,
	IDUUID:     true,
	IDULID:     true,
}

var knownLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// WithDefaults fills empty optional fields. Backend is left as is so that
// Validate can still report an explicitly empty backend.
func (c Config) WithDefaults() Config {
	if c.IDStrategy == "" {
		c.IDStrategy = DefaultIDStrategy
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	return c
}

// Validate checks that the Config is well-formed.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Backend == BackendPostgres && strings.TrimSpace(c.PostgresDSN) == "" {
		return ErrPostgresDSNRequired
	}
	if c.IDStrategy != "" && !knownIDStrategies[c.IDStrategy] {
		return ErrIDStrategyUnknown
	}
	if c.LogLevel != "" && !knownLogLevels[strings.ToLower(c.LogLevel)] {
		return ErrLogLevelUnknown
	}
	return nil
}
