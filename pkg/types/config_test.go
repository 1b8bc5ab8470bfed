package types

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty backend returns ErrBackendEmpty",
			config:  Config{Backend: "", DataDir: "/tmp/data"},
			wantErr: ErrBackendEmpty,
		},
		{
			name:    "unknown backend returns ErrBackendUnknown",
			config:  Config{Backend: "mysql", DataDir: "/tmp/data"},
			wantErr: ErrBackendUnknown,
		},
		{
			name:    "valid sqlite config",
			config:  Config{Backend: "sqlite", DataDir: "/tmp/data"},
			wantErr: nil,
		},
		{
			name:    "memory backend needs no data dir",
			config:  Config{Backend: "memory"},
			wantErr: nil,
		},
		{
			name:    "postgres without dsn is rejected",
			config:  Config{Backend: "postgres"},
			wantErr: ErrPostgresDSNRequired,
		},
		{
			name:    "postgres with dsn is valid",
			config:  Config{Backend: "postgres", PostgresDSN: "postgres://localhost/backoffice"},
			wantErr: nil,
		},
		{
			name:    "unknown id strategy",
			config:  Config{Backend: "memory", IDStrategy: "timestamp"},
			wantErr: ErrIDStrategyUnknown,
		},
		{
			name:    "unknown log level",
			config:  Config{Backend: "memory", LogLevel: "verbose"},
			wantErr: ErrLogLevelUnknown,
		},
		{
			name:    "log level is case insensitive",
			config:  Config{Backend: "memory", LogLevel: "DEBUG"},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %v, got nil", tt.wantErr)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{Backend: BackendMemory}.WithDefaults()
	if cfg.IDStrategy != IDSequence {
		t.Errorf("IDStrategy = %q, want %q", cfg.IDStrategy, IDSequence)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want :8080", cfg.ListenAddr)
	}

	kept := Config{Backend: BackendMemory, IDStrategy: IDULID}.WithDefaults()
	if kept.IDStrategy != IDULID {
		t.Errorf("explicit IDStrategy overwritten: %q", kept.IDStrategy)
	}
}
