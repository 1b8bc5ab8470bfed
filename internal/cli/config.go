package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/backoffice/internal/paths"
	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// Configuration keys.
const (
	keyBackend     = "backend"
	keyDataDir     = "data_dir"
	keyPostgresDSN = "postgres_dsn"
	keyIDStrategy  = "id_strategy"
	keyLogLevel    = "log_level"
	keyListenAddr  = "listen_addr"
)

const envPrefix = "BACKOFFICE"

// envKeys are read from BACKOFFICE_<KEY>. data_dir is resolved by the paths
// package, where the config file outranks the environment.
var envKeys = []string{keyBackend, keyPostgresDSN, keyIDStrategy, keyLogLevel, keyListenAddr}

// flagKeys binds command-line flags to configuration keys when the running
// command defines them.
var flagKeys = map[string]string{
	keyBackend:    flagBackend,
	keyLogLevel:   flagLogLevel,
	keyListenAddr: flagListen,
}

// loadConfig merges defaults, <configDir>/config.yaml, BACKOFFICE_*
// variables, and flags, in increasing precedence. A missing config file is
// not an error.
func loadConfig(configDir, dataDirFlag string, flags *pflag.FlagSet) (types.Config, error) {
	v := viper.New()
	v.SetDefault(keyBackend, types.DefaultBackend)
	v.SetDefault(keyIDStrategy, types.DefaultIDStrategy)
	v.SetDefault(keyLogLevel, types.DefaultLogLevel)
	v.SetDefault(keyListenAddr, types.DefaultListenAddr)

	v.SetConfigFile(filepath.Join(configDir, paths.ConfigFile))
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return types.Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	for key, name := range flagKeys {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return types.Config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decode config: %w", err)
	}

	dataDir, err := paths.ResolveDataDir(dataDirFlag, v.GetString(keyDataDir))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg.DataDir = dataDir

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
