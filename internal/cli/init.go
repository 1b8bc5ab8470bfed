package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/backoffice/internal/admin"
	"github.com/mesh-intelligence/backoffice/internal/paths"
	"github.com/mesh-intelligence/backoffice/pkg/types"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize backoffice storage",
		Long: "Create the configuration and data directories, write config.yaml if it\n" +
			"is missing, and seed every entity with the sample catalog.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runInit(cmd.Context(), cmd)
		},
	}
}

func (a *app) runInit(ctx context.Context, cmd *cobra.Command) error {
	if err := os.MkdirAll(a.configDir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	configPath := filepath.Join(a.configDir, paths.ConfigFile)
	written, err := writeConfigIfMissing(configPath, a.cfg)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	var counts map[string]int
	err = a.withSession(ctx, func(s *admin.Session) error {
		counts = make(map[string]int, len(s.Pages()))
		for _, p := range s.Pages() {
			counts[string(p.Schema.Entity)] = p.Store.Len()
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}

	if a.flags.jsonMode {
		return writeJSON(cmd.OutOrStdout(), map[string]any{
			"config":  configPath,
			"data":    a.cfg.DataDir,
			"backend": a.cfg.Backend,
			"records": counts,
		})
	}
	if written {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", configPath)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s backend in %s\n", a.cfg.Backend, a.cfg.DataDir)
	return nil
}

// writeConfigIfMissing writes cfg to path unless the file exists. The data
// directory is omitted when it is the platform default.
func writeConfigIfMissing(path string, cfg types.Config) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	if def, err := paths.DefaultDataDir(); err == nil && def == cfg.DataDir {
		cfg.DataDir = ""
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
