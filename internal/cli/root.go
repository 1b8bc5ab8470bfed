// Package cli implements the backoffice command-line interface. Every
// command opens an admin session on the configured backend, runs its
// operation through the same controllers the HTTP API uses, and closes it.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/backoffice/internal/admin"
	"github.com/mesh-intelligence/backoffice/internal/paths"
	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Flag names bound to configuration keys.
const (
	flagBackend  = "backend"
	flagLogLevel = "log-level"
	flagListen   = "listen"
)

// skipConfig marks commands that run without loading configuration.
const skipConfig = "skip-config"

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	noColor   bool
}

// app is the state shared by the commands of one root command.
type app struct {
	flags     rootFlags
	configDir string
	cfg       types.Config
	logger    *slog.Logger
}

// NewRootCmd creates the top-level "backoffice" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{logger: slog.New(slog.DiscardHandler)}
	root := &cobra.Command{
		Use:   "backoffice",
		Short: "Manage the catalog and storefront content of a shop",
		Long: "Backoffice lists, searches, edits, and reorders the records behind an\n" +
			"e-commerce admin dashboard: items, orders, categories, banners, and more.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: platform data dir)")
	pf.String(flagBackend, "", "storage backend: memory, sqlite, postgres")
	pf.String(flagLogLevel, "", "log level: debug, info, warn, error")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	pf.BoolVar(&a.flags.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newEntitiesCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newCreateCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newMoveCmd(a),
		newResetOrderCmd(a),
		newServeCmd(a),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case types.IsUserError(err):
		return exitUserError
	}
	return exitSysError
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.flags.noColor {
		color.NoColor = true
	}
	if cmd.Annotations[skipConfig] != "" {
		return nil
	}

	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	cfg, err := loadConfig(configDir, a.flags.dataDir, cmd.Flags())
	if err != nil {
		return err
	}
	a.configDir = configDir
	a.cfg = cfg
	a.logger = newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	return nil
}

// withSession opens a session, runs fn, and closes the session.
func (a *app) withSession(ctx context.Context, fn func(*admin.Session) error, opts ...admin.Option) (err error) {
	opts = append([]admin.Option{admin.WithLogger(a.logger)}, opts...)
	s, err := admin.Open(ctx, a.cfg, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(s)
}

// page resolves an entity argument to its page.
func page(s *admin.Session, name string) (*admin.Page, error) {
	entity, err := types.ParseEntity(name)
	if err != nil {
		return nil, fmt.Errorf("%w (valid: %v)", err, types.EntityNames())
	}
	return s.Page(entity)
}
