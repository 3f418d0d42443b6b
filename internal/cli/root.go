// internal/cli/root.go
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/idoschwartz11/MySmartCart/internal/chains"
	conf "github.com/idoschwartz11/MySmartCart/internal/config"
	"github.com/idoschwartz11/MySmartCart/internal/db"
	"github.com/idoschwartz11/MySmartCart/internal/logs"
	"github.com/idoschwartz11/MySmartCart/internal/storage"

	// chain strategy registration
	_ "github.com/idoschwartz11/MySmartCart/internal/chains/kingstore"
	_ "github.com/idoschwartz11/MySmartCart/internal/chains/ramilevy"
	_ "github.com/idoschwartz11/MySmartCart/internal/chains/shufersal"
)

var (
	flagConfig    string
	flagNoConsole bool
)

var rootCmd = &cobra.Command{
	Use:           "mysmartcart",
	Short:         "Ingests supermarket price catalogs into comparable daily statistics",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config.json (default: user config dir)")
	rootCmd.PersistentFlags().BoolVar(&flagNoConsole, "no-console", false, "log to file only")
}

// app bundles the collaborators every command needs. Construction failures
// here are configuration-level and fatal; per-file problems later are not.
type app struct {
	cfg   *conf.Config
	log   zerolog.Logger
	db    *db.Handle
	store *storage.FS
}

func setup() (*app, error) {
	cfgPath := flagConfig
	if cfgPath == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, err
		}
		cfgPath = filepath.Join(base, "mysmartcart", "config.json")
	}
	appDir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(appDir, 0o755); err != nil {
		return nil, err
	}

	log, err := logs.New(filepath.Join(appDir, "app.log"), !flagNoConsole)
	if err != nil {
		return nil, err
	}

	cfg, firstRun, err := conf.LoadOrCreate(cfgPath)
	if err != nil {
		return nil, err
	}
	if firstRun {
		log.Info().Str("path", cfgPath).Msg("created default configuration")
	}

	handle, err := db.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if err := handle.Migrate(); err != nil {
		return nil, fmt.Errorf("db migrate: %w", err)
	}

	store, err := storage.NewFS(cfg.StorageDir)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, log: log, db: handle, store: store}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.log.Warn().Err(err).Msg("closing database")
	}
}

// buildChain constructs the named chain from its config section.
func (a *app) buildChain(name string) (chains.Chain, error) {
	f, ok := chains.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown chain %q (registered: %s)", name, strings.Join(chains.Names(), ", "))
	}
	raw, ok := a.cfg.Chains[name]
	if !ok {
		return nil, fmt.Errorf("chain %q missing from config", name)
	}
	env := chains.Env{SessionDir: a.cfg.SessionDir}
	return f(a.log.With().Str("chain", name).Logger(), raw, env)
}

// configuredChains returns the chains present both in the registry and the
// config file, in a stable order.
func (a *app) configuredChains() []string {
	var out []string
	for _, name := range chains.Names() {
		if _, ok := a.cfg.Chains[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// Execute runs the CLI. Configuration-level errors terminate the process with
// a non-zero status.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
