// Package app holds what every subeth command shares: global flags,
// configuration bootstrap and output rendering.
package app

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/subeth/subeth/internal/infrastructure/config"
	"github.com/subeth/subeth/internal/infrastructure/database"
	"github.com/subeth/subeth/internal/infrastructure/wallet"
	httpiface "github.com/subeth/subeth/internal/interfaces/http"
	"github.com/subeth/subeth/internal/shared/errors"
	"github.com/subeth/subeth/internal/shared/logger"
)

// Globals are the root command's persistent flags.
type Globals struct {
	ConfigPath string
	Output     string
}

// Register adds the persistent flags to root.
func (g *Globals) Register(root *cobra.Command) {
	root.PersistentFlags().StringVarP(&g.ConfigPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
	root.PersistentFlags().StringVarP(&g.Output, "output", "o", FormatTable, "Output format: table, json or yaml")
}

// Needs selects the optional parts Bootstrap should set up.
type Needs struct {
	// Wallet loads the configured wallet; it is an error when unset.
	Wallet bool
	// OptionalWallet loads the wallet only if one is configured.
	OptionalWallet bool
	// Journal opens the journal database.
	Journal bool
}

// Env is a bootstrapped command environment.
type Env struct {
	Config    *config.Config
	Log       logger.Interface
	Container *httpiface.Container
	Globals   *Globals
}

// Bootstrap loads configuration, initialises logging and builds the container.
func Bootstrap(g *Globals, needs Needs) (*Env, error) {
	if err := ValidateFormat(g.Output); err != nil {
		return nil, err
	}

	cfg, err := config.Load(g.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	opts := httpiface.Options{}
	if needs.Wallet || (needs.OptionalWallet && cfg.Wallet.IsConfigured()) {
		w, err := wallet.Load(cfg.Wallet, wallet.TerminalPrompt)
		if err != nil {
			return nil, err
		}
		opts.Wallet = w
	}

	if needs.Journal {
		if err := database.Init(&cfg.Database); err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		opts.DB = database.Get()
	}

	container, err := httpiface.NewContainer(cfg, opts, log)
	if err != nil {
		if needs.Journal {
			_ = database.Close()
		}
		return nil, err
	}

	return &Env{
		Config:    cfg,
		Log:       log,
		Container: container,
		Globals:   g,
	}, nil
}

// Close releases everything Bootstrap opened.
func (e *Env) Close() {
	e.Container.Shutdown()
	if database.Get() != nil {
		if err := database.Close(); err != nil {
			e.Log.Warnw("failed to close database", "error", err)
		}
	}
}

// Account resolves an --account flag, falling back to the wallet address.
func (e *Env) Account(flag string) (common.Address, error) {
	if flag != "" {
		if !common.IsHexAddress(flag) {
			return common.Address{}, errors.NewValidationError("Invalid address", flag)
		}
		return common.HexToAddress(flag), nil
	}
	if w := e.Container.Wallet(); w != nil {
		return w.Address(), nil
	}
	return common.Address{}, errors.NewValidationError("Wallet not connected", "pass --account or configure a wallet")
}

// Print renders v in the selected format to stdout.
func (e *Env) Print(v any, table TableFunc) error {
	return Render(os.Stdout, e.Globals.Output, v, table)
}
