package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/abhisek/wordzipf/internal/catalog"
	"github.com/abhisek/wordzipf/internal/config"
	"github.com/abhisek/wordzipf/internal/llm"
	"github.com/abhisek/wordzipf/internal/session"
	"github.com/abhisek/wordzipf/internal/store"
	"github.com/abhisek/wordzipf/internal/ui/theme"
)

// appEnv bundles what every command needs: config, logger and store.
type appEnv struct {
	cfg   *config.Config
	log   *logrus.Logger
	store *store.Store
}

func openEnv(cmd *cobra.Command) (*appEnv, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := config.NewLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor || os.Getenv("NO_COLOR") != "" {
		theme.Enabled = false
	}

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	log.WithField("db", dbPath).Debug("store opened")

	return &appEnv{cfg: cfg, log: log, store: st}, nil
}

func (e *appEnv) Close() error {
	return e.store.Close()
}

// provider builds the decorated LLM provider. It returns nil without an
// error when no API key is available.
func (e *appEnv) provider(ctx context.Context) (llm.Provider, error) {
	stored, err := session.LoadAPIKey(ctx, e.store.KV())
	if err != nil {
		return nil, err
	}
	lc := e.cfg.LLMProviderConfig(stored)
	if lc.Provider != "mock" && lc.APIKey == "" {
		return nil, nil
	}
	return llm.NewProvider(ctx, lc, e.store.EventRepo(), e.log)
}

func (e *appEnv) catalog(ctx context.Context) *catalog.Catalog {
	return catalog.Load(ctx, catalog.NewFetcher(), catalog.Sources{
		FrequencyPrimary:  e.cfg.Data.FrequencyPrimary,
		FrequencyFallback: e.cfg.Data.FrequencyFallback,
		MaleNames:         e.cfg.Data.MaleNames,
		FemaleNames:       e.cfg.Data.FemaleNames,
	}, e.log)
}
