package main

import (
	"context"
	"fmt"

	"foodshare/internal/bootstrap"
	"foodshare/internal/cache"
	"foodshare/internal/config"
	"foodshare/internal/middleware"
	"foodshare/internal/repository"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "foodshare-admin",
	Short:         "Maintenance commands for the FoodShare backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		middleware.Logger = middleware.NewLogger(cfg.Env)
		cmd.SetContext(withConfig(cmd.Context(), cfg))
		return nil
	},
}

type configKey struct{}

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, configKey{}, cfg)
}

func configFrom(cmd *cobra.Command) *config.Config {
	cfg, _ := cmd.Context().Value(configKey{}).(*config.Config)
	return cfg
}

// openStore connects the configured store. The returned func releases it
// and the redis client.
func openStore(cmd *cobra.Command) (*repository.Store, func(), error) {
	cfg := configFrom(cmd)
	if cfg.DBDriver == config.DriverMemory {
		return nil, nil, fmt.Errorf("DB_DRIVER=%s has nothing to maintain", config.DriverMemory)
	}
	rdb := cache.Connect(cfg.RedisURL)
	release := func() {
		if rdb != nil {
			_ = rdb.Close()
		}
	}
	store, _, err := bootstrap.OpenStore(cmd.Context(), cfg, rdb)
	if err != nil {
		release()
		return nil, nil, err
	}
	return store, func() {
		_ = store.Close()
		release()
	}, nil
}
