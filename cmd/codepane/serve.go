package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/codepane"
	"pkt.systems/codepane/httpapi"
	"pkt.systems/codepane/internal/appconfig"
	"pkt.systems/codepane/internal/persist"
	"pkt.systems/codepane/internal/seed"
	"pkt.systems/codepane/internal/version"
	"pkt.systems/codepane/schema"
	"pkt.systems/pslog"
)

func newServeCmd() *cobra.Command {
	var cfgPath string
	var addr string
	var seedGlobs []string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the editor UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTP.Addr = addr
			}
			if len(seedGlobs) > 0 {
				cfg.Seed.Globs = seedGlobs
			}
			serverCfg := toServerConfig(cfg)
			server, err := codepane.New(serverCfg, codepane.ServerDeps{Logger: logger}, codepane.WithHTTP())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Stop(stopCtx); err != nil {
					logger.Warn("server stop failed", "err", err)
				}
			}()
			logger.Info("codepane starting", "version", version.CurrentWithDirty(), "backend", serverCfg.Storage.Backend)
			if err := server.Start(ctx); err != nil {
				return err
			}
			return server.Wait()
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&addr, "addr", "", "override http.addr")
	cmd.Flags().StringSliceVar(&seedGlobs, "seed", nil, "glob of files to open as initial tabs (repeatable)")
	return cmd
}

func toServerConfig(cfg appconfig.Config) codepane.ServerConfig {
	return codepane.ServerConfig{
		Store:   schema.StoreConfig{StorageKey: cfg.Storage.Key},
		Storage: toStorageConfig(cfg),
		HTTP: httpapi.Config{
			Addr:       cfg.HTTP.Addr,
			BaseURL:    cfg.HTTP.BaseURL,
			BasePath:   cfg.HTTP.BasePath,
			HubHistory: cfg.HTTP.HubHistory,
		},
		Seed: seed.Options{
			BaseDir: cfg.Seed.BaseDir,
			Globs:   cfg.Seed.Globs,
		},
		Debounce: cfg.Editor.Debounce(),
	}
}

func toStorageConfig(cfg appconfig.Config) codepane.StorageConfig {
	return codepane.StorageConfig{
		Backend:      persist.Backend(cfg.Storage.Backend),
		StateDir:     cfg.StateDir,
		Path:         cfg.Storage.Path,
		KeyStorePath: cfg.Storage.KeyStorePath,
	}
}
