package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/marcellin56/Central-de-ferramentas/internal/api"
	"github.com/marcellin56/Central-de-ferramentas/internal/catalog"
	"github.com/marcellin56/Central-de-ferramentas/internal/config"
	"github.com/marcellin56/Central-de-ferramentas/internal/crypto"
	"github.com/marcellin56/Central-de-ferramentas/internal/logger"
	"github.com/marcellin56/Central-de-ferramentas/internal/store"
	"github.com/marcellin56/Central-de-ferramentas/internal/viewer"
	"github.com/marcellin56/Central-de-ferramentas/internal/websocket"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var (
		configFile string
		addr       string
		dbPath     string
		catalogArg string
		debug      bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			overrides := config.Overrides{ConfigFile: configFile}
			flags := cmd.Flags()
			if flags.Changed("addr") {
				overrides.Addr = &addr
			}
			if flags.Changed("db") {
				overrides.DatabasePath = &dbPath
			}
			if flags.Changed("catalog") {
				overrides.CatalogPath = &catalogArg
			}
			if flags.Changed("debug") {
				overrides.Debug = &debug
			}

			cfg, err := config.Load(overrides)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "config file (YAML or TOML)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path")
	cmd.Flags().StringVar(&catalogArg, "catalog", "", "catalog YAML file to serve and watch")
	cmd.Flags().BoolVar(&debug, "debug", false, "debug logging")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	if cfg.Debug {
		logger.SetLevel(logger.LevelDebug)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	logger.SetJSON(cfg.LogFormat == "json")

	logger.Infof("Opening database: %s", cfg.DatabasePath)
	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	jwtManager, err := crypto.NewJWTManager(cfg.MasterSecret, cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("create JWT manager: %w", err)
	}

	tools := catalog.Default()
	if cfg.CatalogPath != "" {
		doc, err := catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			return err
		}
		tools.Replace(doc)

		watcher, err := catalog.NewWatcher(cfg.CatalogPath, tools, nil)
		if err != nil {
			return err
		}
		go watcher.Run(ctx)
		logger.Infof("Watching catalog: %s", cfg.CatalogPath)
	}

	hub := websocket.NewHub()
	manager := viewer.NewManager(hub.Host, viewer.WithLoadTimeout(cfg.LoadTimeout))
	defer manager.StopAll()

	router := api.NewRouter(api.Deps{
		JWT:            jwtManager,
		Catalog:        tools,
		Prefs:          store.NewPrefs(db),
		Manager:        manager,
		Hub:            hub,
		AllowedOrigins: cfg.AllowedOrigins,
		LoginDelay:     cfg.LoginDelay,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("NexusHub starting on http://localhost%s", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Infof("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
