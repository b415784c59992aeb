// Command joind hosts join definitions over HTTP: schema activation,
// emission (async and blocking sync), bag-contents diagnostics, and a
// WebSocket feed of decision-cycle events.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/arcflow/joincore/internal/diagnostics"
	"github.com/arcflow/joincore/internal/dsl"
	"github.com/arcflow/joincore/internal/join"
	"github.com/arcflow/joincore/internal/joinconfig"
	"github.com/arcflow/joincore/internal/obslog"
)

var configFile string

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "joind",
		Short: "joind hosts join-calculus definitions over HTTP",
		RunE:  runServe,
	}
	cmd.Flags().String("addr", "", "HTTP listen address (overrides config)")
	cmd.Flags().Int("pool-size", 0, "bounded executor pool size per definition (0 = unbounded)")
	cmd.Flags().String("webhook-url", "", "webhook URL for decision-cycle diagnostics")
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a TOML or YAML config file")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, v, err := joinconfig.Load(configFile)
	if err != nil {
		return err
	}
	bindFlagOverrides(cmd, v, &cfg)

	logger := obslog.NewProduction()
	defer logger.Sync()

	diagManager := diagnostics.NewManager(4, 256, logger)
	defer diagManager.Close()
	if cfg.WebhookURL != "" {
		diagManager.RegisterNotifier(diagnostics.NewWebhookNotifier("default-webhook", cfg.WebhookURL))
	}

	newExecutor := func() join.Executor {
		if cfg.PoolSize > 0 {
			return join.NewPoolExecutor(cfg.PoolSize, cfg.PoolSize*4)
		}
		return join.NewGoExecutor()
	}

	srv := NewServer(newExecutor, diagManager, logger)

	if cfg.SchemaFile != "" {
		if err := loadSchemaFile(srv, cfg.DefaultDef, cfg.SchemaFile); err != nil {
			return fmt.Errorf("joind: preload schema file %q: %w", cfg.SchemaFile, err)
		}
		logger.Infof("joind: preloaded definition %q from %s", cfg.DefaultDef, cfg.SchemaFile)
	}

	joinconfig.Watch(v, func(updated joinconfig.Config) {
		logger.Infof("joind: config reloaded (log_level=%s pool_size=%d)", updated.LogLevel, updated.PoolSize)
	})

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("joind: listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		logger.Infof("joind: shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}

// loadSchemaFile reads a declarative schema from path, decoding it by
// file extension (.toml, .yaml/.yml, or JSON by default), and activates
// it under id on srv.
func loadSchemaFile(srv *Server, id, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var cfg dsl.SchemaConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		cfg, err = dsl.LoadTOML(data)
	case ".yaml", ".yml":
		cfg, err = dsl.LoadYAML(data)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return err
	}

	return srv.LoadSchema(id, cfg)
}

func bindFlagOverrides(cmd *cobra.Command, v *viper.Viper, cfg *joinconfig.Config) {
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Addr = addr
	}
	if pool, _ := cmd.Flags().GetInt("pool-size"); pool != 0 {
		cfg.PoolSize = pool
	}
	if hook, _ := cmd.Flags().GetString("webhook-url"); hook != "" {
		cfg.WebhookURL = hook
	}
}
