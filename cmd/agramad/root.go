package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/agrama/agrama/internal/config"
	"github.com/agrama/agrama/internal/engine"
	"github.com/agrama/agrama/internal/httptransport"
	"github.com/agrama/agrama/internal/lexical"
	"github.com/agrama/agrama/internal/logging"
	"github.com/agrama/agrama/internal/mcp"
	"github.com/agrama/agrama/internal/monitor"
	"github.com/agrama/agrama/internal/ratelimit"
	"github.com/agrama/agrama/internal/semantic"
	"github.com/agrama/agrama/internal/snapshot"
)

// shutdownGrace bounds how long an HTTP/metrics transport gets to drain
// in-flight requests once a shutdown signal arrives.
const shutdownGrace = 10 * time.Second

// Version is set during build.
var Version = "0.1.0"

var (
	configPath  string
	logLevel    string
	httpEnabled bool
	httpPort    int
	metricsPort int
)

// rootCmd is the single canonical entrypoint: one process that always
// speaks MCP over stdio and optionally also HTTP and metrics-export,
// rather than splitting those into separate server/CLI binaries.
var rootCmd = &cobra.Command{
	Use:   "agramad",
	Short: "Temporal knowledge-graph substrate: store, retrieve, search, link, transform",
	Long: `agramad runs the Agrama primitive engine as an MCP server over stdio.

Five primitives are exposed as MCP tools: store, retrieve, search, link,
transform. Each composes the temporal content store with a triple-hybrid
search engine (semantic HNSW, lexical BM25, bounded-BFS graph
reachability).

Examples:
  agramad serve                          # MCP over stdio (default)
  agramad serve --http --http-port 8420  # also serve JSON-RPC over HTTP
  agramad serve --metrics-port 7421      # also expose a metrics snapshot`,
	Version: Version,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level from config")

	serveCmd.Flags().BoolVar(&httpEnabled, "http", false, "also serve JSON-RPC over HTTP")
	serveCmd.Flags().IntVar(&httpPort, "http-port", 8420, "HTTP transport port (with --http)")
	serveCmd.Flags().IntVar(&metricsPort, "metrics-port", 0, "metrics export port (0 disables)")

	rootCmd.AddCommand(serveCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server (and optional HTTP/metrics transports)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: "stderr"})
	log := logging.GetLogger("agramad")

	eng, err := engine.New(engine.Config{
		MaxHistoryPerKey: cfg.Store.MaxHistoryPerKey,
		IdleSessionAfter: cfg.Session.IdleTimeout,
		CacheEnabled:     cfg.Cache.Enabled,
		CacheMaxSize:     cfg.Cache.MaxSize,
		SemanticParams: semantic.Params{
			Dim:            cfg.Semantic.VectorDimensions,
			M:              cfg.Semantic.MaxConnections,
			EfConstruction: cfg.Semantic.EfConstruction,
			MatryoshkaDims: cfg.Semantic.MatryoshkaDims,
		},
		LexicalParams: lexical.Params{K1: cfg.Lexical.BM25K1, B: cfg.Lexical.BM25B},
		AlertThresholds: monitor.Thresholds{
			P99Millis:   cfg.Monitor.AlertThresholds.P99Millis,
			MinQPS:      cfg.Monitor.AlertThresholds.MinQPS,
			MaxMemoryMB: cfg.Monitor.AlertThresholds.MaxMemoryMB,
		},
	})
	if err != nil {
		return fmt.Errorf("building engine: %w", err)
	}

	if err := cfg.EnsureSnapshotDir(); err != nil {
		return fmt.Errorf("preparing snapshot directory: %w", err)
	}
	journal, err := snapshot.Open(cfg.Store.SnapshotPath)
	if err != nil {
		return fmt.Errorf("opening snapshot journal: %w", err)
	}
	defer journal.Close()

	if restored, err := journal.RestoreLatest(eng.Store()); err != nil {
		log.Warn("failed to restore snapshot", "error", err)
	} else if restored {
		log.Info("restored store from snapshot journal")
	}

	ticker := snapshot.NewTicker(journal, eng.Store(), cfg.Store.SnapshotInterval, 20)
	ticker.Start()
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutdown signal received")
		cancel()
	}()

	limiter := ratelimit.NewLimiter(ratelimit.DefaultConfig())

	if httpEnabled {
		httpSrv := httptransport.NewServer(eng, limiter, httptransport.Config{
			Host: cfg.Transport.MetricsExportHost,
			Port: httpPort,
			CORS: cfg.Transport.CORS,
		})
		go func() {
			if err := httpSrv.Start(cfg.Transport.MetricsExportHost, httpPort); err != nil && err != http.ErrServerClosed {
				log.Error("HTTP transport error", "error", err)
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer shutdownCancel()
			_ = httpSrv.Stop(shutdownCtx)
		}()
	}

	if metricsPort > 0 {
		exporter := monitor.NewHTTPExporter(eng.Monitor(), monitor.ExportConfig{
			CORS:         cfg.Transport.CORS,
			AllowOrigins: cfg.Transport.AllowOrigins,
		})
		go func() {
			if err := exporter.Start(cfg.Transport.MetricsExportHost, metricsPort); err != nil && err != http.ErrServerClosed {
				log.Error("metrics export error", "error", err)
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer shutdownCancel()
			_ = exporter.Stop(shutdownCtx)
		}()
	}

	server := mcp.NewServer(eng, limiter)
	if err := server.Run(ctx); err != nil && err != context.Canceled {
		return fmt.Errorf("MCP server error: %w", err)
	}

	if err := journal.Save(eng.Store()); err != nil {
		log.Warn("failed to save final snapshot", "error", err)
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}
