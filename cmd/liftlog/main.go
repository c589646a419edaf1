package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/liftlog/internal/config"
	"github.com/meltforce/liftlog/internal/ingest"
	"github.com/meltforce/liftlog/internal/ingest/freeform"
	"github.com/meltforce/liftlog/internal/llm"
	"github.com/meltforce/liftlog/internal/mcp"
	"github.com/meltforce/liftlog/internal/server"
	"github.com/meltforce/liftlog/internal/storage"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	mcpMode := flag.Bool("mcp", false, "serve MCP over stdio instead of HTTP")
	mcpURL := flag.String("mcp-url", "", "with -mcp: proxy tools to a remote LiftLog server instead of the local database")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Remote MCP mode needs no database at all.
	if *mcpMode && *mcpURL != "" {
		ds := mcp.NewHTTPClient(*mcpURL, cfg.Auth.APIKey)
		if err := mcpserver.ServeStdio(mcp.New(ds, Version, log)); err != nil {
			log.Error("mcp server error", "error", err)
			os.Exit(1)
		}
		return
	}

	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	ctx := context.Background()
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	ingestSvc, err := buildIngest(db, cfg, log)
	if err != nil {
		log.Error("failed to build ingest pipeline", "error", err)
		os.Exit(1)
	}

	if *mcpMode {
		ds := &mcp.Local{DB: db, Ingest: ingestSvc}
		if err := mcpserver.ServeStdio(mcp.New(ds, Version, log)); err != nil {
			log.Error("mcp server error", "error", err)
			os.Exit(1)
		}
		return
	}

	log.Info("LiftLog starting", "version", Version)
	srv := server.New(db, ingestSvc, cfg.Auth.APIKey, log)

	// Start server — tsnet or plain HTTP
	var listener net.Listener

	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}

// buildIngest wires the language-model backend and the ingest pipeline. A
// missing backend is not fatal here: read endpoints still work, and the log
// endpoint reports the missing backend per call.
func buildIngest(db *storage.DB, cfg *config.Config, log *slog.Logger) (*ingest.Service, error) {
	var parser *freeform.Parser
	client, err := llm.New(cfg.LLM)
	switch {
	case err == llm.ErrNotConfigured:
		log.Warn("no language model backend configured; workout logging disabled")
	case err != nil:
		return nil, err
	default:
		parser = freeform.New(client, log)
		log.Info("language model backend ready", "provider", client.Provider(), "model", client.Model())
	}

	defaultPlanID := uuid.Nil
	if cfg.LLM.DefaultPlanID != "" {
		defaultPlanID, err = uuid.Parse(cfg.LLM.DefaultPlanID)
		if err != nil {
			return nil, fmt.Errorf("invalid default_plan_id: %w", err)
		}
	}

	if parser == nil {
		return ingest.NewService(db, nil, log, defaultPlanID), nil
	}
	return ingest.NewService(db, parser, log, defaultPlanID), nil
}
