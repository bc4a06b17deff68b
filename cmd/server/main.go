package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/me/mediafront/internal/config"
	"github.com/me/mediafront/internal/logging"
	"github.com/me/mediafront/internal/server"
	"github.com/me/mediafront/internal/store"
)

func main() {
	var (
		addr       = flag.String("addr", "", "Listen address (default :8080)")
		logLevel   = flag.String("log-level", "", "Log level (debug, info, warn, error)")
		logFormat  = flag.String("log-format", "", "Log format (text, json)")
		dbPath     = flag.String("db", "", "Session database path (default ~/.mediafront/sessions.db)")
		backendURL = flag.String("backend", "", "Media backend URL")
		staticDir  = flag.String("static", "", "Directory served under /static/")
		secure     = flag.Bool("secure-cookies", false, "Mark session cookies Secure (HTTPS only)")
		configFile = flag.String("config", "", "Path to site config file (YAML)")
		envFile    = flag.String("env-file", ".env", "KEY=VALUE file loaded into the environment if present")
		debug      = flag.Bool("debug", false, "Shorthand for --log-level=debug")
	)
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "load env file: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// Flags given on the command line win over file and environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-format":
			cfg.LogFormat = *logFormat
		case "db":
			cfg.DBPath = *dbPath
		case "backend":
			cfg.Backend.URL = *backendURL
		case "static":
			cfg.StaticDir = *staticDir
		case "secure-cookies":
			cfg.SecureCookies = *secure
		}
	})
	if *debug {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	// Resolve database path.
	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot determine home directory: %v\n", err)
			os.Exit(1)
		}
		dir := filepath.Join(home, ".mediafront")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "cannot create %s: %v\n", dir, err)
			os.Exit(1)
		}
		cfg.DBPath = filepath.Join(dir, "sessions.db")
	}

	// Open store and run migrations.
	st, err := store.NewSQLiteStore(cfg.DBPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Migrate(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "migrate database: %v\n", err)
		os.Exit(1)
	}
	logger.Info("database ready", "path", cfg.DBPath)

	if cfg.User.MissingUsername() {
		logger.Warn("fallback user has no username and will be treated as anonymous", "name", cfg.User.Name, "admin", cfg.User.IsAdmin)
	} else if cfg.User.Configured() {
		logger.Info("fallback user configured", "username", cfg.User.Username, "anonymous", cfg.User.IsAnonymous)
	} else {
		logger.Info("no fallback user; the development profile is used when the backend is unreachable")
	}

	srv := server.New(cfg, st, logger)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv.StartSessionCleanup(ctx)

	go func() {
		logger.Info("server starting", "addr", cfg.Addr, "backend", cfg.Backend.URL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
