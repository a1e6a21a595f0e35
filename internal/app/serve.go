package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ward.fit/collate/internal/cli"
	"ward.fit/collate/internal/config"
	"ward.fit/collate/internal/db"
	"ward.fit/collate/internal/httpapi"
	"ward.fit/collate/internal/logging"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	host := fs.String("host", "", "Host interface to bind (default from COLLATE_SERVE_HOST)")
	port := fs.Int("port", 0, "HTTP port (default from COLLATE_SERVE_PORT)")
	readTimeout := fs.Duration("read-timeout", 10*time.Second, "HTTP read timeout")
	writeTimeout := fs.Duration("write-timeout", 60*time.Second, "HTTP write timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	serveHost := *host
	if serveHost == "" {
		serveHost = cfg.ServeHost
	}
	servePort := *port
	if servePort <= 0 {
		servePort = cfg.ServePort
	}
	if servePort < 1 || servePort > 65535 {
		fmt.Fprintln(os.Stderr, "--port must be between 1 and 65535")
		return 2
	}

	var pool *db.Pool
	if cfg.AuditEnabled() {
		dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer dbCancel()

		pool, err = db.NewPool(dbCtx, cfg)
		if err != nil {
			logger.Error().Err(err).Msg("serve failed to connect to audit database")
			fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
			return 1
		}
		defer pool.Close()
	} else {
		logger.Info().Msg("audit ledger disabled; serving without database")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		cancel()
	}()

	srv := httpapi.NewServer(engineConfigFromEnv(cfg), pool, logger, httpapi.Options{
		Host:            serveHost,
		Port:            servePort,
		ReadTimeout:     *readTimeout,
		WriteTimeout:    *writeTimeout,
		ShutdownTimeout: time.Duration(cfg.ServeShutdownSeconds) * time.Second,
		APIUser:         cfg.APIUser,
		APIPasswordHash: cfg.APIPasswordHash,
	})

	if err := srv.Start(ctx); err != nil {
		logger.Error().Err(err).Str("host", serveHost).Int("port", servePort).Msg("server failed")
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		return 1
	}

	return 0
}
