// Command server wires together the Persistence Gateway, the Scheduler,
// the Client I/O Server and the Management Server. It is the process that
// owns the Scheduler singleton and must start it before the Client I/O
// Server, so that management cancels always reach a live instance.
package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/config"
	_ "github.com/S-P-A-N-N-E-R-S/Backend-sub000/handler/builtin"
	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/management"
	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/scheduler"
	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/server"
	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Error("load config", "err", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func dsn(cfg config.Config) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?connect_timeout=%d",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName,
		int(cfg.DBTimeout.Seconds()))
}

func run(cfg config.Config, log *slog.Logger) error {
	connStr := dsn(cfg)

	sqlDB, err := sql.Open("pgx", connStr)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer sqlDB.Close()

	db := bun.NewDB(sqlDB, pgdialect.New())
	gw := store.NewGateway(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := store.InitDB(ctx, db); err != nil {
		return fmt.Errorf("init db: %w", err)
	}

	sch := scheduler.New(gw, scheduler.Config{
		ExecPath:      cfg.SchedulerExecPath,
		DBConn:        connStr,
		ProcessLimit:  cfg.SchedulerProcessLimit,
		TimeLimitMs:   cfg.SchedulerTimeLimit.Milliseconds(),
		ResourceLimit: cfg.SchedulerResourceLimit,
		Sleep:         cfg.SchedulerSleep,
	}, log.With("component", "scheduler"))
	if err := sch.Start(context.Background()); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	tlsConfig, err := loadTLSConfig(cfg)
	if err != nil {
		return fmt.Errorf("load tls config: %w", err)
	}

	ioServer := server.New(gw, sch, server.Config{
		Addr:      fmt.Sprintf(":%d", cfg.ServerPort),
		TLSConfig: tlsConfig,
	}, log.With("component", "client-io"))
	if err := ioServer.Start(context.Background()); err != nil {
		return fmt.Errorf("start client io server: %w", err)
	}

	var retentionWorker *scheduler.RetentionWorker
	if cfg.RetentionEnabled {
		retentionWorker = scheduler.NewRetentionWorker(store.NewCleaner(gw), scheduler.RetentionConfig{
			Interval: cfg.RetentionInterval,
			MaxAge:   cfg.RetentionMaxAge,
		}, log.With("component", "retention"))
		if err := retentionWorker.Start(context.Background()); err != nil {
			return fmt.Errorf("start retention worker: %w", err)
		}
	}

	mgmtServer := management.New(gw, sch, management.Config{
		SocketPath: management.DefaultSocketPath,
	}, log.With("component", "management"))
	if err := mgmtServer.Start(context.Background()); err != nil {
		return fmt.Errorf("start management server: %w", err)
	}

	log.Info("server started",
		"port", cfg.ServerPort,
		"management_socket", management.DefaultSocketPath,
		"tls", tlsConfig != nil,
	)

	<-ctx.Done()
	log.Info("shutting down")

	if err := mgmtServer.Stop(shutdownTimeout); err != nil {
		log.Warn("stop management server", "err", err)
	}
	if retentionWorker != nil {
		if err := retentionWorker.Stop(shutdownTimeout); err != nil {
			log.Warn("stop retention worker", "err", err)
		}
	}
	if err := ioServer.Stop(shutdownTimeout); err != nil {
		log.Warn("stop client io server", "err", err)
	}
	// force=false: already-running workers are left to finish; Stop waits up
	// to shutdownTimeout for them, and the process then exits regardless.
	if err := sch.Stop(false, shutdownTimeout); err != nil {
		log.Warn("stop scheduler", "err", err)
	}
	return nil
}

func loadTLSConfig(cfg config.Config) (*tls.Config, error) {
	if cfg.TLSCertPath == "" || cfg.TLSKeyPath == "" {
		return nil, nil
	}
	cert, err := tls.LoadX509KeyPair(cfg.TLSCertPath, cfg.TLSKeyPath)
	if err != nil {
		return nil, err
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}}, nil
}
