package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"glowcrm/server/internal/auth"
	"glowcrm/server/internal/config"
	"glowcrm/server/internal/metrics"
	"glowcrm/server/internal/service/clients"
	"glowcrm/server/internal/service/scheduling"
	"glowcrm/server/internal/store/postgres"
	httpTransport "glowcrm/server/internal/transport/http"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", "glowcrm-server"),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", "glowcrm-server"),
	)
	slog.SetDefault(log)

	addr := net.JoinHostPort(cfg.HTTPHost, strconv.Itoa(cfg.HTTPPort))
	log.Info("starting", slog.String("http_addr", addr), slog.String("log_level", cfg.LogLevel))

	loc, err := time.LoadLocation(cfg.ClinicTimeZone)
	if err != nil {
		log.Error("invalid clinic time zone", slog.Any("err", err), slog.String("time_zone", cfg.ClinicTimeZone))
		os.Exit(1)
	}

	log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
	db, err := postgres.Open(context.Background(), cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
		log.Error("database connection failed", args...)
		os.Exit(1)
	}
	defer func() {
		if err := postgres.Close(db); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}()

	reservationRepo := postgres.NewReservationRepo(db, loc)
	clientRepo := postgres.NewClientRepo(db)

	policy := scheduling.Policy{
		SlotMinutes:        cfg.SlotMinutes,
		MaxDurationMinutes: cfg.MaxDurationMinutes,
		WorkStartMinutes:   cfg.WorkStartMinutes,
		WorkEndMinutes:     cfg.WorkEndMinutes,
		Location:           loc,
	}
	schedulingSvc := scheduling.NewService(reservationRepo, clientRepo, policy)
	clientsSvc := clients.NewService(clientRepo)
	authProvider := auth.NewStatic(cfg.AuthAdminEmail, cfg.AuthAdminPassword, cfg.AuthTokenTTL)

	metrics.Register()

	handler := httpTransport.NewHandler(
		httpTransport.NewCalendarHandler(schedulingSvc, loc, log),
		httpTransport.NewClientsHandler(clientsSvc, log),
		httpTransport.NewAuthHandler(authProvider, log),
		log,
		cfg.HTTPRequestTimeout,
	)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Info("http server started", slog.String("http_addr", addr))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdown(log, srv, cfg.ShutdownTimeout)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped with error", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func shutdown(log *slog.Logger, srv *http.Server, timeout time.Duration) {
	log.Info("shutting down http server", slog.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("http graceful shutdown timed out; forcing close", slog.Any("err", err))
		if cerr := srv.Close(); cerr != nil {
			log.Warn(fmt.Sprintf("http server close failed: %v", cerr))
		}
		return
	}
	log.Info("http server stopped")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
