package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/adapters/auth/jwt"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/adapters/auth/odin"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/adapters/notify"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/adapters/storage/postgres"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/config"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/platform/logger"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/platform/metrics"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/ports/auth"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/router"

	"github.com/jackc/pgx/v5/pgxpool"
)

// @title                       Veterinary Telemedicine API
// @version                     1.0
// @description                 Turnos, consultas y historial clínico de mascotas.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log)
	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if cfg.Database.Enabled() {
		p, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer p.Close()
		if cfg.Database.AutoMigrate {
			if err := postgres.Migrate(ctx, p, log); err != nil {
				return err
			}
		}
		pool = p
	} else {
		log.Warn("DB_DSN not set, using in-memory storage")
	}

	verifier, err := newVerifier(cfg.Auth)
	if err != nil {
		return err
	}
	if verifier == nil {
		log.Warn("auth in dev mode, principals come from X-Debug-* headers")
	}

	pub, closePub, err := notify.New(ctx, cfg.Notify, log)
	if err != nil {
		return err
	}
	pub, closePub = notify.Drained(pub, closePub)
	defer func() {
		if err := closePub(); err != nil {
			log.Warn("closing notification publisher", "error", err)
		}
	}()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	h := router.NewRouter(router.Options{
		AuthVerifier:  verifier,
		DB:            pool,
		Logger:        log,
		Publisher:     pub,
		NotifyTimeout: cfg.Notify.Timeout,
		Location:      cfg.Clinic.Location,
		Metrics:       m,
		MetricsPath:   cfg.Metrics.Path,
		Swagger:       cfg.Server.Swagger,
	})

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", srv.Addr, "auth", cfg.Auth.Mode, "notify", cfg.Notify.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newVerifier devuelve nil en modo dev.
func newVerifier(cfg config.AuthConfig) (auth.AuthVerifier, error) {
	switch cfg.Mode {
	case config.AuthModeJWT:
		return jwt.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL), nil
	case config.AuthModeOdin:
		c, err := odin.NewClient(odin.Config{
			BaseURL:      cfg.OdinBaseURL,
			APIKey:       cfg.OdinAPIKey,
			APIKeyHeader: cfg.OdinAPIKeyHeader,
			Timeout:      cfg.OdinTimeout,
		})
		if err != nil {
			return nil, err
		}
		return odin.NewVerifier(c), nil
	default:
		return nil, nil
	}
}
