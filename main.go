package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitea.com/go-chi/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blogem/plant-maintenance/authenticator"
	"github.com/blogem/plant-maintenance/config"
	"github.com/blogem/plant-maintenance/controllers"
	"github.com/blogem/plant-maintenance/database"
	authmiddleware "github.com/blogem/plant-maintenance/middleware"
	"github.com/blogem/plant-maintenance/repositories"
	"github.com/blogem/plant-maintenance/rotation"
	"github.com/blogem/plant-maintenance/services"
	"github.com/blogem/plant-maintenance/telemetry"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	telemetry.SetupLogger(cfg.Logging.Format, cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Initialize(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	repos := repositories.NewRepositories(db,
		repositories.WithStrictPatchTraceability(cfg.Audit.StrictPatchTraceability))

	rotator, err := newRotator(cfg.Rotation, repos, db)
	if err != nil {
		return err
	}
	job := rotation.NewJob(rotator, cfg.Rotation.Interval)
	go job.Start(ctx)
	defer job.Stop()

	var auth authenticator.Provider
	if !cfg.Auth.Disabled {
		auth, err = authenticator.NewOIDCProvider(ctx, authenticator.OIDCConfig{
			Domain:       cfg.Auth.Domain,
			ClientID:     cfg.Auth.ClientID,
			ClientSecret: cfg.Auth.ClientSecret,
			CallbackURL:  cfg.Auth.CallbackURL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize OIDC provider: %w", err)
		}
	} else {
		slog.Warn("authentication disabled, every request acts as anonymous")
	}

	srvs := services.NewServices(repos, rotator)
	ctrl := controllers.NewControllers(srvs, auth)

	r, err := setupRouter(ctrl, auth != nil, cfg.Server.UseHTTPS)
	if err != nil {
		return fmt.Errorf("failed to setup router: %w", err)
	}

	server := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("plant maintenance API starting",
			"addr", server.Addr, "database", cfg.Database.Path, "datasets", rotator.Datasets())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newRotator manages the history table plus every CSV file in the
// configured directory
func newRotator(cfg config.RotationConfig, repos *repositories.Repositories, db *sql.DB) (*rotation.Rotator, error) {
	history, err := rotation.NewTableDataset(db, "historial", "fecha_evento")
	if err != nil {
		return nil, err
	}
	datasets := []rotation.Dataset{history}

	if cfg.CSVDir != "" {
		csvs, err := rotation.DiscoverCSVDatasets(cfg.CSVDir, cfg.CSVTimeField)
		if err != nil {
			return nil, fmt.Errorf("failed to discover CSV datasets in %s: %w", cfg.CSVDir, err)
		}
		datasets = append(datasets, csvs...)
	}

	return rotation.NewRotator(rotation.Config{
		MaxBytes: cfg.MaxBytes,
		MinRows:  cfg.MinRows,
		Fraction: cfg.Fraction,
	}, repos.Audit, datasets...), nil
}

// setupRouter configures all routes. With requireAuth false the API is open
// and acts as the anonymous user.
func setupRouter(ctrl *controllers.Controllers, requireAuth, useSecureCookies bool) (*chi.Mux, error) {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second)) // 60 second timeout for OAuth callbacks
	r.Use(middleware.Compress(5))

	sessionHandler, err := session.Sessioner(session.Options{
		Provider:       "memory",
		ProviderConfig: "",
		CookieName:     "cmms_session",
		Secure:         useSecureCookies,
		Gclifetime:     3600,
		Maxlifetime:    3600,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}
	r.Use(sessionHandler)

	// PUBLIC ROUTES (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status": "healthy", "service": "plant-maintenance"}`)
	})
	r.Handle("/metrics", promhttp.Handler())
	if requireAuth {
		r.Get("/login", ctrl.Auth.Login)
		r.Get("/callback", ctrl.Auth.Callback)
		r.Get("/logout", ctrl.Auth.Logout)
	}

	// PROTECTED ROUTES (authentication required)
	r.Group(func(r chi.Router) {
		if requireAuth {
			r.Use(authmiddleware.RequireAuth)
		}
		r.Use(authmiddleware.MutationLogger(slog.Default()))

		r.Route("/api", func(r chi.Router) {
			r.Get("/resumen", ctrl.Dashboard.Index)
			r.Get("/historial", ctrl.History.Index)

			r.Route("/trazabilidad", func(r chi.Router) {
				r.Get("/huerfanos", ctrl.Traceability.Orphans)
				r.Post("/reparar", ctrl.Traceability.Repair)
			})

			r.Get("/rotacion/uso", ctrl.Storage.Usage)
			r.Post("/rotacion", ctrl.Storage.Rotate)

			r.Route("/{collection}", func(r chi.Router) {
				r.Get("/", ctrl.Records.Index)
				r.Post("/", ctrl.Records.Create)
				r.Get("/{naturalID}", ctrl.Records.Show)
				r.Patch("/{naturalID}", ctrl.Records.Update)
				r.Delete("/{naturalID}", ctrl.Records.Delete)
			})
		})
	})

	return r, nil
}
