package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/tcardoso/licensedesk/internal/api"
	"github.com/tcardoso/licensedesk/internal/auth"
	"github.com/tcardoso/licensedesk/internal/obs"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.TokenSecret == "" {
			return fmt.Errorf("LICENSEDESK_TOKEN_SECRET must be set")
		}

		db, err := cfg.InitializeDatabase()
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		authService, err := auth.NewService(auth.NewAccountStore(db), cfg.TokenSecret)
		if err != nil {
			return err
		}

		obs.Init()

		r := chi.NewRouter()
		r.Use(middleware.Logger)
		r.Use(middleware.Recoverer)
		r.Use(obs.Instrument)

		api.NewAPI(db, api.Options{
			Policy:           cfg.CountPolicy,
			ExpiryWindowDays: cfg.ExpiryWindowDays,
			AuthService:      authService,
		}).RegisterRoutes(r)

		r.Method(http.MethodGet, "/metrics", obs.Handler())
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			if err := db.Ping(); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
			if _, err := fmt.Fprintln(w, "ok"); err != nil {
				log.Printf("failed to write health response: %v", err)
			}
		})

		addr := ":" + cfg.Port
		log.Printf("licensedesk listening on %s (seat counting: %s, expiry window: %d days)",
			addr, cfg.CountPolicy, cfg.ExpiryWindowDays)
		return http.ListenAndServe(addr, r)
	},
}
