package api

import (
	"database/sql"

	"github.com/go-chi/chi/v5"

	"github.com/tcardoso/licensedesk/internal/auth"
	"github.com/tcardoso/licensedesk/internal/capacity"
	"github.com/tcardoso/licensedesk/internal/domain"
	"github.com/tcardoso/licensedesk/internal/repository"
)

// API holds repository dependencies for the HTTP layer
type API struct {
	pools       repository.PoolRepository
	assignments repository.AssignmentRepository
	m365Pools   repository.M365PoolRepository
	m365Users   repository.M365UserRepository
	legacy      repository.LegacyLicenseRepository

	authService *auth.Service
	policy      capacity.Policy
	windowDays  int
}

// Options tunes the API behavior
type Options struct {
	// Policy selects which assignments consume pool seats
	Policy capacity.Policy

	// ExpiryWindowDays is the lookahead for expiring-soon figures
	ExpiryWindowDays int

	// AuthService guards the inventory routes when set. A nil service
	// leaves every route open, which is only meant for tests.
	AuthService *auth.Service
}

// NewAPI creates a new API instance with repositories over the given database
func NewAPI(db *sql.DB, opts Options) *API {
	if opts.Policy == "" {
		opts.Policy = capacity.CountActiveOnly
	}
	if opts.ExpiryWindowDays <= 0 {
		opts.ExpiryWindowDays = domain.DefaultExpiryWindowDays
	}
	return &API{
		pools:       repository.NewPoolRepository(db),
		assignments: repository.NewAssignmentRepository(db),
		m365Pools:   repository.NewM365PoolRepository(db),
		m365Users:   repository.NewM365UserRepository(db),
		legacy:      repository.NewLegacyLicenseRepository(db),
		authService: opts.AuthService,
		policy:      opts.Policy,
		windowDays:  opts.ExpiryWindowDays,
	}
}

// RegisterRoutes registers all API endpoints on the given chi router
func (a *API) RegisterRoutes(r chi.Router) {
	if a.authService != nil {
		authHandlers := NewAuth(a.authService)
		r.Post("/api/auth/login", authHandlers.LoginHandler)
	}

	r.Group(func(r chi.Router) {
		if a.authService != nil {
			r.Use(a.authService.Middleware)
		}

		pools := NewPools(a.pools, a.assignments, a.policy)
		r.Route("/api/pools", func(r chi.Router) {
			r.Get("/", pools.ListPoolsHandler)
			r.Post("/", pools.CreatePoolHandler)
			r.Get("/{id}", pools.GetPoolHandler)
			r.Put("/{id}", pools.UpdatePoolHandler)
			r.Delete("/{id}", pools.DeletePoolHandler)
		})

		assignments := NewAssignments(a.assignments, a.pools, a.policy)
		r.Route("/api/assignments", func(r chi.Router) {
			r.Get("/", assignments.ListAssignmentsHandler)
			r.Post("/", assignments.CreateAssignmentHandler)
			r.Get("/{id}", assignments.GetAssignmentHandler)
			r.Put("/{id}", assignments.UpdateAssignmentHandler)
			r.Delete("/{id}", assignments.DeleteAssignmentHandler)
		})

		m365Pools := NewM365Pools(a.m365Pools, a.m365Users, a.policy)
		r.Route("/api/m365/pools", func(r chi.Router) {
			r.Get("/", m365Pools.ListM365PoolsHandler)
			r.Post("/", m365Pools.CreateM365PoolHandler)
			r.Get("/{id}", m365Pools.GetM365PoolHandler)
			r.Put("/{id}", m365Pools.UpdateM365PoolHandler)
			r.Delete("/{id}", m365Pools.DeleteM365PoolHandler)
		})

		m365Users := NewM365Users(a.m365Users, a.m365Pools, a.policy)
		r.Route("/api/m365/users", func(r chi.Router) {
			r.Get("/", m365Users.ListM365UsersHandler)
			r.Post("/", m365Users.CreateM365UserHandler)
			r.Get("/{id}", m365Users.GetM365UserHandler)
			r.Put("/{id}", m365Users.UpdateM365UserHandler)
			r.Delete("/{id}", m365Users.DeleteM365UserHandler)
		})

		legacy := NewLegacyLicenses(a.legacy)
		r.Route("/api/licenses", func(r chi.Router) {
			r.Get("/", legacy.ListLegacyLicensesHandler)
			r.Post("/", legacy.CreateLegacyLicenseHandler)
			r.Get("/{id}", legacy.GetLegacyLicenseHandler)
			r.Put("/{id}", legacy.UpdateLegacyLicenseHandler)
			r.Delete("/{id}", legacy.DeleteLegacyLicenseHandler)
		})

		stats := NewStats(a.pools, a.assignments, a.m365Pools, a.m365Users, a.legacy, a.windowDays)
		r.Route("/api/stats", func(r chi.Router) {
			r.Get("/", stats.StatsHandler)
			r.Get("/costs", stats.CostsHandler)
			r.Get("/expiring", stats.ExpiringHandler)
		})
	})
}
