package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/tcardoso/licensedesk/internal/domain"
	"github.com/tcardoso/licensedesk/internal/repository"
	"github.com/tcardoso/licensedesk/internal/stats"
)

// Stats groups the dashboard aggregation handlers
type Stats struct {
	pools       repository.PoolRepository
	assignments repository.AssignmentRepository
	m365Pools   repository.M365PoolRepository
	m365Users   repository.M365UserRepository
	legacy      repository.LegacyLicenseRepository

	windowDays int
}

func NewStats(
	pools repository.PoolRepository,
	assignments repository.AssignmentRepository,
	m365Pools repository.M365PoolRepository,
	m365Users repository.M365UserRepository,
	legacy repository.LegacyLicenseRepository,
	windowDays int,
) *Stats {
	if windowDays <= 0 {
		windowDays = domain.DefaultExpiryWindowDays
	}
	return &Stats{
		pools:       pools,
		assignments: assignments,
		m365Pools:   m365Pools,
		m365Users:   m365Users,
		legacy:      legacy,
		windowDays:  windowDays,
	}
}

type CategoryStatsResponse struct {
	Total        int `json:"total"`
	Active       int `json:"active"`
	Expired      int `json:"expired"`
	ExpiringSoon int `json:"expiring_soon"`
}

func (h *Stats) snapshot(r *http.Request) (stats.Snapshot, error) {
	ctx := r.Context()
	var (
		s   stats.Snapshot
		err error
	)
	if s.Pools, err = h.pools.FindAll(ctx); err != nil {
		return stats.Snapshot{}, err
	}
	if s.Assignments, err = h.assignments.FindAll(ctx); err != nil {
		return stats.Snapshot{}, err
	}
	if s.M365Pools, err = h.m365Pools.FindAll(ctx); err != nil {
		return stats.Snapshot{}, err
	}
	if s.M365Users, err = h.m365Users.FindAll(ctx); err != nil {
		return stats.Snapshot{}, err
	}
	if s.Legacy, err = h.legacy.FindAll(ctx); err != nil {
		return stats.Snapshot{}, err
	}
	return s, nil
}

// StatsHandler handles GET /api/stats, one summary per license category
func (h *Stats) StatsHandler(w http.ResponseWriter, r *http.Request) {
	s, err := h.snapshot(r)
	if err != nil {
		writeStoreError(w, err, "stats not found")
		return
	}

	computed := stats.Compute(s, time.Now(), h.windowDays)
	response := make(map[string]CategoryStatsResponse, len(computed))
	for category, cs := range computed {
		response[string(category)] = CategoryStatsResponse{
			Total:        cs.Total,
			Active:       cs.Active,
			Expired:      cs.Expired,
			ExpiringSoon: cs.ExpiringSoon,
		}
	}
	writeJSON(w, http.StatusOK, response)
}

// CostsHandler handles GET /api/stats/costs?group_by=value|date
func (h *Stats) CostsHandler(w http.ResponseWriter, r *http.Request) {
	groupBy := stats.GroupBy(r.URL.Query().Get("group_by"))
	switch groupBy {
	case "":
		groupBy = stats.GroupByValue
	case stats.GroupByValue, stats.GroupByDate:
	default:
		writeError(w, http.StatusBadRequest, "group_by must be \"value\" or \"date\"")
		return
	}

	s, err := h.snapshot(r)
	if err != nil {
		writeStoreError(w, err, "stats not found")
		return
	}

	entries := stats.CostRollup(s, groupBy)
	if entries == nil {
		entries = []stats.CostEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// ExpiringHandler handles GET /api/stats/expiring?limit=
func (h *Stats) ExpiringHandler(w http.ResponseWriter, r *http.Request) {
	limit := stats.DefaultExpiringLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	s, err := h.snapshot(r)
	if err != nil {
		writeStoreError(w, err, "stats not found")
		return
	}

	entries := stats.Expiring(s, time.Now(), h.windowDays, limit)
	if entries == nil {
		entries = []stats.ExpiringEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
