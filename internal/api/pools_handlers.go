package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tcardoso/licensedesk/internal/capacity"
	"github.com/tcardoso/licensedesk/internal/domain"
	"github.com/tcardoso/licensedesk/internal/repository"
)

// Pools groups the generic license pool handlers
type Pools struct {
	pools       repository.PoolRepository
	assignments repository.AssignmentRepository
	policy      capacity.Policy
}

func NewPools(pools repository.PoolRepository, assignments repository.AssignmentRepository, policy capacity.Policy) *Pools {
	return &Pools{pools: pools, assignments: assignments, policy: policy}
}

// PoolRequest carries the writable pool fields. Every field is optional
// on the wire: creates start from a zero pool, updates from the stored
// one, and only the fields present in the body are applied.
type PoolRequest struct {
	Type           *string  `json:"type"`
	Name           *string  `json:"name"`
	TotalLicenses  *int     `json:"total_licenses"`
	Cost           *float64 `json:"cost"`
	ExpirationDate *string  `json:"expiration_date"`
	Notes          *string  `json:"notes"`
}

// apply overlays the request onto base. Omitted fields keep their base
// value; an expiration_date of "" clears the date.
func (req PoolRequest) apply(base domain.LicensePool) (domain.LicensePool, error) {
	if req.Type != nil {
		base.Type = domain.LicenseType(*req.Type)
	}
	if req.Name != nil {
		base.Name = *req.Name
	}
	if req.TotalLicenses != nil {
		base.TotalLicenses = *req.TotalLicenses
	}
	if req.Cost != nil {
		base.Cost = req.Cost
	}
	if req.ExpirationDate != nil {
		exp, err := parseWireDate(req.ExpirationDate)
		if err != nil {
			return domain.LicensePool{}, err
		}
		base.ExpirationDate = exp
	}
	if req.Notes != nil {
		base.Notes = *req.Notes
	}
	return base, nil
}

// PoolResponse carries a pool with its seat usage. The assigned and
// available counts are computed from current assignments on every read,
// they are never stored.
type PoolResponse struct {
	ID                string   `json:"id"`
	Type              string   `json:"type"`
	Name              string   `json:"name"`
	TotalLicenses     int      `json:"total_licenses"`
	AssignedLicenses  int      `json:"assigned_licenses"`
	AvailableLicenses int      `json:"available_licenses"`
	Cost              *float64 `json:"cost"`
	ExpirationDate    *string  `json:"expiration_date"`
	Notes             string   `json:"notes"`
	CreatedAt         string   `json:"created_at"`
	UpdatedAt         string   `json:"updated_at"`
}

func poolResponse(p domain.LicensePool, usage capacity.Usage) PoolResponse {
	return PoolResponse{
		ID:                p.ID,
		Type:              string(p.Type),
		Name:              p.Name,
		TotalLicenses:     p.TotalLicenses,
		AssignedLicenses:  usage.Assigned,
		AvailableLicenses: usage.Available,
		Cost:              p.Cost,
		ExpirationDate:    wireDate(p.ExpirationDate),
		Notes:             p.Notes,
		CreatedAt:         wireTime(p.CreatedAt),
		UpdatedAt:         wireTime(p.UpdatedAt),
	}
}

// ListPoolsHandler handles GET /api/pools with optional ?type= and ?q= filters
func (h *Pools) ListPoolsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		pools []domain.LicensePool
		err   error
	)
	if typeFilter := r.URL.Query().Get("type"); typeFilter != "" {
		if !domain.IsPoolType(domain.LicenseType(typeFilter)) {
			writeError(w, http.StatusBadRequest, "invalid pool type")
			return
		}
		pools, err = h.pools.FindByType(ctx, domain.LicenseType(typeFilter))
	} else {
		pools, err = h.pools.FindAll(ctx)
	}
	if err != nil {
		writeStoreError(w, err, "pools not found")
		return
	}

	assignments, err := h.assignments.FindAll(ctx)
	if err != nil {
		writeStoreError(w, err, "assignments not found")
		return
	}
	usage := capacity.ForPools(pools, assignments, h.policy)

	q := r.URL.Query().Get("q")
	response := make([]PoolResponse, 0, len(pools))
	for _, p := range pools {
		if !matchQuery(q, p.Name, p.Notes) {
			continue
		}
		response = append(response, poolResponse(p, usage[p.ID]))
	}
	writeJSON(w, http.StatusOK, response)
}

// GetPoolHandler handles GET /api/pools/{id}
func (h *Pools) GetPoolHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pool, err := h.pools.FindByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err, "pool not found")
		return
	}
	assignments, err := h.assignments.FindByPoolID(ctx, pool.ID)
	if err != nil {
		writeStoreError(w, err, "assignments not found")
		return
	}
	writeJSON(w, http.StatusOK, poolResponse(pool, capacity.ForPool(pool, assignments, h.policy)))
}

// CreatePoolHandler handles POST /api/pools
func (h *Pools) CreatePoolHandler(w http.ResponseWriter, r *http.Request) {
	var req PoolRequest
	if !decodeBody(w, r, &req) {
		return
	}
	pool, err := req.apply(domain.LicensePool{})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := h.pools.Save(r.Context(), pool)
	if err != nil {
		writeStoreError(w, err, "pool not found")
		return
	}
	writeJSON(w, http.StatusCreated, poolResponse(saved, capacity.Usage{Assigned: 0, Available: saved.TotalLicenses}))
}

// UpdatePoolHandler handles PUT /api/pools/{id}
func (h *Pools) UpdatePoolHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req PoolRequest
	if !decodeBody(w, r, &req) {
		return
	}

	existing, err := h.pools.FindByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err, "pool not found")
		return
	}
	pool, err := req.apply(existing)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := h.pools.Save(ctx, pool)
	if err != nil {
		writeStoreError(w, err, "pool not found")
		return
	}
	assignments, err := h.assignments.FindByPoolID(ctx, saved.ID)
	if err != nil {
		writeStoreError(w, err, "assignments not found")
		return
	}
	writeJSON(w, http.StatusOK, poolResponse(saved, capacity.ForPool(saved, assignments, h.policy)))
}

// DeletePoolHandler handles DELETE /api/pools/{id}. Assignments referencing
// the pool are deleted with it.
func (h *Pools) DeletePoolHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.pools.DeleteByID(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, err, "pool not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
