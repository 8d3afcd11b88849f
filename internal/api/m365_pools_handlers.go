package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tcardoso/licensedesk/internal/capacity"
	"github.com/tcardoso/licensedesk/internal/domain"
	"github.com/tcardoso/licensedesk/internal/repository"
)

// M365Pools groups the Microsoft 365 pool handlers
type M365Pools struct {
	pools  repository.M365PoolRepository
	users  repository.M365UserRepository
	policy capacity.Policy
}

func NewM365Pools(pools repository.M365PoolRepository, users repository.M365UserRepository, policy capacity.Policy) *M365Pools {
	return &M365Pools{pools: pools, users: users, policy: policy}
}

// M365PoolRequest carries the writable pool fields. Fields omitted from
// the body are left at their base value, so updates can send a partial set.
type M365PoolRequest struct {
	LicenseType    *string  `json:"license_type"`
	TotalLicenses  *int     `json:"total_licenses"`
	Cost           *float64 `json:"cost"`
	ExpirationDate *string  `json:"expiration_date"`
	Notes          *string  `json:"notes"`
}

func (req M365PoolRequest) apply(base domain.M365Pool) (domain.M365Pool, error) {
	if req.LicenseType != nil {
		base.LicenseType = *req.LicenseType
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
			return domain.M365Pool{}, err
		}
		base.ExpirationDate = exp
	}
	if req.Notes != nil {
		base.Notes = *req.Notes
	}
	return base, nil
}

type M365PoolResponse struct {
	ID                string   `json:"id"`
	LicenseType       string   `json:"license_type"`
	TotalLicenses     int      `json:"total_licenses"`
	AssignedLicenses  int      `json:"assigned_licenses"`
	AvailableLicenses int      `json:"available_licenses"`
	Cost              *float64 `json:"cost"`
	ExpirationDate    *string  `json:"expiration_date"`
	Notes             string   `json:"notes"`
	CreatedAt         string   `json:"created_at"`
	UpdatedAt         string   `json:"updated_at"`
}

func m365PoolResponse(p domain.M365Pool, usage capacity.Usage) M365PoolResponse {
	return M365PoolResponse{
		ID:                p.ID,
		LicenseType:       p.LicenseType,
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

// ListM365PoolsHandler handles GET /api/m365/pools with an optional ?q= filter
func (h *M365Pools) ListM365PoolsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pools, err := h.pools.FindAll(ctx)
	if err != nil {
		writeStoreError(w, err, "pools not found")
		return
	}
	users, err := h.users.FindAll(ctx)
	if err != nil {
		writeStoreError(w, err, "users not found")
		return
	}
	usage := capacity.ForM365Pools(pools, users, h.policy)

	q := r.URL.Query().Get("q")
	response := make([]M365PoolResponse, 0, len(pools))
	for _, p := range pools {
		if !matchQuery(q, p.LicenseType, p.Notes) {
			continue
		}
		response = append(response, m365PoolResponse(p, usage[p.ID]))
	}
	writeJSON(w, http.StatusOK, response)
}

// GetM365PoolHandler handles GET /api/m365/pools/{id}
func (h *M365Pools) GetM365PoolHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pool, err := h.pools.FindByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err, "pool not found")
		return
	}
	users, err := h.users.FindAll(ctx)
	if err != nil {
		writeStoreError(w, err, "users not found")
		return
	}
	writeJSON(w, http.StatusOK, m365PoolResponse(pool, capacity.ForM365Pool(pool, users, h.policy)))
}

// CreateM365PoolHandler handles POST /api/m365/pools
func (h *M365Pools) CreateM365PoolHandler(w http.ResponseWriter, r *http.Request) {
	var req M365PoolRequest
	if !decodeBody(w, r, &req) {
		return
	}
	pool, err := req.apply(domain.M365Pool{})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := h.pools.Save(r.Context(), pool)
	if err != nil {
		writeStoreError(w, err, "pool not found")
		return
	}
	writeJSON(w, http.StatusCreated, m365PoolResponse(saved, capacity.Usage{Assigned: 0, Available: saved.TotalLicenses}))
}

// UpdateM365PoolHandler handles PUT /api/m365/pools/{id}
func (h *M365Pools) UpdateM365PoolHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req M365PoolRequest
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
	users, err := h.users.FindAll(ctx)
	if err != nil {
		writeStoreError(w, err, "users not found")
		return
	}
	writeJSON(w, http.StatusOK, m365PoolResponse(saved, capacity.ForM365Pool(saved, users, h.policy)))
}

// DeleteM365PoolHandler handles DELETE /api/m365/pools/{id}. The pool's id
// is removed from every user's assigned licenses in the same transaction.
func (h *M365Pools) DeleteM365PoolHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.pools.DeleteByID(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, err, "pool not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
