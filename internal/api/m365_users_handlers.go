package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tcardoso/licensedesk/internal/capacity"
	"github.com/tcardoso/licensedesk/internal/domain"
	"github.com/tcardoso/licensedesk/internal/repository"
)

// M365Users groups the Microsoft 365 user handlers
type M365Users struct {
	users  repository.M365UserRepository
	pools  repository.M365PoolRepository
	policy capacity.Policy
}

func NewM365Users(users repository.M365UserRepository, pools repository.M365PoolRepository, policy capacity.Policy) *M365Users {
	return &M365Users{users: users, pools: pools, policy: policy}
}

// M365UserRequest carries the writable user fields. Fields omitted from
// the body keep their base value, so updates can send a partial set; an
// explicit empty assigned_licenses array revokes every grant.
type M365UserRequest struct {
	Name             *string   `json:"name"`
	Email            *string   `json:"email"`
	AssignedLicenses *[]string `json:"assigned_licenses"`
	IsActive         *bool     `json:"is_active"`
}

func (req M365UserRequest) apply(base domain.M365User) domain.M365User {
	if req.Name != nil {
		base.Name = *req.Name
	}
	if req.Email != nil {
		base.Email = *req.Email
	}
	if req.AssignedLicenses != nil {
		base.AssignedLicenses = *req.AssignedLicenses
	}
	if req.IsActive != nil {
		base.IsActive = *req.IsActive
	}
	return base
}

type M365UserResponse struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Email            string   `json:"email"`
	AssignedLicenses []string `json:"assigned_licenses"`
	IsActive         bool     `json:"is_active"`
	CreatedAt        string   `json:"created_at"`
	UpdatedAt        string   `json:"updated_at"`
}

func m365UserResponse(u domain.M365User) M365UserResponse {
	licenses := u.AssignedLicenses
	if licenses == nil {
		licenses = []string{}
	}
	return M365UserResponse{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		AssignedLicenses: licenses,
		IsActive:         u.IsActive,
		CreatedAt:        wireTime(u.CreatedAt),
		UpdatedAt:        wireTime(u.UpdatedAt),
	}
}

// ListM365UsersHandler handles GET /api/m365/users with an optional ?q= filter
func (h *M365Users) ListM365UsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.FindAll(r.Context())
	if err != nil {
		writeStoreError(w, err, "users not found")
		return
	}

	q := r.URL.Query().Get("q")
	response := make([]M365UserResponse, 0, len(users))
	for _, u := range users {
		if !matchQuery(q, u.Name, u.Email) {
			continue
		}
		response = append(response, m365UserResponse(u))
	}
	writeJSON(w, http.StatusOK, response)
}

// GetM365UserHandler handles GET /api/m365/users/{id}
func (h *M365Users) GetM365UserHandler(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, m365UserResponse(u))
}

// CreateM365UserHandler handles POST /api/m365/users. Every granted license
// must come from a pool with a seat left.
func (h *M365Users) CreateM365UserHandler(w http.ResponseWriter, r *http.Request) {
	var req M365UserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user := req.apply(domain.M365User{})

	if !h.checkGrants(w, r, user, nil) {
		return
	}

	saved, err := h.users.Save(r.Context(), user)
	if err != nil {
		writeStoreError(w, err, "user not found")
		return
	}
	writeJSON(w, http.StatusCreated, m365UserResponse(saved))
}

// UpdateM365UserHandler handles PUT /api/m365/users/{id}. Only newly granted
// licenses are capacity-checked; licenses the user already holds are kept.
func (h *M365Users) UpdateM365UserHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req M365UserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	existing, err := h.users.FindByID(ctx, id)
	if err != nil {
		writeStoreError(w, err, "user not found")
		return
	}
	user := req.apply(existing)

	if !h.checkGrants(w, r, user, &existing) {
		return
	}

	saved, err := h.users.Save(ctx, user)
	if err != nil {
		writeStoreError(w, err, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, m365UserResponse(saved))
}

// DeleteM365UserHandler handles DELETE /api/m365/users/{id}. The user's
// seats return to their pools by not being counted anymore.
func (h *M365Users) DeleteM365UserHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.users.DeleteByID(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, err, "user not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// checkGrants verifies every license the request grants. Each referenced
// pool must exist, and newly granted pools must have a free seat.
func (h *M365Users) checkGrants(w http.ResponseWriter, r *http.Request, user domain.M365User, previous *domain.M365User) bool {
	ctx := r.Context()

	allUsers, err := h.users.FindAll(ctx)
	if err != nil {
		writeStoreError(w, err, "users not found")
		return false
	}

	seen := make(map[string]bool, len(user.AssignedLicenses))
	for _, poolID := range user.AssignedLicenses {
		if seen[poolID] {
			writeError(w, http.StatusBadRequest, "duplicate license grant")
			return false
		}
		seen[poolID] = true

		pool, err := h.pools.FindByID(ctx, poolID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				writeError(w, http.StatusBadRequest, "license pool does not exist")
				return false
			}
			writeStoreError(w, err, "pool not found")
			return false
		}

		held := previous != nil && previous.HoldsPool(poolID)
		if held {
			continue
		}
		// An inactive user consumes no seat under the active-only policy
		if h.policy == capacity.CountActiveOnly && !user.IsActive {
			continue
		}
		excludeID := ""
		if previous != nil {
			excludeID = previous.ID
		}
		if !capacity.CanAssignM365(pool, allUsers, h.policy, excludeID) {
			writeError(w, http.StatusBadRequest, "license pool "+pool.LicenseType+" has no available licenses")
			return false
		}
	}
	return true
}
