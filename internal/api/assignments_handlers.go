package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tcardoso/licensedesk/internal/capacity"
	"github.com/tcardoso/licensedesk/internal/domain"
	"github.com/tcardoso/licensedesk/internal/repository"
)

// Assignments groups the license assignment handlers
type Assignments struct {
	assignments repository.AssignmentRepository
	pools       repository.PoolRepository
	policy      capacity.Policy
}

func NewAssignments(assignments repository.AssignmentRepository, pools repository.PoolRepository, policy capacity.Policy) *Assignments {
	return &Assignments{assignments: assignments, pools: pools, policy: policy}
}

// AssignmentRequest carries the writable assignment fields. Fields omitted
// from the body keep their base value, so updates can send a partial set.
type AssignmentRequest struct {
	Type         *string `json:"type"`
	PoolID       *string `json:"pool_id"`
	DeviceName   *string `json:"device_name"`
	ServerName   *string `json:"server_name"`
	UserEmail    *string `json:"user_email"`
	SerialNumber *string `json:"serial_number"`
	LicenseKey   *string `json:"license_key"`
	IsActive     *bool   `json:"is_active"`
	Notes        *string `json:"notes"`
}

func (req AssignmentRequest) apply(base domain.LicenseAssignment) domain.LicenseAssignment {
	if req.Type != nil {
		base.Type = domain.LicenseType(*req.Type)
	}
	if req.PoolID != nil {
		base.PoolID = *req.PoolID
	}
	if req.DeviceName != nil {
		base.DeviceName = *req.DeviceName
	}
	if req.ServerName != nil {
		base.ServerName = *req.ServerName
	}
	if req.UserEmail != nil {
		base.UserEmail = *req.UserEmail
	}
	if req.SerialNumber != nil {
		base.SerialNumber = *req.SerialNumber
	}
	if req.LicenseKey != nil {
		base.LicenseKey = *req.LicenseKey
	}
	if req.IsActive != nil {
		base.IsActive = *req.IsActive
	}
	if req.Notes != nil {
		base.Notes = *req.Notes
	}
	return base
}

type AssignmentResponse struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	PoolID       string `json:"pool_id"`
	DeviceName   string `json:"device_name"`
	ServerName   string `json:"server_name"`
	UserEmail    string `json:"user_email"`
	SerialNumber string `json:"serial_number"`
	LicenseKey   string `json:"license_key"`
	IsActive     bool   `json:"is_active"`
	Notes        string `json:"notes"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func assignmentResponse(a domain.LicenseAssignment) AssignmentResponse {
	return AssignmentResponse{
		ID:           a.ID,
		Type:         string(a.Type),
		PoolID:       a.PoolID,
		DeviceName:   a.DeviceName,
		ServerName:   a.ServerName,
		UserEmail:    a.UserEmail,
		SerialNumber: a.SerialNumber,
		LicenseKey:   a.LicenseKey,
		IsActive:     a.IsActive,
		Notes:        a.Notes,
		CreatedAt:    wireTime(a.CreatedAt),
		UpdatedAt:    wireTime(a.UpdatedAt),
	}
}

// ListAssignmentsHandler handles GET /api/assignments with optional
// ?type=, ?pool_id= and ?q= filters
func (h *Assignments) ListAssignmentsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		assignments []domain.LicenseAssignment
		err         error
	)
	switch {
	case r.URL.Query().Get("pool_id") != "":
		assignments, err = h.assignments.FindByPoolID(ctx, r.URL.Query().Get("pool_id"))
	case r.URL.Query().Get("type") != "":
		assignments, err = h.assignments.FindByType(ctx, domain.LicenseType(r.URL.Query().Get("type")))
	default:
		assignments, err = h.assignments.FindAll(ctx)
	}
	if err != nil {
		writeStoreError(w, err, "assignments not found")
		return
	}

	q := r.URL.Query().Get("q")
	response := make([]AssignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		if !matchQuery(q, a.DeviceName, a.ServerName, a.UserEmail, a.SerialNumber, a.Notes) {
			continue
		}
		response = append(response, assignmentResponse(a))
	}
	writeJSON(w, http.StatusOK, response)
}

// GetAssignmentHandler handles GET /api/assignments/{id}
func (h *Assignments) GetAssignmentHandler(w http.ResponseWriter, r *http.Request) {
	a, err := h.assignments.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err, "assignment not found")
		return
	}
	writeJSON(w, http.StatusOK, assignmentResponse(a))
}

// CreateAssignmentHandler handles POST /api/assignments. The request is
// rejected when the target pool has no seat left.
func (h *Assignments) CreateAssignmentHandler(w http.ResponseWriter, r *http.Request) {
	var req AssignmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	assignment := req.apply(domain.LicenseAssignment{})

	if !h.checkCapacity(w, r, assignment, "") {
		return
	}

	saved, err := h.assignments.Save(r.Context(), assignment)
	if err != nil {
		writeStoreError(w, err, "assignment not found")
		return
	}
	writeJSON(w, http.StatusCreated, assignmentResponse(saved))
}

// UpdateAssignmentHandler handles PUT /api/assignments/{id}. The
// assignment's own seat never counts against it, so editing without
// changing pools cannot fail the capacity check.
func (h *Assignments) UpdateAssignmentHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req AssignmentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	existing, err := h.assignments.FindByID(ctx, id)
	if err != nil {
		writeStoreError(w, err, "assignment not found")
		return
	}
	assignment := req.apply(existing)

	if !h.checkCapacity(w, r, assignment, id) {
		return
	}

	saved, err := h.assignments.Save(ctx, assignment)
	if err != nil {
		writeStoreError(w, err, "assignment not found")
		return
	}
	writeJSON(w, http.StatusOK, assignmentResponse(saved))
}

// DeleteAssignmentHandler handles DELETE /api/assignments/{id}
func (h *Assignments) DeleteAssignmentHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.assignments.DeleteByID(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, err, "assignment not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Assignments) checkCapacity(w http.ResponseWriter, r *http.Request, a domain.LicenseAssignment, excludeID string) bool {
	ctx := r.Context()

	pool, err := h.pools.FindByID(ctx, a.PoolID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "pool does not exist")
			return false
		}
		writeStoreError(w, err, "pool not found")
		return false
	}
	if pool.Type != a.Type {
		writeError(w, http.StatusBadRequest, "assignment type does not match pool type")
		return false
	}

	// An inactive assignment consumes no seat under the active-only policy
	if h.policy == capacity.CountActiveOnly && !a.IsActive {
		return true
	}

	assignments, err := h.assignments.FindByPoolID(ctx, pool.ID)
	if err != nil {
		writeStoreError(w, err, "assignments not found")
		return false
	}
	if !capacity.CanAssign(pool, assignments, h.policy, excludeID) {
		writeError(w, http.StatusBadRequest, "pool has no available licenses")
		return false
	}
	return true
}
