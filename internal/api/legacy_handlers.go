package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tcardoso/licensedesk/internal/domain"
	"github.com/tcardoso/licensedesk/internal/repository"
)

// LegacyLicenses groups the standalone license handlers
type LegacyLicenses struct {
	licenses repository.LegacyLicenseRepository
}

func NewLegacyLicenses(licenses repository.LegacyLicenseRepository) *LegacyLicenses {
	return &LegacyLicenses{licenses: licenses}
}

// LegacyLicenseRequest is the flat wire shape of a standalone license.
// Only the fields of the named type are read; the rest are ignored.
// Fields omitted from the body keep their base value, so updates can send
// a partial set; changing the type starts from an empty detail payload.
type LegacyLicenseRequest struct {
	Name           *string  `json:"name"`
	Type           *string  `json:"type"`
	IsActive       *bool    `json:"is_active"`
	ExpirationDate *string  `json:"expiration_date"`
	Cost           *float64 `json:"cost"`
	Notes          *string  `json:"notes"`

	// microsoft365
	PlanType     *string `json:"plan_type,omitempty"`
	AssignedUser *string `json:"assigned_user,omitempty"`
	UserEmail    *string `json:"user_email,omitempty"`

	// sophos
	ProductType  *string `json:"product_type,omitempty"`
	DeviceCount  *int    `json:"device_count,omitempty"`
	SerialNumber *string `json:"serial_number,omitempty"`

	// server and windows
	ProductName *string `json:"product_name,omitempty"`
	Version     *string `json:"version,omitempty"`
	ServerName  *string `json:"server_name,omitempty"`
	LicenseKey  *string `json:"license_key,omitempty"`
	WindowsType *string `json:"windows_type,omitempty"`
	DeviceName  *string `json:"device_name,omitempty"`
}

type LegacyLicenseResponse struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Type                string   `json:"type"`
	IsActive            bool     `json:"is_active"`
	ExpirationDate      *string  `json:"expiration_date"`
	DaysUntilExpiration *int     `json:"days_until_expiration"`
	Cost                *float64 `json:"cost"`
	Notes               string   `json:"notes"`

	PlanType     string `json:"plan_type,omitempty"`
	AssignedUser string `json:"assigned_user,omitempty"`
	UserEmail    string `json:"user_email,omitempty"`

	ProductType  string `json:"product_type,omitempty"`
	DeviceCount  int    `json:"device_count,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`

	ProductName string `json:"product_name,omitempty"`
	Version     string `json:"version,omitempty"`
	ServerName  string `json:"server_name,omitempty"`
	LicenseKey  string `json:"license_key,omitempty"`
	WindowsType string `json:"windows_type,omitempty"`
	DeviceName  string `json:"device_name,omitempty"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func legacyLicenseResponse(l domain.LegacyLicense, now time.Time) LegacyLicenseResponse {
	resp := LegacyLicenseResponse{
		ID:             l.ID,
		Name:           l.Name,
		Type:           string(l.Type()),
		IsActive:       l.IsActive,
		ExpirationDate: wireDate(l.ExpirationDate),
		Cost:           l.Cost,
		Notes:          l.Notes,
		CreatedAt:      wireTime(l.CreatedAt),
		UpdatedAt:      wireTime(l.UpdatedAt),
	}
	if l.ExpirationDate != nil {
		days := domain.DaysUntil(*l.ExpirationDate, now)
		resp.DaysUntilExpiration = &days
	}

	switch det := l.Details.(type) {
	case domain.M365Details:
		resp.PlanType = det.PlanType
		resp.AssignedUser = det.AssignedUser
		resp.UserEmail = det.UserEmail
	case domain.SophosDetails:
		resp.ProductType = det.ProductType
		resp.DeviceCount = det.DeviceCount
		resp.SerialNumber = det.SerialNumber
	case domain.ServerDetails:
		resp.ProductName = det.ProductName
		resp.Version = det.Version
		resp.ServerName = det.ServerName
		resp.LicenseKey = det.LicenseKey
	case domain.WindowsDetails:
		resp.WindowsType = det.WindowsType
		resp.Version = det.Version
		resp.DeviceName = det.DeviceName
		resp.LicenseKey = det.LicenseKey
	}
	return resp
}

// apply overlays the request onto base. The detail fields merge into the
// base payload when the type stays the same and into an empty payload of
// the new type when it changes.
func (req LegacyLicenseRequest) apply(base domain.LegacyLicense) (domain.LegacyLicense, error) {
	if req.Name != nil {
		base.Name = *req.Name
	}
	if req.IsActive != nil {
		base.IsActive = *req.IsActive
	}
	if req.ExpirationDate != nil {
		exp, err := parseWireDate(req.ExpirationDate)
		if err != nil {
			return domain.LegacyLicense{}, err
		}
		base.ExpirationDate = exp
	}
	if req.Cost != nil {
		base.Cost = req.Cost
	}
	if req.Notes != nil {
		base.Notes = *req.Notes
	}

	t := base.Type()
	if req.Type != nil {
		t = domain.LicenseType(*req.Type)
	}

	switch t {
	case domain.TypeMicrosoft365:
		det, _ := base.Details.(domain.M365Details)
		if req.PlanType != nil {
			det.PlanType = *req.PlanType
		}
		if req.AssignedUser != nil {
			det.AssignedUser = *req.AssignedUser
		}
		if req.UserEmail != nil {
			det.UserEmail = *req.UserEmail
		}
		base.Details = det
	case domain.TypeSophos:
		det, _ := base.Details.(domain.SophosDetails)
		if req.ProductType != nil {
			det.ProductType = *req.ProductType
		}
		if req.DeviceCount != nil {
			det.DeviceCount = *req.DeviceCount
		}
		if req.SerialNumber != nil {
			det.SerialNumber = *req.SerialNumber
		}
		base.Details = det
	case domain.TypeServer:
		det, _ := base.Details.(domain.ServerDetails)
		if req.ProductName != nil {
			det.ProductName = *req.ProductName
		}
		if req.Version != nil {
			det.Version = *req.Version
		}
		if req.ServerName != nil {
			det.ServerName = *req.ServerName
		}
		if req.LicenseKey != nil {
			det.LicenseKey = *req.LicenseKey
		}
		base.Details = det
	case domain.TypeWindows:
		det, _ := base.Details.(domain.WindowsDetails)
		if req.WindowsType != nil {
			det.WindowsType = *req.WindowsType
		}
		if req.Version != nil {
			det.Version = *req.Version
		}
		if req.DeviceName != nil {
			det.DeviceName = *req.DeviceName
		}
		if req.LicenseKey != nil {
			det.LicenseKey = *req.LicenseKey
		}
		base.Details = det
	default:
		return domain.LegacyLicense{}, errors.New("invalid license type")
	}

	return base, nil
}

// ListLegacyLicensesHandler handles GET /api/licenses with optional
// ?type= and ?q= filters
func (h *LegacyLicenses) ListLegacyLicensesHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		licenses []domain.LegacyLicense
		err      error
	)
	if typeFilter := r.URL.Query().Get("type"); typeFilter != "" {
		licenses, err = h.licenses.FindByType(ctx, domain.LicenseType(typeFilter))
	} else {
		licenses, err = h.licenses.FindAll(ctx)
	}
	if err != nil {
		writeStoreError(w, err, "licenses not found")
		return
	}

	now := time.Now()
	q := r.URL.Query().Get("q")
	response := make([]LegacyLicenseResponse, 0, len(licenses))
	for _, l := range licenses {
		if !matchQuery(q, l.Name, l.Notes) {
			continue
		}
		response = append(response, legacyLicenseResponse(l, now))
	}
	writeJSON(w, http.StatusOK, response)
}

// GetLegacyLicenseHandler handles GET /api/licenses/{id}
func (h *LegacyLicenses) GetLegacyLicenseHandler(w http.ResponseWriter, r *http.Request) {
	l, err := h.licenses.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err, "license not found")
		return
	}
	writeJSON(w, http.StatusOK, legacyLicenseResponse(l, time.Now()))
}

// CreateLegacyLicenseHandler handles POST /api/licenses
func (h *LegacyLicenses) CreateLegacyLicenseHandler(w http.ResponseWriter, r *http.Request) {
	var req LegacyLicenseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	license, err := req.apply(domain.LegacyLicense{})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := h.licenses.Save(r.Context(), license)
	if err != nil {
		writeStoreError(w, err, "license not found")
		return
	}
	writeJSON(w, http.StatusCreated, legacyLicenseResponse(saved, time.Now()))
}

// UpdateLegacyLicenseHandler handles PUT /api/licenses/{id}
func (h *LegacyLicenses) UpdateLegacyLicenseHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LegacyLicenseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	existing, err := h.licenses.FindByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err, "license not found")
		return
	}
	license, err := req.apply(existing)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := h.licenses.Save(ctx, license)
	if err != nil {
		writeStoreError(w, err, "license not found")
		return
	}
	writeJSON(w, http.StatusOK, legacyLicenseResponse(saved, time.Now()))
}

// DeleteLegacyLicenseHandler handles DELETE /api/licenses/{id}
func (h *LegacyLicenses) DeleteLegacyLicenseHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.licenses.DeleteByID(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, err, "license not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
