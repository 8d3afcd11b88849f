package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/tcardoso/licensedesk/internal/auth"
	"github.com/tcardoso/licensedesk/internal/testutil"
)

func newTestRouter(t *testing.T, testName string) chi.Router {
	t.Helper()
	db := testutil.SetupTestDBWithMigrations(t, testName)
	r := chi.NewRouter()
	NewAPI(db, Options{}).RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, router chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeInto(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}

func TestPoolLifecycle(t *testing.T) {
	router := newTestRouter(t, "TestPoolLifecycle")

	// Create
	w := doJSON(t, router, http.MethodPost, "/api/pools", map[string]any{
		"type": "sophos", "name": "Sophos Central", "total_licenses": 2,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var pool PoolResponse
	decodeInto(t, w, &pool)
	if pool.AssignedLicenses != 0 || pool.AvailableLicenses != 2 {
		t.Errorf("expected fresh pool 0/2, got %d/%d", pool.AssignedLicenses, pool.AvailableLicenses)
	}

	// Assign a seat
	w = doJSON(t, router, http.MethodPost, "/api/assignments", map[string]any{
		"type": "sophos", "pool_id": pool.ID, "device_name": "laptop-01", "is_active": true,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	// The pool reflects the seat on read
	w = doJSON(t, router, http.MethodGet, "/api/pools/"+pool.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	decodeInto(t, w, &pool)
	if pool.AssignedLicenses != 1 || pool.AvailableLicenses != 1 {
		t.Errorf("expected 1/1 after assignment, got %d/%d", pool.AssignedLicenses, pool.AvailableLicenses)
	}

	// Update
	w = doJSON(t, router, http.MethodPut, "/api/pools/"+pool.ID, map[string]any{
		"name": "Sophos Central 2025", "total_licenses": 5,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	decodeInto(t, w, &pool)
	if pool.Name != "Sophos Central 2025" || pool.AvailableLicenses != 4 {
		t.Errorf("unexpected pool after update: %+v", pool)
	}

	// Delete removes the pool and its assignments
	w = doJSON(t, router, http.MethodDelete, "/api/pools/"+pool.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	w = doJSON(t, router, http.MethodGet, "/api/assignments?pool_id="+pool.ID, nil)
	var assignments []AssignmentResponse
	decodeInto(t, w, &assignments)
	if len(assignments) != 0 {
		t.Errorf("expected no assignments after pool delete, got %d", len(assignments))
	}
}

func TestPoolPartialUpdate(t *testing.T) {
	router := newTestRouter(t, "TestPoolPartialUpdate")

	w := doJSON(t, router, http.MethodPost, "/api/pools", map[string]any{
		"type": "sophos", "name": "Sophos Central", "total_licenses": 10,
		"cost": 12.5, "expiration_date": "2026-12-31", "notes": "renewal Q4",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var pool PoolResponse
	decodeInto(t, w, &pool)

	// Updating one field leaves every other field untouched
	w = doJSON(t, router, http.MethodPut, "/api/pools/"+pool.ID, map[string]any{
		"name": "Sophos Central 2027",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	decodeInto(t, w, &pool)
	if pool.Name != "Sophos Central 2027" {
		t.Errorf("expected renamed pool, got %q", pool.Name)
	}
	if pool.Type != "sophos" || pool.TotalLicenses != 10 || pool.Notes != "renewal Q4" {
		t.Errorf("expected untouched fields to survive, got %+v", pool)
	}
	if pool.Cost == nil || *pool.Cost != 12.5 {
		t.Errorf("expected cost to survive, got %v", pool.Cost)
	}
	if pool.ExpirationDate == nil || *pool.ExpirationDate != "2026-12-31" {
		t.Errorf("expected expiration date to survive, got %v", pool.ExpirationDate)
	}

	// An empty expiration_date clears the date, nothing else
	w = doJSON(t, router, http.MethodPut, "/api/pools/"+pool.ID, map[string]any{
		"expiration_date": "",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	decodeInto(t, w, &pool)
	if pool.ExpirationDate != nil {
		t.Errorf("expected cleared expiration date, got %v", *pool.ExpirationDate)
	}
	if pool.Cost == nil || *pool.Cost != 12.5 {
		t.Errorf("expected cost to survive the clear, got %v", pool.Cost)
	}
}

func TestCreatePool_Invalid(t *testing.T) {
	router := newTestRouter(t, "TestCreatePool_Invalid")

	tests := []struct {
		name string
		req  map[string]any
	}{
		{"missing name", map[string]any{"type": "sophos", "total_licenses": 1}},
		{"bad type", map[string]any{"type": "microsoft365", "name": "x", "total_licenses": 1}},
		{"negative capacity", map[string]any{"type": "server", "name": "x", "total_licenses": -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/api/pools", tt.req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}

	// Malformed body
	req := httptest.NewRequest(http.MethodPost, "/api/pools", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed JSON, got %d", w.Code)
	}

	// Bad expiration date format
	w2 := doJSON(t, router, http.MethodPost, "/api/pools", map[string]any{
		"type": "sophos", "name": "x", "total_licenses": 1, "expiration_date": "01.02.2025",
	})
	if w2.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad date, got %d", w2.Code)
	}
}

func TestAssignmentCapacity(t *testing.T) {
	router := newTestRouter(t, "TestAssignmentCapacity")

	var pool PoolResponse
	w := doJSON(t, router, http.MethodPost, "/api/pools", map[string]any{
		"type": "windows", "name": "Windows Pro", "total_licenses": 1,
	})
	decodeInto(t, w, &pool)

	// First seat fits
	w = doJSON(t, router, http.MethodPost, "/api/assignments", map[string]any{
		"type": "windows", "pool_id": pool.ID, "device_name": "ws-01", "is_active": true,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var first AssignmentResponse
	decodeInto(t, w, &first)

	// Second active seat does not
	w = doJSON(t, router, http.MethodPost, "/api/assignments", map[string]any{
		"type": "windows", "pool_id": pool.ID, "device_name": "ws-02", "is_active": true,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for full pool, got %d: %s", w.Code, w.Body.String())
	}

	// An inactive assignment does not consume a seat under active-only counting
	w = doJSON(t, router, http.MethodPost, "/api/assignments", map[string]any{
		"type": "windows", "pool_id": pool.ID, "device_name": "ws-03", "is_active": false,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 for inactive assignment, got %d: %s", w.Code, w.Body.String())
	}

	// Editing the seat holder never trips the capacity check
	w = doJSON(t, router, http.MethodPut, "/api/assignments/"+first.ID, map[string]any{
		"device_name": "ws-01-renamed",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for self edit, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAssignmentPartialUpdate(t *testing.T) {
	router := newTestRouter(t, "TestAssignmentPartialUpdate")

	var pool PoolResponse
	w := doJSON(t, router, http.MethodPost, "/api/pools", map[string]any{
		"type": "sophos", "name": "Sophos Central", "total_licenses": 5,
	})
	decodeInto(t, w, &pool)

	var a AssignmentResponse
	w = doJSON(t, router, http.MethodPost, "/api/assignments", map[string]any{
		"type": "sophos", "pool_id": pool.ID, "device_name": "laptop-01",
		"user_email": "alex@example.com", "is_active": true,
	})
	decodeInto(t, w, &a)

	// Deactivating the seat keeps everything else
	w = doJSON(t, router, http.MethodPut, "/api/assignments/"+a.ID, map[string]any{
		"is_active": false,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	decodeInto(t, w, &a)
	if a.IsActive {
		t.Error("expected assignment to be inactive")
	}
	if a.PoolID != pool.ID || a.DeviceName != "laptop-01" || a.UserEmail != "alex@example.com" {
		t.Errorf("expected untouched fields to survive, got %+v", a)
	}
}

func TestAssignmentValidation(t *testing.T) {
	router := newTestRouter(t, "TestAssignmentValidation")

	var pool PoolResponse
	w := doJSON(t, router, http.MethodPost, "/api/pools", map[string]any{
		"type": "server", "name": "SQL Server", "total_licenses": 5,
	})
	decodeInto(t, w, &pool)

	// Unknown pool
	w = doJSON(t, router, http.MethodPost, "/api/assignments", map[string]any{
		"type": "server", "pool_id": "missing", "server_name": "db-01", "is_active": true,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown pool, got %d", w.Code)
	}

	// Type mismatch
	w = doJSON(t, router, http.MethodPost, "/api/assignments", map[string]any{
		"type": "windows", "pool_id": pool.ID, "device_name": "ws-01", "is_active": true,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for type mismatch, got %d", w.Code)
	}

	// Server assignment requires server_name, not device_name
	w = doJSON(t, router, http.MethodPost, "/api/assignments", map[string]any{
		"type": "server", "pool_id": pool.ID, "device_name": "ws-01", "is_active": true,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for device name on server assignment, got %d", w.Code)
	}
}

func TestM365Lifecycle(t *testing.T) {
	router := newTestRouter(t, "TestM365Lifecycle")

	var exchange, teams M365PoolResponse
	w := doJSON(t, router, http.MethodPost, "/api/m365/pools", map[string]any{
		"license_type": "Exchange Online (Plan 1)", "total_licenses": 1,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	decodeInto(t, w, &exchange)
	w = doJSON(t, router, http.MethodPost, "/api/m365/pools", map[string]any{
		"license_type": "Teams Essentials", "total_licenses": 5,
	})
	decodeInto(t, w, &teams)

	// Grant both licenses to one user
	w = doJSON(t, router, http.MethodPost, "/api/m365/users", map[string]any{
		"name": "Alex Fischer", "email": "alex@example.com",
		"assigned_licenses": []string{exchange.ID, teams.ID}, "is_active": true,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var alex M365UserResponse
	decodeInto(t, w, &alex)

	// Exchange is full now
	w = doJSON(t, router, http.MethodPost, "/api/m365/users", map[string]any{
		"name": "Robin Weber", "email": "robin@example.com",
		"assigned_licenses": []string{exchange.ID}, "is_active": true,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for full pool, got %d: %s", w.Code, w.Body.String())
	}

	// Duplicate email conflicts
	w = doJSON(t, router, http.MethodPost, "/api/m365/users", map[string]any{
		"name": "Other Alex", "email": "alex@example.com", "is_active": true,
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d: %s", w.Code, w.Body.String())
	}

	// Pool usage is derived from the users
	w = doJSON(t, router, http.MethodGet, "/api/m365/pools/"+exchange.ID, nil)
	decodeInto(t, w, &exchange)
	if exchange.AssignedLicenses != 1 || exchange.AvailableLicenses != 0 {
		t.Errorf("expected exchange 1/0, got %d/%d", exchange.AssignedLicenses, exchange.AvailableLicenses)
	}

	// Deleting the pool strips it from the user
	w = doJSON(t, router, http.MethodDelete, "/api/m365/pools/"+exchange.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	w = doJSON(t, router, http.MethodGet, "/api/m365/users/"+alex.ID, nil)
	decodeInto(t, w, &alex)
	if len(alex.AssignedLicenses) != 1 || alex.AssignedLicenses[0] != teams.ID {
		t.Errorf("expected only teams license to remain, got %v", alex.AssignedLicenses)
	}
}

func TestM365UserUpdateKeepsHeldSeat(t *testing.T) {
	router := newTestRouter(t, "TestM365UserUpdateKeepsHeldSeat")

	var pool M365PoolResponse
	w := doJSON(t, router, http.MethodPost, "/api/m365/pools", map[string]any{
		"license_type": "Business Standard", "total_licenses": 1,
	})
	decodeInto(t, w, &pool)

	var user M365UserResponse
	w = doJSON(t, router, http.MethodPost, "/api/m365/users", map[string]any{
		"name": "Alex Fischer", "email": "alex@example.com",
		"assigned_licenses": []string{pool.ID}, "is_active": true,
	})
	decodeInto(t, w, &user)

	// Renaming the seat holder of a full pool must succeed
	w = doJSON(t, router, http.MethodPut, "/api/m365/users/"+user.ID, map[string]any{
		"name": "Alexandra Fischer",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	decodeInto(t, w, &user)
	if user.Name != "Alexandra Fischer" || user.Email != "alex@example.com" {
		t.Errorf("expected rename only, got %+v", user)
	}
	if len(user.AssignedLicenses) != 1 || user.AssignedLicenses[0] != pool.ID {
		t.Errorf("expected held seat to survive the rename, got %v", user.AssignedLicenses)
	}
}

func TestM365PoolPartialUpdate(t *testing.T) {
	router := newTestRouter(t, "TestM365PoolPartialUpdate")

	var pool M365PoolResponse
	w := doJSON(t, router, http.MethodPost, "/api/m365/pools", map[string]any{
		"license_type": "Business Standard", "total_licenses": 25,
		"cost": 12.5, "expiration_date": "2026-12-31",
	})
	decodeInto(t, w, &pool)

	w = doJSON(t, router, http.MethodPut, "/api/m365/pools/"+pool.ID, map[string]any{
		"total_licenses": 30,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	decodeInto(t, w, &pool)
	if pool.TotalLicenses != 30 || pool.LicenseType != "Business Standard" {
		t.Errorf("expected only capacity to change, got %+v", pool)
	}
	if pool.Cost == nil || *pool.Cost != 12.5 {
		t.Errorf("expected cost to survive, got %v", pool.Cost)
	}
	if pool.ExpirationDate == nil || *pool.ExpirationDate != "2026-12-31" {
		t.Errorf("expected expiration date to survive, got %v", pool.ExpirationDate)
	}
}

func TestLegacyLicenseEndpoints(t *testing.T) {
	router := newTestRouter(t, "TestLegacyLicenseEndpoints")

	w := doJSON(t, router, http.MethodPost, "/api/licenses", map[string]any{
		"name": "Windows 11 Pro", "type": "windows", "is_active": true,
		"windows_type": "Client", "device_name": "ws-17", "license_key": "AAAAA-BBBBB",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var license LegacyLicenseResponse
	decodeInto(t, w, &license)
	if license.Type != "windows" || license.DeviceName != "ws-17" {
		t.Errorf("unexpected license response: %+v", license)
	}

	_ = doJSON(t, router, http.MethodPost, "/api/licenses", map[string]any{
		"name": "Sophos Firewall", "type": "sophos", "is_active": true,
		"product_type": "Firewall", "device_count": 2,
	})

	// Filter by type
	w = doJSON(t, router, http.MethodGet, "/api/licenses?type=sophos", nil)
	var list []LegacyLicenseResponse
	decodeInto(t, w, &list)
	if len(list) != 1 || list[0].Type != "sophos" {
		t.Errorf("expected one sophos license, got %+v", list)
	}

	// Search by name
	w = doJSON(t, router, http.MethodGet, "/api/licenses?q=windows+11", nil)
	decodeInto(t, w, &list)
	if len(list) != 1 || list[0].Name != "Windows 11 Pro" {
		t.Errorf("expected search to find the windows license, got %+v", list)
	}

	// Unknown type is rejected
	w = doJSON(t, router, http.MethodPost, "/api/licenses", map[string]any{
		"name": "???", "type": "printer", "is_active": true,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown type, got %d", w.Code)
	}
}

func TestLegacyLicensePartialUpdate(t *testing.T) {
	router := newTestRouter(t, "TestLegacyLicensePartialUpdate")

	var license LegacyLicenseResponse
	w := doJSON(t, router, http.MethodPost, "/api/licenses", map[string]any{
		"name": "Windows Server 2022", "type": "windows", "is_active": true,
		"windows_type": "Server", "version": "2022", "device_name": "ws-17",
		"license_key": "AAAAA-BBBBB", "cost": 950.0,
	})
	decodeInto(t, w, &license)

	// Changing one detail field keeps the rest of the payload
	w = doJSON(t, router, http.MethodPut, "/api/licenses/"+license.ID, map[string]any{
		"device_name": "ws-42",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	decodeInto(t, w, &license)
	if license.DeviceName != "ws-42" {
		t.Errorf("expected updated device name, got %q", license.DeviceName)
	}
	if license.Type != "windows" || license.WindowsType != "Server" ||
		license.Version != "2022" || license.LicenseKey != "AAAAA-BBBBB" {
		t.Errorf("expected untouched payload fields to survive, got %+v", license)
	}
	if license.Cost == nil || *license.Cost != 950.0 {
		t.Errorf("expected cost to survive, got %v", license.Cost)
	}

	// Changing the type starts over with the new payload
	w = doJSON(t, router, http.MethodPut, "/api/licenses/"+license.ID, map[string]any{
		"type": "sophos", "product_type": "Central", "device_count": 3,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	license = LegacyLicenseResponse{}
	decodeInto(t, w, &license)
	if license.Type != "sophos" || license.ProductType != "Central" || license.DeviceCount != 3 {
		t.Errorf("expected sophos payload, got %+v", license)
	}
	if license.DeviceName != "" || license.WindowsType != "" {
		t.Errorf("expected the old payload to be gone, got %+v", license)
	}
}

func TestStatsEndpoints(t *testing.T) {
	router := newTestRouter(t, "TestStatsEndpoints")

	var pool M365PoolResponse
	w := doJSON(t, router, http.MethodPost, "/api/m365/pools", map[string]any{
		"license_type": "Business Basic", "total_licenses": 5, "cost": 10.0,
	})
	decodeInto(t, w, &pool)
	_ = doJSON(t, router, http.MethodPost, "/api/m365/users", map[string]any{
		"name": "Alex Fischer", "email": "alex@example.com",
		"assigned_licenses": []string{pool.ID}, "is_active": true,
	})

	w = doJSON(t, router, http.MethodGet, "/api/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var summary map[string]CategoryStatsResponse
	decodeInto(t, w, &summary)
	m365 := summary["microsoft365"]
	if m365.Total != 5 || m365.Active != 1 {
		t.Errorf("expected microsoft365 total 5 active 1, got %+v", m365)
	}

	w = doJSON(t, router, http.MethodGet, "/api/stats/costs?group_by=value", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var entries []map[string]any
	decodeInto(t, w, &entries)
	if len(entries) != 1 {
		t.Errorf("expected one cost entry, got %d", len(entries))
	}

	w = doJSON(t, router, http.MethodGet, "/api/stats/costs?group_by=weekday", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad group_by, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/api/stats/expiring", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Body.String() == "" {
		t.Error("expected a JSON body from the expiring endpoint")
	}

	w = doJSON(t, router, http.MethodGet, "/api/stats/expiring?limit=0", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-positive limit, got %d", w.Code)
	}
}

func TestAuthGuardsInventoryRoutes(t *testing.T) {
	db := testutil.SetupTestDBWithMigrations(t, "TestAuthGuardsInventoryRoutes")

	service, err := auth.NewService(auth.NewAccountStore(db), "test-secret")
	if err != nil {
		t.Fatalf("failed to build auth service: %v", err)
	}
	if _, err := service.Register(context.Background(), "admin@example.com", "Admin", "s3cret"); err != nil {
		t.Fatalf("failed to register account: %v", err)
	}

	router := chi.NewRouter()
	NewAPI(db, Options{AuthService: service}).RegisterRoutes(router)

	// Unauthenticated requests are rejected
	w := doJSON(t, router, http.MethodGet, "/api/pools", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	// Wrong password is rejected
	w = doJSON(t, router, http.MethodPost, "/api/auth/login", LoginRequest{
		Email: "admin@example.com", Password: "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad login, got %d", w.Code)
	}

	// Login and retry with the token
	w = doJSON(t, router, http.MethodPost, "/api/auth/login", LoginRequest{
		Email: "admin@example.com", Password: "s3cret",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var login LoginResponse
	decodeInto(t, w, &login)
	if login.Account.Email != "admin@example.com" {
		t.Errorf("unexpected login account: %+v", login.Account)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/pools", nil)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", login.Token))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d: %s", rec.Code, rec.Body.String())
	}
}
