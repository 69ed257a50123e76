package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gestionale/internal/config"
	"gestionale/internal/crypto"
	"gestionale/internal/database"
	"gestionale/internal/models"
	"gestionale/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// apiClient drives the full router through httptest, carrying session
// cookies and the csrf token across requests like a browser would.
type apiClient struct {
	t       *testing.T
	router  *gin.Engine
	cookies []*http.Cookie
	csrf    string
}

func newTestAPI(t *testing.T) (*apiClient, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	database.SeedLookups(db)
	database.DB = db

	require.NoError(t, crypto.Init("test-field-key", "", false))

	for _, u := range []struct {
		username string
		role     models.UserRole
	}{
		{"admin", models.RoleAdmin},
		{"operator", models.RoleOperator},
		{"viewer", models.RoleViewer},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.username+"-pass"), bcrypt.MinCost)
		require.NoError(t, err)
		require.NoError(t, db.Create(&models.User{
			Username:     u.username,
			PasswordHash: string(hash),
			Role:         u.role,
			IsActive:     true,
		}).Error)
	}

	cfg := &config.Config{
		SessionSecret: "test-session-secret",
		Debug:         true,
		MediaRoot:     t.TempDir(),
	}
	return &apiClient{t: t, router: server.NewRouter(cfg)}, db
}

func (c *apiClient) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.csrf != "" {
		req.Header.Set("X-CSRF-Token", c.csrf)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)

	if set := w.Result().Cookies(); len(set) > 0 {
		c.cookies = set
	}
	return w
}

func (c *apiClient) login(username string) {
	c.t.Helper()

	w := c.do(http.MethodGet, "/api/auth/csrf", nil)
	require.Equal(c.t, http.StatusOK, w.Code)
	var out map[string]string
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &out))
	c.csrf = out["csrftoken"]

	w = c.do(http.MethodPost, "/api/auth/login", gin.H{
		"username": username,
		"password": username + "-pass",
	})
	require.Equal(c.t, http.StatusOK, w.Code, w.Body.String())
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func lookupID(t *testing.T, db *gorm.DB, model any, key string) uint {
	t.Helper()
	var ids []uint
	require.NoError(t, db.Model(model).Where("key = ?", key).Limit(1).Pluck("id", &ids).Error)
	require.Len(t, ids, 1)
	return ids[0]
}

func TestLoginFlowAndAuditTrail(t *testing.T) {
	c, db := newTestAPI(t)

	// Unauthenticated requests are rejected, not redirected.
	w := c.do(http.MethodGet, "/api/customers", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Wrong password.
	w = c.do(http.MethodGet, "/api/auth/csrf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	c.csrf = decode(t, w)["csrftoken"].(string)

	w = c.do(http.MethodPost, "/api/auth/login", gin.H{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Credenziali non valide.")

	var attempt models.AuthAttempt
	require.NoError(t, db.Where("username = ?", "admin").Order("id DESC").First(&attempt).Error)
	assert.False(t, attempt.Success)

	var failed int64
	db.Model(&models.AuditEvent{}).Where("action = ?", models.ActionLoginFailed).Count(&failed)
	assert.EqualValues(t, 1, failed)

	// Right password. The struct is reset so the stale primary key does
	// not leak into the query conditions.
	c.login("admin")

	attempt = models.AuthAttempt{}
	require.NoError(t, db.Where("username = ?", "admin").Order("id DESC").First(&attempt).Error)
	assert.True(t, attempt.Success)

	w = c.do(http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode(t, w)
	assert.Equal(t, "admin", me["username"])
	assert.Contains(t, me["permissions"], "manage_definitions")

	// Logout closes the session and is audited.
	w = c.do(http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = c.do(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var logout int64
	db.Model(&models.AuditEvent{}).Where("action = ?", models.ActionLogout).Count(&logout)
	assert.EqualValues(t, 1, logout)
}

func TestViewerIsReadOnly(t *testing.T) {
	c, db := newTestAPI(t)
	c.login("viewer")

	statusID := lookupID(t, db, &models.CustomerStatus{}, "active")

	w := c.do(http.MethodPost, "/api/customers", gin.H{"name": "ACME", "status": statusID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = c.do(http.MethodGet, "/api/customers", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Audit is admin territory.
	w = c.do(http.MethodGet, "/api/audit-events", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCustomerLifecycle(t *testing.T) {
	c, db := newTestAPI(t)
	c.login("admin")

	statusID := lookupID(t, db, &models.CustomerStatus{}, "active")

	// Missing required fields aggregate into one response.
	w := c.do(http.MethodPost, "/api/customers", gin.H{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	fields := decode(t, w)["fields"].(map[string]any)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "status")

	// Create assigns a sequential code.
	w = c.do(http.MethodPost, "/api/customers", gin.H{"name": "ACME srl", "status": statusID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	id := uint(created["id"].(float64))
	assert.Equal(t, fmt.Sprintf("C-%06d", id), created["code"])

	// Duplicate VAT surfaces as a field error, not a raw DB error.
	w = c.do(http.MethodPatch, fmt.Sprintf("/api/customers/%d", id), gin.H{"vat_number": "IT0001"})
	require.Equal(t, http.StatusOK, w.Code)
	w = c.do(http.MethodPost, "/api/customers", gin.H{"name": "Other", "status": statusID, "vat_number": "IT0001"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["fields"].(map[string]any), "vat_number")

	// Soft delete hides the row from default listings.
	w = c.do(http.MethodDelete, fmt.Sprintf("/api/customers/%d", id), nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = c.do(http.MethodGet, "/api/customers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	listed := decode(t, w)
	for _, row := range listed["results"].([]any) {
		assert.NotEqual(t, float64(id), row.(map[string]any)["id"])
	}

	w = c.do(http.MethodGet, fmt.Sprintf("/api/customers/%d", id), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = c.do(http.MethodGet, fmt.Sprintf("/api/customers/%d?include_deleted=1", id), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = c.do(http.MethodGet, "/api/customers?only_deleted=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	// Restore brings it back.
	w = c.do(http.MethodPost, fmt.Sprintf("/api/customers/%d/restore", id), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = c.do(http.MethodGet, fmt.Sprintf("/api/customers/%d", id), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// The whole lifecycle left a trail.
	for _, action := range []models.AuditAction{models.ActionCreate, models.ActionUpdate, models.ActionDelete, models.ActionRestore} {
		var n int64
		db.Model(&models.AuditEvent{}).
			Where("entity_type = ? AND action = ?", "customer", action).
			Count(&n)
		assert.NotZero(t, n, "missing %s event", action)
	}
}

func TestCustomerCustomFields(t *testing.T) {
	c, db := newTestAPI(t)
	c.login("admin")

	statusID := lookupID(t, db, &models.CustomerStatus{}, "active")

	w := c.do(http.MethodPost, "/api/custom-field-definitions", gin.H{
		"entity":     "customer",
		"key":        "citta",
		"label":      "Città",
		"field_type": "text",
		"aliases":    []string{"città", "city"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = c.do(http.MethodPost, "/api/custom-field-definitions", gin.H{
		"entity":     "customer",
		"key":        "dipendenti",
		"label":      "Dipendenti",
		"field_type": "number",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Alias spellings canonicalize on write.
	w = c.do(http.MethodPost, "/api/customers", gin.H{
		"name":          "ACME",
		"status":        statusID,
		"custom_fields": gin.H{"Città": "Milano", "dipendenti": "12,5"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	cf := created["custom_fields"].(map[string]any)
	assert.Equal(t, "Milano", cf["citta"])
	assert.Equal(t, 12.5, cf["dipendenti"])

	// The derived city column comes from the bag.
	w = c.do(http.MethodGet, "/api/customers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	results := decode(t, w)["results"].([]any)
	require.Len(t, results, 1)
	assert.Equal(t, "Milano", results[0].(map[string]any)["city"])

	// Invalid values come back under custom_fields, per field.
	id := uint(created["id"].(float64))
	w = c.do(http.MethodPatch, fmt.Sprintf("/api/customers/%d", id), gin.H{
		"custom_fields": gin.H{"dipendenti": "tanti"},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	fields := decode(t, w)["fields"].(map[string]any)
	cfErrs := fields["custom_fields"].(map[string]any)
	assert.Equal(t, "Numero non valido.", cfErrs["dipendenti"])
}

func TestInventorySecretsAtRest(t *testing.T) {
	c, db := newTestAPI(t)
	c.login("operator")

	var customer models.Customer
	customer.Name = "ACME"
	customer.StatusID = lookupID(t, db, &models.CustomerStatus{}, "active")
	require.NoError(t, db.Create(&customer).Error)

	typeID := lookupID(t, db, &models.InventoryType{}, "server")
	statusID := lookupID(t, db, &models.InventoryStatus{}, "in_service")

	w := c.do(http.MethodPost, "/api/inventories", gin.H{
		"customer": customer.ID,
		"name":     "srv01",
		"knumber":  "K-100",
		"type":     typeID,
		"status":   statusID,
		"os_pwd":   "topsecret",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := uint(decode(t, w)["id"].(float64))

	// Stored ciphertext, never plaintext.
	var stored models.Inventory
	require.NoError(t, db.First(&stored, id).Error)
	assert.True(t, strings.HasPrefix(stored.OSPwd, crypto.Prefix))
	assert.NotContains(t, stored.OSPwd, "topsecret")

	// Operator may read the decrypted secret on detail.
	w = c.do(http.MethodGet, fmt.Sprintf("/api/inventories/%d", id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "topsecret", decode(t, w)["os_pwd"])

	// List payloads never carry secrets.
	w = c.do(http.MethodGet, "/api/inventories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	row := decode(t, w)["results"].([]any)[0].(map[string]any)
	_, has := row["os_pwd"]
	assert.False(t, has)

	// Viewer gets the detail without secrets.
	v := newViewer(t, c)
	w = v.do(http.MethodGet, fmt.Sprintf("/api/inventories/%d", id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, has = decode(t, w)["os_pwd"]
	assert.False(t, has)

	// Duplicate knumber translates to a field error.
	w = c.do(http.MethodPost, "/api/inventories", gin.H{
		"customer": customer.ID,
		"name":     "srv02",
		"knumber":  "K-100",
		"type":     typeID,
		"status":   statusID,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["fields"].(map[string]any), "knumber")
}

// newViewer opens a second session against the same router and database.
func newViewer(t *testing.T, base *apiClient) *apiClient {
	t.Helper()
	v := &apiClient{t: t, router: base.router}
	v.login("viewer")
	return v
}

func TestComputeDueDateEndpoint(t *testing.T) {
	c, _ := newTestAPI(t)
	c.login("viewer")

	w := c.do(http.MethodGet, "/api/maintenance-plans/compute-due-date?schedule_type=interval&interval_value=6&interval_unit=months&year=2025", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2025-06-30", decode(t, w)["next_due_date"])

	w = c.do(http.MethodGet, "/api/maintenance-plans/compute-due-date?schedule_type=fixed_date&fixed_month=2&fixed_day=30&year=2025", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.do(http.MethodGet, "/api/maintenance-plans/compute-due-date?schedule_type=interval", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMaintenanceEventAdvancesPlan(t *testing.T) {
	c, db := newTestAPI(t)
	c.login("operator")

	var customer models.Customer
	customer.Name = "ACME"
	customer.StatusID = lookupID(t, db, &models.CustomerStatus{}, "active")
	require.NoError(t, db.Create(&customer).Error)

	typeID := lookupID(t, db, &models.InventoryType{}, "server")
	invStatusID := lookupID(t, db, &models.InventoryStatus{}, "in_service")

	var inv models.Inventory
	inv.CustomerID = customer.ID
	inv.Name = "srv01"
	inv.TypeID = typeID
	inv.StatusID = invStatusID
	require.NoError(t, db.Create(&inv).Error)

	var tech models.Tech
	tech.FirstName = "Mario"
	tech.LastName = "Bianchi"
	tech.Email = "mario@example.com"
	tech.IsActive = true
	require.NoError(t, db.Create(&tech).Error)

	w := c.do(http.MethodPost, "/api/maintenance-plans", gin.H{
		"customer":        customer.ID,
		"title":           "Annuale",
		"schedule_type":   "interval",
		"interval_unit":   "years",
		"interval_value":  1,
		"next_due_date":   "2025-12-31",
		"inventory_types": []uint{typeID},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	plan := decode(t, w)
	planID := uint(plan["id"].(float64))
	assert.EqualValues(t, 1, plan["covered_count"])

	w = c.do(http.MethodPost, "/api/maintenance-events", gin.H{
		"plan":         planID,
		"inventory":    inv.ID,
		"performed_at": "2025-06-15",
		"result":       "ok",
		"tech":         tech.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var stored models.MaintenancePlan
	require.NoError(t, db.First(&stored, planID).Error)
	assert.Equal(t, "2026-12-31", stored.NextDueDate.Format("2006-01-02"))

	// The advancement is audited with the due date it replaced.
	var advanced models.AuditEvent
	require.NoError(t, db.
		Where("entity_type = ? AND action = ?", "maintenance_plan", models.ActionUpdate).
		Order("id DESC").First(&advanced).Error)
	change := advanced.Changes["next_due_date"].(map[string]any)
	assert.Equal(t, "2025-12-31", change["from"])
	assert.Equal(t, "2026-12-31", change["to"])

	// A backdated follow-up never pulls the due date backwards.
	w = c.do(http.MethodPost, "/api/maintenance-events", gin.H{
		"plan":         planID,
		"inventory":    inv.ID,
		"performed_at": "2023-06-15",
		"result":       "ok",
		"tech":         tech.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.NoError(t, db.First(&stored, planID).Error)
	assert.Equal(t, "2026-12-31", stored.NextDueDate.Format("2006-01-02"))

	// The list reports the most recent visit.
	w = c.do(http.MethodGet, "/api/maintenance-plans", nil)
	require.Equal(t, http.StatusOK, w.Code)
	row := decode(t, w)["results"].([]any)[0].(map[string]any)
	assert.Equal(t, "2025-06-15", row["last_done_date"])
}

func TestBulkRestore(t *testing.T) {
	c, db := newTestAPI(t)
	c.login("admin")

	statusID := lookupID(t, db, &models.CustomerStatus{}, "active")

	var ids []uint
	for _, name := range []string{"Uno", "Due", "Tre"} {
		w := c.do(http.MethodPost, "/api/customers", gin.H{"name": name, "status": statusID})
		require.Equal(t, http.StatusCreated, w.Code)
		ids = append(ids, uint(decode(t, w)["id"].(float64)))
	}

	// Delete two of three; bulk restore names all three, touches two.
	for _, id := range ids[:2] {
		w := c.do(http.MethodDelete, fmt.Sprintf("/api/customers/%d", id), nil)
		require.Equal(t, http.StatusNoContent, w.Code)
	}

	w := c.do(http.MethodPost, "/api/customers/bulk-restore", gin.H{"ids": ids})
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.EqualValues(t, 2, out["count"])

	w = c.do(http.MethodGet, "/api/customers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, decode(t, w)["count"])

	w = c.do(http.MethodPost, "/api/customers/bulk-restore", gin.H{"ids": []uint{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
