package handlers

import (
	"net/http"
	"strings"

	"gestionale/internal/audit"
	"gestionale/internal/database"
	"gestionale/internal/middleware"
	"gestionale/internal/models"

	"github.com/gin-gonic/gin"
)

var techOrdering = map[string]string{
	"first_name": "first_name",
	"last_name":  "last_name",
	"email":      "email",
	"created_at": "created_at",
}

type techRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Notes     *string `json:"notes"`
	IsActive  *bool   `json:"is_active"`
}

func (r techRequest) apply(t *models.Tech) {
	if r.FirstName != nil {
		t.FirstName = strings.TrimSpace(*r.FirstName)
	}
	if r.LastName != nil {
		t.LastName = strings.TrimSpace(*r.LastName)
	}
	if r.Email != nil {
		t.Email = strings.TrimSpace(*r.Email)
	}
	if r.Phone != nil {
		t.Phone = strings.TrimSpace(*r.Phone)
	}
	if r.Notes != nil {
		t.Notes = *r.Notes
	}
	if r.IsActive != nil {
		t.IsActive = *r.IsActive
	}
}

func techAuditView(t *models.Tech) map[string]any {
	if t == nil {
		return map[string]any{}
	}
	return map[string]any{
		"first_name": t.FirstName,
		"last_name":  t.LastName,
		"email":      t.Email,
		"phone":      t.Phone,
		"notes":      t.Notes,
		"is_active":  t.IsActive,
	}
}

func validateTech(t *models.Tech, fieldErrors map[string]any) {
	if t.FirstName == "" {
		fieldErrors["first_name"] = "Campo obbligatorio."
	}
	if t.LastName == "" {
		fieldErrors["last_name"] = "Campo obbligatorio."
	}
	if t.Email == "" {
		fieldErrors["email"] = "Campo obbligatorio."
	}
}

func ListTechs(c *gin.Context) {
	p := getListParams(c)

	q := database.WithDeletedFilters(database.DB.Model(&models.Tech{}), p.IncludeDeleted, p.OnlyDeleted, false)
	if active := c.Query("is_active"); active != "" {
		q = q.Where("is_active = ?", database.IsTruthy(active))
	}
	q = applySearch(q, p.Search, "first_name", "last_name", "email", "phone")
	q = applyOrdering(q, p.Ordering, techOrdering, "last_name, first_name")

	var rows []models.Tech
	count, err := paginate(q, p, &rows)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listEnvelope(count, rows))
}

func GetTech(c *gin.Context) {
	obj, ok := getEntity[models.Tech](c, false)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, obj)
}

func CreateTech(c *gin.Context) {
	var req techRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, map[string]any{"detail": "Payload non valido."})
		return
	}

	obj := models.Tech{IsActive: true}
	req.apply(&obj)

	fieldErrors := map[string]any{}
	validateTech(&obj, fieldErrors)
	if len(fieldErrors) > 0 {
		failValidation(c, fieldErrors)
		return
	}

	if err := database.DB.Create(&obj).Error; err != nil {
		fail(c, err)
		return
	}

	audit.LogEvent(database.DB, audit.Entry{
		Actor:   middleware.CurrentUser(c),
		Action:  models.ActionCreate,
		Target:  &obj,
		Changes: audit.BuildChanges(map[string]any{}, techAuditView(&obj)),
		Request: c.Request,
	})

	c.JSON(http.StatusCreated, &obj)
}

func UpdateTech(c *gin.Context) {
	obj, ok := getEntity[models.Tech](c, false)
	if !ok {
		return
	}

	var req techRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, map[string]any{"detail": "Payload non valido."})
		return
	}

	before := techAuditView(obj)
	req.apply(obj)

	fieldErrors := map[string]any{}
	validateTech(obj, fieldErrors)
	if len(fieldErrors) > 0 {
		failValidation(c, fieldErrors)
		return
	}

	if err := database.DB.Save(obj).Error; err != nil {
		fail(c, err)
		return
	}

	audit.LogEvent(database.DB, audit.Entry{
		Actor:   middleware.CurrentUser(c),
		Action:  models.ActionUpdate,
		Target:  obj,
		Changes: audit.BuildChanges(before, techAuditView(obj)),
		Request: c.Request,
	})

	c.JSON(http.StatusOK, obj)
}

func DeleteTech(c *gin.Context) { softDeleteEntity[models.Tech](c) }

func RestoreTech(c *gin.Context) { restoreEntity[models.Tech](c) }

func BulkRestoreTechs(c *gin.Context) { bulkRestoreEntity[models.Tech](c) }
