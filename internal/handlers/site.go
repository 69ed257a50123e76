package handlers

import (
	"net/http"
	"strings"

	"gestionale/internal/audit"
	"gestionale/internal/customfields"
	"gestionale/internal/database"
	"gestionale/internal/middleware"
	"gestionale/internal/models"

	"github.com/gin-gonic/gin"
)

var siteOrdering = map[string]string{
	"name":       "name",
	"city":       "city",
	"customer":   "customer_id",
	"status":     "status_id",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

type siteRequest struct {
	Customer     *uint              `json:"customer"`
	Name         *string            `json:"name"`
	DisplayName  *string            `json:"display_name"`
	Status       *uint              `json:"status"`
	AddressLine1 *string            `json:"address_line1"`
	City         *string            `json:"city"`
	PostalCode   *string            `json:"postal_code"`
	Province     *string            `json:"province"`
	Country      *string            `json:"country"`
	Notes        *string            `json:"notes"`
	Tags         *models.StringList `json:"tags"`
	CustomFields map[string]any     `json:"custom_fields"`
}

func (r siteRequest) apply(s *models.Site) {
	if r.Customer != nil {
		s.CustomerID = *r.Customer
	}
	if r.Name != nil {
		s.Name = strings.TrimSpace(*r.Name)
	}
	if r.DisplayName != nil {
		s.DisplayName = strings.TrimSpace(*r.DisplayName)
	}
	if r.Status != nil {
		s.StatusID = *r.Status
	}
	if r.AddressLine1 != nil {
		s.AddressLine1 = strings.TrimSpace(*r.AddressLine1)
	}
	if r.City != nil {
		s.City = strings.TrimSpace(*r.City)
	}
	if r.PostalCode != nil {
		s.PostalCode = strings.TrimSpace(*r.PostalCode)
	}
	if r.Province != nil {
		s.Province = strings.TrimSpace(*r.Province)
	}
	if r.Country != nil {
		s.Country = strings.ToUpper(strings.TrimSpace(*r.Country))
	}
	if r.Notes != nil {
		s.Notes = *r.Notes
	}
	if r.Tags != nil {
		s.Tags = *r.Tags
	}
}

func siteAuditView(s *models.Site) map[string]any {
	if s == nil {
		return map[string]any{}
	}
	return map[string]any{
		"customer":      s.CustomerID,
		"name":          s.Name,
		"display_name":  s.DisplayName,
		"status":        s.StatusID,
		"address_line1": s.AddressLine1,
		"city":          s.City,
		"postal_code":   s.PostalCode,
		"province":      s.Province,
		"country":       s.Country,
		"notes":         s.Notes,
		"tags":          s.Tags,
		"custom_fields": s.CustomFields,
	}
}

// validateSite checks the referential fields shared by create and update.
func validateSite(s *models.Site, fieldErrors map[string]any) {
	if s.Name == "" {
		fieldErrors["name"] = "Campo obbligatorio."
	}
	if s.StatusID == 0 {
		fieldErrors["status"] = "Campo obbligatorio."
	}
	if s.CustomerID == 0 {
		fieldErrors["customer"] = "Campo obbligatorio."
	} else {
		var n int64
		database.DB.Model(&models.Customer{}).Where("id = ?", s.CustomerID).Count(&n)
		if n == 0 {
			fieldErrors["customer"] = "Cliente inesistente."
		}
	}
}

func ListSites(c *gin.Context) {
	p := getListParams(c)

	q := database.WithDeletedFilters(database.DB.Model(&models.Site{}), p.IncludeDeleted, p.OnlyDeleted, false)
	if customer := c.Query("customer"); customer != "" {
		q = q.Where("customer_id = ?", customer)
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("status_id = ?", status)
	}
	q = applySearch(q, p.Search, "name", "display_name", "city", "address_line1")
	q = applyOrdering(q, p.Ordering, siteOrdering, "name")

	var rows []models.Site
	count, err := paginate(q, p, &rows)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listEnvelope(count, rows))
}

func GetSite(c *gin.Context) {
	obj, ok := getEntity[models.Site](c, false)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, obj)
}

func CreateSite(c *gin.Context) {
	var req siteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, map[string]any{"detail": "Payload non valido."})
		return
	}

	var obj models.Site
	req.apply(&obj)
	if obj.Country == "" {
		obj.Country = "IT"
	}

	fieldErrors := map[string]any{}
	validateSite(&obj, fieldErrors)

	cf, cfErrs, err := customfields.NormalizeAndValidate(
		customfields.GormSource{DB: database.DB}, models.EntitySite, req.CustomFields, nil, false)
	if err != nil {
		fail(c, err)
		return
	}
	if len(cfErrs) > 0 {
		fieldErrors["custom_fields"] = cfErrs
	}
	if len(fieldErrors) > 0 {
		failValidation(c, fieldErrors)
		return
	}
	obj.CustomFields = cf

	actor := middleware.CurrentUser(c)
	if actor != nil {
		obj.CreatedByID = &actor.ID
		obj.UpdatedByID = &actor.ID
	}

	if err := database.DB.Create(&obj).Error; err != nil {
		fail(c, err)
		return
	}

	audit.LogEvent(database.DB, audit.Entry{
		Actor:   actor,
		Action:  models.ActionCreate,
		Target:  &obj,
		Changes: audit.BuildChanges(map[string]any{}, siteAuditView(&obj)),
		Request: c.Request,
	})

	c.JSON(http.StatusCreated, &obj)
}

func UpdateSite(c *gin.Context) {
	obj, ok := getEntity[models.Site](c, false)
	if !ok {
		return
	}

	var req siteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, map[string]any{"detail": "Payload non valido."})
		return
	}

	before := siteAuditView(obj)
	existingCF := map[string]any(obj.CustomFields)

	req.apply(obj)

	fieldErrors := map[string]any{}
	validateSite(obj, fieldErrors)

	cf, cfErrs, err := customfields.NormalizeAndValidate(
		customfields.GormSource{DB: database.DB}, models.EntitySite, req.CustomFields, existingCF, true)
	if err != nil {
		fail(c, err)
		return
	}
	if len(cfErrs) > 0 {
		fieldErrors["custom_fields"] = cfErrs
	}
	if len(fieldErrors) > 0 {
		failValidation(c, fieldErrors)
		return
	}
	obj.CustomFields = cf

	actor := middleware.CurrentUser(c)
	if actor != nil {
		obj.UpdatedByID = &actor.ID
	}

	if err := database.DB.Save(obj).Error; err != nil {
		fail(c, err)
		return
	}

	audit.LogEvent(database.DB, audit.Entry{
		Actor:   actor,
		Action:  models.ActionUpdate,
		Target:  obj,
		Changes: audit.BuildChanges(before, siteAuditView(obj)),
		Request: c.Request,
	})

	c.JSON(http.StatusOK, obj)
}

func DeleteSite(c *gin.Context) { softDeleteEntity[models.Site](c) }

func RestoreSite(c *gin.Context) { restoreEntity[models.Site](c) }

func BulkRestoreSites(c *gin.Context) { bulkRestoreEntity[models.Site](c) }
