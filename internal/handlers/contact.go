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

var contactOrdering = map[string]string{
	"name":       "name",
	"customer":   "customer_id",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

type contactRequest struct {
	Customer   *uint   `json:"customer"`
	Site       *uint   `json:"site"`
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	Department *string `json:"department"`
	IsPrimary  *bool   `json:"is_primary"`
	Notes      *string `json:"notes"`
}

func (r contactRequest) apply(ct *models.Contact) {
	if r.Customer != nil {
		ct.CustomerID = *r.Customer
	}
	if r.Site != nil {
		if *r.Site == 0 {
			ct.SiteID = nil
		} else {
			ct.SiteID = r.Site
		}
	}
	if r.Name != nil {
		ct.Name = strings.TrimSpace(*r.Name)
	}
	if r.Email != nil {
		ct.Email = strings.TrimSpace(*r.Email)
	}
	if r.Phone != nil {
		ct.Phone = strings.TrimSpace(*r.Phone)
	}
	if r.Department != nil {
		ct.Department = strings.TrimSpace(*r.Department)
	}
	if r.IsPrimary != nil {
		ct.IsPrimary = *r.IsPrimary
	}
	if r.Notes != nil {
		ct.Notes = *r.Notes
	}
}

func contactAuditView(ct *models.Contact) map[string]any {
	if ct == nil {
		return map[string]any{}
	}
	return map[string]any{
		"customer":   ct.CustomerID,
		"site":       ct.SiteID,
		"name":       ct.Name,
		"email":      ct.Email,
		"phone":      ct.Phone,
		"department": ct.Department,
		"is_primary": ct.IsPrimary,
		"notes":      ct.Notes,
	}
}

// validateContact checks required fields and that a site, when given,
// belongs to the contact's customer.
func validateContact(ct *models.Contact, fieldErrors map[string]any) {
	if ct.Name == "" {
		fieldErrors["name"] = "Campo obbligatorio."
	}
	if ct.CustomerID == 0 {
		fieldErrors["customer"] = "Campo obbligatorio."
		return
	}

	var n int64
	database.DB.Model(&models.Customer{}).Where("id = ?", ct.CustomerID).Count(&n)
	if n == 0 {
		fieldErrors["customer"] = "Cliente inesistente."
		return
	}

	if ct.SiteID != nil {
		var site models.Site
		if err := database.DB.First(&site, *ct.SiteID).Error; err != nil {
			fieldErrors["site"] = "Sede inesistente."
		} else if site.CustomerID != ct.CustomerID {
			fieldErrors["site"] = "La sede appartiene a un altro cliente."
		}
	}
}

func ListContacts(c *gin.Context) {
	p := getListParams(c)

	q := database.WithDeletedFilters(database.DB.Model(&models.Contact{}), p.IncludeDeleted, p.OnlyDeleted, false)
	if customer := c.Query("customer"); customer != "" {
		q = q.Where("customer_id = ?", customer)
	}
	if site := c.Query("site"); site != "" {
		q = q.Where("site_id = ?", site)
	}
	if primary := c.Query("is_primary"); primary != "" {
		q = q.Where("is_primary = ?", database.IsTruthy(primary))
	}
	q = applySearch(q, p.Search, "name", "email", "phone", "department")
	q = applyOrdering(q, p.Ordering, contactOrdering, "name")

	var rows []models.Contact
	count, err := paginate(q, p, &rows)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listEnvelope(count, rows))
}

func GetContact(c *gin.Context) {
	obj, ok := getEntity[models.Contact](c, false)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, obj)
}

func CreateContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, map[string]any{"detail": "Payload non valido."})
		return
	}

	var obj models.Contact
	req.apply(&obj)

	fieldErrors := map[string]any{}
	validateContact(&obj, fieldErrors)
	if len(fieldErrors) > 0 {
		failValidation(c, fieldErrors)
		return
	}

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
		Changes: audit.BuildChanges(map[string]any{}, contactAuditView(&obj)),
		Request: c.Request,
	})

	c.JSON(http.StatusCreated, &obj)
}

func UpdateContact(c *gin.Context) {
	obj, ok := getEntity[models.Contact](c, false)
	if !ok {
		return
	}

	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, map[string]any{"detail": "Payload non valido."})
		return
	}

	before := contactAuditView(obj)
	req.apply(obj)

	fieldErrors := map[string]any{}
	validateContact(obj, fieldErrors)
	if len(fieldErrors) > 0 {
		failValidation(c, fieldErrors)
		return
	}

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
		Changes: audit.BuildChanges(before, contactAuditView(obj)),
		Request: c.Request,
	})

	c.JSON(http.StatusOK, obj)
}

func DeleteContact(c *gin.Context) { softDeleteEntity[models.Contact](c) }

func RestoreContact(c *gin.Context) { restoreEntity[models.Contact](c) }

func BulkRestoreContacts(c *gin.Context) { bulkRestoreEntity[models.Contact](c) }
