package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"gestionale/internal/audit"
	"gestionale/internal/customfields"
	"gestionale/internal/database"
	"gestionale/internal/middleware"
	"gestionale/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var customerConstraints = map[string]database.ConstraintMessage{
	"ux_customers_code_active": {Field: "code", Column: "code", Message: "Codice già in uso."},
	"ux_customers_vat_active":  {Field: "vat_number", Column: "vat_number", Message: "Partita IVA già in uso."},
	"ux_customers_tax_active":  {Field: "tax_code", Column: "tax_code", Message: "Codice fiscale già in uso."},
}

var customerOrdering = map[string]string{
	"code":       "code",
	"name":       "name",
	"status":     "status_id",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

type customerRequest struct {
	Name         *string            `json:"name"`
	DisplayName  *string            `json:"display_name"`
	Code         *string            `json:"code"`
	VatNumber    *string            `json:"vat_number"`
	TaxCode      *string            `json:"tax_code"`
	Status       *uint              `json:"status"`
	Notes        *string            `json:"notes"`
	Tags         *models.StringList `json:"tags"`
	CustomFields map[string]any     `json:"custom_fields"`
}

// apply copies the provided fields onto the model; absent fields keep
// their stored value (partial update).
func (r customerRequest) apply(c *models.Customer) {
	if r.Name != nil {
		c.Name = strings.TrimSpace(*r.Name)
	}
	if r.DisplayName != nil {
		c.DisplayName = strings.TrimSpace(*r.DisplayName)
	}
	if r.Code != nil {
		c.Code = optionalString(*r.Code)
	}
	if r.VatNumber != nil {
		c.VatNumber = optionalString(*r.VatNumber)
	}
	if r.TaxCode != nil {
		c.TaxCode = optionalString(*r.TaxCode)
	}
	if r.Status != nil {
		c.StatusID = *r.Status
	}
	if r.Notes != nil {
		c.Notes = *r.Notes
	}
	if r.Tags != nil {
		c.Tags = *r.Tags
	}
}

// optionalString trims and maps empty to nil so partial unique indexes
// never collide on "".
func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// customerAuditView is the flat field map diffed for the audit trail.
func customerAuditView(c *models.Customer) map[string]any {
	if c == nil {
		return map[string]any{}
	}
	return map[string]any{
		"code":          c.Code,
		"name":          c.Name,
		"display_name":  c.DisplayName,
		"vat_number":    c.VatNumber,
		"tax_code":      c.TaxCode,
		"status":        c.StatusID,
		"notes":         c.Notes,
		"tags":          c.Tags,
		"custom_fields": c.CustomFields,
	}
}

// customerCity pulls the city out of custom_fields, tolerating the
// accented and plain spellings.
func customerCity(cf models.JSONMap) string {
	for k, v := range cf {
		switch customfields.NormalizeKey(k) {
		case "citta", "city":
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

type customerListItem struct {
	models.Customer
	City string `json:"city"`

	PrimaryContactName  string `json:"primary_contact_name"`
	PrimaryContactEmail string `json:"primary_contact_email"`
	PrimaryContactPhone string `json:"primary_contact_phone"`
}

func ListCustomers(c *gin.Context) {
	p := getListParams(c)

	q := database.WithDeletedFilters(database.DB.Model(&models.Customer{}), p.IncludeDeleted, p.OnlyDeleted, false)
	if status := c.Query("status"); status != "" {
		q = q.Where("status_id = ?", status)
	}
	q = applySearch(q, p.Search, "code", "name", "display_name", "vat_number", "tax_code")
	q = applyOrdering(q, p.Ordering, customerOrdering, "name")

	var rows []models.Customer
	count, err := paginate(q, p, &rows)
	if err != nil {
		fail(c, err)
		return
	}

	items := make([]customerListItem, len(rows))
	ids := make([]uint, len(rows))
	for i := range rows {
		items[i] = customerListItem{Customer: rows[i], City: customerCity(rows[i].CustomFields)}
		ids[i] = rows[i].ID
	}

	// Primary contact per customer: the most recent active primary
	// contact not tied to a site.
	if len(ids) > 0 {
		var contacts []models.Contact
		err := database.DB.
			Where("customer_id IN ? AND is_primary = ? AND site_id IS NULL", ids, true).
			Order("created_at DESC").
			Find(&contacts).Error
		if err != nil {
			fail(c, err)
			return
		}
		byCustomer := make(map[uint]models.Contact, len(contacts))
		for _, ct := range contacts {
			if _, seen := byCustomer[ct.CustomerID]; !seen {
				byCustomer[ct.CustomerID] = ct
			}
		}
		for i := range items {
			if ct, ok := byCustomer[items[i].ID]; ok {
				items[i].PrimaryContactName = ct.Name
				items[i].PrimaryContactEmail = ct.Email
				items[i].PrimaryContactPhone = ct.Phone
			}
		}
	}

	c.JSON(http.StatusOK, listEnvelope(count, items))
}

func GetCustomer(c *gin.Context) {
	obj, ok := getEntity[models.Customer](c, false)
	if !ok {
		return
	}
	item := customerListItem{Customer: *obj, City: customerCity(obj.CustomFields)}
	c.JSON(http.StatusOK, item)
}

func CreateCustomer(c *gin.Context) {
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, map[string]any{"detail": "Payload non valido."})
		return
	}

	var obj models.Customer
	req.apply(&obj)

	fieldErrors := map[string]any{}
	if obj.Name == "" {
		fieldErrors["name"] = "Campo obbligatorio."
	}
	if obj.StatusID == 0 {
		fieldErrors["status"] = "Campo obbligatorio."
	}

	cf, cfErrs, err := customfields.NormalizeAndValidate(
		customfields.GormSource{DB: database.DB}, models.EntityCustomer, req.CustomFields, nil, false)
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

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&obj).Error; err != nil {
			return err
		}
		if obj.Code == nil {
			code := fmt.Sprintf("C-%06d", obj.ID)
			if err := tx.Model(&obj).Update("code", code).Error; err != nil {
				return err
			}
			obj.Code = &code
		}
		return nil
	})
	if err != nil {
		if ve := database.AsValidationError(err, customerConstraints); ve != nil {
			fail(c, ve)
			return
		}
		fail(c, err)
		return
	}

	audit.LogEvent(database.DB, audit.Entry{
		Actor:   actor,
		Action:  models.ActionCreate,
		Target:  &obj,
		Changes: audit.BuildChanges(map[string]any{}, customerAuditView(&obj)),
		Request: c.Request,
	})

	c.JSON(http.StatusCreated, &obj)
}

func UpdateCustomer(c *gin.Context) {
	obj, ok := getEntity[models.Customer](c, false)
	if !ok {
		return
	}

	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, map[string]any{"detail": "Payload non valido."})
		return
	}

	before := customerAuditView(obj)
	existingCF := map[string]any(obj.CustomFields)

	req.apply(obj)

	fieldErrors := map[string]any{}
	if obj.Name == "" {
		fieldErrors["name"] = "Campo obbligatorio."
	}
	if obj.StatusID == 0 {
		fieldErrors["status"] = "Campo obbligatorio."
	}

	cf, cfErrs, err := customfields.NormalizeAndValidate(
		customfields.GormSource{DB: database.DB}, models.EntityCustomer, req.CustomFields, existingCF, true)
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
		if ve := database.AsValidationError(err, customerConstraints); ve != nil {
			fail(c, ve)
			return
		}
		fail(c, err)
		return
	}

	audit.LogEvent(database.DB, audit.Entry{
		Actor:   actor,
		Action:  models.ActionUpdate,
		Target:  obj,
		Changes: audit.BuildChanges(before, customerAuditView(obj)),
		Request: c.Request,
	})

	c.JSON(http.StatusOK, obj)
}

func DeleteCustomer(c *gin.Context) { softDeleteEntity[models.Customer](c) }

func RestoreCustomer(c *gin.Context) { restoreEntity[models.Customer](c) }

func BulkRestoreCustomers(c *gin.Context) { bulkRestoreEntity[models.Customer](c) }
