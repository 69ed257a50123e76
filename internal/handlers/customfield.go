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

var customFieldConstraints = map[string]database.ConstraintMessage{
	"ux_custom_field_defs_entity_key_active": {Field: "key", Column: "key", Message: "Chiave già definita per questa entità."},
}

var customFieldOrdering = map[string]string{
	"entity":     "entity",
	"key":        "key",
	"label":      "label",
	"sort_order": "sort_order",
	"created_at": "created_at",
}

var customFieldEntities = []string{
	models.EntityCustomer,
	models.EntitySite,
	models.EntityInventory,
	models.EntityMaintenancePlan,
	models.EntityWikiPage,
}

type customFieldRequest struct {
	Entity      *string            `json:"entity"`
	Key         *string            `json:"key"`
	Label       *string            `json:"label"`
	FieldType   *models.FieldType  `json:"field_type"`
	Required    *bool              `json:"required"`
	Options     *models.StringList `json:"options"`
	Aliases     *models.StringList `json:"aliases"`
	HelpText    *string            `json:"help_text"`
	SortOrder   *int               `json:"sort_order"`
	IsActive    *bool              `json:"is_active"`
	IsSensitive *bool              `json:"is_sensitive"`
}

func (r customFieldRequest) apply(d *models.CustomFieldDefinition) {
	if r.Entity != nil {
		d.Entity = strings.TrimSpace(*r.Entity)
	}
	if r.Key != nil {
		d.Key = customfields.NormalizeKey(*r.Key)
	}
	if r.Label != nil {
		d.Label = strings.TrimSpace(*r.Label)
	}
	if r.FieldType != nil {
		d.FieldType = *r.FieldType
	}
	if r.Required != nil {
		d.Required = *r.Required
	}
	if r.Options != nil {
		d.Options = *r.Options
	}
	if r.Aliases != nil {
		d.Aliases = *r.Aliases
	}
	if r.HelpText != nil {
		d.HelpText = strings.TrimSpace(*r.HelpText)
	}
	if r.SortOrder != nil {
		d.SortOrder = *r.SortOrder
	}
	if r.IsActive != nil {
		d.IsActive = *r.IsActive
	}
	if r.IsSensitive != nil {
		d.IsSensitive = *r.IsSensitive
	}
}

func customFieldAuditView(d *models.CustomFieldDefinition) map[string]any {
	if d == nil {
		return map[string]any{}
	}
	return map[string]any{
		"entity":       d.Entity,
		"key":          d.Key,
		"label":        d.Label,
		"field_type":   string(d.FieldType),
		"required":     d.Required,
		"options":      d.Options,
		"aliases":      d.Aliases,
		"help_text":    d.HelpText,
		"sort_order":   d.SortOrder,
		"is_active":    d.IsActive,
		"is_sensitive": d.IsSensitive,
	}
}

func validateCustomField(d *models.CustomFieldDefinition, fieldErrors map[string]any) {
	if d.Key == "" {
		fieldErrors["key"] = "Campo obbligatorio."
	}
	if d.Label == "" {
		fieldErrors["label"] = "Campo obbligatorio."
	}

	validEntity := false
	for _, e := range customFieldEntities {
		if d.Entity == e {
			validEntity = true
			break
		}
	}
	if !validEntity {
		fieldErrors["entity"] = "Valore non ammesso."
	}

	switch d.FieldType {
	case models.FieldText, models.FieldNumber, models.FieldDate, models.FieldBoolean:
	case models.FieldSelect:
		if len(d.Options) == 0 {
			fieldErrors["options"] = "Campo obbligatorio."
		}
	default:
		fieldErrors["field_type"] = "Valore non ammesso."
	}
}

func ListCustomFieldDefinitions(c *gin.Context) {
	p := getListParams(c)

	q := database.WithDeletedFilters(database.DB.Model(&models.CustomFieldDefinition{}), p.IncludeDeleted, p.OnlyDeleted, false)
	if entity := c.Query("entity"); entity != "" {
		q = q.Where("entity = ?", entity)
	}
	if active := c.Query("is_active"); active != "" {
		q = q.Where("is_active = ?", database.IsTruthy(active))
	}
	q = applySearch(q, p.Search, "key", "label", "help_text")
	q = applyOrdering(q, p.Ordering, customFieldOrdering, "entity, sort_order, label")

	var rows []models.CustomFieldDefinition
	count, err := paginate(q, p, &rows)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listEnvelope(count, rows))
}

func GetCustomFieldDefinition(c *gin.Context) {
	obj, ok := getEntity[models.CustomFieldDefinition](c, false)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, obj)
}

func CreateCustomFieldDefinition(c *gin.Context) {
	var req customFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, map[string]any{"detail": "Payload non valido."})
		return
	}

	obj := models.CustomFieldDefinition{FieldType: models.FieldText, IsActive: true}
	req.apply(&obj)

	fieldErrors := map[string]any{}
	validateCustomField(&obj, fieldErrors)
	if len(fieldErrors) > 0 {
		failValidation(c, fieldErrors)
		return
	}

	if err := database.DB.Create(&obj).Error; err != nil {
		if ve := database.AsValidationError(err, customFieldConstraints); ve != nil {
			fail(c, ve)
			return
		}
		fail(c, err)
		return
	}

	audit.LogEvent(database.DB, audit.Entry{
		Actor:   middleware.CurrentUser(c),
		Action:  models.ActionCreate,
		Target:  &obj,
		Changes: audit.BuildChanges(map[string]any{}, customFieldAuditView(&obj)),
		Request: c.Request,
	})

	c.JSON(http.StatusCreated, &obj)
}

func UpdateCustomFieldDefinition(c *gin.Context) {
	obj, ok := getEntity[models.CustomFieldDefinition](c, false)
	if !ok {
		return
	}

	var req customFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, map[string]any{"detail": "Payload non valido."})
		return
	}

	before := customFieldAuditView(obj)
	req.apply(obj)

	fieldErrors := map[string]any{}
	validateCustomField(obj, fieldErrors)
	if len(fieldErrors) > 0 {
		failValidation(c, fieldErrors)
		return
	}

	if err := database.DB.Save(obj).Error; err != nil {
		if ve := database.AsValidationError(err, customFieldConstraints); ve != nil {
			fail(c, ve)
			return
		}
		fail(c, err)
		return
	}

	audit.LogEvent(database.DB, audit.Entry{
		Actor:   middleware.CurrentUser(c),
		Action:  models.ActionUpdate,
		Target:  obj,
		Changes: audit.BuildChanges(before, customFieldAuditView(obj)),
		Request: c.Request,
	})

	c.JSON(http.StatusOK, obj)
}

func DeleteCustomFieldDefinition(c *gin.Context) { softDeleteEntity[models.CustomFieldDefinition](c) }

func RestoreCustomFieldDefinition(c *gin.Context) { restoreEntity[models.CustomFieldDefinition](c) }

func BulkRestoreCustomFieldDefinitions(c *gin.Context) {
	bulkRestoreEntity[models.CustomFieldDefinition](c)
}
