package handlers

import (
	"net/http"
	"strings"
	"time"

	"gestionale/internal/audit"
	"gestionale/internal/crypto"
	"gestionale/internal/customfields"
	"gestionale/internal/database"
	"gestionale/internal/logger"
	"gestionale/internal/middleware"
	"gestionale/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var inventoryConstraints = map[string]database.ConstraintMessage{
	"ux_inventories_knumber_active": {Field: "knumber", Column: "knumber", Message: "KNumber già in uso."},
	"ux_inventories_serial_active":  {Field: "serial_number", Column: "serial_number", Message: "Matricola già in uso."},
}

var inventoryOrdering = map[string]string{
	"name":       "name",
	"knumber":    "knumber",
	"customer":   "customer_id",
	"type":       "type_id",
	"status":     "status_id",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

type inventoryRequest struct {
	Customer *uint   `json:"customer"`
	Site     *uint   `json:"site"`
	Name     *string `json:"name"`

	KNumber      *string `json:"knumber"`
	SerialNumber *string `json:"serial_number"`

	Type   *uint `json:"type"`
	Status *uint `json:"status"`

	OSUser *string `json:"os_user"`
	OSPwd  *string `json:"os_pwd"`
	AppUsr *string `json:"app_usr"`
	AppPwd *string `json:"app_pwd"`
	VNCPwd *string `json:"vnc_pwd"`

	Hostname *string `json:"hostname"`
	LocalIP  *string `json:"local_ip"`
	SrsaIP   *string `json:"srsa_ip"`

	Manufacturer    *string `json:"manufacturer"`
	Model           *string `json:"model"`
	WarrantyEndDate *string `json:"warranty_end_date"`

	Notes        *string            `json:"notes"`
	Tags         *models.StringList `json:"tags"`
	CustomFields map[string]any     `json:"custom_fields"`
}

func (r inventoryRequest) apply(inv *models.Inventory, fieldErrors map[string]any) {
	if r.Customer != nil {
		inv.CustomerID = *r.Customer
	}
	if r.Site != nil {
		if *r.Site == 0 {
			inv.SiteID = nil
		} else {
			inv.SiteID = r.Site
		}
	}
	if r.Name != nil {
		inv.Name = strings.TrimSpace(*r.Name)
	}
	if r.KNumber != nil {
		inv.KNumber = optionalString(*r.KNumber)
	}
	if r.SerialNumber != nil {
		inv.SerialNumber = optionalString(*r.SerialNumber)
	}
	if r.Type != nil {
		inv.TypeID = *r.Type
	}
	if r.Status != nil {
		inv.StatusID = *r.Status
	}
	if r.OSUser != nil {
		inv.OSUser = strings.TrimSpace(*r.OSUser)
	}
	if r.AppUsr != nil {
		inv.AppUsr = strings.TrimSpace(*r.AppUsr)
	}
	if r.Hostname != nil {
		inv.Hostname = strings.TrimSpace(*r.Hostname)
	}
	if r.LocalIP != nil {
		inv.LocalIP = strings.TrimSpace(*r.LocalIP)
	}
	if r.SrsaIP != nil {
		inv.SrsaIP = strings.TrimSpace(*r.SrsaIP)
	}
	if r.Manufacturer != nil {
		inv.Manufacturer = strings.TrimSpace(*r.Manufacturer)
	}
	if r.Model != nil {
		inv.Model = strings.TrimSpace(*r.Model)
	}
	if r.WarrantyEndDate != nil {
		if s := strings.TrimSpace(*r.WarrantyEndDate); s == "" {
			inv.WarrantyEndDate = nil
		} else if d, err := time.Parse("2006-01-02", s); err == nil {
			inv.WarrantyEndDate = &d
		} else {
			fieldErrors["warranty_end_date"] = "Data non valida (atteso YYYY-MM-DD)."
		}
	}
	if r.Notes != nil {
		inv.Notes = *r.Notes
	}
	if r.Tags != nil {
		inv.Tags = *r.Tags
	}
}

// applySecrets encrypts the password fields provided in the payload.
// Absent fields keep the stored ciphertext.
func (r inventoryRequest) applySecrets(inv *models.Inventory) error {
	set := func(dst *string, src *string) error {
		if src == nil {
			return nil
		}
		enc, err := crypto.Encrypt(strings.TrimSpace(*src))
		if err != nil {
			return err
		}
		*dst = enc
		return nil
	}
	if err := set(&inv.OSPwd, r.OSPwd); err != nil {
		return err
	}
	if err := set(&inv.AppPwd, r.AppPwd); err != nil {
		return err
	}
	return set(&inv.VNCPwd, r.VNCPwd)
}

func inventoryAuditView(inv *models.Inventory) map[string]any {
	if inv == nil {
		return map[string]any{}
	}
	return map[string]any{
		"customer":          inv.CustomerID,
		"site":              inv.SiteID,
		"name":              inv.Name,
		"knumber":           inv.KNumber,
		"serial_number":     inv.SerialNumber,
		"type":              inv.TypeID,
		"status":            inv.StatusID,
		"os_user":           inv.OSUser,
		"os_pwd":            inv.OSPwd,
		"app_usr":           inv.AppUsr,
		"app_pwd":           inv.AppPwd,
		"vnc_pwd":           inv.VNCPwd,
		"hostname":          inv.Hostname,
		"local_ip":          inv.LocalIP,
		"srsa_ip":           inv.SrsaIP,
		"manufacturer":      inv.Manufacturer,
		"model":             inv.Model,
		"warranty_end_date": inv.WarrantyEndDate,
		"notes":             inv.Notes,
		"tags":              inv.Tags,
		"custom_fields":     inv.CustomFields,
	}
}

func validateInventory(inv *models.Inventory, fieldErrors map[string]any) {
	if inv.Name == "" {
		fieldErrors["name"] = "Campo obbligatorio."
	}
	if inv.TypeID == 0 {
		fieldErrors["type"] = "Campo obbligatorio."
	}
	if inv.StatusID == 0 {
		fieldErrors["status"] = "Campo obbligatorio."
	}
	if inv.CustomerID == 0 {
		fieldErrors["customer"] = "Campo obbligatorio."
		return
	}

	var n int64
	database.DB.Model(&models.Customer{}).Where("id = ?", inv.CustomerID).Count(&n)
	if n == 0 {
		fieldErrors["customer"] = "Cliente inesistente."
		return
	}

	if inv.SiteID != nil {
		var site models.Site
		if err := database.DB.First(&site, *inv.SiteID).Error; err != nil {
			fieldErrors["site"] = "Sede inesistente."
		} else if site.CustomerID != inv.CustomerID {
			fieldErrors["site"] = "La sede appartiene a un altro cliente."
		}
	}
}

type inventoryDetail struct {
	models.Inventory

	// Decrypted secret values, present only for roles allowed to see them.
	OSPwd  *string `json:"os_pwd,omitempty"`
	AppPwd *string `json:"app_pwd,omitempty"`
	VNCPwd *string `json:"vnc_pwd,omitempty"`
}

// decryptSecret never surfaces a decryption failure to the client: a
// broken ciphertext reads back as empty and is logged.
func decryptSecret(inv *models.Inventory, field, value string) string {
	plain, err := crypto.Decrypt(value)
	if err != nil {
		logger.Warn("secret decrypt failed",
			zap.Uint("inventory_id", inv.ID),
			zap.String("field", field),
			zap.Error(err),
		)
		return ""
	}
	return plain
}

func ListInventories(c *gin.Context) {
	p := getListParams(c)

	q := database.WithDeletedFilters(database.DB.Model(&models.Inventory{}), p.IncludeDeleted, p.OnlyDeleted, false)
	if customer := c.Query("customer"); customer != "" {
		q = q.Where("customer_id = ?", customer)
	}
	if site := c.Query("site"); site != "" {
		q = q.Where("site_id = ?", site)
	}
	if typ := c.Query("type"); typ != "" {
		q = q.Where("type_id = ?", typ)
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("status_id = ?", status)
	}
	q = applySearch(q, p.Search, "name", "knumber", "serial_number", "hostname", "local_ip")
	q = applyOrdering(q, p.Ordering, inventoryOrdering, "name")

	var rows []models.Inventory
	count, err := paginate(q, p, &rows)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listEnvelope(count, rows))
}

func GetInventory(c *gin.Context) {
	obj, ok := getEntity[models.Inventory](c, false)
	if !ok {
		return
	}

	detail := inventoryDetail{Inventory: *obj}

	user := middleware.CurrentUser(c)
	if user != nil && user.Role.CanViewSecrets() {
		osPwd := decryptSecret(obj, "os_pwd", obj.OSPwd)
		appPwd := decryptSecret(obj, "app_pwd", obj.AppPwd)
		vncPwd := decryptSecret(obj, "vnc_pwd", obj.VNCPwd)
		detail.OSPwd = &osPwd
		detail.AppPwd = &appPwd
		detail.VNCPwd = &vncPwd
	}

	c.JSON(http.StatusOK, detail)
}

func CreateInventory(c *gin.Context) {
	var req inventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, map[string]any{"detail": "Payload non valido."})
		return
	}

	var obj models.Inventory
	fieldErrors := map[string]any{}
	req.apply(&obj, fieldErrors)
	validateInventory(&obj, fieldErrors)

	cf, cfErrs, err := customfields.NormalizeAndValidate(
		customfields.GormSource{DB: database.DB}, models.EntityInventory, req.CustomFields, nil, false)
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

	if err := req.applySecrets(&obj); err != nil {
		fail(c, err)
		return
	}

	actor := middleware.CurrentUser(c)
	if actor != nil {
		obj.CreatedByID = &actor.ID
		obj.UpdatedByID = &actor.ID
	}

	if err := database.DB.Create(&obj).Error; err != nil {
		if ve := database.AsValidationError(err, inventoryConstraints); ve != nil {
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
		Changes: audit.BuildChanges(map[string]any{}, inventoryAuditView(&obj)),
		Request: c.Request,
	})

	c.JSON(http.StatusCreated, &obj)
}

func UpdateInventory(c *gin.Context) {
	obj, ok := getEntity[models.Inventory](c, false)
	if !ok {
		return
	}

	var req inventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, map[string]any{"detail": "Payload non valido."})
		return
	}

	before := inventoryAuditView(obj)
	existingCF := map[string]any(obj.CustomFields)

	fieldErrors := map[string]any{}
	req.apply(obj, fieldErrors)
	validateInventory(obj, fieldErrors)

	cf, cfErrs, err := customfields.NormalizeAndValidate(
		customfields.GormSource{DB: database.DB}, models.EntityInventory, req.CustomFields, existingCF, true)
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

	if err := req.applySecrets(obj); err != nil {
		fail(c, err)
		return
	}

	actor := middleware.CurrentUser(c)
	if actor != nil {
		obj.UpdatedByID = &actor.ID
	}

	if err := database.DB.Save(obj).Error; err != nil {
		if ve := database.AsValidationError(err, inventoryConstraints); ve != nil {
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
		Changes: audit.BuildChanges(before, inventoryAuditView(obj)),
		Request: c.Request,
	})

	c.JSON(http.StatusOK, obj)
}

func DeleteInventory(c *gin.Context) { softDeleteEntity[models.Inventory](c) }

func RestoreInventory(c *gin.Context) { restoreEntity[models.Inventory](c) }

func BulkRestoreInventories(c *gin.Context) { bulkRestoreEntity[models.Inventory](c) }
