package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"gestionale/internal/apperr"
	"gestionale/internal/audit"
	"gestionale/internal/customfields"
	"gestionale/internal/database"
	"gestionale/internal/maintenance"
	"gestionale/internal/middleware"
	"gestionale/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

var planOrdering = map[string]string{
	"title":         "title",
	"customer":      "customer_id",
	"next_due_date": "next_due_date",
	"created_at":    "created_at",
	"updated_at":    "updated_at",
}

type planRequest struct {
	Customer       *uint   `json:"customer"`
	InventoryTypes *[]uint `json:"inventory_types"`
	Title          *string `json:"title"`

	ScheduleType  *models.ScheduleType `json:"schedule_type"`
	IntervalUnit  *models.IntervalUnit `json:"interval_unit"`
	IntervalValue *int                 `json:"interval_value"`
	FixedMonth    *int                 `json:"fixed_month"`
	FixedDay      *int                 `json:"fixed_day"`

	NextDueDate     *string `json:"next_due_date"`
	AlertDaysBefore *int    `json:"alert_days_before"`
	IsActive        *bool   `json:"is_active"`

	Notes        *string        `json:"notes"`
	CustomFields map[string]any `json:"custom_fields"`
}

func (r planRequest) apply(p *models.MaintenancePlan, fieldErrors map[string]any) {
	if r.Customer != nil {
		p.CustomerID = *r.Customer
	}
	if r.Title != nil {
		p.Title = strings.TrimSpace(*r.Title)
	}
	if r.ScheduleType != nil {
		p.ScheduleType = *r.ScheduleType
	}
	if r.IntervalUnit != nil {
		p.IntervalUnit = r.IntervalUnit
	}
	if r.IntervalValue != nil {
		p.IntervalValue = r.IntervalValue
	}
	if r.FixedMonth != nil {
		p.FixedMonth = r.FixedMonth
	}
	if r.FixedDay != nil {
		p.FixedDay = r.FixedDay
	}
	if r.NextDueDate != nil {
		if d, err := time.Parse(dateLayout, strings.TrimSpace(*r.NextDueDate)); err == nil {
			p.NextDueDate = d
		} else {
			fieldErrors["next_due_date"] = "Data non valida (atteso YYYY-MM-DD)."
		}
	}
	if r.AlertDaysBefore != nil {
		p.AlertDaysBefore = *r.AlertDaysBefore
	}
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
	if r.Notes != nil {
		p.Notes = *r.Notes
	}
}

func planAuditView(p *models.MaintenancePlan) map[string]any {
	if p == nil {
		return map[string]any{}
	}
	typeIDs := make([]any, len(p.InventoryTypes))
	for i, t := range p.InventoryTypes {
		typeIDs[i] = t.ID
	}
	return map[string]any{
		"customer":          p.CustomerID,
		"inventory_types":   typeIDs,
		"title":             p.Title,
		"schedule_type":     string(p.ScheduleType),
		"interval_unit":     intervalUnitValue(p.IntervalUnit),
		"interval_value":    p.IntervalValue,
		"fixed_month":       p.FixedMonth,
		"fixed_day":         p.FixedDay,
		"next_due_date":     p.NextDueDate.Format(dateLayout),
		"alert_days_before": p.AlertDaysBefore,
		"is_active":         p.IsActive,
		"notes":             p.Notes,
		"custom_fields":     p.CustomFields,
	}
}

func intervalUnitValue(u *models.IntervalUnit) any {
	if u == nil {
		return nil
	}
	return string(*u)
}

func validPlanSchedule(p *models.MaintenancePlan, fieldErrors map[string]any) {
	switch p.ScheduleType {
	case models.ScheduleInterval:
		if p.IntervalValue == nil || *p.IntervalValue <= 0 {
			fieldErrors["interval_value"] = "Campo obbligatorio."
		}
		if p.IntervalUnit == nil {
			fieldErrors["interval_unit"] = "Campo obbligatorio."
		} else {
			switch *p.IntervalUnit {
			case models.UnitDays, models.UnitWeeks, models.UnitMonths, models.UnitYears:
			default:
				fieldErrors["interval_unit"] = "Valore non ammesso."
			}
		}
	case models.ScheduleFixedDate:
		if p.FixedMonth == nil || *p.FixedMonth < 1 || *p.FixedMonth > 12 {
			fieldErrors["fixed_month"] = "Valore non ammesso."
		}
		if p.FixedDay == nil || *p.FixedDay < 1 || *p.FixedDay > 31 {
			fieldErrors["fixed_day"] = "Valore non ammesso."
		}
	default:
		fieldErrors["schedule_type"] = "Valore non ammesso."
	}
}

func validatePlan(p *models.MaintenancePlan, fieldErrors map[string]any) {
	if p.Title == "" {
		fieldErrors["title"] = "Campo obbligatorio."
	}
	if p.CustomerID == 0 {
		fieldErrors["customer"] = "Campo obbligatorio."
	} else {
		var n int64
		database.DB.Model(&models.Customer{}).Where("id = ?", p.CustomerID).Count(&n)
		if n == 0 {
			fieldErrors["customer"] = "Cliente inesistente."
		}
	}
	validPlanSchedule(p, fieldErrors)
}

// loadPlanTypes resolves inventory-type ids into rows, rejecting unknown
// ids up front so the join table never references ghosts.
func loadPlanTypes(ids []uint, fieldErrors map[string]any) []models.InventoryType {
	if len(ids) == 0 {
		return nil
	}
	var types []models.InventoryType
	if err := database.DB.Where("id IN ?", ids).Find(&types).Error; err != nil || len(types) != len(ids) {
		fieldErrors["inventory_types"] = "Tipologia inesistente."
		return nil
	}
	return types
}

type planListItem struct {
	models.MaintenancePlan
	InventoryTypeIDs []uint `json:"inventory_types"`

	// CoveredCount: active inventories of the customer whose type is in
	// the plan's set.
	CoveredCount int64   `json:"covered_count"`
	LastDoneDate *string `json:"last_done_date"`
}

func planItem(p models.MaintenancePlan) planListItem {
	item := planListItem{MaintenancePlan: p}
	typeIDs := make([]uint, len(p.InventoryTypes))
	for i, t := range p.InventoryTypes {
		typeIDs[i] = t.ID
	}
	item.InventoryTypeIDs = typeIDs

	if len(typeIDs) > 0 {
		database.DB.Model(&models.Inventory{}).
			Where("customer_id = ? AND type_id IN ?", p.CustomerID, typeIDs).
			Count(&item.CoveredCount)
	}

	var last models.MaintenanceEvent
	err := database.DB.Where("plan_id = ?", p.ID).Order("performed_at DESC").First(&last).Error
	if err == nil {
		s := last.PerformedAt.Format(dateLayout)
		item.LastDoneDate = &s
	}
	return item
}

func ListMaintenancePlans(c *gin.Context) {
	p := getListParams(c)

	q := database.WithDeletedFilters(database.DB.Model(&models.MaintenancePlan{}), p.IncludeDeleted, p.OnlyDeleted, false)
	if customer := c.Query("customer"); customer != "" {
		q = q.Where("customer_id = ?", customer)
	}
	if st := c.Query("schedule_type"); st != "" {
		q = q.Where("schedule_type = ?", st)
	}
	if active := c.Query("is_active"); active != "" {
		q = q.Where("is_active = ?", database.IsTruthy(active))
	}

	today := time.Now().Truncate(24 * time.Hour)
	switch c.Query("due") {
	case "overdue":
		q = q.Where("next_due_date < ?", today)
	case "next7":
		q = q.Where("next_due_date >= ? AND next_due_date <= ?", today, today.AddDate(0, 0, 7))
	case "next30":
		q = q.Where("next_due_date >= ? AND next_due_date <= ?", today, today.AddDate(0, 0, 30))
	}

	q = applySearch(q, p.Search, "title", "notes")
	q = applyOrdering(q, p.Ordering, planOrdering, "next_due_date")
	q = q.Preload("InventoryTypes")

	var rows []models.MaintenancePlan
	count, err := paginate(q, p, &rows)
	if err != nil {
		fail(c, err)
		return
	}

	items := make([]planListItem, len(rows))
	for i := range rows {
		items[i] = planItem(rows[i])
	}
	c.JSON(http.StatusOK, listEnvelope(count, items))
}

func GetMaintenancePlan(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	q := database.WithDeletedFilters(database.DB, c.Query("include_deleted"), c.Query("only_deleted"), false)

	var obj models.MaintenancePlan
	if err := q.Preload("InventoryTypes").First(&obj, id).Error; err != nil {
		failNotFound(c)
		return
	}
	c.JSON(http.StatusOK, planItem(obj))
}

func CreateMaintenancePlan(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, map[string]any{"detail": "Payload non valido."})
		return
	}

	obj := models.MaintenancePlan{AlertDaysBefore: 14, IsActive: true}
	fieldErrors := map[string]any{}
	req.apply(&obj, fieldErrors)
	validatePlan(&obj, fieldErrors)

	if req.InventoryTypes != nil {
		obj.InventoryTypes = loadPlanTypes(*req.InventoryTypes, fieldErrors)
	}

	cf, cfErrs, err := customfields.NormalizeAndValidate(
		customfields.GormSource{DB: database.DB}, models.EntityMaintenancePlan, req.CustomFields, nil, false)
	if err != nil {
		fail(c, err)
		return
	}
	if len(cfErrs) > 0 {
		fieldErrors["custom_fields"] = cfErrs
	}

	// No explicit due date: derive it from the schedule for this year.
	if req.NextDueDate == nil && fieldErrors["schedule_type"] == nil {
		if due := maintenance.ComputeNextDueDate(
			obj.ScheduleType, obj.IntervalValue, obj.IntervalUnit,
			obj.FixedMonth, obj.FixedDay, time.Now().Year()); due != nil {
			obj.NextDueDate = *due
		} else {
			fieldErrors["next_due_date"] = "Campo obbligatorio."
		}
	}

	if len(fieldErrors) > 0 {
		failValidation(c, fieldErrors)
		return
	}
	obj.CustomFields = cf

	if err := database.DB.Create(&obj).Error; err != nil {
		fail(c, err)
		return
	}

	audit.LogEvent(database.DB, audit.Entry{
		Actor:   middleware.CurrentUser(c),
		Action:  models.ActionCreate,
		Target:  &obj,
		Changes: audit.BuildChanges(map[string]any{}, planAuditView(&obj)),
		Request: c.Request,
	})

	c.JSON(http.StatusCreated, planItem(obj))
}

func UpdateMaintenancePlan(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var obj models.MaintenancePlan
	if err := database.DB.Preload("InventoryTypes").First(&obj, id).Error; err != nil {
		failNotFound(c)
		return
	}

	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, map[string]any{"detail": "Payload non valido."})
		return
	}

	before := planAuditView(&obj)
	existingCF := map[string]any(obj.CustomFields)

	fieldErrors := map[string]any{}
	req.apply(&obj, fieldErrors)
	validatePlan(&obj, fieldErrors)

	var newTypes []models.InventoryType
	if req.InventoryTypes != nil {
		newTypes = loadPlanTypes(*req.InventoryTypes, fieldErrors)
	}

	cf, cfErrs, err := customfields.NormalizeAndValidate(
		customfields.GormSource{DB: database.DB}, models.EntityMaintenancePlan, req.CustomFields, existingCF, true)
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

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("InventoryTypes").Save(&obj).Error; err != nil {
			return err
		}
		if req.InventoryTypes != nil {
			if err := tx.Model(&obj).Association("InventoryTypes").Replace(newTypes); err != nil {
				return err
			}
			obj.InventoryTypes = newTypes
		}
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}

	audit.LogEvent(database.DB, audit.Entry{
		Actor:   middleware.CurrentUser(c),
		Action:  models.ActionUpdate,
		Target:  &obj,
		Changes: audit.BuildChanges(before, planAuditView(&obj)),
		Request: c.Request,
	})

	c.JSON(http.StatusOK, planItem(obj))
}

func DeleteMaintenancePlan(c *gin.Context) { softDeleteEntity[models.MaintenancePlan](c) }

func RestoreMaintenancePlan(c *gin.Context) { restoreEntity[models.MaintenancePlan](c) }

func BulkRestoreMaintenancePlans(c *gin.Context) { bulkRestoreEntity[models.MaintenancePlan](c) }

// ComputeDueDate previews the due date a schedule would produce, without
// touching any plan.
func ComputeDueDate(c *gin.Context) {
	scheduleType := models.ScheduleType(c.Query("schedule_type"))

	var intervalValue, fixedMonth, fixedDay *int
	var intervalUnit *models.IntervalUnit

	if v, err := strconv.Atoi(c.Query("interval_value")); err == nil {
		intervalValue = &v
	}
	if s := c.Query("interval_unit"); s != "" {
		u := models.IntervalUnit(s)
		intervalUnit = &u
	}
	if v, err := strconv.Atoi(c.Query("fixed_month")); err == nil {
		fixedMonth = &v
	}
	if v, err := strconv.Atoi(c.Query("fixed_day")); err == nil {
		fixedDay = &v
	}
	year, _ := strconv.Atoi(c.Query("year"))

	due := maintenance.ComputeNextDueDate(scheduleType, intervalValue, intervalUnit, fixedMonth, fixedDay, year)
	if due == nil {
		fail(c, apperr.BadRequest("Parametri insufficienti o data impossibile."))
		return
	}
	c.JSON(http.StatusOK, gin.H{"next_due_date": due.Format(dateLayout)})
}

var eventOrdering = map[string]string{
	"performed_at": "performed_at",
	"plan":         "plan_id",
	"created_at":   "created_at",
}

type eventRequest struct {
	Plan        *uint                     `json:"plan"`
	Inventory   *uint                     `json:"inventory"`
	PerformedAt *string                   `json:"performed_at"`
	Result      *models.MaintenanceResult `json:"result"`
	Tech        *uint                     `json:"tech"`
	Notes       *string                   `json:"notes"`
}

func eventAuditView(e *models.MaintenanceEvent) map[string]any {
	if e == nil {
		return map[string]any{}
	}
	return map[string]any{
		"plan":         e.PlanID,
		"inventory":    e.InventoryID,
		"performed_at": e.PerformedAt.Format(dateLayout),
		"result":       string(e.Result),
		"tech":         e.TechID,
		"notes":        e.Notes,
	}
}

func ListMaintenanceEvents(c *gin.Context) {
	p := getListParams(c)

	q := database.WithDeletedFilters(database.DB.Model(&models.MaintenanceEvent{}), p.IncludeDeleted, p.OnlyDeleted, false)
	if plan := c.Query("plan"); plan != "" {
		q = q.Where("plan_id = ?", plan)
	}
	if inventory := c.Query("inventory"); inventory != "" {
		q = q.Where("inventory_id = ?", inventory)
	}
	if result := c.Query("result"); result != "" {
		q = q.Where("result = ?", result)
	}
	if tech := c.Query("tech"); tech != "" {
		q = q.Where("tech_id = ?", tech)
	}
	q = applySearch(q, p.Search, "notes")
	q = applyOrdering(q, p.Ordering, eventOrdering, "performed_at DESC")

	var rows []models.MaintenanceEvent
	count, err := paginate(q, p, &rows)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listEnvelope(count, rows))
}

func GetMaintenanceEvent(c *gin.Context) {
	obj, ok := getEntity[models.MaintenanceEvent](c, false)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, obj)
}

// CreateMaintenanceEvent records a visit and, when the new cycle lands
// after the plan's current due date, advances the plan. Forward only: an
// event backdated into the past never pulls the due date backwards.
func CreateMaintenanceEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, map[string]any{"detail": "Payload non valido."})
		return
	}

	fieldErrors := map[string]any{}
	var obj models.MaintenanceEvent

	if req.Plan == nil || *req.Plan == 0 {
		fieldErrors["plan"] = "Campo obbligatorio."
	} else {
		obj.PlanID = *req.Plan
	}
	if req.Inventory == nil || *req.Inventory == 0 {
		fieldErrors["inventory"] = "Campo obbligatorio."
	} else {
		obj.InventoryID = *req.Inventory
	}
	if req.Tech == nil || *req.Tech == 0 {
		fieldErrors["tech"] = "Campo obbligatorio."
	} else {
		obj.TechID = *req.Tech
	}
	if req.PerformedAt == nil {
		fieldErrors["performed_at"] = "Campo obbligatorio."
	} else if d, err := time.Parse(dateLayout, strings.TrimSpace(*req.PerformedAt)); err == nil {
		obj.PerformedAt = d
	} else {
		fieldErrors["performed_at"] = "Data non valida (atteso YYYY-MM-DD)."
	}
	if req.Result == nil {
		fieldErrors["result"] = "Campo obbligatorio."
	} else {
		switch *req.Result {
		case models.ResultOK, models.ResultKO, models.ResultPartial:
			obj.Result = *req.Result
		default:
			fieldErrors["result"] = "Valore non ammesso."
		}
	}
	if req.Notes != nil {
		obj.Notes = *req.Notes
	}

	var plan models.MaintenancePlan
	if obj.PlanID != 0 {
		if err := database.DB.First(&plan, obj.PlanID).Error; err != nil {
			fieldErrors["plan"] = "Piano inesistente."
		}
	}
	if obj.InventoryID != 0 {
		var inv models.Inventory
		if err := database.DB.First(&inv, obj.InventoryID).Error; err != nil {
			fieldErrors["inventory"] = "Inventario inesistente."
		} else if plan.ID != 0 && inv.CustomerID != plan.CustomerID {
			fieldErrors["inventory"] = "L'inventario appartiene a un altro cliente."
		}
	}
	if obj.TechID != 0 {
		var n int64
		database.DB.Model(&models.Tech{}).Where("id = ?", obj.TechID).Count(&n)
		if n == 0 {
			fieldErrors["tech"] = "Tecnico inesistente."
		}
	}
	if len(fieldErrors) > 0 {
		failValidation(c, fieldErrors)
		return
	}

	actor := middleware.CurrentUser(c)
	prevDue := plan.NextDueDate
	var advancedTo *time.Time

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&obj).Error; err != nil {
			return err
		}
		if next := maintenance.NextDueDateForPlan(&plan, obj.PerformedAt.Year()); next != nil {
			if err := tx.Model(&plan).Update("next_due_date", *next).Error; err != nil {
				return err
			}
			advancedTo = next
		}
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}

	audit.LogEvent(database.DB, audit.Entry{
		Actor:   actor,
		Action:  models.ActionCreate,
		Target:  &obj,
		Changes: audit.BuildChanges(map[string]any{}, eventAuditView(&obj)),
		Request: c.Request,
	})
	if advancedTo != nil {
		audit.LogEvent(database.DB, audit.Entry{
			Actor:  actor,
			Action: models.ActionUpdate,
			Target: &plan,
			Changes: models.JSONMap{
				"next_due_date": map[string]any{
					"from": prevDue.Format(dateLayout),
					"to":   advancedTo.Format(dateLayout),
				},
			},
			Request: c.Request,
		})
	}

	c.JSON(http.StatusCreated, &obj)
}

func DeleteMaintenanceEvent(c *gin.Context) { softDeleteEntity[models.MaintenanceEvent](c) }

func RestoreMaintenanceEvent(c *gin.Context) { restoreEntity[models.MaintenanceEvent](c) }

func ListMaintenanceNotifications(c *gin.Context) {
	p := getListParams(c)

	q := database.WithDeletedFilters(database.DB.Model(&models.MaintenanceNotification{}), p.IncludeDeleted, p.OnlyDeleted, false)
	if plan := c.Query("plan"); plan != "" {
		q = q.Where("plan_id = ?", plan)
	}
	if inventory := c.Query("inventory"); inventory != "" {
		q = q.Where("inventory_id = ?", inventory)
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	q = q.Order("due_date DESC")

	var rows []models.MaintenanceNotification
	count, err := paginate(q, p, &rows)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listEnvelope(count, rows))
}
