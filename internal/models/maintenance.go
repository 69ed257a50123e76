package models

import "time"

type Tech struct {
	Base
	FirstName string `gorm:"size:128;not null" json:"first_name"`
	LastName  string `gorm:"size:128;not null" json:"last_name"`
	Email     string `gorm:"size:255;not null" json:"email"`
	Phone     string `gorm:"size:32" json:"phone"`
	Notes     string `gorm:"type:text" json:"notes"`
	IsActive  bool   `gorm:"default:true" json:"is_active"`
}

func (t *Tech) EntityType() string { return "tech" }

func (t *Tech) DisplayLabel() string {
	if t.LastName == "" {
		return t.FirstName
	}
	return t.FirstName + " " + t.LastName
}

type ScheduleType string

const (
	ScheduleInterval  ScheduleType = "interval"
	ScheduleFixedDate ScheduleType = "fixed_date"
)

type IntervalUnit string

const (
	UnitDays   IntervalUnit = "days"
	UnitWeeks  IntervalUnit = "weeks"
	UnitMonths IntervalUnit = "months"
	UnitYears  IntervalUnit = "years"
)

// MaintenancePlan covers every active inventory of the customer whose type
// is in the plan's type set.
type MaintenancePlan struct {
	Base
	CustomerID uint     `gorm:"not null;index" json:"customer"`
	Customer   Customer `json:"-"`

	InventoryTypes []InventoryType `gorm:"many2many:maintenance_plan_inventory_types" json:"-"`

	Title string `gorm:"size:255;not null" json:"title"`

	ScheduleType ScheduleType `gorm:"type:varchar(16);not null" json:"schedule_type"`

	// interval mode
	IntervalUnit  *IntervalUnit `gorm:"type:varchar(16)" json:"interval_unit"`
	IntervalValue *int          `json:"interval_value"`

	// fixed_date mode
	FixedMonth *int `json:"fixed_month"`
	FixedDay   *int `json:"fixed_day"`

	NextDueDate     time.Time `gorm:"type:date;not null" json:"next_due_date"`
	AlertDaysBefore int       `gorm:"default:14" json:"alert_days_before"`
	IsActive        bool      `gorm:"default:true" json:"is_active"`

	Notes        string  `gorm:"type:text" json:"notes"`
	CustomFields JSONMap `gorm:"type:jsonb" json:"custom_fields"`
}

func (p *MaintenancePlan) EntityType() string   { return "maintenance_plan" }
func (p *MaintenancePlan) DisplayLabel() string { return p.Title }

type MaintenanceResult string

const (
	ResultOK      MaintenanceResult = "ok"
	ResultKO      MaintenanceResult = "ko"
	ResultPartial MaintenanceResult = "partial"
)

// MaintenanceEvent is the signed-off report of one maintenance visit:
// the plan is the context, the inventory is the object worked on.
type MaintenanceEvent struct {
	Base
	PlanID uint            `gorm:"not null;index" json:"plan"`
	Plan   MaintenancePlan `json:"-"`

	InventoryID uint      `gorm:"not null;index" json:"inventory"`
	Inventory   Inventory `json:"-"`

	PerformedAt time.Time         `gorm:"type:date;not null" json:"performed_at"`
	Result      MaintenanceResult `gorm:"type:varchar(16);not null" json:"result"`

	TechID uint   `gorm:"not null" json:"tech"`
	Tech   Tech   `json:"-"`
	Notes  string `gorm:"type:text" json:"notes"`
}

func (e *MaintenanceEvent) EntityType() string { return "maintenance_event" }

func (e *MaintenanceEvent) DisplayLabel() string {
	return e.PerformedAt.Format("2006-01-02") + " " + string(e.Result)
}

type NotificationStatus string

const (
	NotificationSent   NotificationStatus = "sent"
	NotificationFailed NotificationStatus = "failed"
)

// MaintenanceNotification rows de-duplicate alerts per (plan, inventory,
// due date) via the partial unique index.
type MaintenanceNotification struct {
	Base
	PlanID uint            `gorm:"not null;uniqueIndex:ux_maint_notif_plan_inv_due_active,where:deleted_at IS NULL" json:"plan"`
	Plan   MaintenancePlan `json:"-"`

	InventoryID uint      `gorm:"not null;uniqueIndex:ux_maint_notif_plan_inv_due_active,where:deleted_at IS NULL" json:"inventory"`
	Inventory   Inventory `json:"-"`

	DueDate time.Time `gorm:"type:date;not null;uniqueIndex:ux_maint_notif_plan_inv_due_active,where:deleted_at IS NULL" json:"due_date"`
	SentAt  time.Time `json:"sent_at"`

	RecipientInternal string `gorm:"size:255" json:"recipient_internal"`
	RecipientTech     string `gorm:"size:255" json:"recipient_tech"`

	Status       NotificationStatus `gorm:"type:varchar(16);not null" json:"status"`
	ErrorMessage string             `gorm:"type:text" json:"error_message"`
}

func (n *MaintenanceNotification) EntityType() string { return "maintenance_notification" }

func (n *MaintenanceNotification) DisplayLabel() string {
	return n.DueDate.Format("2006-01-02") + " " + string(n.Status)
}
