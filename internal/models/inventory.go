package models

import "time"

type Inventory struct {
	Base
	CustomerID uint     `gorm:"not null;index" json:"customer"`
	Customer   Customer `json:"-"`

	SiteID *uint `gorm:"index" json:"site"`
	Site   *Site `json:"-"`

	Name string `gorm:"size:255;not null" json:"name"`

	KNumber      *string `gorm:"column:knumber;size:64;uniqueIndex:ux_inventories_knumber_active,where:deleted_at IS NULL AND knumber IS NOT NULL" json:"knumber"`
	SerialNumber *string `gorm:"size:128;uniqueIndex:ux_inventories_serial_active,where:deleted_at IS NULL AND serial_number IS NOT NULL" json:"serial_number"`

	TypeID uint          `gorm:"not null" json:"type"`
	Type   InventoryType `json:"-"`

	StatusID uint            `gorm:"not null" json:"status"`
	Status   InventoryStatus `json:"-"`

	// Secret columns are stored encrypted at rest (enc:: prefix).
	OSUser string `gorm:"size:128" json:"os_user"`
	OSPwd  string `gorm:"size:512" json:"-"`
	AppUsr string `gorm:"size:128" json:"app_usr"`
	AppPwd string `gorm:"size:512" json:"-"`
	VNCPwd string `gorm:"size:512" json:"-"`

	Hostname string `gorm:"size:255" json:"hostname"`
	LocalIP  string `gorm:"size:64" json:"local_ip"`
	SrsaIP   string `gorm:"size:64" json:"srsa_ip"`

	Manufacturer    string     `gorm:"size:128" json:"manufacturer"`
	Model           string     `gorm:"size:128" json:"model"`
	WarrantyEndDate *time.Time `json:"warranty_end_date"`

	Notes        string     `gorm:"type:text" json:"notes"`
	Tags         StringList `gorm:"type:jsonb" json:"tags"`
	CustomFields JSONMap    `gorm:"type:jsonb" json:"custom_fields"`

	CreatedByID *uint `json:"created_by"`
	UpdatedByID *uint `json:"updated_by"`
}

func (i *Inventory) EntityType() string   { return "inventory" }
func (i *Inventory) DisplayLabel() string { return i.Name }
