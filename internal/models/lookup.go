package models

// Lookup tables: small admin-managed key/label sets referenced by the
// business entities. Each keeps its own table so foreign keys stay honest.

type CustomerStatus struct {
	Base
	Key       string `gorm:"size:64;not null;uniqueIndex:ux_customer_statuses_key_active,where:deleted_at IS NULL" json:"key"`
	Label     string `gorm:"size:128;not null" json:"label"`
	SortOrder int    `gorm:"default:0" json:"sort_order"`
	IsActive  bool   `gorm:"default:true" json:"is_active"`
}

func (s *CustomerStatus) EntityType() string   { return "customer_status" }
func (s *CustomerStatus) DisplayLabel() string { return s.Label }

type SiteStatus struct {
	Base
	Key       string `gorm:"size:64;not null;uniqueIndex:ux_site_statuses_key_active,where:deleted_at IS NULL" json:"key"`
	Label     string `gorm:"size:128;not null" json:"label"`
	SortOrder int    `gorm:"default:0" json:"sort_order"`
	IsActive  bool   `gorm:"default:true" json:"is_active"`
}

func (s *SiteStatus) EntityType() string   { return "site_status" }
func (s *SiteStatus) DisplayLabel() string { return s.Label }

type InventoryStatus struct {
	Base
	Key       string `gorm:"size:64;not null;uniqueIndex:ux_inventory_statuses_key_active,where:deleted_at IS NULL" json:"key"`
	Label     string `gorm:"size:128;not null" json:"label"`
	SortOrder int    `gorm:"default:0" json:"sort_order"`
	IsActive  bool   `gorm:"default:true" json:"is_active"`
}

func (s *InventoryStatus) EntityType() string   { return "inventory_status" }
func (s *InventoryStatus) DisplayLabel() string { return s.Label }

type InventoryType struct {
	Base
	Key       string `gorm:"size:64;not null;uniqueIndex:ux_inventory_types_key_active,where:deleted_at IS NULL" json:"key"`
	Label     string `gorm:"size:128;not null" json:"label"`
	SortOrder int    `gorm:"default:0" json:"sort_order"`
	IsActive  bool   `gorm:"default:true" json:"is_active"`
}

func (t *InventoryType) EntityType() string   { return "inventory_type" }
func (t *InventoryType) DisplayLabel() string { return t.Label }
