package models

// Entities that carry a custom_fields JSON bag.
const (
	EntityCustomer        = "customer"
	EntitySite            = "site"
	EntityInventory       = "inventory"
	EntityMaintenancePlan = "maintenance_plan"
	EntityWikiPage        = "wiki_page"
)

type FieldType string

const (
	FieldText    FieldType = "text"
	FieldNumber  FieldType = "number"
	FieldDate    FieldType = "date"
	FieldSelect  FieldType = "select"
	FieldBoolean FieldType = "boolean"
)

// CustomFieldDefinition is the admin-configured schema for one extra
// attribute of a business entity. The (entity, key) pair is unique among
// active rows.
type CustomFieldDefinition struct {
	Base
	Entity string `gorm:"size:32;not null;uniqueIndex:ux_custom_field_defs_entity_key_active,where:deleted_at IS NULL" json:"entity"`

	// Key is the canonical snake_case spelling used inside custom_fields.
	Key   string `gorm:"size:64;not null;uniqueIndex:ux_custom_field_defs_entity_key_active,where:deleted_at IS NULL" json:"key"`
	Label string `gorm:"size:128;not null" json:"label"`

	FieldType FieldType `gorm:"type:varchar(16);not null;default:text" json:"field_type"`
	Required  bool      `gorm:"default:false" json:"required"`

	// Options: allowed values for select fields.
	Options StringList `gorm:"type:jsonb" json:"options"`

	// Aliases: alternative key spellings accepted from legacy data or
	// user input, normalized before matching.
	Aliases StringList `gorm:"type:jsonb" json:"aliases"`

	HelpText  string `gorm:"size:255" json:"help_text"`
	SortOrder int    `gorm:"default:0" json:"sort_order"`

	IsActive    bool `gorm:"default:true" json:"is_active"`
	IsSensitive bool `gorm:"default:false" json:"is_sensitive"`
}

func (d *CustomFieldDefinition) EntityType() string   { return "custom_field_definition" }
func (d *CustomFieldDefinition) DisplayLabel() string { return d.Entity + ":" + d.Key }
