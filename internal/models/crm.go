package models

import "fmt"

type Customer struct {
	Base
	Code        *string `gorm:"size:16;uniqueIndex:ux_customers_code_active,where:deleted_at IS NULL AND code IS NOT NULL" json:"code"`
	Name        string  `gorm:"size:255;not null" json:"name"`
	DisplayName string  `gorm:"size:255" json:"display_name"`

	VatNumber *string `gorm:"size:32;uniqueIndex:ux_customers_vat_active,where:deleted_at IS NULL AND vat_number IS NOT NULL" json:"vat_number"`
	TaxCode   *string `gorm:"size:32;uniqueIndex:ux_customers_tax_active,where:deleted_at IS NULL AND tax_code IS NOT NULL" json:"tax_code"`

	StatusID uint           `gorm:"not null" json:"status"`
	Status   CustomerStatus `json:"-"`

	Notes        string     `gorm:"type:text" json:"notes"`
	Tags         StringList `gorm:"type:jsonb" json:"tags"`
	CustomFields JSONMap    `gorm:"type:jsonb" json:"custom_fields"`

	CreatedByID *uint `json:"created_by"`
	UpdatedByID *uint `json:"updated_by"`
}

func (c *Customer) EntityType() string { return "customer" }

func (c *Customer) DisplayLabel() string {
	if c.Code != nil && *c.Code != "" {
		return fmt.Sprintf("%s %s", *c.Code, c.Name)
	}
	return c.Name
}

type Site struct {
	Base
	CustomerID uint     `gorm:"not null;index" json:"customer"`
	Customer   Customer `json:"-"`

	Name        string `gorm:"size:255;not null" json:"name"`
	DisplayName string `gorm:"size:255" json:"display_name"`

	StatusID uint       `gorm:"not null" json:"status"`
	Status   SiteStatus `json:"-"`

	AddressLine1 string `gorm:"size:255" json:"address_line1"`
	City         string `gorm:"size:128" json:"city"`
	PostalCode   string `gorm:"size:16" json:"postal_code"`
	Province     string `gorm:"size:32" json:"province"`
	Country      string `gorm:"size:2;default:IT" json:"country"`

	Notes        string     `gorm:"type:text" json:"notes"`
	Tags         StringList `gorm:"type:jsonb" json:"tags"`
	CustomFields JSONMap    `gorm:"type:jsonb" json:"custom_fields"`

	CreatedByID *uint `json:"created_by"`
	UpdatedByID *uint `json:"updated_by"`
}

func (s *Site) EntityType() string   { return "site" }
func (s *Site) DisplayLabel() string { return s.Name }

type Contact struct {
	Base
	CustomerID uint     `gorm:"not null;index" json:"customer"`
	Customer   Customer `json:"-"`

	SiteID *uint `gorm:"index" json:"site"`
	Site   *Site `json:"-"`

	Name       string `gorm:"size:255;not null" json:"name"`
	Email      string `gorm:"size:255" json:"email"`
	Phone      string `gorm:"size:32" json:"phone"`
	Department string `gorm:"size:255" json:"department"`

	IsPrimary bool   `gorm:"default:false" json:"is_primary"`
	Notes     string `gorm:"type:text" json:"notes"`

	CreatedByID *uint `json:"created_by"`
	UpdatedByID *uint `json:"updated_by"`
}

func (c *Contact) EntityType() string   { return "contact" }
func (c *Contact) DisplayLabel() string { return c.Name }
