package models

type WikiCategory struct {
	Base
	Name        string `gorm:"size:128;not null;uniqueIndex:ux_wiki_categories_name_active,where:deleted_at IS NULL" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	SortOrder   int    `gorm:"default:0" json:"sort_order"`
}

func (c *WikiCategory) EntityType() string   { return "wiki_category" }
func (c *WikiCategory) DisplayLabel() string { return c.Name }

type WikiPage struct {
	Base
	Title string `gorm:"size:255;not null" json:"title"`
	Slug  string `gorm:"size:255;not null;uniqueIndex:ux_wiki_pages_slug_active,where:deleted_at IS NULL" json:"slug"`

	CategoryID *uint         `gorm:"index" json:"category"`
	Category   *WikiCategory `json:"-"`

	Summary string     `gorm:"type:text" json:"summary"`
	Tags    StringList `gorm:"type:jsonb" json:"tags"`

	ContentMarkdown string `gorm:"type:text;not null" json:"content_markdown"`
	IsPublished     bool   `gorm:"default:true" json:"is_published"`

	CustomFields JSONMap `gorm:"type:jsonb" json:"custom_fields"`
}

func (p *WikiPage) EntityType() string   { return "wiki_page" }
func (p *WikiPage) DisplayLabel() string { return p.Title }
