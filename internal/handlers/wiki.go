package handlers

import (
	"net/http"
	"regexp"
	"strings"

	"gestionale/internal/audit"
	"gestionale/internal/customfields"
	"gestionale/internal/database"
	"gestionale/internal/middleware"
	"gestionale/internal/models"

	"github.com/gin-gonic/gin"
)

var wikiCategoryConstraints = map[string]database.ConstraintMessage{
	"ux_wiki_categories_name_active": {Field: "name", Column: "name", Message: "Nome già in uso."},
}

var wikiPageConstraints = map[string]database.ConstraintMessage{
	"ux_wiki_pages_slug_active": {Field: "slug", Column: "slug", Message: "Slug già in uso."},
}

var wikiPageOrdering = map[string]string{
	"title":      "title",
	"slug":       "slug",
	"category":   "category_id",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

var slugCleanRe = regexp.MustCompile(`[^a-z0-9]+`)

// slugify reduces a title to a url-safe slug, accents stripped the same
// way custom-field keys are.
func slugify(s string) string {
	s = customfields.NormalizeKey(s)
	s = slugCleanRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

type wikiCategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	SortOrder   *int    `json:"sort_order"`
}

func (r wikiCategoryRequest) apply(cat *models.WikiCategory) {
	if r.Name != nil {
		cat.Name = strings.TrimSpace(*r.Name)
	}
	if r.Description != nil {
		cat.Description = *r.Description
	}
	if r.SortOrder != nil {
		cat.SortOrder = *r.SortOrder
	}
}

func wikiCategoryAuditView(cat *models.WikiCategory) map[string]any {
	if cat == nil {
		return map[string]any{}
	}
	return map[string]any{
		"name":        cat.Name,
		"description": cat.Description,
		"sort_order":  cat.SortOrder,
	}
}

func ListWikiCategories(c *gin.Context) {
	p := getListParams(c)

	q := database.WithDeletedFilters(database.DB.Model(&models.WikiCategory{}), p.IncludeDeleted, p.OnlyDeleted, false)
	q = applySearch(q, p.Search, "name", "description")
	q = q.Order("sort_order, name")

	var rows []models.WikiCategory
	count, err := paginate(q, p, &rows)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listEnvelope(count, rows))
}

func GetWikiCategory(c *gin.Context) {
	obj, ok := getEntity[models.WikiCategory](c, false)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, obj)
}

func CreateWikiCategory(c *gin.Context) {
	var req wikiCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, map[string]any{"detail": "Payload non valido."})
		return
	}

	var obj models.WikiCategory
	req.apply(&obj)
	if obj.Name == "" {
		failValidation(c, map[string]any{"name": "Campo obbligatorio."})
		return
	}

	if err := database.DB.Create(&obj).Error; err != nil {
		if ve := database.AsValidationError(err, wikiCategoryConstraints); ve != nil {
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
		Changes: audit.BuildChanges(map[string]any{}, wikiCategoryAuditView(&obj)),
		Request: c.Request,
	})

	c.JSON(http.StatusCreated, &obj)
}

func UpdateWikiCategory(c *gin.Context) {
	obj, ok := getEntity[models.WikiCategory](c, false)
	if !ok {
		return
	}

	var req wikiCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, map[string]any{"detail": "Payload non valido."})
		return
	}

	before := wikiCategoryAuditView(obj)
	req.apply(obj)
	if obj.Name == "" {
		failValidation(c, map[string]any{"name": "Campo obbligatorio."})
		return
	}

	if err := database.DB.Save(obj).Error; err != nil {
		if ve := database.AsValidationError(err, wikiCategoryConstraints); ve != nil {
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
		Changes: audit.BuildChanges(before, wikiCategoryAuditView(obj)),
		Request: c.Request,
	})

	c.JSON(http.StatusOK, obj)
}

func DeleteWikiCategory(c *gin.Context) { softDeleteEntity[models.WikiCategory](c) }

func RestoreWikiCategory(c *gin.Context) { restoreEntity[models.WikiCategory](c) }

type wikiPageRequest struct {
	Title           *string            `json:"title"`
	Slug            *string            `json:"slug"`
	Category        *uint              `json:"category"`
	Summary         *string            `json:"summary"`
	Tags            *models.StringList `json:"tags"`
	ContentMarkdown *string            `json:"content_markdown"`
	IsPublished     *bool              `json:"is_published"`
	CustomFields    map[string]any     `json:"custom_fields"`
}

func (r wikiPageRequest) apply(p *models.WikiPage) {
	if r.Title != nil {
		p.Title = strings.TrimSpace(*r.Title)
	}
	if r.Slug != nil {
		p.Slug = slugify(*r.Slug)
	}
	if r.Category != nil {
		if *r.Category == 0 {
			p.CategoryID = nil
		} else {
			p.CategoryID = r.Category
		}
	}
	if r.Summary != nil {
		p.Summary = *r.Summary
	}
	if r.Tags != nil {
		p.Tags = *r.Tags
	}
	if r.ContentMarkdown != nil {
		p.ContentMarkdown = *r.ContentMarkdown
	}
	if r.IsPublished != nil {
		p.IsPublished = *r.IsPublished
	}
}

func wikiPageAuditView(p *models.WikiPage) map[string]any {
	if p == nil {
		return map[string]any{}
	}
	return map[string]any{
		"title":            p.Title,
		"slug":             p.Slug,
		"category":         p.CategoryID,
		"summary":          p.Summary,
		"tags":             p.Tags,
		"content_markdown": p.ContentMarkdown,
		"is_published":     p.IsPublished,
		"custom_fields":    p.CustomFields,
	}
}

func validateWikiPage(p *models.WikiPage, fieldErrors map[string]any) {
	if p.Title == "" {
		fieldErrors["title"] = "Campo obbligatorio."
	}
	if p.ContentMarkdown == "" {
		fieldErrors["content_markdown"] = "Campo obbligatorio."
	}
	if p.CategoryID != nil {
		var n int64
		database.DB.Model(&models.WikiCategory{}).Where("id = ?", *p.CategoryID).Count(&n)
		if n == 0 {
			fieldErrors["category"] = "Categoria inesistente."
		}
	}
}

func ListWikiPages(c *gin.Context) {
	p := getListParams(c)

	q := database.WithDeletedFilters(database.DB.Model(&models.WikiPage{}), p.IncludeDeleted, p.OnlyDeleted, false)
	if category := c.Query("category"); category != "" {
		q = q.Where("category_id = ?", category)
	}
	if published := c.Query("is_published"); published != "" {
		q = q.Where("is_published = ?", database.IsTruthy(published))
	}
	q = applySearch(q, p.Search, "title", "slug", "summary", "content_markdown")
	q = applyOrdering(q, p.Ordering, wikiPageOrdering, "title")

	var rows []models.WikiPage
	count, err := paginate(q, p, &rows)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listEnvelope(count, rows))
}

func GetWikiPage(c *gin.Context) {
	obj, ok := getEntity[models.WikiPage](c, false)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, obj)
}

func CreateWikiPage(c *gin.Context) {
	var req wikiPageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, map[string]any{"detail": "Payload non valido."})
		return
	}

	obj := models.WikiPage{IsPublished: true}
	req.apply(&obj)
	if obj.Slug == "" {
		obj.Slug = slugify(obj.Title)
	}

	fieldErrors := map[string]any{}
	validateWikiPage(&obj, fieldErrors)

	cf, cfErrs, err := customfields.NormalizeAndValidate(
		customfields.GormSource{DB: database.DB}, models.EntityWikiPage, req.CustomFields, nil, false)
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

	if err := database.DB.Create(&obj).Error; err != nil {
		if ve := database.AsValidationError(err, wikiPageConstraints); ve != nil {
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
		Changes: audit.BuildChanges(map[string]any{}, wikiPageAuditView(&obj)),
		Request: c.Request,
	})

	c.JSON(http.StatusCreated, &obj)
}

func UpdateWikiPage(c *gin.Context) {
	obj, ok := getEntity[models.WikiPage](c, false)
	if !ok {
		return
	}

	var req wikiPageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, map[string]any{"detail": "Payload non valido."})
		return
	}

	before := wikiPageAuditView(obj)
	existingCF := map[string]any(obj.CustomFields)

	req.apply(obj)

	fieldErrors := map[string]any{}
	validateWikiPage(obj, fieldErrors)
	if obj.Slug == "" {
		fieldErrors["slug"] = "Campo obbligatorio."
	}

	cf, cfErrs, err := customfields.NormalizeAndValidate(
		customfields.GormSource{DB: database.DB}, models.EntityWikiPage, req.CustomFields, existingCF, true)
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

	if err := database.DB.Save(obj).Error; err != nil {
		if ve := database.AsValidationError(err, wikiPageConstraints); ve != nil {
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
		Changes: audit.BuildChanges(before, wikiPageAuditView(obj)),
		Request: c.Request,
	})

	c.JSON(http.StatusOK, obj)
}

func DeleteWikiPage(c *gin.Context) { softDeleteEntity[models.WikiPage](c) }

func RestoreWikiPage(c *gin.Context) { restoreEntity[models.WikiPage](c) }

func BulkRestoreWikiPages(c *gin.Context) { bulkRestoreEntity[models.WikiPage](c) }
