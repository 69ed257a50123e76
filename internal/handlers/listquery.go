package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 25
	maxPageSize     = 200
)

// listParams are the query parameters shared by every list endpoint.
type listParams struct {
	Page     int
	PageSize int

	Search   string
	Ordering string

	IncludeDeleted string
	OnlyDeleted    string
}

func getListParams(c *gin.Context) listParams {
	p := listParams{
		Page:           1,
		PageSize:       defaultPageSize,
		Search:         strings.TrimSpace(c.Query("search")),
		Ordering:       strings.TrimSpace(c.Query("ordering")),
		IncludeDeleted: c.Query("include_deleted"),
		OnlyDeleted:    c.Query("only_deleted"),
	}
	if p.Search == "" {
		p.Search = strings.TrimSpace(c.Query("q"))
	}

	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(c.Query("page_size")); err == nil && v > 0 {
		p.PageSize = v
		if p.PageSize > maxPageSize {
			p.PageSize = maxPageSize
		}
	}
	return p
}

// applySearch ORs a case-insensitive LIKE over the given columns.
func applySearch(q *gorm.DB, search string, columns ...string) *gorm.DB {
	if search == "" || len(columns) == 0 {
		return q
	}
	pattern := "%" + strings.ToLower(search) + "%"

	var sb strings.Builder
	args := make([]any, 0, len(columns))
	for i, col := range columns {
		if i > 0 {
			sb.WriteString(" OR ")
		}
		sb.WriteString("LOWER(" + col + ") LIKE ?")
		args = append(args, pattern)
	}
	return q.Where(sb.String(), args...)
}

// applyOrdering maps an ?ordering=field (or -field) onto a whitelisted
// column; anything not in allowed falls back to def.
func applyOrdering(q *gorm.DB, ordering string, allowed map[string]string, def string) *gorm.DB {
	if ordering != "" {
		desc := strings.HasPrefix(ordering, "-")
		field := strings.TrimPrefix(ordering, "-")
		if col, ok := allowed[field]; ok {
			if desc {
				return q.Order(col + " DESC")
			}
			return q.Order(col)
		}
	}
	if def != "" {
		return q.Order(def)
	}
	return q
}

// paginate counts, applies page/page_size and loads the page into dest.
func paginate(q *gorm.DB, p listParams, dest any) (int64, error) {
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	offset := (p.Page - 1) * p.PageSize
	if err := q.Limit(p.PageSize).Offset(offset).Find(dest).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// listEnvelope is the common paginated response shape.
func listEnvelope(count int64, results any) gin.H {
	return gin.H{"count": count, "results": results}
}
