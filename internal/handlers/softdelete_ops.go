package handlers

import (
	"net/http"
	"time"

	"gestionale/internal/apperr"
	"gestionale/internal/audit"
	"gestionale/internal/database"
	"gestionale/internal/middleware"
	"gestionale/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// entity is what the generic soft-delete/restore plumbing needs from a
// model: an identity for the audit trail and a delete timestamp.
type entity interface {
	models.Auditable
	models.SoftDeletable
}

// getEntity loads :id honoring the soft-delete query flags. A restore
// action always sees soft-deleted rows, whatever the query says.
func getEntity[T any, PT interface {
	*T
	entity
}](c *gin.Context, restore bool) (PT, bool) {
	id, ok := parseID(c)
	if !ok {
		return nil, false
	}

	q := database.WithDeletedFilters(database.DB, c.Query("include_deleted"), c.Query("only_deleted"), restore)

	var obj T
	if err := q.First(&obj, id).Error; err != nil {
		failNotFound(c)
		return nil, false
	}
	return PT(&obj), true
}

// softDeleteEntity stamps deleted_at and audits the delete.
func softDeleteEntity[T any, PT interface {
	*T
	entity
}](c *gin.Context) {
	obj, ok := getEntity[T, PT](c, false)
	if !ok {
		return
	}

	if err := database.DB.Delete(obj).Error; err != nil {
		fail(c, err)
		return
	}

	audit.LogEvent(database.DB, audit.Entry{
		Actor:  middleware.CurrentUser(c),
		Action: models.ActionDelete,
		Target: obj,
		Changes: models.JSONMap{
			"deleted_at": map[string]any{"from": nil, "to": time.Now().Format(time.RFC3339)},
		},
		Request: c.Request,
	})

	c.Status(http.StatusNoContent)
}

// restoreEntity clears deleted_at on a soft-deleted row.
func restoreEntity[T any, PT interface {
	*T
	entity
}](c *gin.Context) {
	obj, ok := getEntity[T, PT](c, true)
	if !ok {
		return
	}

	before := deletedAtValue(obj.GetDeletedAt())

	if err := database.DB.Unscoped().Model(obj).Update("deleted_at", nil).Error; err != nil {
		fail(c, err)
		return
	}
	obj.SetDeletedAt(gorm.DeletedAt{})

	audit.LogEvent(database.DB, audit.Entry{
		Actor:  middleware.CurrentUser(c),
		Action: models.ActionRestore,
		Target: obj,
		Changes: models.JSONMap{
			"deleted_at": map[string]any{"from": before, "to": nil},
		},
		Request: c.Request,
	})

	c.JSON(http.StatusOK, obj)
}

// bulkRestoreEntity restores every soft-deleted row in the ids payload,
// atomically, one audit event per row.
func bulkRestoreEntity[T any, PT interface {
	*T
	entity
}](c *gin.Context) {
	ids, ok := parseBulkIDs(c)
	if !ok {
		return
	}

	var rows []T
	if err := database.DB.Unscoped().
		Where("id IN ?", ids).
		Where("deleted_at IS NOT NULL").
		Find(&rows).Error; err != nil {
		fail(c, err)
		return
	}

	restored := make([]uint, 0, len(rows))
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			obj := PT(&rows[i])
			before := deletedAtValue(obj.GetDeletedAt())

			if err := tx.Unscoped().Model(obj).Update("deleted_at", nil).Error; err != nil {
				return err
			}

			audit.LogEvent(tx, audit.Entry{
				Actor:  middleware.CurrentUser(c),
				Action: models.ActionRestore,
				Target: obj,
				Changes: models.JSONMap{
					"deleted_at": map[string]any{"from": before, "to": nil},
				},
				Request: c.Request,
			})
			restored = append(restored, obj.GetID())
		}
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"restored": restored, "count": len(restored)})
}

// parseBulkIDs accepts {"ids": [1,2,3]} or a raw list.
func parseBulkIDs(c *gin.Context) ([]uint, bool) {
	var raw any
	if err := c.ShouldBindJSON(&raw); err != nil {
		fail(c, apperr.BadRequest("ids must be a non-empty list"))
		return nil, false
	}

	var list []any
	switch t := raw.(type) {
	case map[string]any:
		list, _ = t["ids"].([]any)
	case []any:
		list = t
	}
	if len(list) == 0 {
		fail(c, apperr.BadRequest("ids must be a non-empty list"))
		return nil, false
	}

	ids := make([]uint, 0, len(list))
	for _, v := range list {
		f, ok := v.(float64)
		if !ok || f <= 0 {
			fail(c, apperr.BadRequest("ids must be a non-empty list"))
			return nil, false
		}
		ids = append(ids, uint(f))
	}
	return ids, true
}

func deletedAtValue(at gorm.DeletedAt) any {
	if !at.Valid {
		return nil
	}
	return at.Time.Format(time.RFC3339)
}
