package handlers

import (
	"net/http"
	"time"

	"gestionale/internal/database"
	"gestionale/internal/models"

	"github.com/gin-gonic/gin"
)

var auditOrdering = map[string]string{
	"created_at":  "created_at",
	"action":      "action",
	"entity_type": "entity_type",
	"actor":       "actor_id",
}

// ListAuditEvents serves the read-only audit trail. There is no write
// path: events only ever come from the audit package.
func ListAuditEvents(c *gin.Context) {
	p := getListParams(c)

	q := database.DB.Model(&models.AuditEvent{})
	if actor := c.Query("actor"); actor != "" {
		q = q.Where("actor_id = ?", actor)
	}
	if action := c.Query("action"); action != "" {
		q = q.Where("action = ?", action)
	}
	if entityType := c.Query("entity_type"); entityType != "" {
		q = q.Where("entity_type = ?", entityType)
	}
	if objectID := c.Query("object_id"); objectID != "" {
		q = q.Where("object_id = ?", objectID)
	}
	if after := c.Query("created_after"); after != "" {
		if d, err := time.Parse(dateLayout, after); err == nil {
			q = q.Where("created_at >= ?", d)
		}
	}
	if before := c.Query("created_before"); before != "" {
		if d, err := time.Parse(dateLayout, before); err == nil {
			// Inclusive of the named day.
			q = q.Where("created_at < ?", d.AddDate(0, 0, 1))
		}
	}
	q = applySearch(q, p.Search, "actor_username", "object_repr", "entity_type", "object_id")
	q = applyOrdering(q, p.Ordering, auditOrdering, "created_at DESC")

	var rows []models.AuditEvent
	count, err := paginate(q, p, &rows)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listEnvelope(count, rows))
}

func GetAuditEvent(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var obj models.AuditEvent
	if err := database.DB.First(&obj, id).Error; err != nil {
		failNotFound(c)
		return
	}
	c.JSON(http.StatusOK, obj)
}

// AuditActors lists the distinct actors appearing in the trail, for the
// UI filter dropdown.
func AuditActors(c *gin.Context) {
	type actor struct {
		ActorID       *uint  `json:"id"`
		ActorUsername string `json:"username"`
	}
	var rows []actor
	err := database.DB.Model(&models.AuditEvent{}).
		Distinct("actor_id", "actor_username").
		Where("actor_id IS NOT NULL").
		Order("actor_username").
		Find(&rows).Error
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// AuditEntities lists the distinct entity types appearing in the trail.
func AuditEntities(c *gin.Context) {
	var rows []string
	err := database.DB.Model(&models.AuditEvent{}).
		Distinct().
		Where("entity_type <> ''").
		Order("entity_type").
		Pluck("entity_type", &rows).Error
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// ListAuthAttempts is the admin view over raw login attempts.
func ListAuthAttempts(c *gin.Context) {
	p := getListParams(c)

	q := database.DB.Model(&models.AuthAttempt{})
	if username := c.Query("username"); username != "" {
		q = q.Where("username = ?", username)
	}
	if success := c.Query("success"); success != "" {
		q = q.Where("success = ?", database.IsTruthy(success))
	}
	q = applySearch(q, p.Search, "username", "ip")
	q = q.Order("created_at DESC")

	var rows []models.AuthAttempt
	count, err := paginate(q, p, &rows)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listEnvelope(count, rows))
}
