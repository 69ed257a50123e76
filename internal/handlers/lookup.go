package handlers

import (
	"net/http"

	"gestionale/internal/database"
	"gestionale/internal/models"

	"github.com/gin-gonic/gin"
)

// listLookup returns the active rows of one lookup table, unpaginated and
// ordered for dropdown use.
func listLookup[T any](c *gin.Context) {
	var rows []T
	q := database.DB.Where("is_active = ?", true).Order("sort_order, label")
	if err := q.Find(&rows).Error; err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func ListCustomerStatuses(c *gin.Context) { listLookup[models.CustomerStatus](c) }

func ListSiteStatuses(c *gin.Context) { listLookup[models.SiteStatus](c) }

func ListInventoryStatuses(c *gin.Context) { listLookup[models.InventoryStatus](c) }

func ListInventoryTypes(c *gin.Context) { listLookup[models.InventoryType](c) }
