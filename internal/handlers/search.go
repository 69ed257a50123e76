package handlers

import (
	"net/http"
	"strings"

	"gestionale/internal/database"
	"gestionale/internal/models"

	"github.com/gin-gonic/gin"
)

const searchGroupLimit = 10

// GlobalSearch runs one free-text query across the main entities and
// returns grouped hits, active rows only.
func GlobalSearch(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusOK, gin.H{
			"customers": []any{}, "sites": []any{}, "inventories": []any{}, "wiki_pages": []any{},
		})
		return
	}

	var customers []models.Customer
	err := applySearch(database.DB.Model(&models.Customer{}), q, "code", "name", "display_name", "vat_number").
		Order("name").Limit(searchGroupLimit).Find(&customers).Error
	if err != nil {
		fail(c, err)
		return
	}

	var sites []models.Site
	err = applySearch(database.DB.Model(&models.Site{}), q, "name", "display_name", "city").
		Order("name").Limit(searchGroupLimit).Find(&sites).Error
	if err != nil {
		fail(c, err)
		return
	}

	var inventories []models.Inventory
	err = applySearch(database.DB.Model(&models.Inventory{}), q, "name", "knumber", "serial_number", "hostname").
		Order("name").Limit(searchGroupLimit).Find(&inventories).Error
	if err != nil {
		fail(c, err)
		return
	}

	var pages []models.WikiPage
	err = applySearch(database.DB.Model(&models.WikiPage{}), q, "title", "slug", "summary").
		Order("title").Limit(searchGroupLimit).Find(&pages).Error
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"customers":   customers,
		"sites":       sites,
		"inventories": inventories,
		"wiki_pages":  pages,
	})
}
