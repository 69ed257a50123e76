package server

import (
	"net/http"
	"time"

	"gestionale/internal/config"
	"gestionale/internal/handlers"
	"gestionale/internal/middleware"
	"gestionale/internal/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func NewRouter(cfg *config.Config) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "X-CSRF-Token"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   !cfg.Debug,
		MaxAge:   86400 * 14,
	})
	r.Use(sessions.Sessions("gestionale_session", store))

	r.Use(middleware.InjectUser())

	handlers.SetMediaRoot(cfg.MediaRoot)

	api := r.Group("/api")

	// AUTH
	api.GET("/auth/csrf", handlers.CSRF)
	api.POST("/auth/login", handlers.Login)
	api.POST("/auth/logout", handlers.Logout)

	auth := api.Group("/")
	auth.Use(middleware.RequireAuth())

	auth.GET("/auth/me", handlers.Me)

	// LOOKUPS
	auth.GET("/customer-statuses", handlers.ListCustomerStatuses)
	auth.GET("/site-statuses", handlers.ListSiteStatuses)
	auth.GET("/inventory-statuses", handlers.ListInventoryStatuses)
	auth.GET("/inventory-types", handlers.ListInventoryTypes)

	// CRM
	auth.GET("/customers", handlers.ListCustomers)
	auth.GET("/customers/:id", handlers.GetCustomer)
	auth.POST("/customers", middleware.RequireWriter(), handlers.CreateCustomer)
	auth.PUT("/customers/:id", middleware.RequireWriter(), handlers.UpdateCustomer)
	auth.PATCH("/customers/:id", middleware.RequireWriter(), handlers.UpdateCustomer)
	auth.DELETE("/customers/:id", middleware.RequireWriter(), handlers.DeleteCustomer)
	auth.POST("/customers/:id/restore", middleware.RequireWriter(), handlers.RestoreCustomer)
	auth.POST("/customers/bulk-restore", middleware.RequireWriter(), handlers.BulkRestoreCustomers)

	auth.GET("/sites", handlers.ListSites)
	auth.GET("/sites/:id", handlers.GetSite)
	auth.POST("/sites", middleware.RequireWriter(), handlers.CreateSite)
	auth.PUT("/sites/:id", middleware.RequireWriter(), handlers.UpdateSite)
	auth.PATCH("/sites/:id", middleware.RequireWriter(), handlers.UpdateSite)
	auth.DELETE("/sites/:id", middleware.RequireWriter(), handlers.DeleteSite)
	auth.POST("/sites/:id/restore", middleware.RequireWriter(), handlers.RestoreSite)
	auth.POST("/sites/bulk-restore", middleware.RequireWriter(), handlers.BulkRestoreSites)

	auth.GET("/contacts", handlers.ListContacts)
	auth.GET("/contacts/:id", handlers.GetContact)
	auth.POST("/contacts", middleware.RequireWriter(), handlers.CreateContact)
	auth.PUT("/contacts/:id", middleware.RequireWriter(), handlers.UpdateContact)
	auth.PATCH("/contacts/:id", middleware.RequireWriter(), handlers.UpdateContact)
	auth.DELETE("/contacts/:id", middleware.RequireWriter(), handlers.DeleteContact)
	auth.POST("/contacts/:id/restore", middleware.RequireWriter(), handlers.RestoreContact)
	auth.POST("/contacts/bulk-restore", middleware.RequireWriter(), handlers.BulkRestoreContacts)

	// INVENTORY
	auth.GET("/inventories", handlers.ListInventories)
	auth.GET("/inventories/:id", handlers.GetInventory)
	auth.POST("/inventories", middleware.RequireWriter(), handlers.CreateInventory)
	auth.PUT("/inventories/:id", middleware.RequireWriter(), handlers.UpdateInventory)
	auth.PATCH("/inventories/:id", middleware.RequireWriter(), handlers.UpdateInventory)
	auth.DELETE("/inventories/:id", middleware.RequireWriter(), handlers.DeleteInventory)
	auth.POST("/inventories/:id/restore", middleware.RequireWriter(), handlers.RestoreInventory)
	auth.POST("/inventories/bulk-restore", middleware.RequireWriter(), handlers.BulkRestoreInventories)

	// MAINTENANCE
	auth.GET("/techs", handlers.ListTechs)
	auth.GET("/techs/:id", handlers.GetTech)
	auth.POST("/techs", middleware.RequireWriter(), handlers.CreateTech)
	auth.PUT("/techs/:id", middleware.RequireWriter(), handlers.UpdateTech)
	auth.PATCH("/techs/:id", middleware.RequireWriter(), handlers.UpdateTech)
	auth.DELETE("/techs/:id", middleware.RequireWriter(), handlers.DeleteTech)
	auth.POST("/techs/:id/restore", middleware.RequireWriter(), handlers.RestoreTech)
	auth.POST("/techs/bulk-restore", middleware.RequireWriter(), handlers.BulkRestoreTechs)

	auth.GET("/maintenance-plans", handlers.ListMaintenancePlans)
	auth.GET("/maintenance-plans/compute-due-date", handlers.ComputeDueDate)
	auth.GET("/maintenance-plans/:id", handlers.GetMaintenancePlan)
	auth.POST("/maintenance-plans", middleware.RequireWriter(), handlers.CreateMaintenancePlan)
	auth.PUT("/maintenance-plans/:id", middleware.RequireWriter(), handlers.UpdateMaintenancePlan)
	auth.PATCH("/maintenance-plans/:id", middleware.RequireWriter(), handlers.UpdateMaintenancePlan)
	auth.DELETE("/maintenance-plans/:id", middleware.RequireWriter(), handlers.DeleteMaintenancePlan)
	auth.POST("/maintenance-plans/:id/restore", middleware.RequireWriter(), handlers.RestoreMaintenancePlan)
	auth.POST("/maintenance-plans/bulk-restore", middleware.RequireWriter(), handlers.BulkRestoreMaintenancePlans)

	auth.GET("/maintenance-events", handlers.ListMaintenanceEvents)
	auth.GET("/maintenance-events/:id", handlers.GetMaintenanceEvent)
	auth.POST("/maintenance-events", middleware.RequireWriter(), handlers.CreateMaintenanceEvent)
	auth.DELETE("/maintenance-events/:id", middleware.RequireWriter(), handlers.DeleteMaintenanceEvent)
	auth.POST("/maintenance-events/:id/restore", middleware.RequireWriter(), handlers.RestoreMaintenanceEvent)

	auth.GET("/maintenance-notifications", handlers.ListMaintenanceNotifications)

	// CUSTOM FIELDS (reads open, writes admin-only)
	auth.GET("/custom-field-definitions", handlers.ListCustomFieldDefinitions)
	auth.GET("/custom-field-definitions/:id", handlers.GetCustomFieldDefinition)

	admin := auth.Group("/")
	admin.Use(middleware.RequireRole(models.RoleAdmin))

	admin.POST("/custom-field-definitions", handlers.CreateCustomFieldDefinition)
	admin.PUT("/custom-field-definitions/:id", handlers.UpdateCustomFieldDefinition)
	admin.PATCH("/custom-field-definitions/:id", handlers.UpdateCustomFieldDefinition)
	admin.DELETE("/custom-field-definitions/:id", handlers.DeleteCustomFieldDefinition)
	admin.POST("/custom-field-definitions/:id/restore", handlers.RestoreCustomFieldDefinition)
	admin.POST("/custom-field-definitions/bulk-restore", handlers.BulkRestoreCustomFieldDefinitions)

	// USERS (admin-only)
	admin.GET("/users", handlers.ListUsers)
	admin.GET("/users/:id", handlers.GetUser)
	admin.POST("/users", handlers.CreateUser)
	admin.PUT("/users/:id", handlers.UpdateUser)
	admin.PATCH("/users/:id", handlers.UpdateUser)
	admin.DELETE("/users/:id", handlers.DeleteUser)
	admin.POST("/users/:id/restore", handlers.RestoreUser)

	// AUDIT (admin-only, read-only)
	admin.GET("/audit-events", handlers.ListAuditEvents)
	admin.GET("/audit-events/actors", handlers.AuditActors)
	admin.GET("/audit-events/entities", handlers.AuditEntities)
	admin.GET("/audit-events/:id", handlers.GetAuditEvent)
	admin.GET("/auth-attempts", handlers.ListAuthAttempts)

	// WIKI
	auth.GET("/wiki/categories", handlers.ListWikiCategories)
	auth.GET("/wiki/categories/:id", handlers.GetWikiCategory)
	auth.POST("/wiki/categories", middleware.RequireWriter(), handlers.CreateWikiCategory)
	auth.PUT("/wiki/categories/:id", middleware.RequireWriter(), handlers.UpdateWikiCategory)
	auth.PATCH("/wiki/categories/:id", middleware.RequireWriter(), handlers.UpdateWikiCategory)
	auth.DELETE("/wiki/categories/:id", middleware.RequireWriter(), handlers.DeleteWikiCategory)
	auth.POST("/wiki/categories/:id/restore", middleware.RequireWriter(), handlers.RestoreWikiCategory)

	auth.GET("/wiki/pages", handlers.ListWikiPages)
	auth.GET("/wiki/pages/:id", handlers.GetWikiPage)
	auth.POST("/wiki/pages", middleware.RequireWriter(), handlers.CreateWikiPage)
	auth.PUT("/wiki/pages/:id", middleware.RequireWriter(), handlers.UpdateWikiPage)
	auth.PATCH("/wiki/pages/:id", middleware.RequireWriter(), handlers.UpdateWikiPage)
	auth.DELETE("/wiki/pages/:id", middleware.RequireWriter(), handlers.DeleteWikiPage)
	auth.POST("/wiki/pages/:id/restore", middleware.RequireWriter(), handlers.RestoreWikiPage)
	auth.POST("/wiki/pages/bulk-restore", middleware.RequireWriter(), handlers.BulkRestoreWikiPages)

	// DRIVE
	auth.GET("/drive/folders", handlers.ListDriveFolders)
	auth.GET("/drive/folders/:id", handlers.GetDriveFolder)
	auth.POST("/drive/folders", middleware.RequireWriter(), handlers.CreateDriveFolder)
	auth.PUT("/drive/folders/:id", middleware.RequireWriter(), handlers.UpdateDriveFolder)
	auth.PATCH("/drive/folders/:id", middleware.RequireWriter(), handlers.UpdateDriveFolder)
	auth.DELETE("/drive/folders/:id", middleware.RequireWriter(), handlers.DeleteDriveFolder)
	auth.POST("/drive/folders/:id/restore", middleware.RequireWriter(), handlers.RestoreDriveFolder)

	auth.GET("/drive/files", handlers.ListDriveFiles)
	auth.GET("/drive/files/:id", handlers.GetDriveFile)
	auth.GET("/drive/files/:id/download", handlers.DownloadDriveFile)
	auth.POST("/drive/files", middleware.RequireWriter(), handlers.UploadDriveFile)
	auth.PUT("/drive/files/:id", middleware.RequireWriter(), handlers.UpdateDriveFile)
	auth.PATCH("/drive/files/:id", middleware.RequireWriter(), handlers.UpdateDriveFile)
	auth.DELETE("/drive/files/:id", middleware.RequireWriter(), handlers.DeleteDriveFile)
	auth.POST("/drive/files/:id/restore", middleware.RequireWriter(), handlers.RestoreDriveFile)

	// SEARCH
	auth.GET("/search", handlers.GlobalSearch)

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	return r
}
