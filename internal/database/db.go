package database

import (
	"time"

	"gestionale/internal/logger"
	"gestionale/internal/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(dsn string) {
	var err error

	const maxAttempts = 10
	for i := 1; i <= maxAttempts; i++ {
		logger.Info("connecting to DB", zap.Int("attempt", i), zap.Int("max", maxAttempts))

		DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err == nil {
			logger.Info("connected to DB")
			break
		}

		logger.Warn("DB connection failed", zap.Error(err))
		time.Sleep(2 * time.Second)
	}

	if err != nil {
		logger.Fatal("could not connect to DB", zap.Int("attempts", maxAttempts), zap.Error(err))
	}

	if err := Migrate(DB); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	SeedLookups(DB)
}

// Migrate creates/updates the schema for every model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.CustomerStatus{},
		&models.SiteStatus{},
		&models.InventoryStatus{},
		&models.InventoryType{},
		&models.Customer{},
		&models.Site{},
		&models.Contact{},
		&models.Inventory{},
		&models.Tech{},
		&models.MaintenancePlan{},
		&models.MaintenanceEvent{},
		&models.MaintenanceNotification{},
		&models.CustomFieldDefinition{},
		&models.WikiCategory{},
		&models.WikiPage{},
		&models.DriveFolder{},
		&models.DriveFile{},
		&models.AuditEvent{},
		&models.AuthAttempt{},
	)
}

// SeedAdmin creates the default admin account when no admin exists.
// Credentials come from the environment (config), never from requests.
func SeedAdmin(db *gorm.DB, username, password string) {
	if username == "" {
		username = "admin@gestionale.local"
	}
	if password == "" {
		password = "Admin123!"
	}

	var count int64
	if err := db.Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Count(&count).Error; err != nil {
		logger.Warn("admin check failed", zap.Error(err))
		return
	}
	if count > 0 {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Warn("hashing default admin password failed", zap.Error(err))
		return
	}

	admin := models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		IsActive:     true,
	}

	if err := db.Create(&admin).Error; err != nil {
		logger.Warn("creating default admin failed", zap.Error(err))
		return
	}

	logger.Info("created default admin user", zap.String("username", username))
}

type lookupSeed struct {
	Key       string
	Label     string
	SortOrder int
}

// SeedLookups inserts the default status/type rows when their tables are
// empty. Existing rows are never touched.
func SeedLookups(db *gorm.DB) {
	seedLookup(db, &models.CustomerStatus{}, []lookupSeed{
		{"active", "Attivo", 10},
		{"prospect", "Prospect", 20},
		{"suspended", "Sospeso", 30},
		{"closed", "Cessato", 40},
	}, func(s lookupSeed) any {
		return &models.CustomerStatus{Key: s.Key, Label: s.Label, SortOrder: s.SortOrder, IsActive: true}
	})

	seedLookup(db, &models.SiteStatus{}, []lookupSeed{
		{"active", "Attivo", 10},
		{"inactive", "Inattivo", 20},
	}, func(s lookupSeed) any {
		return &models.SiteStatus{Key: s.Key, Label: s.Label, SortOrder: s.SortOrder, IsActive: true}
	})

	seedLookup(db, &models.InventoryStatus{}, []lookupSeed{
		{"in_service", "In servizio", 10},
		{"in_repair", "In riparazione", 20},
		{"dismissed", "Dismesso", 30},
	}, func(s lookupSeed) any {
		return &models.InventoryStatus{Key: s.Key, Label: s.Label, SortOrder: s.SortOrder, IsActive: true}
	})

	seedLookup(db, &models.InventoryType{}, []lookupSeed{
		{"server", "Server", 10},
		{"workstation", "Workstation", 20},
		{"printer", "Stampante", 30},
		{"network", "Apparato di rete", 40},
	}, func(s lookupSeed) any {
		return &models.InventoryType{Key: s.Key, Label: s.Label, SortOrder: s.SortOrder, IsActive: true}
	})
}

func seedLookup(db *gorm.DB, model any, seeds []lookupSeed, build func(lookupSeed) any) {
	var count int64
	if err := db.Model(model).Count(&count).Error; err != nil {
		logger.Warn("lookup seed check failed", zap.Error(err))
		return
	}
	if count > 0 {
		return
	}
	for _, s := range seeds {
		if err := db.Create(build(s)).Error; err != nil {
			logger.Warn("lookup seed failed", zap.String("key", s.Key), zap.Error(err))
		}
	}
}
