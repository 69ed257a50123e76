package database

import (
	"testing"

	"gestionale/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Migrate(db))
	return db
}

func seedCustomers(t *testing.T, db *gorm.DB) (active, deleted models.Customer) {
	t.Helper()

	status := models.CustomerStatus{Key: "active", Label: "Attivo", IsActive: true}
	require.NoError(t, db.Create(&status).Error)

	active = models.Customer{Name: "ACME", StatusID: status.ID}
	require.NoError(t, db.Create(&active).Error)

	deleted = models.Customer{Name: "Ghost", StatusID: status.ID}
	require.NoError(t, db.Create(&deleted).Error)
	require.NoError(t, db.Delete(&deleted).Error)

	return active, deleted
}

func customerNames(t *testing.T, q *gorm.DB) []string {
	t.Helper()
	var names []string
	require.NoError(t, q.Model(&models.Customer{}).Order("name").Pluck("name", &names).Error)
	return names
}

func TestIsTruthy(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"1", "true", "TRUE", " yes ", "on"} {
		assert.True(t, IsTruthy(s), s)
	}
	for _, s := range []string{"", "0", "false", "no", "off", "2", "si"} {
		assert.False(t, IsTruthy(s), s)
	}
}

func TestWithDeletedFilters(t *testing.T) {
	db := openTestDB(t)
	seedCustomers(t, db)

	t.Run("default excludes deleted", func(t *testing.T) {
		q := WithDeletedFilters(db, "", "", false)
		assert.Equal(t, []string{"ACME"}, customerNames(t, q))
	})

	t.Run("include_deleted sees everything", func(t *testing.T) {
		q := WithDeletedFilters(db, "1", "", false)
		assert.Equal(t, []string{"ACME", "Ghost"}, customerNames(t, q))
	})

	t.Run("only_deleted sees only the stamped rows", func(t *testing.T) {
		q := WithDeletedFilters(db, "", "true", false)
		assert.Equal(t, []string{"Ghost"}, customerNames(t, q))
	})

	t.Run("only_deleted wins over include_deleted", func(t *testing.T) {
		q := WithDeletedFilters(db, "1", "1", false)
		assert.Equal(t, []string{"Ghost"}, customerNames(t, q))
	})

	t.Run("restore always sees deleted rows", func(t *testing.T) {
		q := WithDeletedFilters(db, "", "", true)
		assert.Equal(t, []string{"ACME", "Ghost"}, customerNames(t, q))
	})

	t.Run("falsy flags keep the default", func(t *testing.T) {
		q := WithDeletedFilters(db, "0", "no", false)
		assert.Equal(t, []string{"ACME"}, customerNames(t, q))
	})
}

func TestSoftDeleteKeepsRow(t *testing.T) {
	db := openTestDB(t)
	_, deleted := seedCustomers(t, db)

	// Gone from default queries, still physically present.
	var count int64
	require.NoError(t, db.Model(&models.Customer{}).Where("id = ?", deleted.ID).Count(&count).Error)
	assert.Zero(t, count)

	require.NoError(t, db.Unscoped().Model(&models.Customer{}).Where("id = ?", deleted.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestPartialUniqueAllowsReuseAfterDelete(t *testing.T) {
	db := openTestDB(t)

	status := models.CustomerStatus{Key: "active", Label: "Attivo", IsActive: true}
	require.NoError(t, db.Create(&status).Error)

	code := "C-000001"
	first := models.Customer{Name: "First", Code: &code, StatusID: status.ID}
	require.NoError(t, db.Create(&first).Error)

	dup := models.Customer{Name: "Dup", Code: &code, StatusID: status.ID}
	err := db.Create(&dup).Error
	require.Error(t, err, "active duplicate must violate the partial index")

	ve := AsValidationError(err, map[string]ConstraintMessage{
		"ux_customers_code_active": {Field: "code", Column: "code", Message: "Codice già in uso."},
	})
	require.NotNil(t, ve)
	assert.Equal(t, "Codice già in uso.", ve.Fields["code"])

	// Soft-deleting the holder frees the code for a new active row.
	require.NoError(t, db.Delete(&first).Error)
	require.NoError(t, db.Create(&models.Customer{Name: "Third", Code: &code, StatusID: status.ID}).Error)
}

func TestAsValidationErrorIgnoresOtherErrors(t *testing.T) {
	t.Parallel()

	assert.Nil(t, AsValidationError(nil, nil))
	assert.Nil(t, AsValidationError(gorm.ErrRecordNotFound, nil))
}
