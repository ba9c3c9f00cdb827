package services

import (
	"testing"

	"agency_site_go/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens an isolated shared-cache in-memory database so that
// goroutines spawned by the code under test see the same data.
func setupTestDB(t *testing.T) *gorm.DB {
	dbName := "mem_" + uuid.New().String()
	testDB, err := gorm.Open(sqlite.Open("file:"+dbName+"?mode=memory&cache=shared&_busy_timeout=5000"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, testDB.AutoMigrate(models.AllModels()...))

	t.Cleanup(func() {
		if sqlDB, err := testDB.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return testDB
}

func createTestAdmin(t *testing.T, db *gorm.DB, email, password string) *models.AdminUser {
	user, err := CreateAdminUser(db, "Test Admin", email, password, "me")
	require.NoError(t, err)
	return user
}
