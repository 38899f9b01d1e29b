package reference

import (
	"context"
	"testing"

	"github.com/cloudkhata/cloudkhata/internal/reference/domain"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.HSNCode{}))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestActiveByCategoryIsCaseInsensitive(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Create(&domain.HSNCode{
		ServiceCategory: "compute", HSNCode: "998315", SACCode: "998315",
		GSTRate: 18, IsActive: true,
	}).Error)
	repo := NewRepository(db)

	entry, err := repo.ActiveByCategory(context.Background(), "Compute")
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Equal(t, "998315", entry.HSNCode)
}

func TestActiveByCategoryMissReturnsNil(t *testing.T) {
	db := setupDB(t)
	repo := NewRepository(db)

	entry, err := repo.ActiveByCategory(context.Background(), "unknown")
	require.NoError(t, err)
	require.Nil(t, entry)
}

func TestActiveByCategorySkipsInactiveRows(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Create(&domain.HSNCode{
		ServiceCategory: "bandwidth", HSNCode: "998412", SACCode: "998412",
		GSTRate: 18, IsActive: false,
	}).Error)
	repo := NewRepository(db)

	entry, err := repo.ActiveByCategory(context.Background(), "bandwidth")
	require.NoError(t, err)
	require.Nil(t, entry)
}

func TestCachedRepositoryServesFromCache(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Create(&domain.HSNCode{
		ServiceCategory: "database", HSNCode: "998315", SACCode: "998315",
		GSTRate: 18, IsActive: true,
	}).Error)
	repo := NewCachedRepository(db)

	entry, err := repo.ActiveByCategory(context.Background(), "database")
	require.NoError(t, err)
	require.NotNil(t, entry)

	// delete the row; the cached entry keeps serving
	require.NoError(t, db.Where("service_category = ?", "database").Delete(&domain.HSNCode{}).Error)
	entry, err = repo.ActiveByCategory(context.Background(), "database")
	require.NoError(t, err)
	require.NotNil(t, entry)
}
