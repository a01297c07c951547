package repository

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threemeal/threemeal-backend/internal/app/model"
	"gorm.io/gorm"
)

// insertFirst commits a row holding value right before the next insert into
// table runs, as another request would between our lookup and our insert.
func insertFirst(t *testing.T, testDB *gorm.DB, table, column, value string) {
	var once sync.Once
	err := testDB.Callback().Create().Before("gorm:create").Register("test:insert_first", func(db *gorm.DB) {
		if db.Statement.Table != table {
			return
		}
		once.Do(func() {
			db.AddError(db.Session(&gorm.Session{NewDB: true}).
				Exec("INSERT INTO "+table+" ("+column+", created_at) VALUES (?, ?)", value, time.Now()).Error)
		})
	})
	require.NoError(t, err)
}

func TestZipcodeRepository_GetOrCreate(t *testing.T) {
	testDB := setupRepositoryTest(t)
	repo := NewZipcodeRepository(testDB)

	first, err := repo.GetOrCreate("94107")
	require.NoError(t, err)
	second, err := repo.GetOrCreate("94107")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.NotZero(t, first.ID)
}

func TestZipcodeRepository_GetOrCreateAfterConcurrentInsert(t *testing.T) {
	testDB := setupRepositoryTest(t)
	insertFirst(t, testDB, "zipcodes", "code", "94107")
	repo := NewZipcodeRepository(testDB)

	var zip *model.Zipcode
	err := testDB.Transaction(func(tx *gorm.DB) error {
		var err error
		zip, err = repo.WithTx(tx).GetOrCreate("94107")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "94107", zip.Code)
	assert.NotZero(t, zip.ID)

	var count int64
	require.NoError(t, testDB.Model(&model.Zipcode{}).Where("code = ?", "94107").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRoleRepository_GetOrCreateAfterConcurrentInsert(t *testing.T) {
	testDB := setupRepositoryTest(t)
	insertFirst(t, testDB, "roles", "name", "moderator")
	repo := NewRoleRepository(testDB)

	role, err := repo.GetOrCreate(model.RoleName("moderator"))
	require.NoError(t, err)
	assert.Equal(t, model.RoleName("moderator"), role.Name)
	assert.NotZero(t, role.ID)

	var count int64
	require.NoError(t, testDB.Model(&model.Role{}).Where("name = ?", "moderator").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
