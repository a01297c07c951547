package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/threemeal/threemeal-backend/internal/app/model"
	"github.com/threemeal/threemeal-backend/internal/db"
	"gorm.io/gorm"
)

func setupRepositoryTest(t *testing.T) *gorm.DB {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

func createTestUser(t *testing.T, testDB *gorm.DB, nickname string) *model.User {
	user := &model.User{
		Nickname:     nickname,
		Email:        nickname + "@example.com",
		PasswordHash: "hashedpassword",
	}
	require.NoError(t, testDB.Create(user).Error)
	return user
}
