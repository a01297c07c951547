package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threemeal/threemeal-backend/internal/app/model"
)

func TestChefApplyRepository(t *testing.T) {
	testDB := setupRepositoryTest(t)
	user := createTestUser(t, testDB, "applicant")
	repo := NewChefApplyRepository(testDB)

	first := &model.ChefApply{ApplicantID: user.ID, Content: "I cook", Status: model.ApplyStatusRefused}
	second := &model.ChefApply{ApplicantID: user.ID, Content: "I cook better", Status: model.ApplyStatusWaiting}
	require.NoError(t, repo.Create(first))
	require.NoError(t, repo.Create(second))

	latest, err := repo.FindLatestByApplicant(user.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	waiting, err := repo.CountByApplicant(user.ID, model.ApplyStatusWaiting, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), waiting)

	excluded, err := repo.CountByApplicant(user.ID, model.ApplyStatusWaiting, second.ID)
	require.NoError(t, err)
	assert.Zero(t, excluded)

	status := model.ApplyStatusWaiting
	list, err := repo.List(&status)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "applicant", list[0].Applicant.Nickname)

	all, err := repo.List(nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
}

func TestChefApplyRepository_UpdateDecisionRequiresExpectedStatus(t *testing.T) {
	testDB := setupRepositoryTest(t)
	user := createTestUser(t, testDB, "applicant")
	admin := createTestUser(t, testDB, "admin")
	repo := NewChefApplyRepository(testDB)

	apply := &model.ChefApply{ApplicantID: user.ID, Content: "I cook", Status: model.ApplyStatusWaiting}
	require.NoError(t, repo.Create(apply))

	locked, err := repo.FindByIDForUpdate(apply.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ApplyStatusWaiting, locked.Status)

	locked.Status = model.ApplyStatusApproved
	locked.AdminID = &admin.ID
	locked.UpdateTime = time.Now()
	require.NoError(t, repo.UpdateDecision(locked, model.ApplyStatusWaiting))

	refused := *locked
	refused.Status = model.ApplyStatusRefused
	assert.ErrorIs(t, repo.UpdateDecision(&refused, model.ApplyStatusWaiting), ErrStatusChanged)

	found, err := repo.FindByID(apply.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ApplyStatusApproved, found.Status)
	require.NotNil(t, found.AdminID)
	assert.Equal(t, admin.ID, *found.AdminID)
}
