package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threemeal/threemeal-backend/internal/app/model"
	"github.com/threemeal/threemeal-backend/internal/app/repository"
	"gorm.io/gorm"
)

func setupChefApplyServiceTest(t *testing.T) (ChefApplyService, *gorm.DB, model.Principal) {
	testDB := setupServiceDB(t)
	svc := NewChefApplyService(
		testDB,
		repository.NewChefApplyRepository(testDB),
		repository.NewUserRepository(testDB),
		repository.NewRoleRepository(testDB),
	)
	admin := createUser(t, testDB, "admin", model.RoleCustomer, model.RoleAdmin)
	return svc, testDB, principalOf(admin)
}

func isChef(t *testing.T, testDB *gorm.DB, userID uint) bool {
	user, err := repository.NewUserRepository(testDB).FindByID(userID)
	require.NoError(t, err)
	return HasRole(user, model.RoleChef)
}

func TestChefApplyService_Apply(t *testing.T) {
	svc, testDB, _ := setupChefApplyServiceTest(t)
	user := createUser(t, testDB, "cook", model.RoleCustomer)

	_, err := svc.Apply(user.ID, "   ")
	assert.ErrorIs(t, err, ErrApplyContentMissing)

	apply, err := svc.Apply(user.ID, "I cook soups")
	require.NoError(t, err)
	assert.Equal(t, model.ApplyStatusWaiting, apply.Status)

	_, err = svc.Apply(user.ID, "again")
	assert.ErrorIs(t, err, ErrAlreadyApplied)

	status, err := svc.StatusFor(user.ID)
	require.NoError(t, err)
	assert.Equal(t, apply.ID, status.ID)

	_, err = svc.StatusFor(9999)
	assert.ErrorIs(t, err, ErrApplyNotFound)
}

func TestChefApplyService_ApproveGrantsChef(t *testing.T) {
	svc, testDB, admin := setupChefApplyServiceTest(t)
	user := createUser(t, testDB, "cook", model.RoleCustomer)
	apply, err := svc.Apply(user.ID, "I cook soups")
	require.NoError(t, err)

	_, err = svc.Approve(principalOf(user), apply.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.False(t, isChef(t, testDB, user.ID))

	approved, err := svc.Approve(admin, apply.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ApplyStatusApproved, approved.Status)
	require.NotNil(t, approved.AdminID)
	assert.Equal(t, admin.UserID, *approved.AdminID)
	assert.True(t, isChef(t, testDB, user.ID))

	again, err := svc.Approve(admin, apply.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ApplyStatusApproved, again.Status)
	assert.True(t, isChef(t, testDB, user.ID))

	_, err = svc.Refuse(admin, apply.ID)
	assert.ErrorIs(t, err, ErrApplyAlreadyDecided)
	assert.True(t, isChef(t, testDB, user.ID))

	_, err = svc.Approve(admin, 9999)
	assert.ErrorIs(t, err, ErrApplyNotFound)
}

func TestChefApplyService_RefuseKeepsRoleBackedByOtherApproval(t *testing.T) {
	svc, testDB, admin := setupChefApplyServiceTest(t)
	user := createUser(t, testDB, "cook", model.RoleCustomer)

	first, err := svc.Apply(user.ID, "first")
	require.NoError(t, err)
	_, err = svc.Approve(admin, first.ID)
	require.NoError(t, err)

	second, err := svc.Apply(user.ID, "second")
	require.NoError(t, err)
	refused, err := svc.Refuse(admin, second.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ApplyStatusRefused, refused.Status)
	assert.True(t, isChef(t, testDB, user.ID), "first approval still backs the role")

	_, err = svc.Refuse(admin, second.ID)
	require.NoError(t, err)

	_, err = svc.Approve(admin, second.ID)
	assert.ErrorIs(t, err, ErrApplyAlreadyDecided)
}

func TestChefApplyService_RefuseRevokesUnbackedRole(t *testing.T) {
	svc, testDB, admin := setupChefApplyServiceTest(t)
	user := createUser(t, testDB, "cook", model.RoleCustomer, model.RoleChef)

	apply, err := svc.Apply(user.ID, "please")
	require.NoError(t, err)
	_, err = svc.Refuse(admin, apply.ID)
	require.NoError(t, err)
	assert.False(t, isChef(t, testDB, user.ID))

	reloaded, err := repository.NewUserRepository(testDB).FindByID(user.ID)
	require.NoError(t, err)
	assert.True(t, HasRole(reloaded, model.RoleCustomer))
}

func TestChefApplyService_ListApplies(t *testing.T) {
	svc, testDB, admin := setupChefApplyServiceTest(t)
	a := createUser(t, testDB, "a", model.RoleCustomer)
	b := createUser(t, testDB, "b", model.RoleCustomer)

	first, err := svc.Apply(a.ID, "a")
	require.NoError(t, err)
	second, err := svc.Apply(b.ID, "b")
	require.NoError(t, err)
	_, err = svc.Approve(admin, first.ID)
	require.NoError(t, err)

	all, err := svc.ListApplies(admin, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	waiting, err := ParseApplyFilter("waiting")
	require.NoError(t, err)
	list, err := svc.ListApplies(admin, waiting)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)

	_, err = svc.ListApplies(principalOf(a), nil)
	assert.ErrorIs(t, err, ErrForbidden)

	none, err := ParseApplyFilter("ALL")
	require.NoError(t, err)
	assert.Nil(t, none)
	_, err = ParseApplyFilter("pending")
	assert.ErrorIs(t, err, ErrInvalidApplyFilter)

	got, err := svc.GetApply(admin, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "b", got.Applicant.Nickname)
}

// staleApplyRepository reports the status an admin saw before another
// admin's decision committed.
type staleApplyRepository struct {
	repository.ChefApplyRepository
	status model.ApplyStatus
}

func (r staleApplyRepository) WithTx(tx *gorm.DB) repository.ChefApplyRepository {
	return staleApplyRepository{ChefApplyRepository: r.ChefApplyRepository.WithTx(tx), status: r.status}
}

func (r staleApplyRepository) FindByIDForUpdate(id uint) (*model.ChefApply, error) {
	apply, err := r.ChefApplyRepository.FindByIDForUpdate(id)
	if err == nil {
		apply.Status = r.status
	}
	return apply, err
}

func TestChefApplyService_RefuseAfterConcurrentApprovalIsRejected(t *testing.T) {
	svc, testDB, admin := setupChefApplyServiceTest(t)
	user := createUser(t, testDB, "cook", model.RoleCustomer)

	apply, err := svc.Apply(user.ID, "I cook soups")
	require.NoError(t, err)
	_, err = svc.Approve(admin, apply.ID)
	require.NoError(t, err)

	racing := NewChefApplyService(
		testDB,
		staleApplyRepository{
			ChefApplyRepository: repository.NewChefApplyRepository(testDB),
			status:              model.ApplyStatusWaiting,
		},
		repository.NewUserRepository(testDB),
		repository.NewRoleRepository(testDB),
	)
	_, err = racing.Refuse(admin, apply.ID)
	assert.ErrorIs(t, err, ErrApplyAlreadyDecided)

	current, err := svc.GetApply(admin, apply.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ApplyStatusApproved, current.Status)
	assert.True(t, isChef(t, testDB, user.ID), "approval still stands")
}
