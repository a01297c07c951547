package repository

import (
	"github.com/threemeal/threemeal-backend/internal/app/model"
	"github.com/threemeal/threemeal-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChefApplyRepository interface {
	WithTx(tx *gorm.DB) ChefApplyRepository
	Create(apply *model.ChefApply) error
	FindByID(id uint) (*model.ChefApply, error)
	FindByIDForUpdate(id uint) (*model.ChefApply, error)
	FindLatestByApplicant(applicantID uint) (*model.ChefApply, error)
	CountByApplicant(applicantID uint, status model.ApplyStatus, excludeID uint) (int64, error)
	UpdateDecision(apply *model.ChefApply, from model.ApplyStatus) error
	List(status *model.ApplyStatus) ([]model.ChefApply, error)
}

type chefApplyRepository struct {
	db *gorm.DB
}

func NewChefApplyRepository(db *gorm.DB) ChefApplyRepository {
	return &chefApplyRepository{db: db}
}

func (r *chefApplyRepository) WithTx(tx *gorm.DB) ChefApplyRepository {
	return &chefApplyRepository{db: tx}
}

func (r *chefApplyRepository) Create(apply *model.ChefApply) error {
	logger.Debug("Creating chef application", map[string]interface{}{
		"applicant_id": apply.ApplicantID,
	})

	if err := r.db.Omit("Applicant", "Admin").Create(apply).Error; err != nil {
		logger.Error("Failed to create chef application", err, map[string]interface{}{
			"applicant_id": apply.ApplicantID,
		})
		return err
	}
	return nil
}

func (r *chefApplyRepository) FindByID(id uint) (*model.ChefApply, error) {
	var apply model.ChefApply
	if err := r.db.Preload("Applicant").Preload("Admin").First(&apply, id).Error; err != nil {
		logLookupError("Failed to find chef application", err, map[string]interface{}{
			"apply_id": id,
		})
		return nil, err
	}
	return &apply, nil
}

// FindByIDForUpdate locks the application row for the rest of the transaction.
func (r *chefApplyRepository) FindByIDForUpdate(id uint) (*model.ChefApply, error) {
	var apply model.ChefApply
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&apply, id).Error; err != nil {
		logLookupError("Failed to lock chef application", err, map[string]interface{}{
			"apply_id": id,
		})
		return nil, err
	}
	return &apply, nil
}

func (r *chefApplyRepository) FindLatestByApplicant(applicantID uint) (*model.ChefApply, error) {
	var apply model.ChefApply
	err := r.db.Where("applicant_id = ?", applicantID).
		Order("create_time DESC, id DESC").
		First(&apply).Error
	if err != nil {
		logLookupError("Failed to find latest chef application", err, map[string]interface{}{
			"applicant_id": applicantID,
		})
		return nil, err
	}
	return &apply, nil
}

// CountByApplicant counts applications in status, ignoring excludeID when non-zero.
func (r *chefApplyRepository) CountByApplicant(applicantID uint, status model.ApplyStatus, excludeID uint) (int64, error) {
	var count int64
	query := r.db.Model(&model.ChefApply{}).
		Where("applicant_id = ? AND status = ?", applicantID, status)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		logger.Error("Failed to count chef applications", err, map[string]interface{}{
			"applicant_id": applicantID,
			"status":       status,
		})
		return 0, err
	}
	return count, nil
}

// UpdateDecision records the decision if the application is still in status from.
func (r *chefApplyRepository) UpdateDecision(apply *model.ChefApply, from model.ApplyStatus) error {
	result := r.db.Model(&model.ChefApply{}).
		Where("id = ? AND status = ?", apply.ID, from).
		Updates(map[string]interface{}{
			"status":      apply.Status,
			"admin_id":    apply.AdminID,
			"update_time": apply.UpdateTime,
		})
	if result.Error != nil {
		logger.Error("Failed to update chef application", result.Error, map[string]interface{}{
			"apply_id": apply.ID,
			"status":   apply.Status,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusChanged
	}
	return nil
}

// List returns applications newest first, optionally filtered by status.
func (r *chefApplyRepository) List(status *model.ApplyStatus) ([]model.ChefApply, error) {
	applies := []model.ChefApply{}
	query := r.db.Preload("Applicant").Preload("Admin")
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if err := query.Order("id DESC").Find(&applies).Error; err != nil {
		logger.Error("Failed to list chef applications", err)
		return nil, err
	}
	return applies, nil
}
