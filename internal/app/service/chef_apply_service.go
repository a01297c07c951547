package service

import (
	"errors"
	"strings"
	"time"

	"github.com/threemeal/threemeal-backend/internal/app/model"
	"github.com/threemeal/threemeal-backend/internal/app/repository"
	"github.com/threemeal/threemeal-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrAlreadyApplied      = errors.New("an application is already waiting for review")
	ErrApplyNotFound       = errors.New("chef application not found")
	ErrApplyAlreadyDecided = errors.New("chef application was already decided the other way")
	ErrApplyContentMissing = errors.New("application content is required")
	ErrInvalidApplyFilter  = errors.New("apply filter must be all, waiting, approved or refused")
)

// ParseApplyFilter maps a listing filter to a status; "all" yields nil.
func ParseApplyFilter(s string) (*model.ApplyStatus, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "all" {
		return nil, nil
	}
	status := model.ApplyStatus(s)
	if !status.IsValid() {
		return nil, ErrInvalidApplyFilter
	}
	return &status, nil
}

type ChefApplyService interface {
	Apply(userID uint, content string) (*model.ChefApply, error)
	Approve(p model.Principal, applyID uint) (*model.ChefApply, error)
	Refuse(p model.Principal, applyID uint) (*model.ChefApply, error)
	StatusFor(userID uint) (*model.ChefApply, error)
	GetApply(p model.Principal, applyID uint) (*model.ChefApply, error)
	ListApplies(p model.Principal, status *model.ApplyStatus) ([]model.ChefApply, error)
}

type chefApplyService struct {
	db        *gorm.DB
	applyRepo repository.ChefApplyRepository
	userRepo  repository.UserRepository
	roleRepo  repository.RoleRepository
	now       func() time.Time
}

func NewChefApplyService(
	db *gorm.DB,
	applyRepo repository.ChefApplyRepository,
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
) ChefApplyService {
	return &chefApplyService{
		db:        db,
		applyRepo: applyRepo,
		userRepo:  userRepo,
		roleRepo:  roleRepo,
		now:       time.Now,
	}
}

func (s *chefApplyService) Apply(userID uint, content string) (*model.ChefApply, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrApplyContentMissing
	}

	apply := &model.ChefApply{
		ApplicantID: userID,
		Content:     content,
		Status:      model.ApplyStatusWaiting,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		applies := s.applyRepo.WithTx(tx)
		waiting, err := applies.CountByApplicant(userID, model.ApplyStatusWaiting, 0)
		if err != nil {
			return err
		}
		if waiting > 0 {
			return ErrAlreadyApplied
		}
		return applies.Create(apply)
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyApplied) {
			logger.Warn("Duplicate chef application rejected", map[string]interface{}{
				"user_id": userID,
			})
		}
		return nil, err
	}

	logger.Info("Chef application submitted", map[string]interface{}{
		"apply_id": apply.ID,
		"user_id":  userID,
	})
	return apply, nil
}

// Approve grants the chef role. Approving twice only re-ensures the role.
func (s *chefApplyService) Approve(p model.Principal, applyID uint) (*model.ChefApply, error) {
	return s.decide(p, applyID, model.ApplyStatusApproved)
}

// Refuse revokes the chef role unless another approved application backs it.
func (s *chefApplyService) Refuse(p model.Principal, applyID uint) (*model.ChefApply, error) {
	return s.decide(p, applyID, model.ApplyStatusRefused)
}

func (s *chefApplyService) decide(p model.Principal, applyID uint, target model.ApplyStatus) (*model.ChefApply, error) {
	if err := CanModerate(p).Err(); err != nil {
		return nil, err
	}

	var decided *model.ChefApply
	err := s.db.Transaction(func(tx *gorm.DB) error {
		applies := s.applyRepo.WithTx(tx)
		users := s.userRepo.WithTx(tx)

		apply, err := applies.FindByIDForUpdate(applyID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrApplyNotFound
			}
			return err
		}

		changed := false
		switch apply.Status {
		case model.ApplyStatusWaiting:
			changed = true
			adminID := p.UserID
			apply.Status = target
			apply.AdminID = &adminID
			apply.UpdateTime = s.now()
			if err := applies.UpdateDecision(apply, model.ApplyStatusWaiting); err != nil {
				if errors.Is(err, repository.ErrStatusChanged) {
					return ErrApplyAlreadyDecided
				}
				return err
			}
		case target:
		default:
			return ErrApplyAlreadyDecided
		}

		role, err := s.roleRepo.WithTx(tx).GetOrCreate(model.RoleChef)
		if err != nil {
			return err
		}

		if target == model.ApplyStatusApproved {
			if err := users.AddRole(apply.ApplicantID, role); err != nil {
				return err
			}
		} else if changed {
			approved, err := applies.CountByApplicant(apply.ApplicantID, model.ApplyStatusApproved, apply.ID)
			if err != nil {
				return err
			}
			if approved == 0 {
				if err := users.RemoveRole(apply.ApplicantID, role); err != nil {
					return err
				}
			}
		}

		decided, err = applies.FindByID(apply.ID)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrApplyNotFound) && !errors.Is(err, ErrApplyAlreadyDecided) {
			logger.Error("Failed to decide chef application", err, map[string]interface{}{
				"apply_id": applyID,
				"status":   target,
			})
		}
		return nil, err
	}

	logger.Info("Chef application decided", map[string]interface{}{
		"apply_id":     decided.ID,
		"applicant_id": decided.ApplicantID,
		"status":       decided.Status,
		"admin_id":     p.UserID,
	})
	return decided, nil
}

func (s *chefApplyService) StatusFor(userID uint) (*model.ChefApply, error) {
	apply, err := s.applyRepo.FindLatestByApplicant(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplyNotFound
		}
		return nil, err
	}
	return apply, nil
}

func (s *chefApplyService) GetApply(p model.Principal, applyID uint) (*model.ChefApply, error) {
	if err := CanModerate(p).Err(); err != nil {
		return nil, err
	}
	apply, err := s.applyRepo.FindByID(applyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplyNotFound
		}
		return nil, err
	}
	return apply, nil
}

func (s *chefApplyService) ListApplies(p model.Principal, status *model.ApplyStatus) ([]model.ChefApply, error) {
	if err := CanModerate(p).Err(); err != nil {
		return nil, err
	}
	return s.applyRepo.List(status)
}
