package service

import (
	"context"
	"errors"
	"strings"

	"github.com/threemeal/threemeal-backend/internal/app/model"
	"github.com/threemeal/threemeal-backend/internal/app/repository"
	"github.com/threemeal/threemeal-backend/internal/session"
	"github.com/threemeal/threemeal-backend/internal/validation"
	"github.com/threemeal/threemeal-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrInvalidZipcode  = errors.New("zip code must be exactly 5 digits")
	ErrZipcodeNotFound = errors.New("zip code not found")
)

type ZipcodeService interface {
	IsValidZipcode(code string) bool
	GetOrCreate(codes []string) ([]model.Zipcode, error)
	GetOrCreateTx(tx *gorm.DB, codes []string) ([]model.Zipcode, error)
	FindByCode(code string) (*model.Zipcode, error)
	List() ([]model.Zipcode, error)
	Remember(ctx context.Context, sessionID, code string) error
	Remembered(ctx context.Context, sessionID string) (string, error)
}

type zipcodeService struct {
	db       *gorm.DB
	zipRepo  repository.ZipcodeRepository
	sessions session.Store
}

func NewZipcodeService(db *gorm.DB, zipRepo repository.ZipcodeRepository, sessions session.Store) ZipcodeService {
	return &zipcodeService{
		db:       db,
		zipRepo:  zipRepo,
		sessions: sessions,
	}
}

func (s *zipcodeService) IsValidZipcode(code string) bool {
	return validation.IsValidZipcode(code)
}

func (s *zipcodeService) GetOrCreate(codes []string) ([]model.Zipcode, error) {
	var zips []model.Zipcode
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		zips, err = s.GetOrCreateTx(tx, codes)
		return err
	})
	return zips, err
}

// GetOrCreateTx validates every code before writing anything and returns
// the rows in input order.
func (s *zipcodeService) GetOrCreateTx(tx *gorm.DB, codes []string) ([]model.Zipcode, error) {
	trimmed := make([]string, len(codes))
	for i, code := range codes {
		trimmed[i] = strings.TrimSpace(code)
		if !validation.IsValidZipcode(trimmed[i]) {
			logger.Warn("Rejected invalid zip code", map[string]interface{}{
				"code": code,
			})
			return nil, ErrInvalidZipcode
		}
	}

	repo := s.zipRepo.WithTx(tx)
	zips := make([]model.Zipcode, 0, len(trimmed))
	for _, code := range trimmed {
		zip, err := repo.GetOrCreate(code)
		if err != nil {
			return nil, err
		}
		zips = append(zips, *zip)
	}
	return zips, nil
}

func (s *zipcodeService) FindByCode(code string) (*model.Zipcode, error) {
	code = strings.TrimSpace(code)
	if !validation.IsValidZipcode(code) {
		return nil, ErrInvalidZipcode
	}
	zip, err := s.zipRepo.FindByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrZipcodeNotFound
		}
		return nil, err
	}
	return zip, nil
}

func (s *zipcodeService) List() ([]model.Zipcode, error) {
	return s.zipRepo.List()
}

// Remember stores the customer's chosen zip code on their browser session.
func (s *zipcodeService) Remember(ctx context.Context, sessionID, code string) error {
	code = strings.TrimSpace(code)
	if !validation.IsValidZipcode(code) {
		return ErrInvalidZipcode
	}
	if err := s.sessions.SetZipcode(ctx, sessionID, code); err != nil {
		logger.Error("Failed to remember zip code", err, map[string]interface{}{
			"code": code,
		})
		return err
	}
	return nil
}

// Remembered returns the session's zip code, or "" when none was chosen.
func (s *zipcodeService) Remembered(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", nil
	}
	return s.sessions.Zipcode(ctx, sessionID)
}
