package repo

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/domain"
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

// mapErr converts gorm sentinels into domain errors. Duplicate keys are only
// recognised when the connection was opened with TranslateError.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrConflict
	default:
		return err
	}
}
