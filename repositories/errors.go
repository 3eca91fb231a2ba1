package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"community-server/apperr"
)

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", apperr.ErrConflict, err)
	default:
		return fmt.Errorf("store: %w", err)
	}
}
