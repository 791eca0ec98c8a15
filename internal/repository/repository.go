package repository

import (
	"errors"

	"gorm.io/gorm"

	svcErr "github.com/oggyb/social-graph/internal/errors"
)

// notFound turns gorm's record-not-found into the domain NotFound kind.
// Any other error passes through untouched.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return svcErr.NotFound(format, args...)
	}
	return err
}
