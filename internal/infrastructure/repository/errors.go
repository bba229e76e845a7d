package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "github.com/orris-inc/trafficstat/internal/shared/errors"
)

// classifyError wraps a database error with the AppError type callers branch on.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey), apperrors.IsDuplicateError(err):
		return apperrors.Wrap(apperrors.ErrorTypeIntegrity, op, err)
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, context.DeadlineExceeded),
		apperrors.IsConnectionError(err):
		return apperrors.Wrap(apperrors.ErrorTypeTransient, op, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
