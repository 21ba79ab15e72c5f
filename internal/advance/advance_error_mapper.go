package advance

import (
	"errors"
	"strings"

	advanceerrors "go-advance/internal/advance/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return advanceerrors.ErrAdvanceNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" && pgErr.ConstraintName == "idx_advances_reference_number" {
			return advanceerrors.ErrReferenceNumberConflict
		}
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, "reference_number") {
		return advanceerrors.ErrReferenceNumberConflict
	}

	return err
}
