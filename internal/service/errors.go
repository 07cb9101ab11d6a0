package service

import (
	"database/sql"
	"errors"

	"github.com/GTDGit/halal_inventory_api/internal/utils"
)

// notFound maps a missing row to the given sentinel and passes other errors through.
func notFound(err error, sentinel *utils.AppError) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return err
}

func validation(field, msg string) error {
	return utils.NewValidationError(field, msg)
}
