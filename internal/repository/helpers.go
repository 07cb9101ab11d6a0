package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/GTDGit/halal_inventory_api/internal/models"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

// scopeClause renders the visibility predicate for a products alias.
// Placeholders start at argIdx; the next free index is returned.
func scopeClause(alias string, scope models.Scope, argIdx int) (string, []interface{}, int) {
	if scope.All {
		return "TRUE", nil, argIdx
	}
	if scope.IsEmpty() {
		return "FALSE", nil, argIdx
	}

	var parts []string
	var args []interface{}
	if len(scope.StoreIDs) > 0 {
		parts = append(parts, fmt.Sprintf("%s.store_id = ANY($%d)", alias, argIdx))
		args = append(args, pq.Array(scope.StoreIDs))
		argIdx++
	}
	if len(scope.SubLocationIDs) > 0 {
		parts = append(parts, fmt.Sprintf("%s.sub_location_id = ANY($%d)", alias, argIdx))
		args = append(args, pq.Array(scope.SubLocationIDs))
		argIdx++
	}
	return "(" + strings.Join(parts, " OR ") + ")", args, argIdx
}

// pgError extracts a *pq.Error with the given code.
func pgError(err error, code string) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == code {
		return pqErr, true
	}
	return nil, false
}

// isUniqueViolation reports a unique violation, optionally on a specific constraint.
func isUniqueViolation(err error, constraint string) bool {
	pqErr, ok := pgError(err, pqUniqueViolation)
	return ok && (constraint == "" || pqErr.Constraint == constraint)
}

// isForeignKeyViolation reports a foreign key violation, optionally on a specific constraint.
func isForeignKeyViolation(err error, constraint string) bool {
	pqErr, ok := pgError(err, pqForeignKeyViolation)
	return ok && (constraint == "" || pqErr.Constraint == constraint)
}

// pageBounds normalizes page/limit and returns the offset.
func pageBounds(page, limit int) (int, int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	return page, limit, (page - 1) * limit
}

const dateLayout = "2006-01-02"
