package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	apperrors "github.com/pharmalink/pharmalink-backend/pkg/errors"
)

// QueryError maps a driver error from a read query to an AppError.
// sql.ErrNoRows becomes a 404 for the named resource; pq errors surface
// their SQLSTATE code so the log line identifies the failure class without
// leaking the raw statement to the client.
func QueryError(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(resource)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return apperrors.Internal(fmt.Sprintf("query failed (%s): %s", pqErr.Code, pqErr.Message))
	}
	return apperrors.Internal(err.Error())
}
