package util

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainErrorPassthrough(t *testing.T) {
	original := NewValidationError("title required", nil)
	mapped := ToDomainError(original)
	require.NotNil(t, mapped)
	assert.Equal(t, "VALIDATION_FAILED", mapped.Code)
	assert.Equal(t, http.StatusBadRequest, mapped.HTTPStatus)
}

func TestToDomainErrorNoRows(t *testing.T) {
	mapped := ToDomainError(pgx.ErrNoRows)
	require.NotNil(t, mapped)
	assert.Equal(t, "NOT_FOUND", mapped.Code)
	assert.Equal(t, http.StatusNotFound, mapped.HTTPStatus)
}

func TestToDomainErrorUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "tickets_owner_sequence_key"}
	mapped := ToDomainError(pgErr)
	require.NotNil(t, mapped)
	assert.Equal(t, "CONFLICT", mapped.Code)
	assert.Equal(t, "tickets_owner_sequence_key", mapped.Details["constraint"])
}

func TestToDomainErrorUnknown(t *testing.T) {
	mapped := ToDomainError(errors.New("connection reset"))
	require.NotNil(t, mapped)
	assert.Equal(t, "INTERNAL_ERROR", mapped.Code)
	assert.Equal(t, http.StatusInternalServerError, mapped.HTTPStatus)
}

func TestInvalidTransitionNamesBothValues(t *testing.T) {
	err := NewInvalidTransition("open", "resolved")
	var de *DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_TRANSITION", de.Code)
	assert.Contains(t, de.Error(), "open")
	assert.Contains(t, de.Error(), "resolved")
	assert.Equal(t, "open", de.Details["from"])
	assert.Equal(t, "resolved", de.Details["to"])
}
