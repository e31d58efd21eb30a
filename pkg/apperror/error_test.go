package apperror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorString(t *testing.T) {
	err := New(http.StatusNotFound, "not_found", "Relation not found")
	assert.Equal(t, "not_found: Relation not found", err.Error())

	wrapped := err.WithInternal(errors.New("sql: no rows in result set"))
	assert.Equal(t, "not_found: Relation not found (sql: no rows in result set)", wrapped.Error())
}

func TestUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := ErrDatabase.WithInternal(inner)

	assert.Equal(t, inner, err.Unwrap())
	assert.True(t, errors.Is(err, inner))
}

func TestIsMatchesByCode(t *testing.T) {
	err := ErrConstraint.
		WithMessage("one_to_one definition already has a relation for this source").
		WithDetails(map[string]any{"current": 1, "allowed": 1})

	assert.True(t, errors.Is(err, ErrConstraint))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestWithMessagePreservesStatusAndCode(t *testing.T) {
	err := ErrConflict.WithMessage("definition name 'author_books' already exists")

	assert.Equal(t, http.StatusConflict, err.HTTPStatus)
	assert.Equal(t, "conflict", err.Code)
	assert.Equal(t, "definition name 'author_books' already exists", err.Message)

	// Original sentinel is untouched
	assert.Equal(t, "Resource already exists", ErrConflict.Message)
}

func TestWithDetails(t *testing.T) {
	details := map[string]any{"rule": "max_relations", "current": 3, "allowed": 3}
	err := ErrConstraint.WithDetails(details)

	assert.Equal(t, details, err.Details)
	assert.Nil(t, ErrConstraint.Details)
}

func TestNewValidationCollectsAllFields(t *testing.T) {
	err := NewValidation([]FieldError{
		{Field: "name", Message: "name is required"},
		{Field: "relation_type", Message: "must be one of one_to_one, one_to_many, many_to_many"},
	})

	require.NotNil(t, err.Details)
	fields, ok := err.Details["fields"].([]FieldError)
	require.True(t, ok)
	assert.Len(t, fields, 2)
	assert.Equal(t, http.StatusUnprocessableEntity, err.HTTPStatus)
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("relation definition", "abc-123")
	assert.Equal(t, "relation definition 'abc-123' not found", err.Message)
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestConstraintSentinel(t *testing.T) {
	assert.Equal(t, http.StatusConflict, ErrConstraint.HTTPStatus)
	assert.Equal(t, "constraint_violation", ErrConstraint.Code)
}
