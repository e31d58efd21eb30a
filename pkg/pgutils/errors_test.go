package pgutils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{
			"typed pg error",
			&pgconn.PgError{Code: CodeUniqueViolation, ConstraintName: "uq_content_relations_edge"},
			true,
		},
		{
			"wrapped typed pg error",
			fmt.Errorf("insert edge: %w", &pgconn.PgError{Code: CodeUniqueViolation}),
			true,
		},
		{
			"string fallback",
			errors.New(`ERROR: duplicate key value violates unique constraint "uq_content_relations_edge" (SQLSTATE 23505)`),
			true,
		},
		{"other pg error", &pgconn.PgError{Code: CodeForeignKeyViolation}, false},
		{"unrelated error", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUniqueViolation(tt.err))
		})
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: CodeForeignKeyViolation}))
	assert.False(t, IsForeignKeyViolation(&pgconn.PgError{Code: CodeUniqueViolation}))
	assert.False(t, IsForeignKeyViolation(nil))
}

func TestConstraintName(t *testing.T) {
	err := fmt.Errorf("insert edge: %w", &pgconn.PgError{
		Code:           CodeUniqueViolation,
		ConstraintName: "uq_content_relations_one_to_one_source",
	})
	assert.Equal(t, "uq_content_relations_one_to_one_source", ConstraintName(err))

	assert.Equal(t, "", ConstraintName(errors.New("plain error")))
	assert.Equal(t, "", ConstraintName(nil))
}
