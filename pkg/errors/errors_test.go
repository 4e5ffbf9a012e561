package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestConstraintClassification(t *testing.T) {
	unique := fmt.Errorf("插入失败: %w", &pgconn.PgError{Code: "23505", ConstraintName: "uq_assignments_subject"})

	assert.True(t, IsUniqueViolation(unique))
	assert.False(t, IsForeignKeyViolation(unique))
	assert.Equal(t, "uq_assignments_subject", ConstraintName(unique))

	assert.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsNotNullViolation(&pgconn.PgError{Code: "23502"}))
	assert.True(t, IsCheckViolation(&pgconn.PgError{Code: "23514"}))
}

func TestNonPostgresError(t *testing.T) {
	err := errors.New("连接中断")

	assert.False(t, IsUniqueViolation(err))
	assert.False(t, IsUniqueViolation(nil))
	assert.Empty(t, ConstraintName(err))
}
