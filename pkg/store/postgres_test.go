package store

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "root@/db", DefaultOptions())
	assert.ErrorContains(t, err, `unsupported driver "mysql"`)
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{
			name:     "pgx error",
			err:      &pgconn.PgError{Code: "42P01", Message: "relation \"users\" does not exist"},
			contains: "sqlstate 42P01",
		},
		{
			name:     "lib/pq error",
			err:      &pq.Error{Code: "57P01", Message: "terminating connection"},
			contains: "sqlstate 57P01",
		},
		{
			name:     "plain error",
			err:      errors.New("connection refused"),
			contains: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := describe(tt.err)
			assert.Contains(t, got.Error(), tt.contains)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}
