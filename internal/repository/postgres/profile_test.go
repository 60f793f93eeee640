package postgres

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/dtroode/qubras-auth/internal/model"
)

func TestNewProfileRepository(t *testing.T) {
	db := &Connection{}
	repo := NewProfileRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestConnection_PingWithoutPool(t *testing.T) {
	conn := &Connection{}
	assert.Error(t, conn.Ping(context.Background()))
	assert.NoError(t, conn.Close())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantTransient bool
	}{
		{name: "connection exception", err: &pgconn.PgError{Code: "08006"}, wantTransient: true},
		{name: "serialization failure", err: &pgconn.PgError{Code: "40001"}, wantTransient: true},
		{name: "admin shutdown", err: &pgconn.PgError{Code: "57P01"}, wantTransient: true},
		{name: "unique violation", err: &pgconn.PgError{Code: uniqueViolation}, wantTransient: false},
		{name: "syntax error", err: &pgconn.PgError{Code: "42601"}, wantTransient: false},
		{name: "network error", err: &net.OpError{Op: "dial", Err: errors.New("refused")}, wantTransient: true},
		{name: "plain error", err: errors.New("boom"), wantTransient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err, "failed")
			assert.Equal(t, tt.wantTransient, errors.Is(got, model.ErrUnavailable))
			assert.Contains(t, got.Error(), "failed")
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: uniqueViolation}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("duplicate")))
}
