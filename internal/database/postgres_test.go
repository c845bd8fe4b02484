package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goloanme/backend/internal/config"
)

func TestPingWithRetry(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectPing()

	require.NoError(t, pingWithRetry(context.Background(), db, 10*time.Second))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPingWithRetry_CancelledContext(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, pingWithRetry(ctx, db, 10*time.Second))
}

func TestConfigurePool(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ConfigurePool(db, config.DatabaseConfig{MaxOpenConns: 7})
	assert.Equal(t, 7, db.Stats().MaxOpenConnections)
}
