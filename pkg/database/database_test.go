package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSchema(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "sqlmock")

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS profiles")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, CreateSchema(context.Background(), db))

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))
	err = CreateSchema(context.Background(), db)
	assert.ErrorContains(t, err, "failed to create schema")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewClientsSkipsUnsetBackends(t *testing.T) {
	clients, err := NewClients(context.Background(), "", RedisOptions{})
	require.NoError(t, err)
	assert.Nil(t, clients.DB)
	assert.Nil(t, clients.Redis)
	clients.Close()
}

func TestNewRedis(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	rdb, err := NewRedis(context.Background(), RedisOptions{Addr: s.Addr()})
	require.NoError(t, err)
	defer rdb.Close()

	addr := s.Addr()
	s.Close()
	_, err = NewRedis(context.Background(), RedisOptions{Addr: addr})
	assert.Error(t, err)
}
