// internal/core/db/apikeys_test.go
package db

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockKeyStore(t *testing.T) (*APIKeyStore, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })

	queries, err := LoadQueries(sqlx.NewDb(raw, "sqlmock"))
	require.NoError(t, err)

	store, err := NewAPIKeyStore(queries)
	require.NoError(t, err)
	store.now = func() time.Time { return fixedNow }
	return store, mock
}

func TestAPIKeyStore_Create(t *testing.T) {
	store, mock := newMockKeyStore(t)
	hash := []byte{1, 2, 3}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO api_keys")).
		WithArgs(sqlmock.AnyArg(), "ops-team", hash, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	key, err := store.Create(context.Background(), "ops-team", hash)
	require.NoError(t, err)
	assert.Equal(t, "ops-team", key.OperatorID)
	assert.NotEmpty(t, key.APIKeyID)
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = store.Create(context.Background(), "", hash)
	assert.Error(t, err)
}

func TestAPIKeyStore_Revoke(t *testing.T) {
	store, mock := newMockKeyStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE api_keys SET revoked_at = ?")).
		WithArgs(fixedNow, "k1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE api_keys SET revoked_at = ?")).
		WithArgs(fixedNow, "k1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, store.Revoke(context.Background(), "k1"))
	assert.Error(t, store.Revoke(context.Background(), "k1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
