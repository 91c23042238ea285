package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestPostgres connects to the database named by BANK_TEST_DSN, e.g.
// "host=127.0.0.1 user=bank password=bank dbname=bank_test sslmode=disable".
// Without it the postgres tests are skipped.
func newTestPostgres(t *testing.T) *PostgresStore {
	t.Helper()

	dsn := os.Getenv("BANK_TEST_DSN")
	if dsn == "" {
		t.Skip("BANK_TEST_DSN not set, skipping postgres tests")
	}

	s, err := NewPostgresStore(dsn, zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() {
		s.db.Exec(`DELETE FROM accounts`)
		s.Close()
	})
	return s
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	s := newTestPostgres(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, 34567, "10.0.0.9"))

	exists, err := s.Exists(ctx, 34567)
	require.NoError(t, err)
	assert.True(t, exists)

	ok, err := s.Deposit(ctx, 34567, 200)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Withdraw(ctx, 34567, 300)
	require.NoError(t, err)
	assert.False(t, ok, "withdrawal past balance must be refused by the SQL guard")

	balance, err := s.Balance(ctx, 34567)
	require.NoError(t, err)
	assert.EqualValues(t, 200, balance)

	ok, err = s.Remove(ctx, 34567)
	require.NoError(t, err)
	assert.False(t, ok, "removal with non-zero balance must be refused")

	ok, err = s.Withdraw(ctx, 34567, 200)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Remove(ctx, 34567)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.Balance(ctx, 34567)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestPostgresStoreAggregates(t *testing.T) {
	s := newTestPostgres(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, 40001, "10.0.0.1"))
	require.NoError(t, s.Create(ctx, 40002, "10.0.0.2"))

	_, err := s.Deposit(ctx, 40001, 150)
	require.NoError(t, err)

	total, err := s.TotalBalance(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 150, total)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 40001, list[0].Number)
	assert.EqualValues(t, 150, list[0].Balance)
}
