package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sojunghan/territory-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLiteStore(t *testing.T) {
	runClaimStoreSuite(t, func(t *testing.T) ClaimStore { return newTestSQLiteStore(t) })
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Migrate(context.Background()))
}

func TestSQLite_DuplicateIDRejected(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	c := sampleClaim("dup", "o", "", "p", 35, 129, model.KindPoint)
	require.NoError(t, st.InsertClaim(ctx, c))
	err := st.InsertClaim(ctx, c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite: insert claim dup")
}

func TestSQLite_ReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claims.db")
	ctx := context.Background()

	st, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, st.Migrate(ctx))
	require.NoError(t, st.InsertClaim(ctx, sampleClaim("a", "o", "b", "p", 35, 129, model.KindArea)))
	require.NoError(t, st.Close())

	st2, err := NewSQLite(path)
	require.NoError(t, err)
	defer st2.Close() //nolint:errcheck
	require.NoError(t, st2.Migrate(ctx))

	claims, err := st2.ListClaims(ctx)
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, "b", claims[0].Branch)
	assert.Equal(t, model.KindArea, claims[0].Kind)
}

func TestSQLite_InsertClaimCheckedSeesSecondConnection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claims.db")
	ctx := context.Background()

	first, err := NewSQLite(path)
	require.NoError(t, err)
	defer first.Close() //nolint:errcheck
	require.NoError(t, first.Migrate(ctx))

	second, err := NewSQLite(path)
	require.NoError(t, err)
	defer second.Close() //nolint:errcheck

	require.NoError(t, first.InsertClaim(ctx, sampleClaim("a", "A", "", "p", 35, 129, model.KindPoint)))

	var seen []string
	err = second.InsertClaimChecked(ctx, sampleClaim("b", "B", "", "q", 35, 129, model.KindPoint),
		func(stored []model.Claim) error {
			for _, c := range stored {
				seen = append(seen, c.ID)
			}
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, seen)

	claims, err := first.ListClaims(ctx)
	require.NoError(t, err)
	assert.Len(t, claims, 2)
}
