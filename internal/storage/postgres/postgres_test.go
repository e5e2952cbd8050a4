package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/storagetest"
)

func setupPostgresContainer(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("ledger_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return connStr
}

func TestPostgresStore(t *testing.T) {
	dsn := setupPostgresContainer(t)
	pool := PoolConfig{MaxOpenConns: 5, MaxIdleConns: 2, ConnMaxLifetime: time.Minute}

	storagetest.Run(t, func(t *testing.T) storage.Store {
		store, err := New(context.Background(), dsn, pool)
		require.NoError(t, err)

		// Every subtest starts from empty tables.
		_, err = store.DB().Exec(`TRUNCATE split_records, expenses, group_members, groups, users`)
		require.NoError(t, err)

		t.Cleanup(func() { store.Close() })
		return store
	})
}
