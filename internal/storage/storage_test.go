package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/ledger-server/internal/config"
	"github.com/carson-networks/ledger-server/internal/storage/sqlconfig"
)

func TestNew_SelectsDriver(t *testing.T) {
	store, err := New(&config.Config{StorageDriver: DriverMemory})
	require.NoError(t, err)
	assert.Nil(t, store.DB)
	assert.NoError(t, store.Ping(context.Background()))
	assert.NoError(t, store.Close())

	_, err = New(&config.Config{StorageDriver: "sqlite"})
	assert.Error(t, err)
}

func TestWriter_CommitPublishesWrites(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	writer, err := store.Write(ctx)
	require.NoError(t, err)
	account, err := writer.Accounts.Insert(ctx, &sqlconfig.AccountCreate{UserID: 1, IBAN: "GB82WEST12345698765432"})
	require.NoError(t, err)
	writer.RecordCreated("Account", account.ID, nil)

	_, err = store.Accounts.FindByID(ctx, account.ID)
	assert.ErrorIs(t, err, sqlconfig.ErrNotFound)

	require.NoError(t, writer.Commit(ctx))
	assert.Len(t, writer.Created(), 1)

	found, err := store.Accounts.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "GB82WEST12345698765432", found.IBAN)
}

func TestWriter_RollbackDiscardsWrites(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	writer, err := store.Write(ctx)
	require.NoError(t, err)
	_, err = writer.Accounts.Insert(ctx, &sqlconfig.AccountCreate{UserID: 1, IBAN: "GB82WEST12345698765432"})
	require.NoError(t, err)
	require.NoError(t, writer.Rollback(ctx))

	rows, err := store.Accounts.List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
