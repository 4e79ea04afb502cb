//go:build integration

package docstore_test

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/illmade-knight/go-cloudbridge/pkg/docstore"
	"github.com/illmade-knight/go-cloudbridge/pkg/helpers/emulators"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_FirestoreEmulatorIntegration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	fsClient, cleanup := emulators.SetupFirestoreEmulator(t, ctx, emulators.GetDefaultFirestoreConfig("test-views-project"))
	defer cleanup()

	client, err := docstore.NewFirestoreClient(fsClient)
	require.NoError(t, err)
	store, err := docstore.NewStore(client, docstore.Settings{DatabaseID: "(default)"}, zerolog.New(io.Discard))
	require.NoError(t, err)
	require.NoError(t, store.EnsureDatabase(ctx))

	repo := docstore.NewRepository[*OrderSummary](store)

	items := []*OrderSummary{{ID: "o-1", Total: 10}, {ID: "o-2", Total: 20}}
	require.NoError(t, repo.InsertMany(ctx, items))

	t.Run("Insert of an existing id fails", func(t *testing.T) {
		err := repo.Insert(ctx, &OrderSummary{ID: "o-1"})
		assert.Equal(t, 409, docstore.StatusCode(err))
	})

	t.Run("Update replaces the document", func(t *testing.T) {
		require.NoError(t, repo.Update(ctx, &OrderSummary{ID: "o-1", Total: 15}))
		snap, err := fsClient.Collection(repo.Collection()).Doc("o-1").Get(ctx)
		require.NoError(t, err)
		var got OrderSummary
		require.NoError(t, snap.DataTo(&got))
		assert.Equal(t, 15.0, got.Total)
	})

	t.Run("Update of a missing document fails", func(t *testing.T) {
		err := repo.Update(ctx, &OrderSummary{ID: "missing"})
		assert.True(t, docstore.IsNotFound(err))
	})

	t.Run("Delete then truncate", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, items[1]))
		assert.True(t, docstore.IsNotFound(repo.Delete(ctx, items[1])))

		require.NoError(t, repo.Truncate(ctx))
		_, err := fsClient.Collection(repo.Collection()).Doc("o-1").Get(ctx)
		assert.Error(t, err)
	})
}

func TestFirestoreEmulator_ClientOptionsWithoutEnv(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	cfg := emulators.GetDefaultFirestoreConfig("test-views-options")
	cfg.SetEnvVariables = false
	t.Setenv("FIRESTORE_EMULATOR_HOST", "")

	fsClient, cleanup := emulators.SetupFirestoreEmulator(t, ctx, cfg)
	defer cleanup()
	assert.Empty(t, os.Getenv("FIRESTORE_EMULATOR_HOST"))

	client, err := docstore.NewFirestoreClient(fsClient)
	require.NoError(t, err)
	store, err := docstore.NewStore(client, docstore.Settings{DatabaseID: "(default)"}, zerolog.New(io.Discard))
	require.NoError(t, err)

	repo := docstore.NewRepository[*OrderSummary](store)
	require.NoError(t, repo.Insert(ctx, &OrderSummary{ID: "o-1", Total: 1}))
}
