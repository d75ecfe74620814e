package assistant

import (
	"context"
	"testing"

	"senara/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionStoreRoundTrip(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	// A miss is nil, nil: absence is not an error.
	sess, err := store.Get(ctx, "4917012345678")
	require.NoError(t, err)
	assert.Nil(t, sess)

	require.NoError(t, store.Save(ctx, &models.Session{
		UserID:   "4917012345678",
		ThreadID: "thread_1",
	}))

	sess, err = store.Get(ctx, "4917012345678")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "thread_1", sess.ThreadID)

	require.NoError(t, store.Delete(ctx, "4917012345678"))
	sess, err = store.Get(ctx, "4917012345678")
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestMemorySessionStoreReturnsCopies(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &models.Session{
		UserID:   "4917012345678",
		ThreadID: "thread_1",
	}))

	first, err := store.Get(ctx, "4917012345678")
	require.NoError(t, err)
	first.ActiveRunID = "run_1"

	// Mutating a returned session must not leak into the store.
	second, err := store.Get(ctx, "4917012345678")
	require.NoError(t, err)
	assert.Empty(t, second.ActiveRunID)
}
