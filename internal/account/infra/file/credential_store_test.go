package file

import (
	"context"
	"testing"

	"github.com/dwikikusuma/farmgate/internal/account/domain"
	"github.com/dwikikusuma/farmgate/pkg/localstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialStoreRoundTrip(t *testing.T) {
	docs, err := localstore.Open(t.TempDir())
	require.NoError(t, err)
	defer docs.Close()
	store := NewCredentialStore(docs)
	ctx := context.Background()

	c, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, c.Empty())

	want := domain.Credentials{Token: "tok", User: domain.User{ID: "u1", Email: "a@b.co"}}
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, store.Clear(ctx))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, got.Empty())
}
