package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/unireg-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "unireg", nil)
	ctx := context.Background()

	var dest []string
	assert.ErrorIs(t, repo.Get(ctx, "catalog", &dest), appErrors.ErrCacheMiss)
	require.NoError(t, repo.Set(ctx, "catalog", []string{"AGM251"}, time.Minute))
	require.NoError(t, repo.Delete(ctx, "catalog"))
	require.NoError(t, repo.DeleteByPattern(ctx, "program:*"))
	require.NoError(t, repo.Ping(ctx))
	require.NoError(t, repo.Close())
}

func TestCacheRepositoryKeyNamespace(t *testing.T) {
	assert.Equal(t, "unireg:catalog", NewCacheRepository(nil, "unireg", nil).key("catalog"))
	assert.Equal(t, "catalog", NewCacheRepository(nil, "", nil).key("catalog"))
}
