package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, zap.NewNop())
	ctx := context.Background()

	var dest map[string]string
	assert.ErrorIs(t, repo.Get(ctx, "schedule:s1:abc", &dest), appErrors.ErrCacheMiss)
	require.NoError(t, repo.Set(ctx, "schedule:s1:abc", map[string]string{"a": "b"}, time.Minute))

	created, err := repo.SetNX(ctx, "alert:shown:u1:s1", time.Hour)
	require.NoError(t, err)
	assert.True(t, created)

	require.NoError(t, repo.DeleteByPattern(ctx, "dash:u1:*"))
}

func TestNamespacedKeys(t *testing.T) {
	assert.Equal(t, "attendance:dash:u1:*", namespaced("dash:u1:*"))
}
