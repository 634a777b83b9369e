package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "planner:")
	ctx := context.Background()

	var dest map[string]int
	err := repo.Get(ctx, "recommendations:v1:x", &dest)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))

	assert.NoError(t, repo.Set(ctx, "k", map[string]int{"a": 1}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "recommendations:*"))
	assert.NoError(t, repo.Ping(ctx))
	assert.NoError(t, repo.Close())
}

func TestCacheRepositoryKeyNamespace(t *testing.T) {
	assert.Equal(t, "planner:recommendations:v1", NewCacheRepository(nil, "planner:").key("recommendations:v1"))
	assert.Equal(t, "planner:recommendations:v1", NewCacheRepository(nil, "planner").key("recommendations:v1"))
	assert.Equal(t, "recommendations:v1", NewCacheRepository(nil, "").key("recommendations:v1"))
}
