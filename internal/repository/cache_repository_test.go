package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/schedule-builder-api/pkg/errors"
)

func TestCacheRepositoryWithoutClientIsEmpty(t *testing.T) {
	repo := NewCacheRepository(nil, "sb:", nil)
	ctx := context.Background()

	var dest map[string]string
	assert.ErrorIs(t, repo.Get(ctx, "catalog:list", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "catalog:list", map[string]string{"a": "b"}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "catalog:*"))
	assert.NoError(t, repo.Close())
	assert.Equal(t, "sb:catalog:list", repo.key("catalog:list"))
}
