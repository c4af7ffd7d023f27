package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/hindsightlog/hindsight/pkg/models"
)

func TestMetadataCache_NilClientIsAlwaysMiss(t *testing.T) {
	cache := NewMetadataCache(nil, 30*time.Second, zap.NewNop())
	ctx := context.Background()

	metadata, ok := cache.Get(ctx)
	assert.False(t, ok, "disabled cache must always miss")
	assert.Nil(t, metadata)

	// Writes and invalidations against a disabled cache must be no-ops, not
	// panics.
	cache.Set(ctx, models.EmptyFilterMetadata())
	cache.Invalidate(ctx)
}

func TestMetadataCache_NilReceiverIsSafe(t *testing.T) {
	var cache *MetadataCache
	ctx := context.Background()

	metadata, ok := cache.Get(ctx)
	assert.False(t, ok)
	assert.Nil(t, metadata)

	cache.Set(ctx, models.EmptyFilterMetadata())
	cache.Invalidate(ctx)
}
