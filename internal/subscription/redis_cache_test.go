package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Mihklz/casetrail/internal/model"
	"github.com/Mihklz/casetrail/internal/subscription/mocks"
)

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "casetrail:sub:wf-42:Workflow paused", CacheKey("wf-42", "Workflow paused"))
}

// Недоступный Redis не должен ломать поиск подписок.
func TestRedisCache_FallsThroughWhenRedisUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().Lookup(gomock.Any(), "wf-42", "Workflow paused").Return([]model.CaseID{"C1"}, nil)

	cache := NewRedisCache(client, store, 0)
	ids, err := cache.Lookup(context.Background(), "wf-42", "Workflow paused")

	require.NoError(t, err)
	assert.Equal(t, []model.CaseID{"C1"}, ids)
	assert.Equal(t, DefaultCacheTTL, cache.ttl)
}
