package di

import (
	"context"
	"testing"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-tiered-cache/cache"
	"github.com/goliatone/go-tiered-cache/pkg/testsupport"
	"github.com/goliatone/go-tiered-cache/repositorycache"
)

type Book struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

func TestNewContainer(t *testing.T) {
	config := cache.Config{
		Local: cache.LocalConfig{
			Capacity:           1000,
			NumShards:          16,
			TTL:                5 * time.Minute,
			EvictionPercentage: 10,
		},
		RemoteTTL: 30 * time.Minute,
		KeyPrefix: "inventory",
	}

	container, err := NewContainer(config, testsupport.NewMemoryRemote(), nil)
	require.NoError(t, err)

	assert.NotNil(t, container.KeySerializer())
	assert.NotNil(t, container.Remote())

	stored := container.Config()
	assert.Equal(t, config.Local.Capacity, stored.Local.Capacity)
	assert.Equal(t, config.RemoteTTL, stored.RemoteTTL)

	assert.Equal(t, "inventory:book_7", container.KeySerializer().SerializeKey("book", int64(7)))
}

func TestNewContainerWithDefaults(t *testing.T) {
	container, err := NewContainerWithDefaults(testsupport.NewMemoryRemote(), nil)
	require.NoError(t, err)

	config := container.Config()
	defaults := cache.DefaultConfig()

	assert.Equal(t, defaults.Local.Capacity, config.Local.Capacity)
	assert.Equal(t, defaults.Local.TTL, config.Local.TTL)
}

func TestNewContainer_InvalidConfig(t *testing.T) {
	invalid := cache.DefaultConfig()
	invalid.Local.Capacity = 0

	_, err := NewContainer(invalid, testsupport.NewMemoryRemote(), nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))

	_, err = NewContainerWithDefaults(nil, nil)
	assert.Error(t, err, "a remote tier is required")
}

func TestContainerSingletonBehavior(t *testing.T) {
	container, err := NewContainerWithDefaults(testsupport.NewMemoryRemote(), nil)
	require.NoError(t, err)

	assert.Same(t, container.KeySerializer(), container.KeySerializer())
	assert.Same(t, container.Remote(), container.Remote())
}

func TestNewOrchestrator_LocalTierPerOrchestrator(t *testing.T) {
	remote := testsupport.NewMemoryRemote()
	container, err := NewContainerWithDefaults(remote, nil)
	require.NoError(t, err)

	store := testsupport.NewMemoryStore[Book]()
	store.Seed(7, Book{ID: 7, Title: "t1"})
	ctx := context.Background()

	first, err := NewOrchestrator[int64, Book](container, store)
	require.NoError(t, err)
	_, _, err = first.Load(ctx, 7)
	require.NoError(t, err)

	second, err := NewOrchestrator[int64, Book](container, store)
	require.NoError(t, err)
	_, found, err := second.Load(ctx, 7)
	require.NoError(t, err)
	require.True(t, found)

	// the second orchestrator starts cold locally and is served by the shared remote tier
	stats := second.Stats()
	assert.Equal(t, int64(1), stats.RemoteHits)
	assert.Zero(t, stats.LocalHits)
	assert.Equal(t, 1, store.Calls("Get"))
	assert.Equal(t, cache.DefaultConfig().RemoteTTL, remote.TTL("book_7"))
}

func TestNewOrchestrator_OptionsOverrideDefaults(t *testing.T) {
	container, err := NewContainerWithDefaults(testsupport.NewMemoryRemote(), nil)
	require.NoError(t, err)

	orc, err := NewOrchestrator[int64, Book](container, testsupport.NewMemoryStore[Book](), repositorycache.WithNamespace("novel"))
	require.NoError(t, err)

	assert.Equal(t, "novel_7", orc.Key(7))
}
