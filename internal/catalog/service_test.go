package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/totem-backend/pkg/logger"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	MockSource
	err   error
	calls int
}

func (s *stubSource) GetProducts(ctx context.Context) ([]Product, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.MockSource.GetProducts(ctx)
}

type memoryCache struct {
	values map[string]string
	setErr error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string]string{}}
}

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	switch v := value.(type) {
	case []byte:
		m.values[key] = string(v)
	default:
		m.values[key] = fmt.Sprint(v)
	}
	return nil
}

func newTestService(t *testing.T, primary Source, cache Cache, fallback Source) Service {
	t.Helper()
	params := ServiceParams{
		Primary:            primary,
		Fallback:           fallback,
		FetchTimeout:       time.Second,
		BestsellerCategory: "Mais Vendidos",
		Logger:             logger.Nop(),
		Now:                func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) },
	}
	if cache != nil {
		params.Cache = cache
		params.CacheKey = "totem:catalog:test"
	}
	svc, err := NewService(params)
	require.NoError(t, err)
	return svc
}

func TestRefreshFromPrimaryWritesCache(t *testing.T) {
	cache := newMemoryCache()
	svc := newTestService(t, &stubSource{}, cache, nil)

	snapshot, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OriginDatabase, snapshot.Origin)
	assert.Len(t, snapshot.Products, 5)
	assert.Contains(t, cache.values, "totem:catalog:test")
	assert.Same(t, snapshot, svc.Snapshot())
}

func TestRefreshFallsBackToCache(t *testing.T) {
	cache := newMemoryCache()
	primary := &stubSource{}
	warm := newTestService(t, primary, cache, nil)
	_, err := warm.Refresh(context.Background())
	require.NoError(t, err)

	primary.err = errors.New("connection refused")
	cold := newTestService(t, primary, cache, NewMockSource())
	snapshot, err := cold.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, OriginCache, snapshot.Origin)
	assert.Len(t, snapshot.Products, 5)
}

func TestRefreshKeepsPreviousSnapshot(t *testing.T) {
	primary := &stubSource{}
	svc := newTestService(t, primary, nil, NewMockSource())
	first, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	primary.err = errors.New("timeout")
	second, err := svc.Refresh(context.Background())
	require.Error(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, OriginDatabase, svc.Snapshot().Origin)
}

func TestRefreshFallsBackToMock(t *testing.T) {
	svc := newTestService(t, &stubSource{err: errors.New("down")}, newMemoryCache(), NewMockSource())
	snapshot, err := svc.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, OriginMock, snapshot.Origin)
	assert.Equal(t, "fcrazybossburgers", snapshot.Restaurant.Name)
}

func TestRefreshWithoutFallbackLeavesEmptySnapshot(t *testing.T) {
	svc := newTestService(t, &stubSource{err: errors.New("down")}, nil, nil)
	snapshot, err := svc.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, snapshot.Empty())
	assert.NotNil(t, snapshot.Categories)
}

func TestServiceCategoryHelpers(t *testing.T) {
	svc := newTestService(t, &stubSource{}, nil, nil)
	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	def, ok := svc.DefaultCategory()
	require.True(t, ok)
	assert.Equal(t, MockCategoryBestsellers, def.ID)
	assert.Len(t, svc.ProductsForCategory(MockCategoryBestsellers), 2)
	assert.Equal(t, "Mais Vendidos", svc.BestsellerCategory())
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{Logger: logger.Nop()})
	require.Error(t, err)
	_, err = NewService(ServiceParams{Primary: NewMockSource()})
	require.Error(t, err)
	_, err = NewService(ServiceParams{Primary: NewMockSource(), Logger: logger.Nop(), Cache: newMemoryCache()})
	require.Error(t, err)
}
