package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/totem-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/totem-backend/pkg/redis"
	"go.uber.org/multierr"
)

var errEmptyCatalog = errors.New("catalog source returned no products")

// Cache persists the last good snapshot between process restarts.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Service exposes the current menu and keeps it fresh.
type Service interface {
	Snapshot() *Snapshot
	// Refresh always leaves a usable snapshot in place. The error reports why
	// the primary source was not used and is meant for logs and metrics.
	Refresh(ctx context.Context) (*Snapshot, error)
	ProductsForCategory(categoryID string) []Product
	DefaultCategory() (Category, bool)
	BestsellerCategory() string
}

// ServiceParams wires the catalog service.
type ServiceParams struct {
	Primary            Source
	Fallback           Source
	Cache              Cache
	CacheKey           string
	CacheTTL           time.Duration
	FetchTimeout       time.Duration
	BestsellerCategory string
	Logger             *logger.Logger
	Now                func() time.Time
}

type service struct {
	primary     Source
	fallback    Source
	cache       Cache
	cacheKey    string
	cacheTTL    time.Duration
	timeout     time.Duration
	bestsellers string
	logg        *logger.Logger
	now         func() time.Time

	refreshMu sync.Mutex
	mu        sync.RWMutex
	current   *Snapshot
}

// NewService validates the wiring and returns a service with an empty snapshot.
func NewService(params ServiceParams) (Service, error) {
	if params.Primary == nil {
		return nil, fmt.Errorf("catalog source required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Cache != nil && params.CacheKey == "" {
		return nil, fmt.Errorf("cache key required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	if params.BestsellerCategory == "" {
		params.BestsellerCategory = "Mais Vendidos"
	}
	return &service{
		primary:     params.Primary,
		fallback:    params.Fallback,
		cache:       params.Cache,
		cacheKey:    params.CacheKey,
		cacheTTL:    params.CacheTTL,
		timeout:     params.FetchTimeout,
		bestsellers: params.BestsellerCategory,
		logg:        params.Logger,
		now:         params.Now,
	}, nil
}

func (s *service) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return &Snapshot{Categories: []Category{}, Products: []Product{}, Complements: []Complement{}}
	}
	return s.current
}

func (s *service) BestsellerCategory() string {
	return s.bestsellers
}

func (s *service) ProductsForCategory(categoryID string) []Product {
	return s.Snapshot().ProductsForCategory(categoryID, s.bestsellers)
}

func (s *service) DefaultCategory() (Category, bool) {
	return s.Snapshot().DefaultCategory(s.bestsellers)
}

// Refresh tries the primary source, then the cached snapshot, then keeps what
// is already loaded, and finally serves the fallback source.
func (s *service) Refresh(ctx context.Context) (*Snapshot, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	snapshot, primaryErr := s.load(ctx, s.primary)
	if primaryErr == nil {
		snapshot.Origin = OriginDatabase
		s.store(snapshot)
		s.writeCache(ctx, snapshot)
		return snapshot, nil
	}
	primaryErr = fmt.Errorf("primary catalog: %w", primaryErr)
	s.logg.Error(ctx, "catalog refresh failed", primaryErr)

	cached, cacheErr := s.readCache(ctx)
	if cacheErr == nil {
		s.store(cached)
		s.logg.Warn(ctx, "catalog served from cache")
		return cached, primaryErr
	}
	if s.cache != nil {
		primaryErr = multierr.Append(primaryErr, cacheErr)
	}

	s.mu.RLock()
	previous := s.current
	s.mu.RUnlock()
	if !previous.Empty() {
		s.logg.Warn(ctx, "catalog kept previous snapshot")
		return previous, primaryErr
	}

	if s.fallback != nil {
		fallback, err := s.load(ctx, s.fallback)
		if err == nil {
			fallback.Origin = OriginMock
			s.store(fallback)
			s.logg.Warn(ctx, "catalog served from fallback menu")
			return fallback, primaryErr
		}
		primaryErr = multierr.Append(primaryErr, fmt.Errorf("fallback catalog: %w", err))
	}
	return s.Snapshot(), primaryErr
}

func (s *service) load(ctx context.Context, src Source) (*Snapshot, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	restaurant, err := src.GetRestaurant(ctx)
	if err != nil {
		return nil, fmt.Errorf("get restaurant: %w", err)
	}
	categories, err := src.GetCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("get categories: %w", err)
	}
	products, err := src.GetProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	complements, err := src.GetComplements(ctx)
	if err != nil {
		return nil, fmt.Errorf("get complements: %w", err)
	}
	if len(products) == 0 {
		return nil, errEmptyCatalog
	}
	if categories == nil {
		categories = []Category{}
	}
	if complements == nil {
		complements = []Complement{}
	}
	return &Snapshot{
		Restaurant:  restaurant,
		Categories:  categories,
		Products:    products,
		Complements: complements,
		FetchedAt:   s.now().UTC(),
	}, nil
}

func (s *service) store(snapshot *Snapshot) {
	s.mu.Lock()
	s.current = snapshot
	s.mu.Unlock()
}

func (s *service) writeCache(ctx context.Context, snapshot *Snapshot) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		s.logg.Error(ctx, "encode catalog snapshot", err)
		return
	}
	if err := s.cache.Set(ctx, s.cacheKey, payload, s.cacheTTL); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "catalog cache write failed")
	}
}

func (s *service) readCache(ctx context.Context) (*Snapshot, error) {
	if s.cache == nil {
		return nil, errors.New("catalog cache disabled")
	}
	raw, err := s.cache.Get(ctx, s.cacheKey)
	if err != nil {
		if pkgredis.IsNil(err) {
			return nil, errors.New("catalog cache empty")
		}
		return nil, fmt.Errorf("read catalog cache: %w", err)
	}
	var snapshot Snapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return nil, fmt.Errorf("decode catalog cache: %w", err)
	}
	if snapshot.Empty() {
		return nil, errors.New("catalog cache empty")
	}
	snapshot.Origin = OriginCache
	return &snapshot, nil
}
