package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var ErrMissingProductID = errors.New("product id is required")

// fetchTimeout bounds a shared upstream fetch, which outlives the caller
// that started it.
const fetchTimeout = 10 * time.Second

type Source interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
}

type Service struct {
	source Source
	cache  ProductCache
	logger *zap.Logger
	sfg    singleflight.Group
}

// shared runs fn once per key for all concurrent callers. fn gets a context
// detached from any single caller, and each caller stops waiting when its
// own ctx ends.
func (s *Service) shared(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	ch := s.sfg.DoChan(key, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		return fn(fctx)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func NewService(source Source, cache ProductCache, logger *zap.Logger) *Service {
	if cache == nil {
		cache = NopCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		source: source,
		cache:  cache,
		logger: logger,
	}
}

func (s *Service) Products(ctx context.Context) Result[[]domain.Product] {
	v, err := s.shared(ctx, listKey, func(ctx context.Context) (interface{}, error) {
		products, err := s.cache.GetProducts(ctx)
		if err == nil {
			return products, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.Warn("product cache get failed", zap.Error(err))
		}

		products, err = s.source.ListProducts(ctx)
		if err != nil {
			return nil, err
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := s.cache.SetProducts(ctx, products); err != nil {
				s.logger.Warn("product cache set failed", zap.Error(err))
			}
		}()
		return products, nil
	})
	if err != nil {
		s.logger.Error("list products failed", zap.Error(err))
	}
	products, _ := v.([]domain.Product)
	return Resolve(products, err)
}

// Product loads a single product. An empty id never reaches the upstream.
func (s *Service) Product(ctx context.Context, id string) Result[domain.Product] {
	id = strings.TrimSpace(id)
	if id == "" {
		return Failed[domain.Product](ErrMissingProductID)
	}

	v, err := s.shared(ctx, productKey(id), func(ctx context.Context) (interface{}, error) {
		cached, err := s.cache.GetProduct(ctx, id)
		if err == nil {
			return *cached, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.Warn("product cache get failed", zap.String("product_id", id), zap.Error(err))
		}

		p, err := s.source.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := s.cache.SetProduct(ctx, &p); err != nil {
				s.logger.Warn("product cache set failed", zap.String("product_id", id), zap.Error(err))
			}
		}()
		return p, nil
	})
	if err != nil && !errors.Is(err, ErrProductNotFound) {
		s.logger.Error("get product failed", zap.String("product_id", id), zap.Error(err))
	}
	p, _ := v.(domain.Product)
	return Resolve(p, err)
}
