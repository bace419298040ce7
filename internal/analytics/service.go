package analytics

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/durabrake/findash/internal/backlog"
	"github.com/durabrake/findash/internal/customers"
	"github.com/durabrake/findash/internal/period"
	"github.com/durabrake/findash/internal/snapshot"
	"github.com/durabrake/findash/internal/threshold"
)

// Source exposes the period snapshots reports are derived from.
type Source interface {
	Periods(ctx context.Context) ([]period.Key, error)
	Dashboard(ctx context.Context, key period.Key) (*snapshot.Dashboard, error)
	Customers(ctx context.Context, key period.Key) (*snapshot.Customers, error)
	Backlog(ctx context.Context, key period.Key) (*snapshot.Backlog, error)
}

// Policy carries every tunable used during derivation.
type Policy struct {
	Thresholds   threshold.Table
	Segments     customers.Policy
	Window       int
	TopCustomers int
	Backlog      backlog.Config
}

// DefaultPolicy returns the stock thresholds, RFM tiers and L3M window.
func DefaultPolicy() Policy {
	return Policy{
		Thresholds:   threshold.DefaultTable(),
		Segments:     customers.DefaultPolicy(),
		Window:       period.DefaultWindow,
		TopCustomers: 15,
		Backlog:      backlog.DefaultConfig(),
	}
}

func (p Policy) withDefaults() Policy {
	def := DefaultPolicy()
	if p.Thresholds == nil {
		p.Thresholds = def.Thresholds
	}
	if p.Window <= 0 {
		p.Window = def.Window
	}
	if p.TopCustomers <= 0 {
		p.TopCustomers = def.TopCustomers
	}
	if p.Backlog.AgeBuckets == nil {
		p.Backlog.AgeBuckets = def.Backlog.AgeBuckets
	}
	if p.Backlog.ShipBuckets == nil {
		p.Backlog.ShipBuckets = def.Backlog.ShipBuckets
	}
	if p.Backlog.TopN <= 0 {
		p.Backlog.TopN = def.Backlog.TopN
	}
	p.Backlog.Thresholds = p.Thresholds
	return p
}

// Service derives dashboard reports from snapshots and caches them per period.
type Service struct {
	source Source
	cache  *Cache
	policy Policy
	flight singleflight.Group
}

// NewService wires a snapshot Source with a Cache helper. A nil cache
// derives every report on demand. A nil segment policy keeps published
// segment labels.
func NewService(source Source, cache *Cache, policy Policy) *Service {
	return &Service{source: source, cache: cache, policy: policy.withDefaults()}
}

// Policy returns the effective policy.
func (s *Service) Policy() Policy {
	return s.policy
}

// Cache exposes the report cache for invalidation.
func (s *Service) Cache() *Cache {
	return s.cache
}

// Warm derives every section of key so later requests are served from cache.
// Sections without a snapshot document are skipped.
func (s *Service) Warm(ctx context.Context, key period.Key) error {
	steps := []func(context.Context, period.Key) error{
		func(ctx context.Context, k period.Key) error { _, err := s.Summary(ctx, k); return err },
		func(ctx context.Context, k period.Key) error { _, err := s.Products(ctx, k); return err },
		func(ctx context.Context, k period.Key) error { _, err := s.WorkingCapital(ctx, k); return err },
		func(ctx context.Context, k period.Key) error { _, err := s.Customers(ctx, k); return err },
		func(ctx context.Context, k period.Key) error { _, err := s.Backlog(ctx, k); return err },
		func(ctx context.Context, k period.Key) error { _, err := s.Historical(ctx, k); return err },
	}
	var errs []error
	for _, step := range steps {
		if err := step(ctx, key); err != nil && !errors.Is(err, snapshot.ErrUnavailable) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// fetch resolves section for key through the cache. Concurrent misses for the
// same key share one derivation.
func fetch[T any](ctx context.Context, s *Service, section string, key period.Key, build func(context.Context) (T, error)) (T, error) {
	var zero T
	cacheKey, err := s.cache.BuildKey(ctx, keySection(section, key))
	if err != nil {
		return zero, err
	}
	val, err, _ := s.singleflightBuild(ctx, cacheKey, func(ctx context.Context) (interface{}, error) {
		missed := false
		loader := func(ctx context.Context) (interface{}, error) {
			missed = true
			recordCacheMiss(section, key.String())
			start := time.Now()
			out, err := build(ctx)
			observeBuildDuration(section, key.String(), time.Since(start))
			return out, err
		}
		var out T
		if err := s.cache.FetchJSON(ctx, cacheKey, &out, loader); err != nil {
			return nil, err
		}
		if !missed {
			recordCacheHit(section, key.String())
		}
		return out, nil
	})
	if err != nil {
		return zero, err
	}
	return val.(T), nil
}

func (s *Service) singleflightBuild(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error, bool) {
	resultChan := s.flight.DoChan(key, func() (interface{}, error) {
		return fn(ctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err(), false
	case res := <-resultChan:
		return res.Val, res.Err, res.Shared
	}
}

func ptr(v float64) *float64 {
	return &v
}
