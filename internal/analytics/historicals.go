package analytics

import (
	"context"
	"errors"

	"github.com/durabrake/findash/internal/backlog"
	"github.com/durabrake/findash/internal/period"
	"github.com/durabrake/findash/internal/snapshot"
)

// HistoricalTopCustomers is the number of customers listed per period.
const HistoricalTopCustomers = 10

// Section names used for cache keys, routes and exports.
const (
	SectionSummary     = "summary"
	SectionProducts    = "products"
	SectionNWC         = "nwc"
	SectionCustomers   = "customers"
	SectionBacklog     = "backlog"
	SectionHistoricals = "historicals"
)

// Sections lists every dashboard tab in display order.
var Sections = []string{SectionSummary, SectionProducts, SectionNWC, SectionCustomers, SectionBacklog, SectionHistoricals}

// PeriodCard describes one selectable period.
type PeriodCard struct {
	Period    period.Key `json:"period"`
	ShortName string     `json:"short_name"`
	LongName  string     `json:"long_name"`
	Current   bool       `json:"current"`
}

// Periods lists available periods, newest first.
func (s *Service) Periods(ctx context.Context) ([]period.Key, error) {
	cacheKey, err := s.cache.BuildKey(ctx, keyPeriods())
	if err != nil {
		return nil, err
	}
	var keys []period.Key
	err = s.cache.FetchJSON(ctx, cacheKey, &keys, func(ctx context.Context) (interface{}, error) {
		return s.source.Periods(ctx)
	})
	return keys, err
}

// PeriodCards lists available periods and flags current.
func (s *Service) PeriodCards(ctx context.Context, current period.Key) ([]PeriodCard, error) {
	keys, err := s.Periods(ctx)
	if err != nil {
		return nil, err
	}
	cards := make([]PeriodCard, 0, len(keys))
	for _, k := range keys {
		cards = append(cards, PeriodCard{Period: k, ShortName: k.ShortName(), LongName: k.LongName(), Current: k == current})
	}
	return cards, nil
}

// Latest returns the newest available period.
func (s *Service) Latest(ctx context.Context) (period.Key, error) {
	keys, err := s.Periods(ctx)
	if err != nil {
		return period.Key{}, err
	}
	if len(keys) == 0 {
		return period.Key{}, snapshot.ErrUnavailable
	}
	return keys[0], nil
}

// Historical is the one-page recap of a past period. Unavailable lists the
// sections whose snapshot documents are missing.
type Historical struct {
	Period       period.Key       `json:"period"`
	LongName     string           `json:"long_name"`
	Metrics      *MonthFigures    `json:"metrics,omitempty"`
	Comparisons  []Comparison     `json:"comparisons,omitempty"`
	RevenueTrend []MonthFigures   `json:"revenue_trend,omitempty"`
	TopCustomers []CustomerRow    `json:"top_customers,omitempty"`
	Backlog      *backlog.Summary `json:"backlog,omitempty"`
	Unavailable  []string         `json:"unavailable,omitempty"`
}

// Historical derives the recap for key.
func (s *Service) Historical(ctx context.Context, key period.Key) (Historical, error) {
	return fetch(ctx, s, SectionHistoricals, key, func(ctx context.Context) (Historical, error) {
		h := Historical{Period: key, LongName: key.LongName()}

		dash, err := s.source.Dashboard(ctx, key)
		switch {
		case errors.Is(err, snapshot.ErrUnavailable):
			h.Unavailable = append(h.Unavailable, SectionSummary)
		case err != nil:
			return Historical{}, err
		default:
			summary, err := s.buildSummary(dash)
			if err != nil && !errors.Is(err, snapshot.ErrUnavailable) {
				return Historical{}, err
			}
			if err == nil {
				h.Metrics = &summary.Current
				h.Comparisons = summary.Comparisons
				h.RevenueTrend = summary.Series
			} else {
				h.Unavailable = append(h.Unavailable, SectionSummary)
			}
		}

		cust, err := s.source.Customers(ctx, key)
		switch {
		case errors.Is(err, snapshot.ErrUnavailable):
			h.Unavailable = append(h.Unavailable, SectionCustomers)
		case err != nil:
			return Historical{}, err
		default:
			h.TopCustomers = s.buildCustomers(cust, HistoricalTopCustomers).Top
		}

		bl, err := s.source.Backlog(ctx, key)
		switch {
		case errors.Is(err, snapshot.ErrUnavailable):
			h.Unavailable = append(h.Unavailable, SectionBacklog)
		case err != nil:
			return Historical{}, err
		default:
			summary := backlog.Summarize(bl.Orders)
			h.Backlog = &summary
		}
		return h, nil
	})
}
