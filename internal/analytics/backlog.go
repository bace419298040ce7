package analytics

import (
	"context"

	"github.com/durabrake/findash/internal/backlog"
	"github.com/durabrake/findash/internal/period"
)

// BacklogReport is the backlog tab of one period.
type BacklogReport struct {
	Period period.Key `json:"period"`
	backlog.Report
}

// Backlog derives the backlog tab for key.
func (s *Service) Backlog(ctx context.Context, key period.Key) (BacklogReport, error) {
	return fetch(ctx, s, SectionBacklog, key, func(ctx context.Context) (BacklogReport, error) {
		bl, err := s.source.Backlog(ctx, key)
		if err != nil {
			return BacklogReport{}, err
		}
		return BacklogReport{
			Period: key,
			Report: backlog.Analyze(bl.Orders, bl.AsOf, s.policy.Backlog),
		}, nil
	})
}
