package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/durabrake/findash/internal/period"
	"github.com/durabrake/findash/internal/platform/cache"
	"github.com/durabrake/findash/jobs"
)

const (
	jobWarmup = "warmup"
	jobBump   = "bump"
)

// JobsCLI enqueues and inspects dashboard tasks from the command line.
type JobsCLI struct {
	client    *jobs.Client
	inspector *asynq.Inspector
}

// NewJobsCLI connects lazily to the Redis described by opts.
func NewJobsCLI(opts cache.Options) *JobsCLI {
	conn := opts.AsynqOpt()
	return &JobsCLI{client: jobs.NewClient(conn), inspector: asynq.NewInspector(conn)}
}

// Close releases both connections.
func (c *JobsCLI) Close() error {
	return errors.Join(c.inspector.Close(), c.client.Close())
}

// Trigger enqueues the named task. periods only applies to warmup and reason
// only to bump.
func (c *JobsCLI) Trigger(ctx context.Context, name string, periods []period.Key, reason string) (*asynq.TaskInfo, error) {
	switch name {
	case jobWarmup, jobs.TaskDashboardWarmup:
		return c.client.EnqueueWarmup(ctx, jobs.WarmupPayload{Periods: periods})
	case jobBump, jobs.TaskDashboardBump:
		return c.client.EnqueueBump(ctx, jobs.BumpPayload{Reason: reason})
	}
	return nil, fmt.Errorf("unknown job %q (want %s or %s)", name, jobWarmup, jobBump)
}

// InspectQueue returns the default queue's counters.
func (c *JobsCLI) InspectQueue() (*asynq.QueueInfo, error) {
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return nil, fmt.Errorf("inspect queue %s: %w", jobs.QueueDefault, err)
	}
	return info, nil
}

func newJobsCommand(rt *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Enqueue and inspect background dashboard tasks",
	}
	cmd.AddCommand(newTriggerCommand(rt), newStatsCommand(rt))
	return cmd
}

func newTriggerCommand(rt *state) *cobra.Command {
	var (
		rawPeriods []string
		reason     string
	)
	cmd := &cobra.Command{
		Use:       "trigger warmup|bump",
		Short:     "Enqueue a cache warmup or a cache version bump",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{jobWarmup, jobBump},
		RunE: func(cmd *cobra.Command, args []string) error {
			periods, err := parsePeriods(rawPeriods)
			if err != nil {
				return err
			}
			cli := NewJobsCLI(rt.redisOptions())
			defer cli.Close()
			info, err := cli.Trigger(cmd.Context(), args[0], periods, reason)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s as %s on queue %s\n", info.Type, info.ID, info.Queue)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&rawPeriods, "period", nil, "warm only these periods (YY.MM, repeatable)")
	cmd.Flags().StringVar(&reason, "reason", "manual", "reason recorded with a bump")
	return cmd
}

func newStatsCommand(rt *state) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show counters for the default queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli := NewJobsCLI(rt.redisOptions())
			defer cli.Close()
			info, err := cli.InspectQueue()
			if err != nil {
				return err
			}
			return writeQueueInfo(cmd.OutOrStdout(), info)
		},
	}
}

func writeQueueInfo(w io.Writer, info *asynq.QueueInfo) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "QUEUE\tPENDING\tACTIVE\tSCHEDULED\tRETRY\tFAILED TODAY\tPAUSED")
	fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%t\n",
		info.Queue, info.Pending, info.Active, info.Scheduled, info.Retry, info.Failed, info.Paused)
	return tw.Flush()
}

func parsePeriods(raw []string) ([]period.Key, error) {
	keys := make([]period.Key, 0, len(raw))
	for _, r := range raw {
		key, err := period.ParseKey(r)
		if err != nil {
			return nil, fmt.Errorf("--period %q: %w", r, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (rt *state) redisOptions() cache.Options {
	return cache.Options{Addr: rt.cfg.RedisAddr, Password: rt.cfg.RedisPassword, DB: rt.cfg.RedisDB}
}
