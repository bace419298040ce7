package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/durabrake/findash/internal/analytics"
	"github.com/durabrake/findash/internal/analytics/ui"
	"github.com/durabrake/findash/internal/period"
	"github.com/durabrake/findash/internal/snapshot"
)

const commandTimeout = 30 * time.Second

const sectionReconcile = "reconcile"

var errMismatches = errors.New("reconcile: figures outside tolerance")

func newPeriodsCommand(rt *state) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "periods",
		Short: "List periods with a dashboard snapshot, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			svc, err := rt.offlineService()
			if err != nil {
				return err
			}
			latest, err := svc.Latest(ctx)
			if errors.Is(err, snapshot.ErrUnavailable) {
				fmt.Fprintf(cmd.ErrOrStderr(), "no periods found under %s\n", rt.cfg.DataDir)
				return nil
			}
			if err != nil {
				return err
			}
			cards, err := svc.PeriodCards(ctx, latest)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"periods": cards})
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, card := range cards {
				marker := ""
				if card.Current {
					marker = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", card.Period, card.LongName, marker)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newDeriveCommand(rt *state) *cobra.Command {
	return &cobra.Command{
		Use:   "derive <period> [section]",
		Short: "Print derived dashboard sections as JSON",
		Long: `Derive one section (summary, products, nwc, customers, backlog, historicals,
reconcile) or, without a section, every section of the period. Sections whose
snapshot document is missing are listed under "unavailable".`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := period.ParseKey(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			svc, err := rt.offlineService()
			if err != nil {
				return err
			}
			if len(args) == 2 {
				report, err := deriveSection(ctx, svc, key, args[1])
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), report)
			}

			out := map[string]any{"period": key}
			var unavailable []string
			for _, section := range append(append([]string{}, analytics.Sections...), sectionReconcile) {
				report, err := deriveSection(ctx, svc, key, section)
				if errors.Is(err, snapshot.ErrUnavailable) {
					unavailable = append(unavailable, section)
					continue
				}
				if err != nil {
					return fmt.Errorf("%s: %w", section, err)
				}
				out[section] = report
			}
			if len(unavailable) > 0 {
				out["unavailable"] = unavailable
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}

func deriveSection(ctx context.Context, svc *analytics.Service, key period.Key, section string) (any, error) {
	switch section {
	case analytics.SectionSummary:
		return svc.Summary(ctx, key)
	case analytics.SectionProducts:
		return svc.Products(ctx, key)
	case analytics.SectionNWC:
		return svc.WorkingCapital(ctx, key)
	case analytics.SectionCustomers:
		return svc.Customers(ctx, key)
	case analytics.SectionBacklog:
		return svc.Backlog(ctx, key)
	case analytics.SectionHistoricals:
		return svc.Historical(ctx, key)
	case sectionReconcile:
		return svc.Reconcile(ctx, key)
	default:
		return nil, fmt.Errorf("unknown section %q", section)
	}
}

func newReconcileCommand(rt *state) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "reconcile <period>",
		Short: "Compare published snapshot figures with recomputed values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := period.ParseKey(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			svc, err := rt.offlineService()
			if err != nil {
				return err
			}
			rec, err := svc.Reconcile(ctx, key)
			if err != nil {
				return err
			}
			if err := writeDriftTable(cmd.OutOrStdout(), rec); err != nil {
				return err
			}
			if strict && rec.Mismatches() > 0 {
				return fmt.Errorf("%w: %d of %d rows", errMismatches, rec.Mismatches(), len(rec.Rows))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any figure drifts outside tolerance")
	return cmd
}

func writeDriftTable(w io.Writer, rec analytics.Reconciliation) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "SECTION\tMETRIC\tPUBLISHED\tDERIVED\tDELTA\tOK\t")
	for _, row := range rec.Rows {
		ok := "yes"
		if !row.Within {
			ok = "NO"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			row.Section, row.Metric, number(row.Published), number(row.Derived), number(row.Delta), ok)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, section := range rec.Unavailable {
		fmt.Fprintf(w, "%s: no snapshot document\n", section)
	}
	fmt.Fprintf(w, "%s: %d rows, %d outside tolerance\n", rec.Period, len(rec.Rows), rec.Mismatches())
	return nil
}

func number(v *float64) string {
	if v == nil {
		return ui.NotAvailable
	}
	return fmt.Sprintf("%.2f", *v)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
