package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/durabrake/findash/internal/analytics"
	"github.com/durabrake/findash/internal/app"
	"github.com/durabrake/findash/internal/snapshot"
)

// Version, Commit and BuildDate are set at build time via ldflags.
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// skipConfig marks commands that run without loading configuration.
const skipConfig = "skip-config"

// state is the runtime state shared by subcommands once the root pre-run has
// loaded configuration.
type state struct {
	cfg       *app.Config
	logger    *slog.Logger
	logCloser io.Closer
	dataDir   string
}

// NewRootCommand builds the findash command tree.
func NewRootCommand() *cobra.Command {
	rt := &state{}
	root := &cobra.Command{
		Use:   "findash",
		Short: "findash derives and serves monthly financial dashboards",
		Long: `findash reads the monthly snapshot documents under DATA_DIR, derives
working-capital, customer and backlog metrics, and serves them as an HTML
dashboard and JSON API.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipConfig] == "true" {
				return nil
			}
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			if rt.dataDir != "" {
				cfg.DataDir = rt.dataDir
			}
			rt.cfg = cfg
			rt.logger, rt.logCloser = app.NewLogger(cfg)
			rt.logger.Debug("findash starting",
				slog.String("version", Version),
				slog.String("commit", Commit),
				slog.String("build_date", BuildDate),
				slog.String("command", cmd.Name()))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if rt.logCloser != nil {
				return rt.logCloser.Close()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&rt.dataDir, "data-dir", "", "snapshot directory (overrides DATA_DIR)")

	root.AddCommand(
		newServeCommand(rt),
		newPeriodsCommand(rt),
		newDeriveCommand(rt),
		newReconcileCommand(rt),
		newJobsCommand(rt),
		newHashPasswordCommand(),
		newVersionCommand(),
	)
	return root
}

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

// offlineService derives reports straight from DATA_DIR without Redis.
func (rt *state) offlineService() (*analytics.Service, error) {
	policy, err := app.LoadPolicy(rt.cfg.PolicyFile)
	if err != nil {
		return nil, err
	}
	loader := snapshot.NewLoader(os.DirFS(rt.cfg.DataDir))
	return analytics.NewService(loader, nil, policy), nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print build information",
		Annotations: map[string]string{skipConfig: "true"},
		Args:        cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "findash %s (commit %s, built %s)\n", Version, Commit, BuildDate)
		},
	}
}
