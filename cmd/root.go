package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/kpiboard/internal/config"
	"github.com/okian/kpiboard/internal/domain/filter"
	"github.com/okian/kpiboard/pkg/logger"
)

// cli holds state shared by the subcommands.
type cli struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "kpiboard",
		Short: "Sales pipeline KPI dashboard",
		Long: `kpiboard aggregates daily activity records of a real-estate acquisitions
team into totals, conversion stages, funnels, role rankings and trends.

Without a subcommand it runs the HTTP server.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), c.cfg)
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "YAML config file (overrides "+config.EnvConfigFile+")")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(newServeCmd(c), newReportCmd(c), newExportCmd(c))
	return root
}

// setup loads configuration (defaults -> optional file -> env) and
// initialises logging before any subcommand runs.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if c.configPath != "" {
		if err := os.Setenv(config.EnvConfigFile, c.configPath); err != nil {
			return err
		}
	}
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithOutput(cmd.ErrOrStderr())); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	c.cfg = cfg
	return nil
}

// filterFlags are shared by report and export.
type filterFlags struct {
	member      string
	period      string
	from        string
	to          string
	granularity string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.member, "member", filter.AllMembers, "member name or alias")
	cmd.Flags().StringVar(&f.period, "period", string(filter.PeriodAll), "all, today, week, month or custom")
	cmd.Flags().StringVar(&f.from, "from", "", "inclusive start date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.to, "to", "", "inclusive end date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.granularity, "granularity", "daily", "trend buckets: daily or weekly")
}

func (f *filterFlags) criteria() (filter.Criteria, error) {
	q := map[string][]string{"member": {f.member}, "period": {f.period}}
	if f.from != "" {
		q["from"] = []string{f.from}
	}
	if f.to != "" {
		q["to"] = []string{f.to}
	}
	return filter.ParseCriteria(q)
}
