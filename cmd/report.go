package main

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/spf13/cobra"

	app "github.com/okian/kpiboard/internal/app"
	"github.com/okian/kpiboard/internal/config"
	"github.com/okian/kpiboard/internal/domain/aggregate"
	"github.com/okian/kpiboard/pkg/logger"
)

type report struct {
	Source    string              `json:"source"`
	FetchedAt time.Time           `json:"fetched_at"`
	Warning   string              `json:"warning,omitempty"`
	Records   int                 `json:"records"`
	Dashboard aggregate.Dashboard `json:"dashboard"`
}

func newReportCmd(c *cli) *cobra.Command {
	var f filterFlags
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Fetch once and print the dashboard as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd.Context(), c.cfg, f, cmd.OutOrStdout())
		},
	}
	f.register(cmd)
	return cmd
}

func runReport(ctx context.Context, cfg *config.Config, f filterFlags, out io.Writer) error {
	return withView(ctx, cfg, f, func(v app.View, g aggregate.Granularity) error {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report{
			Source:    v.Snapshot.Source,
			FetchedAt: v.Snapshot.FetchedAt,
			Warning:   v.Snapshot.Warning,
			Records:   len(v.Records),
			Dashboard: v.Dashboard(g),
		})
	})
}

// withView runs a single-shot service: one startup fetch, no ticker, no
// settings writes.
func withView(ctx context.Context, cfg *config.Config, f filterFlags, fn func(app.View, aggregate.Granularity) error) error {
	criteria, err := f.criteria()
	if err != nil {
		return err
	}
	g, err := aggregate.ParseGranularity(f.granularity)
	if err != nil {
		return err
	}

	log := logger.Get()
	svc, cleanup, err := newService(ctx, cfg, log, app.WithRefreshInterval(0))
	if err != nil {
		return err
	}
	defer cleanup()
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	return fn(svc.View(criteria), g)
}
