package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/kpiboard/internal/adapters/export"
	app "github.com/okian/kpiboard/internal/app"
	"github.com/okian/kpiboard/internal/config"
	"github.com/okian/kpiboard/internal/domain/aggregate"
	"github.com/okian/kpiboard/pkg/logger"
)

func newExportCmd(c *cli) *cobra.Command {
	var (
		f    filterFlags
		path string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered records and views to an xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				path = fmt.Sprintf("kpi-export-%s.xlsx", time.Now().Format("2006-01-02"))
			}
			return runExport(cmd.Context(), c.cfg, f, path)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&path, "output", "o", "", "workbook path (default kpi-export-YYYY-MM-DD.xlsx)")
	return cmd
}

func runExport(ctx context.Context, cfg *config.Config, f filterFlags, path string) error {
	return withView(ctx, cfg, f, func(v app.View, g aggregate.Granularity) (err error) {
		out, err := os.Create(path)
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, out.Close()) }()

		if err := export.Write(out, v.Records, v.Dashboard(g)); err != nil {
			return err
		}
		logger.Get().Info(ctx, "export written",
			logger.String("path", path),
			logger.Int("records", len(v.Records)),
			logger.String("source", v.Snapshot.Source),
		)
		return nil
	})
}
