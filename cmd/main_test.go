package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"

	"github.com/okian/kpiboard/internal/adapters/cache"
	"github.com/okian/kpiboard/internal/adapters/export"
	app "github.com/okian/kpiboard/internal/app"
	"github.com/okian/kpiboard/internal/config"
	"github.com/okian/kpiboard/pkg/logger"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestConfigFromEnv(t *testing.T) {
	convey.Convey("Given KPIBOARD_ environment variables", t, func() {
		t.Setenv("KPIBOARD_ADDR", ":9191")
		t.Setenv("KPIBOARD_SOURCE", "fixture")
		t.Setenv("KPIBOARD_TOP_PER_ROLE", "5")

		convey.Convey("Then the configuration reflects them", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9191")
			convey.So(cfg.Source, convey.ShouldEqual, config.SourceFixture)
			convey.So(cfg.TopPerRole, convey.ShouldEqual, 5)
		})

		convey.Convey("And an invalid source fails the command before it runs", func() {
			t.Setenv("KPIBOARD_SOURCE", "ftp")
			_, err := execute(t, "report")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestReportCommand(t *testing.T) {
	convey.Convey("Given the fixture source", t, func() {
		t.Setenv("KPIBOARD_SOURCE", "fixture")
		t.Setenv("KPIBOARD_LOG_LEVEL", "error")

		convey.Convey("When running report", func() {
			out, err := execute(t, "report", "--granularity", "weekly")
			convey.So(err, convey.ShouldBeNil)

			var got struct {
				Source    string `json:"source"`
				Records   int    `json:"records"`
				Dashboard struct {
					Totals     map[string]any `json:"totals"`
					Conversion []any          `json:"conversion"`
					Trend      []any          `json:"trend"`
				} `json:"dashboard"`
			}
			convey.So(json.Unmarshal([]byte(out), &got), convey.ShouldBeNil)

			convey.Convey("Then it prints the dashboard of the fixture snapshot", func() {
				convey.So(got.Source, convey.ShouldEqual, "fixture")
				convey.So(got.Records, convey.ShouldBeGreaterThan, 0)
				convey.So(got.Dashboard.Totals, convey.ShouldNotBeEmpty)
				convey.So(got.Dashboard.Conversion, convey.ShouldHaveLength, 6)
				convey.So(got.Dashboard.Trend, convey.ShouldNotBeEmpty)
			})
		})

		convey.Convey("When the granularity is unknown", func() {
			_, err := execute(t, "report", "--granularity", "hourly")
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When from is after to", func() {
			_, err := execute(t, "report", "--from", "2025-03-10", "--to", "2025-03-01")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestExportCommand(t *testing.T) {
	convey.Convey("Given the fixture source", t, func() {
		t.Setenv("KPIBOARD_SOURCE", "fixture")
		t.Setenv("KPIBOARD_LOG_LEVEL", "error")
		path := filepath.Join(t.TempDir(), "kpi.xlsx")

		convey.Convey("When running export", func() {
			_, err := execute(t, "export", "-o", path)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the workbook holds every sheet", func() {
				f, err := excelize.OpenFile(path)
				convey.So(err, convey.ShouldBeNil)
				defer func() { _ = f.Close() }()

				convey.So(f.GetSheetList(), convey.ShouldResemble, []string{
					export.SheetRecords, export.SheetTotals, export.SheetMembers, export.SheetRoles,
				})
				rows, err := f.GetRows(export.SheetRecords)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(rows), convey.ShouldBeGreaterThan, 1)
			})
		})
	})
}

func TestServe(t *testing.T) {
	convey.Convey("Given a started fixture service", t, func() {
		_ = logger.Init(logger.WithLevel("error"), logger.WithOutput(io.Discard))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		svc := app.New()
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		convey.So(err, convey.ShouldBeNil)

		done := make(chan error, 1)
		go func() { done <- serve(ctx, ln, svc, logger.Get()) }()

		convey.Convey("Then the API, docs and metrics answer until shutdown", func() {
			base := "http://" + ln.Addr().String()
			for _, path := range []string{"/", "/healthz", "/totals", "/api-docs", "/openapi.yaml", "/metrics"} {
				var resp *http.Response
				for i := 0; i < 50; i++ {
					if resp, err = http.Get(base + path); err == nil {
						break
					}
					time.Sleep(10 * time.Millisecond)
				}
				convey.So(err, convey.ShouldBeNil)
				_ = resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				convey.So(resp.Header.Get("X-Request-ID"), convey.ShouldNotBeEmpty)
			}

			cancel()
			select {
			case err := <-done:
				convey.So(err, convey.ShouldBeNil)
			case <-time.After(5 * time.Second):
				t.Fatal("server did not shut down")
			}
		})
	})
}

func TestWiring(t *testing.T) {
	convey.Convey("Given a configuration", t, func() {
		ctx := context.Background()
		log := logger.Get()
		cfg := config.New()

		convey.Convey("When redis is unreachable", func() {
			cfg.CacheBackend = config.CacheRedis
			cfg.RedisAddr = "127.0.0.1:1"

			c, err := newCache(ctx, cfg, log)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the in-memory cache is used", func() {
				convey.So(c.Backend(), convey.ShouldEqual, cache.BackendMemory)
				convey.So(c.Close(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When caching is disabled", func() {
			cfg.CacheBackend = config.CacheNone
			c, err := newCache(ctx, cfg, log)
			convey.So(err, convey.ShouldBeNil)
			convey.So(c, convey.ShouldBeNil)
		})

		convey.Convey("When a settings file is configured", func() {
			cfg.SettingsDB = filepath.Join(t.TempDir(), "settings.db")
			store, err := newStore(ctx, cfg, log)
			convey.So(err, convey.ShouldBeNil)
			convey.So(store.Close(), convey.ShouldBeNil)
		})

		convey.Convey("When the timezone is unknown", func() {
			cfg.Timezone = "Mars/Olympus"
			_, _, err := newService(ctx, cfg, log)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestSystemMetrics(t *testing.T) {
	convey.Convey("Given the metric updaters", t, func() {
		convey.So(updateSystemMetrics, convey.ShouldNotPanic)

		svc := app.New()
		convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
	})
}
