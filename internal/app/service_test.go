package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/goleak"

	service "github.com/okian/kpiboard/internal/app"
	"github.com/okian/kpiboard/internal/adapters/repository"
	"github.com/okian/kpiboard/internal/adapters/source"
	"github.com/okian/kpiboard/internal/domain/filter"
	"github.com/okian/kpiboard/internal/domain/model"
	"github.com/okian/kpiboard/internal/domain/settings"
	"github.com/okian/kpiboard/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithLevel("error")); err != nil {
		panic(err)
	}
	goleak.VerifyTestMain(m)
}

var errDown = errors.New("upstream down")

// stubSource returns records or err and can be made to block until gate is
// closed.
type stubSource struct {
	records []model.KPIRecord
	err     error
	gate    chan struct{}
	block   atomic.Bool
	calls   atomic.Int32
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Fetch(ctx context.Context, _ source.Query) ([]model.KPIRecord, error) {
	s.calls.Add(1)
	if s.block.Load() {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return append([]model.KPIRecord(nil), s.records...), nil
}

type invalidatingSource struct {
	stubSource
	invalidated atomic.Int32
}

func (s *invalidatingSource) Invalidate(context.Context) error {
	s.invalidated.Add(1)
	return nil
}

func fixedClock() time.Time { return time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC) }

func startService(opts ...service.Option) *service.Service {
	opts = append([]service.Option{service.WithClock(fixedClock)}, opts...)
	svc := service.New(opts...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service with default options", t, func() {
		svc := service.New()

		Convey("Refresh requests before Start are refused", func() {
			_, err := svc.RequestRefresh(context.Background(), model.TriggerManual, false)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})

		Convey("Start takes a fixture snapshot", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			defer svc.Stop()

			snap := svc.Snapshot()
			So(snap.ID, ShouldNotBeEmpty)
			So(snap.Source, ShouldEqual, source.NameFixture)
			So(snap.Warning, ShouldBeEmpty)
			So(len(snap.Records), ShouldEqual, 5)

			stats := svc.GetStats()
			So(stats["started"], ShouldBeTrue)
			So(stats["snapshot_records"], ShouldEqual, 5)
		})

		Convey("Stop is idempotent", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			svc.Stop()
			So(func() { svc.Stop() }, ShouldNotPanic)
			So(svc.GetStats()["started"], ShouldBeFalse)
		})
	})
}

func TestService_Refresh(t *testing.T) {
	Convey("Given a live source", t, func() {
		src := &stubSource{records: []model.KPIRecord{
			{ID: 1, Name: "Kyle", Date: model.NewDate(2025, 3, 12), SMSSent: 10, SMSLeads: 2},
			{ID: 2, Name: "Gina", Date: model.NewDate(2025, 3, 1), ColdCalls: 4},
		}, gate: make(chan struct{})}
		svc := startService(service.WithSource(src))
		defer svc.Stop()

		Convey("Aliases are resolved on ingestion", func() {
			snap := svc.Snapshot()
			So(snap.Source, ShouldEqual, "stub")
			So(snap.Records[0].Name, ShouldEqual, "Kyle")
			So(snap.Records[0].Member, ShouldEqual, "Alex")
			So(svc.Members(), ShouldResemble, []string{"Alex", "Gina"})
		})

		Convey("View filters by member and period", func() {
			v := svc.View(filter.Criteria{Member: "Kyle", Period: filter.PeriodAll})
			So(len(v.Records), ShouldEqual, 1)
			So(v.Records[0].Member, ShouldEqual, "Alex")

			v = svc.View(filter.Criteria{Member: filter.AllMembers, Period: filter.PeriodToday})
			So(len(v.Records), ShouldEqual, 1)

			d := v.Dashboard("")
			So(d.Totals.SMSSent, ShouldEqual, 10)
		})

		Convey("A queued refresh is picked up by the worker", func() {
			before := src.calls.Load()
			job, err := svc.RequestRefresh(context.Background(), model.TriggerManual, false)
			So(err, ShouldBeNil)
			So(job.ID, ShouldNotBeEmpty)
			So(job.Trigger, ShouldEqual, model.TriggerManual)

			deadline := time.Now().Add(2 * time.Second)
			for src.calls.Load() == before && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			So(src.calls.Load(), ShouldBeGreaterThan, before)
		})

		Convey("A full queue reports backpressure", func() {
			src.block.Store(true)
			defer close(src.gate)

			var err error
			for range 10 {
				if _, err = svc.RequestRefresh(context.Background(), model.TriggerManual, false); err != nil {
					break
				}
			}
			So(errors.Is(err, service.ErrBackpressure), ShouldBeTrue)
			src.block.Store(false)
		})
	})

	Convey("Given a failing source", t, func() {
		src := &stubSource{err: errDown}
		svc := startService(service.WithSource(src))
		defer svc.Stop()

		Convey("The fixture set is served with a warning", func() {
			snap := svc.Snapshot()
			So(snap.Source, ShouldEqual, source.NameFixture)
			So(snap.Warning, ShouldContainSubstring, "upstream down")
			So(len(snap.Records), ShouldEqual, 5)
			So(svc.GetStats()["warning"], ShouldNotBeNil)
		})

		Convey("A later successful refresh clears the warning", func() {
			src.err = nil
			src.records = []model.KPIRecord{{ID: 1, Name: "Gina", Date: model.NewDate(2025, 3, 12)}}
			snap, err := svc.RefreshNow(context.Background(), model.TriggerManual)
			So(err, ShouldBeNil)
			So(snap.Warning, ShouldBeEmpty)
			So(svc.Snapshot().Source, ShouldEqual, "stub")
		})
	})

	Convey("Given a cached source", t, func() {
		src := &invalidatingSource{}
		src.gate = make(chan struct{})
		svc := startService(service.WithSource(src))
		defer svc.Stop()

		Convey("A forced job invalidates the cache first", func() {
			err := svc.Refresh(context.Background(), model.RefreshJob{ID: "j", Trigger: model.TriggerManual, Force: true})
			So(err, ShouldBeNil)
			So(src.invalidated.Load(), ShouldEqual, 1)

			err = svc.Refresh(context.Background(), model.RefreshJob{ID: "k", Trigger: model.TriggerManual})
			So(err, ShouldBeNil)
			So(src.invalidated.Load(), ShouldEqual, 1)
		})
	})
}

func TestService_Settings(t *testing.T) {
	Convey("Given a started service with a memory store", t, func() {
		store := repository.NewMemoryStore()
		svc := startService(service.WithSettingsStore(store))
		defer svc.Stop()
		ctx := context.Background()

		Convey("Benchmarks are validated and persisted", func() {
			err := svc.UpdateBenchmark(ctx, settings.SMSResponseRate, settings.Range{Min: 5, Max: 9})
			So(err, ShouldBeNil)
			So(svc.Settings().Benchmarks.Get(settings.SMSResponseRate), ShouldResemble, settings.Range{Min: 5, Max: 9})

			loaded, err := store.Load(ctx)
			So(err, ShouldBeNil)
			So(loaded.Benchmarks.Get(settings.SMSResponseRate).Max, ShouldEqual, 9.0)

			err = svc.UpdateBenchmark(ctx, settings.SMSResponseRate, settings.Range{Min: 9, Max: 5})
			So(errors.Is(err, settings.ErrInvalidBenchmark), ShouldBeTrue)
			err = svc.UpdateBenchmark(ctx, "bogus", settings.Range{Min: 1, Max: 2})
			So(errors.Is(err, settings.ErrUnknownBenchmark), ShouldBeTrue)
		})

		Convey("Members can be added, reassigned and removed", func() {
			So(svc.AddMember(ctx, "Maya"), ShouldBeNil)
			role, ok := svc.Settings().Roles.RoleOf("Maya")
			So(ok, ShouldBeTrue)
			So(role, ShouldEqual, settings.LeadGenerator)

			So(errors.Is(svc.AddMember(ctx, "maya"), service.ErrMemberExists), ShouldBeTrue)
			So(errors.Is(svc.AddMember(ctx, "  "), settings.ErrInvalidMember), ShouldBeTrue)

			So(svc.AssignRole(ctx, "MAYA", settings.Closer), ShouldBeNil)
			role, _ = svc.Settings().Roles.RoleOf("Maya")
			So(role, ShouldEqual, settings.Closer)

			So(svc.RemoveMember(ctx, "Maya"), ShouldBeNil)
			_, ok = svc.Settings().Roles.RoleOf("Maya")
			So(ok, ShouldBeFalse)

			So(errors.Is(svc.RemoveMember(ctx, "Maya"), service.ErrNotFound), ShouldBeTrue)
			So(errors.Is(svc.AssignRole(ctx, "Nobody", settings.Closer), service.ErrNotFound), ShouldBeTrue)
		})

		Convey("Alias changes re-resolve the snapshot", func() {
			So(svc.SetAlias(ctx, "Jhaniel Repuela", "Jhaniel"), ShouldBeNil)
			for _, r := range svc.Snapshot().Records {
				if r.Name == "Jhaniel Repuela" {
					So(r.Member, ShouldEqual, "Jhaniel")
				}
			}

			So(svc.SetAlias(ctx, "jhaniel repuela", ""), ShouldBeNil)
			_, ok := svc.Settings().Aliases["Jhaniel Repuela"]
			So(ok, ShouldBeFalse)
			for _, r := range svc.Snapshot().Records {
				So(r.Member, ShouldEqual, r.Name)
			}

			So(errors.Is(svc.SetAlias(ctx, "Nobody", ""), service.ErrNotFound), ShouldBeTrue)
			So(svc.SetAlias(ctx, "Gina", "Alex"), ShouldBeNil)
			So(errors.Is(svc.SetAlias(ctx, "Alex", "Someone"), settings.ErrAliasChain), ShouldBeTrue)
		})
	})

	Convey("Given a SQLite settings file", t, func() {
		path := filepath.Join(t.TempDir(), "settings.db")
		ctx := context.Background()

		open := func() *service.Service {
			store, err := repository.NewSQLiteStore(ctx, path)
			So(err, ShouldBeNil)
			return startService(service.WithSettingsStore(store))
		}

		Convey("Changes survive a restart", func() {
			first := open()
			So(first.AddMember(ctx, "Maya"), ShouldBeNil)
			So(first.SetAlias(ctx, "M. Lopez", "Maya"), ShouldBeNil)
			first.Stop()

			second := open()
			defer second.Stop()
			_, ok := second.Settings().Roles.RoleOf("Maya")
			So(ok, ShouldBeTrue)
			So(second.Settings().Aliases.Canonical("m. lopez"), ShouldEqual, "Maya")
		})
	})
}
