// Package service owns the record snapshot and the editable settings and
// exposes them to the HTTP API and the CLI.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/okian/kpiboard/internal/adapters/mq/queue"
	"github.com/okian/kpiboard/internal/adapters/mq/worker"
	"github.com/okian/kpiboard/internal/adapters/repository"
	"github.com/okian/kpiboard/internal/adapters/source"
	"github.com/okian/kpiboard/internal/domain/aggregate"
	"github.com/okian/kpiboard/internal/domain/filter"
	"github.com/okian/kpiboard/internal/domain/model"
	"github.com/okian/kpiboard/internal/domain/settings"
	"github.com/okian/kpiboard/pkg/logger"
	"github.com/okian/kpiboard/pkg/metrics"
)

const (
	defaultQueueSize       = 8
	defaultJobTimeout      = 30 * time.Second
	workerShutdownTimeout  = 5 * time.Second
	refreshKey             = "refresh"
	fallbackWarningMessage = "showing fixture data because the live source could not be reached: %v"
)

// Snapshot is the record set currently served. Records are alias-resolved;
// raw keeps the fetched rows so aliases can be re-applied.
type Snapshot struct {
	ID        string            `json:"id"`
	Source    string            `json:"source"`
	FetchedAt time.Time         `json:"fetched_at"`
	Warning   string            `json:"warning,omitempty"`
	Records   []model.KPIRecord `json:"-"`

	raw []model.KPIRecord
}

// View is a filtered slice of the snapshot with the settings it should be
// aggregated with.
type View struct {
	Snapshot Snapshot
	Criteria filter.Criteria
	Records  []model.KPIRecord
	Settings settings.Settings
	TopN     int
}

// Dashboard aggregates the view.
func (v View) Dashboard(g aggregate.Granularity) aggregate.Dashboard {
	return aggregate.Build(v.Records, v.Settings, aggregate.Options{TopN: v.TopN, Granularity: g})
}

// Service implements the API dependencies for the dashboard.
type Service struct {
	mu sync.RWMutex

	// Core components
	source   source.Source
	fallback source.Source
	store    repository.SettingsStore
	queue    *queue.InMemoryQueue
	worker   *worker.InMemoryWorker
	group    singleflight.Group

	// Configuration
	refreshInterval time.Duration
	queueSize       int
	jobTimeout      time.Duration
	topN            int
	loc             *time.Location
	now             func() time.Time

	// State
	settings settings.Settings
	snapshot Snapshot
	started  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		fallback:   source.NewFixture(),
		queueSize:  defaultQueueSize,
		jobTimeout: defaultJobTimeout,
		topN:       aggregate.DefaultTopN,
		loc:        time.UTC,
		now:        time.Now,
		settings:   settings.Defaults(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.source == nil {
		s.source = s.fallback
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Start loads settings, takes the first snapshot and starts the refresh
// worker and the periodic refresh ticker.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}

	loaded, err := s.store.Load(ctx)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("load settings: %w", err)
	}
	s.settings = loaded

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.worker = worker.NewInMemoryWorker(s.queue, s,
		worker.WithLogger(s.logger),
		worker.WithJobTimeout(s.jobTimeout),
	)
	s.started = true
	s.mu.Unlock()

	if _, err := s.RefreshNow(ctx, model.TriggerStartup); err != nil {
		s.logger.Error(ctx, "initial refresh failed", logger.Error(err))
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.worker.Run(runCtx)
	}()

	if s.refreshInterval > 0 {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.tick(runCtx)
		}()
	}

	s.logger.Info(ctx, "service started",
		logger.String("origin", s.source.Name()),
		logger.Int("queue_size", s.queueSize),
		logger.Duration("refresh_interval", s.refreshInterval),
	)
	return nil
}

// Stop shuts down the worker and ticker and closes the settings store.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping service")

	_ = s.queue.Close()
	shutdownCtx, cancel := context.WithTimeout(ctx, workerShutdownTimeout)
	if err := s.worker.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "worker shutdown", logger.Error(err))
	}
	cancel()
	s.cancel()
	s.wg.Wait()

	if err := s.store.Close(); err != nil {
		s.logger.Warn(ctx, "closing settings store", logger.Error(err))
	}
	s.logger.Info(ctx, "service stopped")
}

func (s *Service) tick(ctx context.Context) {
	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RequestRefresh(ctx, model.TriggerPeriodic, false); err != nil {
				s.logger.Debug(ctx, "periodic refresh skipped", logger.Error(err))
			}
		}
	}
}

// RequestRefresh queues an asynchronous refresh. A full queue returns
// ErrBackpressure.
func (s *Service) RequestRefresh(ctx context.Context, trigger string, force bool) (model.RefreshJob, error) {
	s.mu.RLock()
	started, q := s.started, s.queue
	s.mu.RUnlock()
	if !started {
		return model.RefreshJob{}, ErrNotStarted
	}

	job := model.RefreshJob{ID: uuid.NewString(), Trigger: trigger, Force: force, RequestedAt: s.now()}
	if !q.Enqueue(ctx, job) {
		return model.RefreshJob{}, ErrBackpressure
	}
	return job, nil
}

// Refresh runs a queued job. It implements worker.Refresher.
func (s *Service) Refresh(ctx context.Context, job queue.Job) error {
	if job.Force {
		s.invalidate(ctx)
	}
	_, err := s.RefreshNow(ctx, job.Trigger)
	return err
}

// RefreshNow fetches synchronously and installs a new snapshot. Concurrent
// calls share one fetch. A failing source falls back to the fixture set and
// the snapshot carries a warning until the next successful refresh.
func (s *Service) RefreshNow(ctx context.Context, trigger string) (Snapshot, error) {
	v, err, shared := s.group.Do(refreshKey, func() (any, error) {
		return s.fetch(ctx)
	})
	if err != nil {
		return Snapshot{}, err
	}
	snap, _ := v.(Snapshot)
	if !shared {
		metrics.RecordSnapshotRefresh(trigger)
	}
	return snap, nil
}

func (s *Service) fetch(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{ID: uuid.NewString(), Source: s.source.Name(), FetchedAt: s.now()}

	raw, err := s.source.Fetch(ctx, source.Query{})
	if err != nil && s.source != s.fallback {
		s.logger.Warn(ctx, "source fetch failed, using fixture data",
			logger.String("origin", s.source.Name()),
			logger.Error(err),
		)
		metrics.RecordSourceFallback()
		snap.Warning = fmt.Sprintf(fallbackWarningMessage, err)
		snap.Source = s.fallback.Name()
		raw, err = s.fallback.Fetch(ctx, source.Query{})
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetch records: %w", err)
	}

	s.mu.Lock()
	snap.raw = raw
	snap.Records = s.settings.Aliases.Resolve(raw)
	s.snapshot = snap
	s.mu.Unlock()

	metrics.UpdateSnapshot(len(snap.Records), snap.FetchedAt)
	s.logger.Info(ctx, "snapshot updated",
		logger.String("snapshot", snap.ID),
		logger.String("origin", snap.Source),
		logger.Int("records", len(snap.Records)),
	)
	return snap, nil
}

func (s *Service) invalidate(ctx context.Context) {
	inv, ok := s.source.(interface{ Invalidate(context.Context) error })
	if !ok {
		return
	}
	if err := inv.Invalidate(ctx); err != nil {
		s.logger.Warn(ctx, "cache invalidation failed", logger.Error(err))
	}
}

// Snapshot returns the current snapshot.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Settings returns a copy of the current settings.
func (s *Service) Settings() settings.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Clone()
}

// View filters the snapshot by c.
func (s *Service) View(c filter.Criteria) View {
	s.mu.RLock()
	snap := s.snapshot
	st := s.settings.Clone()
	s.mu.RUnlock()

	return View{
		Snapshot: snap,
		Criteria: c,
		Records:  filter.Apply(snap.Records, c, s.now(), s.loc, st.Aliases.Canonical),
		Settings: st,
		TopN:     s.topN,
	}
}

// Members lists the canonical member names present in the snapshot.
func (s *Service) Members() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return aggregate.MemberList(s.snapshot.Records)
}

// UpdateBenchmark validates and persists one benchmark range.
func (s *Service) UpdateBenchmark(ctx context.Context, key string, r settings.Range) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings.Clone()
	if err := next.Benchmarks.Set(key, r); err != nil {
		return err
	}
	if err := s.store.SaveBenchmarks(ctx, next.Benchmarks); err != nil {
		return fmt.Errorf("save benchmarks: %w", err)
	}
	s.settings = next
	metrics.RecordSettingsUpdate(repository.KeyBenchmarks)
	return nil
}

// AssignRole changes the role of an existing member.
func (s *Service) AssignRole(ctx context.Context, name string, role settings.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.settings.Roles.Key(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	next := s.settings.Clone()
	next.Roles[key] = role
	return s.saveRoles(ctx, next)
}

// AddMember assigns a new member the Lead Generator role.
func (s *Service) AddMember(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: empty name", settings.ErrInvalidMember)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if key, ok := s.settings.Roles.Key(name); ok {
		return fmt.Errorf("%w: %q", ErrMemberExists, key)
	}
	next := s.settings.Clone()
	next.Roles[name] = settings.LeadGenerator
	return s.saveRoles(ctx, next)
}

// RemoveMember drops a member's role assignment.
func (s *Service) RemoveMember(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.settings.Roles.Key(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	next := s.settings.Clone()
	delete(next.Roles, key)
	return s.saveRoles(ctx, next)
}

// saveRoles persists and installs next. Callers hold s.mu.
func (s *Service) saveRoles(ctx context.Context, next settings.Settings) error {
	if err := next.Roles.Validate(); err != nil {
		return err
	}
	if err := s.store.SaveRoles(ctx, next.Roles); err != nil {
		return fmt.Errorf("save roles: %w", err)
	}
	s.settings = next
	metrics.RecordSettingsUpdate(repository.KeyRoles)
	return nil
}

// SetAlias maps alias to canonical, or removes alias when canonical is
// empty. The snapshot is re-resolved with the new table.
func (s *Service) SetAlias(ctx context.Context, alias, canonical string) error {
	alias, canonical = strings.TrimSpace(alias), strings.TrimSpace(canonical)
	if alias == "" {
		return fmt.Errorf("%w: empty alias", settings.ErrInvalidAlias)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings.Clone()
	for existing := range next.Aliases {
		if strings.EqualFold(existing, alias) {
			delete(next.Aliases, existing)
		}
	}
	if canonical != "" {
		next.Aliases[alias] = canonical
	} else if len(next.Aliases) == len(s.settings.Aliases) {
		return fmt.Errorf("%w: alias %q", ErrNotFound, alias)
	}
	if err := next.Aliases.Validate(); err != nil {
		return err
	}
	if err := s.store.SaveAliases(ctx, next.Aliases); err != nil {
		return fmt.Errorf("save aliases: %w", err)
	}
	s.settings = next
	s.snapshot.Records = next.Aliases.Resolve(s.snapshot.raw)
	metrics.RecordSettingsUpdate(repository.KeyAliases)
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":    s.started,
		"source":     s.source.Name(),
		"queue_size": s.queueSize,
		"members":    len(s.settings.Roles),
		"aliases":    len(s.settings.Aliases),
	}
	snap := s.snapshot
	if snap.ID != "" {
		stats["snapshot_id"] = snap.ID
		stats["snapshot_source"] = snap.Source
		stats["snapshot_records"] = len(snap.Records)
		stats["snapshot_fetched_at"] = snap.FetchedAt
		stats["snapshot_age_seconds"] = s.now().Sub(snap.FetchedAt).Seconds()
		if snap.Warning != "" {
			stats["warning"] = snap.Warning
		}
	}
	if s.started {
		stats["queue_length"] = s.queue.Len(context.Background())
	}
	return stats
}
