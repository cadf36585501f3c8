package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUnchanged means the remote file matches the last successful run.
	ErrUnchanged = errors.New("source file unchanged since last run")
	// ErrRemoteDisabled means no remote source was configured.
	ErrRemoteDisabled = errors.New("remote source not configured")
)

// Options tunes a Service. Zero values take defaults.
type Options struct {
	PageSize      int           // products returned by ListProducts
	MaxConcurrent int           // batch runs in flight
	MaxWait       time.Duration // wait for a run slot
	RunTimeout    time.Duration // upper bound for one batch run
	HistorySize   int           // runs returned by ListRuns
}

func (o *Options) setDefaults() {
	if o.PageSize <= 0 {
		o.PageSize = 5
	}
	if o.RunTimeout <= 0 {
		o.RunTimeout = 10 * time.Minute
	}
	if o.HistorySize <= 0 {
		o.HistorySize = 20
	}
}

// Deps are the collaborators a Service is built from. Events and Remote are
// optional.
type Deps struct {
	Products ProductStore
	Runs     RunStore
	Events   EventPublisher
	Remote   RemoteSource
}

// Service is the entry point used by the HTTP layer, the poller and the CLI.
type Service struct {
	products     ProductStore
	runs         RunStore
	events       EventPublisher
	remote       RemoteSource
	resolver     *Resolver
	orchestrator *Orchestrator
	limiter      *RunLimiter
	opts         Options
}

// NewService wires a Service from its dependencies.
func NewService(deps Deps, opts Options) *Service {
	opts.setDefaults()

	events := deps.Events
	if events == nil {
		events = noopPublisher{}
	}

	resolver := NewResolver(deps.Products)
	return &Service{
		products:     deps.Products,
		runs:         deps.Runs,
		events:       events,
		remote:       deps.Remote,
		resolver:     resolver,
		orchestrator: NewOrchestrator(resolver),
		limiter:      NewRunLimiter(opts.MaxConcurrent, opts.MaxWait),
		opts:         opts,
	}
}

// ListProducts returns up to limit stored products. A limit outside
// (0, PageSize] is clamped to PageSize.
func (s *Service) ListProducts(ctx context.Context, limit int) ([]StoredProduct, error) {
	if limit <= 0 || limit > s.opts.PageSize {
		limit = s.opts.PageSize
	}
	products, err := s.products.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// CreateProduct inserts rec without checking for an existing product. The
// returned error is non-nil only for an invalid record; store failures are
// reported through the Outcome.
func (s *Service) CreateProduct(ctx context.Context, rec Record) (Outcome, error) {
	rec.Normalize()
	if err := rec.Validate(); err != nil {
		return Outcome{}, err
	}
	return s.resolver.Insert(ctx, rec), nil
}

// SyncProduct updates or inserts rec by its (code, store) key.
func (s *Service) SyncProduct(ctx context.Context, rec Record) (Outcome, error) {
	rec.Normalize()
	if err := rec.Validate(); err != nil {
		return Outcome{}, err
	}
	return s.resolver.Apply(ctx, rec), nil
}

// RunBatch runs one batch over src, stores its summary and publishes it.
// The error is non-nil only when no run slot was available; a run that
// fails fatally still returns its summary with Fatal set.
func (s *Service) RunBatch(ctx context.Context, src RowSource) (*RunSummary, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	runCtx, cancel := context.WithTimeout(ctx, s.opts.RunTimeout)
	defer cancel()

	summary := s.orchestrator.Run(runCtx, src)
	s.finish(ctx, summary)
	return summary, nil
}

// SyncRemote fetches the newest file from the remote source and runs a
// batch over it. Unless force is set, a file whose checksum matches the last
// complete run is skipped with ErrUnchanged.
func (s *Service) SyncRemote(ctx context.Context, force bool) (*RunSummary, error) {
	if s.remote == nil {
		return nil, ErrRemoteDisabled
	}

	src, err := s.remote.Fetch(ctx)
	if err != nil {
		if !errors.Is(err, ErrSourceUnavailable) {
			err = SourceUnavailable(s.remote.Name(), err)
		}
		summary := s.failedRun(s.remote.Name(), err)
		s.finish(ctx, summary)
		return summary, nil
	}

	if info, ok := src.(SourceInfo); ok && !force {
		last, err := s.runs.LastChecksum(ctx, src.Name())
		if err != nil {
			slog.Warn("last checksum lookup failed", "source", src.Name(), "error", err)
		} else if last != "" && last == info.Checksum() {
			return nil, ErrUnchanged
		}
	}

	return s.RunBatch(ctx, src)
}

// RemoteEnabled reports whether SyncRemote can run.
func (s *Service) RemoteEnabled() bool {
	return s.remote != nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Service) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 || limit > s.opts.HistorySize {
		limit = s.opts.HistorySize
	}
	runs, err := s.runs.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Ping checks that the product store answers. A store without a backend to
// reach is always up.
func (s *Service) Ping(ctx context.Context) error {
	p, ok := s.products.(Pinger)
	if !ok {
		return nil
	}
	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("ping store: %w", err)
	}
	return nil
}

// LimiterStatus reports batch slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForRuns blocks until active batch runs finish or ctx is done.
func (s *Service) WaitForRuns(ctx context.Context) error {
	return s.limiter.WaitForRuns(ctx)
}

// finish persists and announces a run. Neither step can fail the run.
func (s *Service) finish(ctx context.Context, summary *RunSummary) {
	// The request context may already be cancelled; history must still land.
	ctx = context.WithoutCancel(ctx)

	if err := s.runs.SaveRun(ctx, summary); err != nil {
		slog.Error("save run failed", "run_id", summary.ID, "error", err)
	}
	if err := s.events.PublishRun(ctx, summary); err != nil {
		slog.Warn("publish run failed", "run_id", summary.ID, "error", err)
	}
}

func (s *Service) failedRun(source string, err error) *RunSummary {
	now := s.orchestrator.now()
	summary := &RunSummary{
		ID:         uuid.NewString(),
		Source:     source,
		StartedAt:  now,
		FinishedAt: now,
		Skipped:    []RowError{},
		Failures:   []RowError{},
	}
	summary.fail(err)
	slog.Error("sync run aborted", "run_id", summary.ID, "source", source, "error", err)
	return summary
}

type noopPublisher struct{}

func (noopPublisher) PublishRun(context.Context, *RunSummary) error { return nil }
