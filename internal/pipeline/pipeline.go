package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/opioid-sample-etl/internal/domain"
	"github.com/couchcryptid/opioid-sample-etl/internal/observability"
	"golang.org/x/sync/errgroup"
)

// Extractor loads every input of one run.
type Extractor interface {
	Extract(ctx context.Context) (domain.Dataset, error)
}

// Transformer assembles the sample matrix from a loaded dataset.
type Transformer interface {
	Transform(ctx context.Context, ds domain.Dataset) (*domain.SampleMatrix, error)
}

// Loader writes an assembled sample to one destination.
type Loader interface {
	Name() string
	LoadSample(ctx context.Context, s *domain.SampleMatrix, generatedAt time.Time) error
}

// Phase is the stage a run is in.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseExtracting   Phase = "extracting"
	PhaseTransforming Phase = "transforming"
	PhaseLoading      Phase = "loading"
	PhaseDone         Phase = "done"
	PhaseFailed       Phase = "failed"
)

// Status is a snapshot of the current or last run.
type Status struct {
	Phase      Phase     `json:"phase"`
	StartedAt  time.Time `json:"started_at,omitzero"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
	Rows       int       `json:"rows"`
	Columns    int       `json:"columns"`
	GeoMisses  int       `json:"geo_misses"`
	Error      string    `json:"error,omitempty"`
}

// Option tunes a Pipeline.
type Option func(*Pipeline)

// WithLoadRetry sets how many times each loader is attempted and the first
// backoff between attempts. Backoff doubles per retry up to maxLoadBackoff.
func WithLoadRetry(attempts int, initialBackoff time.Duration) Option {
	return func(p *Pipeline) {
		p.loadAttempts = max(attempts, 1)
		p.initialBackoff = initialBackoff
	}
}

const maxLoadBackoff = 5 * time.Second

// Pipeline runs extract, transform and load once per Run call.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	loaders     []Loader
	logger      *slog.Logger
	metrics     *observability.Metrics

	loadAttempts   int
	initialBackoff time.Duration

	ready  atomic.Bool
	mu     sync.Mutex
	status Status
}

// New creates a Pipeline with the given stages and observability.
func New(e Extractor, t Transformer, loaders []Loader, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:      e,
		transformer:    t,
		loaders:        loaders,
		logger:         logger,
		metrics:        metrics,
		loadAttempts:   3,
		initialBackoff: 200 * time.Millisecond,
		status:         Status{Phase: PhaseIdle},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness returns nil once a run has published its sample, or an
// error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return fmt.Errorf("no sample published yet (phase %s)", p.Status().Phase)
	}
	return nil
}

// Status returns a copy of the current run status.
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Snapshot returns Status for JSON encoding by the HTTP adapter.
func (p *Pipeline) Snapshot() any { return p.Status() }

// Run executes one extract-transform-load cycle. Any stage error aborts the
// run; loaders run concurrently and each is retried with backoff.
func (p *Pipeline) Run(ctx context.Context) error {
	p.metrics.RunsTotal.Inc()
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	p.setStatus(func(s *Status) {
		*s = Status{Phase: PhaseExtracting, StartedAt: clock.Now()}
	})
	p.logger.Info("pipeline started", "loaders", len(p.loaders))

	if err := p.run(ctx); err != nil {
		p.metrics.RunsFailed.Inc()
		p.setStatus(func(s *Status) {
			s.Phase = PhaseFailed
			s.FinishedAt = clock.Now()
			s.Error = err.Error()
		})
		p.logger.Error("pipeline failed", "error", err)
		return err
	}

	p.ready.Store(true)
	p.setStatus(func(s *Status) {
		s.Phase = PhaseDone
		s.FinishedAt = clock.Now()
	})
	st := p.Status()
	p.logger.Info("pipeline finished", "rows", st.Rows, "duration", st.FinishedAt.Sub(st.StartedAt))
	return nil
}

func (p *Pipeline) run(ctx context.Context) error {
	start := clock.Now()
	ds, err := p.extractor.Extract(ctx)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	p.observeStage("extract", start)
	p.metrics.DrugRecords.Set(float64(len(ds.Reports)))

	p.setStatus(func(s *Status) { s.Phase = PhaseTransforming })
	start = clock.Now()
	sample, err := p.transformer.Transform(ctx, ds)
	if err != nil {
		return fmt.Errorf("transform: %w", err)
	}
	p.observeStage("transform", start)
	p.recordAssembly(sample)

	p.setStatus(func(s *Status) { s.Phase = PhaseLoading })
	start = clock.Now()
	if err := p.loadAll(ctx, sample, clock.Now()); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	p.observeStage("load", start)
	return nil
}

func (p *Pipeline) recordAssembly(sample *domain.SampleMatrix) {
	report := sample.Report()
	p.metrics.RowsAssembled.Add(float64(report.Rows))
	p.metrics.GeoMisses.Add(float64(report.GeoMisses))
	p.metrics.NonNumericCells.Add(float64(report.NonNumericCells))

	p.setStatus(func(s *Status) {
		s.Rows = sample.Rows()
		s.Columns = sample.Cols()
		s.GeoMisses = report.GeoMisses
	})

	p.logger.Info("sample assembled",
		"rows", sample.Rows(),
		"columns", sample.Cols(),
		"features", sample.NumFeatures(),
		"geo_misses", report.GeoMisses,
		"non_numeric_cells", report.NonNumericCells,
	)
	for _, u := range report.MissedUnits {
		p.logger.Debug("county has no reference coordinate", "state", u.StateInitials, "county", u.County)
	}
}

// loadAll hands the sample to every loader concurrently. The first loader
// to exhaust its retries cancels the others.
func (p *Pipeline) loadAll(ctx context.Context, sample *domain.SampleMatrix, generatedAt time.Time) error {
	if len(p.loaders) == 0 {
		return errors.New("no loaders configured")
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, l := range p.loaders {
		g.Go(func() error {
			if err := p.loadWithRetry(ctx, l, sample, generatedAt); err != nil {
				return fmt.Errorf("%s: %w", l.Name(), err)
			}
			p.metrics.RowsPublished.WithLabelValues(l.Name()).Add(float64(sample.Rows()))
			return nil
		})
	}
	return g.Wait()
}

func (p *Pipeline) loadWithRetry(ctx context.Context, l Loader, sample *domain.SampleMatrix, generatedAt time.Time) error {
	backoff := p.initialBackoff
	var err error
	for attempt := 1; attempt <= p.loadAttempts; attempt++ {
		if err = l.LoadSample(ctx, sample, generatedAt); err == nil {
			return nil
		}
		if ctx.Err() != nil || attempt == p.loadAttempts {
			break
		}
		p.logger.Warn("load failed, retrying",
			"loader", l.Name(),
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)
		if !sleepWithContext(ctx, backoff) {
			break
		}
		backoff = nextBackoff(backoff, maxLoadBackoff)
	}
	return err
}

func (p *Pipeline) observeStage(stage string, start time.Time) {
	p.metrics.StageDuration.WithLabelValues(stage).Observe(clock.Since(start).Seconds())
}

func (p *Pipeline) setStatus(update func(*Status)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	update(&p.status)
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
