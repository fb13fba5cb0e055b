package probe

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/tdh8316/namescout/internal/catalog"
)

const DefaultWorkers = 10

// ErrNoWorkers is returned when a scheduler is asked to run without workers.
var ErrNoWorkers = errors.New("worker count must be at least 1")

// Prober evaluates one site. *Evaluator is the production implementation.
type Prober interface {
	Evaluate(ctx context.Context, site catalog.Site, username string) Result
}

// Scheduler runs probes across sites on a bounded pool of workers.
type Scheduler struct {
	prober  Prober
	workers int
	logger  logrus.FieldLogger
}

func NewScheduler(prober Prober, cfg Config, logger logrus.FieldLogger) (*Scheduler, error) {
	if cfg.Workers < 1 {
		return nil, ErrNoWorkers
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &Scheduler{prober: prober, workers: cfg.Workers, logger: logger}, nil
}

// Run probes every site for username and returns one result per site name.
// Results reach obs as they complete. When ctx is cancelled no new probes
// start; the results gathered so far are returned with ctx's error.
func (s *Scheduler) Run(ctx context.Context, username string, sites []catalog.Site, obs Observer) (map[string]Result, error) {
	results := make(map[string]Result, len(sites))
	if obs == nil {
		obs = NopObserver{}
	}

	events := newAsyncObserver(obs, len(sites))
	err := runPool(ctx, s.workers, sites,
		func(ctx context.Context, site catalog.Site) Result {
			events.ProbeStarted(site.Name)
			return s.probe(ctx, username, site)
		},
		func(res Result) {
			// Only this goroutine touches results.
			results[res.Site] = res
			events.ProbeFinished(res)
		},
	)
	events.Close()

	return results, err
}

// Validate checks each site that declares claimed/unclaimed usernames:
// the claimed one must be found and the unclaimed one must not.
// It returns the number of failures.
func (s *Scheduler) Validate(ctx context.Context, sites []catalog.Site, onFailure func(ValidationFailure)) (int, error) {
	if onFailure == nil {
		return 0, errors.New("onFailure callback is nil")
	}

	count := 0
	err := runPool(ctx, s.workers, sites,
		func(ctx context.Context, site catalog.Site) *ValidationFailure {
			if site.Claimed == "" || site.Unclaimed == "" {
				missing := errors.New("missing claimed/unclaimed usernames in catalog")
				return &ValidationFailure{
					Site:           site.Name,
					UsedUsername:   site.Claimed,
					UnusedUsername: site.Unclaimed,
					Used:           Result{Username: site.Claimed, Site: site.Name, Err: missing},
					Unused:         Result{Username: site.Unclaimed, Site: site.Name, Err: missing},
				}
			}

			used := s.probe(ctx, site.Claimed, site)
			unused := s.probe(ctx, site.Unclaimed, site)
			if used.Exists && !unused.Exists {
				return nil
			}
			return &ValidationFailure{
				Site:           site.Name,
				UsedUsername:   site.Claimed,
				UnusedUsername: site.Unclaimed,
				Used:           used,
				Unused:         unused,
			}
		},
		func(f *ValidationFailure) {
			if f != nil {
				count++
				onFailure(*f)
			}
		},
	)
	return count, err
}

// probe is the per-site fault boundary: a panic becomes an error result.
func (s *Scheduler) probe(ctx context.Context, username string, site catalog.Site) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithFields(logrus.Fields{
				"site":     site.Name,
				"username": username,
				"panic":    r,
			}).Error("probe_panic")

			res = Result{
				Username: username,
				Site:     site.Name,
				URL:      site.ProfileURL(username),
				Category: site.Category,
				Err:      errors.Errorf("internal error: %v", r),
			}
		}
	}()
	return s.prober.Evaluate(ctx, site, username)
}

// runPool feeds sites to at most workers concurrent calls of work and hands
// every output to collect on the calling goroutine.
func runPool[T any](
	ctx context.Context,
	workers int,
	sites []catalog.Site,
	work func(context.Context, catalog.Site) T,
	collect func(T),
) error {
	workers = min(workers, len(sites))
	if workers == 0 {
		return ctx.Err()
	}

	out := make(chan T, workers)
	slots := make(chan struct{}, workers)

	var g errgroup.Group

	// Dispatcher: waits for a free slot or cancellation, whichever comes
	// first. Nothing is started once ctx is done.
	go func() {
		defer close(out)
	dispatch:
		for _, site := range sites {
			select {
			case <-ctx.Done():
				break dispatch
			case slots <- struct{}{}:
			}
			// Both cases may be ready at once; select picks either.
			if ctx.Err() != nil {
				<-slots
				break
			}
			g.Go(func() error {
				defer func() { <-slots }()
				out <- work(ctx, site)
				return nil
			})
		}
		_ = g.Wait()
	}()

	for v := range out {
		collect(v)
	}

	return ctx.Err()
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
