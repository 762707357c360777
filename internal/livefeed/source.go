// Package livefeed owns the polling lifecycle against the reports endpoint
// and publishes immutable snapshots to subscribers. It is the only component
// that talks to the upstream fetcher; everything downstream consumes
// read-only snapshots.
package livefeed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Monocled004/HarborNet/internal/domain"
	"github.com/Monocled004/HarborNet/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Query narrows the upstream fetch, mirroring the /api/reports parameters.
type Query struct {
	Verified   *bool
	UploaderID int
}

// Fetcher retrieves raw report records from the collaborator backend.
type Fetcher interface {
	FetchReports(ctx context.Context, q Query) ([]domain.RawRecord, error)
}

// Source polls the reports endpoint on a fixed cadence and publishes
// snapshots. Requests carry a monotonically increasing epoch; only the
// response matching the newest issued epoch is applied, so a slow response
// to an older request can never overwrite fresher data.
//
// Polling starts when the first subscriber arrives and stops when the last
// one leaves, so no ticker outlives the consuming views.
type Source struct {
	fetcher  Fetcher
	geocoder domain.Geocoder // optional place enrichment, may be nil
	clock    clockwork.Clock
	interval time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu           sync.Mutex
	snapshot     domain.Snapshot
	subscribers  map[int]func(domain.Snapshot)
	nextSubID    int
	query        Query
	issuedEpoch  uint64
	appliedEpoch uint64
	inFlight     int
	pollCtx      context.Context
	pollCancel   context.CancelFunc
}

// New creates a Source. Pass a nil geocoder to disable place enrichment.
func New(fetcher Fetcher, geocoder domain.Geocoder, interval time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Source {
	return &Source{
		fetcher:     fetcher,
		geocoder:    geocoder,
		clock:       clock,
		interval:    interval,
		logger:      logger,
		metrics:     metrics,
		subscribers: map[int]func(domain.Snapshot){},
		snapshot:    domain.Snapshot{Status: domain.FeedIdle},
	}
}

// Snapshot returns the most recently published snapshot.
func (s *Source) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Subscribe registers a snapshot consumer and returns its unsubscribe
// function. The consumer immediately receives the current snapshot; the
// first subscriber starts the poll loop. Callbacks are invoked with the
// source lock held, so they must not call back into the Source; views react
// to snapshots by mutating their own surface, not the feed.
func (s *Source) Subscribe(fn func(domain.Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.subscribers[id] = fn
	s.metrics.FeedSubscribers.Set(float64(len(s.subscribers)))

	fn(s.snapshot)

	if len(s.subscribers) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		s.pollCtx = ctx
		s.pollCancel = cancel
		go s.pollLoop(ctx)
	}
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subscribers[id]; !ok {
			return
		}
		delete(s.subscribers, id)
		s.metrics.FeedSubscribers.Set(float64(len(s.subscribers)))
		if len(s.subscribers) == 0 && s.pollCancel != nil {
			// Stop the ticker and orphan any in-flight response.
			s.pollCancel()
			s.pollCtx = nil
			s.pollCancel = nil
		}
	}
}

// RefreshNow triggers an immediate fetch. A fetch already in flight is
// reused rather than duplicated; to supersede an outstanding request, use
// SetQuery. No-op when nothing is subscribed.
func (s *Source) RefreshNow() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchLocked(false)
}

// SetQuery switches the upstream fetch scope (verified toggle, uploader
// filter) and refreshes immediately. Unlike RefreshNow it supersedes any
// outstanding request: the new epoch wins even if the old response lands
// later.
func (s *Source) SetQuery(q Query) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = q
	s.fetchLocked(true)
}

// Query returns the current upstream fetch scope.
func (s *Source) Query() Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

func (s *Source) pollLoop(ctx context.Context) {
	s.mu.Lock()
	s.fetchLocked(false)
	s.mu.Unlock()

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.mu.Lock()
			s.fetchLocked(false)
			s.mu.Unlock()
		}
	}
}

// fetchLocked issues a fetch under s.mu. When supersede is false an
// outstanding fetch is reused (at most one in flight); when true a new epoch
// is issued regardless and the stale response will be discarded on arrival.
func (s *Source) fetchLocked(supersede bool) {
	if s.pollCtx == nil {
		return
	}
	if s.inFlight > 0 && !supersede {
		return
	}

	s.issuedEpoch++
	epoch := s.issuedEpoch
	s.inFlight++
	query := s.query
	ctx := s.pollCtx

	s.publishLocked(domain.Snapshot{
		Points:    s.snapshot.Points,
		FetchedAt: s.snapshot.FetchedAt,
		Status:    domain.FeedLoading,
	})

	go s.doFetch(ctx, epoch, query)
}

func (s *Source) doFetch(ctx context.Context, epoch uint64, query Query) {
	start := s.clock.Now()
	records, err := s.fetcher.FetchReports(ctx, query)

	var points []domain.GeoPoint
	if err == nil {
		points = domain.NormalizeRecords(records)
		if dropped := len(records) - len(points); dropped > 0 {
			s.metrics.RecordsDropped.Add(float64(dropped))
			s.logger.Debug("dropped malformed records", "dropped", dropped, "kept", len(points))
		}
		points = domain.EnrichPlaces(ctx, points, s.geocoder, s.logger)
	}
	s.metrics.FetchDuration.Observe(s.clock.Since(start).Seconds())

	s.mu.Lock()
	s.inFlight--

	if ctx.Err() != nil {
		// Subscriber teardown happened while this response was in flight.
		s.mu.Unlock()
		return
	}
	if epoch < s.issuedEpoch || epoch <= s.appliedEpoch {
		// A newer request was issued (or already applied); last writer by
		// issue time wins, not by completion time.
		s.metrics.StaleDiscarded.Inc()
		s.mu.Unlock()
		return
	}
	s.appliedEpoch = epoch

	if err != nil {
		// Keep the last good points so a transient outage never blanks the
		// map; consumers show a staleness indicator instead.
		s.metrics.Fetches.WithLabelValues("error").Inc()
		s.logger.Error("report fetch failed",
			"error", err,
			"retained_points", len(s.snapshot.Points),
			"snapshot_age", s.clock.Since(s.snapshot.FetchedAt).String(),
		)
		s.publishLocked(domain.Snapshot{
			Points:    s.snapshot.Points,
			FetchedAt: s.snapshot.FetchedAt,
			Status:    domain.FeedError,
			Err:       err,
		})
		s.mu.Unlock()
		return
	}

	s.metrics.Fetches.WithLabelValues("success").Inc()
	s.metrics.SnapshotPoints.Set(float64(len(points)))
	s.publishLocked(domain.Snapshot{
		Points:    points,
		FetchedAt: s.clock.Now(),
		Status:    domain.FeedReady,
	})
	s.mu.Unlock()
}

// publishLocked atomically replaces the snapshot and notifies subscribers.
// Callers hold s.mu, which also serializes deliveries: every subscriber
// observes snapshots in publish order, with FetchedAt non-decreasing.
func (s *Source) publishLocked(snap domain.Snapshot) {
	s.snapshot = snap
	s.metrics.SnapshotsTotal.Inc()

	for _, fn := range s.subscribers {
		fn(snap)
	}
}
