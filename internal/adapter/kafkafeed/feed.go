package kafkafeed

import (
	"context"
	"log/slog"
	"time"

	"github.com/Monocled004/HarborNet/internal/domain"
)

// SummaryPublisher is the sink for alert summaries. Satisfied by *Publisher.
type SummaryPublisher interface {
	Publish(ctx context.Context, summary AlertSummary) error
}

// Feed moves snapshots from the live feed's delivery path onto a worker
// goroutine before publishing. Notify never blocks: when the buffer is full
// the snapshot is dropped, since a newer one is already behind it.
type Feed struct {
	publisher SummaryPublisher
	logger    *slog.Logger
	snaps     chan domain.Snapshot
}

// NewFeed creates a Feed around a publisher. Call Run to start forwarding.
func NewFeed(publisher SummaryPublisher, logger *slog.Logger) *Feed {
	return &Feed{
		publisher: publisher,
		logger:    logger,
		snaps:     make(chan domain.Snapshot, 8),
	}
}

// Notify enqueues a snapshot for publishing. Only ready snapshots are
// forwarded; loading and error states carry no new data.
func (f *Feed) Notify(snap domain.Snapshot) {
	if snap.Status != domain.FeedReady {
		return
	}
	select {
	case f.snaps <- snap:
	default:
	}
}

// Run publishes queued snapshots until ctx is cancelled. Snapshots fetched
// no later than the last published one are skipped.
func (f *Feed) Run(ctx context.Context) {
	var lastSent time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-f.snaps:
			if !snap.FetchedAt.After(lastSent) {
				continue
			}
			summary := Summarize(snap.Points, snap.FetchedAt)
			if err := f.publisher.Publish(ctx, summary); err != nil {
				f.logger.Warn("alert summary publish failed", "error", err)
				continue
			}
			lastSent = snap.FetchedAt
			f.logger.Debug("alert summary published",
				"total", summary.TotalReports,
				"dominant", summary.DominantCategory,
			)
		}
	}
}
