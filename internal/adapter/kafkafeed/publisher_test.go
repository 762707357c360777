package kafkafeed

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Monocled004/HarborNet/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	at := time.Date(2026, 5, 12, 9, 30, 0, 0, time.UTC)
	points := []domain.GeoPoint{
		{Category: domain.CategoryFlooding, Verified: true},
		{Category: domain.CategoryFlooding},
		{Category: domain.CategoryFlooding, Verified: true},
		{Category: domain.CategoryTsunami},
		{Category: domain.CategoryOther, Verified: true},
	}

	summary := Summarize(points, at)

	assert.Equal(t, at, summary.GeneratedAt)
	assert.Equal(t, 5, summary.TotalReports)
	assert.Equal(t, 3, summary.VerifiedReports)
	assert.Equal(t, "flooding", summary.DominantCategory)
	assert.Equal(t, map[string]int{
		"flooding":      3,
		"tsunami":       1,
		"highwaves":     0,
		"coastaldamage": 0,
		"other":         1,
	}, summary.Categories)
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(nil, time.Now())

	assert.Zero(t, summary.TotalReports)
	assert.Zero(t, summary.VerifiedReports)
	assert.Empty(t, summary.DominantCategory)
	assert.Len(t, summary.Categories, 5)
}

func TestSerializeToMessage(t *testing.T) {
	at := time.Date(2026, 5, 12, 9, 30, 0, 0, time.UTC)
	summary := Summarize([]domain.GeoPoint{
		{Category: domain.CategoryHighWaves, Verified: true},
	}, at)

	msg, err := serializeToMessage(summary)
	require.NoError(t, err)

	assert.Equal(t, []byte("2026-05-12T09:30:00Z"), msg.Key)
	assert.Contains(t, string(msg.Value), `"dominant_category":"highwaves"`)
	assert.Contains(t, string(msg.Value), `"total_reports":1`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "dominant_category", msg.Headers[0].Key)
	assert.Equal(t, []byte("highwaves"), msg.Headers[0].Value)
	assert.Equal(t, "generated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2026-05-12T09:30:00Z"), msg.Headers[1].Value)
}

type capturingPublisher struct {
	mu        sync.Mutex
	summaries []AlertSummary
}

func (p *capturingPublisher) Publish(_ context.Context, summary AlertSummary) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.summaries = append(p.summaries, summary)
	return nil
}

func (p *capturingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.summaries)
}

func TestFeed_ForwardsReadySnapshots(t *testing.T) {
	pub := &capturingPublisher{}
	feed := NewFeed(pub, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go feed.Run(ctx)

	at := time.Date(2026, 5, 12, 9, 30, 0, 0, time.UTC)
	feed.Notify(domain.Snapshot{Status: domain.FeedLoading})
	feed.Notify(domain.Snapshot{Status: domain.FeedError, FetchedAt: at})
	feed.Notify(domain.Snapshot{
		Status:    domain.FeedReady,
		FetchedAt: at,
		Points:    []domain.GeoPoint{{Category: domain.CategoryFlooding}},
	})

	require.Eventually(t, func() bool {
		return pub.count() == 1
	}, time.Second, 5*time.Millisecond)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Equal(t, 1, pub.summaries[0].TotalReports)
	assert.Equal(t, at, pub.summaries[0].GeneratedAt)
}

func TestFeed_SkipsAlreadyPublishedSnapshots(t *testing.T) {
	pub := &capturingPublisher{}
	feed := NewFeed(pub, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go feed.Run(ctx)

	at := time.Date(2026, 5, 12, 9, 30, 0, 0, time.UTC)
	snap := domain.Snapshot{Status: domain.FeedReady, FetchedAt: at}
	feed.Notify(snap)
	feed.Notify(snap)
	feed.Notify(domain.Snapshot{Status: domain.FeedReady, FetchedAt: at.Add(10 * time.Second)})

	require.Eventually(t, func() bool {
		return pub.count() == 2
	}, time.Second, 5*time.Millisecond)

	// No third publish for the duplicate.
	assert.Never(t, func() bool {
		return pub.count() > 2
	}, 100*time.Millisecond, 10*time.Millisecond)
}

func TestFeed_NotifyNeverBlocks(t *testing.T) {
	pub := &capturingPublisher{}
	feed := NewFeed(pub, slog.New(slog.NewTextHandler(io.Discard, nil)))

	// No Run loop draining; fill well past the buffer.
	at := time.Now()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			feed.Notify(domain.Snapshot{Status: domain.FeedReady, FetchedAt: at.Add(time.Duration(i) * time.Second)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a full buffer")
	}
}
