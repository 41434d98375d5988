package outbox

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/andreyxaxa/Asset-Pipeline/internal/entity"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeOutbox struct {
	mu         sync.Mutex
	pending    []*entity.QueuedJob
	stale      []*entity.QueuedJob
	dispatched int
	released   int
	failedRuns int
	cleanups   []time.Duration
	leases     []time.Duration
}

func (f *fakeOutbox) ClaimVisible(_ context.Context, limit, _ int) ([]*entity.QueuedJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := len(f.pending)
	if n > limit {
		n = limit
	}
	claimed := f.pending[:n]
	f.pending = f.pending[n:]
	return claimed, nil
}

func (f *fakeOutbox) MarkAsDispatchedBatch(_ context.Context, jobs []*entity.QueuedJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dispatched += len(jobs)
	return nil
}

func (f *fakeOutbox) ReleaseBatch(_ context.Context, jobs []*entity.QueuedJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released += len(jobs)
	return nil
}

func (f *fakeOutbox) MarkMaxRetriesAsFailed(context.Context, int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failedRuns++
	return nil
}

func (f *fakeOutbox) CleanupOutbox(_ context.Context, retention time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanups = append(f.cleanups, retention)
	return nil
}

func (f *fakeOutbox) ReclaimStale(_ context.Context, lease time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leases = append(f.leases, lease)
	f.pending = append(f.pending, f.stale...)
	f.stale = nil
	return nil
}

type fakeSender struct {
	mu     sync.Mutex
	sent   int
	err    error
	closed bool
}

func (s *fakeSender) SendJobs(_ context.Context, jobs []*entity.QueuedJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent += len(jobs)
	return nil
}

func (s *fakeSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func jobs(n int) []*entity.QueuedJob {
	out := make([]*entity.QueuedJob, n)
	for i := range out {
		out[i] = &entity.QueuedJob{ID: uuid.New(), Queue: entity.ImageProcessingQueue, Status: entity.Processing}
	}
	return out
}

var fast = Intervals{
	Poll:         5 * time.Millisecond,
	MarkFailed:   5 * time.Millisecond,
	Cleanup:      5 * time.Millisecond,
	Reclaim:      5 * time.Millisecond,
	BatchTimeout: time.Second,
}

func TestRelayDispatchesInBatches(t *testing.T) {
	ob := &fakeOutbox{pending: jobs(5)}
	s := &fakeSender{}
	r := New(ob, s, logger.NewWithWriter("error", io.Discard), fast, time.Hour, 30*time.Minute, 2, 3)

	assert.NoError(t, r.Start(context.Background()))

	assert.Eventually(t, func() bool {
		ob.mu.Lock()
		defer ob.mu.Unlock()
		return ob.dispatched == 5
	}, 2*time.Second, 5*time.Millisecond)

	assert.NoError(t, r.Shutdown(context.Background()))
	assert.True(t, s.closed)
	assert.Equal(t, 5, s.sent)

	ob.mu.Lock()
	defer ob.mu.Unlock()
	assert.NotZero(t, ob.failedRuns)
	assert.Contains(t, ob.cleanups, time.Hour)
	assert.Contains(t, ob.leases, 30*time.Minute)
}

func TestRelayReleasesOnSendFailure(t *testing.T) {
	ob := &fakeOutbox{pending: jobs(3)}
	s := &fakeSender{err: errors.New("broker unavailable")}
	r := New(ob, s, logger.NewWithWriter("error", io.Discard), fast, time.Hour, 30*time.Minute, 10, 3)

	r.processJobsBatch(context.Background())

	assert.Equal(t, 3, ob.released)
	assert.Zero(t, ob.dispatched)
}

func TestRelayStartTwice(t *testing.T) {
	r := New(&fakeOutbox{}, &fakeSender{}, logger.NewWithWriter("error", io.Discard), fast, time.Hour, 30*time.Minute, 10, 3)

	assert.NoError(t, r.Start(context.Background()))
	defer r.Shutdown(context.Background())

	assert.Error(t, r.Start(context.Background()))
}

func TestRelayRepublishesReclaimedJobs(t *testing.T) {
	ob := &fakeOutbox{stale: jobs(2)}
	s := &fakeSender{}
	r := New(ob, s, logger.NewWithWriter("error", io.Discard), fast, time.Hour, 30*time.Minute, 10, 3)

	assert.NoError(t, r.Start(context.Background()))

	assert.Eventually(t, func() bool {
		ob.mu.Lock()
		defer ob.mu.Unlock()
		return ob.dispatched == 2
	}, 2*time.Second, 5*time.Millisecond)

	assert.NoError(t, r.Shutdown(context.Background()))
	assert.Equal(t, 2, s.sent)
}
