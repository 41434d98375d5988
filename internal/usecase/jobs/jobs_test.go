package jobs

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/andreyxaxa/Asset-Pipeline/internal/entity"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/logger"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memOutbox mimics the outbox table semantics in memory.
type memOutbox struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*entity.QueuedJob
}

func newMemOutbox() *memOutbox {
	return &memOutbox{rows: make(map[uuid.UUID]*entity.QueuedJob)}
}

func (m *memOutbox) Create(_ context.Context, job *entity.QueuedJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *job
	m.rows[job.ID] = &cp
	return nil
}

func (m *memOutbox) GetVisiblePending(_ context.Context, now time.Time, limit int, maxRetries int) ([]*entity.QueuedJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*entity.QueuedJob
	for _, r := range m.rows {
		if r.Status == entity.Pending && !r.VisibleAt.After(now) && r.RetryCount < maxRetries {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VisibleAt.Before(out[j].VisibleAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memOutbox) set(IDs uuid.UUIDs, f func(*entity.QueuedJob)) error {
	if m.setWhere(IDs, nil, f) == 0 {
		return errs.ErrRecordNotFound
	}
	return nil
}

// setWhere applies f to the rows in IDs that are in status from and reports how many matched.
func (m *memOutbox) setWhere(IDs uuid.UUIDs, from *entity.Status, f func(*entity.QueuedJob)) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, id := range IDs {
		r, ok := m.rows[id]
		if !ok || (from != nil && r.Status != *from) {
			continue
		}
		f(r)
		n++
	}
	return n
}

func claim(to entity.Status) func(*entity.QueuedJob) {
	return func(r *entity.QueuedJob) {
		now := time.Now()
		r.Status = to
		r.ClaimedAt = &now
	}
}

func status(s entity.Status) *entity.Status { return &s }

func (m *memOutbox) MarkAsProcessingBatch(_ context.Context, IDs uuid.UUIDs) error {
	if m.setWhere(IDs, status(entity.Pending), claim(entity.Processing)) == 0 {
		return errs.ErrRecordNotFound
	}
	return nil
}

func (m *memOutbox) MarkAsDispatchedBatch(_ context.Context, IDs uuid.UUIDs) error {
	m.setWhere(IDs, status(entity.Processing), claim(entity.Dispatched))
	return nil
}

func (m *memOutbox) MarkAsProcessed(_ context.Context, id uuid.UUID) error {
	return m.set(uuid.UUIDs{id}, func(r *entity.QueuedJob) {
		now := time.Now()
		r.Status = entity.Processed
		r.ProcessedAt = &now
	})
}

func (m *memOutbox) MarkAsFailed(_ context.Context, id uuid.UUID, cause string) error {
	return m.set(uuid.UUIDs{id}, func(r *entity.QueuedJob) {
		now := time.Now()
		r.Status = entity.Failed
		r.ProcessedAt = &now
		r.LastError = &cause
	})
}

func (m *memOutbox) IncrementRetryCountBatch(_ context.Context, IDs uuid.UUIDs) error {
	m.setWhere(IDs, status(entity.Processing), func(r *entity.QueuedJob) {
		r.RetryCount++
		r.Status = entity.Pending
		r.ClaimedAt = nil
	})
	return nil
}

func (m *memOutbox) MarkMaxRetriesAsFailed(_ context.Context, maxRetries int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.rows {
		if r.Status == entity.Pending && r.RetryCount >= maxRetries {
			r.Status = entity.Failed
		}
	}
	return nil
}

func (m *memOutbox) DeleteOldProcessedAndFailed(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, r := range m.rows {
		if (r.Status == entity.Processed || r.Status == entity.Failed) && r.ProcessedAt != nil && r.ProcessedAt.Before(before) {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

func (m *memOutbox) ResetExpiredClaims(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, r := range m.rows {
		if (r.Status == entity.Processing || r.Status == entity.Dispatched) && r.ClaimedAt != nil && r.ClaimedAt.Before(before) {
			r.RetryCount++
			r.Status = entity.Pending
			r.ClaimedAt = nil
			n++
		}
	}
	return n, nil
}

func (m *memOutbox) get(id uuid.UUID) entity.QueuedJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.rows[id]
}

type passTransactor struct{ calls int }

func (p *passTransactor) WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error {
	p.calls++
	return f(ctx)
}

func newUseCase(now time.Time) (*JobsUseCase, *memOutbox, *passTransactor) {
	ob := newMemOutbox()
	tx := &passTransactor{}
	uc := New(ob, tx, logger.NewWithWriter("error", io.Discard))
	uc.now = func() time.Time { return now }
	return uc, ob, tx
}

var wav = entity.AudioConversion{OriginalFilePath: "/u/audio/wav/2024-03/a.wav", YearMonth: "2024-03", NewFileName: "a.wav"}

func TestEnqueueDelaysVisibility(t *testing.T) {
	now := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	uc, ob, _ := newUseCase(now)

	h, err := uc.Enqueue(context.Background(), wav, time.Second)
	require.NoError(t, err)

	assert.Equal(t, entity.AudioConversionQueue, h.Queue)
	assert.Equal(t, now.Add(time.Second), h.VisibleAt)

	row := ob.get(h.ID)
	assert.Equal(t, entity.Pending, row.Status)
	assert.JSONEq(t, `{"originalFilePath":"/u/audio/wav/2024-03/a.wav","yearMonth":"2024-03","newFileName":"a.wav"}`, string(row.Payload))

	claimed, err := uc.ClaimVisible(context.Background(), 10, 3)
	require.NoError(t, err)
	assert.Empty(t, claimed)

	uc.now = func() time.Time { return now.Add(time.Second) }
	claimed, err = uc.ClaimVisible(context.Background(), 10, 3)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, entity.Processing, ob.get(h.ID).Status)

	job, err := entity.DecodeJob(claimed[0].Queue, claimed[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, wav, job)
}

func TestClaimRunsInTransaction(t *testing.T) {
	uc, _, tx := newUseCase(time.Now())

	_, err := uc.ClaimVisible(context.Background(), 5, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, tx.calls)
}

func TestReleaseThenFailAfterMaxRetries(t *testing.T) {
	now := time.Now()
	uc, ob, _ := newUseCase(now)
	ctx := context.Background()

	h, err := uc.Enqueue(ctx, wav, 0)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		claimed, err := uc.ClaimVisible(ctx, 10, 2)
		require.NoError(t, err)
		require.Len(t, claimed, 1)
		require.NoError(t, uc.ReleaseBatch(ctx, claimed))
	}

	claimed, err := uc.ClaimVisible(ctx, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, claimed)

	require.NoError(t, uc.MarkMaxRetriesAsFailed(ctx, 2))
	assert.Equal(t, entity.Failed, ob.get(h.ID).Status)
}

func TestLedgerOutcomes(t *testing.T) {
	uc, ob, _ := newUseCase(time.Now())
	ctx := context.Background()

	ok, err := uc.Enqueue(ctx, wav, 0)
	require.NoError(t, err)
	bad, err := uc.Enqueue(ctx, wav, 0)
	require.NoError(t, err)

	claimed, err := uc.ClaimVisible(ctx, 10, 3)
	require.NoError(t, err)
	require.NoError(t, uc.MarkAsDispatchedBatch(ctx, claimed))

	require.NoError(t, uc.Complete(ctx, ok.ID))
	require.NoError(t, uc.Fail(ctx, bad.ID, errors.New("ffmpeg exited 1")))

	assert.Equal(t, entity.Processed, ob.get(ok.ID).Status)
	failed := ob.get(bad.ID)
	assert.Equal(t, entity.Failed, failed.Status)
	require.NotNil(t, failed.LastError)
	assert.Equal(t, "ffmpeg exited 1", *failed.LastError)

	assert.ErrorIs(t, uc.Complete(ctx, uuid.New()), errs.ErrRecordNotFound)
}

func TestCleanupOutboxHonoursRetention(t *testing.T) {
	uc, ob, _ := newUseCase(time.Now())
	ctx := context.Background()

	h, err := uc.Enqueue(ctx, wav, 0)
	require.NoError(t, err)
	require.NoError(t, uc.Complete(ctx, h.ID))

	require.NoError(t, uc.CleanupOutbox(ctx, time.Hour))
	assert.Len(t, ob.rows, 1)

	uc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	require.NoError(t, uc.CleanupOutbox(ctx, time.Hour))
	assert.Empty(t, ob.rows)
}

func TestDispatchDoesNotOverwriteFinishedJobs(t *testing.T) {
	uc, ob, _ := newUseCase(time.Now())
	ctx := context.Background()

	done, err := uc.Enqueue(ctx, wav, 0)
	require.NoError(t, err)
	broken, err := uc.Enqueue(ctx, wav, 0)
	require.NoError(t, err)
	inFlight, err := uc.Enqueue(ctx, wav, 0)
	require.NoError(t, err)

	claimed, err := uc.ClaimVisible(ctx, 10, 3)
	require.NoError(t, err)
	require.Len(t, claimed, 3)

	// consumers finish before the relay records the hand-over
	require.NoError(t, uc.Complete(ctx, done.ID))
	require.NoError(t, uc.Fail(ctx, broken.ID, errors.New("decode failed")))

	require.NoError(t, uc.MarkAsDispatchedBatch(ctx, claimed))

	assert.Equal(t, entity.Processed, ob.get(done.ID).Status)
	assert.Equal(t, entity.Failed, ob.get(broken.ID).Status)
	assert.Equal(t, entity.Dispatched, ob.get(inFlight.ID).Status)

	require.NoError(t, uc.MarkAsDispatchedBatch(ctx, claimed[:1]))
}

func TestReleaseSkipsFinishedJobs(t *testing.T) {
	uc, ob, _ := newUseCase(time.Now())
	ctx := context.Background()

	h, err := uc.Enqueue(ctx, wav, 0)
	require.NoError(t, err)

	claimed, err := uc.ClaimVisible(ctx, 10, 3)
	require.NoError(t, err)
	require.NoError(t, uc.Complete(ctx, h.ID))

	require.NoError(t, uc.ReleaseBatch(ctx, claimed))

	row := ob.get(h.ID)
	assert.Equal(t, entity.Processed, row.Status)
	assert.Zero(t, row.RetryCount)
}

func TestReclaimStaleReturnsExpiredClaims(t *testing.T) {
	now := time.Now()
	uc, ob, _ := newUseCase(now)
	ctx := context.Background()

	stuck, err := uc.Enqueue(ctx, wav, 0)
	require.NoError(t, err)
	lost, err := uc.Enqueue(ctx, wav, 0)
	require.NoError(t, err)
	finished, err := uc.Enqueue(ctx, wav, 0)
	require.NoError(t, err)

	claimed, err := uc.ClaimVisible(ctx, 10, 3)
	require.NoError(t, err)
	require.Len(t, claimed, 3)

	var toDispatch []*entity.QueuedJob
	for _, j := range claimed {
		if j.ID != stuck.ID {
			toDispatch = append(toDispatch, j)
		}
	}
	require.NoError(t, uc.MarkAsDispatchedBatch(ctx, toDispatch))
	require.NoError(t, uc.Complete(ctx, finished.ID))

	// inside the lease nothing moves
	require.NoError(t, uc.ReclaimStale(ctx, time.Hour))
	assert.Equal(t, entity.Processing, ob.get(stuck.ID).Status)
	assert.Equal(t, entity.Dispatched, ob.get(lost.ID).Status)

	uc.now = func() time.Time { return now.Add(2 * time.Hour) }
	require.NoError(t, uc.ReclaimStale(ctx, time.Hour))

	for _, id := range []uuid.UUID{stuck.ID, lost.ID} {
		row := ob.get(id)
		assert.Equal(t, entity.Pending, row.Status)
		assert.Nil(t, row.ClaimedAt)
		assert.Equal(t, 1, row.RetryCount)
	}
	assert.Equal(t, entity.Processed, ob.get(finished.ID).Status)

	again, err := uc.ClaimVisible(ctx, 10, 3)
	require.NoError(t, err)
	assert.Len(t, again, 2)
}
