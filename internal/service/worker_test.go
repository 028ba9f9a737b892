package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/podcast-radar/internal/domain"
	"github.com/kitbuilder587/podcast-radar/internal/repository"
)

func newWorkerFixture(t *testing.T) (*Worker, *repository.MockJobRepository, *repository.MockPodcastRepository) {
	t.Helper()
	jobs := repository.NewMockJobRepository()
	podcasts := repository.NewMockPodcastRepository()
	w := NewWorker(jobs, podcasts, zap.NewNop(), nil, WorkerConfig{
		PollInterval: time.Hour, // тики в тестах не нужны, батч зовём напрямую
		BatchSize:    10,
	})
	return w, jobs, podcasts
}

func enqueue(t *testing.T, jobs *repository.MockJobRepository, trackIDs ...int64) []domain.Job {
	t.Helper()
	snaps := make([]domain.PodcastSnapshot, len(trackIDs))
	for i, id := range trackIDs {
		snaps[i] = domain.PodcastSnapshot{TrackID: id, TrackName: "show"}
	}
	created, err := jobs.EnqueueMany(context.Background(), snaps)
	if err != nil {
		t.Fatalf("EnqueueMany() unexpected error: %v", err)
	}
	return created
}

func TestWorker_ProcessBatchCompletesJobs(t *testing.T) {
	w, jobs, podcasts := newWorkerFixture(t)
	ctx := context.Background()

	created := enqueue(t, jobs, 1, 2, 3)

	w.processBatch(ctx)

	for _, job := range created {
		got, _ := jobs.GetJob(job.ID)
		if got.Status != domain.JobCompleted {
			t.Errorf("job %d status = %s, want completed", job.ID, got.Status)
		}
	}

	existing, _ := podcasts.ExistingTrackIDs(ctx, []int64{1, 2, 3})
	if len(existing) != 3 {
		t.Errorf("persisted %d podcasts, want 3", len(existing))
	}
}

func TestWorker_SettleAll(t *testing.T) {
	// падение одной джобы не трогает остальные из батча
	w, jobs, podcasts := newWorkerFixture(t)
	ctx := context.Background()

	created := enqueue(t, jobs, 1, 2, 3)
	podcasts.UpsertErrFor = map[int64]error{2: errors.New("write failed")}

	w.processBatch(ctx)

	for _, job := range created {
		got, _ := jobs.GetJob(job.ID)
		want := domain.JobCompleted
		if job.TrackID == 2 {
			want = domain.JobPending // вернулась в очередь на ретрай
		}
		if got.Status != want {
			t.Errorf("job track=%d status = %s, want %s", job.TrackID, got.Status, want)
		}
	}

	failed, _ := jobs.GetJob(created[1].ID)
	if failed.Attempts != 1 {
		t.Errorf("failed job attempts = %d, want 1", failed.Attempts)
	}
	if failed.Error != "write failed" {
		t.Errorf("failed job error = %q, want write failed", failed.Error)
	}
}

func TestWorker_FailureExhaustsToFailed(t *testing.T) {
	w, jobs, podcasts := newWorkerFixture(t)
	ctx := context.Background()

	created := enqueue(t, jobs, 5)
	podcasts.UpsertErrFor = map[int64]error{5: errors.New("always broken")}

	// pending -> processing -> pending дважды, на третьей попытке - failed
	for i := 0; i < domain.DefaultJobMaxAttempts; i++ {
		w.processBatch(ctx)
	}

	got, _ := jobs.GetJob(created[0].ID)
	if got.Status != domain.JobFailed {
		t.Errorf("status = %s, want failed after %d attempts", got.Status, domain.DefaultJobMaxAttempts)
	}
	if got.Attempts != domain.DefaultJobMaxAttempts {
		t.Errorf("attempts = %d, want %d", got.Attempts, domain.DefaultJobMaxAttempts)
	}

	// исчерпанная джоба больше не выгребается
	w.processBatch(ctx)
	got, _ = jobs.GetJob(created[0].ID)
	if got.Attempts != domain.DefaultJobMaxAttempts {
		t.Errorf("exhausted job was retried, attempts = %d", got.Attempts)
	}
}

func TestWorker_ProcessJobIdempotent(t *testing.T) {
	// повторная обработка уже завершённой джобы не дублирует запись:
	// MarkProcessing защищает переход pending -> processing
	w, jobs, podcasts := newWorkerFixture(t)
	ctx := context.Background()

	created := enqueue(t, jobs, 7)

	w.processJob(ctx, created[0])
	w.processJob(ctx, created[0])

	if podcasts.UpsertCalls != 1 {
		t.Errorf("UpsertCalls = %d, want 1", podcasts.UpsertCalls)
	}
}

func TestWorker_BatchSizeLimit(t *testing.T) {
	jobs := repository.NewMockJobRepository()
	podcasts := repository.NewMockPodcastRepository()
	w := NewWorker(jobs, podcasts, zap.NewNop(), nil, WorkerConfig{
		PollInterval: time.Hour,
		BatchSize:    2,
	})
	ctx := context.Background()

	enqueue(t, jobs, 1, 2, 3, 4, 5)

	w.processBatch(ctx)

	stats, _ := jobs.Stats(ctx)
	if stats.Completed != 2 || stats.Pending != 3 {
		t.Errorf("stats = %+v, want 2 completed and 3 pending after one batch", stats)
	}
}

// blockingJobRepo задерживает DequeueBatch, чтобы поймать конкурирующий цикл.
type blockingJobRepo struct {
	*repository.MockJobRepository

	mu       sync.Mutex
	dequeues int
	release  chan struct{}
}

func (b *blockingJobRepo) DequeueBatch(ctx context.Context, n int) ([]domain.Job, error) {
	b.mu.Lock()
	b.dequeues++
	b.mu.Unlock()
	<-b.release
	return b.MockJobRepository.DequeueBatch(ctx, n)
}

func TestWorker_SingleFlight(t *testing.T) {
	blocking := &blockingJobRepo{
		MockJobRepository: repository.NewMockJobRepository(),
		release:           make(chan struct{}),
	}
	podcasts := repository.NewMockPodcastRepository()
	w := NewWorker(blocking, podcasts, zap.NewNop(), nil, WorkerConfig{
		PollInterval: time.Hour,
		BatchSize:    10,
	})
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.processBatch(ctx)
	}()

	// дождаться, пока первый цикл повиснет внутри DequeueBatch
	deadline := time.After(time.Second)
	for {
		blocking.mu.Lock()
		started := blocking.dequeues == 1
		blocking.mu.Unlock()
		if started {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first batch never reached DequeueBatch")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	// конкурирующий тик должен выйти сразу, не трогая очередь
	w.processBatch(ctx)

	blocking.mu.Lock()
	dequeues := blocking.dequeues
	blocking.mu.Unlock()
	if dequeues != 1 {
		t.Errorf("dequeues = %d, want 1 (second cycle must be skipped)", dequeues)
	}

	close(blocking.release)
	wg.Wait()
}

func TestWorker_StartStop(t *testing.T) {
	w, _, _ := newWorkerFixture(t)

	w.Start(context.Background())
	w.Stop()
	// повторный Stop не должен паниковать
	w.Stop()
}
