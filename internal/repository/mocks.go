package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kitbuilder587/podcast-radar/internal/domain"
)

type MockPodcastRepository struct {
	mu       sync.RWMutex
	podcasts map[int64]*domain.Podcast // key: TrackID
	nextID   int64

	// UpsertErrFor - инъекция сбоев записи по track_id для тестов воркера
	UpsertErrFor map[int64]error
	UpsertCalls  int
}

func NewMockPodcastRepository() *MockPodcastRepository {
	return &MockPodcastRepository{
		podcasts: make(map[int64]*domain.Podcast),
		nextID:   1,
	}
}

func (m *MockPodcastRepository) Upsert(ctx context.Context, podcast *domain.Podcast) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpsertCalls++

	if err, ok := m.UpsertErrFor[podcast.TrackID]; ok && err != nil {
		return err
	}

	if existing, ok := m.podcasts[podcast.TrackID]; ok {
		id := existing.ID
		createdAt := existing.CreatedAt
		cp := *podcast
		cp.ID = id
		cp.CreatedAt = createdAt
		cp.UpdatedAt = time.Now()
		m.podcasts[podcast.TrackID] = &cp
		podcast.ID = id
		return nil
	}

	cp := *podcast
	cp.ID = m.nextID
	m.nextID++
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.podcasts[podcast.TrackID] = &cp
	podcast.ID = cp.ID
	return nil
}

func (m *MockPodcastRepository) GetByID(ctx context.Context, id int64) (*domain.Podcast, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.podcasts {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrPodcastNotFound
}

func (m *MockPodcastRepository) GetByTrackID(ctx context.Context, trackID int64) (*domain.Podcast, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if p, ok := m.podcasts[trackID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrPodcastNotFound
}

func (m *MockPodcastRepository) ExistingTrackIDs(ctx context.Context, trackIDs []int64) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var existing []int64
	for _, id := range trackIDs {
		if _, ok := m.podcasts[id]; ok {
			existing = append(existing, id)
		}
	}
	return existing, nil
}

func (m *MockPodcastRepository) TextSearch(ctx context.Context, query string, limit, offset int) ([]domain.Podcast, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q := strings.ToLower(query)
	var matched []domain.Podcast
	for _, p := range m.podcasts {
		if strings.Contains(strings.ToLower(p.TrackName), q) ||
			strings.Contains(strings.ToLower(p.ArtistName), q) ||
			strings.Contains(strings.ToLower(p.Description), q) {
			matched = append(matched, *p)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	matched = paginate(matched, limit, offset)
	return matched, total, nil
}

func (m *MockPodcastRepository) List(ctx context.Context, filter domain.PodcastFilter) ([]domain.Podcast, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []domain.Podcast
	for _, p := range m.podcasts {
		if filter.Genre != "" && p.PrimaryGenreName != filter.Genre {
			continue
		}
		if filter.Country != "" && p.Country != filter.Country {
			continue
		}
		if filter.Explicit != nil && p.Explicit != *filter.Explicit {
			continue
		}
		if filter.MinTrackCount != nil && p.TrackCount < *filter.MinTrackCount {
			continue
		}
		if filter.MaxTrackCount != nil && p.TrackCount > *filter.MaxTrackCount {
			continue
		}
		if filter.Search != "" {
			q := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(p.TrackName), q) &&
				!strings.Contains(strings.ToLower(p.ArtistName), q) {
				continue
			}
		}
		matched = append(matched, *p)
	}

	asc := filter.SortOrder == domain.SortAsc
	sort.Slice(matched, func(i, j int) bool {
		if asc {
			return lessBy(filter.SortBy, matched[i], matched[j])
		}
		return lessBy(filter.SortBy, matched[j], matched[i])
	})

	total := len(matched)
	matched = paginate(matched, filter.Limit, filter.Offset)
	return matched, total, nil
}

func lessBy(field domain.SortField, a, b domain.Podcast) bool {
	switch field {
	case domain.SortByTrackName:
		return a.TrackName < b.TrackName
	case domain.SortByArtistName:
		return a.ArtistName < b.ArtistName
	case domain.SortByTrackCount:
		return a.TrackCount < b.TrackCount
	case domain.SortByReleaseDate:
		switch {
		case a.ReleaseDate == nil:
			return b.ReleaseDate != nil
		case b.ReleaseDate == nil:
			return false
		default:
			return a.ReleaseDate.Before(*b.ReleaseDate)
		}
	default:
		return a.CreatedAt.Before(b.CreatedAt)
	}
}

func paginate(podcasts []domain.Podcast, limit, offset int) []domain.Podcast {
	if offset >= len(podcasts) {
		return nil
	}
	podcasts = podcasts[offset:]
	if limit > 0 && limit < len(podcasts) {
		podcasts = podcasts[:limit]
	}
	return podcasts
}

type MockJobRepository struct {
	mu     sync.RWMutex
	jobs   map[int64]*domain.Job
	nextID int64

	MaxAttempts int
	// EnqueueErr - инъекция сбоя постановки в очередь
	EnqueueErr error
}

func NewMockJobRepository() *MockJobRepository {
	return &MockJobRepository{
		jobs:        make(map[int64]*domain.Job),
		nextID:      1,
		MaxAttempts: domain.DefaultJobMaxAttempts,
	}
}

func (m *MockJobRepository) EnqueueMany(ctx context.Context, snapshots []domain.PodcastSnapshot) ([]domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.EnqueueErr != nil {
		return nil, m.EnqueueErr
	}

	var created []domain.Job
	for _, snap := range snapshots {
		if m.hasActiveJob(snap.TrackID) {
			continue
		}

		job := &domain.Job{
			ID:          m.nextID,
			TrackID:     snap.TrackID,
			TrackName:   snap.TrackName,
			Payload:     snap,
			Status:      domain.JobPending,
			Attempts:    0,
			MaxAttempts: m.MaxAttempts,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}
		m.nextID++
		m.jobs[job.ID] = job
		created = append(created, *job)
	}
	return created, nil
}

func (m *MockJobRepository) hasActiveJob(trackID int64) bool {
	for _, j := range m.jobs {
		if j.TrackID == trackID &&
			(j.Status == domain.JobPending || j.Status == domain.JobProcessing || j.Status == domain.JobCompleted) {
			return true
		}
	}
	return false
}

func (m *MockJobRepository) DequeueBatch(ctx context.Context, n int) ([]domain.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var pending []domain.Job
	for _, j := range m.jobs {
		if j.Status == domain.JobPending && j.Attempts < j.MaxAttempts {
			pending = append(pending, *j)
		}
	}

	sort.Slice(pending, func(i, j int) bool {
		if pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].ID < pending[j].ID
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})

	if n > 0 && len(pending) > n {
		pending = pending[:n]
	}
	return pending, nil
}

func (m *MockJobRepository) MarkProcessing(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok || job.Status != domain.JobPending {
		return domain.ErrJobNotFound
	}

	now := time.Now()
	job.Status = domain.JobProcessing
	job.LastAttemptAt = &now
	job.UpdatedAt = now
	return nil
}

func (m *MockJobRepository) MarkCompleted(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok || job.Status != domain.JobProcessing {
		return domain.ErrJobNotFound
	}

	now := time.Now()
	job.Status = domain.JobCompleted
	job.CompletedAt = &now
	job.UpdatedAt = now
	return nil
}

func (m *MockJobRepository) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}

	now := time.Now()
	job.Attempts++
	if job.Attempts >= job.MaxAttempts {
		job.Status = domain.JobFailed
	} else {
		job.Status = domain.JobPending
	}
	job.Error = errMsg
	job.LastAttemptAt = &now
	job.UpdatedAt = now
	return nil
}

func (m *MockJobRepository) ExistingTrackIDs(ctx context.Context, trackIDs []int64) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var existing []int64
	for _, id := range trackIDs {
		if m.hasActiveJob(id) {
			existing = append(existing, id)
		}
	}
	return existing, nil
}

func (m *MockJobRepository) Stats(ctx context.Context) (*domain.JobStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &domain.JobStats{}
	for _, j := range m.jobs {
		switch j.Status {
		case domain.JobPending:
			stats.Pending++
		case domain.JobProcessing:
			stats.Processing++
		case domain.JobCompleted:
			stats.Completed++
		case domain.JobFailed:
			stats.Failed++
		}
		stats.Total++
	}
	return stats, nil
}

// GetJob - доступ к состоянию джобы из тестов.
func (m *MockJobRepository) GetJob(id int64) (*domain.Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil, false
	}
	cp := *job
	return &cp, true
}
