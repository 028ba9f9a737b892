package repository

import (
	"context"

	"github.com/kitbuilder587/podcast-radar/internal/domain"
)

type PodcastRepository interface {
	// Upsert - create-if-absent / update-if-present по track_id.
	Upsert(ctx context.Context, podcast *domain.Podcast) error
	GetByID(ctx context.Context, id int64) (*domain.Podcast, error)
	GetByTrackID(ctx context.Context, trackID int64) (*domain.Podcast, error)
	ExistingTrackIDs(ctx context.Context, trackIDs []int64) ([]int64, error)
	TextSearch(ctx context.Context, query string, limit, offset int) ([]domain.Podcast, int, error)
	List(ctx context.Context, filter domain.PodcastFilter) ([]domain.Podcast, int, error)
}

// JobRepository - очередь отложенной записи подкастов.
// Инвариант: на track_id не больше одной джобы в {pending, processing, completed}.
type JobRepository interface {
	EnqueueMany(ctx context.Context, snapshots []domain.PodcastSnapshot) ([]domain.Job, error)
	DequeueBatch(ctx context.Context, n int) ([]domain.Job, error)
	MarkProcessing(ctx context.Context, id int64) error
	MarkCompleted(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, errMsg string) error
	ExistingTrackIDs(ctx context.Context, trackIDs []int64) ([]int64, error)
	Stats(ctx context.Context) (*domain.JobStats, error)
}
