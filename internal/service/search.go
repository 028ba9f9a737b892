package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/podcast-radar/internal/domain"
	"github.com/kitbuilder587/podcast-radar/internal/metrics"
	"github.com/kitbuilder587/podcast-radar/internal/repository"
	"github.com/kitbuilder587/podcast-radar/internal/search"
)

type SearchService interface {
	Search(ctx context.Context, params search.Params) (*domain.PodcastList, error)
}

type SearchServiceDeps struct {
	Client   search.Client
	Podcasts repository.PodcastRepository
	Jobs     repository.JobRepository
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

type searchService struct {
	client   search.Client
	podcasts repository.PodcastRepository
	jobs     repository.JobRepository
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func NewSearchService(deps SearchServiceDeps) SearchService {
	return &searchService{
		client:   deps.Client,
		podcasts: deps.Podcasts,
		jobs:     deps.Jobs,
		logger:   deps.Logger,
		metrics:  deps.Metrics,
	}
}

// Search отдаёт результаты upstream сразу; постановка новых подкастов в
// очередь записи - побочный эффект, на котором вызывающий не ждёт и об
// ошибках которого не узнаёт. При троттлинге или недоступности upstream
// деградируем до текстового поиска по уже сохранённым подкастам.
func (s *searchService) Search(ctx context.Context, params search.Params) (*domain.PodcastList, error) {
	start := time.Now()

	params.ApplyDefaults()
	if err := params.Validate(); err != nil {
		if s.metrics != nil {
			s.metrics.RecordSearchRequest("validation_error", time.Since(start))
		}
		return nil, err
	}

	page, err := s.client.Search(ctx, params)
	if err != nil {
		if errors.Is(err, domain.ErrRateLimited) || errors.Is(err, domain.ErrUpstreamUnavailable) {
			return s.fallback(ctx, params, err, start)
		}
		if s.metrics != nil {
			s.metrics.RecordSearchRequest("error", time.Since(start))
		}
		return nil, err
	}

	s.enqueueNew(ctx, page.Results)

	podcasts := make([]domain.Podcast, len(page.Results))
	for i, snap := range page.Results {
		podcasts[i] = snap.ToPodcast()
	}

	s.logger.Info("search completed",
		zap.String("term", params.Term),
		zap.Int("result_count", page.ResultCount),
	)
	if s.metrics != nil {
		s.metrics.RecordSearchRequest("success", time.Since(start))
	}

	return &domain.PodcastList{
		Podcasts: podcasts,
		Total:    page.ResultCount,
		Limit:    params.Limit,
		Offset:   params.Offset,
	}, nil
}

func (s *searchService) fallback(ctx context.Context, params search.Params, upstreamErr error, start time.Time) (*domain.PodcastList, error) {
	s.logger.Warn("upstream search degraded, falling back to local store",
		zap.String("term", params.Term),
		zap.Error(upstreamErr),
	)

	podcasts, total, err := s.podcasts.TextSearch(ctx, params.Term, params.Limit, params.Offset)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordSearchRequest("error", time.Since(start))
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordSearchRequest("fallback", time.Since(start))
	}

	return &domain.PodcastList{
		Podcasts: podcasts,
		Total:    total,
		Limit:    params.Limit,
		Offset:   params.Offset,
	}, nil
}

// enqueueNew ставит в очередь только подкасты, которых нет ни в хранилище,
// ни среди активных джоб. Ошибки здесь не доходят до вызывающего.
func (s *searchService) enqueueNew(ctx context.Context, snapshots []domain.PodcastSnapshot) {
	if len(snapshots) == 0 {
		return
	}

	trackIDs := make([]int64, len(snapshots))
	for i, snap := range snapshots {
		trackIDs[i] = snap.TrackID
	}

	persisted, err := s.podcasts.ExistingTrackIDs(ctx, trackIDs)
	if err != nil {
		s.logger.Warn("failed to check persisted podcasts, skipping enqueue", zap.Error(err))
		return
	}

	queued, err := s.jobs.ExistingTrackIDs(ctx, trackIDs)
	if err != nil {
		s.logger.Warn("failed to check queued jobs, skipping enqueue", zap.Error(err))
		return
	}

	known := make(map[int64]bool, len(persisted)+len(queued))
	for _, id := range persisted {
		known[id] = true
	}
	for _, id := range queued {
		known[id] = true
	}

	var fresh []domain.PodcastSnapshot
	for _, snap := range snapshots {
		if !known[snap.TrackID] {
			fresh = append(fresh, snap)
		}
	}

	if len(fresh) == 0 {
		return
	}

	created, err := s.jobs.EnqueueMany(ctx, fresh)
	if err != nil {
		s.logger.Warn("failed to enqueue podcast jobs", zap.Error(err))
		return
	}

	s.logger.Info("podcast jobs enqueued",
		zap.Int("discovered", len(snapshots)),
		zap.Int("new", len(created)),
	)
	if s.metrics != nil {
		s.metrics.RecordJobsEnqueued(len(created))
	}
}
