package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/kitbuilder587/podcast-radar/internal/domain"
	"github.com/kitbuilder587/podcast-radar/internal/repository"
)

type PodcastService interface {
	FindAll(ctx context.Context, filter domain.PodcastFilter) (*domain.PodcastList, error)
	FindByID(ctx context.Context, id int64) (*domain.Podcast, error)
}

type podcastService struct {
	repo   repository.PodcastRepository
	logger *zap.Logger
}

func NewPodcastService(repo repository.PodcastRepository, logger *zap.Logger) PodcastService {
	return &podcastService{
		repo:   repo,
		logger: logger,
	}
}

func (s *podcastService) FindAll(ctx context.Context, filter domain.PodcastFilter) (*domain.PodcastList, error) {
	if err := filter.Normalize(); err != nil {
		return nil, err
	}

	podcasts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &domain.PodcastList{
		Podcasts: podcasts,
		Total:    total,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}, nil
}

func (s *podcastService) FindByID(ctx context.Context, id int64) (*domain.Podcast, error) {
	return s.repo.GetByID(ctx, id)
}
