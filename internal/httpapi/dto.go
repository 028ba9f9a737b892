package httpapi

import (
	"time"

	"github.com/kitbuilder587/podcast-radar/internal/domain"
)

type podcastDTO struct {
	ID               int64    `json:"id"`
	TrackID          int64    `json:"trackId"`
	TrackName        string   `json:"trackName"`
	ArtistName       string   `json:"artistName,omitempty"`
	CollectionName   string   `json:"collectionName,omitempty"`
	ArtworkURL60     string   `json:"artworkUrl60,omitempty"`
	ArtworkURL100    string   `json:"artworkUrl100,omitempty"`
	ArtworkURL600    string   `json:"artworkUrl600,omitempty"`
	FeedURL          string   `json:"feedUrl,omitempty"`
	TrackViewURL     string   `json:"trackViewUrl,omitempty"`
	ReleaseDate      *string  `json:"releaseDate,omitempty"`
	Country          string   `json:"country,omitempty"`
	PrimaryGenreName string   `json:"primaryGenreName,omitempty"`
	GenreIDs         []string `json:"genreIds,omitempty"`
	Genres           []string `json:"genres,omitempty"`
	TrackCount       int      `json:"trackCount"`
	Explicit         bool     `json:"explicitContent"`
	Description      string   `json:"description,omitempty"`
}

type podcastListDTO struct {
	Podcasts []podcastDTO `json:"podcasts"`
	Total    int          `json:"total"`
	Limit    int          `json:"limit"`
	Offset   int          `json:"offset"`
}

func toPodcastDTO(p domain.Podcast) podcastDTO {
	dto := podcastDTO{
		ID:               p.ID,
		TrackID:          p.TrackID,
		TrackName:        p.TrackName,
		ArtistName:       p.ArtistName,
		CollectionName:   p.CollectionName,
		ArtworkURL60:     p.ArtworkURL60,
		ArtworkURL100:    p.ArtworkURL100,
		ArtworkURL600:    p.ArtworkURL600,
		FeedURL:          p.FeedURL,
		TrackViewURL:     p.TrackViewURL,
		Country:          p.Country,
		PrimaryGenreName: p.PrimaryGenreName,
		GenreIDs:         p.GenreIDs,
		Genres:           p.Genres,
		TrackCount:       p.TrackCount,
		Explicit:         p.Explicit,
		Description:      p.Description,
	}

	if p.ReleaseDate != nil {
		s := p.ReleaseDate.UTC().Format(time.RFC3339)
		dto.ReleaseDate = &s
	}

	return dto
}

func toPodcastListDTO(list *domain.PodcastList) podcastListDTO {
	podcasts := make([]podcastDTO, len(list.Podcasts))
	for i, p := range list.Podcasts {
		podcasts[i] = toPodcastDTO(p)
	}
	return podcastListDTO{
		Podcasts: podcasts,
		Total:    list.Total,
		Limit:    list.Limit,
		Offset:   list.Offset,
	}
}
