package domain

import "time"

type Podcast struct {
	ID               int64
	TrackID          int64
	TrackName        string
	ArtistName       string
	CollectionName   string
	ArtworkURL60     string
	ArtworkURL100    string
	ArtworkURL600    string
	FeedURL          string
	TrackViewURL     string
	ReleaseDate      *time.Time
	Country          string
	PrimaryGenreName string
	GenreIDs         []string
	Genres           []string
	TrackCount       int
	Explicit         bool
	Description      string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PodcastSnapshot - сырой элемент ответа iTunes Search API.
// Хранится как payload джобы, поэтому json-теги совпадают с upstream.
type PodcastSnapshot struct {
	TrackID               int64    `json:"trackId"`
	TrackName             string   `json:"trackName"`
	ArtistName            string   `json:"artistName"`
	CollectionName        string   `json:"collectionName"`
	ArtworkURL60          string   `json:"artworkUrl60"`
	ArtworkURL100         string   `json:"artworkUrl100"`
	ArtworkURL600         string   `json:"artworkUrl600"`
	FeedURL               string   `json:"feedUrl"`
	TrackViewURL          string   `json:"trackViewUrl"`
	ReleaseDate           string   `json:"releaseDate"`
	Country               string   `json:"country"`
	PrimaryGenreName      string   `json:"primaryGenreName"`
	GenreIDs              []string `json:"genreIds"`
	Genres                []string `json:"genres"`
	TrackCount            int      `json:"trackCount"`
	TrackExplicitness     string   `json:"trackExplicitness"`
	CollectionExplicitness string  `json:"collectionExplicitness"`
}

// ToPodcast переводит снапшот в сущность для upsert.
func (s PodcastSnapshot) ToPodcast() Podcast {
	p := Podcast{
		TrackID:          s.TrackID,
		TrackName:        s.TrackName,
		ArtistName:       s.ArtistName,
		CollectionName:   s.CollectionName,
		ArtworkURL60:     s.ArtworkURL60,
		ArtworkURL100:    s.ArtworkURL100,
		ArtworkURL600:    s.ArtworkURL600,
		FeedURL:          s.FeedURL,
		TrackViewURL:     s.TrackViewURL,
		Country:          s.Country,
		PrimaryGenreName: s.PrimaryGenreName,
		GenreIDs:         s.GenreIDs,
		Genres:           s.Genres,
		TrackCount:       s.TrackCount,
		Explicit:         s.TrackExplicitness == "explicit" || s.CollectionExplicitness == "explicit",
		Description:      s.CollectionName,
	}

	if s.ReleaseDate != "" {
		if t, err := time.Parse(time.RFC3339, s.ReleaseDate); err == nil {
			p.ReleaseDate = &t
		}
	}

	return p
}

type PodcastList struct {
	Podcasts []Podcast
	Total    int
	Limit    int
	Offset   int
}
