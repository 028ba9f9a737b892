package domain

type SortField string

const (
	SortByCreatedAt   SortField = "createdAt"
	SortByReleaseDate SortField = "releaseDate"
	SortByTrackName   SortField = "trackName"
	SortByArtistName  SortField = "artistName"
	SortByTrackCount  SortField = "trackCount"
)

func (f SortField) IsValid() bool {
	switch f {
	case SortByCreatedAt, SortByReleaseDate, SortByTrackName, SortByArtistName, SortByTrackCount:
		return true
	}
	return false
}

type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// PodcastFilter - параметры листинга уже сохранённых подкастов.
type PodcastFilter struct {
	Limit         int
	Offset        int
	SortBy        SortField
	SortOrder     SortOrder
	Genre         string
	Country       string
	Explicit      *bool
	Search        string
	MinTrackCount *int
	MaxTrackCount *int
}

func (f *PodcastFilter) Normalize() error {
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit < 1 || f.Limit > 200 {
		return ErrInvalidLimit
	}
	if f.Offset < 0 {
		return ErrInvalidOffset
	}
	if f.SortBy == "" {
		f.SortBy = SortByCreatedAt
	}
	if !f.SortBy.IsValid() {
		return ErrInvalidSort
	}
	if f.SortOrder == "" {
		f.SortOrder = SortDesc
	}
	if f.SortOrder != SortAsc && f.SortOrder != SortDesc {
		return ErrInvalidSort
	}
	return nil
}
