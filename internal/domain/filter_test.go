package domain

import (
	"errors"
	"testing"
)

func TestPodcastFilter_NormalizeDefaults(t *testing.T) {
	f := PodcastFilter{}
	if err := f.Normalize(); err != nil {
		t.Fatalf("Normalize() unexpected error: %v", err)
	}
	if f.Limit != 20 {
		t.Errorf("Limit = %d, want 20", f.Limit)
	}
	if f.SortBy != SortByCreatedAt {
		t.Errorf("SortBy = %s, want createdAt", f.SortBy)
	}
	if f.SortOrder != SortDesc {
		t.Errorf("SortOrder = %s, want DESC", f.SortOrder)
	}
}

func TestPodcastFilter_NormalizeValidation(t *testing.T) {
	cases := []struct {
		name    string
		filter  PodcastFilter
		wantErr error
	}{
		{"limit over max", PodcastFilter{Limit: 201}, ErrInvalidLimit},
		{"limit negative", PodcastFilter{Limit: -5}, ErrInvalidLimit},
		{"limit at max", PodcastFilter{Limit: 200}, nil},
		{"offset negative", PodcastFilter{Offset: -1}, ErrInvalidOffset},
		{"sort field unknown", PodcastFilter{SortBy: "episodes"}, ErrInvalidSort},
		{"sort order unknown", PodcastFilter{SortOrder: "up"}, ErrInvalidSort},
		{"valid explicit sort", PodcastFilter{SortBy: SortByTrackCount, SortOrder: SortAsc}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.filter.Normalize()
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Normalize() = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestSortField_IsValid(t *testing.T) {
	for _, f := range []SortField{SortByCreatedAt, SortByReleaseDate, SortByTrackName, SortByArtistName, SortByTrackCount} {
		if !f.IsValid() {
			t.Errorf("IsValid(%s) = false, want true", f)
		}
	}
	if SortField("rank").IsValid() {
		t.Error("IsValid(rank) = true, want false")
	}
}
