package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"go.uber.org/zap"

	"github.com/kitbuilder587/podcast-radar/internal/domain"
	"github.com/kitbuilder587/podcast-radar/internal/repository"
	"github.com/kitbuilder587/podcast-radar/internal/search"
	searchmock "github.com/kitbuilder587/podcast-radar/internal/search/mock"
	"github.com/kitbuilder587/podcast-radar/internal/service"
)

type fixture struct {
	handler  http.Handler
	client   *searchmock.Client
	podcasts *repository.MockPodcastRepository
	jobs     *repository.MockJobRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	client := searchmock.New()
	podcasts := repository.NewMockPodcastRepository()
	jobs := repository.NewMockJobRepository()
	logger := zap.NewNop()

	searchSvc := service.NewSearchService(service.SearchServiceDeps{
		Client:   client,
		Podcasts: podcasts,
		Jobs:     jobs,
		Logger:   logger,
	})
	podcastSvc := service.NewPodcastService(podcasts, logger)
	srv := NewServer(searchSvc, podcastSvc, logger)

	return &fixture{
		handler:  srv.Router(),
		client:   client,
		podcasts: podcasts,
		jobs:     jobs,
	}
}

func (f *fixture) get(t *testing.T, path string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var body apiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body %q: %v", rec.Body.String(), err)
	}
	return rec, body
}

func TestServer_Health(t *testing.T) {
	f := newFixture(t)

	rec, body := f.get(t, "/healthz")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !body.Success {
		t.Error("success = false, want true")
	}
}

func TestServer_Search(t *testing.T) {
	f := newFixture(t)
	f.client.WithPage(&search.Page{
		ResultCount: 1,
		Results:     []domain.PodcastSnapshot{{TrackID: 7, TrackName: "Tech Daily"}},
	})

	rec, body := f.get(t, "/api/v1/podcasts/search?term=tech&limit=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	if !body.Success {
		t.Error("success = false, want true")
	}
	if f.client.LastParams.Term != "tech" || f.client.LastParams.Limit != 5 {
		t.Errorf("params = %+v, want term=tech limit=5", f.client.LastParams)
	}

	var list podcastListDTO
	raw, _ := json.Marshal(body.Data)
	if err := json.Unmarshal(raw, &list); err != nil {
		t.Fatalf("data is not a podcast list: %v", err)
	}
	if len(list.Podcasts) != 1 || list.Podcasts[0].TrackID != 7 {
		t.Errorf("data = %+v, want one podcast with trackId 7", list)
	}
}

func TestServer_SearchValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		path string
	}{
		{"missing term", "/api/v1/podcasts/search"},
		{"blank term", "/api/v1/podcasts/search?term=%20%20"},
		{"bad limit", "/api/v1/podcasts/search?term=tech&limit=abc"},
		{"negative offset", "/api/v1/podcasts/search?term=tech&offset=-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := f.get(t, tt.path)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if body.Error == nil || body.Error.Code != "VALIDATION_ERROR" {
				t.Errorf("error = %+v, want VALIDATION_ERROR", body.Error)
			}
		})
	}
}

func TestServer_SearchFallsBackWhenThrottled(t *testing.T) {
	f := newFixture(t)
	f.client.WithError(&domain.RateLimitError{})
	f.podcasts.Upsert(context.Background(), &domain.Podcast{TrackID: 1, TrackName: "Tech Weekly"})

	rec, body := f.get(t, "/api/v1/podcasts/search?term=tech")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 from local fallback", rec.Code)
	}
	if !body.Success {
		t.Error("success = false, want true")
	}
}

func TestServer_SearchInternalError(t *testing.T) {
	f := newFixture(t)
	f.client.WithError(domain.ErrInternal)

	rec, body := f.get(t, "/api/v1/podcasts/search?term=tech")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if body.Error == nil || body.Error.Code != "INTERNAL_ERROR" {
		t.Errorf("error = %+v, want INTERNAL_ERROR", body.Error)
	}
}

func TestServer_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.podcasts.Upsert(ctx, &domain.Podcast{TrackID: 1, TrackName: "A", PrimaryGenreName: "Technology"})
	f.podcasts.Upsert(ctx, &domain.Podcast{TrackID: 2, TrackName: "B", PrimaryGenreName: "Comedy"})

	rec, body := f.get(t, "/api/v1/podcasts/?genre=Technology")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var list podcastListDTO
	raw, _ := json.Marshal(body.Data)
	if err := json.Unmarshal(raw, &list); err != nil {
		t.Fatalf("data is not a podcast list: %v", err)
	}
	if list.Total != 1 {
		t.Errorf("total = %d, want 1", list.Total)
	}
}

func TestServer_ListInvalidSort(t *testing.T) {
	f := newFixture(t)

	rec, body := f.get(t, "/api/v1/podcasts/?sortBy=popularity")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if body.Error == nil || body.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("error = %+v, want VALIDATION_ERROR", body.Error)
	}
}

func TestServer_Get(t *testing.T) {
	f := newFixture(t)
	p := &domain.Podcast{TrackID: 9, TrackName: "Found"}
	f.podcasts.Upsert(context.Background(), p)

	rec, body := f.get(t, "/api/v1/podcasts/"+strconv.FormatInt(p.ID, 10))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var dto podcastDTO
	raw, _ := json.Marshal(body.Data)
	if err := json.Unmarshal(raw, &dto); err != nil {
		t.Fatalf("data is not a podcast: %v", err)
	}
	if dto.TrackName != "Found" {
		t.Errorf("trackName = %q, want Found", dto.TrackName)
	}
}

func TestServer_GetNotFound(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/api/v1/podcasts/12345", "/api/v1/podcasts/not-a-number"} {
		rec, body := f.get(t, path)
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, rec.Code)
		}
		if body.Error == nil || body.Error.Code != "NOT_FOUND" {
			t.Errorf("GET %s error = %+v, want NOT_FOUND", path, body.Error)
		}
	}
}
