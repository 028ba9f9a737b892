package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kitbuilder587/podcast-radar/internal/domain"
	"github.com/kitbuilder587/podcast-radar/internal/metrics"
	"github.com/kitbuilder587/podcast-radar/internal/search"
	"github.com/kitbuilder587/podcast-radar/internal/service"
)

type Server struct {
	search   service.SearchService
	podcasts service.PodcastService
	logger   *zap.Logger
}

func NewServer(searchSvc service.SearchService, podcastSvc service.PodcastService, logger *zap.Logger) *Server {
	return &Server{
		search:   searchSvc,
		podcasts: podcastSvc,
		logger:   logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1/podcasts", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Get("/", s.handleList)
		r.Get("/{id}", s.handleGet)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := search.Params{
		Term:    q.Get("term"),
		Country: q.Get("country"),
		Entity:  q.Get("entity"),
	}

	var err error
	if params.Limit, err = intQuery(q.Get("limit"), 0); err != nil {
		writeError(w, domain.ErrInvalidLimit)
		return
	}
	if params.Offset, err = intQuery(q.Get("offset"), 0); err != nil {
		writeError(w, domain.ErrInvalidOffset)
		return
	}

	list, err := s.search.Search(r.Context(), params)
	if err != nil {
		s.logger.Warn("search request failed",
			zap.String("term", params.Term),
			zap.Error(err),
		)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, toPodcastListDTO(list))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.PodcastFilter{
		SortBy:    domain.SortField(q.Get("sortBy")),
		SortOrder: domain.SortOrder(q.Get("sortOrder")),
		Genre:     q.Get("genre"),
		Country:   q.Get("country"),
		Search:    q.Get("search"),
	}

	var err error
	if filter.Limit, err = intQuery(q.Get("limit"), 0); err != nil {
		writeError(w, domain.ErrInvalidLimit)
		return
	}
	if filter.Offset, err = intQuery(q.Get("offset"), 0); err != nil {
		writeError(w, domain.ErrInvalidOffset)
		return
	}

	if v := q.Get("explicitContent"); v != "" {
		explicit := v == "true"
		filter.Explicit = &explicit
	}
	if v := q.Get("minTrackCount"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, domain.ErrInvalidLimit)
			return
		}
		filter.MinTrackCount = &n
	}
	if v := q.Get("maxTrackCount"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, domain.ErrInvalidLimit)
			return
		}
		filter.MaxTrackCount = &n
	}

	list, err := s.podcasts.FindAll(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, toPodcastListDTO(list))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, domain.ErrPodcastNotFound)
		return
	}

	podcast, err := s.podcasts.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, toPodcastDTO(*podcast))
}

func intQuery(value string, defaultValue int) (int, error) {
	if value == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(value)
}
