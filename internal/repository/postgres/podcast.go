package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/kitbuilder587/podcast-radar/internal/domain"
)

type PodcastRepo struct {
	db *DB
}

func NewPodcastRepo(db *DB) *PodcastRepo {
	return &PodcastRepo{db: db}
}

const podcastColumns = `
    id, track_id, track_name, artist_name, collection_name,
    artwork_url_60, artwork_url_100, artwork_url_600,
    feed_url, track_view_url, release_date, country,
    primary_genre_name, genre_ids, genres, track_count,
    explicit, description, created_at, updated_at
`

func (r *PodcastRepo) Upsert(ctx context.Context, p *domain.Podcast) error {
	query := `
        INSERT INTO podcasts (
            track_id, track_name, artist_name, collection_name,
            artwork_url_60, artwork_url_100, artwork_url_600,
            feed_url, track_view_url, release_date, country,
            primary_genre_name, genre_ids, genres, track_count,
            explicit, description
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
        ON CONFLICT (track_id) DO UPDATE SET
            track_name = EXCLUDED.track_name,
            artist_name = EXCLUDED.artist_name,
            collection_name = EXCLUDED.collection_name,
            artwork_url_60 = EXCLUDED.artwork_url_60,
            artwork_url_100 = EXCLUDED.artwork_url_100,
            artwork_url_600 = EXCLUDED.artwork_url_600,
            feed_url = EXCLUDED.feed_url,
            track_view_url = EXCLUDED.track_view_url,
            release_date = EXCLUDED.release_date,
            country = EXCLUDED.country,
            primary_genre_name = EXCLUDED.primary_genre_name,
            genre_ids = EXCLUDED.genre_ids,
            genres = EXCLUDED.genres,
            track_count = EXCLUDED.track_count,
            explicit = EXCLUDED.explicit,
            description = EXCLUDED.description,
            updated_at = NOW()
        RETURNING id, created_at, updated_at
    `

	err := r.db.Pool.QueryRow(ctx, query,
		p.TrackID,
		p.TrackName,
		p.ArtistName,
		p.CollectionName,
		p.ArtworkURL60,
		p.ArtworkURL100,
		p.ArtworkURL600,
		p.FeedURL,
		p.TrackViewURL,
		p.ReleaseDate,
		p.Country,
		p.PrimaryGenreName,
		p.GenreIDs,
		p.Genres,
		p.TrackCount,
		p.Explicit,
		p.Description,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		return fmt.Errorf("upsert podcast: %w", err)
	}

	return nil
}

func (r *PodcastRepo) GetByID(ctx context.Context, id int64) (*domain.Podcast, error) {
	query := `SELECT ` + podcastColumns + ` FROM podcasts WHERE id = $1`
	return r.scanOne(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *PodcastRepo) GetByTrackID(ctx context.Context, trackID int64) (*domain.Podcast, error) {
	query := `SELECT ` + podcastColumns + ` FROM podcasts WHERE track_id = $1`
	return r.scanOne(r.db.Pool.QueryRow(ctx, query, trackID))
}

func (r *PodcastRepo) scanOne(row pgx.Row) (*domain.Podcast, error) {
	var p domain.Podcast
	err := row.Scan(
		&p.ID,
		&p.TrackID,
		&p.TrackName,
		&p.ArtistName,
		&p.CollectionName,
		&p.ArtworkURL60,
		&p.ArtworkURL100,
		&p.ArtworkURL600,
		&p.FeedURL,
		&p.TrackViewURL,
		&p.ReleaseDate,
		&p.Country,
		&p.PrimaryGenreName,
		&p.GenreIDs,
		&p.Genres,
		&p.TrackCount,
		&p.Explicit,
		&p.Description,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPodcastNotFound
		}
		return nil, fmt.Errorf("get podcast: %w", err)
	}
	return &p, nil
}

func (r *PodcastRepo) ExistingTrackIDs(ctx context.Context, trackIDs []int64) ([]int64, error) {
	if len(trackIDs) == 0 {
		return nil, nil
	}

	query := `SELECT track_id FROM podcasts WHERE track_id = ANY($1)`

	rows, err := r.db.Pool.Query(ctx, query, trackIDs)
	if err != nil {
		return nil, fmt.Errorf("existing track ids: %w", err)
	}
	defer rows.Close()

	var existing []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan track id: %w", err)
		}
		existing = append(existing, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return existing, nil
}

// TextSearch - локальный фоллбек, когда upstream недоступен.
func (r *PodcastRepo) TextSearch(ctx context.Context, query string, limit, offset int) ([]domain.Podcast, int, error) {
	pattern := "%" + query + "%"

	countQuery := `
        SELECT COUNT(*) FROM podcasts
        WHERE track_name ILIKE $1 OR artist_name ILIKE $1 OR description ILIKE $1
    `
	var total int
	if err := r.db.Pool.QueryRow(ctx, countQuery, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count text search: %w", err)
	}

	listQuery := `SELECT ` + podcastColumns + `
        FROM podcasts
        WHERE track_name ILIKE $1 OR artist_name ILIKE $1 OR description ILIKE $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3
    `

	rows, err := r.db.Pool.Query(ctx, listQuery, pattern, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("text search: %w", err)
	}
	defer rows.Close()

	podcasts, err := r.scanAll(rows)
	if err != nil {
		return nil, 0, err
	}

	return podcasts, total, nil
}

var sortColumns = map[domain.SortField]string{
	domain.SortByCreatedAt:   "created_at",
	domain.SortByReleaseDate: "release_date",
	domain.SortByTrackName:   "track_name",
	domain.SortByArtistName:  "artist_name",
	domain.SortByTrackCount:  "track_count",
}

func (r *PodcastRepo) List(ctx context.Context, filter domain.PodcastFilter) ([]domain.Podcast, int, error) {
	var (
		conds []string
		args  []interface{}
	)

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Genre != "" {
		add("primary_genre_name = $%d", filter.Genre)
	}
	if filter.Country != "" {
		add("country = $%d", filter.Country)
	}
	if filter.Explicit != nil {
		add("explicit = $%d", *filter.Explicit)
	}
	if filter.Search != "" {
		add("(track_name ILIKE $%[1]d OR artist_name ILIKE $%[1]d)", "%"+filter.Search+"%")
	}
	if filter.MinTrackCount != nil {
		add("track_count >= $%d", *filter.MinTrackCount)
	}
	if filter.MaxTrackCount != nil {
		add("track_count <= $%d", *filter.MaxTrackCount)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM podcasts"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count podcasts: %w", err)
	}

	// sortColumns - whitelist, сырой ввод в ORDER BY не попадает
	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if filter.SortOrder == domain.SortAsc {
		direction = "ASC"
	}

	args = append(args, filter.Limit, filter.Offset)
	listQuery := fmt.Sprintf(
		"SELECT %s FROM podcasts%s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		podcastColumns, where, column, direction, len(args)-1, len(args),
	)

	rows, err := r.db.Pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list podcasts: %w", err)
	}
	defer rows.Close()

	podcasts, err := r.scanAll(rows)
	if err != nil {
		return nil, 0, err
	}

	return podcasts, total, nil
}

func (r *PodcastRepo) scanAll(rows pgx.Rows) ([]domain.Podcast, error) {
	var podcasts []domain.Podcast
	for rows.Next() {
		var p domain.Podcast
		err := rows.Scan(
			&p.ID,
			&p.TrackID,
			&p.TrackName,
			&p.ArtistName,
			&p.CollectionName,
			&p.ArtworkURL60,
			&p.ArtworkURL100,
			&p.ArtworkURL600,
			&p.FeedURL,
			&p.TrackViewURL,
			&p.ReleaseDate,
			&p.Country,
			&p.PrimaryGenreName,
			&p.GenreIDs,
			&p.Genres,
			&p.TrackCount,
			&p.Explicit,
			&p.Description,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan podcast: %w", err)
		}
		podcasts = append(podcasts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return podcasts, nil
}
