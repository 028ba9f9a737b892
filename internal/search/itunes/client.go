package itunes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/podcast-radar/internal/cache/memory"
	"github.com/kitbuilder587/podcast-radar/internal/domain"
	"github.com/kitbuilder587/podcast-radar/internal/metrics"
	"github.com/kitbuilder587/podcast-radar/internal/ratelimit"
	"github.com/kitbuilder587/podcast-radar/internal/search"
)

type Config struct {
	BaseURL string
	Timeout time.Duration

	// сетевые сбои: фиксированная пауза между попытками
	RetryAttempts int
	RetryDelay    time.Duration

	// троттлинг: экспоненциальный backoff с потолком
	RateLimitAttempts   int
	RateLimitBaseDelay  time.Duration
	RateLimitMultiplier float64
	RateLimitMaxDelay   time.Duration
}

type Client struct {
	baseURL string
	client  *http.Client
	limiter *ratelimit.Limiter
	cache   *memory.Cache
	logger  *zap.Logger
	metrics *metrics.Metrics
	cfg     Config

	sleep func(ctx context.Context, d time.Duration) error
}

func New(cfg Config, limiter *ratelimit.Limiter, cache *memory.Cache, logger *zap.Logger, m *metrics.Metrics) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://itunes.apple.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.RateLimitAttempts == 0 {
		cfg.RateLimitAttempts = 5
	}
	if cfg.RateLimitBaseDelay == 0 {
		cfg.RateLimitBaseDelay = time.Second
	}
	if cfg.RateLimitMultiplier == 0 {
		cfg.RateLimitMultiplier = 2
	}
	if cfg.RateLimitMaxDelay == 0 {
		cfg.RateLimitMaxDelay = time.Minute
	}

	return &Client{
		baseURL: cfg.BaseURL,
		client: &http.Client{
			Timeout: cfg.Timeout,
			// редиректы не следуем: upstream отвечает 3xx при троттлинге,
			// и статус нужен для классификации
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		limiter: limiter,
		cache:   cache,
		logger:  logger,
		metrics: m,
		cfg:     cfg,
		sleep:   sleepContext,
	}
}

type itunesResponse struct {
	ResultCount int                      `json:"resultCount"`
	Results     []domain.PodcastSnapshot `json:"results"`
}

type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeRateLimited
	outcomeTransient
	outcomeFatal
)

// Search отдаёт результат из кеша, если он свежий; иначе идёт в iTunes API
// через rate limiter, с ретраями по классификации сбоя. Счётчики попыток
// для троттлинга и сетевых сбоев независимы.
func (c *Client) Search(ctx context.Context, params search.Params) (*search.Page, error) {
	params.ApplyDefaults()

	fp := params.Fingerprint()
	if cached, ok := c.cache.Get(fp); ok {
		if page, ok := cached.(*search.Page); ok {
			if c.metrics != nil {
				c.metrics.RecordCacheHit()
			}
			return page, nil
		}
	}
	if c.metrics != nil {
		c.metrics.RecordCacheMiss()
	}

	var (
		rateLimitAttempt int
		networkAttempt   int
	)

	for {
		if err := c.limiter.Acquire(ctx); err != nil {
			return nil, err
		}

		start := time.Now()
		page, kind, err := c.doRequest(ctx, params)

		switch kind {
		case outcomeSuccess:
			if c.metrics != nil {
				c.metrics.RecordUpstreamRequest("success", time.Since(start))
			}
			c.cache.Set(fp, page)
			return page, nil

		case outcomeRateLimited:
			if c.metrics != nil {
				c.metrics.RecordUpstreamRequest("rate_limited", time.Since(start))
			}
			rateLimitAttempt++
			backoff := c.backoff(rateLimitAttempt)

			if rateLimitAttempt >= c.cfg.RateLimitAttempts {
				c.logger.Warn("itunes rate limit retries exhausted",
					zap.Int("attempts", rateLimitAttempt),
					zap.Duration("retry_after", backoff),
				)
				return nil, &domain.RateLimitError{RetryAfter: backoff}
			}

			c.logger.Warn("itunes request rate limited, backing off",
				zap.Int("attempt", rateLimitAttempt),
				zap.Duration("backoff", backoff),
			)
			if c.metrics != nil {
				c.metrics.RecordUpstreamRetry("rate_limited")
			}
			if err := c.sleep(ctx, backoff); err != nil {
				return nil, err
			}

		case outcomeTransient:
			if c.metrics != nil {
				c.metrics.RecordUpstreamRequest("network_error", time.Since(start))
			}
			networkAttempt++

			if networkAttempt >= c.cfg.RetryAttempts {
				c.logger.Error("itunes unreachable after retries",
					zap.Int("attempts", networkAttempt),
					zap.Error(err),
				)
				return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
			}

			c.logger.Warn("itunes request failed, retrying",
				zap.Int("attempt", networkAttempt),
				zap.Error(err),
			)
			if c.metrics != nil {
				c.metrics.RecordUpstreamRetry("network_error")
			}
			if err := c.sleep(ctx, c.cfg.RetryDelay); err != nil {
				return nil, err
			}

		default:
			if c.metrics != nil {
				c.metrics.RecordUpstreamRequest("error", time.Since(start))
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrInternal, err)
		}
	}
}

func (c *Client) doRequest(ctx context.Context, params search.Params) (*search.Page, outcome, error) {
	q := url.Values{}
	q.Set("term", params.Term)
	q.Set("country", params.Country)
	q.Set("media", "podcast")
	q.Set("entity", params.Entity)
	q.Set("limit", strconv.Itoa(params.Limit))
	q.Set("offset", strconv.Itoa(params.Offset))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, outcomeFatal, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "podcast-radar/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, outcomeFatal, ctx.Err()
		}
		// ответа не было вовсе: соединение или таймаут
		return nil, outcomeTransient, fmt.Errorf("do request: %w", err)
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, outcomeTransient, fmt.Errorf("read response: %w", err)
	}

	if throttled(resp) {
		return nil, outcomeRateLimited, fmt.Errorf("throttled: status %d", resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, outcomeFatal, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var itunesResp itunesResponse
	if err := json.Unmarshal(body, &itunesResp); err != nil {
		return nil, outcomeFatal, fmt.Errorf("unmarshal response: %w", err)
	}

	return &search.Page{
		ResultCount: itunesResp.ResultCount,
		Results:     itunesResp.Results,
	}, outcomeSuccess, nil
}

// throttled распознаёт признаки троттлинга: явные статусы, исчерпанную квоту
// в заголовке и любой редирект. Последнее - эвристика: iTunes редиректит
// заторможенные запросы, отличить это от легитимного редиректа нельзя.
func throttled(resp *http.Response) bool {
	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		return true
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
		return true
	}
	if resp.Header.Get("Retry-After") != "" {
		return true
	}
	if resp.Header.Get("X-Rate-Limit-Remaining") == "0" {
		return true
	}
	return false
}

func (c *Client) backoff(attempt int) time.Duration {
	d := time.Duration(float64(c.cfg.RateLimitBaseDelay) * math.Pow(c.cfg.RateLimitMultiplier, float64(attempt-1)))
	if d > c.cfg.RateLimitMaxDelay {
		return c.cfg.RateLimitMaxDelay
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
