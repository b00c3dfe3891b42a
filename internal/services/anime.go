package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"animesearch/internal/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	jikanAPIURL        = "https://api.jikan.moe/v4"
	userAgent          = "AnimeSearch/1.0"
	defaultRateLimit   = 3 // requests per second
	defaultPageSize    = 12
	defaultTopLimit    = 10
	maxTopLimit        = 25
	maxResponseSize    = 5 * 1024 * 1024 // 5MB
	searchCachePrefix  = "anime:search:"
	detailsCachePrefix = "anime:details:"
	topCachePrefix     = "anime:top:"
	searchCacheTTL     = 4 * time.Hour
	detailsCacheTTL    = 24 * time.Hour
	topCacheTTL        = 1 * time.Hour
)

// ResponseCache stores raw catalog response bodies.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type Client struct {
	baseURL    string
	userAgent  string
	pageSize   int
	httpClient *http.Client
	logger     *logrus.Logger
	limiter    *rate.Limiter
	cache      ResponseCache

	searchTTL  time.Duration
	detailsTTL time.Duration
	topTTL     time.Duration
}

type ClientConfig struct {
	BaseURL string
	// Timeout of zero leaves requests unbounded; callers cancel through ctx.
	Timeout   time.Duration
	RateLimit float64 // requests per second, <= 0 disables limiting
	Burst     int
	PageSize  int
	UserAgent string
	Logger    *logrus.Logger
	Cache     ResponseCache

	SearchCacheTTL  time.Duration
	DetailsCacheTTL time.Duration
	TopCacheTTL     time.Duration
}

func NewClient() *Client {
	return NewClientWithConfig(&ClientConfig{
		BaseURL:   jikanAPIURL,
		RateLimit: defaultRateLimit,
		PageSize:  defaultPageSize,
		UserAgent: userAgent,
		Logger:    logrus.New(),
	})
}

func NewClientWithConfig(config *ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	if config.BaseURL == "" {
		config.BaseURL = jikanAPIURL
	}
	if config.PageSize <= 0 {
		config.PageSize = defaultPageSize
	}
	if config.UserAgent == "" {
		config.UserAgent = userAgent
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}
	if config.SearchCacheTTL <= 0 {
		config.SearchCacheTTL = searchCacheTTL
	}
	if config.DetailsCacheTTL <= 0 {
		config.DetailsCacheTTL = detailsCacheTTL
	}
	if config.TopCacheTTL <= 0 {
		config.TopCacheTTL = topCacheTTL
	}

	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
	}

	return &Client{
		baseURL:   strings.TrimRight(config.BaseURL, "/"),
		userAgent: config.UserAgent,
		pageSize:  config.PageSize,
		httpClient: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger:     config.Logger,
		limiter:    rate.NewLimiter(limit, config.Burst),
		cache:      config.Cache,
		searchTTL:  config.SearchCacheTTL,
		detailsTTL: config.DetailsCacheTTL,
		topTTL:     config.TopCacheTTL,
	}
}

// Search fetches one page of keyword results. HasMore follows the catalog's
// pagination flag and is false for an empty page.
func (c *Client) Search(ctx context.Context, query string, page int) (*models.SearchPage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if page < 1 {
		page = 1
	}

	c.logger.WithFields(logrus.Fields{
		"query": query,
		"page":  page,
	}).Debug("Searching anime...")

	params := url.Values{}
	params.Set("q", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(c.pageSize))

	searchURL := fmt.Sprintf("%s/anime?%s", c.baseURL, params.Encode())
	cacheKey := fmt.Sprintf("%s%s:%d:%d", searchCachePrefix, strings.ToLower(query), page, c.pageSize)

	body, err := c.cachedGet(ctx, cacheKey, c.searchTTL, searchURL)
	if err != nil {
		return nil, err
	}

	var searchResult models.JikanSearchResponse
	if err := json.Unmarshal(body, &searchResult); err != nil {
		return nil, fmt.Errorf("%w: failed to decode search response: %v", ErrRequestFailed, err)
	}

	records := NormalizeAll(searchResult.Data)
	return &models.SearchPage{
		Records: records,
		Page:    page,
		HasMore: searchResult.Pagination.HasNextPage && len(records) > 0,
	}, nil
}

// FetchByID fetches a single record. A 404 from the catalog maps to ErrNotFound.
func (c *Client) FetchByID(ctx context.Context, id int) (*models.AnimeRecord, error) {
	c.logger.WithField("anime_id", id).Debug("Fetching anime details...")

	detailsURL := fmt.Sprintf("%s/anime/%d", c.baseURL, id)
	cacheKey := detailsCachePrefix + strconv.Itoa(id)

	body, err := c.cachedGet(ctx, cacheKey, c.detailsTTL, detailsURL)
	if err != nil {
		return nil, err
	}

	var detail models.JikanAnimeResponse
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("%w: failed to decode details response: %v", ErrRequestFailed, err)
	}
	if detail.Data.MalId == 0 {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	rec := Normalize(detail.Data)
	return &rec, nil
}

// FetchTop returns up to limit records in catalog ranking order.
func (c *Client) FetchTop(ctx context.Context, limit int) ([]models.AnimeRecord, error) {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	if limit > maxTopLimit {
		limit = maxTopLimit
	}

	c.logger.WithField("limit", limit).Debug("Fetching top anime...")

	topURL := fmt.Sprintf("%s/top/anime?limit=%d", c.baseURL, limit)
	cacheKey := topCachePrefix + strconv.Itoa(limit)

	body, err := c.cachedGet(ctx, cacheKey, c.topTTL, topURL)
	if err != nil {
		return nil, err
	}

	var top models.JikanSearchResponse
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, fmt.Errorf("%w: failed to decode top response: %v", ErrRequestFailed, err)
	}

	records := NormalizeAll(top.Data)
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// cachedGet serves body from the response cache when possible and stores
// successful responses. Cache failures are logged and otherwise ignored.
func (c *Client) cachedGet(ctx context.Context, key string, ttl time.Duration, url string) ([]byte, error) {
	if c.cache != nil {
		cached, ok, err := c.cache.Get(ctx, key)
		switch {
		case err != nil:
			c.logger.WithError(err).WithField("key", key).Log(cacheErrorLevel(ctx), "Failed to read from response cache")
		case ok:
			c.logger.WithField("key", key).Debug("Retrieved response from cache")
			return cached, nil
		}
	}

	body, err := c.makeRequest(ctx, url)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, body, ttl); err != nil {
			c.logger.WithError(err).WithField("key", key).Log(cacheErrorLevel(ctx), "Failed to write response to cache")
		}
	}

	return body, nil
}

// cacheErrorLevel keeps cache failures caused by the caller giving up out of
// the warnings.
func cacheErrorLevel(ctx context.Context) logrus.Level {
	if ctx.Err() != nil {
		return logrus.DebugLevel
	}
	return logrus.WarnLevel
}

// makeRequest performs exactly one GET. There is no retry; the caller sees
// the first failure.
func (c *Client) makeRequest(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, c.classifyContextErr(ctx)
		}
		return nil, fmt.Errorf("%w: rate limiter: %v", ErrRequestFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrRequestFailed, err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, c.classifyContextErr(ctx)
		}
		c.logger.WithError(err).WithField("url", url).Warn("API request failed")
		return nil, fmt.Errorf("%w: failed to make HTTP request: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.logger.WithFields(logrus.Fields{
			"url":    url,
			"status": resp.StatusCode,
		}).Warn("API returned unexpected status")
		return nil, fmt.Errorf("%w: API returned status code %d", ErrRequestFailed, resp.StatusCode)
	}

	body, err := c.readRespBody(resp)
	if err != nil {
		if ctx.Err() != nil {
			return nil, c.classifyContextErr(ctx)
		}
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrRequestFailed, err)
	}

	c.logger.WithFields(logrus.Fields{
		"url":           url,
		"status":        resp.StatusCode,
		"response_size": len(body),
		"duration":      time.Since(start),
	}).Debug("API request successful")

	return body, nil
}

// classifyContextErr maps a finished context onto the error taxonomy:
// cancellation means superseded, a deadline is an ordinary failure.
func (c *Client) classifyContextErr(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ErrRequestCancelled
	}
	return fmt.Errorf("%w: %v", ErrRequestFailed, ctx.Err())
}

func (c *Client) readRespBody(resp *http.Response) ([]byte, error) {
	if resp.ContentLength > maxResponseSize {
		return nil, fmt.Errorf("response too large: %d bytes", resp.ContentLength)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxResponseSize {
		return nil, fmt.Errorf("response too large: exceeded %d bytes", maxResponseSize)
	}

	return body, nil
}
