package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rpggio/datapad/internal/domain/character"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public dataset the browser reads from.
const DefaultBaseURL = "https://akabab.github.io/starwars-api/api"

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "datapad/0.1"
	maxBodyBytes     = 4 << 20
	collectionKey    = "all"
)

// Config configures the dataset client.
type Config struct {
	BaseURL string
	// Timeout bounds a single upstream request. Zero means the default.
	Timeout time.Duration
	// RatePerSecond limits upstream requests. Zero disables limiting.
	RatePerSecond float64
	Burst         int
	UserAgent     string
	HTTPClient    *http.Client
	Logger        *slog.Logger
}

// Client reads characters from the remote JSON dataset.
type Client struct {
	baseURL   string
	timeout   time.Duration
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	group     singleflight.Group
	logger    *slog.Logger
}

// New creates a dataset client.
func New(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		baseURL:   baseURL,
		timeout:   timeout,
		userAgent: userAgent,
		http:      httpClient,
		limiter:   limiter,
		logger:    logger,
	}
}

// Fetch retrieves the record with the given identifier.
func (c *Client) Fetch(ctx context.Context, id int) (*character.Character, error) {
	url := fmt.Sprintf("%s/id/%d.json", c.baseURL, id)

	var rec character.Character
	if err := c.getJSON(ctx, url, id, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// FetchAll retrieves the whole collection. Concurrent callers share one
// upstream request; nothing is kept once it completes. The shared request
// outlives any single caller's cancellation and is bounded by the client
// timeout; each caller stops waiting when its own ctx is done.
func (c *Client) FetchAll(ctx context.Context) ([]character.Character, error) {
	url := c.baseURL + "/all.json"
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(collectionKey, func() (any, error) {
		var all []character.Character
		if err := c.getJSON(detached, url, 0, &all); err != nil {
			return nil, err
		}
		return all, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, c.fail(character.KindTransport, 0, url, ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		c.logger.Debug("shared collection fetch")
	}

	all := res.Val.([]character.Character)
	out := make([]character.Character, len(all))
	copy(out, all)
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, url string, id int, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return c.fail(character.KindTransport, id, url, fmt.Errorf("rate limit wait: %w", err))
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return c.fail(character.KindTransport, id, url, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return c.fail(character.KindTransport, id, url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500:
		return c.fail(character.KindTransport, id, url, fmt.Errorf("upstream status %d", resp.StatusCode))
	default:
		// Missing IDs come back as 404 from the static host; other 4xx are
		// treated the same way since the record cannot be obtained.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return c.fail(character.KindNotFound, id, url, fmt.Errorf("upstream status %d", resp.StatusCode))
	}

	dec := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes))
	if err := dec.Decode(out); err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return c.fail(character.KindTransport, id, url, err)
		}
		return c.fail(character.KindParse, id, url, err)
	}
	return nil
}

func (c *Client) fail(kind character.Kind, id int, url string, err error) error {
	level := slog.LevelWarn
	if kind == character.KindNotFound {
		level = slog.LevelDebug
	}
	c.logger.Log(context.Background(), level, "dataset fetch failed", "kind", kind, "id", id, "url", url, "error", err)
	return &character.FetchError{Kind: kind, ID: id, Err: err}
}
