package news

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/phuslu/log"

	"SilverReport/internal/model"
)

// ErrMissingAPIKey is returned by Search when no Tavily key is configured.
var ErrMissingAPIKey = errors.New("tavily api key not configured")

// Options configures the Tavily collector.
type Options struct {
	APIKey      string
	BaseURL     string
	Query       string
	Days        int
	MaxResults  int
	SearchDepth string
	Proxy       string
}

// Collector searches recent news articles through the Tavily search API.
type Collector struct {
	client *resty.Client
	opts   Options
}

// NewCollector creates a Tavily news collector.
func NewCollector(opts Options) *Collector {
	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(30 * time.Second)
	if opts.Proxy != "" {
		client.SetProxy(opts.Proxy)
	}
	if opts.APIKey != "" {
		client.SetAuthToken(opts.APIKey)
	}
	return &Collector{client: client, opts: opts}
}

type searchRequest struct {
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	Topic       string `json:"topic"`
	Days        int    `json:"days"`
	MaxResults  int    `json:"max_results"`
}

type searchResponse struct {
	Results []model.NewsItem `json:"results"`
}

// Search runs one news query limited to the last days days.
func (c *Collector) Search(ctx context.Context, query string, days int) ([]model.NewsItem, error) {
	if c.opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	var out searchResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(searchRequest{
			Query:       query,
			SearchDepth: c.opts.SearchDepth,
			Topic:       "news",
			Days:        days,
			MaxResults:  c.opts.MaxResults,
		}).
		SetResult(&out).
		Post("/search")
	if err != nil {
		return nil, fmt.Errorf("tavily search: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("tavily search: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	if out.Results == nil {
		out.Results = []model.NewsItem{}
	}
	return out.Results, nil
}

// Collect runs the configured query. It never fails: a missing key or a
// failed request yields an empty slice.
func (c *Collector) Collect(ctx context.Context) []model.NewsItem {
	items, err := c.Search(ctx, c.opts.Query, c.opts.Days)
	if errors.Is(err, ErrMissingAPIKey) {
		log.Warn().Msg("TAVILY_API_KEY not set, skipping news collection")
		return []model.NewsItem{}
	}
	if err != nil {
		log.Error().Err(err).Str("query", c.opts.Query).Msg("news collection failed")
		return []model.NewsItem{}
	}
	log.Info().Int("articles", len(items)).Msg("news collected")
	return items
}
