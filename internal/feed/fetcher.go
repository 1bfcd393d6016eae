// Package feed downloads the news aggregator's search feed for a keyword.
package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/mmcdole/gofeed"

	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/config"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/logger"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/models"
)

// ErrFetch wraps every failure to obtain or parse the feed.
var ErrFetch = errors.New("feed fetch failed")

// Fetcher performs one GET per search against the aggregator.
type Fetcher struct {
	client *resty.Client
	cfg    config.Feed
	log    *slog.Logger
}

// New builds a Fetcher from the feed settings.
func New(cfg config.Feed, log *slog.Logger) *Fetcher {
	if log == nil {
		log = logger.Discard()
	}
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}
	return &Fetcher{client: client, cfg: cfg, log: log}
}

// BuildURL returns the search feed URL for query.
func (f *Fetcher) BuildURL(query string) string {
	return BuildURL(f.cfg, query)
}

// BuildURL assembles <base>?q=..&hl=..&gl=..&ceid=.. with spaces as %20.
// The edition is appended verbatim so its colon survives.
func BuildURL(cfg config.Feed, query string) string {
	var b strings.Builder
	b.WriteString(cfg.BaseURL)
	if strings.Contains(cfg.BaseURL, "?") {
		b.WriteByte('&')
	} else {
		b.WriteByte('?')
	}
	b.WriteString("q=")
	b.WriteString(escape(query))
	if cfg.Language != "" {
		b.WriteString("&hl=" + escape(cfg.Language))
	}
	if cfg.Region != "" {
		b.WriteString("&gl=" + escape(cfg.Region))
	}
	if cfg.Edition != "" {
		b.WriteString("&ceid=" + cfg.Edition)
	}
	return b.String()
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Fetch downloads and parses the feed for query. An empty feed yields an
// empty slice and no error.
func (f *Fetcher) Fetch(ctx context.Context, query string) ([]models.NewsEntry, error) {
	target := f.BuildURL(query)

	resp, err := f.client.R().SetContext(ctx).Get(target)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrFetch, f.cfg.BaseURL, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode())
	}

	entries, err := Parse(resp.Body())
	if err != nil {
		return nil, err
	}

	f.log.Debug("feed fetched",
		slog.String("query", query),
		slog.Int("items", len(entries)),
	)
	return entries, nil
}

// Parse converts an RSS or Atom document into entries, preserving order.
func Parse(body []byte) ([]models.NewsEntry, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrFetch)
	}
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse: %v", ErrFetch, err)
	}

	entries := make([]models.NewsEntry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, toEntry(item))
	}
	return entries, nil
}

func toEntry(item *gofeed.Item) models.NewsEntry {
	summary := item.Description
	if strings.TrimSpace(summary) == "" {
		summary = item.Content
	}
	published := item.Published
	if published == "" {
		published = item.Updated
	}
	link := item.Link
	if link == "" && len(item.Links) > 0 {
		link = item.Links[0]
	}
	return models.NewsEntry{
		Title:       strings.TrimSpace(item.Title),
		PublishedAt: published,
		Summary:     summary,
		Link:        link,
	}
}
