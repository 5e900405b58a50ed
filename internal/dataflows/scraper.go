package dataflows

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// NewsScraperClient scrapes Google News search results for queries the
// structured APIs don't cover, e.g. investor-sentiment discussion.
type NewsScraperClient struct {
	client *resty.Client
	cache  *CacheManager
}

// NewNewsScraperClient creates a new news scraper client.
func NewNewsScraperClient(cacheDir string, cacheEnabled bool) *NewsScraperClient {
	cache := NewCacheManager(filepath.Join(cacheDir, "news_scraper"), 2*time.Hour, cacheEnabled)

	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0 (compatible; tradecouncil/1.0)")

	return &NewsScraperClient{client: client, cache: cache}
}

// Search scrapes Google News for articles matching query, newest first.
// fromCache reports that the results were served from the local cache.
func (ns *NewsScraperClient) Search(ctx context.Context, query string, maxResults int) (_ []*NewsArticle, fromCache bool, _ error) {
	if strings.TrimSpace(query) == "" {
		return nil, false, fmt.Errorf("search query cannot be empty")
	}
	if maxResults <= 0 {
		maxResults = 20
	}

	cacheKey := map[string]interface{}{"query": query, "max": maxResults}
	var cached []*NewsArticle
	if ns.cache.Get("google_news", "search", cacheKey, &cached) {
		return cached, true, nil
	}

	searchURL := fmt.Sprintf("https://news.google.com/search?q=%s&hl=en-US&gl=US&ceid=US:en",
		url.QueryEscape(query))

	var result []*NewsArticle
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := ns.client.R().SetContext(ctx).Get(searchURL)
		if err != nil {
			return fmt.Errorf("failed to fetch Google News: %w", err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("HTTP error %d when fetching Google News", resp.StatusCode())
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
		if err != nil {
			return fmt.Errorf("failed to parse HTML: %w", err)
		}

		result = parseGoogleNews(doc, query)
		if len(result) > maxResults {
			result = result[:maxResults]
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	ns.cache.Set("google_news", "search", cacheKey, result)
	return result, false, nil
}

func parseGoogleNews(doc *goquery.Document, query string) []*NewsArticle {
	var articles []*NewsArticle

	doc.Find("article").Each(func(_ int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Find("h3, h4").First().Text())
		if title == "" {
			return
		}

		href, _ := s.Find("a").First().Attr("href")
		if strings.HasPrefix(href, "./") {
			href = "https://news.google.com/" + strings.TrimPrefix(href, "./")
		}

		source := strings.TrimSpace(s.Find("div[data-n-tid] span, .vr1PYe").First().Text())

		published := time.Now()
		if dt, ok := s.Find("time").First().Attr("datetime"); ok {
			if parsed, err := time.Parse(time.RFC3339, dt); err == nil {
				published = parsed
			}
		}

		articles = append(articles, &NewsArticle{
			Title:       title,
			URL:         href,
			Source:      source,
			PublishedAt: published,
			Keywords:    []string{query},
		})
	})

	return articles
}
