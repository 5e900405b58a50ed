package dataflows

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Toolkit is the adapter surface consumed by the analyst stage: one snapshot
// per analyst role. Every snapshot carries provenance so the audit trail
// records whether analysis ran on live data or a fallback.
type Toolkit interface {
	MarketSnapshot(ctx context.Context, symbol string, date time.Time) (*Snapshot, error)
	SentimentSnapshot(ctx context.Context, symbol string, date time.Time) (*Snapshot, error)
	NewsSnapshot(ctx context.Context, symbol string, date time.Time) (*Snapshot, error)
	FundamentalsSnapshot(ctx context.Context, symbol string, date time.Time) (*Snapshot, error)
}

// LiveToolkit fetches real data from Yahoo Finance, Finnhub and Google News.
type LiveToolkit struct {
	yahoo   *YahooClient
	finnhub *FinnhubClient
	scraper *NewsScraperClient
	logger  *zap.Logger
}

// NewLiveToolkit wires the live data adapters.
func NewLiveToolkit(finnhubAPIKey, cacheDir string, cacheEnabled bool, logger *zap.Logger) *LiveToolkit {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LiveToolkit{
		yahoo:   NewYahooClient(cacheDir, cacheEnabled),
		finnhub: NewFinnhubClient(finnhubAPIKey, cacheDir, cacheEnabled),
		scraper: NewNewsScraperClient(cacheDir, cacheEnabled),
		logger:  logger,
	}
}

// provenanceFrom reports cache provenance only when every underlying fetch
// was a cache hit; one live call makes the snapshot live.
func provenanceFrom(cacheHits ...bool) Provenance {
	for _, hit := range cacheHits {
		if !hit {
			return ProvenanceLive
		}
	}
	return ProvenanceCache
}

// MarketSnapshot renders the last 30 trading days of price action up to date.
func (tk *LiveToolkit) MarketSnapshot(ctx context.Context, symbol string, date time.Time) (*Snapshot, error) {
	bars, cached, err := tk.yahoo.GetHistory(symbol, date.AddDate(0, 0, -30), date)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Daily OHLCV for %s (%s):\n", symbol, FormatDateRange(date.AddDate(0, 0, -30), date))
	b.WriteString("date,open,high,low,close,adj_close,volume\n")
	for _, bar := range bars {
		fmt.Fprintf(&b, "%s,%s,%s,%s,%s,%s,%d\n",
			bar.Date.Format("2006-01-02"),
			bar.Open, bar.High, bar.Low, bar.Close, bar.AdjClose, bar.Volume)
	}

	return &Snapshot{Role: "market", Text: b.String(), Provenance: provenanceFrom(cached), FetchedAt: time.Now()}, nil
}

// SentimentSnapshot scrapes recent investor-sentiment coverage for symbol.
func (tk *LiveToolkit) SentimentSnapshot(ctx context.Context, symbol string, date time.Time) (*Snapshot, error) {
	articles, cached, err := tk.scraper.Search(ctx, symbol+" stock investor sentiment", 15)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Role:       "sentiment",
		Text:       formatArticles("Recent sentiment coverage for "+symbol, articles),
		Provenance: provenanceFrom(cached),
		FetchedAt:  time.Now(),
	}, nil
}

// NewsSnapshot fetches the last week of company news, preferring Finnhub and
// falling back to the Google News scraper.
func (tk *LiveToolkit) NewsSnapshot(ctx context.Context, symbol string, date time.Time) (*Snapshot, error) {
	articles, cached, err := tk.finnhub.GetCompanyNews(ctx, symbol, date.AddDate(0, 0, -7), date)
	if err != nil {
		tk.logger.Warn("finnhub news unavailable, scraping instead",
			zap.String("symbol", symbol), zap.Error(err))
		articles, cached, err = tk.scraper.Search(ctx, symbol+" stock news", 20)
		if err != nil {
			return nil, err
		}
	}
	return &Snapshot{
		Role:       "news",
		Text:       formatArticles("Company news for "+symbol, articles),
		Provenance: provenanceFrom(cached),
		FetchedAt:  time.Now(),
	}, nil
}

// FundamentalsSnapshot renders insider sentiment and transactions over the
// last quarter.
func (tk *LiveToolkit) FundamentalsSnapshot(ctx context.Context, symbol string, date time.Time) (*Snapshot, error) {
	from := date.AddDate(0, -3, 0)

	sentiments, sentimentsCached, err := tk.finnhub.GetInsiderSentiment(ctx, symbol, from, date)
	if err != nil {
		return nil, err
	}
	transactions, transactionsCached, err := tk.finnhub.GetInsiderTransactions(ctx, symbol, from, date)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Insider sentiment for %s (monthly share purchase ratio):\n", symbol)
	for _, s := range sentiments {
		fmt.Fprintf(&b, "%04d-%02d: change=%d mspr=%s\n", s.Year, s.Month, s.Change, s.MSPR)
	}
	fmt.Fprintf(&b, "\nInsider transactions for %s:\n", symbol)
	for _, t := range transactions {
		fmt.Fprintf(&b, "%s %s: change=%d @ %s (%s)\n",
			t.TransactionDate.Format("2006-01-02"), t.PersonName, t.Change, t.TransactionPrice, t.TransactionCode)
	}

	return &Snapshot{Role: "fundamentals", Text: b.String(), Provenance: provenanceFrom(sentimentsCached, transactionsCached), FetchedAt: time.Now()}, nil
}

func formatArticles(header string, articles []*NewsArticle) string {
	var b strings.Builder
	b.WriteString(header + ":\n")
	for _, a := range articles {
		fmt.Fprintf(&b, "- [%s] %s (%s)\n", a.PublishedAt.Format("2006-01-02"), a.Title, a.Source)
		if a.Content != "" {
			fmt.Fprintf(&b, "  %s\n", a.Content)
		}
	}
	return b.String()
}

// FixtureToolkit serves deterministic canned snapshots, used when online
// tools are disabled and in tests. Provenance is always recorded as
// fallback so a degraded run is distinguishable in the audit trail.
type FixtureToolkit struct{}

// NewFixtureToolkit creates an offline toolkit.
func NewFixtureToolkit() *FixtureToolkit { return &FixtureToolkit{} }

func fixtureSnapshot(role, symbol string, date time.Time, body string) *Snapshot {
	return &Snapshot{
		Role:       role,
		Text:       fmt.Sprintf("[offline fixture] %s data for %s as of %s:\n%s", role, symbol, date.Format("2006-01-02"), body),
		Provenance: ProvenanceFallback,
		FetchedAt:  time.Now(),
	}
}

func (tk *FixtureToolkit) MarketSnapshot(_ context.Context, symbol string, date time.Time) (*Snapshot, error) {
	return fixtureSnapshot("market", symbol, date,
		"close drifted up 2.1% over the window on declining volume; RSI 58, MACD flat."), nil
}

func (tk *FixtureToolkit) SentimentSnapshot(_ context.Context, symbol string, date time.Time) (*Snapshot, error) {
	return fixtureSnapshot("sentiment", symbol, date,
		"retail chatter mildly positive; mention volume down week over week."), nil
}

func (tk *FixtureToolkit) NewsSnapshot(_ context.Context, symbol string, date time.Time) (*Snapshot, error) {
	return fixtureSnapshot("news", symbol, date,
		"no major filings; two product announcements, one analyst downgrade."), nil
}

func (tk *FixtureToolkit) FundamentalsSnapshot(_ context.Context, symbol string, date time.Time) (*Snapshot, error) {
	return fixtureSnapshot("fundamentals", symbol, date,
		"insider net change +12k shares; MSPR 4.2; margins stable."), nil
}
