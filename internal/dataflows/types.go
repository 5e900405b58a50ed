package dataflows

import (
	"time"

	"github.com/shopspring/decimal"
)

// Provenance declares where a snapshot's data came from, so the execution
// trace can record whether an analyst worked from live data or a fallback.
type Provenance string

const (
	ProvenanceLive     Provenance = "live"
	ProvenanceCache    Provenance = "cache"
	ProvenanceFallback Provenance = "fallback"
)

// Snapshot is the rendered external-data input handed to one analyst.
type Snapshot struct {
	Role       string     `json:"role"`
	Text       string     `json:"text"`
	Provenance Provenance `json:"provenance"`
	FetchedAt  time.Time  `json:"fetched_at"`
}

// MarketData represents one day of stock price data.
type MarketData struct {
	Symbol    string          `json:"symbol"`
	Date      time.Time       `json:"date"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	AdjClose  decimal.Decimal `json:"adj_close"`
	Volume    int64           `json:"volume"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewsArticle represents a news article from any source.
type NewsArticle struct {
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	URL         string            `json:"url"`
	Source      string            `json:"source"`
	PublishedAt time.Time         `json:"published_at"`
	Keywords    []string          `json:"keywords,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// InsiderTransaction represents a single insider trade filing.
type InsiderTransaction struct {
	Symbol           string          `json:"symbol"`
	PersonName       string          `json:"person_name"`
	Share            int64           `json:"share"`
	Change           int64           `json:"change"`
	FilingDate       time.Time       `json:"filing_date"`
	TransactionDate  time.Time       `json:"transaction_date"`
	TransactionCode  string          `json:"transaction_code"`
	TransactionPrice decimal.Decimal `json:"transaction_price"`
}

// InsiderSentiment represents aggregate monthly insider sentiment.
type InsiderSentiment struct {
	Symbol string          `json:"symbol"`
	Year   int             `json:"year"`
	Month  int             `json:"month"`
	Change int64           `json:"change"`
	MSPR   decimal.Decimal `json:"mspr"` // monthly share purchase ratio
}
