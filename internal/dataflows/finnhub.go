package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// FinnhubClient handles Finnhub API operations: company news and insider
// activity.
type FinnhubClient struct {
	client *resty.Client
	cache  *CacheManager
	apiKey string
}

// NewFinnhubClient creates a new Finnhub client.
func NewFinnhubClient(apiKey, cacheDir string, cacheEnabled bool) *FinnhubClient {
	cache := NewCacheManager(filepath.Join(cacheDir, "finnhub"), 6*time.Hour, cacheEnabled)

	client := resty.New()
	client.SetBaseURL("https://finnhub.io/api/v1")
	client.SetTimeout(30 * time.Second)

	return &FinnhubClient{client: client, cache: cache, apiKey: apiKey}
}

type finnhubNews struct {
	Category string `json:"category"`
	DateTime int64  `json:"datetime"`
	Headline string `json:"headline"`
	ID       int64  `json:"id"`
	Related  string `json:"related"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

// GetCompanyNews gets news articles for a company in a date range.
// fromCache reports that the data was served from the local cache.
func (fc *FinnhubClient) GetCompanyNews(ctx context.Context, symbol string, from, to time.Time) (_ []*NewsArticle, fromCache bool, _ error) {
	if fc.apiKey == "" {
		return nil, false, fmt.Errorf("finnhub API key not configured")
	}
	if err := ValidateSymbol(symbol); err != nil {
		return nil, false, err
	}
	symbol = NormalizeSymbol(symbol)

	cacheKey := map[string]interface{}{
		"symbol": symbol,
		"from":   from.Format("2006-01-02"),
		"to":     to.Format("2006-01-02"),
	}
	var cached []*NewsArticle
	if fc.cache.Get("finnhub", "company_news", cacheKey, &cached) {
		return cached, true, nil
	}

	var result []*NewsArticle
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := fc.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"symbol": symbol,
				"from":   from.Format("2006-01-02"),
				"to":     to.Format("2006-01-02"),
				"token":  fc.apiKey,
			}).
			Get("/company-news")
		if err != nil {
			return fmt.Errorf("failed to fetch news for %s: %w", symbol, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("API error %d: %s", resp.StatusCode(), resp.String())
		}

		var items []finnhubNews
		if err := json.Unmarshal(resp.Body(), &items); err != nil {
			return fmt.Errorf("failed to parse news response: %w", err)
		}

		result = make([]*NewsArticle, 0, len(items))
		for _, item := range items {
			result = append(result, &NewsArticle{
				Title:       item.Headline,
				Content:     item.Summary,
				URL:         item.URL,
				Source:      item.Source,
				PublishedAt: time.Unix(item.DateTime, 0),
				Keywords:    []string{symbol},
				Metadata: map[string]string{
					"category": item.Category,
					"related":  item.Related,
					"id":       strconv.FormatInt(item.ID, 10),
				},
			})
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	fc.cache.Set("finnhub", "company_news", cacheKey, result)
	return result, false, nil
}

type finnhubInsiderSentiment struct {
	Data []struct {
		Symbol string  `json:"symbol"`
		Year   int     `json:"year"`
		Month  int     `json:"month"`
		Change int64   `json:"change"`
		MSPR   float64 `json:"mspr"`
	} `json:"data"`
}

// GetInsiderSentiment gets aggregate monthly insider sentiment for a company.
// fromCache reports that the data was served from the local cache.
func (fc *FinnhubClient) GetInsiderSentiment(ctx context.Context, symbol string, from, to time.Time) (_ []*InsiderSentiment, fromCache bool, _ error) {
	if fc.apiKey == "" {
		return nil, false, fmt.Errorf("finnhub API key not configured")
	}
	if err := ValidateSymbol(symbol); err != nil {
		return nil, false, err
	}
	symbol = NormalizeSymbol(symbol)

	cacheKey := map[string]interface{}{
		"symbol": symbol,
		"from":   from.Format("2006-01-02"),
		"to":     to.Format("2006-01-02"),
	}
	var cached []*InsiderSentiment
	if fc.cache.Get("finnhub", "insider_sentiment", cacheKey, &cached) {
		return cached, true, nil
	}

	var result []*InsiderSentiment
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := fc.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"symbol": symbol,
				"from":   from.Format("2006-01-02"),
				"to":     to.Format("2006-01-02"),
				"token":  fc.apiKey,
			}).
			Get("/stock/insider-sentiment")
		if err != nil {
			return fmt.Errorf("failed to fetch insider sentiment for %s: %w", symbol, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("API error %d: %s", resp.StatusCode(), resp.String())
		}

		var parsed finnhubInsiderSentiment
		if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
			return fmt.Errorf("failed to parse insider sentiment response: %w", err)
		}

		result = make([]*InsiderSentiment, 0, len(parsed.Data))
		for _, item := range parsed.Data {
			result = append(result, &InsiderSentiment{
				Symbol: item.Symbol,
				Year:   item.Year,
				Month:  item.Month,
				Change: item.Change,
				MSPR:   decimal.NewFromFloat(item.MSPR),
			})
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	fc.cache.Set("finnhub", "insider_sentiment", cacheKey, result)
	return result, false, nil
}

type finnhubInsiderTransactions struct {
	Data []struct {
		Name             string  `json:"name"`
		Share            int64   `json:"share"`
		Change           int64   `json:"change"`
		FilingDate       string  `json:"filingDate"`
		TransactionDate  string  `json:"transactionDate"`
		TransactionCode  string  `json:"transactionCode"`
		TransactionPrice float64 `json:"transactionPrice"`
	} `json:"data"`
}

// GetInsiderTransactions gets individual insider trade filings for a company.
// fromCache reports that the data was served from the local cache.
func (fc *FinnhubClient) GetInsiderTransactions(ctx context.Context, symbol string, from, to time.Time) (_ []*InsiderTransaction, fromCache bool, _ error) {
	if fc.apiKey == "" {
		return nil, false, fmt.Errorf("finnhub API key not configured")
	}
	if err := ValidateSymbol(symbol); err != nil {
		return nil, false, err
	}
	symbol = NormalizeSymbol(symbol)

	cacheKey := map[string]interface{}{
		"symbol": symbol,
		"from":   from.Format("2006-01-02"),
		"to":     to.Format("2006-01-02"),
	}
	var cached []*InsiderTransaction
	if fc.cache.Get("finnhub", "insider_transactions", cacheKey, &cached) {
		return cached, true, nil
	}

	var result []*InsiderTransaction
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := fc.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"symbol": symbol,
				"from":   from.Format("2006-01-02"),
				"to":     to.Format("2006-01-02"),
				"token":  fc.apiKey,
			}).
			Get("/stock/insider-transactions")
		if err != nil {
			return fmt.Errorf("failed to fetch insider transactions for %s: %w", symbol, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("API error %d: %s", resp.StatusCode(), resp.String())
		}

		var parsed finnhubInsiderTransactions
		if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
			return fmt.Errorf("failed to parse insider transactions response: %w", err)
		}

		result = make([]*InsiderTransaction, 0, len(parsed.Data))
		for _, item := range parsed.Data {
			filing, _ := time.Parse("2006-01-02", item.FilingDate)
			txDate, _ := time.Parse("2006-01-02", item.TransactionDate)
			result = append(result, &InsiderTransaction{
				Symbol:           symbol,
				PersonName:       item.Name,
				Share:            item.Share,
				Change:           item.Change,
				FilingDate:       filing,
				TransactionDate:  txDate,
				TransactionCode:  item.TransactionCode,
				TransactionPrice: decimal.NewFromFloat(item.TransactionPrice),
			})
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	fc.cache.Set("finnhub", "insider_transactions", cacheKey, result)
	return result, false, nil
}
