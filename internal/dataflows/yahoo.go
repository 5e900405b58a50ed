package dataflows

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"
)

// YahooClient handles Yahoo Finance data operations.
type YahooClient struct {
	cache *CacheManager
}

// NewYahooClient creates a new Yahoo Finance client.
func NewYahooClient(cacheDir string, cacheEnabled bool) *YahooClient {
	cache := NewCacheManager(filepath.Join(cacheDir, "yahoo"), 24*time.Hour, cacheEnabled)
	return &YahooClient{cache: cache}
}

// GetQuote gets the current quote for a symbol. fromCache reports that the
// data was served from the local cache rather than fetched live.
func (yc *YahooClient) GetQuote(symbol string) (_ *MarketData, fromCache bool, _ error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, false, err
	}
	symbol = NormalizeSymbol(symbol)

	var cached MarketData
	if yc.cache.Get("yahoo", "quote", symbol, &cached) {
		return &cached, true, nil
	}

	var result *MarketData
	err := WithRetry(DefaultRetryConfig(), func() error {
		q, err := quote.Get(symbol)
		if err != nil {
			return fmt.Errorf("failed to get quote for %s: %w", symbol, err)
		}
		result = &MarketData{
			Symbol:    symbol,
			Date:      time.Now(),
			Open:      decimal.NewFromFloat(q.RegularMarketOpen),
			High:      decimal.NewFromFloat(q.RegularMarketDayHigh),
			Low:       decimal.NewFromFloat(q.RegularMarketDayLow),
			Close:     decimal.NewFromFloat(q.RegularMarketPrice),
			AdjClose:  decimal.NewFromFloat(q.RegularMarketPrice),
			Volume:    int64(q.RegularMarketVolume),
			Timestamp: time.Now(),
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	yc.cache.Set("yahoo", "quote", symbol, result)
	return result, false, nil
}

// GetHistory gets daily bars for a symbol between start and end. fromCache
// reports that the data was served from the local cache.
func (yc *YahooClient) GetHistory(symbol string, start, end time.Time) (_ []*MarketData, fromCache bool, _ error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, false, err
	}
	symbol = NormalizeSymbol(symbol)

	cacheKey := map[string]interface{}{
		"symbol": symbol,
		"start":  start.Format("2006-01-02"),
		"end":    end.Format("2006-01-02"),
	}
	var cached []*MarketData
	if yc.cache.Get("yahoo", "history", cacheKey, &cached) {
		return cached, true, nil
	}

	var result []*MarketData
	err := WithRetry(DefaultRetryConfig(), func() error {
		params := &chart.Params{
			Symbol:   symbol,
			Start:    datetime.New(&start),
			End:      datetime.New(&end),
			Interval: datetime.OneDay,
		}
		iter := chart.Get(params)

		result = result[:0]
		for iter.Next() {
			bar := iter.Bar()
			result = append(result, &MarketData{
				Symbol:    symbol,
				Date:      time.Unix(int64(bar.Timestamp), 0),
				Open:      bar.Open,
				High:      bar.High,
				Low:       bar.Low,
				Close:     bar.Close,
				AdjClose:  bar.AdjClose,
				Volume:    int64(bar.Volume),
				Timestamp: time.Now(),
			})
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("failed to get history for %s (%s): %w",
				symbol, FormatDateRange(start, end), err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	yc.cache.Set("yahoo", "history", cacheKey, result)
	return result, false, nil
}
