package services

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"fundamental-analyst/models"
)

// alpacaDataClient is the subset of the Alpaca market data client used here
type alpacaDataClient interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// AlpacaService reads daily price history from Alpaca market data
type AlpacaService struct {
	dataClient alpacaDataClient
	now        func() time.Time
}

// NewAlpacaService creates a new AlpacaService instance. An empty baseURL
// selects the default data endpoint.
func NewAlpacaService(apiKey, apiSecret, baseURL string) *AlpacaService {
	dataClient := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
		BaseURL:   baseURL,
	})

	return &AlpacaService{
		dataClient: dataClient,
		now:        time.Now,
	}
}

// Name identifies the provider in artifacts and logs.
func (s *AlpacaService) Name() string {
	return "alpaca"
}

// GetBars returns historical bars for a symbol
func (s *AlpacaService) GetBars(ctx context.Context, symbol string, start, end time.Time, timeframe marketdata.TimeFrame) ([]models.Bar, error) {
	return instrumented(ctx, BreakerAlpaca, "bars", func() ([]models.Bar, error) {
		bars, err := s.dataClient.GetBars(symbol, marketdata.GetBarsRequest{
			TimeFrame: timeframe,
			Start:     start,
			End:       end,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get bars for %s: %w", symbol, err)
		}

		result := make([]models.Bar, 0, len(bars))
		for _, bar := range bars {
			result = append(result, models.Bar{
				Symbol:    symbol,
				Timestamp: bar.Timestamp,
				Open:      decimal.NewFromFloat(bar.Open),
				High:      decimal.NewFromFloat(bar.High),
				Low:       decimal.NewFromFloat(bar.Low),
				Close:     decimal.NewFromFloat(bar.Close),
				Volume:    int64(bar.Volume),
				VWAP:      decimal.NewFromFloat(bar.VWAP),
			})
		}
		sortBars(result)
		return result, nil
	})
}

// GetDailyBars returns daily bars for the last N days
func (s *AlpacaService) GetDailyBars(ctx context.Context, symbol string, days int) ([]models.Bar, error) {
	end := s.now()
	start := end.AddDate(0, 0, -days)

	return s.GetBars(ctx, symbol, start, end, marketdata.OneDay)
}
