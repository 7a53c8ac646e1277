package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar represents OHLCV price data for a time period
type Bar struct {
	Symbol    string          `json:"symbol"`
	Timestamp time.Time       `json:"timestamp"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    int64           `json:"volume"`
	VWAP      decimal.Decimal `json:"vwap"`
}

// PriceSeries is the daily price history of one ticker, oldest bar first.
type PriceSeries struct {
	Ticker string `json:"ticker"`
	Source string `json:"source,omitempty"`
	Bars   []Bar  `json:"bars"`
}

// PriceSummary condenses a price series into the figures used in the memo.
type PriceSummary struct {
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`
	Bars         int       `json:"bars"`
	LatestClose  Metric    `json:"latest_close"`
	PeriodHigh   Metric    `json:"period_high"`
	PeriodLow    Metric    `json:"period_low"`
	PeriodReturn Metric    `json:"period_return"`
}

// Empty reports whether the series has no bars.
func (p *PriceSeries) Empty() bool {
	return p == nil || len(p.Bars) == 0
}

// Summary returns the price summary, or nil for an empty series.
func (p *PriceSeries) Summary() *PriceSummary {
	if p.Empty() {
		return nil
	}

	first := p.Bars[0]
	last := p.Bars[len(p.Bars)-1]
	high, low := first.High, first.Low
	for _, b := range p.Bars[1:] {
		if b.High.GreaterThan(high) {
			high = b.High
		}
		if b.Low.LessThan(low) {
			low = b.Low
		}
	}

	ret := MissingMetric()
	if !first.Close.IsZero() {
		ret = NewMetric(last.Close.Sub(first.Close).Div(first.Close).InexactFloat64())
	}

	return &PriceSummary{
		From:         first.Timestamp,
		To:           last.Timestamp,
		Bars:         len(p.Bars),
		LatestClose:  NewMetric(last.Close.InexactFloat64()),
		PeriodHigh:   NewMetric(high.InexactFloat64()),
		PeriodLow:    NewMetric(low.InexactFloat64()),
		PeriodReturn: ret,
	}
}

// CompanyProfile describes the company behind a ticker.
type CompanyProfile struct {
	Ticker      string          `json:"ticker"`
	Name        string          `json:"name"`
	Exchange    string          `json:"exchange,omitempty"`
	Currency    string          `json:"currency,omitempty"`
	Sector      string          `json:"sector,omitempty"`
	Industry    string          `json:"industry,omitempty"`
	MarketCap   decimal.Decimal `json:"market_cap"`
	Price       decimal.Decimal `json:"price"`
	Beta        float64         `json:"beta"`
	Description string          `json:"description,omitempty"`
}
