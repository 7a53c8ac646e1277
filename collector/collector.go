// Package collector gathers the statements, prices and profile for one
// ticker and leaves raw snapshots behind for inspection.
package collector

import (
	"context"
	"fmt"

	"fundamental-analyst/models"
	"fundamental-analyst/observability"
	"fundamental-analyst/repository"
	"fundamental-analyst/services"
)

// Dataset is everything fetched for one ticker.
type Dataset struct {
	Statements *models.FinancialStatementSet
	Prices     *models.PriceSeries
	Profile    *models.CompanyProfile
	// Snapshots maps snapshot kind to the raw file written for it.
	Snapshots map[string]string
}

// Collector fetches market data through the configured providers.
type Collector struct {
	fundamentals services.FundamentalsProvider
	prices       services.PriceProvider
	snapshots    repository.SnapshotStore
	lookbackDays int
}

// New creates a Collector. prices and snapshots may be nil, in which case
// price history or raw snapshots are skipped.
func New(fundamentals services.FundamentalsProvider, prices services.PriceProvider, snapshots repository.SnapshotStore, lookbackDays int) *Collector {
	return &Collector{
		fundamentals: fundamentals,
		prices:       prices,
		snapshots:    snapshots,
		lookbackDays: lookbackDays,
	}
}

// Source returns the name of the statements provider.
func (c *Collector) Source() string {
	return c.fundamentals.Name()
}

// Fetch retrieves and normalizes the data for ticker. Statement failures
// and statement sets too thin to analyze wrap models.ErrDataUnavailable.
// Price history and profile failures are logged and tolerated.
func (c *Collector) Fetch(ctx context.Context, ticker string) (*Dataset, error) {
	ticker, err := models.NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	log := observability.WithStage(ctx, ticker, models.StageFetch)

	set, err := c.fetchStatements(ctx, ticker)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{
		Statements: set,
		Prices:     &models.PriceSeries{Ticker: ticker},
		Snapshots:  make(map[string]string),
	}

	if profile, err := c.fundamentals.GetCompanyProfile(ctx, ticker); err != nil {
		log.Warn("company profile unavailable", "error", err)
	} else if profile != nil {
		ds.Profile = profile
		if set.Currency == "" {
			set.Currency = profile.Currency
		}
	}

	if c.prices != nil {
		bars, err := c.prices.GetDailyBars(ctx, ticker, c.lookbackDays)
		if err != nil {
			log.Warn("price history unavailable", "provider", c.prices.Name(), "error", err)
		} else {
			ds.Prices.Bars = bars
			ds.Prices.Source = c.prices.Name()
		}
	}

	c.writeSnapshots(ctx, ds)

	if err := set.Validate(); err != nil {
		return nil, err
	}

	log.Info("fetched statements",
		"provider", set.Source,
		"income_periods", len(set.Income),
		"balance_periods", len(set.Balance),
		"cashflow_periods", len(set.CashFlow),
		"price_bars", len(ds.Prices.Bars))

	return ds, nil
}

func (c *Collector) fetchStatements(ctx context.Context, ticker string) (*models.FinancialStatementSet, error) {
	set := &models.FinancialStatementSet{
		Ticker: ticker,
		Source: c.fundamentals.Name(),
	}

	var err error
	if set.Income, err = c.fundamentals.GetIncomeStatements(ctx, ticker); err != nil {
		return nil, dataUnavailable(ticker, "income statement", err)
	}
	if set.Balance, err = c.fundamentals.GetBalanceSheets(ctx, ticker); err != nil {
		return nil, dataUnavailable(ticker, "balance sheet", err)
	}
	if set.CashFlow, err = c.fundamentals.GetCashFlowStatements(ctx, ticker); err != nil {
		return nil, dataUnavailable(ticker, "cash flow statement", err)
	}
	// Some providers answer an unknown ticker with empty lists and no error.
	if len(set.Income) == 0 && len(set.Balance) == 0 {
		return nil, fmt.Errorf("%w: no statements returned for %s", models.ErrDataUnavailable, ticker)
	}

	set.Sort()
	return set, nil
}

// writeSnapshots records raw data on disk. Failures are logged at WARN and
// never abort the run.
func (c *Collector) writeSnapshots(ctx context.Context, ds *Dataset) {
	if c.snapshots == nil {
		return
	}
	log := observability.WithTicker(ctx, ds.Statements.Ticker)

	paths, err := c.snapshots.WriteStatements(ds.Statements)
	for kind, path := range paths {
		ds.Snapshots[kind] = path
	}
	if err != nil {
		log.Warn("failed to write statement snapshots", "error", err)
	}

	if path, err := c.snapshots.WritePrices(ds.Prices); err != nil {
		log.Warn("failed to write price snapshot", "error", err)
	} else if path != "" {
		ds.Snapshots[repository.SnapshotPrices] = path
	}

	if path, err := c.snapshots.WriteProfile(ds.Profile); err != nil {
		log.Warn("failed to write profile snapshot", "error", err)
	} else if path != "" {
		ds.Snapshots[repository.SnapshotProfile] = path
	}
}

func dataUnavailable(ticker, what string, err error) error {
	return fmt.Errorf("%w: %s for %s: %w", models.ErrDataUnavailable, what, ticker, err)
}
