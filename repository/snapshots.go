package repository

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"fundamental-analyst/models"

	"github.com/shopspring/decimal"
)

// Snapshot keys used in AnalysisArtifact.RawSnapshots
const (
	SnapshotIncomeStatement = "income_statement"
	SnapshotBalanceSheet    = "balance_sheet"
	SnapshotCashFlow        = "cashflow"
	SnapshotPrices          = "prices"
	SnapshotProfile         = "info"
)

func (s *FileStore) snapshotPath(ticker, kind, ext string) string {
	return filepath.Join(s.rawDir, ticker+"_"+kind+ext)
}

// WriteStatements writes one CSV per statement type and returns the paths
// written, keyed by snapshot kind. Files already written are reported even
// when a later one fails.
func (s *FileStore) WriteStatements(set *models.FinancialStatementSet) (map[string]string, error) {
	if set == nil || set.Ticker == "" {
		return nil, errors.New("statement set has no ticker")
	}

	tables := []struct {
		kind string
		rows [][]string
	}{
		{SnapshotIncomeStatement, incomeRows(set.Income)},
		{SnapshotBalanceSheet, balanceRows(set.Balance)},
		{SnapshotCashFlow, cashFlowRows(set.CashFlow)},
	}

	paths := make(map[string]string, len(tables))
	var errs []error
	for _, t := range tables {
		path := s.snapshotPath(set.Ticker, t.kind, ".csv")
		if err := writeCSV(path, t.rows); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.kind, err))
			continue
		}
		paths[t.kind] = path
	}
	return paths, errors.Join(errs...)
}

// WritePrices writes the daily bars as CSV. An empty series writes nothing.
func (s *FileStore) WritePrices(series *models.PriceSeries) (string, error) {
	if series.Empty() {
		return "", nil
	}

	rows := [][]string{{"date", "open", "high", "low", "close", "volume", "vwap"}}
	for _, b := range series.Bars {
		rows = append(rows, []string{
			b.Timestamp.UTC().Format(time.DateOnly),
			b.Open.String(),
			b.High.String(),
			b.Low.String(),
			b.Close.String(),
			strconv.FormatInt(b.Volume, 10),
			b.VWAP.String(),
		})
	}

	path := s.snapshotPath(series.Ticker, SnapshotPrices, ".csv")
	if err := writeCSV(path, rows); err != nil {
		return "", fmt.Errorf("failed to write prices: %w", err)
	}
	return path, nil
}

// WriteProfile writes the company profile as JSON. A nil profile writes
// nothing.
func (s *FileStore) WriteProfile(profile *models.CompanyProfile) (string, error) {
	if profile == nil {
		return "", nil
	}
	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal profile: %w", err)
	}

	path := s.snapshotPath(profile.Ticker, SnapshotProfile, ".json")
	if err := writeFileAtomic(path, append(data, '\n')); err != nil {
		return "", fmt.Errorf("failed to write profile: %w", err)
	}
	return path, nil
}

func incomeRows(statements []models.IncomeStatement) [][]string {
	rows := [][]string{{"fiscal_year", "period_end", "revenue", "net_income", "shares_outstanding"}}
	for _, st := range statements {
		rows = append(rows, []string{
			strconv.Itoa(st.FiscalYear),
			st.PeriodEnd.Format(time.DateOnly),
			nullCell(st.Revenue),
			nullCell(st.NetIncome),
			nullCell(st.SharesOutstanding),
		})
	}
	return rows
}

func balanceRows(statements []models.BalanceSheet) [][]string {
	rows := [][]string{{"fiscal_year", "period_end", "total_assets", "total_equity", "total_debt", "cash"}}
	for _, st := range statements {
		rows = append(rows, []string{
			strconv.Itoa(st.FiscalYear),
			st.PeriodEnd.Format(time.DateOnly),
			nullCell(st.TotalAssets),
			nullCell(st.TotalEquity),
			nullCell(st.TotalDebt),
			nullCell(st.Cash),
		})
	}
	return rows
}

func cashFlowRows(statements []models.CashFlowStatement) [][]string {
	rows := [][]string{{"fiscal_year", "period_end", "operating_cash_flow", "capital_expenditure", "free_cash_flow"}}
	for _, st := range statements {
		rows = append(rows, []string{
			strconv.Itoa(st.FiscalYear),
			st.PeriodEnd.Format(time.DateOnly),
			nullCell(st.OperatingCashFlow),
			nullCell(st.CapitalExpenditure),
			nullCell(st.FreeCashFlow),
		})
	}
	return rows
}

// nullCell renders an absent line item as an empty cell.
func nullCell(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func writeCSV(path string, rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return writeFileAtomic(path, buf.Bytes())
}
