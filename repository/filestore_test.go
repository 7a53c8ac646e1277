package repository

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fundamental-analyst/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newTestArtifact(ticker string) *models.AnalysisArtifact {
	a := models.NewAnalysisArtifact(uuid.New(), ticker)
	a.Source = "fmp"
	a.Ratios = &models.RatioReport{
		Ticker:           ticker,
		Period:           2023,
		PriorPeriod:      2022,
		NetProfitMargin:  models.NewMetric(0.25),
		DebtToEquity:     models.MissingMetric(),
		RevenueGrowthYoY: models.NewMetric(0.1),
	}
	a.Valuation = &models.ValuationResult{
		BaseFreeCashFlow: 1000,
		GrowthRate:       0.05,
		DiscountRate:     0.10,
		ProjectionYears:  2,
		EnterpriseValue:  21956.47,
		EquityValue:      models.MissingMetric(),
	}
	return a
}

func TestFileStore_ArtifactRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "outputs"), filepath.Join(dir, "raw"))

	artifact := newTestArtifact("AAPL")
	path, err := store.SaveArtifact(artifact)
	if err != nil {
		t.Fatalf("SaveArtifact failed: %v", err)
	}
	if path != filepath.Join(dir, "outputs", "AAPL_analysis.json") {
		t.Errorf("unexpected artifact path %s", path)
	}

	loaded, err := store.LoadArtifact("AAPL")
	if err != nil {
		t.Fatalf("LoadArtifact failed: %v", err)
	}
	if loaded.RunID != artifact.RunID {
		t.Errorf("run ID = %s, want %s", loaded.RunID, artifact.RunID)
	}
	if loaded.Ratios.NetProfitMargin != models.NewMetric(0.25) {
		t.Errorf("net profit margin = %v, want 0.25", loaded.Ratios.NetProfitMargin)
	}
	if loaded.Ratios.DebtToEquity.Valid {
		t.Error("missing metric should stay missing after a round trip")
	}
	if loaded.Valuation.EnterpriseValue != 21956.47 {
		t.Errorf("enterprise value = %v, want 21956.47", loaded.Valuation.EnterpriseValue)
	}
}

func TestFileStore_ArtifactMissingMetricIsNull(t *testing.T) {
	store := NewFileStore(t.TempDir(), t.TempDir())

	path, err := store.SaveArtifact(newTestArtifact("MSFT"))
	if err != nil {
		t.Fatalf("SaveArtifact failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"debt_to_equity": null`) {
		t.Errorf("expected missing ratio serialized as null:\n%s", data)
	}
	if strings.Contains(string(data), "NaN") || strings.Contains(string(data), "Inf") {
		t.Error("artifact must not contain non-finite numbers")
	}
}

func TestFileStore_LoadArtifact_NotFound(t *testing.T) {
	store := NewFileStore(t.TempDir(), t.TempDir())

	_, err := store.LoadArtifact("NOPE")
	if !errors.Is(err, models.ErrArtifactNotFound) {
		t.Errorf("expected ErrArtifactNotFound, got %v", err)
	}
}

func TestFileStore_LoadArtifact_Corrupt(t *testing.T) {
	store := NewFileStore(t.TempDir(), t.TempDir())
	if err := os.WriteFile(store.ArtifactPath("BAD"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := store.LoadArtifact("BAD")
	if err == nil {
		t.Fatal("expected decode error")
	}
	if errors.Is(err, models.ErrArtifactNotFound) {
		t.Error("corrupt artifact is not a missing artifact")
	}
}

func TestFileStore_SaveMemo(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nested", "outputs"), t.TempDir())

	memo := &models.InvestmentMemo{
		Ticker:              "AAPL",
		ExecutiveSummary:    "Strong franchise.",
		InvestmentThesis:    "Services growth.",
		FinancialAnalysis:   "Margins expanding.",
		ValuationAssessment: "Fairly valued.",
		KeyRisks:            "Regulation.",
		Recommendation:      "Accumulate on weakness.",
		Rating:              models.RecommendationActionHold,
		GeneratedAt:         time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	path, err := store.SaveMemo(memo)
	if err != nil {
		t.Fatalf("SaveMemo failed: %v", err)
	}
	if filepath.Base(path) != "AAPL_investment_memo.md" {
		t.Errorf("unexpected memo file %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range models.MemoSections {
		if !strings.Contains(string(data), "## "+string(s)) {
			t.Errorf("memo missing section %q", s)
		}
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected only the memo in the output dir, found %d entries", len(entries))
	}
}

func TestFileStore_RemoveMemo(t *testing.T) {
	store := NewFileStore(t.TempDir(), t.TempDir())

	if err := store.RemoveMemo("AAPL"); err != nil {
		t.Errorf("removing a missing memo should succeed, got %v", err)
	}

	path, err := store.SaveMemo(&models.InvestmentMemo{Ticker: "AAPL", Rating: models.RecommendationActionBuy})
	if err != nil {
		t.Fatalf("SaveMemo failed: %v", err)
	}
	if err := store.RemoveMemo("AAPL"); err != nil {
		t.Fatalf("RemoveMemo failed: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("memo should be gone, stat returned %v", err)
	}
}

func TestFileStore_SaveRejectsMissingTicker(t *testing.T) {
	store := NewFileStore(t.TempDir(), t.TempDir())

	if _, err := store.SaveArtifact(&models.AnalysisArtifact{}); err == nil {
		t.Error("expected error for artifact without ticker")
	}
	if _, err := store.SaveMemo(&models.InvestmentMemo{}); err == nil {
		t.Error("expected error for memo without ticker")
	}
}

func TestFileStore_WriteStatements(t *testing.T) {
	rawDir := filepath.Join(t.TempDir(), "raw")
	store := NewFileStore(t.TempDir(), rawDir)

	set := &models.FinancialStatementSet{
		Ticker: "AAPL",
		Income: []models.IncomeStatement{
			{
				FiscalYear: 2023,
				PeriodEnd:  time.Date(2023, 9, 30, 0, 0, 0, 0, time.UTC),
				Revenue:    decimal.NewNullDecimal(decimal.NewFromInt(383285)),
				NetIncome:  decimal.NewNullDecimal(decimal.NewFromInt(96995)),
			},
		},
		Balance: []models.BalanceSheet{
			{FiscalYear: 2023, PeriodEnd: time.Date(2023, 9, 30, 0, 0, 0, 0, time.UTC)},
		},
	}

	paths, err := store.WriteStatements(set)
	if err != nil {
		t.Fatalf("WriteStatements failed: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("expected 3 snapshot files, got %d", len(paths))
	}
	if paths[SnapshotCashFlow] != filepath.Join(rawDir, "AAPL_cashflow.csv") {
		t.Errorf("unexpected cash flow path %s", paths[SnapshotCashFlow])
	}

	f, err := os.Open(paths[SnapshotIncomeStatement])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("income snapshot is not valid CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header plus 1 row, got %d", len(records))
	}
	want := []string{"2023", "2023-09-30", "383285", "96995", ""}
	for i, cell := range want {
		if records[1][i] != cell {
			t.Errorf("column %s = %q, want %q", records[0][i], records[1][i], cell)
		}
	}
}

func TestFileStore_WriteStatements_UnwritableDir(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "raw")
	if err := os.WriteFile(blocker, []byte("file, not a dir"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := NewFileStore(dir, blocker)

	paths, err := store.WriteStatements(&models.FinancialStatementSet{Ticker: "AAPL"})
	if err == nil {
		t.Fatal("expected error when the raw dir is a file")
	}
	if len(paths) != 0 {
		t.Errorf("expected no paths, got %v", paths)
	}
}

func TestFileStore_WritePricesAndProfile(t *testing.T) {
	rawDir := t.TempDir()
	store := NewFileStore(t.TempDir(), rawDir)

	series := &models.PriceSeries{
		Ticker: "AAPL",
		Bars: []models.Bar{
			{
				Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
				Open:      decimal.NewFromFloat(187.15),
				High:      decimal.NewFromFloat(188.44),
				Low:       decimal.NewFromFloat(183.89),
				Close:     decimal.NewFromFloat(185.64),
				Volume:    82488700,
			},
		},
	}
	path, err := store.WritePrices(series)
	if err != nil {
		t.Fatalf("WritePrices failed: %v", err)
	}
	if filepath.Base(path) != "AAPL_prices.csv" {
		t.Errorf("unexpected prices file %s", path)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "2024-01-02,187.15,188.44,183.89,185.64,82488700,0") {
		t.Errorf("unexpected prices CSV:\n%s", data)
	}

	if path, err := store.WritePrices(&models.PriceSeries{Ticker: "AAPL"}); err != nil || path != "" {
		t.Errorf("empty series should write nothing, got %q, %v", path, err)
	}

	path, err = store.WriteProfile(&models.CompanyProfile{Ticker: "AAPL", Name: "Apple Inc."})
	if err != nil {
		t.Fatalf("WriteProfile failed: %v", err)
	}
	if filepath.Base(path) != "AAPL_info.json" {
		t.Errorf("unexpected profile file %s", path)
	}

	if path, err := store.WriteProfile(nil); err != nil || path != "" {
		t.Errorf("nil profile should write nothing, got %q, %v", path, err)
	}
}
