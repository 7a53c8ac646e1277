package models

import (
	"strings"
	"testing"
	"time"
)

func TestParseRecommendationAction(t *testing.T) {
	tests := []struct {
		in     string
		want   RecommendationAction
		wantOK bool
	}{
		{"Buy", RecommendationActionBuy, true},
		{"  hold ", RecommendationActionHold, true},
		{"SELL", RecommendationActionSell, true},
		{"strong buy", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseRecommendationAction(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseRecommendationAction(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestInvestmentMemo_SetSection(t *testing.T) {
	memo := &InvestmentMemo{}
	for i, s := range MemoSections {
		memo.SetSection(s, strings.Repeat("x", i+1))
	}
	for i, s := range MemoSections {
		if got := memo.Section(s); len(got) != i+1 {
			t.Errorf("Section(%q) = %q, want %d characters", s, got, i+1)
		}
	}
}

func TestInvestmentMemo_Markdown(t *testing.T) {
	memo := &InvestmentMemo{
		Ticker:              "AAPL",
		ExecutiveSummary:    "Solid franchise.",
		InvestmentThesis:    "Services growth.",
		FinancialAnalysis:   "Margins of 25%.",
		ValuationAssessment: "Fairly valued.",
		KeyRisks:            "Regulation.",
		Recommendation:      "Hold with medium conviction.",
		Rating:              RecommendationActionHold,
		Conviction:          ConvictionMedium,
		Model:               "gpt-4o-mini",
		GeneratedAt:         time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	md := memo.Markdown()

	headers := []string{
		"## Executive Summary",
		"## Investment Thesis",
		"## Financial Analysis",
		"## Valuation Assessment",
		"## Key Risks",
		"## Recommendation: Hold",
	}
	last := -1
	for _, h := range headers {
		idx := strings.Index(md, h)
		if idx < 0 {
			t.Fatalf("markdown missing header %q:\n%s", h, md)
		}
		if idx <= last {
			t.Errorf("header %q out of order", h)
		}
		last = idx
	}
	if !strings.Contains(md, "**Rating:** Hold (Medium conviction)") {
		t.Errorf("markdown missing rating line:\n%s", md)
	}
	if !strings.HasSuffix(md, "Hold with medium conviction.\n") {
		t.Errorf("markdown should end with the recommendation body, got:\n%s", md)
	}
}
