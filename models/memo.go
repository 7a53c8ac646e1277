package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type RecommendationAction string

const (
	RecommendationActionBuy  RecommendationAction = "Buy"
	RecommendationActionHold RecommendationAction = "Hold"
	RecommendationActionSell RecommendationAction = "Sell"
)

// ParseRecommendationAction maps case-insensitive buy/hold/sell to an action.
func ParseRecommendationAction(s string) (RecommendationAction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return RecommendationActionBuy, true
	case "hold":
		return RecommendationActionHold, true
	case "sell":
		return RecommendationActionSell, true
	}
	return "", false
}

type Conviction string

const (
	ConvictionHigh   Conviction = "High"
	ConvictionMedium Conviction = "Medium"
	ConvictionLow    Conviction = "Low"
)

// MemoSection names one of the fixed memo sections.
type MemoSection string

const (
	SectionExecutiveSummary    MemoSection = "Executive Summary"
	SectionInvestmentThesis    MemoSection = "Investment Thesis"
	SectionFinancialAnalysis   MemoSection = "Financial Analysis"
	SectionValuationAssessment MemoSection = "Valuation Assessment"
	SectionKeyRisks            MemoSection = "Key Risks"
	SectionRecommendation      MemoSection = "Recommendation"
)

// MemoSections lists the memo sections in document order.
var MemoSections = []MemoSection{
	SectionExecutiveSummary,
	SectionInvestmentThesis,
	SectionFinancialAnalysis,
	SectionValuationAssessment,
	SectionKeyRisks,
	SectionRecommendation,
}

// InvestmentMemo is a parsed language-model memo. It is only built when all
// six sections and a single rating were found.
type InvestmentMemo struct {
	RunID               uuid.UUID            `json:"run_id"`
	Ticker              string               `json:"ticker"`
	ExecutiveSummary    string               `json:"executive_summary"`
	InvestmentThesis    string               `json:"investment_thesis"`
	FinancialAnalysis   string               `json:"financial_analysis"`
	ValuationAssessment string               `json:"valuation_assessment"`
	KeyRisks            string               `json:"key_risks"`
	Recommendation      string               `json:"recommendation"`
	Rating              RecommendationAction `json:"rating"`
	Conviction          Conviction           `json:"conviction,omitempty"`
	Model               string               `json:"model,omitempty"`
	GeneratedAt         time.Time            `json:"generated_at"`
}

// Section returns the body of the named section.
func (m *InvestmentMemo) Section(s MemoSection) string {
	switch s {
	case SectionExecutiveSummary:
		return m.ExecutiveSummary
	case SectionInvestmentThesis:
		return m.InvestmentThesis
	case SectionFinancialAnalysis:
		return m.FinancialAnalysis
	case SectionValuationAssessment:
		return m.ValuationAssessment
	case SectionKeyRisks:
		return m.KeyRisks
	case SectionRecommendation:
		return m.Recommendation
	}
	return ""
}

// SetSection stores body under the named section.
func (m *InvestmentMemo) SetSection(s MemoSection, body string) {
	switch s {
	case SectionExecutiveSummary:
		m.ExecutiveSummary = body
	case SectionInvestmentThesis:
		m.InvestmentThesis = body
	case SectionFinancialAnalysis:
		m.FinancialAnalysis = body
	case SectionValuationAssessment:
		m.ValuationAssessment = body
	case SectionKeyRisks:
		m.KeyRisks = body
	case SectionRecommendation:
		m.Recommendation = body
	}
}

// Markdown renders the memo with the six fixed section headers.
func (m *InvestmentMemo) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Investment Memo: %s\n\n", m.Ticker)
	fmt.Fprintf(&b, "**Rating:** %s", m.Rating)
	if m.Conviction != "" {
		fmt.Fprintf(&b, " (%s conviction)", m.Conviction)
	}
	b.WriteString("\n\n")
	if !m.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "_Generated %s", m.GeneratedAt.UTC().Format(time.RFC3339))
		if m.Model != "" {
			fmt.Fprintf(&b, " by %s", m.Model)
		}
		b.WriteString("_\n\n")
	}
	for _, s := range MemoSections {
		heading := string(s)
		if s == SectionRecommendation {
			heading = fmt.Sprintf("%s: %s", s, m.Rating)
		}
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", heading, strings.TrimSpace(m.Section(s)))
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}
