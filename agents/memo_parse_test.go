package agents

import (
	"errors"
	"strings"
	"testing"

	"fundamental-analyst/models"
)

func TestParseMarkdownMemo(t *testing.T) {
	memo, err := parseMarkdownMemo(validMarkdownMemo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if memo.Rating != models.RecommendationActionHold {
		t.Errorf("rating = %s, want Hold", memo.Rating)
	}
	if memo.Conviction != models.ConvictionMedium {
		t.Errorf("conviction = %s, want Medium", memo.Conviction)
	}
	if memo.ExecutiveSummary != "Apple remains a high-quality compounder." {
		t.Errorf("unexpected executive summary %q", memo.ExecutiveSummary)
	}
	if !strings.Contains(memo.InvestmentThesis, "### Value drivers") {
		t.Error("sub-headings should stay inside their section")
	}
	if strings.Contains(memo.InvestmentThesis, "Financial Analysis") {
		t.Error("section body leaked into the next section")
	}
	if !strings.HasPrefix(memo.Recommendation, "Rating: Hold") {
		t.Errorf("unexpected recommendation %q", memo.Recommendation)
	}
}

func TestParseMarkdownMemo_Variants(t *testing.T) {
	tests := []struct {
		name       string
		response   string
		wantRating models.RecommendationAction
		wantConv   models.Conviction
	}{
		{
			name: "numbered headings and rating in heading",
			response: `## 1. Executive Summary
Summary.
## 2. Investment Thesis
Thesis.
## 3. Financial Analysis
Numbers.
## 4. Valuation
Cheap.
## 5. Key Risks
Risks.
## 6. Recommendation: BUY
High conviction on services.`,
			wantRating: models.RecommendationActionBuy,
			wantConv:   models.ConvictionHigh,
		},
		{
			name: "fenced and bold rating",
			response: "```markdown\n" + `## Executive Summary
Summary.
## Investment Thesis
Thesis.
## Financial Analysis
Numbers.
## Valuation Assessment
Expensive.
## Key Risks
Risks.
## Recommendation
**Rating:** Sell
` + "```",
			wantRating: models.RecommendationActionSell,
		},
		{
			name: "single action word without rating label",
			response: `## Executive Summary
Summary.
## Investment Thesis
Thesis.
## Financial Analysis
Numbers.
## Valuation Assessment
Fair.
## Key Risks
Risks.
## Recommendation
We would hold the shares until margins recover.`,
			wantRating: models.RecommendationActionHold,
		},
		{
			name: "setext headings",
			response: `Executive Summary
-----------------
Summary.

Investment Thesis
-----------------
Thesis.

Financial Analysis
------------------
Numbers.

Valuation Assessment
--------------------
Fair.

Key Risks
---------
Risks.

Recommendation
--------------
Rating: Buy`,
			wantRating: models.RecommendationActionBuy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			memo, err := parseMarkdownMemo(tt.response)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if memo.Rating != tt.wantRating {
				t.Errorf("rating = %s, want %s", memo.Rating, tt.wantRating)
			}
			if memo.Conviction != tt.wantConv {
				t.Errorf("conviction = %q, want %q", memo.Conviction, tt.wantConv)
			}
			for _, s := range models.MemoSections {
				if memo.Section(s) == "" {
					t.Errorf("section %s is empty", s)
				}
			}
		})
	}
}

func TestParseMarkdownMemo_Failures(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{
			name:     "missing sections",
			response: "## Executive Summary\nFine.\n\n## Recommendation\nRating: Buy\n",
			want:     "Investment Thesis",
		},
		{
			name: "empty section",
			response: `## Executive Summary
Summary.
## Investment Thesis
## Financial Analysis
Numbers.
## Valuation Assessment
Fair.
## Key Risks
Risks.
## Recommendation
Rating: Buy`,
			want: "Investment Thesis",
		},
		{
			name: "ambiguous rating",
			response: `## Executive Summary
Summary.
## Investment Thesis
Thesis.
## Financial Analysis
Numbers.
## Valuation Assessment
Fair.
## Key Risks
Risks.
## Recommendation
Buy below $150, sell above $200.`,
			want: "exactly one",
		},
		{
			name:     "plain prose",
			response: "I cannot help with that.",
			want:     "Executive Summary",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseMarkdownMemo(tt.response)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestParseJSONMemo(t *testing.T) {
	full := `{
  "executive_summary": "Summary.",
  "investment_thesis": "Thesis.",
  "financial_analysis": "Numbers.",
  "valuation_assessment": "Fair.",
  "key_risks": "Risks.",
  "recommendation": "Accumulate.",
  "rating": "buy",
  "conviction": "Low"
}`

	tests := []struct {
		name     string
		response string
	}{
		{"strict json", full},
		{"fenced json", "```json\n" + full + "\n```"},
		{"trailing comma", strings.Replace(full, `"Low"`, `"Low",`, 1)},
		{"single quotes", strings.ReplaceAll(full, `"`, `'`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			memo, err := parseJSONMemo(tt.response)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if memo.Rating != models.RecommendationActionBuy {
				t.Errorf("rating = %s, want Buy", memo.Rating)
			}
			if memo.Conviction != models.ConvictionLow {
				t.Errorf("conviction = %s, want Low", memo.Conviction)
			}
			if memo.KeyRisks != "Risks." {
				t.Errorf("key risks = %q", memo.KeyRisks)
			}
		})
	}
}

func TestParseJSONMemo_Hjson(t *testing.T) {
	response := `{
  # the model added comments and dropped quotes
  executive_summary: Summary.
  investment_thesis: Thesis.
  financial_analysis: Numbers.
  valuation_assessment: Fair.
  key_risks: Risks.
  recommendation: Wait for the cycle to turn.
  rating: Hold
}`

	memo, err := parseJSONMemo(response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if memo.Rating != models.RecommendationActionHold {
		t.Errorf("rating = %s, want Hold", memo.Rating)
	}
}

func TestParseJSONMemo_Failures(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"invalid rating", `{"executive_summary":"a","investment_thesis":"b","financial_analysis":"c","valuation_assessment":"d","key_risks":"e","recommendation":"f","rating":"Strong Buy"}`},
		{"missing section", `{"executive_summary":"a","rating":"Buy"}`},
		{"no rating anywhere", `{"executive_summary":"a","investment_thesis":"b","financial_analysis":"c","valuation_assessment":"d","key_risks":"e","recommendation":"it depends"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseJSONMemo(tt.response); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestExtractRating(t *testing.T) {
	tests := []struct {
		text    string
		want    models.RecommendationAction
		wantErr bool
	}{
		{"Rating: Buy", models.RecommendationActionBuy, false},
		{"**RATING** - hold", models.RecommendationActionHold, false},
		{"Rating: Sell. We would not buy here.", models.RecommendationActionSell, false},
		{"Sell", models.RecommendationActionSell, false},
		{"We recommend Buy. Sell-side consensus remains cautious.", models.RecommendationActionBuy, false},
		{"Recommendation\nHOLD pending the next filing; a sell-off would make us buyers.", models.RecommendationActionHold, false},
		{"Our view: sell. Investors who hold should trim.", models.RecommendationActionSell, false},
		{"buy or sell", "", true},
		{"Buy or sell depending on margins. We lean toward hold.", "", true},
		{"no view", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := extractRating(tt.text)
			if tt.wantErr {
				if !errors.Is(err, errNoRating) {
					t.Errorf("expected errNoRating, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("extractRating(%q) = %s, want %s", tt.text, got, tt.want)
			}
		})
	}
}

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  plain  ", "plain"},
		{"```markdown\n## A\ntext\n```", "## A\ntext"},
		{"```\n{}\n```", "{}"},
	}
	for _, tt := range tests {
		if got := cleanResponse(tt.in); got != tt.want {
			t.Errorf("cleanResponse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
