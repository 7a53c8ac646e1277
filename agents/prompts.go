package agents

import (
	"bytes"
	"embed"
	"fmt"
	"math"
	"os"
	"strings"
	"text/template"

	"fundamental-analyst/config"
	"fundamental-analyst/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

//go:embed prompts/memo.yaml
var promptFS embed.FS

const defaultPromptFile = "prompts/memo.yaml"

// PromptSet holds the memo prompts. User is a text/template rendered with
// the analysis figures.
type PromptSet struct {
	System  string            `yaml:"system"`
	User    string            `yaml:"user"`
	Formats map[string]string `yaml:"formats"`

	userTmpl *template.Template
}

// LoadPromptSet loads the embedded prompts, overlaid with the YAML file at
// path when path is not empty. Errors wrap models.ErrConfiguration.
func LoadPromptSet(path string) (*PromptSet, error) {
	data, err := promptFS.ReadFile(defaultPromptFile)
	if err != nil {
		return nil, fmt.Errorf("%w: embedded prompts: %v", models.ErrConfiguration, err)
	}

	var ps PromptSet
	if err := yaml.Unmarshal(data, &ps); err != nil {
		return nil, fmt.Errorf("%w: embedded prompts: %v", models.ErrConfiguration, err)
	}

	if path != "" {
		override, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: prompt file: %v", models.ErrConfiguration, err)
		}
		if err := yaml.Unmarshal(override, &ps); err != nil {
			return nil, fmt.Errorf("%w: prompt file %s: %v", models.ErrConfiguration, path, err)
		}
	}

	if err := ps.compile(); err != nil {
		return nil, err
	}
	return &ps, nil
}

func (ps *PromptSet) compile() error {
	if strings.TrimSpace(ps.System) == "" || strings.TrimSpace(ps.User) == "" {
		return fmt.Errorf("%w: prompts need both system and user text", models.ErrConfiguration)
	}
	for _, f := range []string{config.MemoFormatMarkdown, config.MemoFormatJSON} {
		if strings.TrimSpace(ps.Formats[f]) == "" {
			return fmt.Errorf("%w: prompts have no %s format instructions", models.ErrConfiguration, f)
		}
	}

	tmpl, err := template.New("user").Option("missingkey=error").Parse(ps.User)
	if err != nil {
		return fmt.Errorf("%w: user prompt template: %v", models.ErrConfiguration, err)
	}
	ps.userTmpl = tmpl
	return nil
}

// promptLine is one labelled figure in the user prompt.
type promptLine struct {
	Label string
	Value string
}

type promptData struct {
	Ticker             string
	CompanyName        string
	Period             int
	PriorPeriod        int
	Profile            []promptLine
	Profitability      []promptLine
	Leverage           []promptLine
	Growth             []promptLine
	Valuation          []promptLine
	Prices             []promptLine
	FormatInstructions string
}

// Render builds the user prompt for the artifact in the given response
// format. Rounding happens here only; the artifact keeps full precision.
func (ps *PromptSet) Render(artifact *models.AnalysisArtifact, format string) (string, error) {
	if artifact == nil || artifact.Ratios == nil || artifact.Valuation == nil {
		return "", fmt.Errorf("analysis is incomplete")
	}
	instructions, ok := ps.Formats[format]
	if !ok {
		return "", fmt.Errorf("unknown memo format %q", format)
	}

	data := buildPromptData(artifact)
	data.FormatInstructions = strings.TrimSpace(instructions)

	var buf bytes.Buffer
	if err := ps.userTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}

func buildPromptData(a *models.AnalysisArtifact) promptData {
	r := a.Ratios
	v := a.Valuation

	data := promptData{
		Ticker:      a.Ticker,
		Period:      r.Period,
		PriorPeriod: r.PriorPeriod,
		Profitability: []promptLine{
			{"Net Profit Margin", formatPercent(r.NetProfitMargin)},
			{"Return on Assets (ROA)", formatPercent(r.ReturnOnAssets)},
			{"Return on Equity (ROE)", formatPercent(r.ReturnOnEquity)},
		},
		Leverage: []promptLine{
			{"Debt to Equity", formatMultiple(r.DebtToEquity)},
			{"Debt to Assets", formatPercent(r.DebtToAssets)},
			{"Equity Multiplier", formatMultiple(r.EquityMultiplier)},
		},
		Growth: []promptLine{
			{"Revenue Growth (YoY)", formatPercent(r.RevenueGrowthYoY)},
			{"Net Income Growth (YoY)", formatPercent(r.NetIncomeGrowthYoY)},
		},
		Valuation: []promptLine{
			{"Base Free Cash Flow", formatMoney(v.BaseFreeCashFlow)},
			{"Growth Rate", formatPercent(models.NewMetric(v.GrowthRate))},
			{"Discount Rate", formatPercent(models.NewMetric(v.DiscountRate))},
			{"Terminal Growth Rate", formatPercent(models.NewMetric(v.TerminalGrowthRate))},
			{"Projection Years", fmt.Sprintf("%d", v.ProjectionYears)},
			{"PV of Projected Cash Flows", formatMoney(v.PresentValueOfProjections)},
			{"Terminal Value", formatMoney(v.TerminalValue)},
			{"PV of Terminal Value", formatMoney(v.PresentValueOfTerminal)},
			{"Enterprise Value", formatMoney(v.EnterpriseValue)},
			{"Equity Value", formatMoneyMetric(v.EquityValue)},
			{"Implied Value per Share", formatPrice(v.ImpliedSharePrice)},
		},
	}

	if p := a.Profile; p != nil {
		data.CompanyName = p.Name
		if p.Sector != "" {
			data.Profile = append(data.Profile, promptLine{"Sector", p.Sector})
		}
		if p.Industry != "" {
			data.Profile = append(data.Profile, promptLine{"Industry", p.Industry})
		}
		if !p.MarketCap.IsZero() {
			data.Profile = append(data.Profile, promptLine{"Market Cap", formatMoney(p.MarketCap.InexactFloat64())})
		}
		if !p.Price.IsZero() {
			data.Profile = append(data.Profile, promptLine{"Share Price", formatPrice(models.NewMetric(p.Price.InexactFloat64()))})
		}
		if p.Beta != 0 {
			data.Profile = append(data.Profile, promptLine{"Beta", fmt.Sprintf("%.2f", p.Beta)})
		}
	}

	if s := a.Prices; s != nil && s.Bars > 0 {
		data.Prices = []promptLine{
			{"Period", fmt.Sprintf("%s to %s (%d trading days)", s.From.Format("2006-01-02"), s.To.Format("2006-01-02"), s.Bars)},
			{"Latest Close", formatPrice(s.LatestClose)},
			{"Period High", formatPrice(s.PeriodHigh)},
			{"Period Low", formatPrice(s.PeriodLow)},
			{"Period Return", formatPercent(s.PeriodReturn)},
		}
	}

	return data
}

const notAvailable = "n/a"

var printer = message.NewPrinter(language.English)

// formatPercent renders a fraction as a percentage with 2 decimals.
func formatPercent(m models.Metric) string {
	if !m.Valid {
		return notAvailable
	}
	return printer.Sprintf("%.2f%%", m.Value*100)
}

func formatMultiple(m models.Metric) string {
	if !m.Valid {
		return notAvailable
	}
	return printer.Sprintf("%.2fx", m.Value)
}

// formatMoney renders whole currency units with thousands separators.
func formatMoney(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return notAvailable
	}
	if v < 0 {
		return printer.Sprintf("-$%.0f", -v)
	}
	return printer.Sprintf("$%.0f", v)
}

func formatMoneyMetric(m models.Metric) string {
	if !m.Valid {
		return notAvailable
	}
	return formatMoney(m.Value)
}

// formatPrice renders a per-share amount with cents.
func formatPrice(m models.Metric) string {
	if !m.Valid {
		return notAvailable
	}
	if m.Value < 0 {
		return printer.Sprintf("-$%.2f", -m.Value)
	}
	return printer.Sprintf("$%.2f", m.Value)
}
