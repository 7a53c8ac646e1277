package agents

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"fundamental-analyst/models"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var (
	errNoRating        = errors.New("recommendation does not name exactly one of Buy, Hold or Sell")
	ratingPattern      = regexp.MustCompile(`(?i)\brating\b\W*(buy|hold|sell)\b`)
	actionPattern      = regexp.MustCompile(`(?i)\b(buy|hold|sell)\b`)
	convictionPattern  = regexp.MustCompile(`(?i)\bconviction\b(?:\s+level)?\W*(high|medium|low)\b`)
	convictionSuffix   = regexp.MustCompile(`(?i)\b(high|medium|low)\b\W*conviction\b`)
	headingNumbering   = regexp.MustCompile(`^(\d+[.)]|[ivx]+[.)])\s*`)
	sectionHeadingKeys = map[string]models.MemoSection{
		"executive summary":    models.SectionExecutiveSummary,
		"summary":              models.SectionExecutiveSummary,
		"investment thesis":    models.SectionInvestmentThesis,
		"thesis":               models.SectionInvestmentThesis,
		"financial analysis":   models.SectionFinancialAnalysis,
		"valuation assessment": models.SectionValuationAssessment,
		"valuation":            models.SectionValuationAssessment,
		"key risks":            models.SectionKeyRisks,
		"risks":                models.SectionKeyRisks,
		"recommendation":       models.SectionRecommendation,
	}
)

// cleanResponse strips an outer code fence the model may wrap its answer in.
func cleanResponse(input string) string {
	cleaned := strings.TrimSpace(input)
	if len(cleaned) < 6 || !strings.HasPrefix(cleaned, "```") || !strings.HasSuffix(cleaned, "```") {
		return cleaned
	}
	cleaned = strings.TrimSuffix(cleaned, "```")
	if nl := strings.IndexByte(cleaned, '\n'); nl >= 0 {
		// Drop the opening fence and its info string (markdown, json, ...).
		cleaned = cleaned[nl+1:]
	} else {
		cleaned = strings.TrimPrefix(cleaned, "```")
	}
	return strings.TrimSpace(cleaned)
}

// parseMarkdownMemo extracts the six sections from a Markdown memo. Every
// section must be present and non-empty and the recommendation must resolve
// to a single rating.
func parseMarkdownMemo(response string) (*models.InvestmentMemo, error) {
	source := []byte(cleanResponse(response))
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	type found struct {
		section models.MemoSection
		level   int
		title   string
		start   int // first byte after the heading line
	}
	var sections []found
	var boundaries []struct{ level, lineStart int }

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			continue
		}
		seg := h.Lines().At(0)
		lineStart := bytes.LastIndexByte(source[:seg.Start], '\n') + 1
		boundaries = append(boundaries, struct{ level, lineStart int }{h.Level, lineStart})

		title := headingText(h, source)
		section, ok := matchSection(title)
		if !ok {
			continue
		}
		sections = append(sections, found{
			section: section,
			level:   h.Level,
			title:   title,
			start:   headingEnd(source, h),
		})
	}

	memo := &models.InvestmentMemo{}
	var recommendationTitle string
	for _, f := range sections {
		// The body runs to the next heading at the same or a higher level.
		end := len(source)
		for _, b := range boundaries {
			if b.lineStart >= f.start && b.level <= f.level {
				end = b.lineStart
				break
			}
		}
		if memo.Section(f.section) != "" {
			continue
		}
		body := ""
		if f.start < end {
			body = strings.TrimSpace(string(source[f.start:end]))
		}
		memo.SetSection(f.section, body)
		if f.section == models.SectionRecommendation {
			recommendationTitle = f.title
		}
	}

	if err := checkSections(memo); err != nil {
		return nil, err
	}

	rating, err := extractRating(recommendationTitle + "\n" + memo.Recommendation)
	if err != nil {
		return nil, err
	}
	memo.Rating = rating
	memo.Conviction = extractConviction(memo.Recommendation)
	return memo, nil
}

// headingText concatenates the text content of a heading.
func headingText(n ast.Node, source []byte) string {
	var b strings.Builder
	ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// headingEnd returns the offset just past the heading line, skipping the
// underline of a setext heading.
func headingEnd(source []byte, h *ast.Heading) int {
	seg := h.Lines().At(h.Lines().Len() - 1)
	pos := seg.Stop
	if nl := bytes.IndexByte(source[pos:], '\n'); nl >= 0 {
		pos += nl + 1
	} else {
		return len(source)
	}

	next := len(source)
	if nl := bytes.IndexByte(source[pos:], '\n'); nl >= 0 {
		next = pos + nl + 1
	}
	if isUnderline(strings.TrimSpace(string(source[pos:next]))) {
		return next
	}
	return pos
}

func isUnderline(line string) bool {
	return line != "" && (strings.Trim(line, "=") == "" || strings.Trim(line, "-") == "")
}

// matchSection maps a heading title to a memo section. Leading numbering
// and qualifiers after a colon, dash or parenthesis are ignored.
func matchSection(title string) (models.MemoSection, bool) {
	key := strings.ToLower(strings.TrimSpace(title))
	key = headingNumbering.ReplaceAllString(key, "")
	if i := strings.IndexAny(key, ":(-–"); i > 0 {
		key = key[:i]
	}
	key = strings.Trim(key, " *_")
	s, ok := sectionHeadingKeys[key]
	return s, ok
}

func checkSections(memo *models.InvestmentMemo) error {
	var missing []string
	for _, s := range models.MemoSections {
		if strings.TrimSpace(memo.Section(s)) == "" {
			missing = append(missing, string(s))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("memo is missing or has empty sections: %s", strings.Join(missing, ", "))
	}
	return nil
}

// extractRating finds the Buy/Hold/Sell rating in text. An explicit
// "Rating: X" wins, then the first sentence that names an action, as long as
// it names only one. Otherwise exactly one distinct action word must appear.
func extractRating(text string) (models.RecommendationAction, error) {
	if m := ratingPattern.FindStringSubmatch(text); m != nil {
		if action, ok := models.ParseRecommendationAction(m[1]); ok {
			return action, nil
		}
	}

	if action, ok := leadingAction(text); ok {
		return action, nil
	}
	if action, ok := singleAction(text); ok {
		return action, nil
	}
	return "", errNoRating
}

// leadingAction returns the action named by the first sentence that names
// any.
func leadingAction(text string) (models.RecommendationAction, bool) {
	isBreak := func(r rune) bool {
		return r == '\n' || r == '.' || r == '!' || r == '?' || r == ';'
	}
	for _, sentence := range strings.FieldsFunc(text, isBreak) {
		if actionPattern.MatchString(sentence) {
			return singleAction(sentence)
		}
	}
	return "", false
}

// singleAction reports the action word in text when exactly one distinct
// action appears.
func singleAction(text string) (models.RecommendationAction, bool) {
	var found models.RecommendationAction
	for _, word := range actionPattern.FindAllString(text, -1) {
		action, ok := models.ParseRecommendationAction(word)
		if !ok {
			continue
		}
		if found != "" && found != action {
			return "", false
		}
		found = action
	}
	return found, found != ""
}

func extractConviction(text string) models.Conviction {
	m := convictionPattern.FindStringSubmatch(text)
	if m == nil {
		m = convictionSuffix.FindStringSubmatch(text)
	}
	if m == nil {
		return ""
	}
	switch strings.ToLower(m[1]) {
	case "high":
		return models.ConvictionHigh
	case "medium":
		return models.ConvictionMedium
	case "low":
		return models.ConvictionLow
	}
	return ""
}

// memoJSON is the object requested in the json response format.
type memoJSON struct {
	ExecutiveSummary    string `json:"executive_summary"`
	InvestmentThesis    string `json:"investment_thesis"`
	FinancialAnalysis   string `json:"financial_analysis"`
	ValuationAssessment string `json:"valuation_assessment"`
	KeyRisks            string `json:"key_risks"`
	Recommendation      string `json:"recommendation"`
	Rating              string `json:"rating"`
	Conviction          string `json:"conviction"`
}

// parseJSONMemo decodes a JSON memo, falling back to json-repair and then
// Hjson for the malformed output models sometimes produce.
func parseJSONMemo(response string) (*models.InvestmentMemo, error) {
	input := cleanResponse(response)

	var raw memoJSON
	if err := decodeLenient(input, &raw); err != nil {
		return nil, err
	}

	memo := &models.InvestmentMemo{
		ExecutiveSummary:    strings.TrimSpace(raw.ExecutiveSummary),
		InvestmentThesis:    strings.TrimSpace(raw.InvestmentThesis),
		FinancialAnalysis:   strings.TrimSpace(raw.FinancialAnalysis),
		ValuationAssessment: strings.TrimSpace(raw.ValuationAssessment),
		KeyRisks:            strings.TrimSpace(raw.KeyRisks),
		Recommendation:      strings.TrimSpace(raw.Recommendation),
	}
	if err := checkSections(memo); err != nil {
		return nil, err
	}

	if action, ok := models.ParseRecommendationAction(raw.Rating); ok {
		memo.Rating = action
	} else if strings.TrimSpace(raw.Rating) != "" {
		return nil, fmt.Errorf("%w: rating %q", errNoRating, raw.Rating)
	} else {
		action, err := extractRating(memo.Recommendation)
		if err != nil {
			return nil, err
		}
		memo.Rating = action
	}

	memo.Conviction = extractConviction("conviction: " + raw.Conviction)
	if memo.Conviction == "" {
		memo.Conviction = extractConviction(memo.Recommendation)
	}
	return memo, nil
}

// decodeLenient tries strict JSON, then json-repair, then Hjson, and keeps
// the first decoding that yields every section. When none does, the first
// successful decoding is returned so the caller can report what is missing.
func decodeLenient(input string, out *memoJSON) error {
	strategies := []func(string) (memoJSON, error){
		decodeStrict,
		decodeRepaired,
		decodeHjson,
	}

	var first *memoJSON
	var lastErr error
	for _, decode := range strategies {
		m, err := decode(input)
		if err != nil {
			lastErr = err
			continue
		}
		if m.complete() {
			*out = m
			return nil
		}
		if first == nil {
			first = &m
		}
	}

	if first != nil {
		*out = *first
		return nil
	}
	return fmt.Errorf("response is not a JSON object: %w", lastErr)
}

func (m memoJSON) complete() bool {
	for _, s := range []string{m.ExecutiveSummary, m.InvestmentThesis, m.FinancialAnalysis,
		m.ValuationAssessment, m.KeyRisks, m.Recommendation} {
		if strings.TrimSpace(s) == "" {
			return false
		}
	}
	return true
}

func decodeStrict(input string) (memoJSON, error) {
	var m memoJSON
	err := json.Unmarshal([]byte(input), &m)
	return m, err
}

func decodeRepaired(input string) (memoJSON, error) {
	repaired, err := jsonrepair.RepairJSON(input)
	if err != nil {
		return memoJSON{}, err
	}
	return decodeStrict(repaired)
}

func decodeHjson(input string) (memoJSON, error) {
	var generic map[string]any
	if err := hjson.Unmarshal([]byte(input), &generic); err != nil {
		return memoJSON{}, err
	}
	normalized, err := json.Marshal(generic)
	if err != nil {
		return memoJSON{}, err
	}
	return decodeStrict(string(normalized))
}
