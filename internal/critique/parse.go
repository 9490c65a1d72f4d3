// Package critique extracts structured findings from free-form critique
// text. The model is asked for a loose markdown format but never forced
// into one, so parsing is best effort: quoted snippets anchor issues,
// arrow pairs anchor rewrites, and known section headings anchor
// summaries. Parsing never fails; unparseable text yields empty results.
package critique

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/margin-review/margin/models"
)

var (
	quotePattern = regexp.MustCompile(`"([^"]{20,200})"`)
	pagePattern  = regexp.MustCompile(`(?i)(?:page|pg\.?|p\.)\s*(\d+)`)
	arrowPattern = regexp.MustCompile(`(?i)"([^"]+)"\s*(?:→|->|should be|could be|replace with)\s*"([^"]+)"`)
	scorePattern = regexp.MustCompile(`(?i)score:?\s*(-?\d+)(?:/10)?`)
)

// classification is the parser's running state while scanning critique
// lines. Section headers and keyword mentions update it; each quoted
// snippet is stamped with the state current at its line.
type classification struct {
	severity models.Severity
	category models.Category
}

func defaultClassification() classification {
	return classification{severity: models.SeverityMajor, category: models.CategoryGeneral}
}

var severityKeywords = []struct {
	severity models.Severity
	words    []string
}{
	{models.SeverityCritical, []string{"critical", "serious", "fatal", "fundamental"}},
	{models.SeverityMajor, []string{"major", "significant", "important"}},
	{models.SeverityMinor, []string{"minor", "small", "typo", "grammar"}},
	{models.SeveritySuggestion, []string{"suggest", "could", "might", "consider", "recommendation"}},
	{models.SeverityStrength, []string{"strength", "well-written", "excellent", "good", "clear"}},
}

func containsAnyWord(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// classify advances the classification state over one line. Severity
// keywords are checked first in precedence order, then category keywords
// apply their floors: methodology and logic issues are promoted to at
// least major, grammar issues are demoted to minor unless already
// critical or major.
func classify(line string, prev classification) classification {
	next := prev
	lower := strings.ToLower(line)

	for _, sk := range severityKeywords {
		if containsAnyWord(lower, sk.words) {
			next.severity = sk.severity
			if sk.severity == models.SeverityStrength {
				next.category = models.CategoryStrength
			}
			break
		}
	}

	switch {
	case strings.Contains(lower, "methodology") || strings.Contains(lower, "research design"):
		next.category = models.CategoryMethodology
		if next.severity != models.SeverityCritical && next.severity != models.SeverityStrength {
			next.severity = models.SeverityMajor
		}
	case strings.Contains(lower, "grammar") || strings.Contains(lower, "spelling") || strings.Contains(lower, "typo"):
		next.category = models.CategoryGrammar
		if next.severity != models.SeverityCritical && next.severity != models.SeverityMajor {
			next.severity = models.SeverityMinor
		}
	case strings.Contains(lower, "writing") || strings.Contains(lower, "clarity") || strings.Contains(lower, "style"):
		next.category = models.CategoryClarity
	case strings.Contains(lower, "logic") || strings.Contains(lower, "argument") || strings.Contains(lower, "reasoning"):
		next.category = models.CategoryLogic
		if next.severity == models.SeverityMinor {
			next.severity = models.SeverityMajor
		}
	}

	return next
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return s
}

func pageRef(s string) *int {
	m := pagePattern.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	n := 0
	for _, c := range m[1] {
		n = n*10 + int(c-'0')
	}
	return &n
}

// ParseIssues extracts issues from critique text. Each line holding a
// quoted snippet of 20 to 200 characters yields one issue classified by
// the state accumulated from preceding lines, with the suggestion drawn
// from the following lines. If no line-anchored issues are found, up to
// five bare quotes become general major issues so a verbose critique
// still produces annotations.
func ParseIssues(text string) []models.Issue {
	var issues []models.Issue

	state := defaultClassification()
	lines := strings.Split(text, "\n")

	for i, line := range lines {
		state = classify(line, state)

		if !strings.Contains(line, `"`) || i+1 >= len(lines) {
			continue
		}
		m := quotePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		var suggestion strings.Builder
		for j := i + 1; j < i+4 && j < len(lines); j++ {
			trimmed := strings.TrimSpace(lines[j])
			if trimmed != "" && !strings.HasPrefix(lines[j], "#") {
				suggestion.WriteString(trimmed)
				suggestion.WriteString(" ")
			}
		}
		suggestionText := strings.TrimSpace(truncate(suggestion.String(), 200))
		if suggestionText == "" {
			suggestionText = "Review and improve this section"
		}

		issues = append(issues, models.Issue{
			Category:   state.category,
			Severity:   state.severity,
			Snippet:    truncate(m[1], 150),
			Suggestion: suggestionText,
			PageHint:   pageRef(line),
		})
	}

	if len(issues) == 0 {
		for _, m := range quotePattern.FindAllStringSubmatch(text, 5) {
			issues = append(issues, models.Issue{
				Category:   models.CategoryGeneral,
				Severity:   models.SeverityMajor,
				Snippet:    truncate(m[1], 150),
				Suggestion: "Review and revise this section",
			})
		}
	}

	return issues
}

// ParseRewrites extracts inline rewrite pairs of the form
// "original" → "suggested" (also ->, "should be", "could be",
// "replace with"). At most 10 are returned. The page reference is taken
// from a 100-character window around the original phrase's first
// occurrence in the critique.
func ParseRewrites(text string) []models.RewriteSuggestion {
	var rewrites []models.RewriteSuggestion

	for _, m := range arrowPattern.FindAllStringSubmatch(text, -1) {
		original, suggested := m[1], m[2]

		var page *int
		if pos := strings.Index(text, original); pos >= 0 {
			start := max(0, pos-100)
			end := min(len(text), pos+100)
			page = pageRef(text[start:end])
		}

		rewrites = append(rewrites, models.RewriteSuggestion{
			Original:    truncate(original, 100),
			Suggested:   truncate(suggested, 100),
			Explanation: "Improves clarity and correctness",
			Page:        page,
		})
		if len(rewrites) == 10 {
			break
		}
	}

	return rewrites
}

var (
	strengthPatterns = compilePatterns([]string{
		`strength[s]?:?\s*[-•]\s*([^\n]+)`,
		`good:?\s*[-•]\s*([^\n]+)`,
		`well[- ](?:written|done):?\s*[-•]\s*([^\n]+)`,
	})
	issuePatterns = compilePatterns([]string{
		`issue[s]?:?\s*[-•]\s*([^\n]+)`,
		`problem[s]?:?\s*[-•]\s*([^\n]+)`,
		`concern[s]?:?\s*[-•]\s*([^\n]+)`,
		`weakness[es]*:?\s*[-•]\s*([^\n]+)`,
	})
	suggestionPatterns = compilePatterns([]string{
		`suggest[ion]*[s]?:?\s*[-•]\s*([^\n]+)`,
		`recommend[ation]*[s]?:?\s*[-•]\s*([^\n]+)`,
		`should:?\s*[-•]\s*([^\n]+)`,
	})
)

func compilePatterns(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(`(?i)` + p)
	}
	return compiled
}

func collectMatches(content string, patterns []*regexp.Regexp, limit int) []string {
	var out []string
	for _, p := range patterns {
		for _, m := range p.FindAllStringSubmatch(content, -1) {
			out = append(out, m[1])
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ParseSectionSummaries extracts per-section verdicts for each recognized
// section heading present in the critique. A section is reported only when
// at least one bulleted strength, issue, or suggestion was found under it.
func ParseSectionSummaries(text string) []models.SectionSummary {
	var summaries []models.SectionSummary

	for _, section := range models.SectionNames {
		sectionPattern := regexp.MustCompile(`(?i)##\s*` + regexp.QuoteMeta(section) + `[^#]*`)
		m := sectionPattern.FindString(text)
		if m == "" {
			continue
		}

		strengths := collectMatches(m, strengthPatterns, 3)
		sectionIssues := collectMatches(m, issuePatterns, 3)
		suggestions := collectMatches(m, suggestionPatterns, 3)
		if len(strengths) == 0 && len(sectionIssues) == 0 && len(suggestions) == 0 {
			continue
		}

		score := 7
		if sm := scorePattern.FindStringSubmatch(m); sm != nil {
			if n, err := strconv.Atoi(sm[1]); err == nil {
				score = n
			}
		}
		score = min(10, max(1, score))

		summaries = append(summaries, models.SectionSummary{
			Section:     titleCase(section),
			Page:        pageRef(m),
			Strengths:   strengths,
			Issues:      sectionIssues,
			Suggestions: suggestions,
			Score:       score,
		})
	}

	return summaries
}

// Parse runs all three extractors over one critique.
func Parse(text string) models.Findings {
	return models.Findings{
		Issues:           ParseIssues(text),
		Rewrites:         ParseRewrites(text),
		SectionSummaries: ParseSectionSummaries(text),
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
