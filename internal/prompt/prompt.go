// Package prompt holds the review templates and assembles the final prompt
// from retrieved document context.
package prompt

import (
	"fmt"
	"strings"

	"github.com/margin-review/margin/models"
)

// seedQueries are the retrieval queries used when no custom question is
// given. Each mode retrieves the document regions its template cares about.
var seedQueries = map[models.ReviewMode]string{
	models.ModeFullReview:       "research methodology problem statement objectives findings conclusions",
	models.ModeMethodology:      "research design methodology sampling data collection analysis validity",
	models.ModeWritingQuality:   "grammar writing style clarity structure flow citations",
	models.ModeCitationCheck:    "citations references bibliography in-text citations reference list",
	models.ModeConsistencyCheck: "terminology tense format spelling acronyms consistency",
	models.ModeAlignmentCheck:   "research questions objectives methodology variables analysis conclusions alignment",
}

// SeedQuery returns the retrieval query for a mode. A custom question takes
// precedence over the mode's seed query; unknown modes fall back to the
// full-review seed.
func SeedQuery(mode models.ReviewMode, customQuery string) string {
	if q := strings.TrimSpace(customQuery); q != "" {
		return q
	}
	if q, ok := seedQueries[mode]; ok {
		return q
	}
	return seedQueries[models.ModeFullReview]
}

// Build assembles the full generation prompt for a mode from the retrieved
// chunks. Each chunk is tagged with its source page so critiques can cite
// page numbers.
func Build(mode models.ReviewMode, retrieved []models.RetrievalResult, customQuery string) string {
	sections := make([]string, 0, len(retrieved))
	for _, r := range retrieved {
		sections = append(sections, fmt.Sprintf("[Page %d]\n%s", r.SourcePage, r.Text))
	}
	context := strings.Join(sections, "\n\n---\n\n")

	template, ok := templates[mode]
	if !ok {
		template = panelistReviewTemplate
	}

	if mode == models.ModeCustom && strings.TrimSpace(customQuery) != "" {
		out := strings.ReplaceAll(template, "{retrieved_chunks}", context)
		return strings.ReplaceAll(out, "{user_query}", customQuery)
	}
	return strings.ReplaceAll(template, "{retrieved_chunks}", context)
}

var templates = map[models.ReviewMode]string{
	models.ModeFullReview:       panelistReviewTemplate,
	models.ModeMethodology:      methodologyCheckTemplate,
	models.ModeWritingQuality:   writingQualityTemplate,
	models.ModeCitationCheck:    citationCheckTemplate,
	models.ModeConsistencyCheck: consistencyCheckTemplate,
	models.ModeAlignmentCheck:   alignmentCheckTemplate,
	models.ModeCustom:           customQueryTemplate,
}

const panelistReviewTemplate = `
You are an experienced thesis panelist reviewing a research paper. Your role is to provide constructive, specific feedback that helps improve the research quality.

CONTEXT FROM THESIS:
{retrieved_chunks}

INSTRUCTIONS:
1. Review the provided sections critically but fairly
2. Classify issues by severity: **CRITICAL**, **MAJOR**, or **MINOR**
3. For EACH issue:
   - Quote the exact problematic text (20-100 characters)
   - Explain what's wrong
   - Provide specific fix suggestion
   - Reference page number if available
4. Also identify STRENGTHS (well-written sections)
5. For rewrite suggestions, use format: "original text" → "suggested rewrite"

FORMAT YOUR RESPONSE AS:

## CRITICAL Issues
- "exact quoted text from thesis" (Page X)
  Problem: [What's wrong]
  Suggestion: [Specific fix]

## MAJOR Issues
- "exact quoted text" (Page X)
  Problem: [What's wrong]
  Suggestion: [How to improve]

## MINOR Issues
- "exact quoted text" (Page X)
  Problem: [What's wrong]
  Suggestion: [Quick fix]

## Strengths
- "well-written section quote" (Page X)
  Why it works: [Explanation]

## Rewrite Suggestions
- "original phrasing" → "improved phrasing" (Page X)
  Reason: [Why this is better]

Begin your detailed review:
`

const methodologyCheckTemplate = `
You are reviewing the research methodology section of a thesis. Focus specifically on research design, validity, and alignment.

CONTEXT:
{retrieved_chunks}

EVALUATE & CLASSIFY BY SEVERITY:
1. Research design appropriateness for RQs (CRITICAL if misaligned)
2. Variables clearly defined and operationalized (MAJOR if unclear)
3. Sampling method justified (MAJOR if not justified)
4. Data collection procedures described (MAJOR if vague)
5. Analysis method aligned with design (CRITICAL if misaligned)

FORMAT YOUR RESPONSE AS:

## CRITICAL Methodology Issues
- "quoted text" (Page X)
  Problem: [Fundamental flaw]
  Suggestion: [How to fix]

## MAJOR Methodology Issues
- "quoted text" (Page X)
  Problem: [Significant concern]
  Suggestion: [Improvement needed]

## MINOR Methodology Issues
- "quoted text" (Page X)
  Problem: [Small issue]
  Suggestion: [Quick fix]

## Methodology Strengths
- "well-executed section" (Page X)
  Why it works: [Explanation]

Provide specific, actionable feedback:
`

const writingQualityTemplate = `
You are a writing quality reviewer for academic papers. Focus on clarity, grammar, and structure.

CONTEXT:
{retrieved_chunks}

CHECK FOR (with severity classification):
1. Grammar and spelling errors (MINOR)
2. Unclear or ambiguous sentences (MAJOR if impacts meaning)
3. Passive voice overuse (MINOR)
4. Redundant or wordy phrases (MINOR)
5. Logical flow between paragraphs (MAJOR if disconnected)
6. Citation formatting consistency (MINOR)

For EACH issue, provide rewrites: "original" → "improved"

FORMAT YOUR RESPONSE AS:

## MAJOR Writing Issues
- "unclear or confusing text" (Page X)
  Problem: [Why it's unclear]
  Suggestion: [How to clarify]

## MINOR Writing Issues (Grammar & Style)
- "problematic text" (Page X)
  Problem: [What's wrong]
  Fix: [Correction]

## Rewrite Suggestions
- "wordy original phrasing" → "concise improved version" (Page X)
  Reason: [Why this is clearer]

- "passive voice sentence" → "active voice version" (Page X)
  Reason: [More direct and clear]

## Writing Strengths
- "well-written passage" (Page X)
  Why it works: [What makes it effective]

Provide specific rewrites for every issue:
`

const customQueryTemplate = `
You are an expert thesis advisor answering a specific question about a research paper.

CONTEXT FROM THESIS:
{retrieved_chunks}

USER QUESTION:
{user_query}

INSTRUCTIONS:
1. Answer the question directly and specifically
2. Cite relevant sections from the context
3. Provide concrete, actionable advice
4. Be encouraging but honest
5. Use academic tone

Provide your answer:
`

const citationCheckTemplate = `
You are a citation and reference specialist reviewing academic citations.

CONTEXT FROM THESIS:
{retrieved_chunks}

ANALYZE THE FOLLOWING:
1. In-text citation format and consistency
2. Match between in-text citations and reference list
3. Reference list formatting (APA, MLA, etc.)
4. Missing or incomplete citations
5. Currency of sources (flag sources >10 years old)

FORMAT YOUR RESPONSE AS:

## Citation Format Issues
- "problematic citation" (Page X)
  Problem: [What's wrong]
  Fix: [Correct format]

## Missing Citations
- [Text that needs citation but doesn't have one]

## Reference List Issues
- [Issues with reference formatting]

## Source Currency
- [List sources older than 10 years with recommendations]

Be specific and cite examples:
`

const consistencyCheckTemplate = `
You are reviewing this thesis for internal consistency.

CONTEXT FROM THESIS:
{retrieved_chunks}

CHECK FOR INCONSISTENCIES IN:

1. **Terminology**: Same concept called different things
   - Example: "participants" vs "respondents" vs "subjects"

2. **Acronyms**: Used without definition

3. **Tense**: Inconsistent verb tenses within sections
   - Abstract: past tense
   - Methods: past tense
   - Results: past tense
   - Discussion: mix of past/present

4. **Number Format**: Numbers as words vs digits inconsistently

5. **Spelling**: British vs American English mix

FORMAT YOUR RESPONSE AS:

## Terminology Inconsistencies
- Found: [list variants]
  Recommendation: [pick one and use consistently]

## Undefined Acronyms
- "ACRONYM" used X times without definition
  First define: "Full Name (ACRONYM)"

## Tense Issues
- Section X uses [inconsistent tenses]
  Should use: [correct tense]

## Other Consistency Issues
- [Any other inconsistencies found]

Cite specific examples with page numbers:
`

const alignmentCheckTemplate = `
You are verifying logical alignment of research components.

CONTEXT FROM THESIS:
{retrieved_chunks}

EXTRACT AND CHECK ALIGNMENT:

1. **Research Problem/Gap**: What problem does this address?
2. **Research Questions/Objectives**: What specific questions?
3. **Variables**: What's being measured?
4. **Methodology**: How is it being studied?
5. **Analysis Methods**: How is data analyzed?
6. **Conclusions**: What was found/concluded?

VERIFY THESE ALIGNMENTS:
- Do RQs directly address the stated problem?
- Do variables align with RQs?
- Does methodology match RQs and variables?
- Do analysis methods suit the data type?
- Do conclusions answer the RQs?

FORMAT YOUR RESPONSE AS:

## Research Components Found:
- Problem: [statement]
- Research Questions: [list]
- Variables: [list]
- Methodology: [type]
- Analysis: [methods]

## Alignment Analysis:

✅ ALIGNED:
- [Component A] ↔ [Component B]: [why they align]

❌ MISALIGNED:
- [Component C] ↔ [Component D]: [what's wrong]
  Fix: [how to align them]

## Overall Alignment Score: X/10

Provide specific recommendations for improving alignment:
`
