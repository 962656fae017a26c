package extract

import (
	"regexp"
	"strings"

	"github.com/wikiquiz/wikiquiz/internal/wiki"
)

// metaSectionTitles are known boilerplate headings, matched exactly after
// normalization.
var metaSectionTitles = []string{
	"References",
	"Notes",
	"Notes and references",
	"References and notes",
	"Citations",
	"Footnotes",
	"Endnotes",
	"Works cited",
	"Bibliography",
	"Sources",
	"Primary sources",
	"Secondary sources",
	"General references",
	"General sources",
	"See also",
	"Further reading",
	"Additional reading",
	"Further information",
	"External links",
	"External link",
	"External resources",
	"External websites",
	"References and external links",
	"External links and references",
	"Notes and sources",
	"Appendix",
	"Appendices",
	"Explanatory notes",
	"Other websites",
}

// metaFragments catch combined or variant boilerplate headings by substring.
// This deliberately over-triggers on content titles that merely mention one
// of the fragments; see the package tests for the documented false positive.
var metaFragments = []string{
	"reference",
	"footnote",
	"endnote",
	"citation",
	"bibliograph",
	"source",
	"see also",
	"external link",
	"further reading",
	"works cited",
	"appendix",
	"explanatory notes",
	"other websites",
}

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>?`)
	bracketPattern    = regexp.MustCompile(`\[[^\]]*\]`)
	nonLetterPattern  = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// normalizedMetaTitles is the exact-match set, built once.
var normalizedMetaTitles = func() map[string]bool {
	set := make(map[string]bool, len(metaSectionTitles))
	for _, t := range metaSectionTitles {
		set[NormalizeTitle(t)] = true
	}
	return set
}()

// NormalizeTitle lowercases a heading and strips residual tags, bracketed
// markers, and punctuation, collapsing whitespace for reliable comparison.
func NormalizeTitle(title string) string {
	t := strings.ToLower(title)
	t = tagPattern.ReplaceAllString(t, "")
	t = bracketPattern.ReplaceAllString(t, "")
	t = nonLetterPattern.ReplaceAllString(t, " ")
	t = whitespacePattern.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// IsMetaSection classifies a heading as boilerplate (references, further
// reading, and similar) rather than article content.
func IsMetaSection(title string) bool {
	normalized := NormalizeTitle(title)
	if normalizedMetaTitles[normalized] {
		return true
	}
	for _, fragment := range metaFragments {
		if strings.Contains(normalized, fragment) {
			return true
		}
	}
	return false
}

// FilterSections builds the final section list for a page: meta sections are
// dropped, and any later section whose normalized title repeats an earlier
// non-meta title is dropped too (first occurrence wins). The source can
// return duplicate headings once tag-stripping normalizes otherwise-distinct
// markup into identical strings.
func FilterSections(sections []wiki.Section) []wiki.Section {
	seen := make(map[string]bool, len(sections))
	out := make([]wiki.Section, 0, len(sections))
	for _, s := range sections {
		if IsMetaSection(s.Line) {
			continue
		}
		key := NormalizeTitle(s.Line)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
