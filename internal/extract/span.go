package extract

import (
	"regexp"
	"strings"

	"github.com/wikiquiz/wikiquiz/internal/errcode"
	"github.com/wikiquiz/wikiquiz/internal/wiki"
)

// SectionText recovers the prose belonging to the target section alone from
// its cleaned text: content of the first nested subsection onward is cut,
// and a residual copy of the section's own heading is removed from the top
// of the block.
//
// The target is located by its Index in the stored flat list. A missing
// index is a recoverable condition (indices can drift between cache
// population and later lookup) and is reported as a classified
// section-not-found error, not a panic.
func SectionText(cleaned string, targetIndex int, sections []wiki.Section) (string, error) {
	pos := -1
	for i, s := range sections {
		if s.Index == targetIndex {
			pos = i
			break
		}
	}
	if pos == -1 {
		return "", errcode.New(errcode.WikiSectionNotFound, false)
	}

	target := sections[pos]

	if heading, ok := firstSubsectionHeading(sections, pos); ok {
		if loc := headingPattern(heading).FindStringIndex(cleaned); loc != nil {
			cleaned = cleaned[:loc[0]]
		}
	}

	// The section's own heading commonly reappears verbatim at the top of
	// the extracted block.
	if own := strings.TrimSpace(stripTags(target.Line)); own != "" {
		cleaned = headingPattern(own).ReplaceAllString(cleaned, "")
	}

	return strings.TrimSpace(collapseSpaces(cleaned)), nil
}

// firstSubsectionHeading walks forward from the target collecting the first
// nested subsection heading. The walk advances only while the entry is
// deeper than the target, its index exceeds its predecessor's, and its
// predecessor is shallower than it — the last condition stops the walk at a
// sibling of an already-collected subsection. This three-condition guard is
// the authoritative contract; do not substitute a superficially equivalent
// one.
func firstSubsectionHeading(sections []wiki.Section, pos int) (string, bool) {
	target := sections[pos]
	for j := pos + 1; j < len(sections); j++ {
		cur, prev := sections[j], sections[j-1]
		if cur.TocLevel <= target.TocLevel || cur.Index <= prev.Index || prev.TocLevel >= cur.TocLevel {
			break
		}
		// An entry whose heading strips to nothing cannot anchor the cut;
		// the walk continues to the next entry under the same guard.
		if heading := strings.TrimSpace(stripTags(cur.Line)); heading != "" {
			return heading, true
		}
	}
	return "", false
}

// headingPattern builds a case-insensitive matcher for a heading as it may
// appear inside cleaned prose: literal tokens, any whitespace between them.
func headingPattern(heading string) *regexp.Regexp {
	tokens := strings.Fields(heading)
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(`(?i)` + strings.Join(quoted, `\s+`))
}

var (
	headingTagPattern = regexp.MustCompile(`<[^>]*>`)
	spaceRunPattern   = regexp.MustCompile(`\s+`)
)

// stripTags removes embedded markup from a display title.
func stripTags(s string) string {
	return headingTagPattern.ReplaceAllString(s, "")
}

func collapseSpaces(s string) string {
	return spaceRunPattern.ReplaceAllString(s, " ")
}
