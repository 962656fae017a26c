// Package extract turns raw article HTML into clean, sentence-addressable
// text: markup stripping, sentence segmentation, section-tree building,
// section span recovery, and meta-section filtering.
package extract

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// skipTags are elements dropped entirely before text extraction.
var skipTags = map[string]bool{
	"script":     true,
	"style":      true,
	"sup":        true,
	"img":        true,
	"figcaption": true,
}

// skipClasses are class names (and the #toc id) whose subtrees carry
// structural noise rather than prose: infoboxes, navboxes, sidebars,
// citations, thumbnails, galleries, maintenance templates.
var skipClasses = map[string]bool{
	"infobox":            true,
	"vertical-navbox":    true,
	"sidebar":            true,
	"navbox":             true,
	"toc":                true,
	"mw-editsection":     true,
	"reference":          true,
	"error":              true,
	"mw-empty-elt":       true,
	"reflist":            true,
	"hatnote":            true,
	"citation":           true,
	"printfooter":        true,
	"catlinks":           true,
	"thumbinner":         true,
	"thumb":              true,
	"thumbcaption":       true,
	"caption":            true,
	"gallery":            true,
	"mw-references-wrap": true,
	"magnify":            true,
	"image-caption":      true,
	"gallerytext":        true,
	"shortdescription":   true,
	"metadata":           true,
	"sistersitebox":      true,
	"rellink":            true,
	"ambox":              true,
	"mbox":               true,
}

// blockTags get surrounding whitespace so adjacent blocks don't run
// together when flattened.
var blockTags = map[string]bool{
	"p": true, "div": true, "li": true, "ul": true, "ol": true,
	"table": true, "tr": true, "td": true, "th": true, "br": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "section": true,
}

// cleanupPasses are applied in order to the flattened text. They remove
// inline edit markers, citation brackets, bracket remnants from wiki links
// and bare external links, and footnote-list arrows.
var cleanupPasses = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`\[\s*edit\s*\]`), ""},
	{regexp.MustCompile(`\[\d+\]`), ""},
	{regexp.MustCompile(`\[[a-zA-Z]\]`), ""},
	{regexp.MustCompile(`\[\[[^\[\]]*\]\]`), ""},
	{regexp.MustCompile(`\[(?:https?|ftp)://[^\]]*\]`), ""},
	{regexp.MustCompile(`\d+\.\s*↑`), ""},
	{regexp.MustCompile(`\s+`), " "},
}

// Normalize converts a raw HTML fragment into a single cleaned string.
// Malformed HTML degrades to best-effort text; it never fails.
func Normalize(rawHTML string) string {
	return CleanText(StripHTML(rawHTML))
}

// StripHTML extracts visible prose from an HTML fragment, dropping the
// structural deny-list and flattening hyperlinks to their visible text.
func StripHTML(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		// The tokenizer-backed parser only fails on reader errors; a
		// string reader never produces one. Keep the guard anyway.
		return rawHTML
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skipTags[n.Data] || skipNode(n) {
				return
			}
			if blockTags[n.Data] {
				b.WriteString(" ")
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockTags[n.Data] {
			b.WriteString(" ")
		}
	}
	walk(doc)
	return b.String()
}

// skipNode reports whether an element matches the class/id deny-list.
func skipNode(n *html.Node) bool {
	for _, attr := range n.Attr {
		switch attr.Key {
		case "class":
			for _, cls := range strings.Fields(attr.Val) {
				if skipClasses[strings.ToLower(cls)] {
					return true
				}
			}
		case "id":
			if strings.EqualFold(attr.Val, "toc") {
				return true
			}
		}
	}
	return false
}

// CleanText applies the ordered regex passes and trims. Running CleanText
// on its own output changes nothing: the whitespace collapse is a fixed
// point.
func CleanText(text string) string {
	for _, p := range cleanupPasses {
		text = p.re.ReplaceAllString(text, p.repl)
	}
	return strings.TrimSpace(text)
}
