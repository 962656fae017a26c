package extract

import (
	"fmt"

	"github.com/wikiquiz/wikiquiz/internal/wiki"
)

// Node is one section heading in the reconstructed table-of-contents tree.
type Node struct {
	wiki.Section

	// Subsections are the children, in document order.
	Subsections []*Node `json:"subsections"`

	// NumberedPath is the synthesized positional label: "Section 2" for a
	// top-level node, "2.1", "2.1.1" below. It is independent of the
	// source's own Number field.
	NumberedPath string `json:"numberedPath"`
}

// BuildTree nests a flat, depth-annotated section list into a tree. A run of
// entries belongs under entry i while every entry in the run is deeper than
// i; the run ends at the next entry at i's depth or shallower. Malformed
// input (empty list, entries without a usable depth) yields an empty tree,
// never an error.
func BuildTree(sections []wiki.Section) []*Node {
	if len(sections) == 0 {
		return []*Node{}
	}
	for _, s := range sections {
		if s.TocLevel < 1 {
			return []*Node{}
		}
	}
	return buildLevel(sections, 1, "")
}

// buildLevel selects the entries at the given depth and recurses into each
// entry's span, which extends to the next same-or-shallower entry. Spans are
// strictly decreasing sub-ranges of the parent span, so no section can
// appear under two parents.
func buildLevel(sections []wiki.Section, level int, prefix string) []*Node {
	var nodes []*Node
	position := 0

	for i := 0; i < len(sections); i++ {
		if sections[i].TocLevel != level {
			continue
		}
		position++

		end := len(sections)
		for j := i + 1; j < len(sections); j++ {
			if sections[j].TocLevel <= level {
				end = j
				break
			}
		}

		var path, childPrefix string
		if prefix == "" {
			path = fmt.Sprintf("Section %d", position)
			childPrefix = fmt.Sprintf("%d", position)
		} else {
			path = fmt.Sprintf("%s.%d", prefix, position)
			childPrefix = path
		}

		node := &Node{
			Section:      sections[i],
			NumberedPath: path,
			Subsections:  buildLevel(sections[i+1:end], level+1, childPrefix),
		}
		nodes = append(nodes, node)
		i = end - 1
	}

	if nodes == nil {
		nodes = []*Node{}
	}
	return nodes
}

// Flatten returns the tree's sections depth-first, which for well-formed
// input reproduces the original document order.
func Flatten(nodes []*Node) []wiki.Section {
	var out []wiki.Section
	var walk func([]*Node)
	walk = func(ns []*Node) {
		for _, n := range ns {
			out = append(out, n.Section)
			walk(n.Subsections)
		}
	}
	walk(nodes)
	return out
}
