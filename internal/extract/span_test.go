package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/wikiquiz/wikiquiz/internal/errcode"
	"github.com/wikiquiz/wikiquiz/internal/wiki"
)

func TestSectionText(t *testing.T) {
	sections := []wiki.Section{
		{Index: 1, Line: "History", TocLevel: 1},
		{Index: 2, Line: "Antiquity", TocLevel: 2},
		{Index: 3, Line: "Geography", TocLevel: 1},
	}

	t.Run("truncates at first subsection", func(t *testing.T) {
		cleaned := "History The city was founded in 753 BC. Antiquity The earliest settlement sat on the Palatine."
		got, err := SectionText(cleaned, 1, sections)
		if err != nil {
			t.Fatal(err)
		}
		if got != "The city was founded in 753 BC." {
			t.Errorf("SectionText() = %q", got)
		}
		if strings.Contains(got, "Palatine") {
			t.Errorf("subsection prose leaked into span: %q", got)
		}
	})

	t.Run("leaf section keeps full text", func(t *testing.T) {
		cleaned := "Geography The city spans seven hills. The river divides it."
		got, err := SectionText(cleaned, 3, sections)
		if err != nil {
			t.Fatal(err)
		}
		if got != "The city spans seven hills. The river divides it." {
			t.Errorf("SectionText() = %q", got)
		}
	})

	t.Run("own heading removed case-insensitively", func(t *testing.T) {
		cleaned := "GEOGRAPHY The city spans seven hills."
		got, err := SectionText(cleaned, 3, sections)
		if err != nil {
			t.Fatal(err)
		}
		if strings.Contains(strings.ToLower(got), "geography") {
			t.Errorf("heading survived: %q", got)
		}
	})

	t.Run("markup in subsection title", func(t *testing.T) {
		withTags := []wiki.Section{
			{Index: 1, Line: "Works", TocLevel: 1},
			{Index: 2, Line: "<i>Principia</i> era", TocLevel: 2},
		}
		cleaned := "Works He wrote throughout his life. Principia era His masterwork appeared in 1687."
		got, err := SectionText(cleaned, 1, withTags)
		if err != nil {
			t.Fatal(err)
		}
		if got != "He wrote throughout his life." {
			t.Errorf("SectionText() = %q", got)
		}
	})

	t.Run("missing index", func(t *testing.T) {
		_, err := SectionText("whatever", 99, sections)
		if err == nil {
			t.Fatal("expected error for missing index")
		}
		var ce *errcode.Error
		if !errors.As(err, &ce) {
			t.Fatalf("error is %T, want *errcode.Error", err)
		}
		if ce.Code != errcode.WikiSectionNotFound {
			t.Errorf("code = %s, want %s", ce.Code, errcode.WikiSectionNotFound)
		}
		if ce.Retryable {
			t.Error("section-not-found must not be retryable")
		}
	})
}

func TestSectionText_SiblingIsNotSubsection(t *testing.T) {
	// The entry after the target sits at the same depth; its heading must
	// not truncate the target's prose.
	sections := []wiki.Section{
		{Index: 1, Line: "Climate", TocLevel: 2},
		{Index: 2, Line: "Demographics", TocLevel: 2},
	}
	cleaned := "Climate Summers are hot and dry. Demographics appear in the census."
	got, err := SectionText(cleaned, 1, sections)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "census") {
		t.Errorf("sibling heading wrongly treated as subsection: %q", got)
	}
}

func TestSectionText_WalkSkipsMarkupOnlyHeading(t *testing.T) {
	// The first nested entry's title strips to nothing; the walk must
	// continue to the next entry that satisfies the guard and cut there.
	sections := []wiki.Section{
		{Index: 1, Line: "History", TocLevel: 1},
		{Index: 2, Line: "<i></i>", TocLevel: 2},
		{Index: 3, Line: "Founding myth", TocLevel: 3},
	}
	cleaned := "History The city was founded in 753 BC. Founding myth Romulus and Remus were twins."
	got, err := SectionText(cleaned, 1, sections)
	if err != nil {
		t.Fatal(err)
	}
	if got != "The city was founded in 753 BC." {
		t.Errorf("SectionText() = %q", got)
	}
	if strings.Contains(got, "Remus") {
		t.Errorf("nested prose survived an empty-heading entry: %q", got)
	}
}
