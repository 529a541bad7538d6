package pipeline

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"courseflags/internal"
	"courseflags/internal/util"
)

// CourseCodeColumn is the join key shared by the primary and reference tables.
const CourseCodeColumn = "Course Code"

// NormalizeCode canonicalizes a course code cell for matching. Missing cells
// normalize to "".
func NormalizeCode(cell internal.Cell) string {
	if cell.Null {
		return ""
	}
	return NormalizeCodeText(cellString(cell))
}

// NormalizeCodeText trims surrounding whitespace and upper-cases with full
// Unicode case mapping, so "ß" becomes "SS".
func NormalizeCodeText(code string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(code))
}

func cellString(cell internal.Cell) string {
	if cell.Number != nil {
		return util.FormatNumber(*cell.Number)
	}
	return cell.Text
}

// CodeSet holds normalized, non-empty course codes.
type CodeSet map[string]struct{}

func NewCodeSet(codes ...string) CodeSet {
	set := CodeSet{}
	for _, code := range codes {
		set.Add(code)
	}
	return set
}

// Add normalizes code and stores it unless it is empty.
func (s CodeSet) Add(code string) {
	norm := NormalizeCodeText(code)
	if norm == "" {
		return
	}
	s[norm] = struct{}{}
}

func (s CodeSet) Has(normalized string) bool {
	if normalized == "" {
		return false
	}
	_, ok := s[normalized]
	return ok
}

func (s CodeSet) Len() int {
	return len(s)
}
