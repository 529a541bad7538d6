package pipeline

import (
	"courseflags/internal"
)

// LoadReferenceSet collects the normalized codes of a reference table. The
// "Course Code" column is used when present, otherwise the first column.
func LoadReferenceSet(table internal.Table) CodeSet {
	set := CodeSet{}
	if len(table.Columns) == 0 {
		return set
	}

	idx := table.ColumnIndex(CourseCodeColumn)
	if idx < 0 {
		idx = 0
	}

	for _, cell := range table.Column(idx) {
		if code := NormalizeCode(cell); code != "" {
			set[code] = struct{}{}
		}
	}
	return set
}

// LoadReferenceSetFromFile reads path and builds its code set.
func LoadReferenceSetFromFile(path string) (CodeSet, error) {
	table, err := LoadTable(path)
	if err != nil {
		return nil, err
	}
	return LoadReferenceSet(table), nil
}
