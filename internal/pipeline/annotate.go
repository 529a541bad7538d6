package pipeline

import (
	"fmt"

	"courseflags/internal"
)

const (
	UEColumn = "UE"
	URColumn = "UR"

	FlagYes = "yes"
	FlagNo  = "no"
)

// SchemaError reports a required column missing from an input table.
type SchemaError struct {
	Column string
	Source string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required column: '%s' in %s", e.Column, e.Source)
}

type AnnotateStats struct {
	Rows  int
	UEYes int
	URYes int
}

// Annotate appends the UE and UR flag columns to table. Each flag is "yes" when
// the row's normalized course code is in the matching set. The table is left
// untouched when the course code column is missing.
func Annotate(table *internal.Table, ue, ur CodeSet) (AnnotateStats, error) {
	idx := table.ColumnIndex(CourseCodeColumn)
	if idx < 0 {
		return AnnotateStats{}, &SchemaError{Column: CourseCodeColumn, Source: table.Source}
	}

	width := len(table.Columns)
	stats := AnnotateStats{Rows: len(table.Rows)}
	for i, row := range table.Rows {
		var code string
		if idx < len(row) {
			code = NormalizeCode(row[idx])
		}
		ueFlag := flag(ue.Has(code))
		urFlag := flag(ur.Has(code))
		if ueFlag == FlagYes {
			stats.UEYes++
		}
		if urFlag == FlagYes {
			stats.URYes++
		}

		out := make([]internal.Cell, width, width+2)
		copy(out, row)
		for j := len(row); j < width; j++ {
			out[j] = internal.NullCell()
		}
		table.Rows[i] = append(out, internal.TextCell(ueFlag), internal.TextCell(urFlag))
	}
	table.Columns = append(table.Columns, UEColumn, URColumn)

	return stats, nil
}

func flag(member bool) string {
	if member {
		return FlagYes
	}
	return FlagNo
}
