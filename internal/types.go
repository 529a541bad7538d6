package internal

// Cell is one spreadsheet value. Null marks a missing value; Text still holds
// whatever the source file contained so it can be written back unchanged.
type Cell struct {
	Text   string
	Null   bool
	Number *float64
}

func TextCell(text string) Cell {
	return Cell{Text: text}
}

func NullCell() Cell {
	return Cell{Null: true}
}

func NumberCell(text string, value float64) Cell {
	return Cell{Text: text, Number: &value}
}

type Table struct {
	Source  string
	Columns []string
	Rows    [][]Cell
}

// ColumnIndex returns the position of the first column with the given name, or -1.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

func (t Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Column returns the cells of column idx for every row. Rows shorter than idx
// yield a null cell.
func (t Table) Column(idx int) []Cell {
	out := make([]Cell, 0, len(t.Rows))
	for _, row := range t.Rows {
		if idx >= 0 && idx < len(row) {
			out = append(out, row[idx])
			continue
		}
		out = append(out, NullCell())
	}
	return out
}

type RunRecord struct {
	ID          int
	TraceID     string
	PrimaryPath string
	UERefPath   string
	URRefPath   string
	OutputPath  string
	RowCount    int
	UEYes       int
	URYes       int
	UERefSize   int
	URRefSize   int
	Timings     map[string]float64
	CreatedAt   string
}
