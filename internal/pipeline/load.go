package pipeline

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"
	"go.uber.org/multierr"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"courseflags/internal"
	"courseflags/internal/util"
)

var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// LoadTable reads a tabular file, picking the parser from the extension. The
// first non-blank row is the header in every format.
func LoadTable(path string) (internal.Table, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".xlsx", ".xlsm", ".csv", ".txt", ".tsv", ".html", ".htm", ".xls":
	default:
		return internal.Table{}, fmt.Errorf("unsupported table format %q: %s", ext, path)
	}

	blob, err := os.ReadFile(path)
	if err != nil {
		return internal.Table{}, err
	}

	switch ext {
	case ".xlsx", ".xlsm":
		return parseXLSX(blob, path)
	case ".csv", ".txt":
		return parseDelimited(blob, ',', path)
	case ".tsv":
		return parseDelimited(blob, '\t', path)
	case ".html", ".htm":
		return parseHTMLTable(blob, path)
	default:
		return parseLegacyXLS(blob, path)
	}
}

func parseXLSX(content []byte, source string) (table internal.Table, err error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return internal.Table{}, fmt.Errorf("%s: %w", source, err)
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	table = internal.Table{Source: source}
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return table, nil
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet)
	if err != nil {
		return internal.Table{}, fmt.Errorf("%s: sheet %s: %w", source, sheet, err)
	}

	// Blank rows are skipped; the first row with data is the header.
	var header []string
	data := make([][]internal.Cell, 0, len(rows))
	for r, raw := range rows {
		if isBlankRow(raw) {
			continue
		}
		if header == nil {
			header = raw
			continue
		}
		cells := make([]internal.Cell, 0, len(raw))
		for c, text := range raw {
			name, _ := excelize.CoordinatesToCellName(c+1, r+1)
			cell, err := xlsxCell(f, sheet, name, text)
			if err != nil {
				return internal.Table{}, fmt.Errorf("%s: cell %s: %w", source, name, err)
			}
			cells = append(cells, cell)
		}
		data = append(data, cells)
	}

	if header == nil {
		return table, nil
	}

	return buildTable(source, header, data), nil
}

func isBlankRow(raw []string) bool {
	for _, text := range raw {
		if text != "" {
			return false
		}
	}
	return true
}

// xlsxCell keeps numeric cells as numbers when their displayed text is a plain
// number; dates, currencies and other formatted values stay text.
func xlsxCell(f *excelize.File, sheet, name, text string) (internal.Cell, error) {
	cell := textCell(text)
	if cell.Null {
		return cell, nil
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err != nil {
		return cell, nil
	}

	kind, err := f.GetCellType(sheet, name)
	if err != nil {
		return internal.Cell{}, err
	}
	if kind != excelize.CellTypeUnset && kind != excelize.CellTypeNumber {
		return cell, nil
	}

	raw, err := f.GetCellValue(sheet, name, excelize.Options{RawCellValue: true})
	if err != nil {
		return internal.Cell{}, err
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return cell, nil
	}
	return internal.NumberCell(text, value), nil
}

func parseDelimited(content []byte, comma rune, source string) (internal.Table, error) {
	decoded := transform.NewReader(bytes.NewReader(content), unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return internal.Table{}, fmt.Errorf("%s: no columns to parse from file", source)
	}
	if err != nil {
		return internal.Table{}, fmt.Errorf("%s: %w", source, err)
	}

	data := [][]internal.Cell{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return internal.Table{}, fmt.Errorf("%s: %w", source, err)
		}
		if len(record) > len(header) {
			line, _ := reader.FieldPos(0)
			return internal.Table{}, fmt.Errorf("%s: line %d: expected %d fields, saw %d", source, line, len(header), len(record))
		}

		cells := make([]internal.Cell, 0, len(record))
		for _, text := range record {
			cells = append(cells, textCell(text))
		}
		data = append(data, cells)
	}

	return buildTable(source, header, data), nil
}

func parseHTMLTable(content []byte, source string) (internal.Table, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return internal.Table{}, fmt.Errorf("%s: %w", source, err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return internal.Table{}, fmt.Errorf("%s: no <table> element found", source)
	}

	var header []string
	data := [][]internal.Cell{}
	for _, row := range tableRows(table) {
		texts := []string{}
		row.ChildrenFiltered("th,td").Each(func(_ int, cell *goquery.Selection) {
			texts = append(texts, util.NormalizeSpaces(cell.Text()))
		})
		if len(texts) == 0 {
			continue
		}
		if header == nil {
			header = texts
			continue
		}
		cells := make([]internal.Cell, 0, len(texts))
		for _, text := range texts {
			cells = append(cells, textCell(text))
		}
		data = append(data, cells)
	}

	return buildTable(source, header, data), nil
}

// tableRows returns the rows that belong to table itself, in document order.
// Rows of tables nested inside its cells are left out.
func tableRows(table *goquery.Selection) []*goquery.Selection {
	var rows []*goquery.Selection
	table.ChildrenFiltered("thead,tbody,tfoot,tr").Each(func(_ int, part *goquery.Selection) {
		if goquery.NodeName(part) == "tr" {
			rows = append(rows, part)
			return
		}
		part.ChildrenFiltered("tr").Each(func(_ int, row *goquery.Selection) {
			rows = append(rows, row)
		})
	})
	return rows
}

// parseLegacyXLS handles ".xls" files. Web "Export to Excel" buttons usually
// produce an HTML table or tab-separated text under that extension; genuine
// BIFF workbooks are rejected.
func parseLegacyXLS(content []byte, source string) (internal.Table, error) {
	if bytes.HasPrefix(content, oleMagic) {
		return internal.Table{}, fmt.Errorf("%s: binary .xls workbooks are not supported, save the file as .xlsx", source)
	}

	head := bytes.TrimLeft(bytes.TrimPrefix(content, []byte("\xEF\xBB\xBF")), " \t\r\n")
	if bytes.HasPrefix(head, []byte("<")) {
		return parseHTMLTable(content, source)
	}
	return parseDelimited(content, '\t', source)
}

func textCell(text string) internal.Cell {
	if util.IsMissingMarker(text) {
		return internal.Cell{Text: text, Null: true}
	}
	return internal.TextCell(text)
}

// buildTable pads every row to a common width. Blank header cells and columns
// past the end of the header are named "Unnamed: <index>".
func buildTable(source string, header []string, data [][]internal.Cell) internal.Table {
	width := len(header)
	for _, row := range data {
		if len(row) > width {
			width = len(row)
		}
	}

	columns := make([]string, width)
	for i := range columns {
		name := ""
		if i < len(header) {
			name = strings.TrimSpace(header[i])
		}
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		} else {
			name = header[i]
		}
		columns[i] = name
	}

	for i, row := range data {
		for len(row) < width {
			row = append(row, internal.NullCell())
		}
		data[i] = row
	}

	return internal.Table{Source: source, Columns: columns, Rows: data}
}
