package rowsource

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	domain "github.com/oh-sansi/olympiad-backend/app/modules/enrollment/domain"
)

// ReadXLSX reads the first sheet of an XLSX workbook into ordered raw rows.
// Row 1 must carry the header contract; data rows keep their spreadsheet row
// numbers so the report points back at the submitted file. Unknown extra
// columns are ignored; missing contract columns fail the whole read.
func ReadXLSX(r io.Reader) ([]domain.RawRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("XLSX file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	colIndex, err := headerIndex(rows[0])
	if err != nil {
		return nil, err
	}

	out := make([]domain.RawRow, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		rowNum := i + 2 // header is spreadsheet row 1
		if isBlankRow(cells) {
			continue
		}
		fields := make(map[string]string, len(domain.Columns))
		for col, idx := range colIndex {
			if idx < len(cells) {
				fields[col] = cells[idx]
			} else {
				fields[col] = ""
			}
		}
		out = append(out, domain.RawRow{Row: rowNum, Fields: fields})
	}
	return out, nil
}

// headerIndex maps every contract column to its position in the header row.
// Header matching is case- and whitespace-insensitive.
func headerIndex(header []string) (map[string]int, error) {
	seen := make(map[string]int, len(header))
	for idx, cell := range header {
		name := strings.ToUpper(strings.TrimSpace(cell))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; !dup {
			seen[name] = idx
		}
	}

	colIndex := make(map[string]int, len(domain.Columns))
	var missing []string
	for _, col := range domain.Columns {
		idx, ok := seen[col]
		if !ok {
			missing = append(missing, col)
			continue
		}
		colIndex[col] = idx
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("header row is missing required columns: %s", strings.Join(missing, ", "))
	}
	return colIndex, nil
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
