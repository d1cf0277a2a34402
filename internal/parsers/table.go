package parsers

// RawTable is an untyped ledger: a header row and string data rows. Rows may
// be shorter than the header; missing cells read as "".
type RawTable struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// NewRawTable creates a table with the given headers and no rows
func NewRawTable(name string, headers ...string) *RawTable {
	h := make([]string, len(headers))
	copy(h, headers)
	return &RawTable{Name: name, Headers: h}
}

// AddRow appends a data row
func (t *RawTable) AddRow(values ...string) {
	row := make([]string, len(values))
	copy(row, values)
	t.Rows = append(t.Rows, row)
}

// Len returns the number of data rows
func (t *RawTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Cell returns the value at row, col or "" when the row is short
func (t *RawTable) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// ColumnIndex returns the index of the header equal to name, or -1
func (t *RawTable) ColumnIndex(name string) int {
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// RowMap returns one row keyed by header name
func (t *RawTable) RowMap(row int) map[string]string {
	m := make(map[string]string, len(t.Headers))
	for i, h := range t.Headers {
		m[h] = t.Cell(row, i)
	}
	return m
}
