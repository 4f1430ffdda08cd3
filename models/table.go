package models

// Table is a column-oriented dataset of string cells.
type Table struct {
	header  []string
	columns map[string][]string
	rows    int
}

// NewTable creates an empty table with the given header.
func NewTable(header []string) *Table {
	t := &Table{columns: make(map[string][]string, len(header))}
	for _, name := range header {
		t.addColumn(name)
	}
	return t
}

// NewListingTable creates an empty table with the unified header.
func NewListingTable() *Table {
	return NewTable(Columns)
}

func (t *Table) addColumn(name string) {
	if _, ok := t.columns[name]; ok {
		return
	}
	t.header = append(t.header, name)
	t.columns[name] = make([]string, t.rows)
}

// Header returns the column names in order.
func (t *Table) Header() []string {
	return append([]string(nil), t.header...)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return t.rows
}

// Column returns the cells of the named column, or nil if there is no such
// column.
func (t *Table) Column(name string) []string {
	col, ok := t.columns[name]
	if !ok {
		return nil
	}
	return append([]string(nil), col...)
}

// AppendRow adds a row. Cells for unknown columns add the column; columns
// with no cell get an empty string.
func (t *Table) AppendRow(cells map[string]string) {
	for name := range cells {
		if _, ok := t.columns[name]; !ok {
			t.addColumn(name)
		}
	}
	for _, name := range t.header {
		t.columns[name] = append(t.columns[name], cells[name])
	}
	t.rows++
}

// AppendValues adds a row given in header order. Missing trailing cells are
// left empty and surplus cells are dropped.
func (t *Table) AppendValues(values []string) {
	for i, name := range t.header {
		cell := ""
		if i < len(values) {
			cell = values[i]
		}
		t.columns[name] = append(t.columns[name], cell)
	}
	t.rows++
}

// Row returns the i-th row in header order.
func (t *Table) Row(i int) []string {
	row := make([]string, len(t.header))
	for j, name := range t.header {
		row[j] = t.columns[name][i]
	}
	return row
}

// Concat appends every row of other below the existing rows. Columns are
// matched by name; the header becomes the union of both headers.
func (t *Table) Concat(other *Table) {
	if other == nil {
		return
	}
	for _, name := range other.header {
		t.addColumn(name)
	}
	for i := 0; i < other.rows; i++ {
		for _, name := range t.header {
			cell := ""
			if col, ok := other.columns[name]; ok {
				cell = col[i]
			}
			t.columns[name] = append(t.columns[name], cell)
		}
	}
	t.rows += other.rows
}
