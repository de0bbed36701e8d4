package dataset

// Dataset is an ordered table: rows plus the column list taken from the
// first row's keys. Rows are assumed to share one key set; nothing checks it.
type Dataset struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// FromRows builds a dataset whose column list comes from rows[0].
func FromRows(rows []Row) Dataset {
	ds := Dataset{Rows: rows}
	if len(rows) > 0 {
		ds.Columns = rows[0].Keys()
	}
	return ds
}

func (d Dataset) Len() int { return len(d.Rows) }
func (d Dataset) Empty() bool { return len(d.Rows) == 0 }
func (d Dataset) NumCols() int { return len(d.Columns) }

// Clone returns a deep copy sharing no slices or maps with d.
func (d Dataset) Clone() Dataset {
	out := Dataset{}
	if d.Columns != nil {
		out.Columns = make([]string, len(d.Columns))
		copy(out.Columns, d.Columns)
	}
	if d.Rows != nil {
		out.Rows = make([]Row, len(d.Rows))
		for i, r := range d.Rows {
			out.Rows[i] = r.Clone()
		}
	}
	return out
}

// Column returns every row's value for name, in row order.
func (d Dataset) Column(name string) []Value {
	out := make([]Value, len(d.Rows))
	for i, r := range d.Rows {
		out[i] = r.Value(name)
	}
	return out
}

func (d Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Equal compares columns and rows in order.
func (d Dataset) Equal(o Dataset) bool {
	if len(d.Columns) != len(o.Columns) || len(d.Rows) != len(o.Rows) {
		return false
	}
	for i := range d.Columns {
		if d.Columns[i] != o.Columns[i] {
			return false
		}
	}
	for i := range d.Rows {
		if !d.Rows[i].Equal(o.Rows[i]) {
			return false
		}
	}
	return true
}
