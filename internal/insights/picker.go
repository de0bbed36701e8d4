package insights

// Picker holds the selectable column list and the current selection.
type Picker struct {
	columns  []string
	selected string
}

// Sync refreshes the column list when its length differs from the one held,
// selecting the first column. Same-length changes such as a rename are not
// noticed. It reports whether the list was rebuilt.
func (p *Picker) Sync(columns []string) bool {
	if len(columns) == 0 || len(columns) == len(p.columns) {
		return false
	}
	p.columns = append(p.columns[:0:0], columns...)
	p.selected = p.columns[0]
	return true
}

func (p *Picker) Columns() []string {
	return append([]string(nil), p.columns...)
}

func (p *Picker) Selected() string { return p.selected }

// Select changes the selection to a listed column.
func (p *Picker) Select(name string) bool {
	for _, c := range p.columns {
		if c == name {
			p.selected = name
			return true
		}
	}
	return false
}

// Step moves the selection by delta, wrapping around.
func (p *Picker) Step(delta int) string {
	if len(p.columns) == 0 {
		return ""
	}
	idx := 0
	for i, c := range p.columns {
		if c == p.selected {
			idx = i
			break
		}
	}
	n := len(p.columns)
	idx = ((idx+delta)%n + n) % n
	p.selected = p.columns[idx]
	return p.selected
}

// Clear forgets the column list.
func (p *Picker) Clear() {
	p.columns = nil
	p.selected = ""
}
