// Package dataset holds the live table behind the dashboard and notifies
// subscribed views whenever it changes.
package dataset

import "time"

// Store owns the live dataset. It is driven from a single event loop and is
// not safe for concurrent use.
type Store struct {
	rows      []Row
	columns   []string
	observers []*subscription
	now       func() time.Time
}

func NewStore() *Store {
	return &Store{now: time.Now}
}

type subscription struct {
	o Observer
}

// Subscribe registers o for every subsequent mutation. The returned func
// removes this registration; calling it again is a no-op.
func (s *Store) Subscribe(o Observer) (unsubscribe func()) {
	sub := &subscription{o: o}
	s.observers = append(s.observers, sub)
	return func() {
		for i, cur := range s.observers {
			if cur == sub {
				s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) notify(e Event) {
	e.Rows = len(s.rows)
	e.At = s.now()
	for _, sub := range s.observers {
		sub.o.OnEvent(e)
	}
}

// Load replaces the dataset. The column list comes from the first row. An
// empty input leaves the store untouched and reports false.
func (s *Store) Load(rows []Row) bool {
	if len(rows) == 0 {
		return false
	}
	s.rows = make([]Row, len(rows))
	for i, r := range rows {
		s.rows[i] = r.Clone()
	}
	s.columns = rows[0].Keys()
	s.notify(Event{Kind: EventLoaded, Row: -1})
	return true
}

// Get returns a deep copy of the live dataset.
func (s *Store) Get() Dataset {
	return Dataset{Columns: s.columns, Rows: s.rows}.Clone()
}

func (s *Store) Len() int { return len(s.rows) }

func (s *Store) Empty() bool { return len(s.rows) == 0 }

func (s *Store) Columns() []string {
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

// Cell returns the value at (row, column); out of range reads as null.
func (s *Store) Cell(row int, column string) Value {
	if row < 0 || row >= len(s.rows) {
		return Null()
	}
	return s.rows[row].Value(column)
}

// UpdateCell stores raw edited text at (row, column), coercing numeric text
// to a number.
func (s *Store) UpdateCell(row int, column, raw string) error {
	if row < 0 || row >= len(s.rows) {
		return newRowOutOfRange("update_cell", row, len(s.rows))
	}
	if !s.hasColumn(column) && !s.rows[row].Has(column) {
		return newUnknownColumn(row, column, len(s.rows))
	}
	s.rows[row].Set(column, Coerce(raw))
	s.notify(Event{Kind: EventCellUpdated, Row: row, Column: column})
	return nil
}

// DeleteRow removes one row; later rows shift up by one.
func (s *Store) DeleteRow(row int) error {
	if row < 0 || row >= len(s.rows) {
		return newRowOutOfRange("delete_row", row, len(s.rows))
	}
	s.rows = append(s.rows[:row], s.rows[row+1:]...)
	s.notify(Event{Kind: EventRowDeleted, Row: row})
	return nil
}

// AddRow appends a row with every column set to numeric zero, whatever the
// column holds elsewhere. Without columns there is nothing to add.
func (s *Store) AddRow() bool {
	if len(s.columns) == 0 {
		return false
	}
	vals := make([]Value, len(s.columns))
	for i := range vals {
		vals[i] = Number(0)
	}
	s.rows = append(s.rows, NewRow(s.columns, vals))
	s.notify(Event{Kind: EventRowAdded, Row: len(s.rows) - 1})
	return true
}

// Reset clears the store to an empty dataset.
func (s *Store) Reset() {
	s.rows = nil
	s.columns = nil
	s.notify(Event{Kind: EventReset, Row: -1})
}

func (s *Store) hasColumn(name string) bool {
	for _, c := range s.columns {
		if c == name {
			return true
		}
	}
	return false
}
