// Package history keeps the cleaned datasets committed during a session.
package history

import (
	"time"

	"github.com/KaramelBytes/datawash-cli/internal/dataset"
)

// TimestampLayout is the wall-clock form shown in the history list.
const TimestampLayout = "15:04:05"

// Record is an immutable snapshot of a committed dataset.
type Record struct {
	ID        int64           `json:"id"`
	FileName  string          `json:"file_name"`
	CreatedAt time.Time       `json:"created_at"`
	Timestamp string          `json:"timestamp"`
	Data      dataset.Dataset `json:"data"`
	Rows      int             `json:"rows"`
}

func (r Record) clone() Record {
	r.Data = r.Data.Clone()
	return r
}

// Store holds records most-recent-first. Like dataset.Store it belongs to the
// UI loop and is not safe for concurrent use.
type Store struct {
	records []Record
	lastID  int64
	now     func() time.Time
}

func NewStore() *Store {
	return NewStoreWithClock(time.Now)
}

// NewStoreWithClock is NewStore with an injected clock.
func NewStoreWithClock(now func() time.Time) *Store {
	return &Store{now: now}
}

// Commit snapshots ds under fileName. An empty dataset is not recorded.
func (s *Store) Commit(ds dataset.Dataset, fileName string) (Record, bool) {
	if ds.Empty() {
		return Record{}, false
	}
	at := s.now()
	id := at.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	rec := Record{
		ID:        id,
		FileName:  fileName,
		CreatedAt: at,
		Timestamp: at.Format(TimestampLayout),
		Data:      ds.Clone(),
		Rows:      ds.Len(),
	}
	s.records = append([]Record{rec}, s.records...)
	return rec.clone(), true
}

// List returns copies of every record, newest first.
func (s *Store) List() []Record {
	out := make([]Record, len(s.records))
	for i, r := range s.records {
		out[i] = r.clone()
	}
	return out
}

func (s *Store) Find(id int64) (Record, bool) {
	for _, r := range s.records {
		if r.ID == id {
			return r.clone(), true
		}
	}
	return Record{}, false
}

func (s *Store) Len() int { return len(s.records) }
