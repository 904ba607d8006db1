package alert

// Store is the ordered alert history of one tenant, most recent first.
// It is not safe for concurrent use; callers hold the tenant lock.
type Store struct {
	// records holds the history, index 0 being the most recent alert.
	records []*Record
	// lastID is the last identifier handed out. Clear does not reset it.
	lastID int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return new(Store)
}

// Insert assigns the next identifier to a copy of rec, places it at the front
// of the history and returns the stored copy.
func (s *Store) Insert(rec *Record) *Record {
	s.lastID++

	stored := rec.Clone()
	stored.ID = s.lastID
	stored.Status = StatusActive

	s.records = append(s.records, nil)
	copy(s.records[1:], s.records)
	s.records[0] = stored

	return stored.Clone()
}

// Len returns the number of records in the store.
func (s *Store) Len() int {
	return len(s.records)
}

// CountActive returns the number of active records.
func (s *Store) CountActive() int {
	var count int

	for _, rec := range s.records {
		if rec.IsActive() {
			count++
		}
	}

	return count
}

// MarkFirstActiveResolved resolves the first active record in store order
// and reports whether one was found.
func (s *Store) MarkFirstActiveResolved() bool {
	for _, rec := range s.records {
		if rec.IsActive() {
			rec.Status = StatusResolved

			return true
		}
	}

	return false
}

// MarkAllResolved resolves every active record and returns how many changed.
func (s *Store) MarkAllResolved() int {
	var changed int

	for _, rec := range s.records {
		if rec.IsActive() {
			rec.Status = StatusResolved
			changed++
		}
	}

	return changed
}

// Clear drops the whole history.
func (s *Store) Clear() {
	s.records = nil
}

// Snapshot returns copies of the most recent limit records in store order.
// A non-positive limit returns the whole history.
func (s *Store) Snapshot(limit int) []Record {
	count := len(s.records)
	if limit > 0 && limit < count {
		count = limit
	}

	result := make([]Record, count)
	for i := range count {
		result[i] = *s.records[i]
	}

	return result
}
