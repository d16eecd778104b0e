package roster

import (
	"jailcheck/internal/custody/models"
)

// Index is a point-in-time roster snapshot keyed by normalized lookup key.
// Several records may share a key. An Index is read-only once built and is
// safe for concurrent lookups.
type Index struct {
	records []models.InmateRecord
	byKey   map[string][]int
}

// NewIndex builds an Index from roster records.
//
// Records are deduplicated by booking number, falling back to name and
// booking date when the card carries no booking number; the first occurrence
// wins. Released records and records whose name yields no lookup key are left
// out, so every indexed record is reachable by each of its keys.
func NewIndex(records ...models.InmateRecord) *Index {
	idx := &Index{byKey: make(map[string][]int)}
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.Released() || !r.Name.HasKeys() {
			continue
		}
		id := identityOf(r)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		pos := len(idx.records)
		idx.records = append(idx.records, r)
		for _, key := range r.Name.Keys {
			idx.byKey[key] = append(idx.byKey[key], pos)
		}
	}
	return idx
}

func identityOf(r models.InmateRecord) string {
	if r.BookingNumber != "" {
		return "booking:" + r.BookingNumber
	}
	return "name:" + r.Name.Display() + "|" + r.BookingDateText
}

// Lookup returns the records indexed under key in roster order. The returned
// slice is a copy.
func (i *Index) Lookup(key string) []models.InmateRecord {
	if i == nil {
		return nil
	}
	positions := i.byKey[key]
	if len(positions) == 0 {
		return nil
	}
	out := make([]models.InmateRecord, 0, len(positions))
	for _, p := range positions {
		out = append(out, i.records[p])
	}
	return out
}

// Records returns a copy of every indexed record in roster order.
func (i *Index) Records() []models.InmateRecord {
	if i == nil {
		return nil
	}
	out := make([]models.InmateRecord, len(i.records))
	copy(out, i.records)
	return out
}

// Len is the number of distinct indexed inmates.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.records)
}
