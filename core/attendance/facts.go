package attendance

import "time"

type factKey struct {
	enrollmentID string
	date         time.Time
	session      Session
}

// FactSet is an immutable snapshot of session records with O(1) lookup by
// (enrollment, date, session). Records written after the snapshot is built
// are not visible to it.
type FactSet struct {
	facts map[factKey]SessionRecord
}

func NewFactSet(records []SessionRecord) *FactSet {
	facts := make(map[factKey]SessionRecord, len(records))
	for _, rec := range records {
		facts[factKey{rec.EnrollmentID, Date(rec.Date), rec.Session}] = rec
	}
	return &FactSet{facts: facts}
}

// Get returns the record for the composite key, if one was loaded.
func (fs *FactSet) Get(enrollmentID string, date time.Time, session Session) (SessionRecord, bool) {
	rec, ok := fs.facts[factKey{enrollmentID, Date(date), session}]
	return rec, ok
}

// Len returns the number of loaded records.
func (fs *FactSet) Len() int { return len(fs.facts) }
