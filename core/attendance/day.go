package attendance

import (
	"sort"
	"time"

	"github.com/talaan-ph/talaan/core/enroll"
)

// LearnerRef identifies a learner in day-summary listings, with the guardian
// phone surfaced so staff can follow up on absences directly.
type LearnerRef struct {
	EnrollmentID  string `json:"enrollment_id"`
	StudentName   string `json:"student_name"`
	GuardianPhone string `json:"guardian_phone,omitempty"`
}

// SessionBreakdown groups one session's recorded marks by status.
type SessionBreakdown struct {
	ByStatus map[Status][]LearnerRef `json:"by_status"`
	// Missing lists learners with no record for the session.
	Missing []LearnerRef `json:"missing"`
}

// DaySummaryResult is the take-attendance dashboard view for one date.
type DaySummaryResult struct {
	Date          time.Time        `json:"date"`
	Expected      int              `json:"expected"` // sessions expected: 2 per enrollment
	Recorded      int              `json:"recorded"`
	CompletionPct float64          `json:"completion_pct"`
	AM            SessionBreakdown `json:"am"`
	PM            SessionBreakdown `json:"pm"`
}

// DaySummary breaks one date's records down per session and status over the
// given enrollments.
func DaySummary(date time.Time, enrollments []enroll.Enrollment, facts *FactSet) DaySummaryResult {
	date = Date(date)
	res := DaySummaryResult{
		Date:     date,
		Expected: len(enrollments) * 2,
		AM:       SessionBreakdown{ByStatus: make(map[Status][]LearnerRef)},
		PM:       SessionBreakdown{ByStatus: make(map[Status][]LearnerRef)},
	}

	for _, enr := range enrollments {
		ref := learnerRef(enr)
		for _, session := range []Session{SessionAM, SessionPM} {
			brk := &res.AM
			if session == SessionPM {
				brk = &res.PM
			}
			rec, ok := facts.Get(enr.ID, date, session)
			if !ok {
				brk.Missing = append(brk.Missing, ref)
				continue
			}
			res.Recorded++
			brk.ByStatus[rec.Status] = append(brk.ByStatus[rec.Status], ref)
		}
	}

	if res.Expected > 0 {
		res.CompletionPct = round2(float64(res.Recorded) / float64(res.Expected) * 100)
	}
	return res
}

// AbsentLateRank is one learner's month tally of absent and late half-day
// sessions.
type AbsentLateRank struct {
	Learner LearnerRef `json:"learner"`
	Absent  int        `json:"absent"`
	Late    int        `json:"late"`
}

// TopAbsentLate ranks learners by absent then late session counts over the
// given records, descending, returning at most limit entries. Learners with
// neither absences nor lates are left out.
func TopAbsentLate(records []SessionRecord, enrollments []enroll.Enrollment, limit int) []AbsentLateRank {
	byEnrollment := make(map[string]*AbsentLateRank, len(enrollments))
	refs := make(map[string]LearnerRef, len(enrollments))
	for _, enr := range enrollments {
		refs[enr.ID] = learnerRef(enr)
	}

	for _, rec := range records {
		ref, ok := refs[rec.EnrollmentID]
		if !ok {
			continue
		}
		rank, ok := byEnrollment[rec.EnrollmentID]
		if !ok {
			rank = &AbsentLateRank{Learner: ref}
			byEnrollment[rec.EnrollmentID] = rank
		}
		switch rec.Status {
		case StatusAbsent:
			rank.Absent++
		case StatusLate:
			rank.Late++
		}
	}

	var ranks []AbsentLateRank
	for _, rank := range byEnrollment {
		if rank.Absent > 0 || rank.Late > 0 {
			ranks = append(ranks, *rank)
		}
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Absent != ranks[j].Absent {
			return ranks[i].Absent > ranks[j].Absent
		}
		if ranks[i].Late != ranks[j].Late {
			return ranks[i].Late > ranks[j].Late
		}
		return ranks[i].Learner.StudentName < ranks[j].Learner.StudentName
	})
	if limit > 0 && len(ranks) > limit {
		ranks = ranks[:limit]
	}
	return ranks
}

func learnerRef(enr enroll.Enrollment) LearnerRef {
	ref := LearnerRef{EnrollmentID: enr.ID}
	if enr.Student != nil {
		ref.StudentName = enr.Student.DisplayName()
		ref.GuardianPhone = enr.Student.GuardianPhone
	}
	return ref
}
