package attendance

import (
	"context"
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/talaan-ph/talaan/core"
	"github.com/talaan-ph/talaan/core/school"
)

// ImportResult tallies a non-school-day CSV import.
type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

var kindAliases = map[string]string{
	"hol":        KindHoliday,
	"holiday":    KindHoliday,
	"h":          KindHoliday,
	"sus":        KindSuspension,
	"suspension": KindSuspension,
	"suspended":  KindSuspension,
	"c":          KindSuspension, // class suspension
}

var importDateLayouts = []string{"2006-01-02", "01/02/2006", "2006/01/02"}

func parseImportDate(s string) (time.Time, bool) {
	for _, layout := range importDateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return Date(d), true
		}
	}
	return time.Time{}, false
}

// ImportNonSchoolDays reads `date,kind,title,notes` rows and upserts them as
// the school year's non-school days. Malformed rows, unknown kinds and dates
// outside the school year are skipped and tallied, never aborting the file.
// A header row and a UTF-8 byte order mark are tolerated.
func (svc *Service) ImportNonSchoolDays(ctx context.Context, sy school.SchoolYear, r io.Reader) (ImportResult, error) {
	var res ImportResult

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	first := true
	var touched []time.Time
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if errors.Is(err, csv.ErrFieldCount) {
				res.Skipped++
				continue
			}
			return res, errors.Wrap(err, "reading csv")
		}
		if first {
			first = false
			if len(row) > 0 {
				row[0] = strings.TrimPrefix(row[0], "\uFEFF")
				if strings.EqualFold(strings.TrimSpace(row[0]), "date") {
					continue
				}
			}
		}
		if len(row) < 2 {
			res.Skipped++
			continue
		}

		date, ok := parseImportDate(strings.TrimSpace(row[0]))
		if !ok || !sy.Contains(date) {
			res.Skipped++
			continue
		}
		kind, ok := kindAliases[strings.ToLower(strings.TrimSpace(row[1]))]
		if !ok {
			res.Skipped++
			continue
		}

		nsd := NonSchoolDay{SchoolYearID: sy.ID, Date: date, Kind: kind}
		if len(row) > 2 {
			nsd.Title = core.CleanString(row[2])
		}
		if len(row) > 3 {
			nsd.Notes = core.CleanString(row[3])
		}

		_, created, err := svc.repo.UpsertNonSchoolDay(ctx, nsd)
		if err != nil {
			return res, errors.Wrapf(err, "saving non-school day %s", date.Format("2006-01-02"))
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
		touched = append(touched, date)
	}

	for _, month := range distinctMonths(touched) {
		svc.invalidateMonth(sy.ID, month.year, month.month, nil, nil, "")
	}
	return res, nil
}

type yearMonth struct {
	year  int
	month time.Month
}

func distinctMonths(dates []time.Time) []yearMonth {
	seen := make(map[yearMonth]struct{}, len(dates))
	var out []yearMonth
	for _, d := range dates {
		ym := yearMonth{d.Year(), d.Month()}
		if _, ok := seen[ym]; ok {
			continue
		}
		seen[ym] = struct{}{}
		out = append(out, ym)
	}
	return out
}
