package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/talaan-ph/talaan/core"
	"github.com/talaan-ph/talaan/core/school"
)

type schoolRepository struct {
	db *schoolTable
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db.school}
}

func (repo *schoolRepository) CheckSchoolYearNameUniqueness(ctx context.Context, name string, excluded []school.SchoolYear, exec ...core.DBExecutor) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excludedIDs := make(map[string]struct{}, len(excluded))
	for _, sy := range excluded {
		excludedIDs[sy.ID] = struct{}{}
	}
	for _, sy := range repo.db.years {
		if _, ok := excludedIDs[sy.ID]; ok {
			continue
		}
		if sy.Name == name {
			return school.ErrNameExists
		}
	}
	return nil
}

func (repo *schoolRepository) CreateSchoolYear(ctx context.Context, sy school.SchoolYear, exec ...core.DBExecutor) (school.SchoolYear, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if sy.ID == "" {
		sy.ID = uuid.New().String()
	}
	repo.db.years[sy.ID] = &sy
	return sy, nil
}

func (repo *schoolRepository) QuerySchoolYears(ctx context.Context, exec ...core.DBExecutor) ([]school.SchoolYear, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sys := make([]school.SchoolYear, 0, len(repo.db.years))
	for _, sy := range repo.db.years {
		sys = append(sys, *sy)
	}
	sort.Slice(sys, func(i, j int) bool { return sys[i].StartDate.After(sys[j].StartDate) })
	return sys, nil
}

func (repo *schoolRepository) GetSchoolYear(ctx context.Context, filter school.GetFilter, exec ...core.DBExecutor) (school.SchoolYear, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, sy := range repo.db.years {
		if filter.ID != "" && sy.ID == filter.ID {
			return *sy, nil
		}
		if filter.ID == "" && filter.Active && sy.IsActive {
			return *sy, nil
		}
	}
	return school.SchoolYear{}, school.ErrNotFound
}

func (repo *schoolRepository) UpdateSchoolYear(ctx context.Context, sy school.SchoolYear, isActive *bool, exec ...core.DBExecutor) (school.SchoolYear, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	existing, ok := repo.db.years[sy.ID]
	if !ok {
		return school.SchoolYear{}, school.ErrNotFound
	}
	existing.Name = sy.Name
	existing.StartDate = sy.StartDate
	existing.EndDate = sy.EndDate
	existing.UpdatedAt = sy.UpdatedAt
	if isActive != nil {
		existing.IsActive = *isActive
	}
	return *existing, nil
}

func (repo *schoolRepository) DeactivateOtherSchoolYears(ctx context.Context, id string, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, sy := range repo.db.years {
		if sy.ID != id {
			sy.IsActive = false
		}
	}
	return nil
}

func (repo *schoolRepository) CreateSection(ctx context.Context, sec school.Section, exec ...core.DBExecutor) (school.Section, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if sec.ID == "" {
		sec.ID = uuid.New().String()
	}
	repo.db.sections[sec.ID] = &sec
	return sec, nil
}

func (repo *schoolRepository) QuerySections(ctx context.Context, schoolYearID, adviserID string, exec ...core.DBExecutor) ([]school.Section, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var secs []school.Section
	for _, sec := range repo.db.sections {
		if sec.SchoolYearID != schoolYearID {
			continue
		}
		if adviserID != "" && sec.AdviserID != adviserID {
			continue
		}
		secs = append(secs, *sec)
	}
	sort.Slice(secs, func(i, j int) bool { return secs[i].Name < secs[j].Name })
	return secs, nil
}

func (repo *schoolRepository) GetSection(ctx context.Context, id string, exec ...core.DBExecutor) (school.Section, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sec, ok := repo.db.sections[id]; ok {
		return *sec, nil
	}
	return school.Section{}, school.ErrSectionNotFound
}
