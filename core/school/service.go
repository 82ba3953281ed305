package school

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/talaan-ph/talaan/core"
)

var (
	// errors
	ErrNotFound        = errors.New("school year not found")
	ErrSectionNotFound = errors.New("section not found")
	ErrNameExists      = errors.New("a school year with this name already exists")
)

type (
	Repository interface {
		CheckSchoolYearNameUniqueness(ctx context.Context, name string, excluded []SchoolYear, exec ...core.DBExecutor) error
		CreateSchoolYear(ctx context.Context, sy SchoolYear, exec ...core.DBExecutor) (SchoolYear, error)
		QuerySchoolYears(ctx context.Context, exec ...core.DBExecutor) ([]SchoolYear, error)
		GetSchoolYear(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (SchoolYear, error)
		UpdateSchoolYear(ctx context.Context, sy SchoolYear, isActive *bool, exec ...core.DBExecutor) (SchoolYear, error)
		// DeactivateOtherSchoolYears clears is_active on every school year but the given one.
		DeactivateOtherSchoolYears(ctx context.Context, id string, exec ...core.DBExecutor) error

		CreateSection(ctx context.Context, sec Section, exec ...core.DBExecutor) (Section, error)
		// QuerySections returns the school year's sections; a non-empty adviserID restricts
		// to sections advised by that user.
		QuerySections(ctx context.Context, schoolYearID, adviserID string, exec ...core.DBExecutor) ([]Section, error)
		GetSection(ctx context.Context, id string, exec ...core.DBExecutor) (Section, error)
	}

	ServiceInterface interface {
		CheckNameUniqueness(name string, excluded ...SchoolYear) error
		Create(ctx context.Context, nsy NewSchoolYear) (SchoolYear, error)
		Query(ctx context.Context) ([]SchoolYear, error)
		GetByID(ctx context.Context, id string) (SchoolYear, error)
		Active(ctx context.Context) (SchoolYear, error)
		Update(ctx context.Context, id string, usy UpdateSchoolYear) (SchoolYear, error)
		CreateSection(ctx context.Context, schoolYearID string, ns NewSection) (Section, error)
		SectionsFor(ctx context.Context, schoolYearID, adviserID string) ([]Section, error)
		GetSection(ctx context.Context, id string) (Section, error)
	}

	Service struct {
		db   core.DB
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(db core.DB, repo Repository) *Service {
	return &Service{db: db, repo: repo}
}

func (svc *Service) CheckNameUniqueness(name string, excluded ...SchoolYear) error {
	if err := svc.repo.CheckSchoolYearNameUniqueness(context.Background(), name, excluded); err != nil {
		if errors.Cause(err) == ErrNameExists {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Create saves a new school year. Activating it deactivates all others in the
// same transaction so that at most one school year is ever active.
func (svc *Service) Create(ctx context.Context, nsy NewSchoolYear) (SchoolYear, error) {
	now := time.Now().UTC()
	sy := SchoolYear{
		Name:      nsy.Name,
		StartDate: nsy.StartDate,
		EndDate:   nsy.EndDate,
		IsActive:  nsy.IsActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return SchoolYear{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	sy, err = svc.repo.CreateSchoolYear(ctx, sy, tx)
	if err != nil {
		return SchoolYear{}, errors.Wrap(err, "creating school year")
	}
	if sy.IsActive {
		if err = svc.repo.DeactivateOtherSchoolYears(ctx, sy.ID, tx); err != nil {
			return SchoolYear{}, errors.Wrap(err, "deactivating other school years")
		}
	}
	if err = tx.Commit(); err != nil {
		return SchoolYear{}, errors.Wrap(err, "committing transaction")
	}
	return sy, nil
}

func (svc *Service) Query(ctx context.Context) ([]SchoolYear, error) {
	return svc.repo.QuerySchoolYears(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (SchoolYear, error) {
	return svc.repo.GetSchoolYear(ctx, GetFilter{ID: id})
}

// Active returns the currently active school year.
func (svc *Service) Active(ctx context.Context) (SchoolYear, error) {
	return svc.repo.GetSchoolYear(ctx, GetFilter{Active: true})
}

func (svc *Service) Update(ctx context.Context, id string, usy UpdateSchoolYear) (SchoolYear, error) {
	sy := SchoolYear{
		ID:        id,
		Name:      usy.Name,
		StartDate: usy.StartDate,
		EndDate:   usy.EndDate,
		UpdatedAt: time.Now().UTC(),
	}

	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return SchoolYear{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	sy, err = svc.repo.UpdateSchoolYear(ctx, sy, usy.IsActive, tx)
	if err != nil {
		return SchoolYear{}, errors.Wrap(err, "updating school year")
	}
	if sy.IsActive {
		if err = svc.repo.DeactivateOtherSchoolYears(ctx, sy.ID, tx); err != nil {
			return SchoolYear{}, errors.Wrap(err, "deactivating other school years")
		}
	}
	if err = tx.Commit(); err != nil {
		return SchoolYear{}, errors.Wrap(err, "committing transaction")
	}
	return sy, nil
}

func (svc *Service) CreateSection(ctx context.Context, schoolYearID string, ns NewSection) (Section, error) {
	sec := Section{
		Name:         ns.Name,
		SchoolYearID: schoolYearID,
		AdviserID:    ns.AdviserID,
	}
	return svc.repo.CreateSection(ctx, sec)
}

func (svc *Service) SectionsFor(ctx context.Context, schoolYearID, adviserID string) ([]Section, error) {
	return svc.repo.QuerySections(ctx, schoolYearID, adviserID)
}

func (svc *Service) GetSection(ctx context.Context, id string) (Section, error) {
	return svc.repo.GetSection(ctx, id)
}
