package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/talaan-ph/talaan/core"
	"github.com/talaan-ph/talaan/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

type userRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Username     string         `db:"username"`
	Email        string         `db:"email"`
	IsActive     bool           `db:"is_active"`
	IsSuperuser  bool           `db:"is_superuser"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    null.Time      `db:"last_login"`
}

func (row userRow) toUser() user.User {
	isActive := row.IsActive
	return user.User{
		ID:           row.ID,
		Name:         row.Name,
		Username:     row.Username,
		Email:        row.Email,
		IsActive:     &isActive,
		IsSuperuser:  row.IsSuperuser,
		Roles:        row.Roles,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
		LastLogin:    row.LastLogin.Time,
	}
}

const userColumns = `id, name, username, email, is_active, is_superuser, roles, password_hash, created_at, updated_at, last_login`

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	ex := executor(repo.db, exec)

	excluded := make([]string, len(excludedUsers))
	for i, usr := range excludedUsers {
		excluded[i] = usr.ID
	}

	check := func(column, value string, domainErr error) error {
		query := `SELECT COUNT(*) FROM "user" WHERE ` + column + ` = $1`
		args := []interface{}{value}
		if len(excluded) > 0 {
			query += ` AND NOT (id = ANY($2))`
			args = append(args, pq.Array(excluded))
		}
		var count int
		if err := sqlx.GetContext(ctx, ex, &count, query, args...); err != nil {
			return errors.Wrap(err, "checking uniqueness")
		}
		if count > 0 {
			return domainErr
		}
		return nil
	}

	if err := check("username", username, user.ErrUsernameExists); err != nil {
		return err
	}
	return check("email", email, user.ErrEmailExists)
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	ex := executor(repo.db, exec)
	if usr.ID == "" {
		usr.ID = uuid.New().String()
	}
	isActive := usr.IsActive == nil || *usr.IsActive

	_, err := ex.ExecContext(ctx,
		`INSERT INTO "user" (id, name, username, email, is_active, is_superuser, roles, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		usr.ID, usr.Name, usr.Username, usr.Email, isActive, usr.IsSuperuser,
		pq.Array(usr.Roles), usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "creating user")
	}
	usr.IsActive = &isActive
	return usr, nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	ex := executor(repo.db, exec)

	query := `SELECT ` + userColumns + ` FROM "user"`
	var clauses []string
	var args []interface{}

	if filter != nil {
		if filter.Search != "" {
			args = append(args, "%"+filter.Search+"%")
			n := len(args)
			clauses = append(clauses, fmt.Sprintf(`(name ILIKE $%d OR username ILIKE $%d OR email ILIKE $%d)`, n, n, n))
		}
		if len(filter.Roles) > 0 {
			// role families: "admin:" matches "admin:principal" etc.
			prefixes := make([]string, len(filter.Roles))
			for i, role := range filter.Roles {
				prefixes[i] = role + "%"
			}
			args = append(args, pq.Array(prefixes))
			clauses = append(clauses, fmt.Sprintf(`EXISTS (SELECT 1 FROM unnest(roles) AS role WHERE role LIKE ANY($%d))`, len(args)))
		}
		if filter.IsActive != nil {
			args = append(args, *filter.IsActive)
			clauses = append(clauses, fmt.Sprintf(`is_active = $%d`, len(args)))
		}
		if !filter.CreatedFrom.IsZero() {
			args = append(args, filter.CreatedFrom)
			clauses = append(clauses, fmt.Sprintf(`created_at >= $%d`, len(args)))
		}
		if !filter.CreatedTo.IsZero() {
			args = append(args, filter.CreatedTo)
			clauses = append(clauses, fmt.Sprintf(`created_at <= $%d`, len(args)))
		}
	}
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += orderBy(ordering, "created_at DESC")

	var rows []userRow
	if err := sqlx.SelectContext(ctx, ex, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, len(rows))
	for i, row := range rows {
		users[i] = row.toUser()
	}
	return users, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	ex := executor(repo.db, exec)

	query := `SELECT ` + userColumns + ` FROM "user" WHERE `
	var args []interface{}
	switch {
	case filter.ID != "":
		query += `id = $1`
		args = append(args, filter.ID)
	case filter.Username != "":
		query += `username = $1`
		args = append(args, filter.Username)
	case filter.Email != "":
		query += `email = $1`
		args = append(args, filter.Email)
	case filter.UsernameOrEmail != "":
		query += `(username = $1 OR email = $1)`
		args = append(args, filter.UsernameOrEmail)
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	if err := sqlx.GetContext(ctx, ex, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool, exec ...core.DBExecutor) (user.User, error) {
	ex := executor(repo.db, exec)

	query := `UPDATE "user" SET updated_at = $2`
	args := []interface{}{usr.ID, usr.UpdatedAt}
	set := func(column string, v interface{}) {
		args = append(args, v)
		query += fmt.Sprintf(`, %s = $%d`, column, len(args))
	}

	if usr.Name != "" {
		set("name", usr.Name)
	}
	if usr.Username != "" {
		set("username", usr.Username)
	}
	if usr.Email != "" {
		set("email", usr.Email)
	}
	if usr.Roles != nil {
		set("roles", pq.Array(usr.Roles))
	}
	if usr.PasswordHash != nil {
		set("password_hash", usr.PasswordHash)
	}
	if !usr.LastLogin.IsZero() {
		set("last_login", usr.LastLogin)
	}
	if isActive != nil {
		set("is_active", *isActive)
	}
	query += ` WHERE id = $1`

	res, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUser(ctx, user.GetFilter{ID: usr.ID}, exec...)
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	if len(ids) == 0 {
		return nil
	}
	ex := executor(repo.db, exec)
	_, err := ex.ExecContext(ctx, `DELETE FROM "user" WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting users")
}

func (repo *userRepository) QueryFeatureAccess(ctx context.Context, userID string, exec ...core.DBExecutor) ([]user.FeatureAccess, error) {
	ex := executor(repo.db, exec)

	type row struct {
		UserID  string `db:"user_id"`
		Feature string `db:"feature"`
		Allow   bool   `db:"allow"`
	}
	var rows []row
	err := sqlx.SelectContext(ctx, ex, &rows,
		`SELECT user_id, feature, allow FROM feature_access WHERE user_id = $1`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying feature access")
	}

	overrides := make([]user.FeatureAccess, len(rows))
	for i, r := range rows {
		overrides[i] = user.FeatureAccess{UserID: r.UserID, Feature: user.Feature(r.Feature), Allow: r.Allow}
	}
	return overrides, nil
}
