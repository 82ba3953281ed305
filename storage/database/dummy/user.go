package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/talaan-ph/talaan/core"
	"github.com/talaan-ph/talaan/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.table))
	for _, usr := range repo.db.table {
		users = append(users, *usr)
	}
	return users
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excluded := make(map[string]struct{}, len(excludedUsers))
	for _, usr := range excludedUsers {
		excluded[usr.ID] = struct{}{}
	}

	for _, usr := range repo.query() {
		if _, ok := excluded[usr.ID]; ok {
			continue
		}
		if usr.Username == username {
			return user.ErrUsernameExists
		}
		if usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if usr.ID == "" {
		usr.ID = uuid.New().String()
	}
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var users []user.User
	for _, usr := range repo.query() {
		if filter != nil && !matchUser(usr, filter) {
			continue
		}
		users = append(users, usr)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

func matchUser(usr user.User, filter *user.QueryFilter) bool {
	if filter.Search != "" {
		s := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(usr.Name), s) &&
			!strings.Contains(strings.ToLower(usr.Username), s) &&
			!strings.Contains(strings.ToLower(usr.Email), s) {
			return false
		}
	}
	if len(filter.Roles) > 0 {
		found := false
		for _, want := range filter.Roles {
			if usr.RoleStartsWith(want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.IsActive != nil {
		if usr.IsActive == nil || *usr.IsActive != *filter.IsActive {
			return false
		}
	}
	if !filter.CreatedFrom.IsZero() && usr.CreatedAt.Before(filter.CreatedFrom) {
		return false
	}
	if !filter.CreatedTo.IsZero() && usr.CreatedAt.After(filter.CreatedTo) {
		return false
	}
	return true
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.query() {
		switch {
		case filter.ID != "" && usr.ID == filter.ID:
			return usr, nil
		case filter.Username != "" && usr.Username == filter.Username:
			return usr, nil
		case filter.Email != "" && usr.Email == filter.Email:
			return usr, nil
		case filter.UsernameOrEmail != "" && (usr.Username == filter.UsernameOrEmail || usr.Email == filter.UsernameOrEmail):
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool, exec ...core.DBExecutor) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	existing, ok := repo.db.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	if usr.Name != "" {
		existing.Name = usr.Name
	}
	if usr.Username != "" {
		existing.Username = usr.Username
	}
	if usr.Email != "" {
		existing.Email = usr.Email
	}
	if usr.Roles != nil {
		existing.Roles = usr.Roles
	}
	if usr.PasswordHash != nil {
		existing.PasswordHash = usr.PasswordHash
	}
	if !usr.LastLogin.IsZero() {
		existing.LastLogin = usr.LastLogin
	}
	if isActive != nil {
		existing.IsActive = isActive
	}
	existing.UpdatedAt = usr.UpdatedAt
	return *existing, nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

func (repo *userRepository) QueryFeatureAccess(ctx context.Context, userID string, exec ...core.DBExecutor) ([]user.FeatureAccess, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.db.access[userID], nil
}

// SetFeatureAccess seeds per-user overrides; test helper.
func SetFeatureAccess(db *DB, overrides ...user.FeatureAccess) {
	db.user.Lock()
	defer db.user.Unlock()
	for _, fa := range overrides {
		db.user.access[fa.UserID] = append(db.user.access[fa.UserID], fa)
	}
}
