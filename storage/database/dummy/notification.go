package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/talaan-ph/talaan/core"
	"github.com/talaan-ph/talaan/core/notification"
)

type notificationRepository struct {
	db *notificationTable
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *DB) notification.Repository {
	return &notificationRepository{db: db.notification}
}

func (repo *notificationRepository) CreateNotifications(ctx context.Context, nots []notification.Notification, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, not := range nots {
		if not.ID == "" {
			not.ID = uuid.New().String()
		}
		stored := not
		repo.db.table[not.ID] = &stored
	}
	return nil
}

func (repo *notificationRepository) QueryNotifications(ctx context.Context, userID string, unreadOnly bool, exec ...core.DBExecutor) ([]notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var nots []notification.Notification
	for _, not := range repo.db.table {
		if not.UserID != userID {
			continue
		}
		if unreadOnly && not.IsRead {
			continue
		}
		nots = append(nots, *not)
	}
	sort.Slice(nots, func(i, j int) bool { return nots[i].CreatedAt.After(nots[j].CreatedAt) })
	return nots, nil
}

func (repo *notificationRepository) GetNotification(ctx context.Context, id string, exec ...core.DBExecutor) (notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if not, ok := repo.db.table[id]; ok {
		return *not, nil
	}
	return notification.Notification{}, notification.ErrNotFound
}

func (repo *notificationRepository) MarkRead(ctx context.Context, userID string, ids []string, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	for _, not := range repo.db.table {
		if not.UserID != userID {
			continue
		}
		if len(wanted) > 0 {
			if _, ok := wanted[not.ID]; !ok {
				continue
			}
		}
		not.IsRead = true
	}
	return nil
}
