package notification

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/talaan-ph/talaan/core"
)

var ErrNotFound = errors.New("notification not found")

// Notification is a short in-app message for one user, typically linking to
// the screen where the triggering event can be reviewed.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	URL       string    `json:"url"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type (
	Repository interface {
		CreateNotifications(ctx context.Context, nots []Notification, exec ...core.DBExecutor) error
		QueryNotifications(ctx context.Context, userID string, unreadOnly bool, exec ...core.DBExecutor) ([]Notification, error)
		GetNotification(ctx context.Context, id string, exec ...core.DBExecutor) (Notification, error)
		MarkRead(ctx context.Context, userID string, ids []string, exec ...core.DBExecutor) error
	}

	ServiceInterface interface {
		Notify(ctx context.Context, userIDs []string, message, url string, exec ...core.DBExecutor) error
		For(ctx context.Context, userID string, unreadOnly bool) ([]Notification, error)
		MarkRead(ctx context.Context, userID string, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Notify fans one message out to every given user. Duplicate recipient IDs
// are collapsed so a user is notified once per event.
func (svc *Service) Notify(ctx context.Context, userIDs []string, message, url string, exec ...core.DBExecutor) error {
	now := time.Now().UTC()
	seen := make(map[string]struct{}, len(userIDs))
	nots := make([]Notification, 0, len(userIDs))
	for _, uid := range userIDs {
		if uid == "" {
			continue
		}
		if _, ok := seen[uid]; ok {
			continue
		}
		seen[uid] = struct{}{}
		nots = append(nots, Notification{
			UserID:    uid,
			Message:   message,
			URL:       url,
			CreatedAt: now,
		})
	}
	if len(nots) == 0 {
		return nil
	}
	return svc.repo.CreateNotifications(ctx, nots, exec...)
}

func (svc *Service) For(ctx context.Context, userID string, unreadOnly bool) ([]Notification, error) {
	return svc.repo.QueryNotifications(ctx, userID, unreadOnly)
}

func (svc *Service) MarkRead(ctx context.Context, userID string, ids ...string) error {
	return svc.repo.MarkRead(ctx, userID, ids)
}
