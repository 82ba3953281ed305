package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/talaan-ph/talaan/core"
	"github.com/talaan-ph/talaan/core/notification"
)

type notificationRepository struct {
	db *sqlx.DB
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *sqlx.DB) notification.Repository {
	return &notificationRepository{db: db}
}

type notificationRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Message   string    `db:"message"`
	URL       string    `db:"url"`
	IsRead    bool      `db:"is_read"`
	CreatedAt time.Time `db:"created_at"`
}

func (row notificationRow) toNotification() notification.Notification {
	return notification.Notification(row)
}

func (repo *notificationRepository) CreateNotifications(ctx context.Context, nots []notification.Notification, exec ...core.DBExecutor) error {
	if len(nots) == 0 {
		return nil
	}
	ex := executor(repo.db, exec)

	for _, not := range nots {
		if not.ID == "" {
			not.ID = uuid.New().String()
		}
		_, err := ex.ExecContext(ctx,
			`INSERT INTO notification (id, user_id, message, url, is_read, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			not.ID, not.UserID, not.Message, not.URL, not.IsRead, not.CreatedAt,
		)
		if err != nil {
			return errors.Wrap(err, "creating notification")
		}
	}
	return nil
}

func (repo *notificationRepository) QueryNotifications(ctx context.Context, userID string, unreadOnly bool, exec ...core.DBExecutor) ([]notification.Notification, error) {
	ex := executor(repo.db, exec)

	query := `SELECT id, user_id, message, url, is_read, created_at FROM notification WHERE user_id = $1`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC`

	var rows []notificationRow
	if err := sqlx.SelectContext(ctx, ex, &rows, query, userID); err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}
	nots := make([]notification.Notification, len(rows))
	for i, row := range rows {
		nots[i] = row.toNotification()
	}
	return nots, nil
}

func (repo *notificationRepository) GetNotification(ctx context.Context, id string, exec ...core.DBExecutor) (notification.Notification, error) {
	ex := executor(repo.db, exec)

	var row notificationRow
	err := sqlx.GetContext(ctx, ex, &row,
		`SELECT id, user_id, message, url, is_read, created_at FROM notification WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notification.Notification{}, notification.ErrNotFound
		}
		return notification.Notification{}, errors.Wrap(err, "getting notification")
	}
	return row.toNotification(), nil
}

func (repo *notificationRepository) MarkRead(ctx context.Context, userID string, ids []string, exec ...core.DBExecutor) error {
	ex := executor(repo.db, exec)

	query := `UPDATE notification SET is_read = TRUE WHERE user_id = $1`
	args := []interface{}{userID}
	if len(ids) > 0 {
		query += ` AND id = ANY($2)`
		args = append(args, pq.Array(ids))
	}
	_, err := ex.ExecContext(ctx, query, args...)
	return errors.Wrap(err, "marking notifications read")
}
