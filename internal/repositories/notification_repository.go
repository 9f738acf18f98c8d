package repositories

import (
	"database/sql"
	"fmt"

	"healthlink/internal/models"
)

type NotificationRepository interface {
	Create(n *models.AdminNotification) error
	GetByID(id int64) (*models.AdminNotification, error)
	ListByAdmin(adminID int64, limit, offset int) ([]*models.AdminNotification, error)
	CountByAdmin(adminID int64) (int64, error)
	MarkSent(id int64, sentCount, failedCount int) error
}

type notificationRepository struct {
	DB *sql.DB
}

func NewNotificationRepository(db *sql.DB) NotificationRepository {
	return &notificationRepository{DB: db}
}

const notificationColumns = `
	id, sent_by_admin_id, title, message, notification_type, priority,
	recipient_type, recipient_ids, channels, scheduled_at, sent_at, status,
	total_recipients, sent_count, delivered_count, failed_count, created_at
`

func scanNotification(row interface{ Scan(...any) error }) (*models.AdminNotification, error) {
	n := &models.AdminNotification{}
	err := row.Scan(
		&n.ID, &n.SentByAdminID, &n.Title, &n.Message, &n.Type, &n.Priority,
		&n.RecipientType, &n.RecipientIDs, &n.Channels, &n.ScheduledAt, &n.SentAt, &n.Status,
		&n.TotalRecipients, &n.SentCount, &n.DeliveredCount, &n.FailedCount, &n.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan notification: %w", err)
	}
	return n, nil
}

func (r *notificationRepository) Create(n *models.AdminNotification) error {
	const q = `
		INSERT INTO admin_notifications (
			sent_by_admin_id, title, message, notification_type, priority,
			recipient_type, recipient_ids, channels, scheduled_at, status,
			total_recipients, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NOW())
		RETURNING id, created_at
	`
	if err := r.DB.QueryRow(q,
		n.SentByAdminID, n.Title, n.Message, n.Type, n.Priority,
		n.RecipientType, n.RecipientIDs, n.Channels, n.ScheduledAt, n.Status,
		n.TotalRecipients,
	).Scan(&n.ID, &n.CreatedAt); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) GetByID(id int64) (*models.AdminNotification, error) {
	q := `SELECT ` + notificationColumns + ` FROM admin_notifications WHERE id = $1`
	return scanNotification(r.DB.QueryRow(q, id))
}

func (r *notificationRepository) ListByAdmin(adminID int64, limit, offset int) ([]*models.AdminNotification, error) {
	q := `SELECT ` + notificationColumns + ` FROM admin_notifications WHERE sent_by_admin_id = $1` +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)
	rows, err := r.DB.Query(q, adminID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*models.AdminNotification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *notificationRepository) CountByAdmin(adminID int64) (int64, error) {
	var n int64
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM admin_notifications WHERE sent_by_admin_id = $1`, adminID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return n, nil
}

func (r *notificationRepository) MarkSent(id int64, sentCount, failedCount int) error {
	const q = `
		UPDATE admin_notifications
		SET status = $1, sent_at = NOW(), sent_count = $2, delivered_count = $2, failed_count = $3
		WHERE id = $4
	`
	status := models.NotificationSent
	if sentCount == 0 && failedCount > 0 {
		status = models.NotificationFailed
	}
	if _, err := r.DB.Exec(q, status, sentCount, failedCount, id); err != nil {
		return fmt.Errorf("mark notification sent: %w", err)
	}
	return nil
}
