package models

import "time"

const (
	NotificationPending = "PENDING"
	NotificationSent    = "SENT"
	NotificationFailed  = "FAILED"
)

// Recipient groups accepted by the admin notification endpoint.
const (
	RecipientIndividualUser   = "INDIVIDUAL_USER"
	RecipientIndividualDoctor = "INDIVIDUAL_DOCTOR"
	RecipientAllUsers         = "ALL_USERS"
	RecipientAllDoctors       = "ALL_DOCTORS"
	RecipientSelectedUsers    = "SELECTED_USERS"
	RecipientSelectedDoctors  = "SELECTED_DOCTORS"
)

const (
	ChannelInApp = "IN_APP"
	ChannelEmail = "EMAIL"
	ChannelSMS   = "SMS"  // enumerated, not implemented
	ChannelPush  = "PUSH" // enumerated, not implemented
)

// AdminNotification tracks a custom notification sent by an admin.
type AdminNotification struct {
	ID             int64      `json:"id"`
	SentByAdminID  int64      `json:"sent_by_admin_id"`
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	Type           string     `json:"notification_type"`
	Priority       string     `json:"priority"`
	RecipientType  string     `json:"recipient_type"`
	RecipientIDs   string     `json:"-"` // JSON array of user IDs
	Channels       string     `json:"channels"` // comma-separated
	ScheduledAt    *time.Time `json:"scheduled_at,omitempty"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	Status         string     `json:"status"`
	TotalRecipients int       `json:"total_recipients"`
	SentCount       int       `json:"sent_count"`
	DeliveredCount  int       `json:"delivered_count"`
	FailedCount     int       `json:"failed_count"`
	CreatedAt       time.Time `json:"created_at"`
}

type SendNotificationRequest struct {
	Title         string     `json:"title" binding:"required,max=200"`
	Message       string     `json:"message" binding:"required,max=2000"`
	Type          string     `json:"notification_type" binding:"required"`
	Priority      string     `json:"priority" binding:"required"`
	RecipientType string     `json:"recipient_type" binding:"required"`
	RecipientIDs  []int64    `json:"recipient_ids"`
	Channels      []string   `json:"channels" binding:"required,min=1"`
	ScheduledAt   *time.Time `json:"scheduled_at"`
}

type NotificationHistory struct {
	Notifications []*AdminNotification `json:"notifications"`
	TotalCount    int64                `json:"total_count"`
	Page          int                  `json:"page"`
	PageSize      int                  `json:"page_size"`
	TotalPages    int                  `json:"total_pages"`
}
