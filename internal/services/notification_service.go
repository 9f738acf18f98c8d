package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"healthlink/internal/authz"
	"healthlink/internal/models"
	"healthlink/internal/repositories"
)

var ErrUnsupportedChannel = errors.New("unsupported notification channel")

const maxBroadcastRecipients = 10000

type NotificationService interface {
	Send(adminID int64, req *models.SendNotificationRequest) (*models.AdminNotification, error)
	History(adminID int64, page, pageSize int) (*models.NotificationHistory, error)
}

type notificationService struct {
	repo         repositories.NotificationRepository
	users        repositories.UserRepository
	emailService EmailService
}

func NewNotificationService(repo repositories.NotificationRepository, users repositories.UserRepository, emailService EmailService) NotificationService {
	return &notificationService{
		repo:         repo,
		users:        users,
		emailService: emailService,
	}
}

// Send resolves the recipient group, persists the notification and
// dispatches it on every requested channel.
func (s *notificationService) Send(adminID int64, req *models.SendNotificationRequest) (*models.AdminNotification, error) {
	for _, ch := range req.Channels {
		switch ch {
		case models.ChannelInApp, models.ChannelEmail:
		case models.ChannelSMS, models.ChannelPush:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedChannel, ch)
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedChannel, ch)
		}
	}

	recipients, err := s.resolveRecipients(req)
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("no recipients match %s", req.RecipientType)
	}

	idsJSON, err := json.Marshal(req.RecipientIDs)
	if err != nil {
		return nil, fmt.Errorf("encode recipient ids: %w", err)
	}

	n := &models.AdminNotification{
		SentByAdminID:   adminID,
		Title:           req.Title,
		Message:         req.Message,
		Type:            req.Type,
		Priority:        req.Priority,
		RecipientType:   req.RecipientType,
		RecipientIDs:    string(idsJSON),
		Channels:        strings.Join(req.Channels, ","),
		ScheduledAt:     req.ScheduledAt,
		Status:          models.NotificationPending,
		TotalRecipients: len(recipients),
	}
	if err := s.repo.Create(n); err != nil {
		return nil, err
	}

	sent, failed := 0, 0
	emailChannel := false
	for _, ch := range req.Channels {
		if ch == models.ChannelEmail {
			emailChannel = true
		}
	}
	for _, u := range recipients {
		if emailChannel {
			if err := s.emailService.SendNotification(u.Email, req.Title, req.Message); err != nil {
				log.Printf("[notifications] email to userID=%d failed: %v", u.ID, err)
				failed++
				continue
			}
		}
		// IN_APP delivery is recorded on the notification row itself
		sent++
	}

	if err := s.repo.MarkSent(n.ID, sent, failed); err != nil {
		return nil, err
	}
	n.SentCount = sent
	n.DeliveredCount = sent
	n.FailedCount = failed
	if sent == 0 && failed > 0 {
		n.Status = models.NotificationFailed
	} else {
		n.Status = models.NotificationSent
	}
	return n, nil
}

func (s *notificationService) resolveRecipients(req *models.SendNotificationRequest) ([]*models.User, error) {
	switch req.RecipientType {
	case models.RecipientAllUsers:
		return s.users.List("", maxBroadcastRecipients, 0)
	case models.RecipientAllDoctors:
		return s.users.List(authz.RoleDoctor, maxBroadcastRecipients, 0)
	case models.RecipientIndividualUser, models.RecipientIndividualDoctor,
		models.RecipientSelectedUsers, models.RecipientSelectedDoctors:
		if len(req.RecipientIDs) == 0 {
			return nil, fmt.Errorf("recipient ids required for %s", req.RecipientType)
		}
		var out []*models.User
		for _, id := range req.RecipientIDs {
			u, err := s.users.GetByID(id)
			if err != nil {
				return nil, err
			}
			if u == nil || u.DeletedAt != nil {
				continue
			}
			out = append(out, u)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown recipient type %q", req.RecipientType)
	}
}

func (s *notificationService) History(adminID int64, page, pageSize int) (*models.NotificationHistory, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	total, err := s.repo.CountByAdmin(adminID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListByAdmin(adminID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize != 0 {
		totalPages++
	}
	return &models.NotificationHistory{
		Notifications: items,
		TotalCount:    total,
		Page:          page,
		PageSize:      pageSize,
		TotalPages:    totalPages,
	}, nil
}
