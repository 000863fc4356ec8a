package businessflow

import (
	"context"
	"strings"

	"github.com/amirphl/property-guru/app/dto"
	"github.com/amirphl/property-guru/app/services"
	"github.com/amirphl/property-guru/models"
	"github.com/amirphl/property-guru/repository"
	"github.com/amirphl/property-guru/utils"
)

// NotificationFlow handles in-app notifications between accounts
type NotificationFlow interface {
	ListNotifications(ctx context.Context, actor *models.Account) ([]*models.Notification, error)
	CreateNotification(ctx context.Context, actor *models.Account, req *dto.CreateNotificationRequest) (*models.Notification, error)
	MarkNotificationRead(ctx context.Context, actor *models.Account, id uint) (*models.Notification, error)
	DeleteNotification(ctx context.Context, actor *models.Account, id uint) error
}

// NotificationFlowImpl implements NotificationFlow
type NotificationFlowImpl struct {
	notificationRepo repository.NotificationRepository
	accountRepo      repository.AccountRepository
	sanitizer        services.Sanitizer
}

func NewNotificationFlow(notificationRepo repository.NotificationRepository, accountRepo repository.AccountRepository, sanitizer services.Sanitizer) NotificationFlow {
	return &NotificationFlowImpl{
		notificationRepo: notificationRepo,
		accountRepo:      accountRepo,
		sanitizer:        sanitizer,
	}
}

// CanMarkNotificationRead reports whether actor may mark n as read.
// Broadcast rows are addressed to every account.
func CanMarkNotificationRead(actor *models.Account, n *models.Notification) bool {
	if actor == nil || n == nil {
		return false
	}
	return n.Broadcast || n.IsAddressedTo(actor.ID)
}

// CanDeleteNotification reports whether actor may delete n.
// Broadcast rows can only be removed by a superadmin.
func CanDeleteNotification(actor *models.Account, n *models.Notification) bool {
	if actor == nil || n == nil {
		return false
	}
	if actor.IsSuperAdmin() {
		return true
	}
	return !n.Broadcast && n.IsAddressedTo(actor.ID)
}

func (nf *NotificationFlowImpl) ListNotifications(ctx context.Context, actor *models.Account) ([]*models.Notification, error) {
	filter := models.NotificationFilter{RecipientID: utils.ToPtr(actor.ID), IncludeBroadcast: true}
	notifications, err := nf.notificationRepo.ByFilter(ctx, filter, "created_at DESC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("LIST_NOTIFICATIONS_FAILED", "Failed to list notifications", err)
	}
	return notifications, nil
}

// CreateNotification addresses one account by id, or every account with "all"
func (nf *NotificationFlowImpl) CreateNotification(ctx context.Context, actor *models.Account, req *dto.CreateNotificationRequest) (*models.Notification, error) {
	message := nf.sanitizer.Text(req.Message)
	if message == "" {
		return nil, NewBusinessError("CREATE_NOTIFICATION_FAILED", "Failed to create notification", ErrNotificationEmpty)
	}

	notification := &models.Notification{
		SenderID: utils.ToPtr(actor.ID),
		Message:  message,
	}

	recipient := strings.ToLower(strings.TrimSpace(req.Recipient))
	if recipient == models.RecipientAll {
		notification.Broadcast = true
	} else {
		id, ok := utils.ParseID(recipient)
		if !ok {
			return nil, NewBusinessError("CREATE_NOTIFICATION_FAILED", "Failed to create notification", ErrRecipientNotFound)
		}
		account, err := nf.accountRepo.ByID(ctx, id)
		if err != nil {
			return nil, NewBusinessError("CREATE_NOTIFICATION_FAILED", "Failed to create notification", err)
		}
		if account == nil {
			return nil, NewBusinessError("CREATE_NOTIFICATION_FAILED", "Failed to create notification", ErrRecipientNotFound)
		}
		notification.RecipientID = utils.ToPtr(account.ID)
	}

	if err := nf.notificationRepo.Save(ctx, notification); err != nil {
		return nil, NewBusinessError("CREATE_NOTIFICATION_FAILED", "Failed to create notification", err)
	}
	return notification, nil
}

func (nf *NotificationFlowImpl) MarkNotificationRead(ctx context.Context, actor *models.Account, id uint) (*models.Notification, error) {
	notification, err := nf.byID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("MARK_NOTIFICATION_FAILED", "Failed to mark notification read", err)
	}
	if !CanMarkNotificationRead(actor, notification) {
		return nil, NewBusinessError("MARK_NOTIFICATION_FAILED", "Failed to mark notification read", ErrNotificationForbidden)
	}

	if err := nf.notificationRepo.MarkRead(ctx, id); err != nil {
		return nil, NewBusinessError("MARK_NOTIFICATION_FAILED", "Failed to mark notification read", err)
	}
	notification.IsRead = true
	return notification, nil
}

func (nf *NotificationFlowImpl) DeleteNotification(ctx context.Context, actor *models.Account, id uint) error {
	notification, err := nf.byID(ctx, id)
	if err != nil {
		return NewBusinessError("DELETE_NOTIFICATION_FAILED", "Failed to delete notification", err)
	}
	if !CanDeleteNotification(actor, notification) {
		return NewBusinessError("DELETE_NOTIFICATION_FAILED", "Failed to delete notification", ErrNotificationForbidden)
	}

	if _, err := nf.notificationRepo.Delete(ctx, id); err != nil {
		return NewBusinessError("DELETE_NOTIFICATION_FAILED", "Failed to delete notification", err)
	}
	return nil
}

func (nf *NotificationFlowImpl) byID(ctx context.Context, id uint) (*models.Notification, error) {
	notification, err := nf.notificationRepo.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if notification == nil {
		return nil, ErrNotificationNotFound
	}
	return notification, nil
}
