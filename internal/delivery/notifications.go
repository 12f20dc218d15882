package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/npezzotti/campus-courier/internal/database"
	"github.com/npezzotti/campus-courier/internal/types"
	"go.uber.org/zap"
)

// UserPusher delivers a notification to the live connection of its
// recipient, reporting whether one accepted it.
type UserPusher interface {
	PushNotification(n types.Notification) bool
}

// NotificationPipeline records notifications and pushes them to recipients
// that are online. The stored record is the source of truth; the push only
// saves the recipient a refresh.
type NotificationPipeline struct {
	repo   database.CourierRepository
	pusher UserPusher
	limit  int
	log    *zap.Logger
	now    func() time.Time
}

func NewNotificationPipeline(repo database.CourierRepository, pusher UserPusher, limit int, logger *zap.Logger) *NotificationPipeline {
	if limit <= 0 {
		limit = database.DefaultNotificationLimit
	}

	return &NotificationPipeline{
		repo:   repo,
		pusher: pusher,
		limit:  limit,
		log:    logger,
		now:    database.Now,
	}
}

// NotifyUser stores a notification for userId and pushes it if the user is
// connected. taskId may be empty.
func (p *NotificationPipeline) NotifyUser(ctx context.Context, userId, text, taskId string) (types.Notification, error) {
	if userId == "" || text == "" {
		return types.Notification{}, fmt.Errorf("%w: user id and text are required", ErrInvalidArgument)
	}

	dbNotification, err := p.repo.CreateNotification(ctx, database.CreateNotificationParams{
		UserId:    userId,
		Message:   text,
		TaskId:    taskId,
		CreatedAt: p.now(),
	})
	if err != nil {
		return types.Notification{}, fmt.Errorf("create notification: %w", err)
	}

	n := dbNotification.ToType()
	if !p.pusher.PushNotification(n) {
		p.log.Debug("notification not pushed, left for next fetch",
			zap.String("user_id", userId),
			zap.String("notification_id", n.Id),
		)
	}

	return n, nil
}

// ListNotifications returns the most recent notifications of userId, newest
// first.
func (p *NotificationPipeline) ListNotifications(ctx context.Context, userId string) ([]types.Notification, error) {
	dbNotifications, err := p.repo.ListNotifications(ctx, userId, p.limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	notifications := make([]types.Notification, 0, len(dbNotifications))
	for _, n := range dbNotifications {
		notifications = append(notifications, n.ToType())
	}

	return notifications, nil
}

// MarkAsRead marks notificationId read on behalf of userId and returns it.
// Marking an already read notification succeeds without writing.
func (p *NotificationPipeline) MarkAsRead(ctx context.Context, userId, notificationId string) (types.Notification, error) {
	dbNotification, err := p.repo.GetNotificationById(ctx, notificationId)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return types.Notification{}, fmt.Errorf("%w: notification %q", ErrNotFound, notificationId)
		}
		return types.Notification{}, fmt.Errorf("get notification: %w", err)
	}

	if dbNotification.UserId != userId {
		return types.Notification{}, fmt.Errorf("%w: notification belongs to another user", ErrForbidden)
	}

	if dbNotification.IsRead {
		return dbNotification.ToType(), nil
	}

	if err := p.repo.MarkNotificationRead(ctx, notificationId); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return types.Notification{}, fmt.Errorf("%w: notification %q", ErrNotFound, notificationId)
		}
		return types.Notification{}, fmt.Errorf("mark notification read: %w", err)
	}

	dbNotification.IsRead = true
	return dbNotification.ToType(), nil
}
