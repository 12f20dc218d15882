package database

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a conditional update finds the record in a
	// state other than the expected one.
	ErrConflict = errors.New("conflict")
)

type CourierRepository interface {
	Ping(ctx context.Context) error
	CreateUser(ctx context.Context, params CreateUserParams) (User, error)
	GetUserById(ctx context.Context, userId string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	CreateTask(ctx context.Context, params CreateTaskParams) (Task, error)
	GetTaskById(ctx context.Context, taskId string) (Task, error)
	ListTasksByStatus(ctx context.Context, status string) ([]Task, error)
	ListTasksPostedBy(ctx context.Context, userId string) ([]Task, error)
	ListTasksAcceptedBy(ctx context.Context, userId string) ([]Task, error)
	AcceptTask(ctx context.Context, taskId, accepterId string) (Task, error)
	CompleteTask(ctx context.Context, taskId string) (Task, error)
	CreateMessage(ctx context.Context, params CreateMessageParams) (Message, error)
	GetMessagesByTask(ctx context.Context, taskId string) ([]Message, error)
	CreateNotification(ctx context.Context, params CreateNotificationParams) (Notification, error)
	GetNotificationById(ctx context.Context, notificationId string) (Notification, error)
	ListNotifications(ctx context.Context, userId string, limit int) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, notificationId string) error
}

// Store is a CourierRepository backed by a live connection that must be
// released on shutdown.
type Store interface {
	CourierRepository
	Close() error
}
