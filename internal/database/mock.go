package database

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockCourierRepository struct {
	mock.Mock
}

func (m *MockCourierRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockCourierRepository) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockCourierRepository) GetUserById(ctx context.Context, userId string) (User, error) {
	args := m.Called(ctx, userId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockCourierRepository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockCourierRepository) CreateTask(ctx context.Context, params CreateTaskParams) (Task, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(Task), args.Error(1)
}
func (m *MockCourierRepository) GetTaskById(ctx context.Context, taskId string) (Task, error) {
	args := m.Called(ctx, taskId)
	return args.Get(0).(Task), args.Error(1)
}
func (m *MockCourierRepository) ListTasksByStatus(ctx context.Context, status string) ([]Task, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]Task), args.Error(1)
}
func (m *MockCourierRepository) ListTasksPostedBy(ctx context.Context, userId string) ([]Task, error) {
	args := m.Called(ctx, userId)
	return args.Get(0).([]Task), args.Error(1)
}
func (m *MockCourierRepository) ListTasksAcceptedBy(ctx context.Context, userId string) ([]Task, error) {
	args := m.Called(ctx, userId)
	return args.Get(0).([]Task), args.Error(1)
}
func (m *MockCourierRepository) AcceptTask(ctx context.Context, taskId, accepterId string) (Task, error) {
	args := m.Called(ctx, taskId, accepterId)
	return args.Get(0).(Task), args.Error(1)
}
func (m *MockCourierRepository) CompleteTask(ctx context.Context, taskId string) (Task, error) {
	args := m.Called(ctx, taskId)
	return args.Get(0).(Task), args.Error(1)
}
func (m *MockCourierRepository) CreateMessage(ctx context.Context, params CreateMessageParams) (Message, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockCourierRepository) GetMessagesByTask(ctx context.Context, taskId string) ([]Message, error) {
	args := m.Called(ctx, taskId)
	return args.Get(0).([]Message), args.Error(1)
}
func (m *MockCourierRepository) CreateNotification(ctx context.Context, params CreateNotificationParams) (Notification, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(Notification), args.Error(1)
}
func (m *MockCourierRepository) GetNotificationById(ctx context.Context, notificationId string) (Notification, error) {
	args := m.Called(ctx, notificationId)
	return args.Get(0).(Notification), args.Error(1)
}
func (m *MockCourierRepository) ListNotifications(ctx context.Context, userId string, limit int) ([]Notification, error) {
	args := m.Called(ctx, userId, limit)
	return args.Get(0).([]Notification), args.Error(1)
}
func (m *MockCourierRepository) MarkNotificationRead(ctx context.Context, notificationId string) error {
	args := m.Called(ctx, notificationId)
	return args.Error(0)
}
