package database

import (
	"context"
	"fmt"
	"time"

	"github.com/npezzotti/campus-courier/internal/types"
)

const (
	userColumns         = "id, name, email, password_hash, created_at, updated_at"
	taskColumns         = "id, title, price, category, status, delivery_location, stationery_details, printout_details, deadline, posted_by, accepted_by, completed_at, created_at, updated_at"
	messageColumns      = "id, task_id, sender_id, receiver_id, content, created_at"
	notificationColumns = "id, user_id, message, task_id, is_read, created_at, updated_at"
)

// DefaultNotificationLimit caps notification listings when the caller does
// not provide a positive limit.
const DefaultNotificationLimit = 20

// selectTasks reads tasks together with the names of their poster and
// accepter.
const selectTasks = "SELECT t.id, t.title, t.price, t.category, t.status, t.delivery_location, " +
	"t.stationery_details, t.printout_details, t.deadline, t.posted_by, t.accepted_by, " +
	"t.completed_at, t.created_at, t.updated_at, p.name AS posted_by_name, a.name AS accepted_by_name " +
	"FROM tasks t JOIN users p ON p.id = t.posted_by LEFT JOIN users a ON a.id = t.accepted_by"

// Now returns the current time at the precision every backend keeps. MongoDB
// dates hold milliseconds, so a record handed back from a create call equals
// the one a later read returns.
func Now() time.Time {
	return storedTime(time.Now())
}

func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func (db *SqlCourierRepository) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	id, err := newId()
	if err != nil {
		return User{}, err
	}

	ts := Now()
	u := User{
		Id:           id,
		Name:         params.Name,
		EmailAddress: params.EmailAddress,
		PasswordHash: params.PasswordHash,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}

	_, err = db.conn.ExecContext(ctx, db.rebind(
		"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?)"),
		u.Id, u.Name, u.EmailAddress, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return User{}, translateErr(err)
	}

	return u, nil
}

func (db *SqlCourierRepository) GetUserById(ctx context.Context, userId string) (User, error) {
	var u User
	err := db.conn.GetContext(ctx, &u, db.rebind(
		"SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1"), userId)
	return u, translateErr(err)
}

func (db *SqlCourierRepository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := db.conn.GetContext(ctx, &u, db.rebind(
		"SELECT "+userColumns+" FROM users WHERE email = ? LIMIT 1"), email)
	return u, translateErr(err)
}

func (db *SqlCourierRepository) CreateTask(ctx context.Context, params CreateTaskParams) (Task, error) {
	id, err := newTaskId()
	if err != nil {
		return Task{}, err
	}

	ts := Now()
	t := Task{
		Id:                id,
		Title:             params.Title,
		Price:             params.Price,
		Category:          params.Category,
		Status:            string(types.TaskStatusOpen),
		DeliveryLocation:  params.DeliveryLocation,
		StationeryDetails: params.StationeryDetails,
		PrintoutDetails:   params.PrintoutDetails,
		Deadline:          params.Deadline,
		PostedBy:          params.PostedBy,
		CreatedAt:         ts,
		UpdatedAt:         ts,
	}

	_, err = db.conn.ExecContext(ctx, db.rebind(
		"INSERT INTO tasks ("+taskColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		t.Id, t.Title, t.Price, t.Category, t.Status, t.DeliveryLocation, t.StationeryDetails,
		t.PrintoutDetails, t.Deadline, t.PostedBy, t.AcceptedBy, t.CompletedAt, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return Task{}, translateErr(err)
	}

	return db.GetTaskById(ctx, t.Id)
}

func (db *SqlCourierRepository) GetTaskById(ctx context.Context, taskId string) (Task, error) {
	var t Task
	err := db.conn.GetContext(ctx, &t, db.rebind(
		selectTasks+" WHERE t.id = ? LIMIT 1"), taskId)
	return t, translateErr(err)
}

func (db *SqlCourierRepository) ListTasksByStatus(ctx context.Context, status string) ([]Task, error) {
	return db.queryTasks(ctx,
		selectTasks+" WHERE t.status = ? ORDER BY t.created_at DESC", status)
}

func (db *SqlCourierRepository) ListTasksPostedBy(ctx context.Context, userId string) ([]Task, error) {
	return db.queryTasks(ctx,
		selectTasks+" WHERE t.posted_by = ? ORDER BY t.created_at DESC", userId)
}

func (db *SqlCourierRepository) ListTasksAcceptedBy(ctx context.Context, userId string) ([]Task, error) {
	return db.queryTasks(ctx,
		selectTasks+" WHERE t.accepted_by = ? ORDER BY t.updated_at DESC", userId)
}

func (db *SqlCourierRepository) queryTasks(ctx context.Context, query string, args ...any) ([]Task, error) {
	tasks := make([]Task, 0)
	if err := db.conn.SelectContext(ctx, &tasks, db.rebind(query), args...); err != nil {
		return nil, translateErr(err)
	}
	return tasks, nil
}

// AcceptTask moves an open task to InProgress. ErrConflict is returned when the
// task is no longer open.
func (db *SqlCourierRepository) AcceptTask(ctx context.Context, taskId, accepterId string) (Task, error) {
	res, err := db.conn.ExecContext(ctx, db.rebind(
		"UPDATE tasks SET accepted_by = ?, status = ?, updated_at = ? WHERE id = ? AND status = ?"),
		accepterId, string(types.TaskStatusInProgress), Now(), taskId, string(types.TaskStatusOpen),
	)
	if err != nil {
		return Task{}, translateErr(err)
	}

	return db.afterTransition(ctx, res.RowsAffected, taskId)
}

// CompleteTask moves an in-progress task to Completed. ErrConflict is
// returned when the task is not in progress.
func (db *SqlCourierRepository) CompleteTask(ctx context.Context, taskId string) (Task, error) {
	ts := Now()
	res, err := db.conn.ExecContext(ctx, db.rebind(
		"UPDATE tasks SET status = ?, completed_at = ?, updated_at = ? WHERE id = ? AND status = ?"),
		string(types.TaskStatusCompleted), ts, ts, taskId, string(types.TaskStatusInProgress),
	)
	if err != nil {
		return Task{}, translateErr(err)
	}

	return db.afterTransition(ctx, res.RowsAffected, taskId)
}

func (db *SqlCourierRepository) afterTransition(ctx context.Context, rowsAffected func() (int64, error), taskId string) (Task, error) {
	n, err := rowsAffected()
	if err != nil {
		return Task{}, fmt.Errorf("rows affected: %w", err)
	}

	t, err := db.GetTaskById(ctx, taskId)
	if err != nil {
		return Task{}, err
	}

	if n == 0 {
		return t, ErrConflict
	}

	return t, nil
}

func (db *SqlCourierRepository) CreateMessage(ctx context.Context, params CreateMessageParams) (Message, error) {
	id, err := newId()
	if err != nil {
		return Message{}, err
	}

	msg := Message{
		Id:         id,
		TaskId:     params.TaskId,
		SenderId:   params.SenderId,
		ReceiverId: params.ReceiverId,
		Content:    params.Content,
		CreatedAt:  storedTime(params.CreatedAt),
	}

	_, err = db.conn.ExecContext(ctx, db.rebind(
		"INSERT INTO messages ("+messageColumns+") VALUES (?, ?, ?, ?, ?, ?)"),
		msg.Id, msg.TaskId, msg.SenderId, msg.ReceiverId, msg.Content, msg.CreatedAt,
	)
	if err != nil {
		return Message{}, translateErr(err)
	}

	return msg, nil
}

func (db *SqlCourierRepository) GetMessagesByTask(ctx context.Context, taskId string) ([]Message, error) {
	messages := make([]Message, 0)
	err := db.conn.SelectContext(ctx, &messages, db.rebind(
		"SELECT "+messageColumns+" FROM messages WHERE task_id = ? ORDER BY created_at ASC, id ASC"), taskId)
	if err != nil {
		return nil, translateErr(err)
	}

	return messages, nil
}

func (db *SqlCourierRepository) CreateNotification(ctx context.Context, params CreateNotificationParams) (Notification, error) {
	id, err := newId()
	if err != nil {
		return Notification{}, err
	}

	ts := storedTime(params.CreatedAt)
	n := Notification{
		Id:        id,
		UserId:    params.UserId,
		Message:   params.Message,
		IsRead:    false,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if params.TaskId != "" {
		taskId := params.TaskId
		n.TaskId = &taskId
	}

	_, err = db.conn.ExecContext(ctx, db.rebind(
		"INSERT INTO notifications ("+notificationColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)"),
		n.Id, n.UserId, n.Message, n.TaskId, n.IsRead, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return Notification{}, translateErr(err)
	}

	return n, nil
}

func (db *SqlCourierRepository) GetNotificationById(ctx context.Context, notificationId string) (Notification, error) {
	var n Notification
	err := db.conn.GetContext(ctx, &n, db.rebind(
		"SELECT "+notificationColumns+" FROM notifications WHERE id = ? LIMIT 1"), notificationId)
	return n, translateErr(err)
}

func (db *SqlCourierRepository) ListNotifications(ctx context.Context, userId string, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = DefaultNotificationLimit
	}

	notifications := make([]Notification, 0, limit)
	err := db.conn.SelectContext(ctx, &notifications, db.rebind(
		"SELECT "+notificationColumns+" FROM notifications WHERE user_id = ? "+
			"ORDER BY created_at DESC, id DESC LIMIT ?"), userId, limit)
	if err != nil {
		return nil, translateErr(err)
	}

	return notifications, nil
}

func (db *SqlCourierRepository) MarkNotificationRead(ctx context.Context, notificationId string) error {
	res, err := db.conn.ExecContext(ctx, db.rebind(
		"UPDATE notifications SET is_read = ?, updated_at = ? WHERE id = ?"),
		true, Now(), notificationId,
	)
	if err != nil {
		return translateErr(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}
