package database

import (
	"time"

	"github.com/npezzotti/campus-courier/internal/types"
)

type User struct {
	Id           string    `db:"id" bson:"_id"`
	Name         string    `db:"name" bson:"name"`
	EmailAddress string    `db:"email" bson:"email"`
	PasswordHash string    `db:"password_hash" bson:"password_hash"`
	CreatedAt    time.Time `db:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" bson:"updated_at"`
}

// Task is a stored task. PostedByName and AcceptedByName are resolved on
// reads and never written.
type Task struct {
	Id                string             `db:"id" bson:"_id"`
	Title             string             `db:"title" bson:"title"`
	Price             float64            `db:"price" bson:"price"`
	Category          string             `db:"category" bson:"category"`
	Status            string             `db:"status" bson:"status"`
	DeliveryLocation  string             `db:"delivery_location" bson:"delivery_location"`
	StationeryDetails *StationeryDetails `db:"stationery_details" bson:"stationery_details,omitempty"`
	PrintoutDetails   *PrintoutDetails   `db:"printout_details" bson:"printout_details,omitempty"`
	Deadline          *time.Time         `db:"deadline" bson:"deadline,omitempty"`
	PostedBy          string             `db:"posted_by" bson:"posted_by"`
	PostedByName      string             `db:"posted_by_name" bson:"-"`
	AcceptedBy        *string            `db:"accepted_by" bson:"accepted_by,omitempty"`
	AcceptedByName    *string            `db:"accepted_by_name" bson:"-"`
	CompletedAt       *time.Time         `db:"completed_at" bson:"completed_at,omitempty"`
	CreatedAt         time.Time          `db:"created_at" bson:"created_at"`
	UpdatedAt         time.Time          `db:"updated_at" bson:"updated_at"`
}

// AcceptedById returns the accepter of the task, or "" if nobody accepted it yet.
func (t Task) AcceptedById() string {
	if t.AcceptedBy == nil {
		return ""
	}
	return *t.AcceptedBy
}

type Message struct {
	Id         string    `db:"id" bson:"_id"`
	TaskId     string    `db:"task_id" bson:"task_id"`
	SenderId   string    `db:"sender_id" bson:"sender_id"`
	ReceiverId string    `db:"receiver_id" bson:"receiver_id"`
	Content    string    `db:"content" bson:"content"`
	CreatedAt  time.Time `db:"created_at" bson:"created_at"`
}

type Notification struct {
	Id        string    `db:"id" bson:"_id"`
	UserId    string    `db:"user_id" bson:"user_id"`
	Message   string    `db:"message" bson:"message"`
	TaskId    *string   `db:"task_id" bson:"task_id,omitempty"`
	IsRead    bool      `db:"is_read" bson:"is_read"`
	CreatedAt time.Time `db:"created_at" bson:"created_at"`
	UpdatedAt time.Time `db:"updated_at" bson:"updated_at"`
}

type CreateUserParams struct {
	Name         string
	EmailAddress string
	PasswordHash string
}

type CreateTaskParams struct {
	Title             string
	Price             float64
	Category          string
	DeliveryLocation  string
	StationeryDetails *StationeryDetails
	PrintoutDetails   *PrintoutDetails
	Deadline          *time.Time
	PostedBy          string
}

type CreateMessageParams struct {
	TaskId     string
	SenderId   string
	ReceiverId string
	Content    string
	CreatedAt  time.Time
}

type CreateNotificationParams struct {
	UserId    string
	Message   string
	TaskId    string
	CreatedAt time.Time
}

func (u User) ToType() types.User {
	return types.User{
		Id:           u.Id,
		Name:         u.Name,
		EmailAddress: u.EmailAddress,
		CreatedAt:    u.CreatedAt.UTC(),
	}
}

func (t Task) ToType() types.Task {
	var accepterName string
	if t.AcceptedByName != nil {
		accepterName = *t.AcceptedByName
	}

	return types.Task{
		Id:                t.Id,
		Title:             t.Title,
		Price:             t.Price,
		Category:          types.TaskCategory(t.Category),
		Status:            types.TaskStatus(t.Status),
		DeliveryLocation:  t.DeliveryLocation,
		StationeryDetails: t.StationeryDetails.ToType(),
		PrintoutDetails:   t.PrintoutDetails.ToType(),
		Deadline:          t.Deadline,
		PostedBy:          t.PostedBy,
		PostedByName:      t.PostedByName,
		AcceptedBy:        t.AcceptedById(),
		AcceptedByName:    accepterName,
		CompletedAt:       t.CompletedAt,
		CreatedAt:         t.CreatedAt.UTC(),
		UpdatedAt:         t.UpdatedAt.UTC(),
	}
}

// ToType converts the stored message. senderName is resolved by the caller.
func (m Message) ToType(senderName string) types.Message {
	return types.Message{
		Id:         m.Id,
		TaskId:     m.TaskId,
		SenderId:   m.SenderId,
		SenderName: senderName,
		ReceiverId: m.ReceiverId,
		Content:    m.Content,
		Timestamp:  m.CreatedAt.UTC(),
	}
}

func (n Notification) ToType() types.Notification {
	var taskId string
	if n.TaskId != nil {
		taskId = *n.TaskId
	}

	return types.Notification{
		Id:        n.Id,
		UserId:    n.UserId,
		Message:   n.Message,
		TaskId:    taskId,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.UTC(),
	}
}
