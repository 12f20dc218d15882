package types

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "Open"
	TaskStatusInProgress TaskStatus = "InProgress"
	TaskStatusCompleted  TaskStatus = "Completed"
)

type TaskCategory string

const (
	CategoryStationery TaskCategory = "Stationery"
	CategoryPrintouts  TaskCategory = "Printouts"
)

type User struct {
	Id           string    `json:"id"`
	Name         string    `json:"name"`
	EmailAddress string    `json:"email,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

type Task struct {
	Id                string             `json:"id"`
	Title             string             `json:"title"`
	Price             float64            `json:"price"`
	Category          TaskCategory       `json:"category"`
	Status            TaskStatus         `json:"status"`
	DeliveryLocation  string             `json:"delivery_location"`
	StationeryDetails *StationeryDetails `json:"stationery_details,omitempty"`
	PrintoutDetails   *PrintoutDetails   `json:"printout_details,omitempty"`
	Deadline          *time.Time         `json:"deadline,omitempty"`
	PostedBy          string             `json:"posted_by"`
	PostedByName      string             `json:"posted_by_name,omitempty"`
	AcceptedBy        string             `json:"accepted_by,omitempty"`
	AcceptedByName    string             `json:"accepted_by_name,omitempty"`
	CompletedAt       *time.Time         `json:"completed_at,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

type StationeryItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type StationeryDetails struct {
	Items          []StationeryItem `json:"items"`
	AdditionalInfo string           `json:"additional_info,omitempty"`
}

type PrintoutDetails struct {
	FileUrl        string `json:"file_url,omitempty"`
	FileName       string `json:"file_name"`
	FileType       string `json:"file_type,omitempty"`
	Pages          int    `json:"pages,omitempty"`
	Color          bool   `json:"color"`
	DoubleSided    bool   `json:"double_sided"`
	AdditionalInfo string `json:"additional_info,omitempty"`
}

// Message is a chat message exchanged between the two participants of a task.
// SenderName is resolved when the message is sent or read.
type Message struct {
	Id         string    `json:"id"`
	TaskId     string    `json:"task_id"`
	SenderId   string    `json:"sender_id"`
	SenderName string    `json:"sender_name,omitempty"`
	ReceiverId string    `json:"receiver_id"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
}

type Notification struct {
	Id        string    `json:"id"`
	UserId    string    `json:"user_id"`
	Message   string    `json:"message"`
	TaskId    string    `json:"task_id,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
