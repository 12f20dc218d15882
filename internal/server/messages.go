package server

import (
	"net/http"
	"time"

	"github.com/npezzotti/campus-courier/internal/types"
)

// Events pushed to clients without a prior request.
const (
	EventNewMessage      = "newMessage"
	EventNewNotification = "newNotification"
)

type BaseMessage struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ClientMessage is a command sent by a client over its connection.
type ClientMessage struct {
	BaseMessage
	Join  *Join  `json:"join,omitempty"`
	Leave *Leave `json:"leave,omitempty"`
}

type Join struct {
	TaskId string `json:"task_id"`
}

type Leave struct {
	TaskId string `json:"task_id"`
}

// ServerMessage is either a response to a ClientMessage or a pushed event.
type ServerMessage struct {
	BaseMessage
	Event        string              `json:"event,omitempty"`
	Response     *Response           `json:"response,omitempty"`
	Message      *types.Message      `json:"message,omitempty"`
	Notification *types.Notification `json:"notification,omitempty"`
}

type Response struct {
	ResponseCode int    `json:"response_code"`
	Error        string `json:"error,omitempty"`
	Data         any    `json:"data,omitempty"`
}

func NewMessageEvent(msg types.Message) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		Event:   EventNewMessage,
		Message: &msg,
	}
}

func NewNotificationEvent(n types.Notification) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		Event:        EventNewNotification,
		Notification: &n,
	}
}

func NoErrOK(id int, data any) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusOK,
			Data:         data,
		},
	}
}

func ErrInvalidMessage(id int) *ServerMessage {
	msg := &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusBadRequest,
			Error:        "invalid message format",
		},
	}

	if id > 0 {
		msg.Id = id
	}
	return msg
}

func ErrMissingTaskId(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusBadRequest,
			Error:        "task id is required",
		},
	}
}

func ErrServiceUnavailable(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusServiceUnavailable,
			Error:        "service unavailable",
		},
	}
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
