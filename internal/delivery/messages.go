package delivery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/npezzotti/campus-courier/internal/database"
	"github.com/npezzotti/campus-courier/internal/types"
	"go.uber.org/zap"
)

// RoomBroadcaster fans a persisted message out to the live room of its task.
type RoomBroadcaster interface {
	BroadcastMessage(msg types.Message) int
}

// MessagePipeline validates, persists and broadcasts chat messages between
// the poster and the accepter of a task.
type MessagePipeline struct {
	repo  database.CourierRepository
	rooms RoomBroadcaster
	log   *zap.Logger
	now   func() time.Time
}

func NewMessagePipeline(repo database.CourierRepository, rooms RoomBroadcaster, logger *zap.Logger) *MessagePipeline {
	return &MessagePipeline{
		repo:  repo,
		rooms: rooms,
		log:   logger,
		now:   database.Now,
	}
}

// SendMessage stores content as a message from senderId to the other
// participant of taskId, then broadcasts it to the task's room. The message is
// stored even if nobody is in the room.
func (p *MessagePipeline) SendMessage(ctx context.Context, senderId, taskId, content string) (types.Message, error) {
	if taskId == "" || strings.TrimSpace(content) == "" {
		return types.Message{}, fmt.Errorf("%w: task id and content are required", ErrInvalidArgument)
	}

	task, err := p.loadTask(ctx, taskId)
	if err != nil {
		return types.Message{}, err
	}

	receiverId, err := receiverFor(task, senderId)
	if err != nil {
		return types.Message{}, err
	}

	dbMsg, err := p.repo.CreateMessage(ctx, database.CreateMessageParams{
		TaskId:     task.Id,
		SenderId:   senderId,
		ReceiverId: receiverId,
		Content:    content,
		CreatedAt:  p.now(),
	})
	if err != nil {
		return types.Message{}, fmt.Errorf("create message: %w", err)
	}

	msg := dbMsg.ToType(p.userName(ctx, senderId))
	p.rooms.BroadcastMessage(msg)

	return msg, nil
}

// GetTaskMessages returns the messages of taskId oldest first. Only the
// participants of the task may read them.
func (p *MessagePipeline) GetTaskMessages(ctx context.Context, requesterId, taskId string) ([]types.Message, error) {
	task, err := p.loadTask(ctx, taskId)
	if err != nil {
		return nil, err
	}

	if !isParticipant(task, requesterId) {
		return nil, fmt.Errorf("%w: not a participant of this task", ErrForbidden)
	}

	dbMessages, err := p.repo.GetMessagesByTask(ctx, task.Id)
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}

	names := make(map[string]string)
	messages := make([]types.Message, 0, len(dbMessages))
	for _, m := range dbMessages {
		name, ok := names[m.SenderId]
		if !ok {
			name = p.userName(ctx, m.SenderId)
			names[m.SenderId] = name
		}
		messages = append(messages, m.ToType(name))
	}

	return messages, nil
}

func (p *MessagePipeline) loadTask(ctx context.Context, taskId string) (database.Task, error) {
	task, err := p.repo.GetTaskById(ctx, taskId)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return database.Task{}, fmt.Errorf("%w: task %q", ErrNotFound, taskId)
		}
		return database.Task{}, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// userName resolves the display name of userId. A failed lookup leaves the
// name empty rather than failing the caller.
func (p *MessagePipeline) userName(ctx context.Context, userId string) string {
	u, err := p.repo.GetUserById(ctx, userId)
	if err != nil {
		p.log.Warn("resolve sender name", zap.String("user_id", userId), zap.Error(err))
		return ""
	}
	return u.Name
}

func isParticipant(task database.Task, userId string) bool {
	if userId == "" {
		return false
	}
	return userId == task.PostedBy || userId == task.AcceptedById()
}

// receiverFor returns the participant of task that a message from senderId is
// addressed to.
func receiverFor(task database.Task, senderId string) (string, error) {
	accepterId := task.AcceptedById()
	isPoster := senderId != "" && senderId == task.PostedBy
	isAccepter := senderId != "" && senderId == accepterId

	switch {
	case isPoster && accepterId != "":
		return accepterId, nil
	case isAccepter:
		return task.PostedBy, nil
	case isPoster:
		return "", fmt.Errorf("%w: cannot message before the task is accepted", ErrInvalidState)
	default:
		return "", fmt.Errorf("%w: not a participant of this task", ErrForbidden)
	}
}
