package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/npezzotti/campus-courier/internal/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection         = "users"
	tasksCollection         = "tasks"
	messagesCollection      = "messages"
	notificationsCollection = "notifications"
)

// MongoCourierRepository implements CourierRepository on MongoDB.
type MongoCourierRepository struct {
	client        *mongo.Client
	users         *mongo.Collection
	tasks         *mongo.Collection
	messages      *mongo.Collection
	notifications *mongo.Collection
}

func NewMongoCourierRepository(ctx context.Context, uri, dbName string) (*MongoCourierRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(dbName)
	repo := &MongoCourierRepository{
		client:        client,
		users:         db.Collection(usersCollection),
		tasks:         db.Collection(tasksCollection),
		messages:      db.Collection(messagesCollection),
		notifications: db.Collection(notificationsCollection),
	}

	if err := repo.EnsureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	return repo, nil
}

// EnsureIndexes creates the indexes backing the read paths.
func (db *MongoCourierRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := db.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("users: %w", err)
	}

	if _, err := db.tasks.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "posted_by", Value: 1}}},
		{Keys: bson.D{{Key: "accepted_by", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("tasks: %w", err)
	}

	if _, err := db.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "task_id", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
	}); err != nil {
		return fmt.Errorf("messages: %w", err)
	}

	if _, err := db.notifications.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "is_read", Value: 1}, {Key: "created_at", Value: -1}},
	}); err != nil {
		return fmt.Errorf("notifications: %w", err)
	}

	return nil
}

func (db *MongoCourierRepository) Ping(ctx context.Context) error {
	return db.client.Ping(ctx, readpref.Primary())
}

func (db *MongoCourierRepository) Close() error {
	return db.client.Disconnect(context.Background())
}

func translateMongoErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", ErrConflict, err.Error())
	}
	return err
}

func (db *MongoCourierRepository) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
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

	if _, err := db.users.InsertOne(ctx, u); err != nil {
		return User{}, translateMongoErr(err)
	}

	return u, nil
}

func (db *MongoCourierRepository) GetUserById(ctx context.Context, userId string) (User, error) {
	var u User
	err := db.users.FindOne(ctx, bson.M{"_id": userId}).Decode(&u)
	return u, translateMongoErr(err)
}

func (db *MongoCourierRepository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := db.users.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	return u, translateMongoErr(err)
}

func (db *MongoCourierRepository) CreateTask(ctx context.Context, params CreateTaskParams) (Task, error) {
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

	if _, err := db.tasks.InsertOne(ctx, t); err != nil {
		return Task{}, translateMongoErr(err)
	}

	return db.GetTaskById(ctx, t.Id)
}

func (db *MongoCourierRepository) GetTaskById(ctx context.Context, taskId string) (Task, error) {
	var t Task
	if err := db.tasks.FindOne(ctx, bson.M{"_id": taskId}).Decode(&t); err != nil {
		return Task{}, translateMongoErr(err)
	}

	tasks := []Task{t}
	if err := db.resolveNames(ctx, tasks); err != nil {
		return Task{}, err
	}
	return tasks[0], nil
}

// resolveNames fills in the poster and accepter names of tasks.
func (db *MongoCourierRepository) resolveNames(ctx context.Context, tasks []Task) error {
	ids := make([]string, 0, len(tasks)*2)
	for _, t := range tasks {
		ids = append(ids, t.PostedBy)
		if accepterId := t.AcceptedById(); accepterId != "" {
			ids = append(ids, accepterId)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	cur, err := db.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"name": 1}))
	if err != nil {
		return translateMongoErr(err)
	}
	defer cur.Close(ctx)

	var users []User
	if err := cur.All(ctx, &users); err != nil {
		return fmt.Errorf("decode users: %w", err)
	}

	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.Id] = u.Name
	}

	for i := range tasks {
		tasks[i].PostedByName = names[tasks[i].PostedBy]
		if name, ok := names[tasks[i].AcceptedById()]; ok {
			tasks[i].AcceptedByName = &name
		}
	}
	return nil
}

func (db *MongoCourierRepository) ListTasksByStatus(ctx context.Context, status string) ([]Task, error) {
	return db.findTasks(ctx, bson.M{"status": status}, bson.D{{Key: "created_at", Value: -1}})
}

func (db *MongoCourierRepository) ListTasksPostedBy(ctx context.Context, userId string) ([]Task, error) {
	return db.findTasks(ctx, bson.M{"posted_by": userId}, bson.D{{Key: "created_at", Value: -1}})
}

func (db *MongoCourierRepository) ListTasksAcceptedBy(ctx context.Context, userId string) ([]Task, error) {
	return db.findTasks(ctx, bson.M{"accepted_by": userId}, bson.D{{Key: "updated_at", Value: -1}})
}

func (db *MongoCourierRepository) findTasks(ctx context.Context, filter bson.M, sort bson.D) ([]Task, error) {
	cur, err := db.tasks.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, translateMongoErr(err)
	}
	defer cur.Close(ctx)

	tasks := make([]Task, 0)
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	if err := db.resolveNames(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (db *MongoCourierRepository) AcceptTask(ctx context.Context, taskId, accepterId string) (Task, error) {
	return db.transitionTask(ctx, taskId, types.TaskStatusOpen, bson.M{
		"accepted_by": accepterId,
		"status":      string(types.TaskStatusInProgress),
		"updated_at":  Now(),
	})
}

func (db *MongoCourierRepository) CompleteTask(ctx context.Context, taskId string) (Task, error) {
	ts := Now()
	return db.transitionTask(ctx, taskId, types.TaskStatusInProgress, bson.M{
		"status":       string(types.TaskStatusCompleted),
		"completed_at": ts,
		"updated_at":   ts,
	})
}

func (db *MongoCourierRepository) transitionTask(ctx context.Context, taskId string, from types.TaskStatus, set bson.M) (Task, error) {
	var t Task
	err := db.tasks.FindOneAndUpdate(ctx,
		bson.M{"_id": taskId, "status": string(from)},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&t)
	if err == nil {
		tasks := []Task{t}
		if err := db.resolveNames(ctx, tasks); err != nil {
			return Task{}, err
		}
		return tasks[0], nil
	}

	if !errors.Is(err, mongo.ErrNoDocuments) {
		return Task{}, err
	}

	// distinguish a missing task from one in the wrong state
	current, err := db.GetTaskById(ctx, taskId)
	if err != nil {
		return Task{}, err
	}
	return current, ErrConflict
}

func (db *MongoCourierRepository) CreateMessage(ctx context.Context, params CreateMessageParams) (Message, error) {
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

	if _, err := db.messages.InsertOne(ctx, msg); err != nil {
		return Message{}, translateMongoErr(err)
	}

	return msg, nil
}

func (db *MongoCourierRepository) GetMessagesByTask(ctx context.Context, taskId string) ([]Message, error) {
	cur, err := db.messages.Find(ctx, bson.M{"task_id": taskId},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, translateMongoErr(err)
	}
	defer cur.Close(ctx)

	messages := make([]Message, 0)
	if err := cur.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return messages, nil
}

func (db *MongoCourierRepository) CreateNotification(ctx context.Context, params CreateNotificationParams) (Notification, error) {
	id, err := newId()
	if err != nil {
		return Notification{}, err
	}

	ts := storedTime(params.CreatedAt)
	n := Notification{
		Id:        id,
		UserId:    params.UserId,
		Message:   params.Message,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if params.TaskId != "" {
		taskId := params.TaskId
		n.TaskId = &taskId
	}

	if _, err := db.notifications.InsertOne(ctx, n); err != nil {
		return Notification{}, translateMongoErr(err)
	}

	return n, nil
}

func (db *MongoCourierRepository) GetNotificationById(ctx context.Context, notificationId string) (Notification, error) {
	var n Notification
	err := db.notifications.FindOne(ctx, bson.M{"_id": notificationId}).Decode(&n)
	return n, translateMongoErr(err)
}

func (db *MongoCourierRepository) ListNotifications(ctx context.Context, userId string, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = DefaultNotificationLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := db.notifications.Find(ctx, bson.M{"user_id": userId}, opts)
	if err != nil {
		return nil, translateMongoErr(err)
	}
	defer cur.Close(ctx)

	notifications := make([]Notification, 0, limit)
	if err := cur.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	return notifications, nil
}

func (db *MongoCourierRepository) MarkNotificationRead(ctx context.Context, notificationId string) error {
	res, err := db.notifications.UpdateOne(ctx,
		bson.M{"_id": notificationId},
		bson.M{"$set": bson.M{"is_read": true, "updated_at": Now()}},
	)
	if err != nil {
		return translateMongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
