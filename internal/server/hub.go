package server

import (
	"context"
	"sync"

	"github.com/npezzotti/campus-courier/internal/stats"
	"github.com/npezzotti/campus-courier/internal/types"
	"go.uber.org/zap"
)

const (
	MetricActiveConnections   = "NumActiveConnections"
	MetricActiveRooms         = "NumActiveRooms"
	MetricMessagesBroadcast   = "NumMessagesBroadcast"
	MetricNotificationsPushed = "NumNotificationsPushed"
)

// Hub owns the live connections of the process. It ties the per-user
// Registry to the per-task Router and is the only entry point the rest of
// the server uses to reach connected clients.
type Hub struct {
	log      *zap.Logger
	registry *Registry
	router   *Router
	stats    stats.StatsProvider

	clientsLock sync.Mutex
	clients     map[*Client]struct{}
	closing     bool
	wg          sync.WaitGroup
}

func NewHub(logger *zap.Logger, su stats.StatsProvider) *Hub {
	for _, m := range []string{
		MetricActiveConnections,
		MetricActiveRooms,
		MetricMessagesBroadcast,
		MetricNotificationsPushed,
	} {
		su.RegisterMetric(m)
	}

	return &Hub{
		log:      logger,
		registry: NewRegistry(),
		router:   NewRouter(),
		stats:    su,
		clients:  make(map[*Client]struct{}),
	}
}

// Connect tracks c and, when it is authenticated, makes it the delivery
// target for its user's notifications. It returns false when the hub is
// shutting down and c was not accepted.
func (h *Hub) Connect(c *Client) bool {
	h.clientsLock.Lock()
	if h.closing {
		h.clientsLock.Unlock()
		return false
	}
	h.clients[c] = struct{}{}
	h.wg.Add(1)
	h.clientsLock.Unlock()

	if userId := c.UserId(); userId != "" {
		h.registry.Register(userId, c)
	}
	h.stats.Incr(MetricActiveConnections)
	h.log.Debug("client connected", zap.String("conn_id", c.id), zap.String("user_id", c.UserId()))

	return true
}

// Disconnect removes every trace of c. Calling it more than once for the
// same client is a no-op.
func (h *Hub) Disconnect(c *Client) {
	h.clientsLock.Lock()
	if _, ok := h.clients[c]; !ok {
		h.clientsLock.Unlock()
		return
	}
	delete(h.clients, c)
	h.clientsLock.Unlock()

	if userId := c.UserId(); userId != "" {
		h.registry.Unregister(userId, c)
	}
	for closed := h.router.LeaveAll(c); closed > 0; closed-- {
		h.stats.Decr(MetricActiveRooms)
	}

	h.stats.Decr(MetricActiveConnections)
	h.log.Debug("client disconnected", zap.String("conn_id", c.id), zap.String("user_id", c.UserId()))
	h.wg.Done()
}

// JoinRoom subscribes c to the room of taskId. It returns false once the hub
// is shutting down.
func (h *Hub) JoinRoom(c *Client, taskId string) bool {
	h.clientsLock.Lock()
	closing := h.closing
	h.clientsLock.Unlock()
	if closing {
		return false
	}

	if h.router.Join(c, taskId) {
		h.stats.Incr(MetricActiveRooms)
	}
	h.log.Debug("joined room", zap.String("conn_id", c.id), zap.String("task_id", taskId))
	return true
}

func (h *Hub) LeaveRoom(c *Client, taskId string) {
	if h.router.Leave(c, taskId) {
		h.stats.Decr(MetricActiveRooms)
	}
	h.log.Debug("left room", zap.String("conn_id", c.id), zap.String("task_id", taskId))
}

// BroadcastMessage sends msg to every connection in the room of its task and
// returns how many accepted it.
func (h *Hub) BroadcastMessage(msg types.Message) int {
	delivered := h.router.Broadcast(msg.TaskId, NewMessageEvent(msg))
	h.stats.Incr(MetricMessagesBroadcast)
	h.log.Debug("message broadcast",
		zap.String("task_id", msg.TaskId),
		zap.String("message_id", msg.Id),
		zap.Int("delivered", delivered),
	)
	return delivered
}

// PushNotification sends n to the live connection of its recipient. It
// returns false when the recipient is offline or the connection is
// saturated; the notification stays persisted either way.
func (h *Hub) PushNotification(n types.Notification) bool {
	c, ok := h.registry.Lookup(n.UserId)
	if !ok {
		h.log.Debug("recipient offline", zap.String("user_id", n.UserId))
		return false
	}

	if !c.queueMessage(NewNotificationEvent(n)) {
		return false
	}

	h.stats.Incr(MetricNotificationsPushed)
	return true
}

func (h *Hub) NumClients() int {
	h.clientsLock.Lock()
	defer h.clientsLock.Unlock()
	return len(h.clients)
}

// Shutdown asks every connection to close and waits for them to
// disconnect or for ctx to expire.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.log.Info("shutting down hub")

	h.clientsLock.Lock()
	h.closing = true
	for c := range h.clients {
		c.stopClient()
	}
	h.clientsLock.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
