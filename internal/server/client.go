package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/npezzotti/campus-courier/internal/types"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBufferSize = 256
)

// Client is one live connection. user is nil for connections that did not
// present a credential; those can join rooms but never receive personal
// notifications.
type Client struct {
	id       string
	conn     *websocket.Conn
	hub      *Hub
	log      *zap.Logger
	user     *types.User
	send     chan *ServerMessage
	stop     chan struct{}
	stopOnce sync.Once

	// closed once Write has returned
	writeDone chan struct{}
}

func NewClient(user *types.User, conn *websocket.Conn, hub *Hub, l *zap.Logger) *Client {
	id := uuid.NewString()
	fields := []zap.Field{zap.String("conn_id", id)}
	if user != nil {
		fields = append(fields, zap.String("user_id", user.Id))
	}

	return &Client{
		id:        id,
		conn:      conn,
		hub:       hub,
		log:       l.With(fields...),
		user:      user,
		send:      make(chan *ServerMessage, sendBufferSize),
		stop:      make(chan struct{}),
		writeDone: make(chan struct{}),
	}
}

func (c *Client) Id() string {
	return c.id
}

// UserId returns the authenticated user of the connection, or "" for an
// anonymous connection.
func (c *Client) UserId() string {
	if c.user == nil {
		return ""
	}
	return c.user.Id
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.log.Debug("write pump exiting")
		close(c.writeDone)
	}()

	for {
		select {
		case msg := <-c.send:
			bytes, err := serializeMessage(msg)
			if err != nil {
				c.log.Error("serialize message", zap.Error(err))
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		case <-ticker.C:
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

// Read processes inbound commands until the connection fails. It must run
// alongside Write: the client leaves the hub only after both pumps are done,
// so nothing logs for it once Hub.Shutdown has returned.
func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.stopClient()
		<-c.writeDone
		c.log.Debug("read pump exiting")
		c.hub.Disconnect(c)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Warn("ws read", zap.Error(err))
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.log.Debug("parse client message", zap.Error(err))
			c.queueMessage(ErrInvalidMessage(-1))
			continue
		}

		c.handleMessage(&msg)
	}
}

func (c *Client) handleMessage(msg *ClientMessage) {
	switch {
	case msg.Join != nil:
		if msg.Join.TaskId == "" {
			c.queueMessage(ErrMissingTaskId(msg.Id))
			return
		}
		if !c.hub.JoinRoom(c, msg.Join.TaskId) {
			c.queueMessage(ErrServiceUnavailable(msg.Id))
			return
		}
		c.queueMessage(NoErrOK(msg.Id, map[string]string{"task_id": msg.Join.TaskId}))
	case msg.Leave != nil:
		if msg.Leave.TaskId == "" {
			c.queueMessage(ErrMissingTaskId(msg.Id))
			return
		}
		c.hub.LeaveRoom(c, msg.Leave.TaskId)
		c.queueMessage(NoErrOK(msg.Id, map[string]string{"task_id": msg.Leave.TaskId}))
	default:
		c.queueMessage(ErrInvalidMessage(msg.Id))
	}
}

// queueMessage enqueues msg on the outbound buffer without blocking. It
// returns false when the buffer is full and the message was dropped.
func (c *Client) queueMessage(msg *ServerMessage) bool {
	select {
	case c.send <- msg:
	default:
		c.log.Warn("outbound buffer full, dropping message")
		return false
	}

	return true
}

func serializeMessage(msg *ServerMessage) ([]byte, error) {
	return json.Marshal(msg)
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Warn("ws write", zap.Error(err))
		}
		return false
	}

	return true
}

func (c *Client) stopClient() {
	c.stopOnce.Do(func() { close(c.stop) })
}
