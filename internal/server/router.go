package server

import "sync"

// Router groups connections into rooms keyed by task id. Membership is
// explicit: a connection is in a room from Join until Leave or LeaveAll.
type Router struct {
	mu          sync.Mutex
	rooms       map[string]map[*Client]struct{}
	memberships map[*Client]map[string]struct{}
}

func NewRouter() *Router {
	return &Router{
		rooms:       make(map[string]map[*Client]struct{}),
		memberships: make(map[*Client]map[string]struct{}),
	}
}

// Join adds c to roomId. Joining a room twice is a no-op. It reports whether
// the room was created by this call.
func (r *Router) Join(c *Client, roomId string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomId]
	if !ok {
		members = make(map[*Client]struct{})
		r.rooms[roomId] = members
	}
	members[c] = struct{}{}

	if r.memberships[c] == nil {
		r.memberships[c] = make(map[string]struct{})
	}
	r.memberships[c][roomId] = struct{}{}

	return !ok
}

// Leave removes c from roomId. It reports whether the room was closed
// because c was its last member.
func (r *Router) Leave(c *Client, roomId string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leave(c, roomId)
}

// LeaveAll removes c from every room it joined and returns the number of
// rooms closed as a result.
func (r *Router) LeaveAll(c *Client) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	closed := 0
	for roomId := range r.memberships[c] {
		if r.leave(c, roomId) {
			closed++
		}
	}
	delete(r.memberships, c)

	return closed
}

func (r *Router) leave(c *Client, roomId string) bool {
	if joined, ok := r.memberships[c]; ok {
		delete(joined, roomId)
		if len(joined) == 0 {
			delete(r.memberships, c)
		}
	}

	members, ok := r.rooms[roomId]
	if !ok {
		return false
	}
	if _, ok := members[c]; !ok {
		return false
	}

	delete(members, c)
	if len(members) == 0 {
		delete(r.rooms, roomId)
		return true
	}

	return false
}

// Members returns a snapshot of the connections currently in roomId.
func (r *Router) Members(roomId string) []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := make([]*Client, 0, len(r.rooms[roomId]))
	for c := range r.rooms[roomId] {
		members = append(members, c)
	}
	return members
}

// Rooms returns the rooms c has joined.
func (r *Router) Rooms(c *Client) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms := make([]string, 0, len(r.memberships[c]))
	for roomId := range r.memberships[c] {
		rooms = append(rooms, roomId)
	}
	return rooms
}

// Broadcast queues msg on every member of roomId and returns the number of
// connections that accepted it. An empty or unknown room is not an error.
func (r *Router) Broadcast(roomId string, msg *ServerMessage) int {
	delivered := 0
	for _, c := range r.Members(roomId) {
		if c.queueMessage(msg) {
			delivered++
		}
	}
	return delivered
}

func (r *Router) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}
