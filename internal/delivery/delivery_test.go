package delivery

import (
	"sync"

	"github.com/npezzotti/campus-courier/internal/types"
)

type fakeBroadcaster struct {
	mu   sync.Mutex
	sent []types.Message
}

func (f *fakeBroadcaster) BroadcastMessage(msg types.Message) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return 1
}

type fakePusher struct {
	online map[string]bool
	pushed []types.Notification
}

func (f *fakePusher) PushNotification(n types.Notification) bool {
	if !f.online[n.UserId] {
		return false
	}
	f.pushed = append(f.pushed, n)
	return true
}

func strPtr(s string) *string {
	return &s
}
