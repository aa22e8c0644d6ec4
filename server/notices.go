package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/campusmedia/go-staff-console/switcher"
	"github.com/google/uuid"
)

// Notice is a transient operator-facing message queued for the SPA's toast
// area. Notices are held until the client drains them.
type Notice struct {
	ID      string               `json:"id"`
	Level   switcher.NoticeLevel `json:"level"`
	Message string               `json:"message"`
	At      time.Time            `json:"at"`
}

// NoticeFeed collects notices raised by the account switcher and hands them
// to the SPA on the next poll. Implements switcher.Notifier.
type NoticeFeed struct {
	mutex   sync.Mutex
	pending []Notice
	nowTime func() time.Time
}

func NewNoticeFeed() *NoticeFeed {
	return &NoticeFeed{nowTime: time.Now}
}

func (f *NoticeFeed) Notify(level switcher.NoticeLevel, message string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.pending = append(f.pending, Notice{
		ID:      uuid.NewString(),
		Level:   level,
		Message: message,
		At:      f.nowTime(),
	})
}

// Drain returns all pending notices and clears the queue.
func (f *NoticeFeed) Drain() []Notice {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	drained := f.pending
	f.pending = nil
	return drained
}

// NoticesHandler drains the pending notice queue. Each notice is delivered
// exactly once.
func (s *Server) NoticesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		notices := s.notices.Drain()
		if notices == nil {
			notices = []Notice{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"notices": notices})
	}
}
