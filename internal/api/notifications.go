package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *CourierApp) listNotifications(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserId(r.Context())

	notifications, err := s.notifications.ListNotifications(r.Context(), userId)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, notifications)
}

func (s *CourierApp) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserId(r.Context())

	n, err := s.notifications.MarkAsRead(r.Context(), userId, chi.URLParam(r, "notificationId"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, n)
}
