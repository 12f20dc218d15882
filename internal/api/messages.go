package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type SendMessageRequest struct {
	TaskId  string `json:"task_id"`
	Content string `json:"content"`
}

func (s *CourierApp) sendMessage(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserId(r.Context())

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.TaskId == "" || strings.TrimSpace(req.Content) == "" {
		errResp := NewBadRequestMessage("task id and content are required")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	msg, err := s.messages.SendMessage(r.Context(), userId, req.TaskId, req.Content)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusCreated, msg)
}

func (s *CourierApp) getTaskMessages(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserId(r.Context())

	messages, err := s.messages.GetTaskMessages(r.Context(), userId, chi.URLParam(r, "taskId"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, messages)
}
