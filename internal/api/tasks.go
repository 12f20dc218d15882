package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/npezzotti/campus-courier/internal/database"
	"github.com/npezzotti/campus-courier/internal/types"
	"go.uber.org/zap"
)

const untitledTask = "Untitled Task"

type CreateTaskRequest struct {
	Title             string                   `json:"title"`
	Price             float64                  `json:"price"`
	DeliveryLocation  string                   `json:"delivery_location"`
	Deadline          *time.Time               `json:"deadline"`
	Category          types.TaskCategory       `json:"category"`
	StationeryDetails *types.StationeryDetails `json:"stationery_details"`
	PrintoutDetails   *types.PrintoutDetails   `json:"printout_details"`
}

// validate checks the request and builds the task to store. Stationery items
// without a name or quantity are dropped and a missing title is derived from
// the category details.
func (req *CreateTaskRequest) validate() (database.CreateTaskParams, error) {
	if req.Price <= 0 || strings.TrimSpace(req.DeliveryLocation) == "" || req.Category == "" {
		return database.CreateTaskParams{}, errors.New("price, delivery location and category are required")
	}

	params := database.CreateTaskParams{
		Title:            strings.TrimSpace(req.Title),
		Price:            req.Price,
		Category:         string(req.Category),
		DeliveryLocation: strings.TrimSpace(req.DeliveryLocation),
		Deadline:         req.Deadline,
	}

	switch req.Category {
	case types.CategoryStationery:
		if req.StationeryDetails == nil {
			return database.CreateTaskParams{}, errors.New("stationery items are required")
		}
		details := &database.StationeryDetails{
			AdditionalInfo: strings.TrimSpace(req.StationeryDetails.AdditionalInfo),
		}
		for _, it := range req.StationeryDetails.Items {
			name := strings.TrimSpace(it.Name)
			if name != "" && it.Quantity > 0 {
				details.Items = append(details.Items, database.StationeryItem{Name: name, Quantity: it.Quantity})
			}
		}
		if len(details.Items) == 0 {
			return database.CreateTaskParams{}, errors.New("add at least one valid stationery item")
		}
		if params.Title == "" {
			params.Title = fmt.Sprintf("Stationery Request (%d items)", len(details.Items))
		}
		params.StationeryDetails = details
	case types.CategoryPrintouts:
		d := req.PrintoutDetails
		if d == nil || strings.TrimSpace(d.FileName) == "" {
			return database.CreateTaskParams{}, errors.New("file details required for printouts")
		}
		if d.Pages < 0 {
			return database.CreateTaskParams{}, errors.New("pages cannot be negative")
		}
		details := &database.PrintoutDetails{
			FileUrl:        strings.TrimSpace(d.FileUrl),
			FileName:       strings.TrimSpace(d.FileName),
			FileType:       strings.TrimSpace(d.FileType),
			Pages:          d.Pages,
			Color:          d.Color,
			DoubleSided:    d.DoubleSided,
			AdditionalInfo: strings.TrimSpace(d.AdditionalInfo),
		}
		if params.Title == "" {
			params.Title = "Print Request: " + details.FileName
		}
		params.PrintoutDetails = details
	default:
		return database.CreateTaskParams{}, errors.New("invalid task category")
	}

	return params, nil
}

func taskTitle(t database.Task) string {
	if t.Title == "" {
		return untitledTask
	}
	return t.Title
}

func (s *CourierApp) createTask(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserId(r.Context())

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	params, err := req.validate()
	if err != nil {
		errResp := NewBadRequestMessage(err.Error())
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}
	params.PostedBy = userId

	task, err := s.db.CreateTask(r.Context(), params)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusCreated, task.ToType())
}

func (s *CourierApp) listOpenTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.db.ListTasksByStatus(r.Context(), string(types.TaskStatusOpen))
	s.writeTasks(w, tasks, err)
}

func (s *CourierApp) listPostedTasks(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserId(r.Context())
	tasks, err := s.db.ListTasksPostedBy(r.Context(), userId)
	s.writeTasks(w, tasks, err)
}

func (s *CourierApp) listAcceptedTasks(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserId(r.Context())
	tasks, err := s.db.ListTasksAcceptedBy(r.Context(), userId)
	s.writeTasks(w, tasks, err)
}

func (s *CourierApp) writeTasks(w http.ResponseWriter, tasks []database.Task, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := make([]types.Task, 0, len(tasks))
	for _, t := range tasks {
		resp = append(resp, t.ToType())
	}
	s.writeJson(w, http.StatusOK, resp)
}

func (s *CourierApp) getTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.db.GetTaskById(r.Context(), chi.URLParam(r, "taskId"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, task.ToType())
}

// acceptTask assigns an open task to the caller and notifies the poster.
func (s *CourierApp) acceptTask(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	taskId := chi.URLParam(r, "taskId")
	task, err := s.db.GetTaskById(r.Context(), taskId)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if task.Status != string(types.TaskStatusOpen) {
		errResp := NewBadRequestMessage("task not available for acceptance")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}
	if task.PostedBy == user.Id {
		errResp := NewBadRequestMessage("you cannot accept your own task")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	updated, err := s.db.AcceptTask(r.Context(), taskId, user.Id)
	if err != nil {
		if errors.Is(err, database.ErrConflict) {
			errResp := NewBadRequestMessage("task not available for acceptance")
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
		s.writeError(w, err)
		return
	}

	text := fmt.Sprintf("%s accepted your task: \"%s\"", user.Name, taskTitle(updated))
	s.notify(r, updated.PostedBy, text, updated.Id)

	s.writeJson(w, http.StatusOK, updated.ToType())
}

// completeTask marks an in-progress task completed on behalf of its poster
// and notifies the accepter.
func (s *CourierApp) completeTask(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserId(r.Context())

	taskId := chi.URLParam(r, "taskId")
	task, err := s.db.GetTaskById(r.Context(), taskId)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if task.PostedBy != userId {
		errResp := NewForbiddenError()
		errResp.Message = "not authorized to complete this task"
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}
	if task.Status != string(types.TaskStatusInProgress) {
		errResp := NewBadRequestMessage("task is not in progress")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	updated, err := s.db.CompleteTask(r.Context(), taskId)
	if err != nil {
		if errors.Is(err, database.ErrConflict) {
			errResp := NewBadRequestMessage("task is not in progress")
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
		s.writeError(w, err)
		return
	}

	if accepterId := updated.AcceptedById(); accepterId != "" {
		text := fmt.Sprintf("Your task \"%s\" has been marked as completed.", taskTitle(updated))
		s.notify(r, accepterId, text, updated.Id)
	}

	s.writeJson(w, http.StatusOK, updated.ToType())
}

// notify records a notification for a task transition. The transition has
// already been committed, so a failure here is only logged.
func (s *CourierApp) notify(r *http.Request, userId, text, taskId string) {
	if _, err := s.notifications.NotifyUser(r.Context(), userId, text, taskId); err != nil {
		s.log.Warn("notify user",
			zap.String("user_id", userId),
			zap.String("task_id", taskId),
			zap.Error(err),
		)
	}
}
