package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/npezzotti/campus-courier/internal/database"
	"github.com/npezzotti/campus-courier/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func strPtr(s string) *string {
	return &s
}

func TestCreateTaskRequest_validate(t *testing.T) {
	tcases := []struct {
		name             string
		req              CreateTaskRequest
		expectErr        bool
		expectTitle      string
		expectStationery *database.StationeryDetails
		expectPrintout   *database.PrintoutDetails
	}{
		{
			name:      "missing price",
			req:       CreateTaskRequest{DeliveryLocation: "Library", Category: types.CategoryStationery},
			expectErr: true,
		},
		{
			name:      "unknown category",
			req:       CreateTaskRequest{Price: 1, DeliveryLocation: "Library", Category: "Food"},
			expectErr: true,
		},
		{
			name: "stationery without valid items",
			req: CreateTaskRequest{
				Price: 1, DeliveryLocation: "Library", Category: types.CategoryStationery,
				StationeryDetails: &types.StationeryDetails{Items: []types.StationeryItem{{Name: " ", Quantity: 2}, {Name: "pen"}}},
			},
			expectErr: true,
		},
		{
			name: "stationery items kept structured",
			req: CreateTaskRequest{
				Price: 1, DeliveryLocation: "Library", Category: types.CategoryStationery,
				StationeryDetails: &types.StationeryDetails{
					Items:          []types.StationeryItem{{Name: " pen ", Quantity: 2}, {Name: "", Quantity: 5}, {Name: "notebook", Quantity: 1}},
					AdditionalInfo: " blue ink ",
				},
			},
			expectTitle: "Stationery Request (2 items)",
			expectStationery: &database.StationeryDetails{
				Items:          []database.StationeryItem{{Name: "pen", Quantity: 2}, {Name: "notebook", Quantity: 1}},
				AdditionalInfo: "blue ink",
			},
		},
		{
			name: "printouts without file",
			req: CreateTaskRequest{
				Price: 1, DeliveryLocation: "Library", Category: types.CategoryPrintouts,
				PrintoutDetails: &types.PrintoutDetails{},
			},
			expectErr: true,
		},
		{
			name: "printouts with negative pages",
			req: CreateTaskRequest{
				Price: 1, DeliveryLocation: "Library", Category: types.CategoryPrintouts,
				PrintoutDetails: &types.PrintoutDetails{FileName: "notes.pdf", Pages: -1},
			},
			expectErr: true,
		},
		{
			name: "printout file kept structured",
			req: CreateTaskRequest{
				Price: 1, DeliveryLocation: "Library", Category: types.CategoryPrintouts,
				PrintoutDetails: &types.PrintoutDetails{
					FileUrl:     "https://files.campus.edu/notes.pdf",
					FileName:    "notes.pdf",
					FileType:    "application/pdf",
					Pages:       4,
					DoubleSided: true,
				},
			},
			expectTitle: "Print Request: notes.pdf",
			expectPrintout: &database.PrintoutDetails{
				FileUrl:     "https://files.campus.edu/notes.pdf",
				FileName:    "notes.pdf",
				FileType:    "application/pdf",
				Pages:       4,
				DoubleSided: true,
			},
		},
		{
			name: "explicit title kept",
			req: CreateTaskRequest{
				Title: "Exam prints", Price: 1, DeliveryLocation: "Library", Category: types.CategoryPrintouts,
				PrintoutDetails: &types.PrintoutDetails{FileName: "exam.pdf", Color: true},
			},
			expectTitle:    "Exam prints",
			expectPrintout: &database.PrintoutDetails{FileName: "exam.pdf", Color: true},
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.req
			params, err := req.validate()
			if tc.expectErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tc.expectTitle, params.Title)
			assert.Equal(t, "Library", params.DeliveryLocation)
			assert.Equal(t, tc.expectStationery, params.StationeryDetails)
			assert.Equal(t, tc.expectPrintout, params.PrintoutDetails)
		})
	}
}

func TestCreateTaskHandler(t *testing.T) {
	db := &database.MockCourierRepository{}
	defer db.AssertExpectations(t)
	db.On("CreateTask", mock.Anything, database.CreateTaskParams{
		Title:            "Print Request: notes.pdf",
		Price:            3,
		Category:         string(types.CategoryPrintouts),
		DeliveryLocation: "Library",
		PrintoutDetails:  &database.PrintoutDetails{FileName: "notes.pdf", Pages: 2},
		PostedBy:         "poster",
	}).Return(database.Task{
		Id:              "task1",
		Title:           "Print Request: notes.pdf",
		Status:          string(types.TaskStatusOpen),
		PrintoutDetails: &database.PrintoutDetails{FileName: "notes.pdf", Pages: 2},
		PostedBy:        "poster",
		PostedByName:    "Alice",
	}, nil).Once()

	app := newTestApp(t, db)
	rr := doRequest(t, app, http.MethodPost, "/api/tasks", CreateTaskRequest{
		Price:            3,
		DeliveryLocation: "Library",
		Category:         types.CategoryPrintouts,
		PrintoutDetails:  &types.PrintoutDetails{FileName: "notes.pdf", Pages: 2},
	}, "poster")

	assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	task := decodeBody[types.Task](t, rr)
	assert.Equal(t, "task1", task.Id)
	assert.Equal(t, types.TaskStatusOpen, task.Status)
	assert.Equal(t, "Alice", task.PostedByName)
	assert.Equal(t, &types.PrintoutDetails{FileName: "notes.pdf", Pages: 2}, task.PrintoutDetails)
	assert.Nil(t, task.StationeryDetails)

	rr = doRequest(t, app, http.MethodPost, "/api/tasks", CreateTaskRequest{Price: 3}, "poster")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListTasksHandlers(t *testing.T) {
	tcases := []struct {
		name   string
		target string
		method string
		arg    string
	}{
		{"open tasks", "/api/tasks", "ListTasksByStatus", string(types.TaskStatusOpen)},
		{"posted tasks", "/api/tasks/my-posted", "ListTasksPostedBy", "u1"},
		{"accepted tasks", "/api/tasks/my-accepted", "ListTasksAcceptedBy", "u1"},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			db := &database.MockCourierRepository{}
			defer db.AssertExpectations(t)
			db.On(tc.method, mock.Anything, tc.arg).Return([]database.Task{
				{Id: "t2", AcceptedBy: strPtr("u9"), PostedByName: "Alice", AcceptedByName: strPtr("Ivy")},
				{Id: "t1"},
			}, nil).Once()

			app := newTestApp(t, db)
			rr := doRequest(t, app, http.MethodGet, tc.target, nil, "u1")
			assert.Equal(t, http.StatusOK, rr.Code)

			tasks := decodeBody[[]types.Task](t, rr)
			if assert.Len(t, tasks, 2) {
				assert.Equal(t, "t2", tasks[0].Id)
				assert.Equal(t, "u9", tasks[0].AcceptedBy)
				assert.Equal(t, "Alice", tasks[0].PostedByName)
				assert.Equal(t, "Ivy", tasks[0].AcceptedByName)
				assert.Empty(t, tasks[1].AcceptedByName)
			}
		})
	}
}

func TestGetTaskHandler(t *testing.T) {
	db := &database.MockCourierRepository{}
	defer db.AssertExpectations(t)
	db.On("GetTaskById", mock.Anything, "task1").Return(database.Task{Id: "task1"}, nil).Once()
	db.On("GetTaskById", mock.Anything, "missing").Return(database.Task{}, database.ErrNotFound).Once()

	app := newTestApp(t, db)

	rr := doRequest(t, app, http.MethodGet, "/api/tasks/task1", nil, "u1")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(t, app, http.MethodGet, "/api/tasks/missing", nil, "u1")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAcceptTaskHandler(t *testing.T) {
	bob := database.User{Id: "accepter", Name: "Bob"}
	open := database.Task{Id: "task1", Title: "Stationery Request", Status: string(types.TaskStatusOpen), PostedBy: "poster"}
	accepted := open
	accepted.Status = string(types.TaskStatusInProgress)
	accepted.AcceptedBy = strPtr("accepter")

	tcases := []struct {
		name         string
		userId       string
		setup        func(db *database.MockCourierRepository)
		expectStatus int
	}{
		{
			name:   "success notifies poster",
			userId: "accepter",
			setup: func(db *database.MockCourierRepository) {
				db.On("GetUserById", mock.Anything, "accepter").Return(bob, nil).Once()
				db.On("GetTaskById", mock.Anything, "task1").Return(open, nil).Once()
				db.On("AcceptTask", mock.Anything, "task1", "accepter").Return(accepted, nil).Once()
				db.On("CreateNotification", mock.Anything, mock.MatchedBy(func(p database.CreateNotificationParams) bool {
					return p.UserId == "poster" && p.TaskId == "task1" &&
						p.Message == `Bob accepted your task: "Stationery Request"`
				})).Return(database.Notification{Id: "n1", UserId: "poster"}, nil).Once()
			},
			expectStatus: http.StatusOK,
		},
		{
			name:   "notification failure does not fail the transition",
			userId: "accepter",
			setup: func(db *database.MockCourierRepository) {
				db.On("GetUserById", mock.Anything, "accepter").Return(bob, nil).Once()
				db.On("GetTaskById", mock.Anything, "task1").Return(open, nil).Once()
				db.On("AcceptTask", mock.Anything, "task1", "accepter").Return(accepted, nil).Once()
				db.On("CreateNotification", mock.Anything, mock.Anything).
					Return(database.Notification{}, errors.New("db down")).Once()
			},
			expectStatus: http.StatusOK,
		},
		{
			name:   "own task",
			userId: "poster",
			setup: func(db *database.MockCourierRepository) {
				db.On("GetUserById", mock.Anything, "poster").Return(database.User{Id: "poster", Name: "Alice"}, nil).Once()
				db.On("GetTaskById", mock.Anything, "task1").Return(open, nil).Once()
			},
			expectStatus: http.StatusBadRequest,
		},
		{
			name:   "not open",
			userId: "accepter",
			setup: func(db *database.MockCourierRepository) {
				db.On("GetUserById", mock.Anything, "accepter").Return(bob, nil).Once()
				db.On("GetTaskById", mock.Anything, "task1").Return(accepted, nil).Once()
			},
			expectStatus: http.StatusBadRequest,
		},
		{
			name:   "lost race",
			userId: "accepter",
			setup: func(db *database.MockCourierRepository) {
				db.On("GetUserById", mock.Anything, "accepter").Return(bob, nil).Once()
				db.On("GetTaskById", mock.Anything, "task1").Return(open, nil).Once()
				db.On("AcceptTask", mock.Anything, "task1", "accepter").Return(accepted, database.ErrConflict).Once()
			},
			expectStatus: http.StatusBadRequest,
		},
		{
			name:   "task not found",
			userId: "accepter",
			setup: func(db *database.MockCourierRepository) {
				db.On("GetUserById", mock.Anything, "accepter").Return(bob, nil).Once()
				db.On("GetTaskById", mock.Anything, "task1").Return(database.Task{}, database.ErrNotFound).Once()
			},
			expectStatus: http.StatusNotFound,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			db := &database.MockCourierRepository{}
			defer db.AssertExpectations(t)
			tc.setup(db)

			app := newTestApp(t, db)
			rr := doRequest(t, app, http.MethodPut, "/api/tasks/task1/accept", nil, tc.userId)
			assert.Equal(t, tc.expectStatus, rr.Code, rr.Body.String())

			if tc.expectStatus == http.StatusOK {
				task := decodeBody[types.Task](t, rr)
				assert.Equal(t, types.TaskStatusInProgress, task.Status)
				assert.Equal(t, "accepter", task.AcceptedBy)
			}
		})
	}
}

func TestCompleteTaskHandler(t *testing.T) {
	inProgress := database.Task{
		Id:         "task1",
		Title:      "Print Request: notes.pdf",
		Status:     string(types.TaskStatusInProgress),
		PostedBy:   "poster",
		AcceptedBy: strPtr("accepter"),
	}
	completed := inProgress
	completed.Status = string(types.TaskStatusCompleted)

	tcases := []struct {
		name         string
		userId       string
		setup        func(db *database.MockCourierRepository)
		expectStatus int
	}{
		{
			name:   "poster completes and accepter is notified",
			userId: "poster",
			setup: func(db *database.MockCourierRepository) {
				db.On("GetTaskById", mock.Anything, "task1").Return(inProgress, nil).Once()
				db.On("CompleteTask", mock.Anything, "task1").Return(completed, nil).Once()
				db.On("CreateNotification", mock.Anything, mock.MatchedBy(func(p database.CreateNotificationParams) bool {
					return p.UserId == "accepter" &&
						p.Message == `Your task "Print Request: notes.pdf" has been marked as completed.`
				})).Return(database.Notification{Id: "n1", UserId: "accepter"}, nil).Once()
			},
			expectStatus: http.StatusOK,
		},
		{
			name:   "accepter cannot complete",
			userId: "accepter",
			setup: func(db *database.MockCourierRepository) {
				db.On("GetTaskById", mock.Anything, "task1").Return(inProgress, nil).Once()
			},
			expectStatus: http.StatusForbidden,
		},
		{
			name:   "not in progress",
			userId: "poster",
			setup: func(db *database.MockCourierRepository) {
				db.On("GetTaskById", mock.Anything, "task1").Return(completed, nil).Once()
			},
			expectStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			db := &database.MockCourierRepository{}
			defer db.AssertExpectations(t)
			tc.setup(db)

			app := newTestApp(t, db)
			rr := doRequest(t, app, http.MethodPut, "/api/tasks/task1/complete", nil, tc.userId)
			assert.Equal(t, tc.expectStatus, rr.Code, rr.Body.String())
		})
	}
}
