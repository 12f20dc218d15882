package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/npezzotti/campus-courier/internal/config"
	"github.com/npezzotti/campus-courier/internal/database"
	"github.com/npezzotti/campus-courier/internal/delivery"
	"github.com/npezzotti/campus-courier/internal/server"
	"github.com/npezzotti/campus-courier/internal/stats"
	"github.com/npezzotti/campus-courier/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		ServerAddr:        "localhost:0",
		SigningKey:        []byte("test-signing-key"),
		AllowedOrigins:    []string{"http://localhost:3000"},
		NotificationLimit: 20,
		TokenTTL:          time.Hour,
	}
}

func newTestHub(t *testing.T) *server.Hub {
	su := &stats.MockStatsUpdater{}
	su.On("RegisterMetric", mock.Anything).Return()
	su.On("Incr", mock.Anything).Return()
	su.On("Decr", mock.Anything).Return()
	return server.NewHub(testutil.TestLogger(t), su)
}

func newTestApp(t *testing.T, db database.CourierRepository) *CourierApp {
	return NewCourierApp(chi.NewRouter(), testutil.TestLogger(t), newTestHub(t), db, testConfig())
}

// doRequest sends a request through the full handler chain, authenticated as
// userId unless it is empty.
func doRequest(t *testing.T, app *CourierApp, method, target string, body any, userId string) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, rdr)
	if userId != "" {
		token, err := app.createJwtForSession(userId, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	app.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), "expected JSON body, got %q", rr.Body.String())
	return v
}

// findCookie returns the cookie called name set on rr, or nil.
func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func TestNewCourierApp(t *testing.T) {
	db := &database.MockCourierRepository{}
	hub := newTestHub(t)
	cfg := testConfig()
	logger := testutil.TestLogger(t)

	app := NewCourierApp(chi.NewRouter(), logger, hub, db, cfg)

	assert.NotNil(t, app, "expected app to be initialized")
	assert.NotNil(t, app.srv, "expected http server to be initialized")
	assert.NotNil(t, app.messages, "expected message pipeline to be initialized")
	assert.NotNil(t, app.notifications, "expected notification pipeline to be initialized")
	assert.Equal(t, logger, app.log, "expected logger to be set")
	assert.Equal(t, db, app.db, "expected db to be set")
	assert.Equal(t, hub, app.hub, "expected hub to be set")
	assert.Equal(t, cfg.SigningKey, app.signingKey, "expected signing key to be set")
	assert.Equal(t, cfg.TokenTTL, app.tokenTTL)
	assert.Equal(t, cfg.ServerAddr, app.srv.Addr, "expected server address to match config")
}

func Test_healthCheck(t *testing.T) {
	tcases := []struct {
		name    string
		mockErr error
	}{
		{
			name:    "successful health check",
			mockErr: nil,
		},
		{
			name:    "failed health check",
			mockErr: errors.New("db error"),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			db := &database.MockCourierRepository{}
			defer db.AssertExpectations(t)
			db.On("Ping", mock.Anything).Return(tc.mockErr).Once()

			app := newTestApp(t, db)
			rr := doRequest(t, app, http.MethodGet, "/healthz", nil, "")

			if tc.mockErr != nil {
				assert.Equal(t, http.StatusInternalServerError, rr.Code, "expected status code to be 500")
			} else {
				assert.Equal(t, http.StatusOK, rr.Code, "expected status code to be 200")
				assert.Equal(t, "OK", rr.Body.String(), "expected response body to be 'OK'")
			}
		})
	}
}

func TestCORS(t *testing.T) {
	app := newTestApp(t, &database.MockCourierRepository{})

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	app.Handler().ServeHTTP(rr, req)

	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestErrorFor(t *testing.T) {
	tcases := []struct {
		name   string
		err    error
		expect int
	}{
		{"api error passes through", NewForbiddenError(), http.StatusForbidden},
		{"storage not found", database.ErrNotFound, http.StatusNotFound},
		{"wrapped storage not found", errors.Join(errors.New("get task"), database.ErrNotFound), http.StatusNotFound},
		{"pipeline not found", delivery.ErrNotFound, http.StatusNotFound},
		{"pipeline forbidden", delivery.ErrForbidden, http.StatusForbidden},
		{"pipeline invalid state", delivery.ErrInvalidState, http.StatusBadRequest},
		{"pipeline invalid argument", delivery.ErrInvalidArgument, http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, errorFor(tc.err).StatusCode)
		})
	}
}
