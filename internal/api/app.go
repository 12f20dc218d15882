package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/handlers"
	"github.com/npezzotti/campus-courier/internal/config"
	"github.com/npezzotti/campus-courier/internal/database"
	"github.com/npezzotti/campus-courier/internal/delivery"
	"github.com/npezzotti/campus-courier/internal/server"
	"go.uber.org/zap"
)

type CourierApp struct {
	log            *zap.Logger
	db             database.CourierRepository
	srv            *http.Server
	hub            *server.Hub
	messages       *delivery.MessagePipeline
	notifications  *delivery.NotificationPipeline
	signingKey     []byte
	tokenTTL       time.Duration
	allowedOrigins []string
}

func NewCourierApp(mux *chi.Mux, logger *zap.Logger, hub *server.Hub, db database.CourierRepository, cfg *config.Config) *CourierApp {
	s := &CourierApp{
		log:            logger,
		db:             db,
		hub:            hub,
		messages:       delivery.NewMessagePipeline(db, hub, logger.Named("messages")),
		notifications:  delivery.NewNotificationPipeline(db, hub, cfg.NotificationLimit, logger.Named("notifications")),
		signingKey:     cfg.SigningKey,
		tokenTTL:       cfg.TokenTTL,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.Get("/healthz", s.healthCheck)
	mux.Get("/ws", s.serveWs)
	mux.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", s.signup)
		r.Post("/auth/login", s.login)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/auth/me", s.me)
			r.Get("/auth/logout", s.logout)

			r.Post("/tasks", s.createTask)
			r.Get("/tasks", s.listOpenTasks)
			r.Get("/tasks/my-posted", s.listPostedTasks)
			r.Get("/tasks/my-accepted", s.listAcceptedTasks)
			r.Get("/tasks/{taskId}", s.getTask)
			r.Put("/tasks/{taskId}/accept", s.acceptTask)
			r.Put("/tasks/{taskId}/complete", s.completeTask)

			r.Post("/messages", s.sendMessage)
			r.Get("/messages/task/{taskId}", s.getTaskMessages)

			r.Get("/notifications", s.listNotifications)
			r.Put("/notifications/{notificationId}/read", s.markNotificationRead)
		})
	})

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "Authorization"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(s.requestLogger(h))

	s.srv = &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	return s
}

func (s *CourierApp) Handler() http.Handler {
	return s.srv.Handler
}

func (s *CourierApp) Start() error {
	s.log.Info("starting server", zap.String("addr", s.srv.Addr))
	return s.srv.ListenAndServe()
}

func (s *CourierApp) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}

func (s *CourierApp) writeJson(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("json encode", zap.Error(err))
	}
}

func (s *CourierApp) writeError(w http.ResponseWriter, err error) {
	errResp := errorFor(err)
	if errResp.StatusCode >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.Error(err))
	}
	s.writeJson(w, errResp.StatusCode, errResp)
}

func (s *CourierApp) healthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		s.log.Error("health check", zap.Error(err))
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
