package api

import (
	"errors"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/campus-courier/internal/database"
	"github.com/npezzotti/campus-courier/internal/server"
	"github.com/npezzotti/campus-courier/internal/types"
	"go.uber.org/zap"
)

// connectionUser resolves the identity a websocket handshake presents. A
// request without any credential yields a nil user and is allowed through as
// an anonymous connection. A credential that does not verify, or names an
// unknown user, is rejected.
func (s *CourierApp) connectionUser(r *http.Request) (*types.User, *ApiError) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		tokenString = tokenFromRequest(r)
	}
	if tokenString == "" {
		return nil, nil
	}

	userId, err := s.extractUserIdFromToken(tokenString)
	if err != nil {
		s.log.Debug("ws handshake rejected", zap.Error(err))
		return nil, NewUnauthorizedError()
	}

	dbUser, err := s.db.GetUserById(r.Context(), userId)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			s.log.Debug("ws handshake for unknown user", zap.String("user_id", userId))
			return nil, NewUnauthorizedError()
		}
		return nil, NewInternalServerError(err)
	}

	u := dbUser.ToType()
	return &u, nil
}

func (s *CourierApp) serveWs(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.connectionUser(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade connection", zap.Error(err))
		return
	}

	client := server.NewClient(user, conn, s.hub, s.log.Named("ws"))
	if !s.hub.Connect(client) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server shutting down"))
		conn.Close()
		return
	}

	go client.Write()
	go client.Read()
}
