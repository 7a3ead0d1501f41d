package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/earningbee/bee-engine/internal/assistant"
	"github.com/earningbee/bee-engine/internal/metrics"
	"github.com/earningbee/bee-engine/internal/storage"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const maxAssistantMessage = 4096

// AssistantMessage is one frame on the BeeBot socket. Clients send
// "command" (with Text) or "greet"; the server answers with "connected",
// "reply" or "error".
type AssistantMessage struct {
	Type   string           `json:"type"`
	Text   string           `json:"text,omitempty"`
	Action assistant.Action `json:"action,omitempty"`
	Route  string           `json:"route,omitempty"`
	Speech string           `json:"speech,omitempty"`
	Error  string           `json:"error,omitempty"`
}

func (s *Server) handleAssistantWS(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade to websocket", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxAssistantMessage)

	logger := s.logger.With(zap.String("user_id", user.ID))
	logger.Info("assistant websocket connected")

	if err := s.sendAssistantMessage(conn, AssistantMessage{Type: "connected", Speech: assistant.Greeting}); err != nil {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("websocket read error", zap.Error(err))
			}
			break
		}

		var msg AssistantMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Debug("invalid message format", zap.Error(err))
			if err := s.sendAssistantMessage(conn, AssistantMessage{Type: "error", Error: "invalid message format"}); err != nil {
				break
			}
			continue
		}

		reply := s.handleAssistantMessage(r.Context(), user.ID, msg)
		if err := s.sendAssistantMessage(conn, reply); err != nil {
			break
		}
	}

	logger.Info("assistant websocket disconnected")
}

func (s *Server) handleAssistantMessage(ctx context.Context, userID string, msg AssistantMessage) AssistantMessage {
	switch msg.Type {
	case "greet":
		return AssistantMessage{Type: "reply", Action: assistant.ActionHelp, Speech: assistant.Greeting}
	case "command":
		cmd := s.parser.Parse(msg.Text)
		if cmd.Action == assistant.ActionSpeak {
			cmd.Speech = s.narrateSaved(ctx, userID)
		}
		metrics.AssistantCommands.WithLabelValues(string(cmd.Action)).Inc()
		return AssistantMessage{
			Type:   "reply",
			Text:   cmd.Transcript,
			Action: cmd.Action,
			Route:  cmd.Route,
			Speech: cmd.Speech,
		}
	default:
		return AssistantMessage{Type: "error", Error: "unknown message type: " + msg.Type}
	}
}

// narrateSaved reads out the recommendations for the user's saved query
func (s *Server) narrateSaved(ctx context.Context, userID string) string {
	q, err := s.repo.GetSavedInput(ctx, userID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("failed to load saved input", zap.String("user_id", userID), zap.Error(err))
		}
		return assistant.NoRecommendations
	}

	resp, err := s.engine.Recommend(ctx, *q, "")
	if err != nil {
		s.logger.Warn("failed to compute recommendations for narration", zap.String("user_id", userID), zap.Error(err))
		return assistant.NoRecommendations
	}

	return assistant.Narrate(resp.Results)
}

func (s *Server) sendAssistantMessage(conn *websocket.Conn, msg AssistantMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("failed to marshal assistant message", zap.Error(err))
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Debug("failed to send assistant message", zap.Error(err))
		return err
	}
	return nil
}
