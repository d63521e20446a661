package websocket

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"signaware-be/internal/apperror"
	"signaware-be/internal/dto"
	"signaware-be/internal/pkg/logger"
	"signaware-be/internal/pkg/serverutils"
	"signaware-be/internal/service"
	"signaware-be/pkg/chat/relay"
)

// ChatHandler serves the websocket chat transport. Each inbound frame is a
// chat request; the reply streams back as message frames followed by an end
// frame. Turns are processed one at a time per connection.
type ChatHandler struct {
	chatService service.IChatService
	log         logger.ILogger
}

func NewChatHandler(chatService service.IChatService, log logger.ILogger) *ChatHandler {
	return &ChatHandler{chatService: chatService, log: log}
}

func (h *ChatHandler) RegisterRoutes(r fiber.Router) {
	ws := r.Group("/chat/v1")
	ws.Use("/ws", serverutils.JwtMiddleware, func(ctx *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(ctx) {
			return ctx.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	ws.Get("/ws", websocket.New(h.serve))
}

type wsFrame struct {
	Type       string `json:"type"`
	Content    string `json:"content,omitempty"`
	Message    string `json:"message,omitempty"`
	ErrorType  string `json:"error_type,omitempty"`
	SessionId  string `json:"session_id,omitempty"`
	MessageId  string `json:"message_id,omitempty"`
}

func (h *ChatHandler) serve(conn *websocket.Conn) {
	defer conn.Close()

	raw, ok := conn.Locals("user_id").(string)
	if !ok {
		return
	}
	userId, err := uuid.Parse(raw)
	if err != nil {
		return
	}

	for {
		var req dto.ChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		if err := serverutils.ValidateRequest(&req); err != nil {
			h.writeError(conn, err)
			continue
		}

		h.runTurn(conn, userId, &req)
	}
}

func (h *ChatHandler) runTurn(conn *websocket.Conn, userId uuid.UUID, req *dto.ChatRequest) {
	sink := relay.SinkFunc(func(content string) error {
		return conn.WriteJSON(wsFrame{
			Type:      "message",
			Content:   content,
			SessionId: req.SessionId,
		})
	})

	result, err := h.chatService.StreamChat(context.Background(), userId, req, sink)
	if err != nil {
		if errors.Is(err, relay.ErrClientGone) {
			return
		}
		h.log.Error("CHAT_WS", "turn failed", map[string]interface{}{
			"session_id": req.SessionId,
			"error":      err.Error(),
		})
		h.writeError(conn, err)
		return
	}

	if result.Warning != "" {
		_ = conn.WriteJSON(wsFrame{Type: "warning", Message: result.Warning, SessionId: req.SessionId})
	}

	end := wsFrame{Type: "end", SessionId: result.SessionId}
	if result.MessageId != nil {
		end.MessageId = result.MessageId.String()
	}
	_ = conn.WriteJSON(end)
}

func (h *ChatHandler) writeError(conn *websocket.Conn, err error) {
	frame := wsFrame{Type: "error", ErrorType: string(apperror.KindUpstream), Message: "chat turn failed"}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		frame.ErrorType = string(appErr.Kind)
		frame.Message = appErr.Message
	}
	_ = conn.WriteJSON(frame)
}
