package controller

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"

	"signaware-be/internal/apperror"
	"signaware-be/internal/dto"
	"signaware-be/internal/pkg/logger"
	"signaware-be/internal/pkg/serverutils"
	"signaware-be/internal/service"
	"signaware-be/pkg/chat/relay"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Stream(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	Sessions(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
	log     logger.ILogger
}

func NewChatController(service service.IChatService, log logger.ILogger) IChatController {
	return &chatController{service: service, log: log}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("/stream", c.Stream)
	h.Post("/message", c.SendMessage)
	h.Get("/history/:sessionId", c.History)
	h.Get("/sessions/:documentId", c.Sessions)
	h.Delete("/sessions/:sessionId", c.DeleteSession)
}

// writeEvent emits one server-sent event and flushes it to the client.
func writeEvent(w *bufio.Writer, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return w.Flush()
}

// Stream runs a chat turn over server-sent events. Validation and access
// checks happen before the response switches to the event stream, so bad
// requests still get regular JSON error responses.
func (c *chatController) Stream(ctx *fiber.Ctx) error {
	userId, err := userIdFromCtx(ctx)
	if err != nil {
		return err
	}

	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}
	if err := c.service.VerifyAccess(ctx.Context(), userId, &req); err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	// The fasthttp request context is cancelled when the client drops,
	// which propagates into the upstream model request.
	reqCtx := ctx.Context()

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		sink := relay.SinkFunc(func(content string) error {
			return writeEvent(w, "message", fiber.Map{
				"content":     content,
				"session_id":  req.SessionId,
				"document_id": req.DocumentId,
			})
		})

		result, err := c.service.StreamChat(reqCtx, userId, &req, sink)
		if err != nil {
			if errors.Is(err, relay.ErrClientGone) {
				return
			}

			kind := apperror.KindUpstream
			message := "chat stream failed"
			var appErr *apperror.Error
			if errors.As(err, &appErr) {
				kind = appErr.Kind
				message = appErr.Message
			}
			c.log.Error("CHAT", "stream failed", map[string]interface{}{
				"session_id": req.SessionId,
				"error":      err.Error(),
			})
			_ = writeEvent(w, "error", fiber.Map{
				"error_type": kind,
				"message":    message,
			})
			return
		}

		if result.Warning != "" {
			_ = writeEvent(w, "warning", fiber.Map{"message": result.Warning})
		}
		_ = writeEvent(w, "end", result)
	}))

	return nil
}

func (c *chatController) SendMessage(ctx *fiber.Ctx) error {
	userId, err := userIdFromCtx(ctx)
	if err != nil {
		return err
	}

	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	res, err := c.service.SendMessage(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("message sent", res))
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	userId, err := userIdFromCtx(ctx)
	if err != nil {
		return err
	}

	sessionId := ctx.Params("sessionId")
	if sessionId == "" {
		return apperror.Validation("missing session id")
	}

	res, err := c.service.GetHistory(ctx.Context(), userId, sessionId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("history retrieved", res))
}

func (c *chatController) Sessions(ctx *fiber.Ctx) error {
	userId, err := userIdFromCtx(ctx)
	if err != nil {
		return err
	}

	documentId, err := uuid.Parse(ctx.Params("documentId"))
	if err != nil {
		return apperror.Validation("invalid document id")
	}

	res, err := c.service.ListSessions(ctx.Context(), userId, documentId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("sessions retrieved", res))
}

func (c *chatController) DeleteSession(ctx *fiber.Ctx) error {
	userId, err := userIdFromCtx(ctx)
	if err != nil {
		return err
	}

	sessionId := ctx.Params("sessionId")
	if sessionId == "" {
		return apperror.Validation("missing session id")
	}

	res, err := c.service.DeleteSession(ctx.Context(), userId, sessionId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("session deleted", res))
}
