package service

import (
	"context"
	"sort"
	"time"

	"signaware-be/internal/apperror"
	"signaware-be/internal/constant"
	"signaware-be/internal/dto"
	"signaware-be/internal/entity"
	"signaware-be/internal/pkg/logger"
	"signaware-be/internal/pkg/sessionlock"
	"signaware-be/internal/repository/specification"
	"signaware-be/internal/repository/unitofwork"
	"signaware-be/pkg/chat/grounding"
	"signaware-be/pkg/chat/prompt"
	"signaware-be/pkg/chat/relay"
	"signaware-be/pkg/chat/session"
	"signaware-be/pkg/llm"
	"signaware-be/pkg/utils"

	"github.com/google/uuid"
)

// WarningUnsaved is sent to clients when a fully delivered response could
// not be committed to the transcript.
const WarningUnsaved = "response delivered but could not be saved; it will be missing from the session history"

type IChatService interface {
	// VerifyAccess runs the pre-flight checks for a chat turn without
	// taking the session lock, so transports can reject bad requests
	// before committing to a stream.
	VerifyAccess(ctx context.Context, userId uuid.UUID, req *dto.ChatRequest) error

	// StreamChat executes one conversational turn, forwarding the
	// assistant's reply to sink as it is produced.
	StreamChat(ctx context.Context, userId uuid.UUID, req *dto.ChatRequest, sink relay.Sink) (*dto.ChatStreamResult, error)

	// SendMessage executes one turn without streaming and returns the
	// persisted assistant message.
	SendMessage(ctx context.Context, userId uuid.UUID, req *dto.ChatRequest) (*dto.ChatMessageResponse, error)

	GetHistory(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.ChatHistoryResponse, error)
	ListSessions(ctx context.Context, userId, documentId uuid.UUID) ([]dto.SessionSummaryResponse, error)
	DeleteSession(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.DeleteSessionResponse, error)
}

type chatService struct {
	uowFactory      unitofwork.RepositoryFactory
	chatProvider    llm.LLMProvider
	modelName       string
	promptBuilder   *prompt.Builder
	grounder        *grounding.Grounder
	registry        *session.Registry
	relay           *relay.Relay
	locks           *sessionlock.KeyedMutex
	upstreamTimeout time.Duration
	log             logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	chatProvider llm.LLMProvider,
	modelName string,
	promptBuilder *prompt.Builder,
	grounder *grounding.Grounder,
	registry *session.Registry,
	streamRelay *relay.Relay,
	locks *sessionlock.KeyedMutex,
	upstreamTimeout time.Duration,
	log logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory:      uowFactory,
		chatProvider:    chatProvider,
		modelName:       modelName,
		promptBuilder:   promptBuilder,
		grounder:        grounder,
		registry:        registry,
		relay:           streamRelay,
		locks:           locks,
		upstreamTimeout: upstreamTimeout,
		log:             log,
	}
}

// loadOwnedDocument enforces that the document exists and belongs to the
// caller before any chat work starts.
func (s *chatService) loadOwnedDocument(ctx context.Context, uow unitofwork.UnitOfWork, userId, documentId uuid.UUID) (*entity.Document, error) {
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: documentId})
	if err != nil {
		return nil, apperror.Persistence("failed to load document", err)
	}
	if doc == nil || doc.UserId != userId {
		return nil, apperror.NotFound("document not found")
	}
	return doc, nil
}

func (s *chatService) VerifyAccess(ctx context.Context, userId uuid.UUID, req *dto.ChatRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := s.loadOwnedDocument(ctx, uow, userId, req.DocumentId); err != nil {
		return err
	}
	return s.registry.Verify(ctx, uow.ChatMessageRepository(), req.SessionId, req.DocumentId, userId)
}

// sessionHistory loads the committed transcript in seq order.
func (s *chatService) sessionHistory(ctx context.Context, uow unitofwork.UnitOfWork, sessionId string) ([]*entity.ChatMessage, error) {
	msgs, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "seq"},
	)
	if err != nil {
		return nil, apperror.Persistence("failed to load chat history", err)
	}
	return msgs, nil
}

func historyToWindow(msgs []*entity.ChatMessage) []llm.Message {
	window := make([]llm.Message, len(msgs))
	for i, m := range msgs {
		window[i] = llm.Message{Role: m.Role, Content: m.Content}
	}
	return window
}

func (s *chatService) StreamChat(ctx context.Context, userId uuid.UUID, req *dto.ChatRequest, sink relay.Sink) (*dto.ChatStreamResult, error) {
	// One turn per session at a time; the lock spans the whole turn so the
	// transcript can never interleave.
	s.locks.Lock(req.SessionId)
	defer s.locks.Unlock(req.SessionId)

	uow := s.uowFactory.NewUnitOfWork(ctx)

	doc, err := s.loadOwnedDocument(ctx, uow, userId, req.DocumentId)
	if err != nil {
		return nil, err
	}
	if err := s.registry.Verify(ctx, uow.ChatMessageRepository(), req.SessionId, req.DocumentId, userId); err != nil {
		return nil, err
	}

	// History and grounding are read before the transaction opens, so the
	// window only ever contains committed turns.
	history, err := s.sessionHistory(ctx, uow, req.SessionId)
	if err != nil {
		return nil, err
	}
	groundingContext := s.grounder.ContextFor(ctx, doc)
	window := s.promptBuilder.Build(groundingContext, historyToWindow(history), req.Message)

	// The transaction spans the upstream call: if the turn dies mid-stream
	// nothing is persisted, not even the user's message.
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	userMsg := &entity.ChatMessage{
		Id:         uuid.New(),
		Content:    req.Message,
		Role:       constant.RoleUser,
		SessionId:  req.SessionId,
		DocumentId: req.DocumentId,
		UserId:     userId,
		CreatedAt:  time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, userMsg); err != nil {
		return nil, apperror.Persistence("failed to persist message", err)
	}

	upstreamCtx, cancel := context.WithTimeout(ctx, s.upstreamTimeout)
	defer cancel()

	chunks, err := s.chatProvider.ChatStream(upstreamCtx, window)
	if err != nil {
		return nil, apperror.Upstream("chat model request failed", err)
	}

	content, status, runErr := s.relay.Run(upstreamCtx, chunks, sink)

	switch status {
	case relay.StatusCancelled:
		// Rollback via defer: a cancelled turn leaves no trace.
		s.log.Info("CHAT", "turn cancelled", map[string]interface{}{
			"session_id": req.SessionId,
			"delivered":  len(content),
		})
		return &dto.ChatStreamResult{SessionId: req.SessionId}, runErr

	case relay.StatusFailed:
		return nil, apperror.Upstream("chat model stream failed", runErr)
	}

	assistantMsg := &entity.ChatMessage{
		Id:         uuid.New(),
		Content:    content,
		Role:       constant.RoleAssistant,
		SessionId:  req.SessionId,
		DocumentId: req.DocumentId,
		UserId:     userId,
		Metadata:   map[string]interface{}{"model_used": s.modelName},
		CreatedAt:  time.Now(),
	}

	result := &dto.ChatStreamResult{
		SessionId:   req.SessionId,
		FullContent: content,
	}

	// From here the client already has the full response, so persistence
	// failures downgrade to a warning instead of an error.
	if err := uow.ChatMessageRepository().Create(ctx, assistantMsg); err != nil {
		s.log.Error("CHAT", "failed to persist assistant message", map[string]interface{}{
			"session_id": req.SessionId,
			"error":      err.Error(),
		})
		result.Warning = WarningUnsaved
		return result, nil
	}
	if err := uow.Commit(); err != nil {
		s.log.Error("CHAT", "failed to commit chat turn", map[string]interface{}{
			"session_id": req.SessionId,
			"error":      err.Error(),
		})
		result.Warning = WarningUnsaved
		return result, nil
	}

	s.registry.Remember(req.SessionId, session.Binding{DocumentId: req.DocumentId, UserId: userId})
	result.MessageId = &assistantMsg.Id
	return result, nil
}

func (s *chatService) SendMessage(ctx context.Context, userId uuid.UUID, req *dto.ChatRequest) (*dto.ChatMessageResponse, error) {
	// A discarding sink: the caller gets the reply from the result instead.
	sink := relay.SinkFunc(func(string) error { return nil })

	result, err := s.StreamChat(ctx, userId, req, sink)
	if err != nil {
		return nil, err
	}
	if result.Warning != "" {
		return nil, apperror.Persistence(result.Warning, nil)
	}
	if result.MessageId == nil {
		return nil, apperror.Upstream("chat turn did not complete", nil)
	}

	return &dto.ChatMessageResponse{
		Id:         *result.MessageId,
		Role:       constant.RoleAssistant,
		Content:    result.FullContent,
		SessionId:  req.SessionId,
		DocumentId: req.DocumentId,
		CreatedAt:  time.Now(),
	}, nil
}

func (s *chatService) GetHistory(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.ChatHistoryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	msgs, err := s.sessionHistory(ctx, uow, sessionId)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, apperror.NotFound("session not found")
	}
	if msgs[0].UserId != userId {
		return nil, apperror.NotFound("session not found")
	}

	responses := make([]dto.ChatMessageResponse, len(msgs))
	for i, m := range msgs {
		responses[i] = dto.ChatMessageResponse{
			Id:         m.Id,
			Role:       m.Role,
			Content:    m.Content,
			SessionId:  m.SessionId,
			DocumentId: m.DocumentId,
			CreatedAt:  m.CreatedAt,
		}
	}

	return &dto.ChatHistoryResponse{
		SessionId: sessionId,
		Messages:  responses,
	}, nil
}

func (s *chatService) ListSessions(ctx context.Context, userId, documentId uuid.UUID) ([]dto.SessionSummaryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := s.loadOwnedDocument(ctx, uow, userId, documentId); err != nil {
		return nil, err
	}

	sessionIds, err := uow.ChatMessageRepository().ListSessionIDs(ctx, documentId, userId)
	if err != nil {
		return nil, apperror.Persistence("failed to list sessions", err)
	}

	summaries := make([]dto.SessionSummaryResponse, 0, len(sessionIds))
	for _, sessionId := range sessionIds {
		msgs, err := s.sessionHistory(ctx, uow, sessionId)
		if err != nil {
			return nil, err
		}
		if len(msgs) == 0 {
			continue
		}

		first := msgs[0]
		last := msgs[len(msgs)-1]
		summaries = append(summaries, dto.SessionSummaryResponse{
			SessionId:    sessionId,
			DocumentId:   documentId,
			FirstMessage: utils.Truncate(first.Content, 100),
			MessageCount: int64(len(msgs)),
			CreatedAt:    first.CreatedAt,
			UpdatedAt:    last.CreatedAt,
		})
	}

	// Newest activity first.
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}

func (s *chatService) DeleteSession(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.DeleteSessionResponse, error) {
	s.locks.Lock(sessionId)
	defer s.locks.Unlock(sessionId)

	uow := s.uowFactory.NewUnitOfWork(ctx)

	first, err := uow.ChatMessageRepository().FindOne(ctx, specification.BySessionID{SessionID: sessionId})
	if err != nil {
		return nil, apperror.Persistence("failed to look up session", err)
	}
	if first == nil || first.UserId != userId {
		return nil, apperror.NotFound("session not found")
	}

	deleted, err := uow.ChatMessageRepository().DeleteBySessionID(ctx, sessionId, first.DocumentId, userId)
	if err != nil {
		return nil, apperror.Persistence("failed to delete session", err)
	}
	s.registry.Forget(sessionId)

	return &dto.DeleteSessionResponse{
		SessionId:       sessionId,
		DeletedMessages: deleted,
	}, nil
}
