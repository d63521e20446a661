package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signaware-be/internal/apperror"
	"signaware-be/internal/constant"
	"signaware-be/internal/dto"
	"signaware-be/internal/entity"
	"signaware-be/internal/pkg/sessionlock"
	"signaware-be/internal/repository/contract"
	"signaware-be/internal/repository/specification"
	"signaware-be/internal/repository/unitofwork"
	"signaware-be/pkg/chat/grounding"
	"signaware-be/pkg/chat/prompt"
	"signaware-be/pkg/chat/relay"
	"signaware-be/pkg/chat/session"
	"signaware-be/pkg/llm"
)

// --- Test doubles ---

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

// memStore is the shared backing state behind the fake unit of work. Writes
// inside a transaction land in the uow's pending list and only reach
// committed on Commit, mirroring the real transactional behavior.
type memStore struct {
	mu                  sync.Mutex
	committed           []*entity.ChatMessage
	docs                map[uuid.UUID]*entity.Document
	seq                 int64
	failAssistantCreate bool
	failCommit          bool
}

func newMemStore() *memStore {
	return &memStore{docs: map[uuid.UUID]*entity.Document{}}
}

func (s *memStore) addDoc(doc *entity.Document) {
	s.docs[doc.Id] = doc
}

func (s *memStore) seed(msg *entity.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	msg.Seq = s.seq
	s.committed = append(s.committed, msg)
}

type memUow struct {
	store   *memStore
	pending []*entity.ChatMessage
	inTx    bool
}

func (u *memUow) Begin(_ context.Context) error { u.inTx = true; return nil }

func (u *memUow) Commit() error {
	if u.store.failCommit {
		u.pending = nil
		u.inTx = false
		return errors.New("commit failed")
	}
	u.store.mu.Lock()
	u.store.committed = append(u.store.committed, u.pending...)
	u.store.mu.Unlock()
	u.pending = nil
	u.inTx = false
	return nil
}

func (u *memUow) Rollback() error {
	u.pending = nil
	u.inTx = false
	return nil
}

func (u *memUow) UserRepository() contract.UserRepository { return nil }
func (u *memUow) DocumentRepository() contract.DocumentRepository {
	return &memDocRepo{store: u.store}
}
func (u *memUow) ChatMessageRepository() contract.ChatMessageRepository {
	return &memMsgRepo{uow: u}
}

type memFactory struct {
	store *memStore
}

func (f *memFactory) NewUnitOfWork(_ context.Context) unitofwork.UnitOfWork {
	return &memUow{store: f.store}
}

type memDocRepo struct {
	contract.DocumentRepository
	store *memStore
}

func (r *memDocRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.Document, error) {
	for _, sp := range specs {
		if byId, ok := sp.(specification.ByID); ok {
			if doc, found := r.store.docs[byId.ID]; found {
				return doc, nil
			}
		}
	}
	return nil, nil
}

type memMsgRepo struct {
	contract.ChatMessageRepository
	uow *memUow
}

func (r *memMsgRepo) visible() []*entity.ChatMessage {
	r.uow.store.mu.Lock()
	defer r.uow.store.mu.Unlock()
	out := append([]*entity.ChatMessage{}, r.uow.store.committed...)
	return append(out, r.uow.pending...)
}

func sessionFilter(specs []specification.Specification) (string, bool) {
	for _, sp := range specs {
		if bySession, ok := sp.(specification.BySessionID); ok {
			return bySession.SessionID, true
		}
	}
	return "", false
}

func (r *memMsgRepo) Create(_ context.Context, msg *entity.ChatMessage) error {
	if r.uow.store.failAssistantCreate && msg.Role == constant.RoleAssistant {
		return errors.New("insert failed")
	}
	r.uow.store.mu.Lock()
	r.uow.store.seq++
	msg.Seq = r.uow.store.seq
	r.uow.store.mu.Unlock()
	if r.uow.inTx {
		r.uow.pending = append(r.uow.pending, msg)
	} else {
		r.uow.store.mu.Lock()
		r.uow.store.committed = append(r.uow.store.committed, msg)
		r.uow.store.mu.Unlock()
	}
	return nil
}

func (r *memMsgRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	sessionId, _ := sessionFilter(specs)
	var out []*entity.ChatMessage
	for _, m := range r.visible() {
		if sessionId == "" || m.SessionId == sessionId {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (r *memMsgRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatMessage, error) {
	msgs, _ := r.FindAll(ctx, specs...)
	if len(msgs) == 0 {
		return nil, nil
	}
	return msgs[0], nil
}

func (r *memMsgRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	msgs, _ := r.FindAll(ctx, specs...)
	return int64(len(msgs)), nil
}

func (r *memMsgRepo) ListSessionIDs(_ context.Context, documentId, userId uuid.UUID) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, m := range r.visible() {
		if m.DocumentId == documentId && m.UserId == userId && !seen[m.SessionId] {
			seen[m.SessionId] = true
			out = append(out, m.SessionId)
		}
	}
	return out, nil
}

func (r *memMsgRepo) DeleteBySessionID(_ context.Context, sessionId string, documentId, userId uuid.UUID) (int64, error) {
	r.uow.store.mu.Lock()
	defer r.uow.store.mu.Unlock()
	var kept []*entity.ChatMessage
	var deleted int64
	for _, m := range r.uow.store.committed {
		if m.SessionId == sessionId && m.DocumentId == documentId && m.UserId == userId {
			deleted++
			continue
		}
		kept = append(kept, m)
	}
	r.uow.store.committed = kept
	return deleted, nil
}

type fakeProvider struct {
	chunks    []llm.StreamChunk
	streamErr error
	stall     bool
}

func (f *fakeProvider) Chat(context.Context, []llm.Message, ...llm.Option) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeProvider) Generate(context.Context, string, ...llm.Option) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeProvider) ChatStream(ctx context.Context, _ []llm.Message, _ ...llm.Option) (<-chan llm.StreamChunk, error) {
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	ch := make(chan llm.StreamChunk, len(f.chunks)+1)
	if f.stall {
		// Produce nothing until the caller's context ends, like a hung
		// upstream connection.
		go func() {
			<-ctx.Done()
			close(ch)
		}()
		return ch, nil
	}
	for _, c := range f.chunks {
		ch <- c
	}
	close(ch)
	return ch, nil
}

type recordingSink struct {
	chunks []string
	fail   bool
}

func (s *recordingSink) Chunk(content string) error {
	if s.fail {
		return errors.New("write: broken pipe")
	}
	s.chunks = append(s.chunks, content)
	return nil
}

// --- Helpers ---

func newTestChatService(store *memStore, provider llm.LLMProvider) IChatService {
	return NewChatService(
		&memFactory{store: store},
		provider,
		"test-model",
		prompt.NewBuilder(12000),
		grounding.NewGrounder(nil, nopLogger{}),
		session.NewRegistry(),
		relay.New(8),
		sessionlock.NewKeyedMutex(),
		time.Minute,
		nopLogger{},
	)
}

func seedDocument(store *memStore, userId uuid.UUID) *entity.Document {
	doc := &entity.Document{
		Id:     uuid.New(),
		Title:  "Lease Agreement",
		Type:   constant.DocumentTypeContract,
		Status: constant.DocumentStatusCompleted,
		UserId: userId,
		Analysis: &entity.DocumentAnalysis{
			Summary:        "A lease agreement.",
			RiskAssessment: "Low risk.",
			RiskScore:      2,
		},
	}
	store.addDoc(doc)
	return doc
}

// --- Tests ---

func TestStreamChat_CompletedTurnPersistsBothMessages(t *testing.T) {
	store := newMemStore()
	userId := uuid.New()
	doc := seedDocument(store, userId)

	svc := newTestChatService(store, &fakeProvider{chunks: []llm.StreamChunk{
		{Content: "The lease "},
		{Content: "looks fine."},
		{Done: true},
	}})

	sink := &recordingSink{}
	result, err := svc.StreamChat(context.Background(), userId, &dto.ChatRequest{
		Message:    "Is this lease safe?",
		SessionId:  "session-1",
		DocumentId: doc.Id,
	}, sink)

	require.NoError(t, err)
	require.NotNil(t, result.MessageId)
	assert.Empty(t, result.Warning)
	assert.Equal(t, "The lease looks fine.", result.FullContent)
	assert.Equal(t, []string{"The lease ", "looks fine."}, sink.chunks)

	require.Len(t, store.committed, 2)
	assert.Equal(t, constant.RoleUser, store.committed[0].Role)
	assert.Equal(t, constant.RoleAssistant, store.committed[1].Role)
	assert.Less(t, store.committed[0].Seq, store.committed[1].Seq)
}

func TestStreamChat_UpstreamFailureLeavesNothingPersisted(t *testing.T) {
	store := newMemStore()
	userId := uuid.New()
	doc := seedDocument(store, userId)

	svc := newTestChatService(store, &fakeProvider{chunks: []llm.StreamChunk{
		{Content: "partial"},
		{Err: errors.New("model crashed")},
	}})

	_, err := svc.StreamChat(context.Background(), userId, &dto.ChatRequest{
		Message:    "hello",
		SessionId:  "session-1",
		DocumentId: doc.Id,
	}, &recordingSink{})

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.KindUpstream, appErr.Kind)
	assert.Empty(t, store.committed)
}

func TestStreamChat_ClientGoneCancelsTurn(t *testing.T) {
	store := newMemStore()
	userId := uuid.New()
	doc := seedDocument(store, userId)

	svc := newTestChatService(store, &fakeProvider{chunks: []llm.StreamChunk{
		{Content: "chunk"},
		{Done: true},
	}})

	result, err := svc.StreamChat(context.Background(), userId, &dto.ChatRequest{
		Message:    "hello",
		SessionId:  "session-1",
		DocumentId: doc.Id,
	}, &recordingSink{fail: true})

	require.ErrorIs(t, err, relay.ErrClientGone)
	require.NotNil(t, result)
	assert.Empty(t, store.committed)
}

func TestStreamChat_PersistFailureAfterDeliveryWarns(t *testing.T) {
	store := newMemStore()
	store.failAssistantCreate = true
	userId := uuid.New()
	doc := seedDocument(store, userId)

	svc := newTestChatService(store, &fakeProvider{chunks: []llm.StreamChunk{
		{Content: "answer"},
		{Done: true},
	}})

	sink := &recordingSink{}
	result, err := svc.StreamChat(context.Background(), userId, &dto.ChatRequest{
		Message:    "hello",
		SessionId:  "session-1",
		DocumentId: doc.Id,
	}, sink)

	require.NoError(t, err)
	assert.Equal(t, WarningUnsaved, result.Warning)
	assert.Nil(t, result.MessageId)
	assert.Equal(t, []string{"answer"}, sink.chunks)
	assert.Empty(t, store.committed)
}

func TestStreamChat_CommitFailureAfterDeliveryWarns(t *testing.T) {
	store := newMemStore()
	store.failCommit = true
	userId := uuid.New()
	doc := seedDocument(store, userId)

	svc := newTestChatService(store, &fakeProvider{chunks: []llm.StreamChunk{
		{Content: "answer"},
		{Done: true},
	}})

	result, err := svc.StreamChat(context.Background(), userId, &dto.ChatRequest{
		Message:    "hello",
		SessionId:  "session-1",
		DocumentId: doc.Id,
	}, &recordingSink{})

	require.NoError(t, err)
	assert.Equal(t, WarningUnsaved, result.Warning)
	assert.Empty(t, store.committed)
}

func TestStreamChat_SessionBoundToOtherDocumentConflicts(t *testing.T) {
	store := newMemStore()
	userId := uuid.New()
	docA := seedDocument(store, userId)
	docB := seedDocument(store, userId)

	store.seed(&entity.ChatMessage{
		Id: uuid.New(), Role: constant.RoleUser, Content: "hi",
		SessionId: "session-1", DocumentId: docA.Id, UserId: userId,
	})

	svc := newTestChatService(store, &fakeProvider{})
	_, err := svc.StreamChat(context.Background(), userId, &dto.ChatRequest{
		Message:    "hello",
		SessionId:  "session-1",
		DocumentId: docB.Id,
	}, &recordingSink{})

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.KindSessionConflict, appErr.Kind)
	assert.Len(t, store.committed, 1)
}

func TestStreamChat_ForeignDocumentIsNotFound(t *testing.T) {
	store := newMemStore()
	owner := uuid.New()
	doc := seedDocument(store, owner)

	svc := newTestChatService(store, &fakeProvider{})
	_, err := svc.StreamChat(context.Background(), uuid.New(), &dto.ChatRequest{
		Message:    "hello",
		SessionId:  "session-1",
		DocumentId: doc.Id,
	}, &recordingSink{})

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.KindNotFound, appErr.Kind)
}

func TestGetHistory_ForeignSessionIsNotFound(t *testing.T) {
	store := newMemStore()
	owner := uuid.New()
	doc := seedDocument(store, owner)
	store.seed(&entity.ChatMessage{
		Id: uuid.New(), Role: constant.RoleUser, Content: "hi",
		SessionId: "session-1", DocumentId: doc.Id, UserId: owner,
	})

	svc := newTestChatService(store, &fakeProvider{})
	_, err := svc.GetHistory(context.Background(), uuid.New(), "session-1")

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.KindNotFound, appErr.Kind)
}

func TestGetHistory_ReturnsMessagesInOrder(t *testing.T) {
	store := newMemStore()
	userId := uuid.New()
	doc := seedDocument(store, userId)
	store.seed(&entity.ChatMessage{Id: uuid.New(), Role: constant.RoleUser, Content: "q1", SessionId: "s", DocumentId: doc.Id, UserId: userId})
	store.seed(&entity.ChatMessage{Id: uuid.New(), Role: constant.RoleAssistant, Content: "a1", SessionId: "s", DocumentId: doc.Id, UserId: userId})

	svc := newTestChatService(store, &fakeProvider{})
	history, err := svc.GetHistory(context.Background(), userId, "s")

	require.NoError(t, err)
	require.Len(t, history.Messages, 2)
	assert.Equal(t, "q1", history.Messages[0].Content)
	assert.Equal(t, "a1", history.Messages[1].Content)
}

func TestListSessions_SummariesNewestFirst(t *testing.T) {
	store := newMemStore()
	userId := uuid.New()
	doc := seedDocument(store, userId)

	older := time.Now().Add(-time.Hour)
	newer := time.Now()
	store.seed(&entity.ChatMessage{Id: uuid.New(), Role: constant.RoleUser, Content: "first session question", SessionId: "s1", DocumentId: doc.Id, UserId: userId, CreatedAt: older})
	store.seed(&entity.ChatMessage{Id: uuid.New(), Role: constant.RoleAssistant, Content: "answer", SessionId: "s1", DocumentId: doc.Id, UserId: userId, CreatedAt: older})
	store.seed(&entity.ChatMessage{Id: uuid.New(), Role: constant.RoleUser, Content: "second session question", SessionId: "s2", DocumentId: doc.Id, UserId: userId, CreatedAt: newer})

	svc := newTestChatService(store, &fakeProvider{})
	summaries, err := svc.ListSessions(context.Background(), userId, doc.Id)

	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "s2", summaries[0].SessionId)
	assert.Equal(t, "s1", summaries[1].SessionId)
	assert.Equal(t, int64(2), summaries[1].MessageCount)
	assert.Equal(t, "first session question", summaries[1].FirstMessage)
}

func TestDeleteSession_RemovesTranscript(t *testing.T) {
	store := newMemStore()
	userId := uuid.New()
	doc := seedDocument(store, userId)
	store.seed(&entity.ChatMessage{Id: uuid.New(), Role: constant.RoleUser, Content: "q", SessionId: "s", DocumentId: doc.Id, UserId: userId})
	store.seed(&entity.ChatMessage{Id: uuid.New(), Role: constant.RoleAssistant, Content: "a", SessionId: "s", DocumentId: doc.Id, UserId: userId})

	svc := newTestChatService(store, &fakeProvider{})
	result, err := svc.DeleteSession(context.Background(), userId, "s")

	require.NoError(t, err)
	assert.Equal(t, int64(2), result.DeletedMessages)
	assert.Empty(t, store.committed)

	_, err = svc.GetHistory(context.Background(), userId, "s")
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.KindNotFound, appErr.Kind)
}

func TestStreamChat_UpstreamTimeoutIsUpstreamError(t *testing.T) {
	store := newMemStore()
	userId := uuid.New()
	doc := seedDocument(store, userId)

	svc := NewChatService(
		&memFactory{store: store},
		&fakeProvider{stall: true},
		"test-model",
		prompt.NewBuilder(12000),
		grounding.NewGrounder(nil, nopLogger{}),
		session.NewRegistry(),
		relay.New(8),
		sessionlock.NewKeyedMutex(),
		20*time.Millisecond,
		nopLogger{},
	)

	_, err := svc.StreamChat(context.Background(), userId, &dto.ChatRequest{
		Message:    "hello",
		SessionId:  "session-1",
		DocumentId: doc.Id,
	}, &recordingSink{})

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.KindUpstream, appErr.Kind)
	assert.Empty(t, store.committed)
}
