package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"signaware-be/internal/apperror"
	"signaware-be/internal/repository/contract"
	"signaware-be/internal/repository/specification"
)

// Binding is the immutable (document, user) pair a session id belongs to,
// fixed by the session's first persisted message.
type Binding struct {
	DocumentId uuid.UUID
	UserId     uuid.UUID
}

// Registry answers "may this user write to this session against this
// document". Known bindings are held in an in-process cache; on a miss the
// session's first message is consulted, so the registry survives restarts.
type Registry struct {
	cache *gocache.Cache
}

func NewRegistry() *Registry {
	return &Registry{
		cache: gocache.New(1*time.Hour, 10*time.Minute),
	}
}

// Verify checks the session binding. A session nobody has written to yet is
// free to bind. A session bound to another user is reported as not found so
// session ids do not leak across accounts; a session bound to another
// document of the same user is a conflict.
func (r *Registry) Verify(ctx context.Context, messages contract.ChatMessageRepository, sessionId string, documentId, userId uuid.UUID) error {
	if cached, found := r.cache.Get(sessionId); found {
		return r.check(cached.(Binding), documentId, userId)
	}

	first, err := messages.FindOne(ctx, specification.BySessionID{SessionID: sessionId})
	if err != nil {
		return apperror.Persistence("failed to look up session", err)
	}
	if first == nil {
		// Unclaimed session id; the first committed message will bind it.
		return nil
	}

	binding := Binding{DocumentId: first.DocumentId, UserId: first.UserId}
	r.cache.SetDefault(sessionId, binding)
	return r.check(binding, documentId, userId)
}

func (r *Registry) check(binding Binding, documentId, userId uuid.UUID) error {
	if binding.UserId != userId {
		return apperror.NotFound("session not found")
	}
	if binding.DocumentId != documentId {
		return apperror.SessionConflict("session is already bound to a different document")
	}
	return nil
}

// Remember records a binding once a session's first message has been
// committed.
func (r *Registry) Remember(sessionId string, binding Binding) {
	r.cache.SetDefault(sessionId, binding)
}

// Forget drops a cached binding, e.g. after the session was deleted.
func (r *Registry) Forget(sessionId string) {
	r.cache.Delete(sessionId)
}
