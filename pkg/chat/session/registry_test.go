package session

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signaware-be/internal/apperror"
	"signaware-be/internal/entity"
	"signaware-be/internal/repository/contract"
	"signaware-be/internal/repository/specification"
)

type fakeMessageRepo struct {
	contract.ChatMessageRepository
	first *entity.ChatMessage
	err   error
	calls int
}

func (f *fakeMessageRepo) FindOne(_ context.Context, _ ...specification.Specification) (*entity.ChatMessage, error) {
	f.calls++
	return f.first, f.err
}

func TestVerify_UnclaimedSession(t *testing.T) {
	r := NewRegistry()
	repo := &fakeMessageRepo{}

	err := r.Verify(context.Background(), repo, "session-1", uuid.New(), uuid.New())
	assert.NoError(t, err)
}

func TestVerify_MatchingBindingFromRepo(t *testing.T) {
	documentId, userId := uuid.New(), uuid.New()
	r := NewRegistry()
	repo := &fakeMessageRepo{first: &entity.ChatMessage{DocumentId: documentId, UserId: userId}}

	require.NoError(t, r.Verify(context.Background(), repo, "session-1", documentId, userId))

	// Second call is served from cache.
	require.NoError(t, r.Verify(context.Background(), repo, "session-1", documentId, userId))
	assert.Equal(t, 1, repo.calls)
}

func TestVerify_DifferentDocumentIsConflict(t *testing.T) {
	userId := uuid.New()
	r := NewRegistry()
	repo := &fakeMessageRepo{first: &entity.ChatMessage{DocumentId: uuid.New(), UserId: userId}}

	err := r.Verify(context.Background(), repo, "session-1", uuid.New(), userId)

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.KindSessionConflict, appErr.Kind)
}

func TestVerify_ForeignUserLooksLikeMissingSession(t *testing.T) {
	documentId := uuid.New()
	r := NewRegistry()
	repo := &fakeMessageRepo{first: &entity.ChatMessage{DocumentId: documentId, UserId: uuid.New()}}

	err := r.Verify(context.Background(), repo, "session-1", documentId, uuid.New())

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.KindNotFound, appErr.Kind)
}

func TestVerify_RepoErrorIsPersistence(t *testing.T) {
	r := NewRegistry()
	repo := &fakeMessageRepo{err: errors.New("connection reset")}

	err := r.Verify(context.Background(), repo, "session-1", uuid.New(), uuid.New())

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.KindPersistence, appErr.Kind)
}

func TestRememberAndForget(t *testing.T) {
	documentId, userId := uuid.New(), uuid.New()
	r := NewRegistry()
	repo := &fakeMessageRepo{}

	r.Remember("session-1", Binding{DocumentId: documentId, UserId: userId})
	require.NoError(t, r.Verify(context.Background(), repo, "session-1", documentId, userId))
	assert.Equal(t, 0, repo.calls)

	r.Forget("session-1")
	require.NoError(t, r.Verify(context.Background(), repo, "session-1", documentId, userId))
	assert.Equal(t, 1, repo.calls)
}
