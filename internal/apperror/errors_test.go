package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindHTTPStatus(t *testing.T) {
	assert.Equal(t, 400, KindValidation.HTTPStatus())
	assert.Equal(t, 409, KindSessionConflict.HTTPStatus())
	assert.Equal(t, 409, KindConflict.HTTPStatus())
	assert.Equal(t, 502, KindUpstream.HTTPStatus())
	assert.Equal(t, 500, KindPersistence.HTTPStatus())
	assert.Equal(t, 404, KindNotFound.HTTPStatus())
	assert.Equal(t, 401, KindUnauthorized.HTTPStatus())
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Upstream("model unavailable", cause)

	assert.Equal(t, "model unavailable", err.Error())
	assert.ErrorIs(t, err, cause)

	var appErr *Error
	wrapped := fmt.Errorf("stream chat: %w", err)
	assert.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, KindUpstream, appErr.Kind)
}
