package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatusByKind(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{NotFound("missing"), http.StatusNotFound},
		{Validation("bad field"), http.StatusBadRequest},
		{BadRequest("bad query"), http.StatusBadRequest},
		{Forbidden("not yours"), http.StatusForbidden},
		{Internal("boom"), http.StatusInternalServerError},
		{&Error{Message: "untyped"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.HTTPStatus(), tt.err.Message)
	}
}

func TestErrorIncludesOp(t *testing.T) {
	err := NotFound("notification not found").WithOp("notification.repository.mark_read")
	assert.Equal(t, "notification.repository.mark_read: notification not found", err.Error())
}

func TestAsFindsWrappedError(t *testing.T) {
	cause := errors.New("connection reset")
	wrapped := fmt.Errorf("list organizations: %w", Wrap(KindInternal, "query failed", cause))

	e, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindInternal, e.Kind)
	assert.ErrorIs(t, wrapped, cause)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}
