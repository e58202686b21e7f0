package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesByKind(t *testing.T) {
	err := Unauthorized("refresh token mismatch")

	assert.True(t, errors.Is(err, ErrorUnauthorized))
	assert.False(t, errors.Is(err, ErrorNotFound))

	wrapped := fmt.Errorf("login: %w", err)
	assert.True(t, errors.Is(wrapped, ErrorUnauthorized))
}

func TestError_UnwrapExposesCause(t *testing.T) {
	cause := errors.New("s3 down")
	err := Upload("error uploading avatar", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrorUpload)
	assert.Contains(t, err.Error(), "s3 down")
}

func TestKind_HTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindConflict, http.StatusConflict},
		{KindNotFound, http.StatusNotFound},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindUpload, http.StatusBadGateway},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.HTTPStatus())
		})
	}
}

func TestKindOf(t *testing.T) {
	require.Equal(t, KindConflict, KindOf(fmt.Errorf("x: %w", Conflict("dup"))))
	require.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestErrTokenExpired_IsInvalidToken(t *testing.T) {
	assert.ErrorIs(t, ErrTokenExpired, ErrInvalidToken)
	assert.NotErrorIs(t, ErrMalformedToken, ErrInvalidToken)
}
