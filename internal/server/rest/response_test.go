package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/useraccounts/internal/common"
	"github.com/dmitrijs2005/useraccounts/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failWith(t *testing.T, err error) (int, Envelope) {
	t.Helper()
	s := &HTTPServer{logger: logging.Nop{}}

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	s.fail(c, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec.Code, env
}

func TestFail_MapsKinds(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{common.Validation("All fields are required"), http.StatusBadRequest, "All fields are required"},
		{common.Conflict("exists"), http.StatusConflict, "exists"},
		{common.NotFound("User does not exist"), http.StatusNotFound, "User does not exist"},
		{common.Unauthorized("nope"), http.StatusUnauthorized, "nope"},
		{common.Upload("Error while uploading avatar", errors.New("s3")), http.StatusBadGateway, "Error while uploading avatar"},
		{common.Internal("db password leaked here", errors.New("x")), http.StatusInternalServerError, "Something went wrong"},
		{errors.New("raw"), http.StatusInternalServerError, "Something went wrong"},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			status, env := failWith(t, tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.status, env.StatusCode)
			assert.Equal(t, tt.message, env.Message)
			assert.False(t, env.Success)
			assert.Nil(t, env.Data)
		})
	}
}

func TestAccessTokenFrom(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, accessTokenFrom(c))

	c.Request.Header.Set("Authorization", "Bearer abc")
	assert.Equal(t, "abc", accessTokenFrom(c))

	c.Request.AddCookie(&http.Cookie{Name: "accessToken", Value: "fromcookie"})
	assert.Equal(t, "fromcookie", accessTokenFrom(c))
}

func TestCurrentUser_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := CurrentUser(c)
	assert.False(t, ok)
}
