package rest

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/useraccounts/internal/common"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Envelope is the body of every response, successful or not.
type Envelope struct {
	StatusCode int      `json:"statusCode"`
	Data       any      `json:"data"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors,omitempty"`
}

func respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	})
}

// fail writes err as an error envelope. Internal causes are logged and replaced
// by a generic message.
func (s *HTTPServer) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Something went wrong"

	var appErr *common.Error
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		status = http.StatusRequestEntityTooLarge
		message = "Request body too large"
	case errors.As(err, &appErr):
		status = appErr.HTTPStatus()
		if appErr.Kind != common.KindInternal {
			message = appErr.Message
		}
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "error", err)
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, Envelope{StatusCode: status, Message: message})
}

// bindError turns a gin binding error into a validation envelope.
func (s *HTTPServer) bindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.fail(c, err)
		return
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		s.fail(c, common.Validation("Invalid request body"))
		return
	}

	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, describeField(fe))
	}

	status := http.StatusBadRequest
	c.AbortWithStatusJSON(status, Envelope{
		StatusCode: status,
		Message:    strings.Join(details, "; "),
		Errors:     details,
	})
}

func describeField(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}
