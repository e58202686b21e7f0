package rest

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/useraccounts/internal/common"
	"github.com/dmitrijs2005/useraccounts/internal/filex"
	"github.com/gin-gonic/gin"
)

// stageFile saves the multipart file under field into the upload directory
// and returns its path, or "" when the request carries no such file. The
// returned cleanup removes the staged copy.
func (s *HTTPServer) stageFile(c *gin.Context, field string) (string, func(), error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", func() {}, nil
		}
		return "", func() {}, fmt.Errorf("read %s: %w", field, err)
	}

	name, err := common.MakeRandHexString(16)
	if err != nil {
		return "", func() {}, fmt.Errorf("stage %s: %w", field, err)
	}
	ext := strings.ToLower(filepath.Ext(filepath.Base(fh.Filename)))
	dst := filepath.Join(s.uploadDir, name+ext)

	if err := c.SaveUploadedFile(fh, dst); err != nil {
		return "", func() {}, fmt.Errorf("stage %s: %w", field, err)
	}

	cleanup := func() {
		if err := filex.Remove(dst); err != nil {
			s.logger.Warn(c.Request.Context(), "failed to remove staged upload", "path", dst, "error", err)
		}
	}
	return dst, cleanup, nil
}
