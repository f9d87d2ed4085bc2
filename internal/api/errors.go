package api

import (
	"errors"
	"gradex/gradex/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// serviceErrorStatus maps service sentinel errors to HTTP status codes.
// The message of a mapped error is safe to show to the caller.
var serviceErrorStatus = []struct {
	err    error
	status int
}{
	{service.ErrUnauthenticated, http.StatusUnauthorized},
	{service.ErrAuthenticationFailed, http.StatusUnauthorized},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrAssignmentNotFound, http.StatusNotFound},
	{service.ErrSubmissionNotFound, http.StatusNotFound},
	{service.ErrSubmissionFileMissing, http.StatusNotFound},
	{service.ErrArchiveNotFound, http.StatusNotFound},
	{service.ErrInvalidFileReference, http.StatusBadRequest},
	{service.ErrInvalidInput, http.StatusBadRequest},
	{service.ErrUnsupportedFileType, http.StatusBadRequest},
	{service.ErrInvalidObjectKey, http.StatusBadRequest},
	{service.ErrInvalidMarks, http.StatusBadRequest},
	{service.ErrUserAlreadyExists, http.StatusConflict},
	{service.ErrFileAlreadyAttached, http.StatusConflict},
	{service.ErrAlreadyGraded, http.StatusConflict},
	{service.ErrNotSubmitted, http.StatusConflict},
}

// respondServiceError writes the JSON error for err. Unmapped errors are
// logged and reported as a generic 500.
func respondServiceError(c *gin.Context, logger *zap.Logger, err error) {
	for _, m := range serviceErrorStatus {
		if errors.Is(err, m.err) {
			abortWithError(c, m.status, m.err.Error())
			return
		}
	}
	logger.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	abortWithError(c, http.StatusInternalServerError, "Internal server error")
}
