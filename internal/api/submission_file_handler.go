package api

import (
	"fmt"
	"gradex/gradex/internal/service"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SubmissionFileHandler struct {
	fileService service.SubmissionFileService
	logger      *zap.Logger
}

func NewSubmissionFileHandler(fileService service.SubmissionFileService, logger *zap.Logger) *SubmissionFileHandler {
	return &SubmissionFileHandler{fileService: fileService, logger: logger}
}

// GetSubmissionFile godoc
// @Summary Download the file of a submission
// @Description Streams the file to the submitting student or the assignment's teacher.
// @Description When storage cannot serve the bytes, redirects to a ZIP export link.
// @Tags Submissions
// @Produce octet-stream
// @Security BearerAuth
// @Param submissionId path string true "Submission ID"
// @Success 200 {file} file "Submission file"
// @Success 302 "Redirect to a ZIP export of the file"
// @Failure 400 {object} gin.H "Stored file reference cannot be resolved"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 403 {object} gin.H "Not the student or the grading teacher"
// @Failure 404 {object} gin.H "Submission or file not found"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /submissions/{submissionId}/file [get]
func (h *SubmissionFileHandler) GetSubmissionFile(c *gin.Context) {
	requesterID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, service.ErrUnauthenticated.Error())
		return
	}

	file, err := h.fileService.ResolveFile(c.Request.Context(), c.Param("submissionId"), requesterID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	if file.IsRedirect() {
		c.Redirect(http.StatusFound, file.RedirectURL)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Header("Content-Length", strconv.Itoa(len(file.Body)))
	c.Data(http.StatusOK, file.ContentType, file.Body)
}
