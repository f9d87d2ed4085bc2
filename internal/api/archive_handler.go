package api

import (
	"gradex/gradex/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const archiveFileName = "submissions.zip"

type ArchiveHandler struct {
	archiveService service.ArchiveService
	logger         *zap.Logger
}

func NewArchiveHandler(archiveService service.ArchiveService, logger *zap.Logger) *ArchiveHandler {
	return &ArchiveHandler{archiveService: archiveService, logger: logger}
}

// DownloadArchive godoc
// @Summary Download a signed ZIP export
// @Description The token is the credential; links are produced by the submission file endpoint.
// @Tags Submissions
// @Produce application/zip
// @Param token query string true "Signed archive token"
// @Success 200 {file} file "ZIP archive"
// @Failure 403 {object} gin.H "Invalid or expired link"
// @Router /archives/download [get]
func (h *ArchiveHandler) DownloadArchive(c *gin.Context) {
	req, err := h.archiveService.Authorize(c.Query("token"))
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", `attachment; filename="`+archiveFileName+`"`)
	c.Status(http.StatusOK)

	n, err := h.archiveService.Write(c.Request.Context(), req, c.Writer)
	if err != nil {
		if !c.Writer.Written() {
			c.Writer.Header().Del("Content-Type")
			c.Writer.Header().Del("Content-Disposition")
			respondServiceError(c, h.logger, err)
			return
		}
		// Headers are already sent; the client sees a truncated archive.
		h.logger.Error("archive stream failed",
			zap.Strings("public_ids", req.PublicIDs),
			zap.Int("entries_written", n),
			zap.Error(err))
		c.Abort()
		return
	}
	h.logger.Info("archive served", zap.Strings("public_ids", req.PublicIDs), zap.Int("entries", n))
}
