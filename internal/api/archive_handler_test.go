package api

import (
	"context"
	"errors"
	"gradex/gradex/internal/service"
	"gradex/gradex/internal/storage"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type mockArchiveService struct {
	req      storage.ArchiveRequest
	authErr  error
	writeErr error
	token    string
}

func (m *mockArchiveService) Authorize(token string) (storage.ArchiveRequest, error) {
	m.token = token
	return m.req, m.authErr
}

func (m *mockArchiveService) Write(ctx context.Context, req storage.ArchiveRequest, w io.Writer) (int, error) {
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	_, err := w.Write([]byte("PK"))
	return 1, err
}

func serveArchive(svc service.ArchiveService, target string) *httptest.ResponseRecorder {
	r := gin.New()
	r.GET("/api/v1/archives/download", NewArchiveHandler(svc, zap.NewNop()).DownloadArchive)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestDownloadArchive(t *testing.T) {
	svc := &mockArchiveService{req: storage.ArchiveRequest{PublicIDs: []string{"a"}}}
	w := serveArchive(svc, "/api/v1/archives/download?token=abc")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", svc.token)
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="submissions.zip"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "PK", w.Body.String())
}

func TestDownloadArchive_InvalidToken(t *testing.T) {
	svc := &mockArchiveService{authErr: service.ErrForbidden}
	w := serveArchive(svc, "/api/v1/archives/download")

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"error"`)
}

func TestDownloadArchive_StreamFailure(t *testing.T) {
	svc := &mockArchiveService{writeErr: errors.New("s3 down")}
	w := serveArchive(svc, "/api/v1/archives/download?token=abc")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	assert.Empty(t, w.Header().Get("Content-Disposition"))
	assert.NotContains(t, w.Body.String(), "s3 down")
}

func TestDownloadArchive_NothingToDownload(t *testing.T) {
	svc := &mockArchiveService{
		req:      storage.ArchiveRequest{PublicIDs: []string{"submissions/a/b/c"}},
		writeErr: service.ErrArchiveNotFound,
	}
	w := serveArchive(svc, "/api/v1/archives/download?token=abc")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	assert.Empty(t, w.Header().Get("Content-Disposition"))
	assert.JSONEq(t, `{"error":"nothing to download for this link"}`, w.Body.String())
}
