package service

import (
	"bytes"
	"context"
	"fmt"
	"gradex/gradex/internal/storage"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveService(t *testing.T) {
	signer, err := storage.NewArchiveSigner("secret", "https://api.example.com", time.Hour)
	require.NoError(t, err)
	media := &mockMediaStorage{archiveCount: 1}
	svc := NewArchiveService(signer, media)

	want := storage.ArchiveRequest{PublicIDs: []string{"a/b"}, ResourceType: storage.ResourceImage, FlattenFolders: true}
	link, err := signer.URL(want)
	require.NoError(t, err)
	token := link[len("https://api.example.com"+storage.ArchiveDownloadPath+"?token="):]

	got, err := svc.Authorize(token)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	var buf bytes.Buffer
	n, err := svc.Write(context.Background(), got, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "zip", buf.String())

	_, err = svc.Authorize("tampered")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestArchiveService_NoMatchingObjects(t *testing.T) {
	signer, err := storage.NewArchiveSigner("secret", "https://api.example.com", time.Hour)
	require.NoError(t, err)
	media := &mockMediaStorage{archiveErr: fmt.Errorf("list: %w", storage.ErrArchiveNotFound)}
	svc := NewArchiveService(signer, media)

	var buf bytes.Buffer
	_, err = svc.Write(context.Background(), storage.ArchiveRequest{PublicIDs: []string{"gone"}}, &buf)
	assert.ErrorIs(t, err, ErrArchiveNotFound)
	assert.Zero(t, buf.Len())
}
