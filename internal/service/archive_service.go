package service

import (
	"context"
	"errors"
	"gradex/gradex/internal/storage"
	"io"
)

// ArchiveVerifier checks signed archive tokens.
type ArchiveVerifier interface {
	Verify(token string) (storage.ArchiveRequest, error)
}

// ArchiveService serves signed ZIP export links.
type ArchiveService interface {
	// Authorize validates the token of an export link.
	Authorize(token string) (storage.ArchiveRequest, error)
	// Write streams the archive described by req.
	Write(ctx context.Context, req storage.ArchiveRequest, w io.Writer) (int, error)
}

type archiveService struct {
	verifier ArchiveVerifier
	media    storage.MediaStorage
}

func NewArchiveService(verifier ArchiveVerifier, media storage.MediaStorage) ArchiveService {
	return &archiveService{verifier: verifier, media: media}
}

func (s *archiveService) Authorize(token string) (storage.ArchiveRequest, error) {
	req, err := s.verifier.Verify(token)
	if err != nil {
		return storage.ArchiveRequest{}, ErrForbidden
	}
	return req, nil
}

func (s *archiveService) Write(ctx context.Context, req storage.ArchiveRequest, w io.Writer) (int, error) {
	n, err := s.media.WriteArchive(ctx, req, w)
	if errors.Is(err, storage.ErrArchiveNotFound) {
		return 0, ErrArchiveNotFound
	}
	return n, err
}
