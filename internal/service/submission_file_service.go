package service

import (
	"context"
	"errors"
	"fmt"
	"gradex/gradex/internal/repository"
	"gradex/gradex/internal/storage"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DownloadStrategy names the way a submission file was delivered.
type DownloadStrategy string

const (
	StrategySignedURL DownloadStrategy = "signed_url"
	StrategyDirectURL DownloadStrategy = "direct_url"
	StrategyZipExport DownloadStrategy = "zip_export"
)

const (
	defaultExtension   = "pdf"
	genericContentType = "application/octet-stream"
)

var contentTypes = map[string]string{
	"pdf":  "application/pdf",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// SubmissionFile is either the file bytes or a redirect target.
type SubmissionFile struct {
	Body        []byte
	ContentType string
	FileName    string
	RedirectURL string
	Strategy    DownloadStrategy
}

// IsRedirect reports whether the caller should be redirected instead of
// receiving Body.
func (f *SubmissionFile) IsRedirect() bool {
	return f.RedirectURL != ""
}

// SubmissionFileService resolves the stored file of a submission.
type SubmissionFileService interface {
	// ResolveFile returns the file of submissionID for requesterID, who must be
	// the submitting student or the teacher of the parent assignment.
	ResolveFile(ctx context.Context, submissionID, requesterID string) (*SubmissionFile, error)
}

type submissionFileService struct {
	submissionRepo repository.SubmissionRepository
	assignmentRepo repository.AssignmentRepository
	media          storage.MediaStorage
	fetcher        storage.Fetcher
	signedURLTTL   time.Duration
	logger         *zap.Logger
}

// NewSubmissionFileService creates a new instance of submissionFileService.
func NewSubmissionFileService(
	submissionRepo repository.SubmissionRepository,
	assignmentRepo repository.AssignmentRepository,
	media storage.MediaStorage,
	fetcher storage.Fetcher,
	signedURLTTL time.Duration,
	logger *zap.Logger,
) SubmissionFileService {
	if signedURLTTL <= 0 {
		signedURLTTL = storage.DefaultPresignedURLExpiry
	}
	return &submissionFileService{
		submissionRepo: submissionRepo,
		assignmentRepo: assignmentRepo,
		media:          media,
		fetcher:        fetcher,
		signedURLTTL:   signedURLTTL,
		logger:         logger,
	}
}

// attempt is one delivery strategy. A nil result with a nil error never happens.
type attempt struct {
	strategy DownloadStrategy
	run      func(ctx context.Context) (*SubmissionFile, error)
}

func (s *submissionFileService) ResolveFile(ctx context.Context, submissionID, requesterID string) (*SubmissionFile, error) {
	requester, err := primitive.ObjectIDFromHex(requesterID)
	if requesterID == "" || err != nil {
		return nil, ErrUnauthenticated
	}
	subID, err := primitive.ObjectIDFromHex(submissionID)
	if err != nil {
		// No submission can carry a malformed id
		return nil, ErrSubmissionNotFound
	}

	submission, err := s.submissionRepo.GetByID(ctx, subID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("load submission: %w", err)
	}
	if !submission.HasFile() {
		return nil, ErrSubmissionFileMissing
	}

	allowed := requester == submission.StudentID
	if !allowed {
		assignment, err := s.assignmentRepo.GetByID(ctx, submission.AssignmentID)
		switch {
		case err == nil:
			allowed = requester == assignment.TeacherID
		case errors.Is(err, repository.ErrNotFound):
			// Orphaned submission: only its student may read it
		default:
			return nil, fmt.Errorf("load assignment: %w", err)
		}
	}
	if !allowed {
		return nil, ErrForbidden
	}

	loc, err := storage.ParseLocator(submission.FileReference)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFileReference, err)
	}

	ext := fileExtension(loc)
	contentType := contentTypeFor(ext)
	fileName := fmt.Sprintf("submission-%s.%s", submissionID, ext)

	bytesFrom := func(strategy DownloadStrategy, obj *storage.FetchedObject) *SubmissionFile {
		return &SubmissionFile{
			Body:        obj.Body,
			ContentType: contentType,
			FileName:    fileName,
			Strategy:    strategy,
		}
	}

	attempts := []attempt{
		{
			strategy: StrategySignedURL,
			run: func(ctx context.Context) (*SubmissionFile, error) {
				signed, err := s.media.PrivateDownloadURL(ctx, loc.Ref(storage.ResourceImage, ext), s.signedURLTTL)
				if err != nil {
					return nil, err
				}
				obj, err := s.fetcher.Fetch(ctx, signed)
				if err != nil {
					return nil, err
				}
				return bytesFrom(StrategySignedURL, obj), nil
			},
		},
		{
			strategy: StrategyDirectURL,
			run: func(ctx context.Context) (*SubmissionFile, error) {
				obj, err := s.fetcher.Fetch(ctx, submission.FileReference)
				if err != nil {
					return nil, err
				}
				return bytesFrom(StrategyDirectURL, obj), nil
			},
		},
	}

	log := s.logger.With(zap.String("submission_id", submissionID), zap.String("public_id", loc.PublicID))

	for _, a := range attempts {
		file, err := a.run(ctx)
		if err == nil {
			log.Debug("submission file served", zap.String("strategy", string(a.strategy)))
			return file, nil
		}
		log.Debug("submission file strategy failed", zap.String("strategy", string(a.strategy)), zap.Error(err))
	}

	zipURL, err := s.media.ZipDownloadURL(storage.ArchiveRequest{
		PublicIDs:      []string{loc.PublicID},
		ResourceType:   storage.ResourceImage,
		FlattenFolders: true,
	})
	if err != nil {
		return nil, fmt.Errorf("build zip export url: %w", err)
	}
	log.Info("submission file falling back to zip export")

	return &SubmissionFile{
		RedirectURL: zipURL,
		ContentType: contentType,
		FileName:    fileName,
		Strategy:    StrategyZipExport,
	}, nil
}

// fileExtension prefers the extension on the reference. Raw (non-image)
// uploads without one are documents, and so is anything else unmarked.
func fileExtension(loc storage.Locator) string {
	if loc.Format != "" {
		return loc.Format
	}
	return defaultExtension
}

func contentTypeFor(ext string) string {
	if ct, ok := contentTypes[strings.ToLower(ext)]; ok {
		return ct
	}
	return genericContentType
}
