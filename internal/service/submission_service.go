package service

import (
	"context"
	"errors"
	"fmt"
	"gradex/gradex/internal/domain"
	"gradex/gradex/internal/mail"
	"gradex/gradex/internal/repository"
	"gradex/gradex/internal/storage"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// uploadCategory is the resource category of every upload made through the
// API, documents included. The file resolver signs and archives this category.
const uploadCategory = storage.ResourceImage

// uploadFormats maps accepted upload content types to the stored extension.
var uploadFormats = map[string]string{
	"application/pdf": "pdf",
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/gif":       "gif",
	"image/webp":      "webp",
}

// UploadURLResponse structure for returning URL and object key
type UploadURLResponse struct {
	UploadURL string    `json:"uploadUrl"`
	ObjectKey string    `json:"objectKey"` // Sent back on confirm
	ExpiresAt time.Time `json:"expiresAt"`
}

type SubmissionService interface {
	// Student side
	RequestUploadURL(ctx context.Context, studentID, assignmentID primitive.ObjectID, contentType string) (*UploadURLResponse, error)
	ConfirmUpload(ctx context.Context, studentID, assignmentID primitive.ObjectID, objectKey, fileName string) (*domain.Submission, error)
	ListMine(ctx context.Context, studentID primitive.ObjectID) ([]domain.Submission, error)

	// Teacher side
	ListForAssignment(ctx context.Context, teacherID, assignmentID primitive.ObjectID) ([]domain.Submission, error)
	Grade(ctx context.Context, teacherID, submissionID primitive.ObjectID, marks int, feedback string) (*domain.Submission, error)
}

type submissionService struct {
	userRepo       repository.UserRepository
	assignmentRepo repository.AssignmentRepository
	submissionRepo repository.SubmissionRepository
	media          storage.MediaStorage
	mailer         mail.Mailer
	logger         *zap.Logger
	now            func() time.Time

	mailTimeout time.Duration
	mailWG      sync.WaitGroup // pending grade notifications
}

const defaultMailTimeout = 30 * time.Second

func NewSubmissionService(
	userRepo repository.UserRepository,
	assignmentRepo repository.AssignmentRepository,
	submissionRepo repository.SubmissionRepository,
	media storage.MediaStorage,
	mailer mail.Mailer,
	logger *zap.Logger,
) SubmissionService {
	return &submissionService{
		userRepo:       userRepo,
		assignmentRepo: assignmentRepo,
		submissionRepo: submissionRepo,
		media:          media,
		mailer:         mailer,
		logger:         logger,
		now:            time.Now,
		mailTimeout:    defaultMailTimeout,
	}
}

// submissionFolder is the public id folder every upload of a student for an
// assignment lives under.
func submissionFolder(assignmentID, studentID primitive.ObjectID) string {
	return path.Join("submissions", assignmentID.Hex(), studentID.Hex())
}

// RequestUploadURL generates a pre-signed PUT URL and makes sure a pending
// submission exists for the student.
func (s *submissionService) RequestUploadURL(ctx context.Context, studentID, assignmentID primitive.ObjectID, contentType string) (*UploadURLResponse, error) {
	ext, ok := uploadFormats[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return nil, ErrUnsupportedFileType
	}

	if _, err := s.getAssignment(ctx, assignmentID); err != nil {
		return nil, err
	}

	existing, err := s.submissionRepo.GetByAssignmentAndStudent(ctx, assignmentID, studentID)
	switch {
	case err == nil:
		if existing.HasFile() {
			return nil, ErrFileAlreadyAttached
		}
	case errors.Is(err, repository.ErrNotFound):
		pending := &domain.Submission{
			AssignmentID: assignmentID,
			StudentID:    studentID,
			Status:       domain.SubmissionPending,
		}
		if _, err := s.submissionRepo.Create(ctx, pending); err != nil && !errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("create pending submission: %w", err)
		}
	default:
		return nil, fmt.Errorf("load submission: %w", err)
	}

	objectKey := storage.ObjectKeyFor(storage.AssetRef{
		PublicID:     path.Join(submissionFolder(assignmentID, studentID), uuid.NewString()),
		Format:       ext,
		ResourceType: uploadCategory,
		DeliveryType: storage.DeliveryUpload,
	})

	uploadURL, err := s.media.PresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, ErrUploadURLError
	}

	return &UploadURLResponse{
		UploadURL: uploadURL,
		ObjectKey: objectKey,
		ExpiresAt: s.now().Add(storage.DefaultPresignedURLExpiry).UTC(),
	}, nil
}

// ConfirmUpload records the uploaded object as the submission file.
// Called after the student finished the PUT to the pre-signed URL.
func (s *submissionService) ConfirmUpload(ctx context.Context, studentID, assignmentID primitive.ObjectID, objectKey, fileName string) (*domain.Submission, error) {
	if !ownsObjectKey(objectKey, assignmentID, studentID) {
		return nil, ErrInvalidObjectKey
	}
	if _, err := s.getAssignment(ctx, assignmentID); err != nil {
		return nil, err
	}

	fileReference := s.media.LocatorFor(objectKey)
	fileName = path.Base(strings.TrimSpace(fileName))
	if fileName == "." || fileName == "/" {
		fileName = ""
	}

	existing, err := s.submissionRepo.GetByAssignmentAndStudent(ctx, assignmentID, studentID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		now := s.now().UTC()
		submission := &domain.Submission{
			AssignmentID:  assignmentID,
			StudentID:     studentID,
			FileReference: fileReference,
			FileName:      fileName,
			Status:        domain.SubmissionSubmitted,
			SubmittedAt:   &now,
		}
		id, err := s.submissionRepo.Create(ctx, submission)
		if errors.Is(err, repository.ErrDuplicate) {
			s.discardUpload(ctx, objectKey)
			return nil, ErrFileAlreadyAttached
		}
		if err != nil {
			return nil, fmt.Errorf("create submission: %w", err)
		}
		submission.ID = id
		return submission, nil
	case err != nil:
		return nil, fmt.Errorf("load submission: %w", err)
	}

	if existing.HasFile() {
		s.discardUpload(ctx, objectKey)
		if existing.Status == domain.SubmissionGraded {
			return nil, ErrAlreadyGraded
		}
		return nil, ErrFileAlreadyAttached
	}

	if err := s.submissionRepo.AttachFile(ctx, existing.ID, fileReference, fileName); err != nil {
		if errors.Is(err, repository.ErrUpdateFailed) {
			s.discardUpload(ctx, objectKey)
			return nil, ErrFileAlreadyAttached
		}
		return nil, fmt.Errorf("attach file: %w", err)
	}

	now := s.now().UTC()
	existing.FileReference = fileReference
	existing.FileName = fileName
	existing.Status = domain.SubmissionSubmitted
	existing.SubmittedAt = &now
	existing.UpdatedAt = now
	return existing, nil
}

// discardUpload removes an object that will never be referenced.
func (s *submissionService) discardUpload(ctx context.Context, objectKey string) {
	if err := s.media.DeleteObject(ctx, objectKey); err != nil {
		s.logger.Warn("failed to delete orphaned upload", zap.String("key", objectKey), zap.Error(err))
	}
}

// ownsObjectKey checks that key was issued by RequestUploadURL for this
// student and assignment.
func ownsObjectKey(key string, assignmentID, studentID primitive.ObjectID) bool {
	if key == "" || strings.Contains(key, "..") {
		return false
	}
	prefix := path.Join(uploadCategory, storage.DeliveryUpload, submissionFolder(assignmentID, studentID)) + "/"
	if !strings.HasPrefix(key, prefix) {
		return false
	}
	name := key[len(prefix):]
	if strings.Contains(name, "/") {
		return false
	}
	for _, ext := range uploadFormats {
		if strings.HasSuffix(name, "."+ext) && len(name) > len(ext)+1 {
			return true
		}
	}
	return false
}

func (s *submissionService) ListMine(ctx context.Context, studentID primitive.ObjectID) ([]domain.Submission, error) {
	return s.submissionRepo.GetByStudentID(ctx, studentID)
}

func (s *submissionService) ListForAssignment(ctx context.Context, teacherID, assignmentID primitive.ObjectID) ([]domain.Submission, error) {
	assignment, err := s.getAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if assignment.TeacherID != teacherID {
		return nil, ErrForbidden
	}
	return s.submissionRepo.GetByAssignmentID(ctx, assignmentID)
}

// Grade records marks and feedback. Only the teacher of the parent assignment
// may grade; regrading overwrites the previous grade.
func (s *submissionService) Grade(ctx context.Context, teacherID, submissionID primitive.ObjectID, marks int, feedback string) (*domain.Submission, error) {
	submission, err := s.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("load submission: %w", err)
	}

	assignment, err := s.getAssignment(ctx, submission.AssignmentID)
	if err != nil {
		return nil, err
	}
	if assignment.TeacherID != teacherID {
		return nil, ErrForbidden
	}
	if !submission.HasFile() {
		return nil, ErrNotSubmitted
	}
	if marks < 0 || marks > assignment.MaxMarks {
		return nil, ErrInvalidMarks
	}

	feedback = strings.TrimSpace(feedback)
	if err := s.submissionRepo.UpdateGrade(ctx, submissionID, marks, feedback); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("update grade: %w", err)
	}

	now := s.now().UTC()
	submission.Marks = &marks
	submission.Feedback = feedback
	submission.Status = domain.SubmissionGraded
	submission.GradedAt = &now
	submission.UpdatedAt = now

	notification := *submission
	s.mailWG.Add(1)
	go func() {
		defer s.mailWG.Done()
		// Detached from the request, bounded by mailTimeout.
		mailCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.mailTimeout)
		defer cancel()
		s.notifyGraded(mailCtx, &notification, assignment)
	}()
	return submission, nil
}

// notifyGraded mails the student. It runs after Grade has returned, so
// failures are logged only.
func (s *submissionService) notifyGraded(ctx context.Context, submission *domain.Submission, assignment *domain.Assignment) {
	student, err := s.userRepo.GetByID(ctx, submission.StudentID)
	if err != nil {
		s.logger.Warn("grade notification skipped: student lookup failed",
			zap.String("submission_id", submission.ID.Hex()), zap.Error(err))
		return
	}

	err = s.mailer.SendGradeNotification(ctx, mail.GradeNotification{
		StudentName:     student.Name,
		StudentEmail:    student.Email,
		AssignmentTitle: assignment.Title,
		Marks:           *submission.Marks,
		MaxMarks:        assignment.MaxMarks,
		Feedback:        submission.Feedback,
	})
	if err != nil {
		s.logger.Error("grade notification failed",
			zap.String("submission_id", submission.ID.Hex()), zap.Error(err))
	}
}

func (s *submissionService) getAssignment(ctx context.Context, id primitive.ObjectID) (*domain.Assignment, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("load assignment: %w", err)
	}
	return assignment, nil
}
