package service

import (
	"context"
	"errors"
	"gradex/gradex/internal/domain"
	"gradex/gradex/internal/mail"
	"gradex/gradex/internal/repository"
	"gradex/gradex/internal/storage"
	"io"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// mockUserRepository is an in-memory UserRepository
type mockUserRepository struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]domain.User
	err   error
}

func newMockUserRepository(users ...domain.User) *mockUserRepository {
	m := &mockUserRepository{users: make(map[primitive.ObjectID]domain.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return primitive.NilObjectID, m.err
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	m.users[user.ID] = *user
	return user.ID, nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

// mockAssignmentRepository is an in-memory AssignmentRepository
type mockAssignmentRepository struct {
	assignments map[primitive.ObjectID]domain.Assignment
	err         error
}

func newMockAssignmentRepository(assignments ...domain.Assignment) *mockAssignmentRepository {
	m := &mockAssignmentRepository{assignments: make(map[primitive.ObjectID]domain.Assignment)}
	for _, a := range assignments {
		m.assignments[a.ID] = a
	}
	return m
}

func (m *mockAssignmentRepository) Create(ctx context.Context, assignment *domain.Assignment) (primitive.ObjectID, error) {
	if m.err != nil {
		return primitive.NilObjectID, m.err
	}
	assignment.ID = primitive.NewObjectID()
	m.assignments[assignment.ID] = *assignment
	return assignment.ID, nil
}

func (m *mockAssignmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Assignment, error) {
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.assignments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (m *mockAssignmentRepository) GetByTeacherID(ctx context.Context, teacherID primitive.ObjectID) ([]domain.Assignment, error) {
	if m.err != nil {
		return nil, m.err
	}
	res := []domain.Assignment{}
	for _, a := range m.assignments {
		if a.TeacherID == teacherID {
			res = append(res, a)
		}
	}
	return res, nil
}

// mockSubmissionRepository is an in-memory SubmissionRepository
type mockSubmissionRepository struct {
	submissions map[primitive.ObjectID]domain.Submission
	err         error
	lookups     int
}

func newMockSubmissionRepository(submissions ...domain.Submission) *mockSubmissionRepository {
	m := &mockSubmissionRepository{submissions: make(map[primitive.ObjectID]domain.Submission)}
	for _, s := range submissions {
		m.submissions[s.ID] = s
	}
	return m
}

func (m *mockSubmissionRepository) Create(ctx context.Context, submission *domain.Submission) (primitive.ObjectID, error) {
	if m.err != nil {
		return primitive.NilObjectID, m.err
	}
	for _, s := range m.submissions {
		if s.AssignmentID == submission.AssignmentID && s.StudentID == submission.StudentID {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	submission.ID = primitive.NewObjectID()
	m.submissions[submission.ID] = *submission
	return submission.ID, nil
}

func (m *mockSubmissionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Submission, error) {
	m.lookups++
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.submissions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (m *mockSubmissionRepository) GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID primitive.ObjectID) (*domain.Submission, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, s := range m.submissions {
		if s.AssignmentID == assignmentID && s.StudentID == studentID {
			s := s
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockSubmissionRepository) GetByAssignmentID(ctx context.Context, assignmentID primitive.ObjectID) ([]domain.Submission, error) {
	res := []domain.Submission{}
	for _, s := range m.submissions {
		if s.AssignmentID == assignmentID {
			res = append(res, s)
		}
	}
	return res, m.err
}

func (m *mockSubmissionRepository) GetByStudentID(ctx context.Context, studentID primitive.ObjectID) ([]domain.Submission, error) {
	res := []domain.Submission{}
	for _, s := range m.submissions {
		if s.StudentID == studentID {
			res = append(res, s)
		}
	}
	return res, m.err
}

func (m *mockSubmissionRepository) AttachFile(ctx context.Context, id primitive.ObjectID, fileReference, fileName string) error {
	s, ok := m.submissions[id]
	if !ok || s.FileReference != "" {
		return repository.ErrUpdateFailed
	}
	s.FileReference = fileReference
	s.FileName = fileName
	s.Status = domain.SubmissionSubmitted
	m.submissions[id] = s
	return nil
}

func (m *mockSubmissionRepository) UpdateGrade(ctx context.Context, id primitive.ObjectID, marks int, feedback string) error {
	s, ok := m.submissions[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.Marks = &marks
	s.Feedback = feedback
	s.Status = domain.SubmissionGraded
	m.submissions[id] = s
	return nil
}

// mockMediaStorage records calls and returns canned URLs
type mockMediaStorage struct {
	calls []string

	uploadURL    string
	uploadErr    error
	signedURL    string
	signedErr    error
	signedRefs   []storage.AssetRef
	zipURL       string
	zipErr       error
	zipRequests  []storage.ArchiveRequest
	locatorBase  string
	deletedKeys  []string
	archiveCount int
	archiveErr   error
}

func (m *mockMediaStorage) PresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error) {
	m.calls = append(m.calls, "upload")
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	return m.uploadURL + "/" + objectKey, nil
}

func (m *mockMediaStorage) PrivateDownloadURL(ctx context.Context, ref storage.AssetRef, expires time.Duration) (string, error) {
	m.calls = append(m.calls, "sign")
	m.signedRefs = append(m.signedRefs, ref)
	if m.signedErr != nil {
		return "", m.signedErr
	}
	return m.signedURL, nil
}

func (m *mockMediaStorage) ZipDownloadURL(req storage.ArchiveRequest) (string, error) {
	m.calls = append(m.calls, "zip")
	m.zipRequests = append(m.zipRequests, req)
	if m.zipErr != nil {
		return "", m.zipErr
	}
	return m.zipURL, nil
}

func (m *mockMediaStorage) LocatorFor(objectKey string) string {
	return m.locatorBase + "/" + objectKey
}

func (m *mockMediaStorage) WriteArchive(ctx context.Context, req storage.ArchiveRequest, w io.Writer) (int, error) {
	m.calls = append(m.calls, "archive")
	if m.archiveErr != nil {
		return 0, m.archiveErr
	}
	_, err := w.Write([]byte("zip"))
	return m.archiveCount, err
}

func (m *mockMediaStorage) DeleteObject(ctx context.Context, objectKey string) error {
	m.deletedKeys = append(m.deletedKeys, objectKey)
	return nil
}

// mockFetcher answers from a URL table; unknown URLs fail
type mockFetcher struct {
	objects map[string]*storage.FetchedObject
	fetched []string
}

func (m *mockFetcher) Fetch(ctx context.Context, rawURL string) (*storage.FetchedObject, error) {
	m.fetched = append(m.fetched, rawURL)
	if obj, ok := m.objects[rawURL]; ok {
		return obj, nil
	}
	return nil, storage.ErrUnexpectedStatus
}

// mockMailer captures notifications
type mockMailer struct {
	sent []mail.GradeNotification
	err  error
}

func (m *mockMailer) SendGradeNotification(ctx context.Context, n mail.GradeNotification) error {
	m.sent = append(m.sent, n)
	return m.err
}

var errBoom = errors.New("boom")

// blockingMailer waits for release and records the state of its context
type blockingMailer struct {
	release     chan struct{}
	ctxErr      *error
	hasDeadline bool
}

func (m *blockingMailer) SendGradeNotification(ctx context.Context, n mail.GradeNotification) error {
	<-m.release
	err := ctx.Err()
	m.ctxErr = &err
	_, m.hasDeadline = ctx.Deadline()
	return nil
}
