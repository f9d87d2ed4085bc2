package repository

import (
	"context"
	"gradex/gradex/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// AssignmentRepository defines the interface for interacting with assignment data.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.Assignment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Assignment, error)
	GetByTeacherID(ctx context.Context, teacherID primitive.ObjectID) ([]domain.Assignment, error)
}

// SubmissionRepository defines the interface for interacting with submission data.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *domain.Submission) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Submission, error)
	GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID primitive.ObjectID) (*domain.Submission, error)
	GetByAssignmentID(ctx context.Context, assignmentID primitive.ObjectID) ([]domain.Submission, error)
	GetByStudentID(ctx context.Context, studentID primitive.ObjectID) ([]domain.Submission, error)
	// AttachFile sets the file reference, only when none is set yet.
	AttachFile(ctx context.Context, id primitive.ObjectID, fileReference, fileName string) error
	// UpdateGrade writes marks and feedback and marks the submission graded.
	UpdateGrade(ctx context.Context, id primitive.ObjectID, marks int, feedback string) error
}
