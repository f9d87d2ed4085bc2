package service

import "errors"

// --- Error Definitions ---
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("you are not allowed to access this resource")
	ErrInvalidInput    = errors.New("invalid input")

	ErrUserAlreadyExists    = errors.New("user with this email already exists")
	ErrAuthenticationFailed = errors.New("authentication failed: invalid email or password")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")

	ErrAssignmentNotFound = errors.New("assignment not found")

	ErrSubmissionNotFound    = errors.New("submission not found")
	ErrSubmissionFileMissing = errors.New("submission has no file")
	ErrInvalidFileReference  = errors.New("submission file reference cannot be resolved")
	ErrUnsupportedFileType   = errors.New("unsupported file type")
	ErrInvalidObjectKey      = errors.New("object key does not belong to this submission")
	ErrFileAlreadyAttached   = errors.New("a file was already submitted for this assignment")
	ErrAlreadyGraded         = errors.New("submission has already been graded")
	ErrNotSubmitted          = errors.New("submission has no file to grade")
	ErrInvalidMarks          = errors.New("marks are outside the allowed range")
	ErrUploadURLError        = errors.New("failed to generate upload URL")
	ErrArchiveNotFound       = errors.New("nothing to download for this link")
)
