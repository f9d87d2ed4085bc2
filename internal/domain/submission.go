package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubmissionStatus type for submission lifecycle
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionSubmitted SubmissionStatus = "submitted" // Student confirmed an upload
	SubmissionGraded    SubmissionStatus = "graded"    // Teacher recorded marks/feedback
)

// Submission is a student's uploaded artifact for one assignment.
// The file itself lives in object storage; FileReference is the locator URL
// the storage layer produced for it and is never rewritten once set.
type Submission struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AssignmentID  primitive.ObjectID `bson:"assignmentId" json:"assignmentId"`
	StudentID     primitive.ObjectID `bson:"studentId" json:"studentId"`
	FileReference string             `bson:"fileReference,omitempty" json:"-"`
	FileName      string             `bson:"fileName,omitempty" json:"fileName,omitempty"` // Original name given by the student
	Status        SubmissionStatus   `bson:"status" json:"status"`
	Marks         *int               `bson:"marks,omitempty" json:"marks,omitempty"`
	Feedback      string             `bson:"feedback,omitempty" json:"feedback,omitempty"`
	SubmittedAt   *time.Time         `bson:"submittedAt,omitempty" json:"submittedAt,omitempty"`
	GradedAt      *time.Time         `bson:"gradedAt,omitempty" json:"gradedAt,omitempty"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// HasFile reports whether a file has been attached to the submission.
func (s *Submission) HasFile() bool {
	return s.FileReference != ""
}
