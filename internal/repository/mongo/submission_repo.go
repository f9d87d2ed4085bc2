package mongo

import (
	"context"
	"errors"
	"gradex/gradex/internal/domain"
	"gradex/gradex/internal/repository"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const submissionCollectionName = "submissions"

// mongoSubmissionRepository implements repository.SubmissionRepository
type mongoSubmissionRepository struct {
	collection *mongo.Collection
}

// NewMongoSubmissionRepository creates a new Submission repository backed by MongoDB.
func NewMongoSubmissionRepository(db *mongo.Database) repository.SubmissionRepository {
	return &mongoSubmissionRepository{
		collection: db.Collection(submissionCollectionName),
	}
}

// Create inserts a new submission. Status defaults to pending.
func (r *mongoSubmissionRepository) Create(ctx context.Context, submission *domain.Submission) (primitive.ObjectID, error) {
	if submission.AssignmentID == primitive.NilObjectID || submission.StudentID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("submission requires assignmentId and studentId")
	}

	submission.ID = primitive.NewObjectID()
	submission.UpdatedAt = time.Now().UTC()
	if submission.Status == "" {
		submission.Status = domain.SubmissionPending
	}

	result, err := r.collection.InsertOne(ctx, submission)
	if err != nil {
		// One submission per (assignment, student)
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted submission ID")
	}
	return insertedID, nil
}

// GetByID retrieves a submission by its ID.
func (r *mongoSubmissionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Submission, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByAssignmentAndStudent retrieves the single submission a student made for an assignment.
func (r *mongoSubmissionRepository) GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID primitive.ObjectID) (*domain.Submission, error) {
	return r.findOne(ctx, bson.M{"assignmentId": assignmentID, "studentId": studentID})
}

func (r *mongoSubmissionRepository) findOne(ctx context.Context, filter bson.M) (*domain.Submission, error) {
	var submission domain.Submission
	err := r.collection.FindOne(ctx, filter).Decode(&submission)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &submission, nil
}

// GetByAssignmentID lists all submissions for an assignment, most recently updated first.
func (r *mongoSubmissionRepository) GetByAssignmentID(ctx context.Context, assignmentID primitive.ObjectID) ([]domain.Submission, error) {
	return r.find(ctx, bson.M{"assignmentId": assignmentID})
}

// GetByStudentID lists all submissions made by a student.
func (r *mongoSubmissionRepository) GetByStudentID(ctx context.Context, studentID primitive.ObjectID) ([]domain.Submission, error) {
	return r.find(ctx, bson.M{"studentId": studentID})
}

func (r *mongoSubmissionRepository) find(ctx context.Context, filter bson.M) ([]domain.Submission, error) {
	var submissions []domain.Submission
	findOptions := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &submissions); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return submissions, nil
}

// AttachFile records the uploaded file on a submission. The filter only
// matches documents without a file reference, so an existing reference is
// never overwritten.
func (r *mongoSubmissionRepository) AttachFile(ctx context.Context, id primitive.ObjectID, fileReference, fileName string) error {
	now := time.Now().UTC()
	filter := bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"fileReference": bson.M{"$exists": false}},
			bson.M{"fileReference": ""},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"fileReference": fileReference,
			"fileName":      fileName,
			"status":        domain.SubmissionSubmitted,
			"submittedAt":   now,
			"updatedAt":     now,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrUpdateFailed
	}
	return nil
}

// UpdateGrade stores marks and feedback and moves the submission to graded.
func (r *mongoSubmissionRepository) UpdateGrade(ctx context.Context, id primitive.ObjectID, marks int, feedback string) error {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"marks":     marks,
			"feedback":  feedback,
			"status":    domain.SubmissionGraded,
			"gradedAt":  now,
			"updatedAt": now,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureSubmissionIndexes creates necessary indexes for the submissions collection.
func EnsureSubmissionIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// One submission per student per assignment
			Keys:    bson.D{{Key: "assignmentId", Value: 1}, {Key: "studentId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "studentId", Value: 1}, {Key: "updatedAt", Value: -1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
