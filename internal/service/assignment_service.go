package service

import (
	"context"
	"errors"
	"fmt"
	"gradex/gradex/internal/domain"
	"gradex/gradex/internal/repository"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultMaxMarks = 100

// CreateAssignmentInput carries the teacher-provided assignment fields.
type CreateAssignmentInput struct {
	Title       string
	Description string
	DueDate     *time.Time
	MaxMarks    int
}

type AssignmentService interface {
	Create(ctx context.Context, teacherID primitive.ObjectID, input CreateAssignmentInput) (*domain.Assignment, error)
	ListByTeacher(ctx context.Context, teacherID primitive.ObjectID) ([]domain.Assignment, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Assignment, error)
}

type assignmentService struct {
	assignmentRepo repository.AssignmentRepository
}

func NewAssignmentService(assignmentRepo repository.AssignmentRepository) AssignmentService {
	return &assignmentService{assignmentRepo: assignmentRepo}
}

func (s *assignmentService) Create(ctx context.Context, teacherID primitive.ObjectID, input CreateAssignmentInput) (*domain.Assignment, error) {
	title := strings.TrimSpace(input.Title)
	if teacherID == primitive.NilObjectID || title == "" {
		return nil, fmt.Errorf("%w: teacher and title are required", ErrInvalidInput)
	}
	if input.MaxMarks < 0 {
		return nil, fmt.Errorf("%w: maxMarks cannot be negative", ErrInvalidInput)
	}
	if input.MaxMarks == 0 {
		input.MaxMarks = defaultMaxMarks
	}

	assignment := &domain.Assignment{
		TeacherID:   teacherID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		DueDate:     input.DueDate,
		MaxMarks:    input.MaxMarks,
	}
	id, err := s.assignmentRepo.Create(ctx, assignment)
	if err != nil {
		return nil, fmt.Errorf("create assignment: %w", err)
	}
	assignment.ID = id
	return assignment, nil
}

func (s *assignmentService) ListByTeacher(ctx context.Context, teacherID primitive.ObjectID) ([]domain.Assignment, error) {
	return s.assignmentRepo.GetByTeacherID(ctx, teacherID)
}

func (s *assignmentService) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Assignment, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	return assignment, nil
}
