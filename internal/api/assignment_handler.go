package api

import (
	"gradex/gradex/internal/domain"
	"gradex/gradex/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type AssignmentHandler struct {
	assignmentService service.AssignmentService
	logger            *zap.Logger
}

func NewAssignmentHandler(assignmentService service.AssignmentService, logger *zap.Logger) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: assignmentService, logger: logger}
}

// --- DTOs ---

type CreateAssignmentRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	MaxMarks    int        `json:"maxMarks" binding:"omitempty,min=1"`
}

type AssignmentResponse struct {
	ID          string     `json:"id"`
	TeacherID   string     `json:"teacherId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	MaxMarks    int        `json:"maxMarks"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func MapAssignmentToResponse(a *domain.Assignment) AssignmentResponse {
	if a == nil {
		return AssignmentResponse{}
	}
	return AssignmentResponse{
		ID:          a.ID.Hex(),
		TeacherID:   a.TeacherID.Hex(),
		Title:       a.Title,
		Description: a.Description,
		DueDate:     a.DueDate,
		MaxMarks:    a.MaxMarks,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func MapAssignmentsToResponse(assignments []domain.Assignment) []AssignmentResponse {
	res := make([]AssignmentResponse, len(assignments))
	for i := range assignments {
		res[i] = MapAssignmentToResponse(&assignments[i])
	}
	return res
}

// CreateAssignment godoc
// @Summary Create an assignment
// @Tags Teacher
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param assignment body CreateAssignmentRequest true "Assignment details"
// @Success 201 {object} AssignmentResponse
// @Failure 400 {object} gin.H "Validation error"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 403 {object} gin.H "Forbidden (not a teacher)"
// @Router /teacher/assignments [post]
func (h *AssignmentHandler) CreateAssignment(c *gin.Context) {
	var req CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	teacherID, ok := userObjectID(c)
	if !ok {
		return
	}

	assignment, err := h.assignmentService.Create(c.Request.Context(), teacherID, service.CreateAssignmentInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		MaxMarks:    req.MaxMarks,
	})
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, MapAssignmentToResponse(assignment))
}

// GetTeacherAssignments godoc
// @Summary List the authenticated teacher's assignments
// @Tags Teacher
// @Produce json
// @Security BearerAuth
// @Success 200 {array} AssignmentResponse
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 403 {object} gin.H "Forbidden (not a teacher)"
// @Router /teacher/assignments [get]
func (h *AssignmentHandler) GetTeacherAssignments(c *gin.Context) {
	teacherID, ok := userObjectID(c)
	if !ok {
		return
	}

	assignments, err := h.assignmentService.ListByTeacher(c.Request.Context(), teacherID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, MapAssignmentsToResponse(assignments))
}

// GetAssignment godoc
// @Summary Get one assignment
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Param assignmentId path string true "Assignment ID"
// @Success 200 {object} AssignmentResponse
// @Failure 404 {object} gin.H "Assignment not found"
// @Router /assignments/{assignmentId} [get]
func (h *AssignmentHandler) GetAssignment(c *gin.Context) {
	assignmentID, err := primitive.ObjectIDFromHex(c.Param("assignmentId"))
	if err != nil {
		abortWithError(c, http.StatusNotFound, service.ErrAssignmentNotFound.Error())
		return
	}

	assignment, err := h.assignmentService.GetByID(c.Request.Context(), assignmentID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, MapAssignmentToResponse(assignment))
}
