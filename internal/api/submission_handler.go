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

type SubmissionHandler struct {
	submissionService service.SubmissionService
	logger            *zap.Logger
}

func NewSubmissionHandler(submissionService service.SubmissionService, logger *zap.Logger) *SubmissionHandler {
	return &SubmissionHandler{submissionService: submissionService, logger: logger}
}

// --- DTOs ---

type RequestUploadURLRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type ConfirmUploadRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
	FileName  string `json:"fileName"`
}

type GradeSubmissionRequest struct {
	Marks    *int   `json:"marks" binding:"required"`
	Feedback string `json:"feedback"`
}

// SubmissionResponse omits the storage locator; files are fetched through
// the submission file endpoint.
type SubmissionResponse struct {
	ID           string                  `json:"id"`
	AssignmentID string                  `json:"assignmentId"`
	StudentID    string                  `json:"studentId"`
	FileName     string                  `json:"fileName,omitempty"`
	HasFile      bool                    `json:"hasFile"`
	Status       domain.SubmissionStatus `json:"status"`
	Marks        *int                    `json:"marks,omitempty"`
	Feedback     string                  `json:"feedback,omitempty"`
	SubmittedAt  *time.Time              `json:"submittedAt,omitempty"`
	GradedAt     *time.Time              `json:"gradedAt,omitempty"`
	UpdatedAt    time.Time               `json:"updatedAt"`
}

func MapSubmissionToResponse(s *domain.Submission) SubmissionResponse {
	if s == nil {
		return SubmissionResponse{}
	}
	return SubmissionResponse{
		ID:           s.ID.Hex(),
		AssignmentID: s.AssignmentID.Hex(),
		StudentID:    s.StudentID.Hex(),
		FileName:     s.FileName,
		HasFile:      s.HasFile(),
		Status:       s.Status,
		Marks:        s.Marks,
		Feedback:     s.Feedback,
		SubmittedAt:  s.SubmittedAt,
		GradedAt:     s.GradedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func MapSubmissionsToResponse(submissions []domain.Submission) []SubmissionResponse {
	res := make([]SubmissionResponse, len(submissions))
	for i := range submissions {
		res[i] = MapSubmissionToResponse(&submissions[i])
	}
	return res
}

// assignmentParam parses the :assignmentId path parameter. An unparsable id
// can never match an assignment, so it is reported as not found.
func assignmentParam(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("assignmentId"))
	if err != nil {
		abortWithError(c, http.StatusNotFound, service.ErrAssignmentNotFound.Error())
		return primitive.NilObjectID, false
	}
	return id, true
}

// RequestUploadURL godoc
// @Summary Request a pre-signed URL to upload a submission file
// @Tags Student
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param assignmentId path string true "Assignment ID"
// @Param request body RequestUploadURLRequest true "Content type of the file"
// @Success 200 {object} service.UploadURLResponse
// @Failure 400 {object} gin.H "Unsupported file type"
// @Failure 404 {object} gin.H "Assignment not found"
// @Failure 409 {object} gin.H "A file was already submitted"
// @Router /student/assignments/{assignmentId}/upload-url [post]
func (h *SubmissionHandler) RequestUploadURL(c *gin.Context) {
	var req RequestUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	studentID, ok := userObjectID(c)
	if !ok {
		return
	}
	assignmentID, ok := assignmentParam(c)
	if !ok {
		return
	}

	res, err := h.submissionService.RequestUploadURL(c.Request.Context(), studentID, assignmentID, req.ContentType)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// ConfirmUpload godoc
// @Summary Confirm an uploaded submission file
// @Tags Student
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param assignmentId path string true "Assignment ID"
// @Param request body ConfirmUploadRequest true "Object key returned by upload-url"
// @Success 201 {object} SubmissionResponse
// @Failure 400 {object} gin.H "Object key does not belong to this submission"
// @Failure 404 {object} gin.H "Assignment not found"
// @Failure 409 {object} gin.H "Already submitted or graded"
// @Router /student/assignments/{assignmentId}/submission [post]
func (h *SubmissionHandler) ConfirmUpload(c *gin.Context) {
	var req ConfirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	studentID, ok := userObjectID(c)
	if !ok {
		return
	}
	assignmentID, ok := assignmentParam(c)
	if !ok {
		return
	}

	submission, err := h.submissionService.ConfirmUpload(c.Request.Context(), studentID, assignmentID, req.ObjectKey, req.FileName)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, MapSubmissionToResponse(submission))
}

// GetMySubmissions godoc
// @Summary List the authenticated student's submissions
// @Tags Student
// @Produce json
// @Security BearerAuth
// @Success 200 {array} SubmissionResponse
// @Router /student/submissions [get]
func (h *SubmissionHandler) GetMySubmissions(c *gin.Context) {
	studentID, ok := userObjectID(c)
	if !ok {
		return
	}

	submissions, err := h.submissionService.ListMine(c.Request.Context(), studentID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, MapSubmissionsToResponse(submissions))
}

// GetAssignmentSubmissions godoc
// @Summary List submissions for one of the teacher's assignments
// @Tags Teacher
// @Produce json
// @Security BearerAuth
// @Param assignmentId path string true "Assignment ID"
// @Success 200 {array} SubmissionResponse
// @Failure 403 {object} gin.H "Not the assignment's teacher"
// @Failure 404 {object} gin.H "Assignment not found"
// @Router /teacher/assignments/{assignmentId}/submissions [get]
func (h *SubmissionHandler) GetAssignmentSubmissions(c *gin.Context) {
	teacherID, ok := userObjectID(c)
	if !ok {
		return
	}
	assignmentID, ok := assignmentParam(c)
	if !ok {
		return
	}

	submissions, err := h.submissionService.ListForAssignment(c.Request.Context(), teacherID, assignmentID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, MapSubmissionsToResponse(submissions))
}

// GradeSubmission godoc
// @Summary Grade a submission
// @Tags Teacher
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param submissionId path string true "Submission ID"
// @Param grade body GradeSubmissionRequest true "Marks and feedback"
// @Success 200 {object} SubmissionResponse
// @Failure 400 {object} gin.H "Marks out of range"
// @Failure 403 {object} gin.H "Not the assignment's teacher"
// @Failure 404 {object} gin.H "Submission not found"
// @Failure 409 {object} gin.H "Nothing submitted yet"
// @Router /teacher/submissions/{submissionId}/grade [put]
func (h *SubmissionHandler) GradeSubmission(c *gin.Context) {
	var req GradeSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	teacherID, ok := userObjectID(c)
	if !ok {
		return
	}
	submissionID, err := primitive.ObjectIDFromHex(c.Param("submissionId"))
	if err != nil {
		abortWithError(c, http.StatusNotFound, service.ErrSubmissionNotFound.Error())
		return
	}

	submission, err := h.submissionService.Grade(c.Request.Context(), teacherID, submissionID, *req.Marks, req.Feedback)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, MapSubmissionToResponse(submission))
}
