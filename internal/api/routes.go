package api

import (
	"gradex/gradex/internal/domain"
	"gradex/gradex/internal/service"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Services bundles what the HTTP layer needs from the service layer.
type Services struct {
	Auth           service.AuthService
	Assignment     service.AssignmentService
	Submission     service.SubmissionService
	SubmissionFile service.SubmissionFileService
	Archive        service.ArchiveService
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Disposition", "Content-Length"},
		AllowCredentials: true,
	}
	if len(allowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = allowedOrigins
	}
	return cors.New(cfg)
}

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	allowedOrigins []string,
	services Services,
	logger *zap.Logger,
) {
	authHandler := NewAuthHandler(services.Auth, logger)
	assignmentHandler := NewAssignmentHandler(services.Assignment, logger)
	submissionHandler := NewSubmissionHandler(services.Submission, logger)
	fileHandler := NewSubmissionFileHandler(services.SubmissionFile, logger)
	archiveHandler := NewArchiveHandler(services.Archive, logger)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.Use(corsMiddleware(allowedOrigins))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		// Signed links carry their own credential
		apiV1.GET("/archives/download", archiveHandler.DownloadArchive)
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := getUserRoleFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userIDStr, "role": role})
		})

		protected.GET("/assignments/:assignmentId", assignmentHandler.GetAssignment)

		// GET /api/v1/submissions/{submissionId}/file
		// Role is not checked here: the student and the grading teacher are
		// resolved against the submission itself.
		protected.GET("/submissions/:submissionId/file", fileHandler.GetSubmissionFile)

		// --- Teacher Specific Routes ---
		teacherGroup := protected.Group("/teacher")
		teacherGroup.Use(RoleMiddleware(domain.RoleTeacher))
		{
			teacherGroup.POST("/assignments", assignmentHandler.CreateAssignment)
			teacherGroup.GET("/assignments", assignmentHandler.GetTeacherAssignments)
			teacherGroup.GET("/assignments/:assignmentId/submissions", submissionHandler.GetAssignmentSubmissions)
			teacherGroup.PUT("/submissions/:submissionId/grade", submissionHandler.GradeSubmission)
		}

		// --- Student Specific Routes ---
		studentGroup := protected.Group("/student")
		studentGroup.Use(RoleMiddleware(domain.RoleStudent))
		{
			studentGroup.POST("/assignments/:assignmentId/upload-url", submissionHandler.RequestUploadURL)
			studentGroup.POST("/assignments/:assignmentId/submission", submissionHandler.ConfirmUpload)
			studentGroup.GET("/submissions", submissionHandler.GetMySubmissions)
		}
	}
}
