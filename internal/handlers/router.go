package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/monitoring"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
	"github.com/guru-digital-pelangi/pelangi-service/internal/services"
	"github.com/guru-digital-pelangi/pelangi-service/internal/utils"
)

const serviceName = "pelangi-service"

type HandlerManager struct {
	services services.ServiceManager
	metrics  *monitoring.Metrics

	xpHandler           *XPHandler
	challengeHandler    *ChallengeHandler
	badgeHandler        *BadgeHandler
	assignmentHandler   *AssignmentHandler
	classHandler        *ClassHandler
	studentHandler      *StudentHandler
	gradeHandler        *GradeHandler
	questionHandler     *QuestionHandler
	dashboardHandler    *DashboardHandler
	importExportHandler *ImportExportHandler
	userHandler         *UserHandler
	authMiddleware      *CasdoorAuthMiddleware
}

// NewHandlerManager wires one handler per service. metrics may be nil.
func NewHandlerManager(
	serviceManager services.ServiceManager,
	users repositories.UserRepository,
	logger utils.Logger,
	authMiddleware *CasdoorAuthMiddleware,
	metrics *monitoring.Metrics,
) *HandlerManager {
	access := serviceManager.Access()

	return &HandlerManager{
		services:            serviceManager,
		metrics:             metrics,
		xpHandler:           NewXPHandler(serviceManager.XP(), logger),
		challengeHandler:    NewChallengeHandler(serviceManager.Challenge(), access, logger),
		badgeHandler:        NewBadgeHandler(serviceManager.Badge(), logger),
		assignmentHandler:   NewAssignmentHandler(serviceManager.Assignment(), access, logger),
		classHandler:        NewClassHandler(serviceManager.Class(), logger),
		studentHandler:      NewStudentHandler(serviceManager.Student(), logger),
		gradeHandler:        NewGradeHandler(serviceManager.Grade(), serviceManager.Attendance(), logger),
		questionHandler:     NewQuestionHandler(serviceManager.Question(), logger),
		dashboardHandler:    NewDashboardHandler(serviceManager.Dashboard(), logger),
		importExportHandler: NewImportExportHandler(serviceManager.ImportExport(), logger),
		userHandler:         NewUserHandler(users, logger),
		authMiddleware:      authMiddleware,
	}
}

// SetupRoutes sets up all API routes. Role middleware only narrows the
// audience; scope checks stay in the services.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.health)
	if hm.metrics != nil {
		router.GET("/metrics", hm.metrics.PrometheusHandler())
	}

	staff := hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher)
	admin := hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin)

	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Gamification: levels, XP, leaderboard
		levels := v1.Group("/levels")
		{
			levels.GET("", hm.xpHandler.ListLevels)
			levels.GET("/compute", hm.xpHandler.ComputeLevel)
			levels.POST("", admin, hm.xpHandler.CreateLevel)
			levels.PUT("/:level", admin, hm.xpHandler.UpdateLevel)
			levels.DELETE("/:level", admin, hm.xpHandler.DeleteLevel)
		}
		v1.POST("/xp/grant", staff, hm.xpHandler.GrantXP)
		v1.GET("/leaderboard", hm.xpHandler.Leaderboard)
		v1.GET("/leaderboard/export", staff, hm.importExportHandler.ExportLeaderboard)

		// Challenges
		challenges := v1.Group("/challenges")
		{
			challenges.GET("", hm.challengeHandler.List)
			challenges.GET("/:id", hm.challengeHandler.Get)
			challenges.POST("/:id/join", hm.challengeHandler.Join)

			challenges.POST("", staff, hm.challengeHandler.Create)
			challenges.PUT("/:id", staff, hm.challengeHandler.Update)
			challenges.DELETE("/:id", staff, hm.challengeHandler.Delete)
			challenges.POST("/:id/enroll", staff, hm.challengeHandler.EnrollTargets)
			challenges.POST("/:id/complete", staff, hm.challengeHandler.CompleteBulk)
			challenges.GET("/:id/participants", staff, hm.challengeHandler.Participants)
			challenges.GET("/:id/stats", staff, hm.challengeHandler.Stats)
		}
		participants := v1.Group("/challenge-participants")
		{
			participants.PUT("/:id/progress", hm.challengeHandler.UpdateProgress)
			participants.POST("/:id/complete", staff, hm.challengeHandler.MarkCompleted)
		}

		// Badges
		badges := v1.Group("/badges")
		{
			badges.GET("", hm.badgeHandler.List)
			badges.GET("/:id", hm.badgeHandler.Get)
			badges.POST("", admin, hm.badgeHandler.Create)
			badges.PUT("/:id", admin, hm.badgeHandler.Update)
			badges.DELETE("/:id", admin, hm.badgeHandler.Delete)
			badges.POST("/:id/award", staff, hm.badgeHandler.Award)
		}
		v1.DELETE("/student-badges/:id", staff, hm.badgeHandler.Revoke)

		// Assignments and submissions
		assignments := v1.Group("/assignments")
		{
			assignments.GET("", hm.assignmentHandler.ListAssignments)
			assignments.GET("/:id", hm.assignmentHandler.GetAssignment)
			assignments.POST("/:id/submit", hm.assignmentHandler.Submit)

			assignments.POST("", staff, hm.assignmentHandler.CreateAssignment)
			assignments.PUT("/:id", staff, hm.assignmentHandler.UpdateAssignment)
			assignments.PATCH("/:id/status", staff, hm.assignmentHandler.UpdateStatus)
			assignments.DELETE("/:id", staff, hm.assignmentHandler.DeleteAssignment)
			assignments.GET("/:id/submissions", staff, hm.assignmentHandler.Submissions)
			assignments.GET("/:id/stats", staff, hm.assignmentHandler.Stats)
			assignments.POST("/:id/bulk-grade", staff, hm.assignmentHandler.BulkGrade)
		}
		v1.POST("/submissions/:id/grade", staff, hm.assignmentHandler.GradeSubmission)
		v1.GET("/me/assignments", hm.assignmentHandler.MyAssignments)

		// Classes and subjects
		classes := v1.Group("/classes")
		{
			classes.GET("", hm.classHandler.ListClasses)
			classes.GET("/:id", hm.classHandler.GetClass)
			classes.GET("/:id/grades/export", staff, hm.importExportHandler.ExportClassGrades)

			classes.POST("", admin, hm.classHandler.CreateClass)
			classes.PUT("/:id", admin, hm.classHandler.UpdateClass)
			classes.DELETE("/:id", admin, hm.classHandler.DeleteClass)
			classes.POST("/:id/subjects/:subjectId", admin, hm.classHandler.AddSubject)
			classes.DELETE("/:id/subjects/:subjectId", admin, hm.classHandler.RemoveSubject)
			classes.POST("/:id/teachers", admin, hm.classHandler.AssignTeacher)
			classes.DELETE("/:id/teachers/:teacherId/subjects/:subjectId", admin, hm.classHandler.UnassignTeacher)
			classes.POST("/:id/students", admin, hm.classHandler.BulkAssignStudents)
			classes.POST("/:id/students/import", admin, hm.importExportHandler.ImportStudents)
		}
		subjects := v1.Group("/subjects")
		{
			subjects.GET("", hm.classHandler.ListSubjects)
			subjects.GET("/:id", hm.classHandler.GetSubject)
			subjects.POST("", admin, hm.classHandler.CreateSubject)
			subjects.PUT("/:id", admin, hm.classHandler.UpdateSubject)
			subjects.DELETE("/:id", admin, hm.classHandler.DeleteSubject)
		}

		// Students
		students := v1.Group("/students")
		{
			students.GET("/me", hm.studentHandler.GetMe)
			students.GET("", staff, hm.studentHandler.List)
			students.POST("", admin, hm.studentHandler.Create)
			students.GET("/:id", hm.studentHandler.Get)
			students.PUT("/:id", admin, hm.studentHandler.Update)
			students.DELETE("/:id", admin, hm.studentHandler.Delete)

			students.GET("/:id/progress", hm.xpHandler.StudentProgress)
			students.GET("/:id/badges", hm.badgeHandler.StudentBadges)
			students.GET("/:id/challenges", hm.challengeHandler.StudentChallenges)
			students.GET("/:id/assignments", hm.assignmentHandler.StudentAssignments)
			students.GET("/:id/grades/recap", hm.gradeHandler.StudentRecap)
			students.GET("/:id/attendance/summary", hm.gradeHandler.AttendanceSummary)
		}

		// Grades and attendance
		grades := v1.Group("/grades")
		{
			grades.GET("", hm.gradeHandler.ListGrades)
			grades.POST("", staff, hm.gradeHandler.CreateGrade)
			grades.POST("/bulk", staff, hm.gradeHandler.BulkCreateGrades)
			grades.PUT("/:id", staff, hm.gradeHandler.UpdateGrade)
			grades.DELETE("/:id", staff, hm.gradeHandler.DeleteGrade)
		}
		attendance := v1.Group("/attendance")
		{
			attendance.GET("", hm.gradeHandler.ListAttendance)
			attendance.POST("", staff, hm.gradeHandler.RecordAttendance)
			attendance.POST("/bulk", staff, hm.gradeHandler.BulkRecordAttendance)
			attendance.DELETE("/:id", staff, hm.gradeHandler.DeleteAttendance)
		}

		// Question bank
		questions := v1.Group("/questions")
		questions.Use(staff)
		{
			questions.GET("", hm.questionHandler.List)
			questions.POST("", hm.questionHandler.Create)
			questions.POST("/random", hm.questionHandler.RandomSelection)
			questions.GET("/:id", hm.questionHandler.Get)
			questions.PUT("/:id", hm.questionHandler.Update)
			questions.DELETE("/:id", hm.questionHandler.Delete)
		}

		// Account directory
		users := v1.Group("/users")
		users.Use(admin)
		{
			users.GET("", hm.userHandler.ListUsers)
			users.GET("/:id", hm.userHandler.GetUser)
		}

		// Dashboard
		dashboard := v1.Group("/dashboard")
		{
			dashboard.GET("/stats", hm.dashboardHandler.GetDashboardStats)
			dashboard.GET("/recent-activities", hm.dashboardHandler.GetRecentActivities)
		}
	}
}

func (hm *HandlerManager) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := hm.services.HealthCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": serviceName,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   serviceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
