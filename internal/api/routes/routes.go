package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/hireprep/hireprep/internal/api/handlers"
	"github.com/hireprep/hireprep/internal/api/middleware"
	"github.com/hireprep/hireprep/internal/services"
)

type Deps struct {
	Fence     services.FenceService
	JWTSecret string
	Auth      *handlers.AuthHandler
	Profile   *handlers.ProfileHandler
	Resume    *handlers.ResumeHandler
	Interview *handlers.InterviewHandler
	WS        *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	r.POST("/auth/register", d.Auth.Register)
	r.POST("/auth/login", d.Auth.Login)

	// Protected routes (JWT + session fence)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth(d.Fence, d.JWTSecret))

	auth.POST("/auth/logout", d.Auth.Logout)

	auth.GET("/profile/me", d.Profile.Me)
	auth.PUT("/profile/update", d.Profile.Update)

	auth.POST("/resume/upload", d.Resume.Upload)
	auth.GET("/resume/download-url", d.Resume.DownloadURL)

	auth.POST("/interview/start", d.Interview.Start)
	auth.GET("/interview", d.Interview.List)
	auth.GET("/interview/:interview_id", d.Interview.Get)
	auth.POST("/interview/:interview_id/answer", d.Interview.Answer)
	auth.POST("/interview/:interview_id/cancel", d.Interview.Cancel)

	// WebSocket: live interview events
	auth.GET("/ws/interview/:interview_id", d.WS.InterviewWS)

	// Support
	admin := auth.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	admin.GET("/users/:user_id/interviews", d.Interview.AdminListByUser)
}
