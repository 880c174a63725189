package app

import (
	"lingo_edu_backend/docs"
	"lingo_edu_backend/internal/config"
	"lingo_edu_backend/internal/middleware"
	"lingo_edu_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由（无需登录）
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/register", c.auth.Register)
		public.POST("/auth/login", c.auth.Login)
		public.POST("/auth/token/refresh", c.auth.Refresh)
	}

	// 需要 access 令牌的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.POST("/auth/logout", c.auth.Logout)

		authGroup.GET("/user/profile", c.user.GetProfile)
		authGroup.PUT("/user/profile", c.user.UpdateProfile)
		authGroup.GET("/user/progress", c.user.GetProgress)

		authGroup.GET("/modules", c.learning.ListModules)
		authGroup.POST("/modules/:moduleId/unlock", c.learning.UnlockModule)
		authGroup.GET("/topics/:topicId/content", c.learning.GetTopicContent)

		authGroup.GET("/assessment", c.assessment.Get)
		authGroup.POST("/assessment/submit", c.assessment.Submit)
		authGroup.GET("/assessment/result/:submissionId", c.assessment.GetResult)

		authGroup.GET("/topics/:topicId/exercises", c.exercise.List)
		authGroup.POST("/topics/:topicId/exercises/submit", c.exercise.Submit)
	}

	// 管理员接口
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.StaffMiddleware())
	{
		admin.POST("/topics/:topicId/media", c.admin.UploadTopicMedia)
	}
}
