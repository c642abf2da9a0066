package app

import (
	"course_platform_backend/docs"
	"course_platform_backend/internal/config"
	"course_platform_backend/internal/middleware"
	"course_platform_backend/internal/model"
	"course_platform_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由：课程目录与大纲允许游客浏览，
	// 大纲带可选认证以标记已登录学习者的进度与解锁状态
	public := router.Group("/api")
	public.Use(middleware.ActivityMiddleware(repos.user))
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
		public.GET("/courses", c.course.List)
		public.GET("/courses/:id", c.course.Get)
		public.GET("/courses/:id/learn", middleware.TryAuthMiddleware(cfg), c.course.Outline)
		public.GET("/leaderboard", c.level.Leaderboard)
	}

	// 需要登录的路由：进度同步、交付、订单、个人资料
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/me", c.auth.Me)
		authGroup.GET("/levels/me", c.level.Me)

		authGroup.PUT("/courses/:id/units/:unitId/progress", c.progress.Sync)
		authGroup.GET("/courses/:id/progress", c.progress.GetCourseProgress)
		authGroup.POST("/courses/:id/units/:unitId/deliver", c.progress.Deliver)

		authGroup.POST("/orders", c.order.Create)
		authGroup.GET("/orders", c.order.List)
		authGroup.POST("/orders/:id/pay", c.order.Pay)
		authGroup.POST("/orders/:id/cancel", c.order.Cancel)
	}

	// 管理端：课程上架与视频上传
	adminGroup := router.Group("/api/admin")
	adminGroup.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	{
		adminGroup.POST("/courses", c.course.Save)
		adminGroup.POST("/videos", c.course.UploadVideo)
	}
}
