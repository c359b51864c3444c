package app

import (
	"fitcoach_backend/internal/config"
	"fitcoach_backend/internal/middleware"
	"fitcoach_backend/internal/model"
	"fitcoach_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.GET("/me", c.auth.Me)

		authGroup.POST("/workouts", c.workout.LogWorkout)
		authGroup.GET("/workouts", c.workout.GetHistory)

		gamification := authGroup.Group("/gamification")
		{
			gamification.GET("/profile", c.gamification.GetProfile)
			gamification.GET("/transactions", c.gamification.GetTransactions)
			gamification.GET("/leaderboard", c.gamification.GetLeaderboard)
		}

		authGroup.GET("/milestones", c.milestone.List)
	}

	// 3. 管理员接口
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	{
		admin.POST("/milestones", c.milestone.Create)
		admin.PUT("/milestones/:id", c.milestone.Update)
		admin.DELETE("/milestones/:id", c.milestone.Delete)

		admin.POST("/gamification/adjust", c.gamification.AdjustPoints)
	}
}
