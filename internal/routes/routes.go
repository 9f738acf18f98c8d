package routes

import (
	"github.com/gin-gonic/gin"

	"healthlink/internal/authz"
	"healthlink/internal/handlers"
	"healthlink/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	doctorHandler *handlers.DoctorHandler,
	appointmentHandler *handlers.AppointmentHandler,
	notificationHandler *handlers.NotificationHandler,
	analyticsHandler *handlers.AnalyticsHandler,
) *gin.Engine {

	v1 := r.Group("/api/v1")

	// ---- public
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)
		auth.POST("/request-otp", authHandler.RequestOTP)
		auth.POST("/verify-otp", authHandler.VerifyOTP)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
	}

	// ---- protected
	v1.Use(middleware.AuthMiddleware())

	users := v1.Group("/users")
	{
		users.GET("/me", userHandler.GetProfile)
		users.PUT("/me", userHandler.UpdateProfile)
		users.POST("/logout", authHandler.Logout)
	}

	doctors := v1.Group("/doctors")
	{
		doctors.GET("", doctorHandler.Search)
		doctors.GET("/:id/profile", doctorHandler.GetProfile)
	}

	// singular group for the authenticated doctor's own resources
	doctorSelf := v1.Group("/doctor", middleware.RequireRoles(authz.RoleDoctor))
	{
		doctorSelf.PUT("/profile", doctorHandler.UpsertProfile)
		doctorSelf.GET("/dashboard", doctorHandler.Dashboard)
		doctorSelf.POST("/emergency-patients", doctorHandler.CreateEmergencyPatient)
	}

	appointments := v1.Group("/appointments")
	{
		appointments.POST("", middleware.RequireRoles(authz.RolePatient), appointmentHandler.Book)
		appointments.GET("", appointmentHandler.List)
		appointments.GET("/:id", appointmentHandler.GetByID)
		appointments.POST("/:id/cancel", appointmentHandler.Cancel)
		appointments.POST("/:id/complete", middleware.RequireRoles(authz.RoleDoctor, authz.RoleAdmin), appointmentHandler.Complete)
	}

	payments := v1.Group("/payments", middleware.RequireRoles(authz.RoleAdmin))
	{
		payments.POST("/:id/verify", appointmentHandler.VerifyPayment)
	}

	admin := v1.Group("/admin", middleware.RequireRoles(authz.RoleAdmin))
	{
		admin.GET("/users", userHandler.ListUsers)
		admin.GET("/users/:id", userHandler.GetUserByID)
		admin.DELETE("/users/:id", userHandler.DeleteUser)
		admin.POST("/users/:id/approval", userHandler.SetApproval)

		admin.POST("/notifications", notificationHandler.Send)
		admin.GET("/notifications", notificationHandler.History)

		admin.GET("/analytics/dashboard", analyticsHandler.AdminDashboard)
	}

	return r
}
