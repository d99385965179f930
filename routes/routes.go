package routes

import (
	"net/http"
	"time"

	"slotpass/handlers"
	"slotpass/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterBookingRoutes sets up the endpoints for the reservation engine.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/bookings")
	{
		api.Use(middleware.SessionAuth())
		api.POST("", hb.CreateBookingHandler)
		api.GET("/:bookingID", hb.GetBookingHandler)
		api.POST("/:bookingID/cancel", hb.CancelBookingHandler)
	}
}

// RegisterSlotRoutes sets up owner endpoints for templates and holidays.
func RegisterSlotRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/slots")
	{
		api.Use(middleware.SessionAuth(), middleware.RequireRole(middleware.RoleOwner))
		api.POST("/templates", hb.CreateTemplateHandler)
		api.PATCH("/templates/:templateID/capacity", hb.UpdateCapacityHandler)
	}

	holidays := r.Group("/api/holidays")
	{
		holidays.Use(middleware.SessionAuth(), middleware.RequireRole(middleware.RoleOwner))
		holidays.POST("", hb.AddHolidayHandler)
		holidays.DELETE("", hb.RemoveHolidayHandler)
	}

	facilities := r.Group("/api/facilities")
	{
		facilities.Use(middleware.SessionAuth())
		facilities.GET("/:facilityID/templates", hb.ListTemplatesHandler)
		facilities.GET("/:facilityID/holidays", hb.ListHolidaysHandler)
	}
}

// RegisterPaymentRoutes sets up order creation and the gateway webhook. The
// webhook authenticates by signature, not by session.
func RegisterPaymentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/api/payments/webhook", hb.PaymentWebhookHandler)

	api := r.Group("/api/payments")
	{
		api.Use(middleware.SessionAuth())
		api.POST("/bookings/:bookingID/order", hb.CreateBookingOrderHandler)
		api.POST("/subscription/order", middleware.RequireRole(middleware.RoleOwner), hb.CreateSubscriptionOrderHandler)
	}

	subs := r.Group("/api/subscriptions")
	{
		subs.Use(middleware.SessionAuth(), middleware.RequireRole(middleware.RoleOwner))
		subs.GET("/me", hb.MySubscriptionHandler)
	}
}

// RegisterAttendanceRoutes sets up the check-in endpoints for owners.
func RegisterAttendanceRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/attendance")
	{
		api.Use(middleware.SessionAuth(), middleware.RequireRole(middleware.RoleOwner))
		api.POST("/scan", hb.ScanPassHandler)
		api.POST("/mark", hb.MarkAttendanceHandler)
	}
}

// RegisterDisputeRoutes sets up dispute filing and resolution.
func RegisterDisputeRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/disputes")
	{
		api.Use(middleware.SessionAuth())
		api.POST("", hb.CreateDisputeHandler)
		api.GET("/booking/:bookingID", hb.GetBookingDisputeHandler)
		api.POST("/:disputeID/resolve", middleware.RequireRole(middleware.RoleAdmin), hb.ResolveDisputeHandler)
	}
}

// RegisterEscrowRoutes sets up escrow read models and the admin settlement
// actions: early release, freeze, and force refund.
func RegisterEscrowRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/escrows")
	{
		api.Use(middleware.SessionAuth(), middleware.RequireRole(middleware.RoleOwner))
		api.GET("/mine", hb.ListOwnerEscrowsHandler)
		api.GET("/booking/:bookingID", hb.GetBookingEscrowHandler)
		api.POST("/:escrowID/release", middleware.RequireRole(middleware.RoleAdmin), hb.ReleaseEscrowHandler)
		api.POST("/:escrowID/block", middleware.RequireRole(middleware.RoleAdmin), hb.BlockEscrowHandler)
		api.POST("/:escrowID/refund", middleware.RequireRole(middleware.RoleAdmin), hb.RefundEscrowHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware())

	RegisterHealthRoute(r)
	RegisterBookingRoutes(r, hb)
	RegisterSlotRoutes(r, hb)
	RegisterPaymentRoutes(r, hb)
	RegisterAttendanceRoutes(r, hb)
	RegisterDisputeRoutes(r, hb)
	RegisterEscrowRoutes(r, hb)
}
