package routes

import (
	"net/http"
	"time"

	userRepo "tripnest/database/repository/user"
	"tripnest/handlers"
	"tripnest/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// HandlerBundle collects the handlers and shared dependencies the routes need.
type HandlerBundle struct {
	UserRepo userRepo.UserRepository

	BookingHandler *handlers.BookingHandler
	PaymentHandler *handlers.PaymentHandler
}

// RegisterBookingRoutes registers booking endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *HandlerBundle) {
	api := r.Group("/api/bookings")
	{
		api.Use(middleware.JWTAuthUserMiddleware(hb.UserRepo))
		api.POST("", hb.BookingHandler.CreateBooking)
	}
}

// RegisterPaymentRoutes registers payment endpoints. The verify endpoint is
// the gateway's callback and stays outside the auth group.
func RegisterPaymentRoutes(r *gin.Engine, hb *HandlerBundle) {
	api := r.Group("/api/payments")
	{
		api.GET("/verify", hb.PaymentHandler.VerifyPayment)
		api.POST("/verify", hb.PaymentHandler.VerifyPayment)

		protected := api.Group("")
		protected.Use(middleware.JWTAuthUserMiddleware(hb.UserRepo))
		protected.POST("/initiate", hb.PaymentHandler.InitiatePayment)
		protected.GET("/:payment_id/status", hb.PaymentHandler.PaymentStatus)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm TripNest"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterBookingRoutes(r, hb)
	RegisterPaymentRoutes(r, hb)
}
