package transport

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/courtsidehq/booking-server/internal/transport/middleware"
)

func InitRoutes(
	sessionHandler *SessionHandler,
	bookingHandler *BookingHandler,
	paymentHandler *PaymentHandler,
	webhookHandler *WebhookHandler,
	userHandler *UserHandler,
) *gin.Engine {

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(30))

	// Gateway callbacks live outside the API group; the signature check is
	// the webhook's own auth.
	router.POST("/webhooks/payment", webhookHandler.HandlePaymentWebhook)

	api := router.Group("/api/v1")
	{
		sessions := api.Group("/sessions")
		{
			sessions.POST("", sessionHandler.CreateSession)
			sessions.GET("", sessionHandler.GetOpenSessions)
			sessions.GET("/:id", sessionHandler.GetSession)
			sessions.POST("/:id/reserve", bookingHandler.ReserveSpot)
		}

		bookings := api.Group("/bookings")
		{
			bookings.GET("/:id", bookingHandler.GetBooking)
			bookings.GET("/users/:user_id", bookingHandler.GetUserBookings)
			bookings.POST("/cancel", bookingHandler.CancelBooking)
		}

		paymentsGroup := api.Group("/payments")
		{
			paymentsGroup.POST("/split", paymentHandler.SplitPay)
			paymentsGroup.POST("/intent", paymentHandler.CreateIntent)
		}

		users := api.Group("/users")
		{
			users.POST("/register", userHandler.RegisterUser)
			users.GET("/:id", userHandler.GetUser)
			users.GET("/:id/membership", userHandler.GetMembership)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}
