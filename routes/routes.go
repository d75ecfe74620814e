package routes

import (
	"net/http"

	"senara/config"
	"senara/handlers"
	"senara/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterWebhookRoutes registers the inbound messaging endpoint.
func RegisterWebhookRoutes(r *gin.Engine, wh *handlers.WebhookHandler) {
	webhook := r.Group("/incoming-whatsapp")
	webhook.Use(middleware.RateLimitMiddleware())
	if config.AppConfig.VerifyWebhookSignature {
		webhook.Use(middleware.TwilioSignatureMiddleware(
			config.AppConfig.TwilioAuthToken,
			config.AppConfig.WebhookURL,
		))
	}
	webhook.POST("", wh.Incoming)
}

// RegisterReportRoutes registers the booking analytics endpoints.
func RegisterReportRoutes(r *gin.Engine, rh *handlers.ReportsHandler) {
	api := r.Group("/api/reports")
	api.Use(cors.Default())
	{
		api.GET("/total_appointments", rh.TotalAppointments)
		api.GET("/total_booked_services", rh.TotalBookedServices)
		api.GET("/total_revenue", rh.TotalRevenue)
		api.GET("/appointment_details", rh.AppointmentDetails)
		api.GET("/service_popularity", rh.ServicePopularity)
		api.GET("/area_distribution", rh.AreaDistribution)
		api.POST("/update_appointment_status", rh.UpdateAppointmentStatus)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
