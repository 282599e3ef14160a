package api

import (
	"net/http"

	"mailtrack-backend/internal/alert"
	mailDelivery "mailtrack-backend/internal/mail/delivery"
	"mailtrack-backend/pkg/metrics"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, mailHandler *mailDelivery.MailHandler, alertHandler *alert.WSHandler) {
	r.GET("/metrics", metrics.Handler())

	// WebSocket alert feed
	r.GET("/ws/alerts", alertHandler.Serve)

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		api.POST("/upload", mailHandler.Upload)

		mails := api.Group("/mails")
		{
			mails.GET("", mailHandler.GetMails)
			mails.POST("", mailHandler.CreateMail)
			mails.DELETE("", mailHandler.DeleteAll)
			mails.GET("/:id", mailHandler.GetMailByID)
			mails.PATCH("/:id/status", mailHandler.UpdateStatus)
			mails.PUT("/:id/duration", mailHandler.UpdateDuration)
			mails.POST("/:id/reminder", mailHandler.SendReminder)
		}

		api.GET("/notifications", mailHandler.GetNotifications)

		overdue := api.Group("/overdue")
		{
			overdue.GET("", mailHandler.GetOverdueMails)
			overdue.GET("/summary", mailHandler.GetOverdueSummary)
		}
	}
}
