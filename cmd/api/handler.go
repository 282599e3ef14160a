package api

import (
	"net/http"

	"mailtrack-backend/internal/alert"
	mailDelivery "mailtrack-backend/internal/mail/delivery"
	mailUsecasePkg "mailtrack-backend/internal/mail/usecase"
	"mailtrack-backend/pkg/config"
	"mailtrack-backend/pkg/metrics"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	mailHandler  *mailDelivery.MailHandler
	alertHandler *alert.WSHandler
	config       *config.Config
}

func NewHandler(mailUc mailUsecasePkg.MailUsecase, feed *alert.Feed, cfg *config.Config) *Handler {
	return &Handler{
		mailHandler:  mailDelivery.NewMailHandler(mailUc, cfg.MaxUploadBytes),
		alertHandler: alert.NewWSHandler(feed, cfg.AlertPollInterval),
		config:       cfg,
	}
}

// Router builds the gin engine with middleware and routes
func (h *Handler) Router() *gin.Engine {
	if h.config.GinMode != "" {
		gin.SetMode(h.config.GinMode)
	}
	r := gin.Default()

	r.Use(metrics.Middleware())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.mailHandler, h.alertHandler)
	return r
}

// Server wraps the router in an http.Server so main can shut it down
func (h *Handler) Server(addr string) *http.Server {
	return &http.Server{
		Addr:    addr,
		Handler: h.Router(),
	}
}
