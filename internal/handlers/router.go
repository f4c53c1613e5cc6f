package handlers

import (
	"net/http"

	"claimgate/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const sessionName = "claimgate_device"

func (h *Handler) SetupRouter(rateLimiter *services.IPRateLimiter) *gin.Engine {
	r := gin.Default()
	r.HandleMethodNotAllowed = true

	// Middleware
	r.Use(h.RequestID())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:           true,
		AllowMethods:              []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:              []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type", "X-Forwarded-For", "X-Request-ID"},
		ExposeHeaders:             []string{"X-Request-ID"},
		OptionsResponseStatusCode: http.StatusOK,
	}))
	if rateLimiter != nil {
		r.Use(h.RateLimitMiddleware(rateLimiter))
	}

	store := cookie.NewStore([]byte(h.cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(h.claimService.Window().Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})

	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, ClaimResponse{Success: false, Message: "Method not allowed"})
	})

	// Routes
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api := r.Group("/api/v1")
	{
		api.POST("/claims", h.SubmitClaim)
		api.OPTIONS("/claims", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		api.GET("/catalog", h.ListCatalog)

		device := api.Group("/device", sessions.Sessions(sessionName, store))
		device.GET("", h.DeviceStatus)
		if !h.cfg.IsProduction() {
			device.DELETE("", h.ResetDevice)
		}
	}

	// Browser flow: device guard in the session cookie, then the address gate.
	r.POST("/claim", sessions.Sessions(sessionName, store), h.ClaimFromBrowser)

	return r
}
