package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/venue-booking/internal/availability"
	"github.com/you/venue-booking/internal/middlewares"
	"github.com/you/venue-booking/internal/session"
)

func NewRouter(mgr *session.Manager, agg *availability.Aggregator, courts CourtLister) *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	ah := NewAvailabilityHandler(agg, courts)
	sh := NewSessionHandler(mgr)

	v1 := r.Group("/v1")
	{
		v1.GET("/courts", ah.ListCourts)
		v1.GET("/availability", ah.Slots)

		secured := v1.Group("")
		secured.Use(middlewares.JWTAuth())
		{
			secured.POST("/sessions", sh.Create)
			secured.GET("/sessions/:id", sh.Get)
			secured.POST("/sessions/:id/toggle", sh.Toggle)
			secured.POST("/sessions/:id/submit", sh.Submit)
			secured.DELETE("/sessions/:id", sh.Delete)
		}
	}
	return r
}
