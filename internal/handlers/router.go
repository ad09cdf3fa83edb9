package handlers

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Brownie44l1/predict-api/internal/metrics"
)

// NewRouter registers every route of the service. m may be nil, in which
// case /metrics is not served.
func NewRouter(h *Handler, m *metrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(RequestIDMiddleware(), AccessLogMiddleware())
	if m != nil {
		// outside recovery, so recovered panics are counted with their 500
		r.Use(m.Observe("/predict"))
	}
	r.Use(RecoveryMiddleware())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"POST", "GET", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type"},
		MaxAge:          12 * time.Hour,
	}))

	r.GET("/health", h.Health)
	r.POST("/predict", h.Predict)
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}
	return r
}
