package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// performanceMetricsHandler handles GET /api/v1/metrics/performance
func (s *Server) performanceMetricsHandler(c *gin.Context) {
	m, err := s.metrics.Performance(c.Request.Context())
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// deflectionMetricsHandler handles GET /api/v1/metrics/deflection
func (s *Server) deflectionMetricsHandler(c *gin.Context) {
	m, err := s.metrics.Deflection(c.Request.Context())
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// calibrationMetricsHandler handles GET /api/v1/metrics/calibration
func (s *Server) calibrationMetricsHandler(c *gin.Context) {
	m, err := s.metrics.Calibration(c.Request.Context())
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}
