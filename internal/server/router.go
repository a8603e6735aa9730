// Package server wires the HTTP surface: health and readiness probes plus
// the batch and single-patient prediction endpoints.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinstack/patient-risk-api/internal/explain"
	"github.com/clinstack/patient-risk-api/internal/predict"
)

// HealthChecker is the optional readiness dependency.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Server holds the shared, read-only request dependencies.
type Server struct {
	predictor *predict.Service
	explainer *explain.Client
	db        HealthChecker
}

// NewRouter builds the Gin engine with middleware and routes.
func NewRouter(predictor *predict.Service, explainer *explain.Client, db HealthChecker) *gin.Engine {
	s := &Server{predictor: predictor, explainer: explainer, db: db}

	router := gin.New()
	router.Use(
		gin.Logger(),
		gin.Recovery(),
		limitBodySize(1<<20), // 1MB max body
		requestID(),
		cors.New(cors.Config{
			AllowOrigins: []string{
				"http://localhost:3000",
				"http://127.0.0.1:3000",
				"http://localhost:3001",
				"http://127.0.0.1:3001",
				"http://localhost",
				"http://127.0.0.1",
			},
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/readyz", s.handleReady)
	router.POST("/predict", s.handlePredict)
	router.POST("/predict-patient", s.handlePredictPatient)

	return router
}

func (s *Server) handleReady(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "disabled"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "degraded",
			"db":     fmt.Sprintf("unhealthy: %v", err),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "ok"})
}

func limitBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-ID", id)
		c.Set("request_id", id)
		c.Next()
	}
}
