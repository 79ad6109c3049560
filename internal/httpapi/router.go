// Package httpapi exposes the recipe estimator pipeline over HTTP, using gin
// for routing and rs/cors for cross-origin access.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/openfoodfacts/recipe-estimator-go/internal/estimate"
	"github.com/openfoodfacts/recipe-estimator-go/internal/validate"
	"github.com/openfoodfacts/recipe-estimator-go/pkg/models"
)

// Handler wires the estimator pipeline, reference database and validator
// into a gin-routed HTTP surface.
type Handler struct {
	Estimator *estimate.Estimator
	Database  models.ReferenceDatabase
	Validator *validate.Validator
	Logger    *zap.Logger
}

// NewHandler constructs a Handler. A nil logger is replaced with a no-op logger.
func NewHandler(estimator *estimate.Estimator, db models.ReferenceDatabase, validator *validate.Validator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validator == nil {
		validator = validate.New()
	}
	return &Handler{Estimator: estimator, Database: db, Validator: validator, Logger: logger}
}

// NewRouter builds the gin engine, registers routes, and wraps it with a
// permissive CORS policy suitable for browser clients consuming the API.
func NewRouter(h *Handler) http.Handler {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestID(), requestLogger(h.Logger))

	h.RegisterRoutes(engine)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return c.Handler(engine)
}

// requestIDHeader carries a per-request correlation id, generated if the
// caller didn't supply one, so a single estimate can be traced across logs.
const requestIDHeader = "X-Request-Id"

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("request_id", c.GetString(requestIDHeader)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// RegisterRoutes attaches every estimator endpoint to the given engine.
func (h *Handler) RegisterRoutes(engine *gin.Engine) {
	v3 := engine.Group("/api/v3")
	{
		v3.POST("/estimate-recipe", h.EstimateRecipe)
		v3.POST("/estimate-recipe/label-only", h.EstimateLabelOnly)
		v3.POST("/estimate-recipe/nnls", h.EstimateNNLS)
		v3.POST("/penalties", h.Penalties)
		v3.GET("/ciqual/:name", h.SearchCiqual)
		v3.GET("/product/:id", h.GetProduct)
	}
	engine.GET("/health", h.Health)
}

// Health is a liveness probe endpoint.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
