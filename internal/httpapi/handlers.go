package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/openfoodfacts/recipe-estimator-go/pkg/models"
)

// estimateRequest is the shared request body for every estimate-recipe
// variant: a product document to estimate against.
type estimateRequest struct {
	Product *models.Product `json:"product" binding:"required"`
}

// penaltiesRequest additionally carries the caller-supplied quantity vector
// to evaluate, mirroring the original diagnostic endpoint.
type penaltiesRequest struct {
	Product    *models.Product `json:"product" binding:"required"`
	Quantities []float64       `json:"quantities" binding:"required"`
}

func (h *Handler) bindProduct(c *gin.Context, req *estimateRequest) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return false
	}
	if errs := h.Validator.ValidateProduct(req.Product); errs.HasErrors() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": errs.Error(), "details": errs.Errors})
		return false
	}
	return true
}

// EstimateRecipe runs the full differential-evolution optimizer pipeline.
func (h *Handler) EstimateRecipe(c *gin.Context) {
	var req estimateRequest
	if !h.bindProduct(c, &req) {
		return
	}

	report, err := h.Estimator.EstimateRecipe(c.Request.Context(), req.Product)
	if err != nil {
		h.respondEstimatorError(c, "estimate-recipe", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report, "product": req.Product})
}

// EstimateLabelOnly runs the label-order (midpoint-of-remaining-range) reconstructor.
func (h *Handler) EstimateLabelOnly(c *gin.Context) {
	var req estimateRequest
	if !h.bindProduct(c, &req) {
		return
	}

	report, err := h.Estimator.EstimateLabelOnly(c.Request.Context(), req.Product)
	if err != nil {
		h.respondEstimatorError(c, "estimate-recipe/label-only", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report, "product": req.Product})
}

// EstimateNNLS runs the non-negative least squares reconstructor.
func (h *Handler) EstimateNNLS(c *gin.Context) {
	var req estimateRequest
	if !h.bindProduct(c, &req) {
		return
	}

	report, err := h.Estimator.EstimateNNLS(c.Request.Context(), req.Product)
	if err != nil {
		h.respondEstimatorError(c, "estimate-recipe/nnls", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report, "product": req.Product})
}

// Penalties evaluates the penalty breakdown for a caller-supplied quantity
// vector, without running any reconstructor. Diagnostic-only.
func (h *Handler) Penalties(c *gin.Context) {
	var req penaltiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if errs := h.Validator.ValidateProduct(req.Product); errs.HasErrors() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": errs.Error(), "details": errs.Errors})
		return
	}

	breakdown, err := h.Estimator.Penalties(c.Request.Context(), req.Product, req.Quantities)
	if err != nil {
		h.respondEstimatorError(c, "penalties", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"penalties": breakdown})
}

// SearchCiqual performs a free-text search against the reference database.
func (h *Handler) SearchCiqual(c *gin.Context) {
	query := c.Param("name")
	if err := h.Validator.ValidateSearchQuery(query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	matches, err := h.Database.SearchByName(c.Request.Context(), query)
	if err != nil {
		h.respondEstimatorError(c, "ciqual search", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

// GetProduct is a stubbed fetch-by-id proxy. It does not reach out to any
// upstream product registry; callers needing a real lookup should resolve a
// product document client-side and POST it to the estimate-recipe routes.
func (h *Handler) GetProduct(c *gin.Context) {
	id := c.Param("id")
	h.Logger.Info("product lookup requested", zap.String("id", id))
	c.JSON(http.StatusNotImplemented, gin.H{
		"error": "product-by-id lookup requires an upstream registry client, which is not wired in this deployment",
		"id":    id,
	})
}

func (h *Handler) respondEstimatorError(c *gin.Context, operation string, err error) {
	var estErr models.EstimatorError
	if errors.As(err, &estErr) {
		switch estErr.Type {
		case models.ValidationErrorType:
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": estErr.Error()})
		case models.ReferenceDataErrorType:
			c.JSON(http.StatusFailedDependency, gin.H{"error": estErr.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": estErr.Error()})
		}
		return
	}
	h.Logger.Error("estimator operation failed", zap.String("operation", operation), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
