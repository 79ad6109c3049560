package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/openfoodfacts/recipe-estimator-go/internal/estimate"
	"github.com/openfoodfacts/recipe-estimator-go/internal/optimize"
	"github.com/openfoodfacts/recipe-estimator-go/internal/validate"
	"github.com/openfoodfacts/recipe-estimator-go/pkg/models"
)

type passthroughResolver struct{}

func (passthroughResolver) ResolveIngredients(ctx context.Context, ingredients []*models.Ingredient) error {
	return nil
}

type fixedSelector struct{}

func (fixedSelector) SelectNutrients(ctx context.Context, product *models.Product) (models.SelectedNutrients, error) {
	return models.SelectedNutrients{}, nil
}

type emptyCatalogue struct{}

func (emptyCatalogue) Entries() []models.NutrientCatalogueEntry { return nil }
func (emptyCatalogue) ByOFFKey(string) (models.NutrientCatalogueEntry, bool) {
	return models.NutrientCatalogueEntry{}, false
}

type stubDatabase struct{}

func (stubDatabase) LoadDatabase(ctx context.Context) error { return nil }
func (stubDatabase) NutrientsForFoodCode(ctx context.Context, foodCode string) (map[models.NutrientKey]models.NutrientProfile, bool) {
	return nil, false
}
func (stubDatabase) ParentFoodCode(ctx context.Context, foodCode string) (string, bool) {
	return "", false
}
func (stubDatabase) SearchByName(ctx context.Context, query string) ([]models.FoodCodeMatch, error) {
	return []models.FoodCodeMatch{{FoodCode: "12345", Name: "tomato"}}, nil
}
func (stubDatabase) IsLoaded() bool { return true }

func newTestHandler() *Handler {
	est := estimate.New(passthroughResolver{}, fixedSelector{}, emptyCatalogue{}, optimize.DefaultConfig(), 0, nil)
	return NewHandler(est, stubDatabase{}, validate.New(), nil)
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	newTestHandler().RegisterRoutes(engine)
	return engine
}

func TestEstimateRecipeEndpointRejectsInvalidProduct(t *testing.T) {
	router := newTestRouter()
	body, _ := json.Marshal(estimateRequest{Product: &models.Product{}})
	req := httptest.NewRequest(http.MethodPost, "/api/v3/estimate-recipe", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestEstimateLabelOnlyEndpointSucceeds(t *testing.T) {
	router := newTestRouter()
	product := &models.Product{
		Code:        "123",
		Ingredients: []*models.Ingredient{{ID: "en:tomato"}, {ID: "en:salt"}},
	}
	body, _ := json.Marshal(estimateRequest{Product: product})
	req := httptest.NewRequest(http.MethodPost, "/api/v3/estimate-recipe/label-only", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSearchCiqualEndpoint(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/v3/ciqual/tomato", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetProductEndpointIsStubbed(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/v3/product/123", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d: %s", rec.Code, rec.Body.String())
	}
}
