package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "renthub/pkg/errors"
	"renthub/pkg/logger"
	"renthub/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockCatalog struct {
	listFunc func(ctx context.Context, vehicleType string) ([]*model.Vehicle, error)
}

func (m *mockCatalog) Get(ctx context.Context, vehicleType string, vehicleID string) (*model.Vehicle, error) {
	return nil, nil
}

func (m *mockCatalog) List(ctx context.Context, vehicleType string) ([]*model.Vehicle, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, vehicleType)
	}
	return nil, nil
}

func (m *mockCatalog) SetAvailable(ctx context.Context, vehicleType string, vehicleID string, available bool) error {
	return nil
}

func newTestRouter(catalog *mockCatalog) *httprouter.Router {
	log := logger.New(logger.Config{
		Level:   logger.LevelError,
		Format:  logger.FormatJSON,
		Output:  io.Discard,
		Service: "test",
	})
	router := httprouter.New()
	NewVehicleHandler(catalog, log).RegisterRoutes(router)
	return router
}

func TestListReturnsFleet(t *testing.T) {
	catalog := &mockCatalog{
		listFunc: func(ctx context.Context, vehicleType string) ([]*model.Vehicle, error) {
			if vehicleType != "bike" {
				t.Errorf("vehicleType = %q, want bike", vehicleType)
			}
			return []*model.Vehicle{
				{ID: "b1", Type: "bike", Name: "City Bike", PricePerHour: 100, Available: true},
			}, nil
		},
	}
	router := newTestRouter(catalog)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vehicles/bike", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data []model.Vehicle `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].ID != "b1" {
		t.Errorf("data = %+v, want one vehicle b1", resp.Data)
	}
}

func TestListRejectsUnknownType(t *testing.T) {
	catalog := &mockCatalog{
		listFunc: func(ctx context.Context, vehicleType string) ([]*model.Vehicle, error) {
			return nil, apperrors.InvalidInput("Unknown vehicle type: " + vehicleType)
		},
	}
	router := newTestRouter(catalog)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vehicles/scooter", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
