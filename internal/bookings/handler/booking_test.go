package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "renthub/pkg/errors"
	"renthub/pkg/logger"
	"renthub/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockBookingService struct {
	checkAvailabilityFunc func(ctx context.Context, req *model.AvailabilityRequest) error
	createFunc            func(ctx context.Context, req *model.BookingRequest) (*model.Booking, error)
	getFunc               func(ctx context.Context, id string) (*model.Booking, error)
	getAllFunc            func(ctx context.Context, status string, limit int, offset int64) ([]*model.Booking, int64, error)
	confirmFunc           func(ctx context.Context, id string) (*model.Booking, error)
	rejectFunc            func(ctx context.Context, id string, reason string) (*model.Booking, error)
	cancelFunc            func(ctx context.Context, id string) (*model.Booking, error)
	completeRefundFunc    func(ctx context.Context, id string, externalRef string) (*model.Booking, error)
}

func (m *mockBookingService) CheckAvailability(ctx context.Context, req *model.AvailabilityRequest) error {
	if m.checkAvailabilityFunc != nil {
		return m.checkAvailabilityFunc(ctx, req)
	}
	return nil
}

func (m *mockBookingService) Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	return &model.Booking{PublicID: "RH260314-001", Status: model.StatusConfirmed}, nil
}

func (m *mockBookingService) Get(ctx context.Context, id string) (*model.Booking, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return &model.Booking{PublicID: id, Status: model.StatusConfirmed}, nil
}

func (m *mockBookingService) GetAll(ctx context.Context, status string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if m.getAllFunc != nil {
		return m.getAllFunc(ctx, status, limit, offset)
	}
	return nil, 0, nil
}

func (m *mockBookingService) Confirm(ctx context.Context, id string) (*model.Booking, error) {
	if m.confirmFunc != nil {
		return m.confirmFunc(ctx, id)
	}
	return &model.Booking{PublicID: id, Status: model.StatusConfirmed}, nil
}

func (m *mockBookingService) Reject(ctx context.Context, id string, reason string) (*model.Booking, error) {
	if m.rejectFunc != nil {
		return m.rejectFunc(ctx, id, reason)
	}
	return &model.Booking{PublicID: id, Status: model.StatusRejected}, nil
}

func (m *mockBookingService) Cancel(ctx context.Context, id string) (*model.Booking, error) {
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, id)
	}
	return &model.Booking{PublicID: id, Status: model.StatusCancelled}, nil
}

func (m *mockBookingService) CompleteRefund(ctx context.Context, id string, externalRef string) (*model.Booking, error) {
	if m.completeRefundFunc != nil {
		return m.completeRefundFunc(ctx, id, externalRef)
	}
	return &model.Booking{PublicID: id}, nil
}

func newTestRouter(svc *mockBookingService) *httprouter.Router {
	log := logger.New(logger.Config{
		Level:   logger.LevelError,
		Format:  logger.FormatJSON,
		Output:  io.Discard,
		Service: "test",
	})
	router := httprouter.New()
	NewBookingHandler(svc, log).RegisterRoutes(router)
	return router
}

func TestCreateReturnsCreated(t *testing.T) {
	router := newTestRouter(&mockBookingService{})

	body := `{
		"vehicle": {"vehicle_type": "bike", "vehicle_id": "b1"},
		"window": {"date": "2026-03-14", "start_time": "14:00", "duration_hours": 3},
		"customer": {"name": "Ravi Kumar", "phone": "+919876543210"},
		"flow": "direct",
		"payment_ref": "pay_123"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data model.Booking `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Data.PublicID != "RH260314-001" {
		t.Errorf("public_id = %q, want RH260314-001", resp.Data.PublicID)
	}
}

func TestCreateRejectsMalformedJSON(t *testing.T) {
	router := newTestRouter(&mockBookingService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCheckAvailabilityConflict(t *testing.T) {
	svc := &mockBookingService{
		checkAvailabilityFunc: func(ctx context.Context, req *model.AvailabilityRequest) error {
			return apperrors.SlotConflict("Slot overlaps an existing booking", map[string]any{
				"conflicting_booking": "RH260314-002",
			})
		},
	}
	router := newTestRouter(svc)

	body := `{
		"vehicle": {"vehicle_type": "bike", "vehicle_id": "b1"},
		"window": {"date": "2026-03-14", "start_time": "14:00", "duration_hours": 3}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/check-availability", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409; body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "SLOT_CONFLICT") {
		t.Errorf("body %q missing SLOT_CONFLICT code", rec.Body.String())
	}
}

func TestGetNotFound(t *testing.T) {
	svc := &mockBookingService{
		getFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/id/RH260314-999", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestCancelInvalidTransition(t *testing.T) {
	svc := &mockBookingService{
		cancelFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return nil, apperrors.InvalidTransition(model.StatusCompleted, model.StatusCancelled)
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/id/RH260314-001/cancel", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409; body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "INVALID_TRANSITION") {
		t.Errorf("body %q missing INVALID_TRANSITION code", rec.Body.String())
	}
}
