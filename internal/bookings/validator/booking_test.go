package validator

import (
	"errors"
	"io"
	"strings"
	"testing"

	"renthub/pkg/logger"
	"renthub/pkg/model"
)

func newTestValidator() *BookingValidator {
	return NewBookingValidator(logger.New(logger.Config{
		Level:   logger.LevelError,
		Format:  logger.FormatJSON,
		Output:  io.Discard,
		Service: "test",
	}))
}

func validRequest() *model.BookingRequest {
	return &model.BookingRequest{
		Vehicle: model.VehicleRef{Type: "bike", ID: "b1"},
		Window:  model.Window{Date: "2026-03-14", StartTime: "14:00", DurationHours: 3},
		Customer: model.Customer{
			Name:  "Ravi Kumar",
			Phone: "+919876543210",
			Email: "ravi@example.com",
		},
		Flow:       "direct",
		PaymentRef: "pay_123",
	}
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(req *model.BookingRequest)
		wantField string
	}{
		{
			name:   "valid direct request",
			mutate: func(req *model.BookingRequest) {},
		},
		{
			name: "valid approval request without payment ref",
			mutate: func(req *model.BookingRequest) {
				req.Flow = "approval"
				req.PaymentRef = ""
			},
		},
		{
			name: "missing customer name",
			mutate: func(req *model.BookingRequest) {
				req.Customer.Name = ""
			},
			wantField: "Name",
		},
		{
			name: "phone not in E.164",
			mutate: func(req *model.BookingRequest) {
				req.Customer.Phone = "98765-43210"
			},
			wantField: "Phone",
		},
		{
			name: "unknown vehicle type",
			mutate: func(req *model.BookingRequest) {
				req.Vehicle.Type = "scooter"
			},
			wantField: "Type",
		},
		{
			name: "unknown flow",
			mutate: func(req *model.BookingRequest) {
				req.Flow = "instant"
			},
			wantField: "Flow",
		},
		{
			name: "direct flow without payment ref",
			mutate: func(req *model.BookingRequest) {
				req.PaymentRef = ""
			},
			wantField: "PaymentRef",
		},
		{
			name: "malformed date",
			mutate: func(req *model.BookingRequest) {
				req.Window.Date = "14-03-2026"
			},
			wantField: "Date",
		},
		{
			name: "clock time out of range",
			mutate: func(req *model.BookingRequest) {
				req.Window.StartTime = "24:30"
			},
			wantField: "StartTime",
		},
		{
			name: "zero duration",
			mutate: func(req *model.BookingRequest) {
				req.Window.DurationHours = 0
			},
			wantField: "DurationHours",
		},
		{
			name: "duration over three days",
			mutate: func(req *model.BookingRequest) {
				req.Window.DurationHours = 73
			},
			wantField: "DurationHours",
		},
		{
			name: "invalid email",
			mutate: func(req *model.BookingRequest) {
				req.Customer.Email = "not-an-email"
			},
			wantField: "Email",
		},
	}

	v := newTestValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			err := v.ValidateRequest(req)

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("ValidateRequest() error = %v, want nil", err)
				}
				return
			}

			if err == nil {
				t.Fatal("ValidateRequest() error = nil, want validation failure")
			}
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("error type = %T, want ValidationErrors", err)
			}
			found := false
			for _, ve := range verrs {
				if ve.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("no error for field %q in %v", tt.wantField, verrs)
			}
		})
	}
}

func TestValidateAvailability(t *testing.T) {
	v := newTestValidator()

	req := &model.AvailabilityRequest{
		Vehicle: model.VehicleRef{Type: "car", ID: "c1"},
		Window:  model.Window{Date: "2026-03-14", StartTime: "09:30", DurationHours: 4},
	}
	if err := v.ValidateAvailability(req); err != nil {
		t.Fatalf("ValidateAvailability() error = %v, want nil", err)
	}

	req.Window.StartTime = ""
	err := v.ValidateAvailability(req)
	if err == nil {
		t.Fatal("ValidateAvailability() error = nil, want validation failure")
	}
	if !strings.Contains(err.Error(), "StartTime") {
		t.Errorf("error %q does not mention StartTime", err.Error())
	}
}
