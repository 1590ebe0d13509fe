// Package service issues and verifies roadside-emergency tokens. A rider
// shows the token to field staff, who verify it without access to the
// booking database. Tokens are sealed with AES-GCM, live in Redis for a
// short TTL, and are consumed on first verification.
package service

import (
	"context"
	"errors"

	bookingsvc "renthub/internal/bookings/service"
	"renthub/pkg/config"
	apperrors "renthub/pkg/errors"
	"renthub/pkg/model"
	"renthub/pkg/sealer"

	"github.com/redis/go-redis/v9"
)

const tokenKeyPrefix = "sos:token:"

type Token struct {
	Token     string `json:"token"`
	PublicID  string `json:"public_id"`
	ExpiresIn int    `json:"expires_in_seconds"`
}

type Verification struct {
	PublicID     string           `json:"public_id"`
	CustomerName string           `json:"customer_name"`
	Phone        string           `json:"phone"`
	Vehicle      model.VehicleRef `json:"vehicle"`
	Window       model.Window     `json:"window"`
}

type SOSService interface {
	IssueToken(ctx context.Context, bookingID string) (*Token, error)
	VerifyToken(ctx context.Context, token string) (*Verification, error)
}

type sosService struct {
	bookings bookingsvc.BookingService
	redis    *redis.Client
	sealer   *sealer.Sealer
	cfg      *config.Config
}

func NewSOSService(bookings bookingsvc.BookingService, s *sealer.Sealer, cfg *config.Config) SOSService {
	return &sosService{
		bookings: bookings,
		redis:    cfg.Client.Redis,
		sealer:   s,
		cfg:      cfg,
	}
}

// IssueToken seals a token for an active booking and registers it in Redis
// with the configured TTL. Re-issuing before expiry just overwrites the
// previous registration.
func (s *sosService) IssueToken(ctx context.Context, bookingID string) (*Token, error) {
	booking, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != model.StatusConfirmed {
		return nil, apperrors.Conflict("SOS tokens are only issued for confirmed bookings")
	}

	token, err := s.sealer.Seal(booking.PublicID, booking.Customer.Phone)
	if err != nil {
		return nil, apperrors.Internal("Failed to create SOS token", err)
	}

	if err := s.redis.Set(ctx, tokenKeyPrefix+booking.PublicID, token, s.cfg.SOSTokenTTL).Err(); err != nil {
		return nil, apperrors.Internal("Failed to register SOS token", err)
	}

	return &Token{
		Token:     token,
		PublicID:  booking.PublicID,
		ExpiresIn: int(s.cfg.SOSTokenTTL.Seconds()),
	}, nil
}

// VerifyToken opens the sealed token, checks it is the one currently
// registered, and consumes it. A second verification of the same token
// fails.
func (s *sosService) VerifyToken(ctx context.Context, token string) (*Verification, error) {
	publicID, phone, err := s.sealer.Open(token)
	if err != nil {
		return nil, apperrors.Unauthorized("Invalid SOS token")
	}

	stored, err := s.redis.GetDel(ctx, tokenKeyPrefix+publicID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.Unauthorized("SOS token expired or already used")
		}
		return nil, apperrors.Internal("Failed to verify SOS token", err)
	}
	if stored != token {
		return nil, apperrors.Unauthorized("SOS token superseded by a newer one")
	}

	booking, err := s.bookings.Get(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if booking.Customer.Phone != phone {
		return nil, apperrors.Unauthorized("SOS token does not match the booking")
	}

	return &Verification{
		PublicID:     booking.PublicID,
		CustomerName: booking.Customer.Name,
		Phone:        booking.Customer.Phone,
		Vehicle:      booking.Vehicle,
		Window:       booking.Window,
	}, nil
}
