package service

import (
	"math"

	"renthub/pkg/config"
	"renthub/pkg/model"
)

// RefundCalculator computes refund splits from the advance payment. It is
// pure arithmetic; persistence and gateway calls live in the booking service.
type RefundCalculator struct {
	cfg *config.Config
}

func NewRefundCalculator(cfg *config.Config) *RefundCalculator {
	return &RefundCalculator{cfg: cfg}
}

// ForCancellation splits the advance by how long the booking has been
// confirmed. Inside the grace period after confirmation the customer gets
// the full advance back; later cancellations are refunded at the configured
// rate with the remainder retained.
func (c *RefundCalculator) ForCancellation(advance float64, hoursSinceConfirmation float64) *model.Refund {
	base := c.refundBase(advance)

	if hoursSinceConfirmation <= c.cfg.FreeCancelHours {
		return &model.Refund{
			Amount:          base,
			DeductionAmount: 0,
			Status:          model.RefundProcessing,
		}
	}

	// Refund and deduction are rounded independently; on a .5 boundary the
	// two can sum to one unit more than the advance.
	return &model.Refund{
		Amount:          roundHalfUp(base * c.cfg.CancellationRefund),
		DeductionAmount: roundHalfUp(base * (1 - c.cfg.CancellationRefund)),
		Status:          model.RefundProcessing,
	}
}

// ForRejection always refunds the full advance: the customer never had a
// slot, so nothing is retained.
func (c *RefundCalculator) ForRejection(advance float64) *model.Refund {
	return &model.Refund{
		Amount:          c.refundBase(advance),
		DeductionAmount: 0,
		Status:          model.RefundProcessing,
	}
}

// refundBase substitutes the configured fallback when the recorded advance is
// missing or zero, so legacy bookings imported without payment data still
// refund something.
func (c *RefundCalculator) refundBase(advance float64) float64 {
	if advance <= 0 {
		return c.cfg.FallbackAdvance
	}
	return advance
}

func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}
