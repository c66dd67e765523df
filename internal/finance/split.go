package finance

import (
	"fmt"
	"math"

	"foodcourt-backend/internal/models"
)

// Split is the monetary breakdown of a settled order. It is derived, never
// stored: every view recomputes it from the same inputs.
type Split struct {
	Commission  float64 `json:"commission"`
	PlatformFee float64 `json:"platformFee"`
	NetAmount   float64 `json:"netAmount"`
}

// NotSettledError signals a split request for an order whose payment has not
// completed. Surfaced instead of a zero figure, which would be
// indistinguishable from a legitimately free order.
type NotSettledError struct {
	PaymentStatus models.PaymentStatus
}

func (e NotSettledError) Error() string {
	return fmt.Sprintf("payment not yet settled (status %s)", e.PaymentStatus)
}

// ComputeSplit derives commission, platform fee and vendor payout from a
// settled total. The platform fee percentage applies to the total directly,
// not to the commission. Deterministic: identical inputs yield identical
// output for every caller.
func ComputeSplit(totalAmount, commissionRatePercent, platformFeePercent float64) Split {
	commission := math.Round(totalAmount * commissionRatePercent / 100)
	platformFee := math.Round(totalAmount * platformFeePercent / 100)
	return Split{
		Commission:  commission,
		PlatformFee: platformFee,
		NetAmount:   totalAmount - commission - platformFee,
	}
}

// SplitForOrder guards the settlement precondition before computing the
// split from the order's frozen total.
func SplitForOrder(order *models.Order, commissionRatePercent, platformFeePercent float64) (Split, error) {
	if !order.Payment.Settled() {
		return Split{}, NotSettledError{PaymentStatus: order.Payment.Status}
	}
	return ComputeSplit(order.Pricing.TotalAmount, commissionRatePercent, platformFeePercent), nil
}
