package pricing

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DiscountType distinguishes percentage codes from fixed-amount codes.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// PromoCode is the domain entity corresponding to the `promo_codes` table.
type PromoCode struct {
	ID               string
	Code             string
	DiscountType     DiscountType
	DiscountValue    float64
	MinBookingAmount float64
	MaxUses          int // 0 means unlimited
	UsesCount        int
	ExpiryDate       *time.Time
	Active           bool
	Description      string
}

// Discount is the result of validating one code against one booking amount.
// It is only meaningful for the exact amount it was computed against.
type Discount struct {
	Code           string       `json:"code"`
	DiscountType   DiscountType `json:"discount_type"`
	DiscountValue  float64      `json:"discount_value"`
	DiscountAmount float64      `json:"discount_amount"`
	FinalAmount    float64      `json:"final_amount"`
	Description    string       `json:"description,omitempty"`
}

// RejectionError carries the customer-facing reason a code was refused.
// The reason taxonomy is owned server-side; clients display it verbatim.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string { return e.Reason }

// Reject builds a RejectionError with a formatted reason.
func Reject(format string, args ...any) error {
	return &RejectionError{Reason: fmt.Sprintf(format, args...)}
}

// NormalizeCode trims and uppercases a user-entered promo code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Evaluate applies the promo against a booking amount at the given time.
// It enforces active/expiry/usage/minimum rules and guarantees the resulting
// discount never exceeds the booking amount (final amount never negative).
func (p PromoCode) Evaluate(bookingAmount float64, now time.Time) (Discount, error) {
	if !p.Active {
		return Discount{}, Reject("Invalid or expired promo code")
	}
	if p.ExpiryDate != nil && now.After(*p.ExpiryDate) {
		return Discount{}, Reject("Promo code has expired")
	}
	if p.MaxUses > 0 && p.UsesCount >= p.MaxUses {
		return Discount{}, Reject("Promo code usage limit reached")
	}
	if bookingAmount < p.MinBookingAmount {
		return Discount{}, Reject("Minimum booking amount of $%.2f required", p.MinBookingAmount)
	}

	var amount float64
	switch p.DiscountType {
	case DiscountPercentage:
		amount = bookingAmount * (p.DiscountValue / 100)
	default: // fixed
		amount = math.Min(p.DiscountValue, bookingAmount)
	}
	// percentage values over 100 would otherwise push the final negative
	amount = math.Min(amount, bookingAmount)

	return Discount{
		Code:           p.Code,
		DiscountType:   p.DiscountType,
		DiscountValue:  p.DiscountValue,
		DiscountAmount: round2(amount),
		FinalAmount:    round2(bookingAmount - amount),
		Description:    p.Description,
	}, nil
}
