package pricing

import (
	"errors"
	"testing"
	"time"
)

func TestPromoEvaluate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name       string
		promo      PromoCode
		amount     float64
		wantAmount float64
		wantFinal  float64
		wantReject bool
	}{
		{
			name:       "Percentage discount",
			promo:      PromoCode{Code: "SAVE10", DiscountType: DiscountPercentage, DiscountValue: 10, Active: true},
			amount:     150,
			wantAmount: 15,
			wantFinal:  135,
		},
		{
			name:       "Fixed discount",
			promo:      PromoCode{Code: "FLAT20", DiscountType: DiscountFixed, DiscountValue: 20, Active: true},
			amount:     150,
			wantAmount: 20,
			wantFinal:  130,
		},
		{
			// fixed discount larger than the booking caps at the booking amount
			name:       "Fixed discount capped at total",
			promo:      PromoCode{Code: "BIG", DiscountType: DiscountFixed, DiscountValue: 500, Active: true},
			amount:     150,
			wantAmount: 150,
			wantFinal:  0,
		},
		{
			name:       "Inactive code",
			promo:      PromoCode{Code: "OLD", DiscountType: DiscountFixed, DiscountValue: 5, Active: false},
			amount:     150,
			wantReject: true,
		},
		{
			name:       "Expired code",
			promo:      PromoCode{Code: "EXP", DiscountType: DiscountFixed, DiscountValue: 5, Active: true, ExpiryDate: &past},
			amount:     150,
			wantReject: true,
		},
		{
			name:       "Not yet expired",
			promo:      PromoCode{Code: "OK", DiscountType: DiscountFixed, DiscountValue: 5, Active: true, ExpiryDate: &future},
			amount:     150,
			wantAmount: 5,
			wantFinal:  145,
		},
		{
			name:       "Usage limit reached",
			promo:      PromoCode{Code: "MAXED", DiscountType: DiscountFixed, DiscountValue: 5, Active: true, MaxUses: 3, UsesCount: 3},
			amount:     150,
			wantReject: true,
		},
		{
			name:       "Below minimum booking amount",
			promo:      PromoCode{Code: "MIN", DiscountType: DiscountFixed, DiscountValue: 5, Active: true, MinBookingAmount: 200},
			amount:     150,
			wantReject: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.promo.Evaluate(tt.amount, now)
			if tt.wantReject {
				var rej *RejectionError
				if !errors.As(err, &rej) {
					t.Fatalf("Evaluate() error = %v, want RejectionError", err)
				}
				if rej.Reason == "" {
					t.Error("rejection reason is empty")
				}
				return
			}
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if got.DiscountAmount != tt.wantAmount {
				t.Errorf("DiscountAmount = %v, want %v", got.DiscountAmount, tt.wantAmount)
			}
			if got.FinalAmount != tt.wantFinal {
				t.Errorf("FinalAmount = %v, want %v", got.FinalAmount, tt.wantFinal)
			}
			// invariants: discount never exceeds the amount, final never negative
			if got.DiscountAmount > tt.amount {
				t.Errorf("DiscountAmount %v exceeds booking amount %v", got.DiscountAmount, tt.amount)
			}
			if got.FinalAmount < 0 {
				t.Errorf("FinalAmount %v is negative", got.FinalAmount)
			}
		})
	}
}

func TestNormalizeCode(t *testing.T) {
	if got := NormalizeCode("  save10 "); got != "SAVE10" {
		t.Errorf("NormalizeCode = %q, want SAVE10", got)
	}
}
