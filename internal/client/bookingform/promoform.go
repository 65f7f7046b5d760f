package bookingform

import (
	"context"
	"sync"

	"shuttle-track/internal/domain/pricing"
	"shuttle-track/internal/general/logger"
)

// PromoAPI is the slice of the shared API client the promo form needs.
type PromoAPI interface {
	ValidatePromo(ctx context.Context, code string, bookingAmount float64) (pricing.Discount, error)
}

// PromoForm applies a discount code against the calculator's current total.
// A stored discount is only ever valid for the exact total it was validated
// against; the form registers itself on the calculator so any quote change
// drops it.
type PromoForm struct {
	logger *logger.Logger
	api    PromoAPI
	calc   *Calculator

	mu       sync.Mutex
	discount *pricing.Discount
}

// NewPromoForm wires a PromoForm to a calculator. Every quote replacement,
// successful or not, clears the stored discount.
func NewPromoForm(logger *logger.Logger, api PromoAPI, calc *Calculator) *PromoForm {
	f := &PromoForm{logger: logger, api: api, calc: calc}
	calc.OnQuoteReplaced(f.clearDiscount)
	return f
}

// Apply validates a code against the current total. Without a quote it
// rejects locally, no network call. On rejection any prior discount is
// cleared and the server's reason comes back verbatim as a
// *pricing.RejectionError.
func (f *PromoForm) Apply(ctx context.Context, code string) (pricing.Discount, error) {
	total, ok := f.calc.Total()
	if !ok {
		return pricing.Discount{}, pricing.Reject("Calculate a price before applying a promo code")
	}
	code = pricing.NormalizeCode(code)
	if code == "" {
		return pricing.Discount{}, pricing.Reject("Enter a promo code")
	}

	discount, err := f.api.ValidatePromo(ctx, code, total)
	if err != nil {
		f.clearDiscount()
		return pricing.Discount{}, err
	}

	f.mu.Lock()
	f.discount = &discount
	f.mu.Unlock()
	return discount, nil
}

// Remove clears the stored discount. Pure client-side.
func (f *PromoForm) Remove() { f.clearDiscount() }

// Discount returns the stored discount, if any.
func (f *PromoForm) Discount() (pricing.Discount, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.discount == nil {
		return pricing.Discount{}, false
	}
	return *f.discount, true
}

// FinalTotal is what the form displays at the bottom: the discounted amount
// when a discount is applied, otherwise the plain total.
func (f *PromoForm) FinalTotal() (float64, bool) {
	total, ok := f.calc.Total()
	if !ok {
		return 0, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.discount != nil {
		return f.discount.FinalAmount, true
	}
	return total, true
}

func (f *PromoForm) clearDiscount() {
	f.mu.Lock()
	f.discount = nil
	f.mu.Unlock()
}
