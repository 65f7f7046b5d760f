package bookingform

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"shuttle-track/internal/domain/pricing"
	"shuttle-track/internal/general/logger"
)

// fakePricingAPI serves both the calculator and the promo form.
type fakePricingAPI struct {
	mu         sync.Mutex
	quote      pricing.Quote
	quoteErr   error
	calcCalls  int
	lastInput  TripInput
	promoCalls int
	discount   pricing.Discount
	promoErr   error
}

func (a *fakePricingAPI) CalculatePrice(_ context.Context, pickup, dropoff string, passengers int) (pricing.Quote, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calcCalls++
	a.lastInput = TripInput{PickupAddress: pickup, DropoffAddress: dropoff, Passengers: passengers}
	if a.quoteErr != nil {
		return pricing.Quote{}, a.quoteErr
	}
	return a.quote, nil
}

func (a *fakePricingAPI) ValidatePromo(_ context.Context, code string, amount float64) (pricing.Discount, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.promoCalls++
	if a.promoErr != nil {
		return pricing.Discount{}, a.promoErr
	}
	d := a.discount
	d.FinalAmount = amount - d.DiscountAmount
	return d, nil
}

func (a *fakePricingAPI) counts() (calc, promo int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calcCalls, a.promoCalls
}

func serverQuote(total float64) pricing.Quote {
	return pricing.Quote{
		DistanceKM:   12.4,
		BasePrice:    total - 10,
		PassengerFee: 10,
		TotalPrice:   total,
		RatePerKM:    12,
	}
}

func newCalc(api *fakePricingAPI, debounce time.Duration) *Calculator {
	return NewCalculator(logger.New("form-test"), api, debounce)
}

func trip() TripInput {
	return TripInput{
		PickupAddress:  "12 Moana Ave, Orewa",
		DropoffAddress: "Auckland Airport",
		Passengers:     3,
	}
}

func TestRecalculateFailsFastOnEmptyAddresses(t *testing.T) {
	api := &fakePricingAPI{quote: serverQuote(150)}
	calc := newCalc(api, time.Hour)

	if _, err := calc.Recalculate(context.Background(), TripInput{DropoffAddress: "Airport"}); !errors.Is(err, ErrPickupRequired) {
		t.Fatalf("err = %v, want ErrPickupRequired", err)
	}
	if _, err := calc.Recalculate(context.Background(), TripInput{PickupAddress: "Orewa"}); !errors.Is(err, ErrDropoffRequired) {
		t.Fatalf("err = %v, want ErrDropoffRequired", err)
	}
	if calls, _ := api.counts(); calls != 0 {
		t.Fatalf("server called %d times for invalid input, want 0", calls)
	}
}

func TestRecalculateStoresServerQuoteVerbatim(t *testing.T) {
	api := &fakePricingAPI{quote: serverQuote(150)}
	calc := newCalc(api, time.Hour)

	got, err := calc.Recalculate(context.Background(), trip())
	if err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	if got != api.quote {
		t.Fatalf("quote = %+v, want the server response untouched", got)
	}
	if total, ok := calc.Total(); !ok || total != 150 {
		t.Fatalf("Total = %v %v", total, ok)
	}
}

func TestFailedRecalculateClearsQuote(t *testing.T) {
	api := &fakePricingAPI{quote: serverQuote(150)}
	calc := newCalc(api, time.Hour)

	if _, err := calc.Recalculate(context.Background(), trip()); err != nil {
		t.Fatalf("Recalculate: %v", err)
	}

	api.mu.Lock()
	api.quoteErr = errors.New("address not found")
	api.mu.Unlock()

	if _, err := calc.Recalculate(context.Background(), trip()); err == nil {
		t.Fatal("expected the failed calculation to error")
	}
	if _, ok := calc.Quote(); ok {
		t.Fatal("stale quote survived a failed calculation")
	}
	if _, ok := calc.Total(); ok {
		t.Fatal("a total is displayed with no quote behind it")
	}
}

// Return doubling applies to the combined fare, never per component.
func TestReturnTripDoublesCombinedTotal(t *testing.T) {
	api := &fakePricingAPI{quote: pricing.Quote{
		BasePrice:    80,
		AirportFee:   20,
		PassengerFee: 10,
		TotalPrice:   110,
	}}
	calc := newCalc(api, time.Hour)

	if _, err := calc.Recalculate(context.Background(), trip()); err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	calc.SetExtras(true, false, true) // VIP adds the 15, then double everything

	total, ok := calc.Total()
	if !ok || total != 250.00 {
		t.Fatalf("Total = %v, want (80+20+10+15)*2 = 250.00", total)
	}

	// one-way with the same extras is exactly half
	calc.SetExtras(true, false, false)
	if total, _ := calc.Total(); total != 125.00 {
		t.Fatalf("one-way total = %v, want 125.00", total)
	}
}

func TestDebounceOnlyLastEditFires(t *testing.T) {
	api := &fakePricingAPI{quote: serverQuote(150)}
	calc := newCalc(api, 30*time.Millisecond)
	ctx := context.Background()

	// a typing burst: each keystroke reschedules
	for _, pickup := range []string{"1", "12", "12 M", "12 Moana Ave"} {
		calc.Schedule(ctx, TripInput{PickupAddress: pickup, DropoffAddress: "Airport", Passengers: 2})
		time.Sleep(5 * time.Millisecond)
	}

	deadline := time.Now().Add(time.Second)
	for {
		if calls, _ := api.counts(); calls >= 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("debounced calculation never fired")
		}
		time.Sleep(5 * time.Millisecond)
	}
	// give a stray earlier timer a chance to misfire
	time.Sleep(60 * time.Millisecond)

	calls, _ := api.counts()
	if calls != 1 {
		t.Fatalf("server called %d times for one burst, want 1", calls)
	}
	api.mu.Lock()
	last := api.lastInput
	api.mu.Unlock()
	if last.PickupAddress != "12 Moana Ave" {
		t.Fatalf("fired with %q, want the final edit", last.PickupAddress)
	}
}

func TestApplyRequiresQuote(t *testing.T) {
	api := &fakePricingAPI{}
	calc := newCalc(api, time.Hour)
	form := NewPromoForm(logger.New("form-test"), api, calc)

	_, err := form.Apply(context.Background(), "SAVE10")
	var rej *pricing.RejectionError
	if !errors.As(err, &rej) {
		t.Fatalf("err = %v, want a local rejection", err)
	}
	if _, promo := api.counts(); promo != 0 {
		t.Fatal("network call made without a quote")
	}
}

func TestApplyStoresDiscountAndRejectionClearsIt(t *testing.T) {
	api := &fakePricingAPI{
		quote:    serverQuote(150),
		discount: pricing.Discount{Code: "SAVE10", DiscountType: pricing.DiscountPercentage, DiscountValue: 10, DiscountAmount: 15},
	}
	calc := newCalc(api, time.Hour)
	form := NewPromoForm(logger.New("form-test"), api, calc)

	if _, err := calc.Recalculate(context.Background(), trip()); err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	if _, err := form.Apply(context.Background(), "  save10 "); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if d, ok := form.Discount(); !ok || d.Code != "SAVE10" {
		t.Fatalf("discount = %+v %v", d, ok)
	}
	if final, _ := form.FinalTotal(); final != 135 {
		t.Fatalf("FinalTotal = %v, want 135", final)
	}

	// a rejected second code drops the first discount too
	api.mu.Lock()
	api.promoErr = &pricing.RejectionError{Reason: "Promo code has expired"}
	api.mu.Unlock()

	_, err := form.Apply(context.Background(), "OLDCODE")
	var rej *pricing.RejectionError
	if !errors.As(err, &rej) || rej.Reason != "Promo code has expired" {
		t.Fatalf("err = %v, want the server reason verbatim", err)
	}
	if _, ok := form.Discount(); ok {
		t.Fatal("prior discount survived a rejection")
	}
}

// Property: calculate, apply promo, calculate again. The discount must not
// outlive the quote it was computed against.
func TestRecalculateClearsAppliedDiscount(t *testing.T) {
	api := &fakePricingAPI{
		quote:    serverQuote(150),
		discount: pricing.Discount{Code: "SAVE10", DiscountAmount: 15},
	}
	calc := newCalc(api, time.Hour)
	form := NewPromoForm(logger.New("form-test"), api, calc)

	if _, err := calc.Recalculate(context.Background(), trip()); err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	if _, err := form.Apply(context.Background(), "SAVE10"); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	api.mu.Lock()
	api.quote = serverQuote(220)
	api.mu.Unlock()
	if _, err := calc.Recalculate(context.Background(), trip()); err != nil {
		t.Fatalf("second Recalculate: %v", err)
	}

	if _, ok := form.Discount(); ok {
		t.Fatal("discount survived a quote replacement")
	}
	if final, _ := form.FinalTotal(); final != 220 {
		t.Fatalf("FinalTotal = %v, want the fresh undiscounted total", final)
	}
}

// A discount is only valid for the exact total it was validated against, and
// the extras toggles move the total without a server round trip.
func TestExtrasChangeClearsAppliedDiscount(t *testing.T) {
	api := &fakePricingAPI{
		quote:    serverQuote(100),
		discount: pricing.Discount{Code: "SAVE10", DiscountAmount: 10},
	}
	calc := newCalc(api, time.Hour)
	form := NewPromoForm(logger.New("form-test"), api, calc)

	if _, err := calc.Recalculate(context.Background(), trip()); err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	if _, err := form.Apply(context.Background(), "SAVE10"); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if final, _ := form.FinalTotal(); final != 90 {
		t.Fatalf("FinalTotal = %v, want 90", final)
	}

	// return trip doubles the total; the old discount must not stick around
	calc.SetExtras(false, false, true)
	if _, ok := form.Discount(); ok {
		t.Fatal("discount survived an extras change")
	}
	if final, _ := form.FinalTotal(); final != 200 {
		t.Fatalf("FinalTotal = %v, want the fresh undiscounted 200", final)
	}

	// re-applying against the new total works, and a no-op toggle keeps it
	if _, err := form.Apply(context.Background(), "SAVE10"); err != nil {
		t.Fatalf("re-Apply: %v", err)
	}
	calc.SetExtras(false, false, true)
	if _, ok := form.Discount(); !ok {
		t.Fatal("no-op extras call cleared a valid discount")
	}
}

func TestRemoveIsClientSide(t *testing.T) {
	api := &fakePricingAPI{
		quote:    serverQuote(150),
		discount: pricing.Discount{Code: "SAVE10", DiscountAmount: 15},
	}
	calc := newCalc(api, time.Hour)
	form := NewPromoForm(logger.New("form-test"), api, calc)

	if _, err := calc.Recalculate(context.Background(), trip()); err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	if _, err := form.Apply(context.Background(), "SAVE10"); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	_, promoBefore := api.counts()
	form.Remove()
	if _, ok := form.Discount(); ok {
		t.Fatal("Remove did not clear the discount")
	}
	if _, promoAfter := api.counts(); promoAfter != promoBefore {
		t.Fatal("Remove made a network call")
	}
}

// Property: an accepted discount never exceeds the total and the final
// amount never goes negative.
func TestDiscountBound(t *testing.T) {
	expiry := time.Now().Add(24 * time.Hour)
	totals := []float64{100, 150, 38.5}
	promos := []pricing.PromoCode{
		{Code: "HALF", DiscountType: pricing.DiscountPercentage, DiscountValue: 50, Active: true, ExpiryDate: &expiry},
		{Code: "BIGFIXED", DiscountType: pricing.DiscountFixed, DiscountValue: 500, Active: true},
		{Code: "OVERPCT", DiscountType: pricing.DiscountPercentage, DiscountValue: 150, Active: true},
	}
	for _, total := range totals {
		for _, p := range promos {
			d, err := p.Evaluate(total, time.Now())
			if err != nil {
				t.Fatalf("Evaluate(%s, %v): %v", p.Code, total, err)
			}
			if d.DiscountAmount > total {
				t.Fatalf("%s on %v: discount %v exceeds total", p.Code, total, d.DiscountAmount)
			}
			if d.FinalAmount < 0 {
				t.Fatalf("%s on %v: final amount %v is negative", p.Code, total, d.FinalAmount)
			}
		}
	}
}
