package bookingform

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"shuttle-track/internal/domain/pricing"
	"shuttle-track/internal/general/logger"
)

var (
	ErrPickupRequired  = errors.New("pickup address is required")
	ErrDropoffRequired = errors.New("dropoff address is required")
)

// QuoteAPI is the slice of the shared API client the calculator needs.
type QuoteAPI interface {
	CalculatePrice(ctx context.Context, pickup, dropoff string, passengers int) (pricing.Quote, error)
}

// TripInput is what the booking form feeds into a price calculation.
type TripInput struct {
	PickupAddress  string
	DropoffAddress string
	Passengers     int
}

// Calculator holds the booking form's pricing state: the last server quote
// verbatim, plus the add-ons the form applies on top (VIP pickup, oversized
// luggage, return trip). All fare math lives server-side; the add-ons and the
// return doubling are the only client-side arithmetic.
type Calculator struct {
	logger   *logger.Logger
	api      QuoteAPI
	debounce time.Duration

	mu         sync.Mutex
	quote      *pricing.Quote
	vipPickup  bool
	luggage    bool
	returnTrip bool
	timer      *time.Timer
	onReplace  []func()
}

// NewCalculator constructs a Calculator. A non-positive debounce takes the
// production default of 500ms.
func NewCalculator(logger *logger.Logger, api QuoteAPI, debounce time.Duration) *Calculator {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Calculator{logger: logger, api: api, debounce: debounce}
}

// OnQuoteReplaced registers a hook invoked whenever the effective total
// changes: a fresh server quote, a cleared quote after a failed attempt, or
// an add-on toggle. The promo form uses this to drop a discount computed
// against a total that no longer exists.
func (c *Calculator) OnQuoteReplaced(fn func()) {
	c.mu.Lock()
	c.onReplace = append(c.onReplace, fn)
	c.mu.Unlock()
}

// SetExtras records the add-on toggles. Local state, no server call, but a
// toggle that actually changes something still invalidates dependents: the
// displayed total moved, so anything computed from it is stale.
func (c *Calculator) SetExtras(vipPickup, oversizedLuggage, returnTrip bool) {
	c.mu.Lock()
	changed := c.vipPickup != vipPickup || c.luggage != oversizedLuggage || c.returnTrip != returnTrip
	c.vipPickup = vipPickup
	c.luggage = oversizedLuggage
	c.returnTrip = returnTrip
	hooks := c.onReplace
	c.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range hooks {
		fn()
	}
}

// Recalculate fetches a fresh quote. Empty addresses fail fast with no
// request sent. Any attempted calculation fully replaces the previous quote:
// on failure the old quote is cleared rather than shown against addresses it
// was not priced for.
func (c *Calculator) Recalculate(ctx context.Context, in TripInput) (pricing.Quote, error) {
	if strings.TrimSpace(in.PickupAddress) == "" {
		return pricing.Quote{}, ErrPickupRequired
	}
	if strings.TrimSpace(in.DropoffAddress) == "" {
		return pricing.Quote{}, ErrDropoffRequired
	}
	if in.Passengers < 1 {
		in.Passengers = 1
	}

	quote, err := c.api.CalculatePrice(ctx, in.PickupAddress, in.DropoffAddress, in.Passengers)
	if err != nil {
		c.replaceQuote(nil)
		return pricing.Quote{}, err
	}
	c.replaceQuote(&quote)
	return quote, nil
}

// Schedule queues a recalculation after the debounce window. Each call
// cancels the previous pending one, so a typing burst fires exactly one
// request, for the last edit.
func (c *Calculator) Schedule(ctx context.Context, in TripInput) {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := c.Recalculate(ctx, in); err != nil {
			c.logger.Error(ctx, "auto_recalculate_failed", "Debounced price calculation failed", err, nil)
		}
	})
	c.mu.Unlock()
}

// Quote returns the stored server quote, if any.
func (c *Calculator) Quote() (pricing.Quote, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.quote == nil {
		return pricing.Quote{}, false
	}
	return *c.quote, true
}

// Total returns the displayed total: the server total plus add-on fees,
// doubled as a whole for a return trip. False when no quote exists.
func (c *Calculator) Total() (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.quote == nil {
		return 0, false
	}
	total := c.quote.TotalPrice
	if c.vipPickup {
		total += pricing.VIPPickupFee
	}
	if c.luggage {
		total += pricing.OversizedLuggageFee
	}
	if c.returnTrip {
		total *= 2
	}
	return math.Round(total*100) / 100, true
}

func (c *Calculator) replaceQuote(q *pricing.Quote) {
	c.mu.Lock()
	c.quote = q
	hooks := c.onReplace
	c.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}
