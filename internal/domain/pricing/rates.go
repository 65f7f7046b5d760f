package pricing

// Fee schedule (NZD). The per-km rate applies to the TOTAL trip distance,
// not incrementally: a 30 km trip is charged at the 25.5–35 km rate for the
// entire distance.
const (
	ExtraPassengerFee   = 5.00  // per passenger beyond the first
	VIPPickupFee        = 15.00 // meet-and-greet airport pickup
	OversizedLuggageFee = 25.00
	MinimumFare         = 100.00
)

// rateBracket is one row of the tiered distance table.
type rateBracket struct {
	maxKM     float64 // inclusive upper bound
	ratePerKM float64
}

// rateTable mirrors the production fare card, shortest trips first. The last
// bracket is open-ended.
var rateTable = []rateBracket{
	{15.0, 12.00},
	{15.8, 8.00},
	{16.0, 6.00},
	{25.5, 5.50},
	{35.0, 5.00},
	{50.0, 4.00},
	{60.0, 2.60},
	{75.0, 2.47},
	{100.0, 2.70},
}

const openEndedRatePerKM = 3.50 // beyond 100 km

// RateForDistance returns the per-km rate for the bracket the total trip
// distance falls into.
func RateForDistance(distanceKM float64) float64 {
	for _, bracket := range rateTable {
		if distanceKM <= bracket.maxKM {
			return bracket.ratePerKM
		}
	}
	return openEndedRatePerKM
}
