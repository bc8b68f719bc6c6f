// README: Pricing policies, vehicle classes and per-km rate definitions.
package pricing

import "errors"

type Policy string

const (
	// PolicyBaseEco charges a flat base fare plus a per-km rate that is lower for eco rides.
	PolicyBaseEco Policy = "base_eco"
	// PolicyPerClass charges distance times the vehicle class rate.
	PolicyPerClass Policy = "per_class"
)

// MaxDistanceKm bounds a single trip. Longer distances are rejected before
// any fare arithmetic.
const MaxDistanceKm = 5000.0

// MaxRatePerKm bounds stored and per-cab rates.
const MaxRatePerKm = 1000.0

const (
	BaseFare      = 50.0
	EcoPerKm      = 12.0
	StandardPerKm = 15.0
)

const (
	ClassSedan     = "sedan"
	ClassSUV       = "suv"
	ClassHatchback = "hatchback"
	ClassLuxury    = "luxury"
	ClassAuto      = "auto"
	ClassBike      = "bike"
)

// DefaultRates is the per-km table used when no stored rate exists.
var DefaultRates = map[string]float64{
	ClassSedan:     10,
	ClassSUV:       15,
	ClassHatchback: 10,
	ClassLuxury:    25,
	ClassAuto:      8,
	ClassBike:      5,
}

// classOrder is the listing order of vehicle classes.
var classOrder = []string{ClassSedan, ClassSUV, ClassHatchback, ClassLuxury, ClassAuto, ClassBike}

var (
	ErrInvalidDistance  = errors.New("distance must be a positive number")
	ErrUnknownClass     = errors.New("unknown vehicle class")
	ErrRateNotFound     = errors.New("rate not found")
	ErrInvalidRate      = errors.New("rate per km must be a positive number")
	ErrCurrencyMismatch = errors.New("rate currency does not match fare currency")
)

type Rate struct {
	VehicleClass string  `json:"vehicleClass"`
	PerKm        float64 `json:"perKm"`
	Currency     string  `json:"currency"`
}

type FareInput struct {
	VehicleClass string
	EcoRide      bool
	// RatePerKm is the assigned cab's own rate. Zero means the class rate applies.
	RatePerKm float64
}

// KnownClass reports whether class (already normalized) is a bookable vehicle class.
func KnownClass(class string) bool {
	_, ok := DefaultRates[class]
	return ok
}
