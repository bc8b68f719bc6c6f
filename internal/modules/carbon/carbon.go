// README: Carbon savings estimate for eco rides in electric cabs.
package carbon

import "cabsys/internal/types"

// DefaultFactorKgPerKm is the CO2 saved per km by an electric cab versus a combustion one.
const DefaultFactorKgPerKm = 0.10

type Calculator struct {
	factor float64
}

func NewCalculator(factor float64) *Calculator {
	if factor < 0 {
		factor = DefaultFactorKgPerKm
	}
	return &Calculator{factor: factor}
}

// Saved returns kg of CO2 saved, rounded to two decimals. Savings only accrue
// when the rider asked for an eco ride and actually got an electric cab.
func (c *Calculator) Saved(distanceKm float64, ecoRide, cabIsElectric bool) float64 {
	if !ecoRide || !cabIsElectric || distanceKm <= 0 {
		return 0
	}
	return types.Round2(distanceKm * c.factor)
}
