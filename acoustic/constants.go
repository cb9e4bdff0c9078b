// Package acoustic implements plane-wave acoustics for duct systems: air
// properties, 2x2 transfer matrices and the elements that produce them.
package acoustic

import "math"

const (
	// ReferenceSpeedOfSound is the speed of sound in air at 0 °C in m/s.
	ReferenceSpeedOfSound = 331.3
	// AtmosphericPressure is the standard sea-level pressure in Pa.
	AtmosphericPressure = 101325.0
	// GasConstantAir is the specific gas constant of dry air in J/(kg·K).
	GasConstantAir = 287.05
	// ZeroCelsius is 0 °C in kelvin.
	ZeroCelsius = 273.15
)

// SpeedOfSoundAndDensity returns the speed of sound (m/s) and the density
// (kg/m³) of dry air at sea-level pressure for a temperature in °C.
func SpeedOfSoundAndDensity(tempC float64) (c, rho float64) {
	tk := tempC + ZeroCelsius
	c = ReferenceSpeedOfSound * math.Sqrt(tk/ZeroCelsius)
	rho = AtmosphericPressure / (GasConstantAir * tk)
	return c, rho
}

// AreaFromDiameter returns the cross-section of a circular duct.
func AreaFromDiameter(d float64) float64 {
	r := d / 2
	return math.Pi * r * r
}

// CharacteristicImpedance returns rho*c/S for a duct of cross-section area.
func CharacteristicImpedance(rho, c, area float64) float64 {
	return rho * c / area
}
