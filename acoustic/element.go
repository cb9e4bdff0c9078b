package acoustic

import "math"

// Element is anything that can be described by a plane-wave transfer matrix
// at angular frequency omega in a medium with speed of sound c and density rho.
type Element interface {
	TransferMatrix(omega, c, rho float64) TransferMatrix
}

// StraightDuct is a rigid, lossless cylindrical duct. Length and Diameter are
// in metres.
type StraightDuct struct {
	Length   float64
	Diameter float64
}

// Area returns the duct cross-section in m².
func (d StraightDuct) Area() float64 {
	return AreaFromDiameter(d.Diameter)
}

// Impedance returns the characteristic impedance rho*c/S of the duct.
func (d StraightDuct) Impedance(c, rho float64) float64 {
	return CharacteristicImpedance(rho, c, d.Area())
}

// TransferMatrix implements Element.
func (d StraightDuct) TransferMatrix(omega, c, rho float64) TransferMatrix {
	z := d.Impedance(c, rho)
	kl := omega / c * d.Length
	cos, sin := math.Cos(kl), math.Sin(kl)
	return TransferMatrix{
		A: complex(cos, 0),
		B: complex(0, z*sin),
		C: complex(0, sin/z),
		D: complex(cos, 0),
	}
}
