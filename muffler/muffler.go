// Package muffler assembles acoustic elements into a source-to-load chain and
// evaluates its transmission loss.
package muffler

import "github.com/cwbudde/algo-muffler/acoustic"

// Muffler is an ordered chain of elements from the source side to the load
// side, terminated by a source impedance and a load impedance.
type Muffler struct {
	Elements []acoustic.Element
	ZSource  float64
	ZLoad    float64
}

// New returns a muffler over elements, listed in physical order.
func New(elements []acoustic.Element, zSource, zLoad float64) *Muffler {
	return &Muffler{Elements: elements, ZSource: zSource, ZLoad: zLoad}
}

// FromParams builds the inlet pipe, expansion chamber and outlet pipe chain.
// The terminations are the characteristic impedances of the inlet and outlet
// pipes at the params temperature.
func FromParams(p Params) *Muffler {
	c, rho := p.Air()
	inlet := acoustic.StraightDuct{Length: p.InletLength, Diameter: p.InletDiameter}
	chamber := acoustic.StraightDuct{Length: p.ChamberLength, Diameter: p.ChamberDiameter}
	outlet := acoustic.StraightDuct{Length: p.OutletLength, Diameter: p.OutletDiameter}
	return New(
		[]acoustic.Element{inlet, chamber, outlet},
		inlet.Impedance(c, rho),
		outlet.Impedance(c, rho),
	)
}

// Len returns the number of elements in the chain.
func (m *Muffler) Len() int {
	return len(m.Elements)
}

// TotalTransferMatrix chains the element matrices left to right. An empty
// muffler yields the identity.
func (m *Muffler) TotalTransferMatrix(omega, c, rho float64) acoustic.TransferMatrix {
	total := acoustic.Identity()
	for _, e := range m.Elements {
		total = total.Chain(e.TransferMatrix(omega, c, rho))
	}
	return total
}

// TransmissionLoss returns the TL in dB at angular frequency omega.
func (m *Muffler) TransmissionLoss(omega, c, rho float64) float64 {
	return m.TotalTransferMatrix(omega, c, rho).TransmissionLoss(m.ZSource, m.ZLoad)
}

// PressureTransfer returns the complex transfer function at omega.
func (m *Muffler) PressureTransfer(omega, c, rho float64) complex128 {
	return m.TotalTransferMatrix(omega, c, rho).PressureTransfer(m.ZSource, m.ZLoad)
}
