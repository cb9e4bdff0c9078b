package acoustic

import (
	"math/cmplx"

	"github.com/cwbudde/algo-dsp/dsp/core"
)

// TransferMatrix relates pressure and volume velocity on the two sides of an
// acoustic element:
//
//	[p1]   [A B] [p2]
//	[u1] = [C D] [u2]
type TransferMatrix struct {
	A, B, C, D complex128
}

// Identity returns the transfer matrix of a zero-length element.
func Identity() TransferMatrix {
	return TransferMatrix{A: 1, D: 1}
}

// Chain returns m·next, the matrix of m followed downstream by next.
func (m TransferMatrix) Chain(next TransferMatrix) TransferMatrix {
	return TransferMatrix{
		A: m.A*next.A + m.B*next.C,
		B: m.A*next.B + m.B*next.D,
		C: m.C*next.A + m.D*next.C,
		D: m.C*next.B + m.D*next.D,
	}
}

// Det returns AD-BC. Lossless reciprocal elements have a determinant of one.
func (m TransferMatrix) Det() complex128 {
	return m.A*m.D - m.B*m.C
}

// insertionSum is the term shared by the transmission loss and the pressure
// transfer function for source impedance zs and load impedance zl.
func (m TransferMatrix) insertionSum(zs, zl float64) complex128 {
	s := complex(zs, 0)
	l := complex(zl, 0)
	return m.A + m.B/l + s*m.C + s*m.D/l
}

// TransmissionLoss returns the transmission loss in dB between a source of
// impedance zs and a load of impedance zl.
func (m TransferMatrix) TransmissionLoss(zs, zl float64) float64 {
	return core.LinearToDB(cmplx.Abs(m.insertionSum(zs, zl)) / 2)
}

// PressureTransfer returns the complex pressure transfer function
// 2/(A + B/zl + zs·C + zs·D/zl).
func (m TransferMatrix) PressureTransfer(zs, zl float64) complex128 {
	return 2 / m.insertionSum(zs, zl)
}
