package acoustic

import (
	"math"

	pdefd "github.com/cwbudde/algo-pde/fd"
	pdepoisson "github.com/cwbudde/algo-pde/poisson"
)

// resonanceGrid is the number of interior grid points used to discretise the
// duct axis.
const resonanceGrid = 1024

// AxialResonances returns the first count longitudinal resonance frequencies
// (Hz) of a duct of the given length with pressure-release ends, i.e. the
// frequencies where kL = nπ. These are the transmission-loss zeros of an
// expansion chamber. The eigenvalues come from the finite-difference 1-D
// Laplacian, so they approach n·c/(2L) as the grid is refined.
func AxialResonances(length, c float64, count int) []float64 {
	if count <= 0 || length <= 0 || c <= 0 {
		return nil
	}
	n := resonanceGrid
	if count > n/4 {
		n = 4 * count
	}
	h := length / float64(n+1)
	ev := pdefd.Eigenvalues(n, h, pdepoisson.Dirichlet)
	if count > len(ev) {
		count = len(ev)
	}
	out := make([]float64, count)
	for i := range out {
		out[i] = c * math.Sqrt(math.Max(ev[i], 0)) / (2 * math.Pi)
	}
	return out
}
