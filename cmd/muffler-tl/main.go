package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"math/cmplx"
	"os"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-muffler/acoustic"
	"github.com/cwbudde/algo-muffler/internal/paramflags"
	"github.com/cwbudde/algo-muffler/internal/wavio"
	"github.com/cwbudde/algo-muffler/sim"
)

func main() {
	pf := paramflags.Register(flag.CommandLine)
	output := flag.String("output", "", "CSV output path (default stdout)")
	every := flag.Int("every", 1, "Emit every n-th frequency bin")
	maxFreq := flag.Float64("max-freq", 0, "Highest frequency to emit in Hz (0 = Nyquist)")
	resonances := flag.Int("resonances", 4, "Number of chamber resonances to report")
	irOutput := flag.String("ir-output", "", "Write the impulse response to this WAV path (optional)")
	flag.Parse()

	params, err := pf.Params()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid parameters: %v\n", err)
		os.Exit(1)
	}
	if *every < 1 {
		*every = 1
	}

	res, err := sim.Compute(params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "compute: %v\n", err)
		os.Exit(1)
	}

	var w io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "create %s: %v\n", *output, err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "frequency_hz,tl_db,h_db,h_phase_rad")
	for i := 0; i < len(res.Frequencies); i += *every {
		f := res.Frequencies[i]
		if *maxFreq > 0 && f > *maxFreq {
			break
		}
		h := res.TransferFunction[i]
		fmt.Fprintf(bw, "%.3f,%.6f,%.6f,%.6f\n", f, res.TransmissionLoss[i], core.LinearToDB(cmplx.Abs(h)), cmplx.Phase(h))
	}
	if err := bw.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(1)
	}

	peakIdx := floats.MaxIdx(res.TransmissionLoss)
	c, _ := params.Air()
	fmt.Fprintf(os.Stderr, "Speed of sound: %.2f m/s at %.1f °C\n", c, params.Temperature)
	fmt.Fprintf(os.Stderr, "Peak TL: %.2f dB at %.1f Hz\n", res.TransmissionLoss[peakIdx], res.Frequencies[peakIdx])
	if *resonances > 0 {
		fmt.Fprintf(os.Stderr, "Chamber pass bands (TL = 0):")
		for _, f := range acoustic.AxialResonances(params.ChamberLength, c, *resonances) {
			fmt.Fprintf(os.Stderr, " %.1f Hz", f)
		}
		fmt.Fprintln(os.Stderr)
	}

	if *irOutput != "" {
		if err := wavio.WriteMono(*irOutput, res.ImpulseResponse, res.SampleRate); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", *irOutput, err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s (%d samples)\n", *irOutput, len(res.ImpulseResponse))
	}
}
