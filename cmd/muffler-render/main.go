package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/cwbudde/algo-muffler/analysis"
	"github.com/cwbudde/algo-muffler/audio"
	"github.com/cwbudde/algo-muffler/internal/paramflags"
	"github.com/cwbudde/algo-muffler/internal/wavio"
	"github.com/cwbudde/algo-muffler/pump"
	"github.com/cwbudde/algo-muffler/sim"
)

func main() {
	pf := paramflags.Register(flag.CommandLine)
	duration := flag.Float64("duration", 2.0, "Render duration in seconds")
	output := flag.String("output", "muffler.wav", "Output WAV path for the muffled pump")
	dryOutput := flag.String("dry-output", "", "Output WAV path for the unmuffled pump (optional)")
	sampleRate := flag.Int("sample-rate", sim.SampleRate, "Output sample rate in Hz (resampled if different)")
	normalize := flag.Float64("normalize", 0, "Normalize the wet output to this peak (0 = off)")
	harmonics := flag.Int("harmonics", 6, "Number of pump harmonics to report")
	blockSize := flag.Int("block-size", audio.DefaultBlockSize, "Processing block size in samples")
	irPath := flag.String("ir", "", "Render through this impulse response WAV instead of the simulated one (optional)")
	reportPath := flag.String("report", "", "Write the analysis report as JSON to this path (optional)")
	flag.Parse()

	params, err := pf.Params()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid parameters: %v\n", err)
		os.Exit(1)
	}
	if *blockSize < 1 {
		fmt.Fprintf(os.Stderr, "block size must be >= 1\n")
		os.Exit(1)
	}

	res, err := sim.Compute(params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "compute: %v\n", err)
		os.Exit(1)
	}

	ir := res.ImpulseResponse
	if *irPath != "" {
		raw, rate, err := wavio.ReadMono(*irPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read %s: %v\n", *irPath, err)
			os.Exit(1)
		}
		if ir, err = wavio.Resample(raw, rate, res.SampleRate); err != nil {
			fmt.Fprintf(os.Stderr, "resample %s: %v\n", *irPath, err)
			os.Exit(1)
		}
		fmt.Printf("Using impulse response %s (%d samples)\n", *irPath, len(ir))
	}

	src := pump.NewSource(params.RPM, params.NumValves, params.DutyCycle, float64(res.SampleRate))
	conv := audio.NewConvolverWithHandle(audio.NewIRHandle(ir))
	f0 := src.FundamentalFrequency()

	fmt.Printf("Rendering %.2f s of a %.0f rpm, %d valve pump (fundamental %.1f Hz) at %d Hz...\n",
		*duration, params.RPM, params.NumValves, f0, res.SampleRate)

	total := int(*duration * float64(res.SampleRate))
	if total < 1 {
		total = 1
	}
	dry := make([]float64, 0, total)
	wet := make([]float64, 0, total)
	block := make([]float64, *blockSize)
	for len(dry) < total {
		n := min(*blockSize, total-len(dry))
		src.GenerateTo(block[:n])
		dry = append(dry, block[:n]...)
		wet = append(wet, conv.Process(block[:n])...)
	}

	// Skip the first impulse response length so the report sees steady state.
	settle := min(conv.Handle().Len(), total/2)
	report, err := analysis.Analyze(wet[settle:], res.SampleRate, f0, *harmonics)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis: %v\n", err)
		os.Exit(1)
	}
	il, err := analysis.InsertionLoss(dry[settle:], wet[settle:], res.SampleRate, f0, *harmonics)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis: %v\n", err)
		os.Exit(1)
	}

	// One frame per pump revolution keeps the envelope of steady output flat.
	if frame := int(float64(res.SampleRate) * float64(params.NumValves) / f0); frame > 0 {
		if st, err := analysis.SettleTime(wet, res.SampleRate, frame, 0.5); err == nil {
			report.SettleSeconds = st
			fmt.Printf("Settled within 0.5 dB after %.1f ms\n", st*1e3)
		}
	}
	fmt.Printf("Wet RMS: %.6f, Peak: %.6f, Crest: %.2f dB\n", report.RMS, report.Peak, report.CrestDB)
	fmt.Println("Harmonic  Freq(Hz)  Level(dB)  InsertionLoss(dB)")
	for i, h := range report.Harmonics {
		fmt.Printf("%8d  %8.1f  %9.2f  %17.2f\n", h.Order, h.Frequency, h.LevelDB, il[i])
	}

	if *normalize > 0 {
		g := wavio.Normalize(wet, *normalize)
		fmt.Printf("Normalized wet output with gain %.4f\n", g)
	}

	if err := writeOutput(*output, wet, res.SampleRate, *sampleRate); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", *output, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", *output)
	if *dryOutput != "" {
		if err := writeOutput(*dryOutput, dry, res.SampleRate, *sampleRate); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", *dryOutput, err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", *dryOutput)
	}

	if *reportPath != "" {
		b, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "report: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*reportPath, append(b, '\n'), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write report: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", *reportPath)
	}
}

func writeOutput(path string, samples []float64, fromRate, toRate int) error {
	out, err := wavio.Resample(samples, fromRate, toRate)
	if err != nil {
		return err
	}
	return wavio.WriteMono(path, out, toRate)
}
