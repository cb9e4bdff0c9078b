package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-muffler/audio"
	"github.com/cwbudde/algo-muffler/audio/otodevice"
	"github.com/cwbudde/algo-muffler/internal/logging"
	"github.com/cwbudde/algo-muffler/internal/paramflags"
	"github.com/cwbudde/algo-muffler/internal/wavio"
	"github.com/cwbudde/algo-muffler/pump"
	"github.com/cwbudde/algo-muffler/sim"
)

func main() {
	pf := paramflags.Register(flag.CommandLine)
	duration := flag.Float64("duration", 3.0, "Playback duration in seconds")
	volume := flag.Float64("volume", 0.3, "Output volume (0-1)")
	rpmEnd := flag.Float64("rpm-end", 0, "Ramp the pump speed to this rpm during playback (0 = fixed)")
	channels := flag.Int("channels", 2, "Output channel count")
	irPath := flag.String("ir", "", "Play through this impulse response WAV instead of the simulated one (optional)")
	irChannel := flag.Int("ir-channel", -1, "Channel of -ir to use (-1 = average all channels)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	logger, err := logging.New(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	params, err := pf.Params()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid parameters: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Chamber: %.1f mm x %.1f mm, pipes: %.1f mm / %.1f mm\n",
		params.ChamberDiameter*1e3, params.ChamberLength*1e3, params.InletDiameter*1e3, params.OutletDiameter*1e3)
	src := pump.NewSource(params.RPM, params.NumValves, params.DutyCycle, sim.SampleRate)
	fmt.Printf("Pump: %.0f rpm, %d valves, duty %.2f, fundamental %.1f Hz\n",
		params.RPM, params.NumValves, params.DutyCycle, src.FundamentalFrequency())

	res, err := sim.Compute(params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "compute: %v\n", err)
		os.Exit(1)
	}
	ir := res.ImpulseResponse
	if *irPath != "" {
		ir, err = loadIR(*irPath, *irChannel, res.SampleRate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load ir: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Impulse response: %d samples from %s\n", len(ir), *irPath)
	} else {
		fmt.Printf("Impulse response: %d samples at %d Hz\n", len(ir), res.SampleRate)
	}

	p := audio.NewPipeline(otodevice.New(sim.SampleRate, *channels, audio.FormatFloat32LE), audio.WithLogger(logger))
	defer p.Close()
	if err := p.SetPumpParams(params.RPM, params.NumValves, params.DutyCycle); err != nil {
		fmt.Fprintf(os.Stderr, "pump: %v\n", err)
		os.Exit(1)
	}
	p.SetVolume(*volume)
	if err := p.SwapIR(ir); err != nil {
		fmt.Fprintf(os.Stderr, "swap ir: %v\n", err)
		os.Exit(1)
	}
	if err := p.Play(); err != nil {
		fmt.Fprintf(os.Stderr, "play: %v\n", err)
		os.Exit(1)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	total := time.Duration(*duration * float64(time.Second))
	start := time.Now()
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for time.Since(start) < total {
		select {
		case <-interrupt:
			logger.Info("interrupted")
			p.Stop()
			return
		case <-tick.C:
			if *rpmEnd > 0 {
				frac := float64(time.Since(start)) / float64(total)
				if frac > 1 {
					frac = 1
				}
				rpm := params.RPM + (*rpmEnd-params.RPM)*frac
				if err := p.SetPumpParams(rpm, params.NumValves, params.DutyCycle); err == nil {
					logger.Debug("pump speed", zap.Float64("rpm", rpm))
				}
			}
		}
	}
	p.Stop()
	fmt.Println("Done.")
}

// loadIR reads one channel of an impulse response WAV and brings it to
// sampleRate.
func loadIR(path string, channel, sampleRate int) ([]float64, error) {
	ir, rate, err := wavio.ReadChannel(path, channel)
	if err != nil {
		return nil, err
	}
	return wavio.Resample(ir, rate, sampleRate)
}
