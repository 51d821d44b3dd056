// qgrover runs a Grover key search with a shift-rows oracle across a range of
// simulated decoherence levels and devices, and writes one accuracy line per
// (device, noise level) to a results file.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
	flag "github.com/spf13/pflag"
	_ "go.uber.org/automaxprocs"

	"github.com/theapemachine/qgrover"
)

var (
	key     = flag.String("key", "", "Key bitstring fed to the oracle, e.g. 1011.")
	target  = flag.String("target", "", "Target bitstring, same length as the key.")
	correct = flag.String("correct", "", "Key the measurements are scored against.")
	offsets = flag.IntSlice("offsets", nil, "Cyclic shift per row, one per √n row.")

	noiseStart = flag.Float64("noise-start", 0, "First noise level, must be positive.")
	noiseEnd   = flag.Float64("noise-end", 0, "Noise levels stop before this value.")
	noiseStep  = flag.Float64("noise-step", 0, "Increment between noise levels.")

	trials  = flag.Int("trials", 100, "Trials per (device, noise level).")
	devices = flag.StringSlice("devices", []string{"9q-qvm"}, "Device identifiers, e.g. 4q-qvm.")
	rounds  = flag.Int("rounds", 0, "Grover iterations, 0 for floor(π/4·√2^n).")

	out          = flag.String("out", "results.txt", "Results file.")
	configPath   = flag.String("config", "", "Optional settings file (yaml, toml, json).")
	seed         = flag.Uint64("seed", 1, "Seed for the per-batch random streams.")
	batchTimeout = flag.Duration("batch-timeout", 0, "Wall-clock budget per batch, 0 for none.")
	emitQuil     = flag.Bool("emit-quil", false, "Print the compiled program as Quil and exit.")
	verbose      = flag.Bool("verbose", false, "Log debug output.")
)

func main() {
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	if err := run(); err != nil {
		log.Error("qgrover failed", "error", err)
		if errors.Is(err, qgrover.ErrInvalidConfiguration) {
			flag.Usage()
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run() error {
	cfg, err := parseSweep()
	if err != nil {
		return err
	}

	settings, err := qgrover.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if flag.CommandLine.Changed("seed") {
		settings.Seed = *seed
	}
	if flag.CommandLine.Changed("batch-timeout") {
		settings.BatchTimeout = *batchTimeout
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	sweep, err := qgrover.NewSweep(cfg, settings, qgrover.NewDeviceRegistry())
	if err != nil {
		return err
	}

	if *emitQuil {
		fmt.Print(sweep.Program().Quil())
		return nil
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", *out, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rows, runErr := sweep.Run(ctx, qgrover.NewResultWriter(w))
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing %s: %w", *out, err)
	}
	if runErr != nil {
		return runErr
	}

	fmt.Println(summary(sweep, rows))
	log.Info("results written", "file", *out, "rows", len(rows))
	return nil
}

func parseSweep() (qgrover.SweepConfig, error) {
	k, err := qgrover.ParseBitString(*key)
	if err != nil {
		return qgrover.SweepConfig{}, fmt.Errorf("--key: %w", err)
	}
	t, err := qgrover.ParseBitString(*target)
	if err != nil {
		return qgrover.SweepConfig{}, fmt.Errorf("--target: %w", err)
	}
	c, err := qgrover.ParseBitString(*correct)
	if err != nil {
		return qgrover.SweepConfig{}, fmt.Errorf("--correct: %w", err)
	}

	cfg := qgrover.SweepConfig{
		Key:        k,
		Target:     t,
		Correct:    c,
		Offsets:    qgrover.RowOffsets(*offsets),
		NoiseStart: *noiseStart,
		NoiseEnd:   *noiseEnd,
		NoiseStep:  *noiseStep,
		Trials:     *trials,
		Devices:    *devices,
		Rounds:     *rounds,
	}
	return cfg, cfg.Validate()
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	failStyle   = cellStyle.Copy().Foreground(lipgloss.Color("9"))
)

func summary(sweep *qgrover.Sweep, rows []qgrover.AggregateStats) string {
	n := sweep.Program().Qubits()

	headers := []string{"device", "noise"}
	for q := 0; q < n; q++ {
		headers = append(headers, "q"+strconv.Itoa(q))
	}
	headers = append(headers, "joint")

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers(headers...)

	incomplete := make(map[int]bool)
	for i, r := range rows {
		line := []string{r.Device, strconv.FormatFloat(r.Level, 'g', 4, 64)}
		if !r.Complete {
			incomplete[i+1] = true
			for q := 0; q <= n; q++ {
				line = append(line, "-")
			}
			t.Row(line...)
			continue
		}
		for _, a := range r.QubitAccuracy {
			line = append(line, strconv.FormatFloat(a, 'f', 3, 64))
		}
		line = append(line, strconv.FormatFloat(r.JointAccuracy, 'f', 3, 64))
		t.Row(line...)
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == 0:
			return headerStyle
		case incomplete[row]:
			return failStyle
		default:
			return cellStyle
		}
	})

	title := fmt.Sprintf("marked %s, %d rounds, %d gates", sweep.Oracle().MarkedState(), sweep.Rounds(), sweep.Program().Depth())
	return lipgloss.JoinVertical(lipgloss.Left, headerStyle.Render(title), t.Render())
}
