package main

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/lokathor/gbcore/pkg/cart"
	"github.com/lokathor/gbcore/pkg/mmio"
	"github.com/lokathor/gbcore/pkg/system"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gbcore",
		Short: "Cycle-accurate DMG core — run, inspect, and benchmark Game Boy ROMs",
	}

	// run command
	var runCycles int64
	var serialLog bool
	var buttons []string

	runCmd := &cobra.Command{
		Use:   "run <rom>",
		Short: "Run a ROM for a fixed number of M-cycles and print a summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSystem(args[0])
			if err != nil {
				return err
			}
			if serialLog {
				s.SetSerialLogging(true)
			}
			if len(buttons) > 0 {
				bs, err := parseButtons(buttons)
				if err != nil {
					return err
				}
				s.SetButtonState(bs)
			}

			fmt.Printf("gbcore run %s\n", args[0])
			fmt.Printf("  M-cycles: %d\n", runCycles)
			runMCycles(s, runCycles)

			fmt.Printf("\nPC=%#06x\n", s.PC())
			if serialLog {
				fmt.Printf("serial: %q\n", string(s.SerialLog()))
			}
			return nil
		},
	}
	runCmd.Flags().Int64Var(&runCycles, "cycles", 20_000_000, "Number of M-cycles to tick")
	runCmd.Flags().BoolVar(&serialLog, "serial-log", false, "Enable the outbound serial byte log")
	runCmd.Flags().StringArrayVar(&buttons, "button", nil, "Button to hold for the whole run (repeatable): a,b,select,start,up,down,left,right")

	// dump-serial command
	var dumpCycles int64
	var output string

	dumpCmd := &cobra.Command{
		Use:   "dump-serial <rom>",
		Short: "Run a ROM with serial logging forced on and print the decoded log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSystem(args[0])
			if err != nil {
				return err
			}
			s.SetSerialLogging(true)
			runMCycles(s, dumpCycles)
			log := string(s.SerialLog())

			if output == "" {
				fmt.Println(log)
				return nil
			}
			report := struct {
				Serial  string `json:"serial"`
				Cycles  int64  `json:"cycles"`
				FinalPC uint16 `json:"final_pc"`
			}{Serial: log, Cycles: dumpCycles, FinalPC: s.PC()}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := json.NewEncoder(f).Encode(report); err != nil {
				return err
			}
			fmt.Printf("Written to %s\n", output)
			return nil
		},
	}
	dumpCmd.Flags().Int64Var(&dumpCycles, "cycles", 20_000_000, "Number of M-cycles to tick")
	dumpCmd.Flags().StringVar(&output, "output", "", "Write a JSON run report to this file instead of stdout")

	// bench command
	var benchCycles int64
	var numWorkers int

	benchCmd := &cobra.Command{
		Use:   "bench <rom> [rom...]",
		Short: "Run several ROMs concurrently and report throughput",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(args, benchCycles, numWorkers)
		},
	}
	benchCmd.Flags().Int64Var(&benchCycles, "cycles", 1_000_000, "Number of M-cycles per ROM")
	benchCmd.Flags().IntVar(&numWorkers, "workers", 0, "Number of concurrent workers (0 = NumCPU)")

	rootCmd.AddCommand(runCmd, dumpCmd, benchCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadSystem(path string) (*system.System, error) {
	rom, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rom: %w", err)
	}
	c, err := cart.New(rom, nil)
	if err != nil {
		return nil, fmt.Errorf("loading cart: %w", err)
	}
	return system.New(c), nil
}

// runMCycles ticks the system dot-by-dot until n M-cycles have elapsed.
func runMCycles(s *system.System, n int64) {
	for i := int64(0); i < n*4; i++ {
		s.Tick()
	}
}

func parseButtons(names []string) (mmio.ButtonState, error) {
	bs := mmio.ReleasedButtonState
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "a":
			bs = bs.WithA(true)
		case "b":
			bs = bs.WithB(true)
		case "select":
			bs = bs.WithSelect(true)
		case "start":
			bs = bs.WithStart(true)
		case "up":
			bs = bs.WithUp(true)
		case "down":
			bs = bs.WithDown(true)
		case "left":
			bs = bs.WithLeft(true)
		case "right":
			bs = bs.WithRight(true)
		default:
			return 0, fmt.Errorf("unknown --button value %q", name)
		}
	}
	return bs, nil
}

// runBench fans a fixed M-cycle budget out across the given ROMs, one
// goroutine per worker slot, and reports aggregate throughput — modeled on
// the superoptimizer's WorkerPool progress reporter.
func runBench(roms []string, cycles int64, numWorkers int) error {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(roms) {
		numWorkers = len(roms)
	}

	ch := make(chan string, len(roms))
	for _, r := range roms {
		ch <- r
	}
	close(ch)

	var completed atomic.Int64
	var totalMCycles atomic.Int64
	errCh := make(chan error, len(roms))
	start := time.Now()

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				elapsed := time.Since(start).Seconds()
				rate := float64(totalMCycles.Load()) / elapsed
				fmt.Printf("  [%s] %d/%d roms | %.1fM M-cycles/s\n",
					time.Since(start).Round(time.Second), completed.Load(), len(roms), rate/1e6)
			}
		}
	}()

	workerResults := make(chan struct{}, numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func() {
			for rom := range ch {
				s, err := loadSystem(rom)
				if err != nil {
					errCh <- err
					completed.Add(1)
					continue
				}
				runMCycles(s, cycles)
				totalMCycles.Add(cycles)
				completed.Add(1)
			}
			workerResults <- struct{}{}
		}()
	}
	for i := 0; i < numWorkers; i++ {
		<-workerResults
	}
	close(done)
	close(errCh)

	elapsed := time.Since(start)
	rate := float64(totalMCycles.Load()) / elapsed.Seconds()
	fmt.Printf("\n%d roms, %d total M-cycles in %s (%.1fM M-cycles/s avg)\n",
		len(roms), totalMCycles.Load(), elapsed.Round(time.Millisecond), rate/1e6)

	for err := range errCh {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	return nil
}
