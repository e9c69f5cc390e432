package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/outbreak-sim/outbreak-sim/sim"
	"github.com/outbreak-sim/outbreak-sim/sim/trace"
)

var (
	// CLI flags for the epidemic parameters, one entry per age group
	contactRates    []float64 // β per group
	recoveryRates   []float64 // γ per group
	initialInfected []float64 // I(0) per group
	populations     []float64 // N per group (empty = normalized 1.0)
	diseaseDuration float64   // Simulated horizon in days
	age             string    // Legacy pass-through field
	scenarioPath    string    // YAML scenario file (replaces the group flags)

	// CLI flags for the integrator
	method     string  // rk4 or euler
	maxStep    float64 // Upper bound on the integration step in days
	maxSteps   int     // Step budget per simulation
	traceLevel string  // Clamp recording level

	logLevel   string // Log verbosity level
	outputPath string // File for the JSON result (stdout if empty)
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "outbreak-sim",
	Short: "SIR epidemic simulator for age-structured populations",
}

// setLogLevel parses and applies a logrus level, exiting on typos.
func setLogLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", level)
	}
	logrus.SetLevel(lvl)
}

// runCmd executes one simulation using parameters from CLI flags or a scenario file
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one epidemic simulation",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel(logLevel)

		cfg := sim.ServiceConfig{
			Method:     sim.Method(method),
			MaxStep:    maxStep,
			MaxSteps:   maxSteps,
			TraceLevel: trace.TraceLevel(traceLevel),
		}

		var req *sim.SimulationRequest
		if scenarioPath != "" {
			for _, name := range []string{"contact-rate", "recovery-rate", "initial-infected", "population", "duration"} {
				if cmd.Flags().Changed(name) {
					logrus.Fatalf("--%s cannot be combined with --scenario", name)
				}
			}
			sc, err := LoadScenario(scenarioPath)
			if err != nil {
				logrus.Fatalf("Failed to load scenario: %v", err)
			}
			// Scenario integration settings apply unless the flag was set explicitly.
			sc.Integration.applyTo(&cfg, cmd.Flags().Changed)
			req = sc.Request()
		} else {
			groups, err := groupsFromFlags(contactRates, recoveryRates, initialInfected, populations)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			req = &sim.SimulationRequest{AgeGroups: groups, DiseaseDuration: diseaseDuration}
		}
		if cmd.Flags().Changed("age") {
			req.Age = &age
		}

		svc, err := sim.NewService(cfg)
		if err != nil {
			logrus.Fatalf("Invalid integrator configuration: %v", err)
		}

		logrus.Infof("Starting simulation with %d age group(s), horizon=%gdays, method=%s",
			len(req.AgeGroups), req.DiseaseDuration, cfg.Method)
		startTime := time.Now()

		res, err := svc.Simulate(req)
		if err != nil {
			if sim.IsValidationError(err) {
				logrus.Fatalf("Rejected: %v", err)
			}
			logrus.Fatalf("Simulation failed: %v", err)
		}

		if err := saveResult(res, outputPath); err != nil {
			logrus.Fatalf("Failed to write result: %v", err)
		}
		printSummary(os.Stdout, res, time.Since(startTime))

		logrus.Info("Simulation complete.")
	},
}

// groupsFromFlags zips the per-group flag slices into age groups.
func groupsFromFlags(beta, gamma, infected, pop []float64) ([]sim.AgeGroup, error) {
	n := len(beta)
	if n == 0 {
		return nil, fmt.Errorf("--contact-rate is required")
	}
	if len(gamma) != n || len(infected) != n {
		return nil, fmt.Errorf("--contact-rate, --recovery-rate and --initial-infected need the same number of values, got %d, %d, %d",
			n, len(gamma), len(infected))
	}
	if len(pop) != 0 && len(pop) != n {
		return nil, fmt.Errorf("--population needs %d values, got %d", n, len(pop))
	}
	groups := make([]sim.AgeGroup, n)
	for i := range groups {
		groups[i] = sim.NewAgeGroup(beta[i], gamma[i], infected[i])
		if len(pop) > 0 {
			groups[i].Population = pop[i]
		}
	}
	return groups, nil
}

// saveResult writes the JSON payload to path, or to stdout when path is empty.
func saveResult(res *sim.SimulationResult, path string) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	if path == "" {
		_, err = fmt.Println(string(data))
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	logrus.Infof("Result written to %s", path)
	return nil
}

// printSummary displays the headline statistics of a finished run.
func printSummary(w io.Writer, res *sim.SimulationResult, elapsed time.Duration) {
	s := res.Summary
	fmt.Fprintln(w, "=== Simulation Summary ===")
	fmt.Fprintf(w, "Method               : %s (step %.4g days)\n", res.Method, res.Step)
	fmt.Fprintf(w, "Time points          : %d\n", len(res.Time))
	fmt.Fprintf(w, "Peak infected        : %.6g on day %.2f\n", s.PeakInfected, s.PeakDay)
	fmt.Fprintf(w, "Final recovered      : %.6g (attack rate %.2f%%)\n", s.FinalRecovered, 100*s.AttackRate)
	ts := trace.Summarize(res.Trace)
	if ts.TotalClamps > 0 {
		fmt.Fprintf(w, "Clamped values       : %d in %d group(s), max |value| %.3g\n",
			ts.TotalClamps, ts.GroupsAffected, ts.MaxMagnitude)
	}
	fmt.Fprintf(w, "Wall time            : %s\n", elapsed.Round(time.Microsecond))
	fmt.Fprintln(w, res.Description)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// Epidemic parameters
	runCmd.Flags().Float64SliceVar(&contactRates, "contact-rate", nil, "Comma-separated contact rates (β), one per age group")
	runCmd.Flags().Float64SliceVar(&recoveryRates, "recovery-rate", nil, "Comma-separated recovery rates (γ), one per age group")
	runCmd.Flags().Float64SliceVar(&initialInfected, "initial-infected", nil, "Comma-separated initially infected counts or fractions, one per age group")
	runCmd.Flags().Float64SliceVar(&populations, "population", nil, "Comma-separated group populations (default 1.0 each, making initial infected a fraction)")
	runCmd.Flags().Float64Var(&diseaseDuration, "duration", 160, "Simulated horizon in days")
	runCmd.Flags().StringVar(&age, "age", "", "Legacy age field, echoed in the result")
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "YAML scenario file (replaces the parameter flags)")

	// Integrator configs
	runCmd.Flags().StringVar(&method, "method", string(sim.MethodRK4), "Integration method (rk4, euler)")
	runCmd.Flags().Float64Var(&maxStep, "max-step", sim.DefaultMaxStep, "Upper bound on the integration step in days")
	runCmd.Flags().IntVar(&maxSteps, "max-steps", sim.DefaultMaxSteps, "Maximum number of integration steps per simulation")
	runCmd.Flags().StringVar(&traceLevel, "trace-level", string(trace.TraceLevelClamps), "Clamp trace level (none, clamps)")

	runCmd.Flags().StringVar(&outputPath, "output", "", "Write the JSON result to this file instead of stdout")

	// Attach `run` and `serve` as subcommands to `root`
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}
