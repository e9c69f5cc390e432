package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	sim "github.com/outbreak-sim/outbreak-sim/sim"
	"github.com/outbreak-sim/outbreak-sim/sim/trace"
)

// Scenario is a complete simulation input stored as YAML.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Scenario struct {
	Version         string          `yaml:"version"`
	DiseaseDuration float64         `yaml:"disease_duration"`
	Age             *string         `yaml:"age,omitempty"`
	AgeGroups       []ScenarioGroup `yaml:"age_groups"`
	Integration     IntegrationSpec `yaml:"integration"`
}

// ScenarioGroup describes one age group. Population nil means normalized 1.0.
type ScenarioGroup struct {
	Name            string   `yaml:"name"`
	ContactRate     float64  `yaml:"contact_rate"`
	RecoveryRate    float64  `yaml:"recovery_rate"`
	InitialInfected float64  `yaml:"initial_infected"`
	Population      *float64 `yaml:"population,omitempty"`
}

// IntegrationSpec holds optional integrator settings. Zero values mean "not set".
type IntegrationSpec struct {
	Method     string  `yaml:"method"`
	MaxStep    float64 `yaml:"max_step"`
	MaxSteps   int     `yaml:"max_steps"`
	TraceLevel string  `yaml:"trace_level"`
}

// LoadScenario reads and parses a YAML scenario file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if sc.Version != "" && sc.Version != "1" {
		return nil, fmt.Errorf("unsupported scenario version %q", sc.Version)
	}
	if !sim.IsValidMethod(sc.Integration.Method) {
		return nil, fmt.Errorf("unknown integration method %q; valid: rk4, euler", sc.Integration.Method)
	}
	if !trace.IsValidTraceLevel(sc.Integration.TraceLevel) {
		return nil, fmt.Errorf("unknown trace level %q; valid: none, clamps", sc.Integration.TraceLevel)
	}
	return &sc, nil
}

// Request converts the scenario into a simulation request. Range checks are
// left to SimulationRequest.Validate.
func (s *Scenario) Request() *sim.SimulationRequest {
	groups := make([]sim.AgeGroup, len(s.AgeGroups))
	for i, g := range s.AgeGroups {
		groups[i] = sim.AgeGroup{
			Name:            g.Name,
			ContactRate:     g.ContactRate,
			RecoveryRate:    g.RecoveryRate,
			InitialInfected: g.InitialInfected,
			Population:      sim.DefaultPopulation,
		}
		if g.Population != nil {
			groups[i].Population = *g.Population
		}
	}
	return &sim.SimulationRequest{
		AgeGroups:       groups,
		DiseaseDuration: s.DiseaseDuration,
		Age:             s.Age,
	}
}

// applyTo copies the settings present in the scenario into cfg, skipping any
// whose CLI flag was set explicitly.
func (is IntegrationSpec) applyTo(cfg *sim.ServiceConfig, flagChanged func(string) bool) {
	if is.Method != "" && !flagChanged("method") {
		cfg.Method = sim.Method(is.Method)
	}
	if is.MaxStep != 0 && !flagChanged("max-step") {
		cfg.MaxStep = is.MaxStep
	}
	if is.MaxSteps != 0 && !flagChanged("max-steps") {
		cfg.MaxSteps = is.MaxSteps
	}
	if is.TraceLevel != "" && !flagChanged("trace-level") {
		cfg.TraceLevel = trace.TraceLevel(is.TraceLevel)
	}
}
