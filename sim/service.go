package sim

import (
	"fmt"
	"math"
	"net/url"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/outbreak-sim/outbreak-sim/sim/trace"
)

// DefaultMaxSteps bounds the integration work of a single request.
const DefaultMaxSteps = 1_000_000

// SimulationResult is the response payload. Every series is aligned
// index-for-index with Time and holds the sum over all age groups.
type SimulationResult struct {
	Time        []float64 `json:"time"`
	Susceptible []float64 `json:"susceptible"`
	Infected    []float64 `json:"infected"`
	Recovered   []float64 `json:"recovered"`
	Description string    `json:"description"`
	Age         *string   `json:"age,omitempty"`

	// Run metadata, not part of the wire payload.
	RunID   string                 `json:"-"`
	Method  Method                 `json:"-"`
	Step    float64                `json:"-"`
	Groups  []Trajectory           `json:"-"`
	Summary Summary                `json:"-"`
	Trace   *trace.SimulationTrace `json:"-"`
}

// ServiceConfig groups the knobs of a Service.
type ServiceConfig struct {
	Method     Method           // integration scheme ("" = rk4)
	MaxStep    float64          // upper bound on Δt in days (0 = DefaultMaxStep)
	MaxSteps   int              // step budget per request (0 = DefaultMaxSteps)
	TraceLevel trace.TraceLevel // clamp recording ("" = clamps)
}

// Service runs validated simulations. It keeps no per-request state, so one
// Service may serve any number of concurrent callers.
type Service struct {
	integrator *Integrator
	maxSteps   int
	traceLevel trace.TraceLevel
}

// NewService validates cfg and builds a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	integrator, err := NewIntegrator(IntegratorConfig{Method: cfg.Method, MaxStep: cfg.MaxStep})
	if err != nil {
		return nil, err
	}
	if cfg.MaxSteps < 0 {
		return nil, fmt.Errorf("max steps must be non-negative, got %d", cfg.MaxSteps)
	}
	if !trace.IsValidTraceLevel(string(cfg.TraceLevel)) {
		return nil, fmt.Errorf("unknown trace level %q; valid: none, clamps", cfg.TraceLevel)
	}
	s := &Service{
		integrator: integrator,
		maxSteps:   cfg.MaxSteps,
		traceLevel: cfg.TraceLevel,
	}
	if s.maxSteps == 0 {
		s.maxSteps = DefaultMaxSteps
	}
	if s.traceLevel == "" {
		s.traceLevel = trace.TraceLevelClamps
	}
	return s, nil
}

// SimulateForm parses raw form values and runs the simulation. ParseForm
// already validates, so the request is not checked a second time.
func (s *Service) SimulateForm(values url.Values) (*SimulationResult, error) {
	req, err := ParseForm(values)
	if err != nil {
		return nil, err
	}
	return s.run(req)
}

// Simulate validates req, integrates every group, aggregates the totals and
// attaches the description. Input problems are returned as *ValidationError
// before any integration work; every other failure wraps ErrInternal.
func (s *Service) Simulate(req *SimulationRequest) (*SimulationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.run(req)
}

// run executes an already validated request.
func (s *Service) run(req *SimulationRequest) (*SimulationResult, error) {
	maxStep := s.integrator.ChooseStep(req.AgeGroups)
	steps := StepCount(req.DiseaseDuration, maxStep)
	if steps > s.maxSteps {
		if steps == math.MaxInt {
			return nil, newValidationError(FieldDiseaseDuration,
				"horizon of %g days with steps of at most %g days exceeds the budget of %d steps",
				req.DiseaseDuration, maxStep, s.maxSteps)
		}
		return nil, newValidationError(FieldDiseaseDuration,
			"horizon of %g days needs %d steps of at most %g days, budget is %d",
			req.DiseaseDuration, steps, maxStep, s.maxSteps)
	}

	runID := uuid.NewString()
	log := logrus.WithField("run", runID)
	log.Debugf("integrating %d group(s) over %g days: method=%s, steps=%d, max step=%g",
		len(req.AgeGroups), req.DiseaseDuration, s.integrator.Method(), steps, maxStep)

	integration, err := s.integrator.Integrate(req)
	if err != nil {
		return nil, fmt.Errorf("%w: integrating: %w", ErrInternal, err)
	}
	res, err := Aggregate(integration.Time, integration.Groups)
	if err != nil {
		return nil, fmt.Errorf("%w: aggregating: %w", ErrInternal, err)
	}

	tr := trace.NewSimulationTrace(trace.TraceConfig{Level: s.traceLevel})
	for _, c := range integration.Clamps {
		tr.RecordClamp(c)
	}
	if n := len(integration.Clamps); n > 0 {
		log.Warnf("%d compartment value(s) clamped to zero during integration", n)
	}

	res.Summary = Summarize(res)
	res.Description = Describe(res.Summary)
	res.Age = req.Age
	res.RunID = runID
	res.Method = s.integrator.Method()
	res.Step = integration.Step
	res.Groups = integration.Groups
	res.Trace = tr

	log.Infof("simulation complete: %d points, peak %.4g on day %s",
		len(res.Time), res.Summary.PeakInfected, formatDay(res.Summary.PeakDay))
	return res, nil
}
