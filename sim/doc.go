// Package sim provides the epidemic simulation engine: a well-mixed SIR model
// integrated independently for each age group and summed into population
// totals.
//
// # Reading Guide
//
// Start with these files to understand the pipeline:
//   - form.go, request.go: raw form values → validated SimulationRequest
//   - group.go: AgeGroup parameters, initial state and the SIR right-hand side
//   - integrator.go: step selection, time grid, RK4/Euler stepping, clamping
//   - aggregate.go: index-wise sum of per-group trajectories
//   - summary.go: peak/outcome statistics and the description text
//   - service.go: Service.Simulate, which runs the stages in order
//
// # Errors
//
// Input problems surface as *ValidationError and are reported before any
// integration work. Everything else returned by Service.Simulate wraps
// ErrInternal and indicates a defect (for example an *InconsistentGridError).
// Negative compartments produced by discretization error are floored to zero,
// logged, and kept in the run's trace (see sim/trace/).
//
// # Concurrency
//
// A Service holds only configuration. Each call builds its own request,
// integration and result, so calls may run in parallel without coordination.
package sim
