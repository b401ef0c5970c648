// Package sim orchestrates the outer time loop of the projection method: for
// each step a pressure-Poisson solve, the explicit momentum update, boundary
// enforcement, then an atomic commit of the next-step velocity.
package sim

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"navsim/internal/boundary"
	"navsim/internal/field"
	"navsim/internal/grid"
	"navsim/internal/metrics"
	"navsim/internal/momentum"
	"navsim/internal/poisson"
)

// ErrStepFailed indicates a non-finite velocity after a momentum update. The
// failing step's result is discarded; only a restart with different parameters
// (usually a smaller dt) recovers.
var ErrStepFailed = errors.New("sim: non-finite velocity detected, step discarded")

// Phase is the integrator's position in its step cycle.
type Phase int

const (
	Idle Phase = iota
	Stepping
)

// Outcome classifies how an Advance call ended.
type Outcome int

const (
	// OutcomeOK: all requested steps committed.
	OutcomeOK Outcome = iota
	// OutcomeStepFailed: a step produced NaN/Inf velocity and was discarded.
	OutcomeStepFailed
	// OutcomeCancelled: the caller's context fired between steps.
	OutcomeCancelled
	// OutcomePoissonStalled: strict mode stopped on a nonconverged pressure
	// solve.
	OutcomePoissonStalled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeStepFailed:
		return "step-failed"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomePoissonStalled:
		return "poisson-stalled"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// StepReport is the observable record of one time step.
type StepReport struct {
	StepIndex         int
	Time              float64
	PoissonIterations int
	PoissonConverged  bool
	PoissonResidual   float64
	MaxVelocity       float64
	KineticEnergy     float64
	Failed            bool
}

// RunResult collects the reports of one Advance call.
type RunResult struct {
	Reports []StepReport
	Outcome Outcome
	Metrics map[string]float64
}

// Options tune a session. Zero values select defaults.
type Options struct {
	PoissonTolerance     float64
	PoissonMaxIterations int
	// StrictPoisson aborts the run on a nonconverged pressure solve instead
	// of continuing with the best available field.
	StrictPoisson bool
	Logger        *zap.Logger
}

// Session owns one simulation: grid, fields, boundary policy and both solvers.
// Not safe for concurrent use; reporting consumes snapshots instead.
type Session struct {
	grid    *grid.Grid
	fields  *field.FieldSet
	policy  *boundary.Policy
	solver  *poisson.Solver
	stepper *momentum.Stepper
	metrics []metrics.Metric

	strictPoisson bool
	log           *zap.Logger

	phase Phase
	step  int
	time  float64
}

// New wires a session from its parts.
func New(g *grid.Grid, fs *field.FieldSet, pol *boundary.Policy, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		grid:          g,
		fields:        fs,
		policy:        pol,
		solver:        poisson.NewSolver(g, pol, opts.PoissonTolerance, opts.PoissonMaxIterations),
		stepper:       momentum.NewStepper(g, pol),
		strictPoisson: opts.StrictPoisson,
		log:           logger,
	}
}

// Initialize installs the initial condition (nil keeps the zero state) and
// enforces the boundary specs so the first step starts from admissible fields.
func (s *Session) Initialize(fn field.InitFunc) {
	s.fields.Initialize(fn)
	s.policy.ApplyVelocity(s.fields)
	s.policy.ApplyPressure(s.fields)
	for _, m := range s.metrics {
		m.Reset()
	}
	s.step = 0
	s.time = 0
}

// AddMetric registers a per-step observer.
func (s *Session) AddMetric(m metrics.Metric) { s.metrics = append(s.metrics, m) }

// Fields exposes the live state for the solvers' owner only; external
// consumers use Snapshot.
func (s *Session) Fields() *field.FieldSet { return s.fields }

// Grid returns the immutable domain description.
func (s *Session) Grid() *grid.Grid { return s.grid }

// Phase reports the integrator state.
func (s *Session) Phase() Phase { return s.phase }

// Step returns the number of committed steps.
func (s *Session) Step() int { return s.step }

// Snapshot deep-copies the committed fields for reporting and plotting.
func (s *Session) Snapshot() field.Snapshot { return s.fields.Snapshot() }

// Advance runs nSteps time steps. Cancellation is cooperative and checked
// between steps; the best available committed state survives in the session.
// The returned result is valid even when err is non-nil.
func (s *Session) Advance(ctx context.Context, nSteps int) (*RunResult, error) {
	result := &RunResult{
		Reports: make([]StepReport, 0, nSteps),
		Outcome: OutcomeOK,
		Metrics: make(map[string]float64),
	}

	var runErr error
	for n := 0; n < nSteps; n++ {
		select {
		case <-ctx.Done():
			result.Outcome = OutcomeCancelled
			runErr = ctx.Err()
		default:
		}
		if runErr != nil {
			break
		}

		report, err := s.advanceOne()
		result.Reports = append(result.Reports, report)
		if err != nil {
			if errors.Is(err, poisson.ErrNonconvergence) {
				s.log.Warn("pressure solve did not converge",
					zap.Int("step", report.StepIndex),
					zap.Int("iterations", report.PoissonIterations),
					zap.Float64("residual", report.PoissonResidual))
				if s.strictPoisson {
					result.Outcome = OutcomePoissonStalled
					runErr = err
				}
				continue
			}
			result.Outcome = OutcomeStepFailed
			runErr = err
			break
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, runErr
}

// advanceOne performs one full projection step. A poisson.ErrNonconvergence
// return still commits the step; ErrStepFailed discards it.
func (s *Session) advanceOne() (StepReport, error) {
	s.phase = Stepping
	defer func() { s.phase = Idle }()

	report := StepReport{StepIndex: s.step}

	pres, perr := s.solver.Solve(s.fields)
	report.PoissonIterations = pres.Iterations
	report.PoissonConverged = pres.Converged
	report.PoissonResidual = pres.Residual
	if perr != nil && !errors.Is(perr, poisson.ErrNonconvergence) {
		return report, perr
	}

	s.stepper.ComputeNext(s.fields)
	s.policy.ApplyVelocityFields(s.fields.NextU(), s.fields.NextV())

	if !s.fields.NextFinite() {
		report.Failed = true
		return report, fmt.Errorf("%w: step %d (dt=%g)", ErrStepFailed, s.step, s.fields.Dt)
	}

	s.fields.Commit()
	s.step++
	s.time += s.fields.Dt
	report.Time = s.time
	report.MaxVelocity = metrics.MaxVelocityMagnitude(s.fields)
	report.KineticEnergy = metrics.KineticEnergy(s.fields)

	for _, m := range s.metrics {
		m.Observe(s.fields, s.time)
	}

	s.log.Debug("step committed",
		zap.Int("step", report.StepIndex),
		zap.Int("poisson_iterations", report.PoissonIterations),
		zap.Bool("poisson_converged", report.PoissonConverged),
		zap.Float64("max_velocity", report.MaxVelocity))

	return report, perr
}
