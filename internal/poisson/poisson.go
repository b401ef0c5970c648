// Package poisson iterates the pressure-Poisson equation to a quasi-steady
// solution for one outer time level.
//
// The sweep is Jacobi, not Gauss-Seidel: every update reads only the previous
// iterate, so the result is deterministic regardless of sweep order and the
// point updates parallelize without races. The two iteration buffers ping-pong;
// nothing is updated in place.
package poisson

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"navsim/internal/boundary"
	"navsim/internal/field"
	"navsim/internal/grid"
)

const (
	// DefaultTolerance is the relative update-delta threshold.
	DefaultTolerance = 1e-3
	// DefaultMaxIterations caps one solve.
	DefaultMaxIterations = 200

	// Columns below this count are swept serially.
	minParallelColumns = 16
)

// ErrNonconvergence reports an exhausted iteration cap. The pressure field
// still holds the best available iterate; the caller decides whether that is
// fatal.
var ErrNonconvergence = errors.New("poisson: iteration cap reached before convergence")

// Result describes one solve.
type Result struct {
	Iterations int
	Converged  bool
	// Residual is the final relative update delta ||pNew-pOld|| / ||pNew||
	// over the updated points.
	Residual float64
	// History holds the absolute update-delta norm per iteration.
	History []float64
}

// Solver holds the iteration parameters and scratch buffers for one session.
// Not safe for concurrent use.
type Solver struct {
	Tolerance     float64
	MaxIterations int

	grid   *grid.Grid
	policy *boundary.Policy

	b       *field.Scalar // source term, rebuilt each solve
	scratch *field.Scalar // second iteration buffer
	delta   []float64     // per-point update deltas for norm computation
	iterate []float64     // new-iterate values over the same points
}

// NewSolver configures a solver for one grid and boundary policy. Zero
// tolerance or cap select the defaults.
func NewSolver(g *grid.Grid, pol *boundary.Policy, tolerance float64, maxIterations int) *Solver {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Solver{
		Tolerance:     tolerance,
		MaxIterations: maxIterations,
		grid:          g,
		policy:        pol,
		b:             &field.Scalar{Nx: g.Nx, Ny: g.Ny, Data: make([]float64, g.NumCells())},
		scratch:       &field.Scalar{Nx: g.Nx, Ny: g.Ny, Data: make([]float64, g.NumCells())},
	}
}

// Solve relaxes fs.P toward the Poisson solution for the current velocity
// field, starting from the pressure already in fs (the previous step's
// converged field warm-starts the iteration). On cap exhaustion the returned
// error wraps ErrNonconvergence and fs.P holds the last iterate.
func (s *Solver) Solve(fs *field.FieldSet) (Result, error) {
	if fs.Grid.Nx != s.grid.Nx || fs.Grid.Ny != s.grid.Ny {
		panic(fmt.Sprintf("poisson: solver for %dx%d applied to %dx%d fields",
			s.grid.Nx, s.grid.Ny, fs.Grid.Nx, fs.Grid.Ny))
	}

	s.buildSource(fs)

	iLo, jLo := s.policy.XStart(), s.policy.YStart()
	iHi, jHi := s.grid.Nx-1, s.grid.Ny-1
	points := (iHi - iLo) * (jHi - jLo)
	if cap(s.delta) < points {
		s.delta = make([]float64, points)
		s.iterate = make([]float64, points)
	}
	s.delta = s.delta[:points]
	s.iterate = s.iterate[:points]

	cur, next := fs.P, s.scratch
	s.policy.ApplyPressureField(cur)

	res := Result{History: make([]float64, 0, s.MaxIterations)}
	for iter := 1; iter <= s.MaxIterations; iter++ {
		s.sweep(cur, next, iLo, iHi, jLo, jHi)
		s.policy.ApplyPressureField(next)

		k := 0
		for i := iLo; i < iHi; i++ {
			for j := jLo; j < jHi; j++ {
				nv := next.At(i, j)
				s.delta[k] = nv - cur.At(i, j)
				s.iterate[k] = nv
				k++
			}
		}
		deltaNorm := floats.Norm(s.delta, 2)
		iterNorm := floats.Norm(s.iterate, 2)

		cur, next = next, cur
		res.Iterations = iter
		res.History = append(res.History, deltaNorm)

		if iterNorm > 0 {
			res.Residual = deltaNorm / iterNorm
		} else {
			res.Residual = deltaNorm
		}
		if deltaNorm == 0 || res.Residual <= s.Tolerance {
			res.Converged = true
			break
		}
	}

	if cur != fs.P {
		fs.P.CopyFrom(cur)
	}

	if !res.Converged {
		return res, fmt.Errorf("%w: residual %.3e after %d iterations (tolerance %.3e)",
			ErrNonconvergence, res.Residual, res.Iterations, s.Tolerance)
	}
	return res, nil
}

// sweep writes one Jacobi iteration of cur into next over the update range.
func (s *Solver) sweep(cur, next *field.Scalar, iLo, iHi, jLo, jHi int) {
	nx, ny := s.grid.Nx, s.grid.Ny
	pol := s.policy
	field.ParallelFor(iHi-iLo, minParallelColumns, func(start, end int) {
		for i := iLo + start; i < iLo+end; i++ {
			for j := jLo; j < jHi; j++ {
				sum := cur.At(pol.RightOf(i, nx), j) +
					cur.At(pol.LeftOf(i, nx), j) +
					cur.At(i, pol.Above(j, ny)) +
					cur.At(i, pol.Below(j, ny))
				next.Set(i, j, 0.25*sum-s.b.At(i, j))
			}
		}
	})
}

// buildSource evaluates the velocity-divergence source term once per solve.
// The derivation assumes a uniform mesh, dx == dy.
func (s *Solver) buildSource(fs *field.FieldSet) {
	g, pol := s.grid, s.policy
	nx, ny := g.Nx, g.Ny
	dx, dt, rho := g.Dx, fs.Dt, fs.Rho
	u, v := fs.U, fs.V

	s.b.Fill(0)
	iLo, jLo := pol.XStart(), pol.YStart()
	coef := rho * dx * dx / 16
	field.ParallelFor(nx-1-iLo, minParallelColumns, func(start, end int) {
		for i := iLo + start; i < iLo+end; i++ {
			for j := jLo; j < ny-1; j++ {
				ir, il := pol.RightOf(i, nx), pol.LeftOf(i, nx)
				ja, jb := pol.Above(j, ny), pol.Below(j, ny)

				dux := u.At(ir, j) - u.At(il, j)
				dvy := v.At(i, ja) - v.At(i, jb)
				duy := u.At(i, ja) - u.At(i, jb)
				dvx := v.At(ir, j) - v.At(il, j)

				s.b.Set(i, j, coef*(2/dt*(dux+dvy)-
					2/dx*duy*dvx-
					dux*dux/dx-
					dvy*dvy/dx))
			}
		}
	})
}
