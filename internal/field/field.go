// Package field owns the mutable numeric state of a simulation: the velocity
// components and pressure over a grid, double-buffered so that stencil updates
// always read a stable old snapshot and write a separate new buffer.
package field

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"navsim/internal/grid"
)

// ErrDimensionMismatch indicates an externally supplied array whose shape does
// not match the grid.
var ErrDimensionMismatch = errors.New("field: dimension mismatch")

// Scalar is a 2D scalar field stored row-major as data[i*ny+j] for column i,
// row j.
type Scalar struct {
	Nx, Ny int
	Data   []float64
}

// NewScalar allocates a zeroed field shaped after g.
func NewScalar(g *grid.Grid) *Scalar {
	return &Scalar{Nx: g.Nx, Ny: g.Ny, Data: make([]float64, g.NumCells())}
}

// At reads the value at column i, row j.
func (s *Scalar) At(i, j int) float64 { return s.Data[i*s.Ny+j] }

// Set writes the value at column i, row j.
func (s *Scalar) Set(i, j int, v float64) { s.Data[i*s.Ny+j] = v }

// Fill sets every point to v.
func (s *Scalar) Fill(v float64) {
	for i := range s.Data {
		s.Data[i] = v
	}
}

// Clone returns a deep copy.
func (s *Scalar) Clone() *Scalar {
	c := &Scalar{Nx: s.Nx, Ny: s.Ny, Data: make([]float64, len(s.Data))}
	copy(c.Data, s.Data)
	return c
}

// CopyFrom overwrites s with the contents of o. Shapes must match; a mismatch
// is a programming error.
func (s *Scalar) CopyFrom(o *Scalar) {
	if s.Nx != o.Nx || s.Ny != o.Ny {
		panic(fmt.Sprintf("field: copy between %dx%d and %dx%d fields", s.Nx, s.Ny, o.Nx, o.Ny))
	}
	copy(s.Data, o.Data)
}

// MaxAbs returns the infinity norm of the field.
func (s *Scalar) MaxAbs() float64 { return floats.Norm(s.Data, math.Inf(1)) }

// IsFinite reports whether every point is free of NaN and Inf.
func (s *Scalar) IsFinite() bool {
	for _, v := range s.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// InitFunc evaluates an initial condition at a physical point and returns the
// velocity components and pressure there.
type InitFunc func(x, y float64) (u, v, p float64)

// FieldSet bundles the velocity and pressure fields with the fluid parameters.
// U, V and P are the committed time-level-n state. The next-step velocity
// buffers are written by the momentum stepper and made visible only by Commit;
// no stencil update ever writes the buffer it reads.
type FieldSet struct {
	Grid *grid.Grid

	U, V, P *Scalar

	nextU, nextV *Scalar

	Rho float64 // density
	Nu  float64 // kinematic viscosity
	Dt  float64 // time step
}

// New constructs a zero-initialized FieldSet over g. Density and dt must be
// positive, viscosity non-negative.
func New(g *grid.Grid, rho, nu, dt float64) (*FieldSet, error) {
	if rho <= 0 {
		return nil, fmt.Errorf("field: density must be positive, got %g", rho)
	}
	if nu < 0 {
		return nil, fmt.Errorf("field: viscosity must be non-negative, got %g", nu)
	}
	if dt <= 0 {
		return nil, fmt.Errorf("field: dt must be positive, got %g", dt)
	}
	return &FieldSet{
		Grid:  g,
		U:     NewScalar(g),
		V:     NewScalar(g),
		P:     NewScalar(g),
		nextU: NewScalar(g),
		nextV: NewScalar(g),
		Rho:   rho,
		Nu:    nu,
		Dt:    dt,
	}, nil
}

// Initialize evaluates fn at every grid point. A nil fn leaves the zero state.
func (fs *FieldSet) Initialize(fn InitFunc) {
	if fn == nil {
		return
	}
	g := fs.Grid
	for i := 0; i < g.Nx; i++ {
		for j := 0; j < g.Ny; j++ {
			u, v, p := fn(g.X(i), g.Y(j))
			fs.U.Set(i, j, u)
			fs.V.Set(i, j, v)
			fs.P.Set(i, j, p)
		}
	}
}

// SetVelocity installs externally supplied velocity arrays, flat-indexed the
// same way as Scalar data. Returns ErrDimensionMismatch on a shape mismatch.
func (fs *FieldSet) SetVelocity(u, v []float64) error {
	n := fs.Grid.NumCells()
	if len(u) != n || len(v) != n {
		return fmt.Errorf("%w: want %d values, got u=%d v=%d", ErrDimensionMismatch, n, len(u), len(v))
	}
	copy(fs.U.Data, u)
	copy(fs.V.Data, v)
	return nil
}

// SetPressure installs an externally supplied pressure array.
func (fs *FieldSet) SetPressure(p []float64) error {
	n := fs.Grid.NumCells()
	if len(p) != n {
		return fmt.Errorf("%w: want %d values, got %d", ErrDimensionMismatch, n, len(p))
	}
	copy(fs.P.Data, p)
	return nil
}

// NextU returns the write buffer for the next-step u component.
func (fs *FieldSet) NextU() *Scalar { return fs.nextU }

// NextV returns the write buffer for the next-step v component.
func (fs *FieldSet) NextV() *Scalar { return fs.nextV }

// NextFinite reports whether the next-step velocity buffers are NaN/Inf free.
func (fs *FieldSet) NextFinite() bool {
	return fs.nextU.IsFinite() && fs.nextV.IsFinite()
}

// Commit atomically swaps the next-step velocity buffers into U and V. The
// previous committed state becomes the scratch for the following step.
func (fs *FieldSet) Commit() {
	fs.U, fs.nextU = fs.nextU, fs.U
	fs.V, fs.nextV = fs.nextV, fs.V
}

// Snapshot is an immutable copy of the committed state, safe to hand to
// reporting and plotting without aliasing the live fields.
type Snapshot struct {
	Nx, Ny  int
	Dx, Dy  float64
	U, V, P []float64
}

// Snapshot deep-copies the committed fields.
func (fs *FieldSet) Snapshot() Snapshot {
	return Snapshot{
		Nx: fs.Grid.Nx,
		Ny: fs.Grid.Ny,
		Dx: fs.Grid.Dx,
		Dy: fs.Grid.Dy,
		U:  append([]float64(nil), fs.U.Data...),
		V:  append([]float64(nil), fs.V.Data...),
		P:  append([]float64(nil), fs.P.Data...),
	}
}

// At reads a snapshot field value at column i, row j.
func (s Snapshot) At(f []float64, i, j int) float64 { return f[i*s.Ny+j] }
