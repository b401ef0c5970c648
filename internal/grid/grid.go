// Package grid describes the discretized simulation domain.
//
// A [Grid] is an immutable value: point counts, physical lengths and the
// derived spacings. Every other package reads it, nothing mutates it.
package grid

import (
	"errors"
	"fmt"
)

// ErrInvalidGrid indicates unusable construction parameters.
var ErrInvalidGrid = errors.New("grid: invalid grid parameters")

// Grid is a uniform 2D mesh with nx points along x and ny points along y,
// spanning [0, Lx] x [0, Ly]. Interior stencils need at least one interior
// point per axis, so nx and ny are both at least 3.
type Grid struct {
	Nx, Ny int
	Lx, Ly float64
	Dx, Dy float64
}

// New derives spacings dx = lx/(nx-1), dy = ly/(ny-1) from point counts and
// domain lengths. It returns ErrInvalidGrid when nx < 3, ny < 3, or a length
// is not positive.
func New(nx, ny int, lx, ly float64) (*Grid, error) {
	if nx < 3 || ny < 3 {
		return nil, fmt.Errorf("%w: need at least 3 points per axis, got %dx%d", ErrInvalidGrid, nx, ny)
	}
	if lx <= 0 || ly <= 0 {
		return nil, fmt.Errorf("%w: domain lengths must be positive, got %gx%g", ErrInvalidGrid, lx, ly)
	}
	return &Grid{
		Nx: nx,
		Ny: ny,
		Lx: lx,
		Ly: ly,
		Dx: lx / float64(nx-1),
		Dy: ly / float64(ny-1),
	}, nil
}

// X returns the physical x coordinate of column i.
func (g *Grid) X(i int) float64 { return float64(i) * g.Dx }

// Y returns the physical y coordinate of row j.
func (g *Grid) Y(j int) float64 { return float64(j) * g.Dy }

// NumCells is the total point count nx*ny.
func (g *Grid) NumCells() int { return g.Nx * g.Ny }

// Interior reports whether (i, j) is off the domain boundary.
func (g *Grid) Interior(i, j int) bool {
	return i > 0 && i < g.Nx-1 && j > 0 && j < g.Ny-1
}
