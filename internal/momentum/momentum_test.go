package momentum

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"navsim/internal/boundary"
	"navsim/internal/field"
	"navsim/internal/grid"
)

func buildCase(t *testing.T, nx, ny int, kind boundary.Kind, rho, nu, dt float64) (*field.FieldSet, *boundary.Policy) {
	t.Helper()
	g, err := grid.New(nx, ny, 1.0, 1.0)
	require.NoError(t, err)
	s := boundary.Spec{Kind: kind}
	pol, err := boundary.NewPolicy(s, s, s, s)
	require.NoError(t, err)
	fs, err := field.New(g, rho, nu, dt)
	require.NoError(t, err)
	return fs, pol
}

// A uniform periodic flow is an exact steady state: every difference in the
// update vanishes and the next buffers reproduce the current field.
func TestUniformPeriodicFlowIsSteady(t *testing.T) {
	fs, pol := buildCase(t, 9, 9, boundary.Periodic, 1.0, 0.1, 0.01)
	fs.U.Fill(1.5)
	fs.V.Fill(-0.75)

	NewStepper(fs.Grid, pol).ComputeNext(fs)

	for k := range fs.U.Data {
		assert.Equal(t, 1.5, fs.NextU().Data[k], "u cell %d", k)
		assert.Equal(t, -0.75, fs.NextV().Data[k], "v cell %d", k)
	}
}

// ComputeNext must not touch the committed field; updates become visible only
// through Commit.
func TestCommittedFieldUntouchedUntilCommit(t *testing.T) {
	fs, pol := buildCase(t, 9, 9, boundary.NoSlip, 1.0, 0.1, 0.01)
	fs.Initialize(func(x, y float64) (float64, float64, float64) {
		return x * y, x - y, x + y
	})
	uBefore := append([]float64(nil), fs.U.Data...)
	vBefore := append([]float64(nil), fs.V.Data...)

	NewStepper(fs.Grid, pol).ComputeNext(fs)

	assert.Equal(t, uBefore, fs.U.Data)
	assert.Equal(t, vBefore, fs.V.Data)

	fs.Commit()
	assert.NotEqual(t, uBefore, fs.U.Data, "commit should expose the update")
}

// With the fluid at rest a linear pressure ramp drives a uniform acceleration
// -dt/rho times the gradient.
func TestPressureGradientAccelerates(t *testing.T) {
	rho, dt := 2.0, 0.01
	fs, pol := buildCase(t, 9, 9, boundary.NoSlip, rho, 0, dt)
	for i := 0; i < 9; i++ {
		for j := 0; j < 9; j++ {
			fs.P.Set(i, j, fs.Grid.X(i))
		}
	}

	NewStepper(fs.Grid, pol).ComputeNext(fs)

	want := -dt / rho // gradient is 1 everywhere
	for i := 1; i < 8; i++ {
		for j := 1; j < 8; j++ {
			assert.InDelta(t, want, fs.NextU().At(i, j), 1e-12, "u at (%d,%d)", i, j)
			assert.InDelta(t, 0, fs.NextV().At(i, j), 1e-12, "v at (%d,%d)", i, j)
		}
	}
}

// Viscosity damps a periodic shear layer: the update moves every point toward
// its neighbors, so the amplitude cannot grow.
func TestViscousDampingShrinksShear(t *testing.T) {
	fs, pol := buildCase(t, 17, 17, boundary.Periodic, 1.0, 0.1, 0.001)
	fs.Initialize(func(x, y float64) (float64, float64, float64) {
		return math.Sin(2 * math.Pi * y), 0, 0
	})
	pol.ApplyVelocity(fs)
	before := fs.U.MaxAbs()

	st := NewStepper(fs.Grid, pol)
	for step := 0; step < 5; step++ {
		st.ComputeNext(fs)
		pol.ApplyVelocityFields(fs.NextU(), fs.NextV())
		fs.Commit()
	}

	assert.Less(t, fs.U.MaxAbs(), before)
	assert.InDelta(t, 0, fs.V.MaxAbs(), 1e-12)
}

// Without viscosity a parallel shear layer is transported onto itself: every
// advection difference is taken along a direction of constant velocity, so the
// update reproduces the field bit for bit and kinetic energy is conserved.
func TestInviscidShearIsExact(t *testing.T) {
	fs, pol := buildCase(t, 17, 17, boundary.Periodic, 1.0, 0, 0.001)
	fs.Initialize(func(x, y float64) (float64, float64, float64) {
		return math.Sin(2 * math.Pi * y), 0, 0
	})
	pol.ApplyVelocity(fs)
	before := append([]float64(nil), fs.U.Data...)

	st := NewStepper(fs.Grid, pol)
	for step := 0; step < 10; step++ {
		st.ComputeNext(fs)
		pol.ApplyVelocityFields(fs.NextU(), fs.NextV())
		fs.Commit()
	}

	assert.Equal(t, before, fs.U.Data)
	assert.Zero(t, fs.V.MaxAbs())
}

func TestShapeMismatchPanics(t *testing.T) {
	fs, pol := buildCase(t, 9, 9, boundary.NoSlip, 1.0, 0.1, 0.01)
	other, err := grid.New(5, 5, 1.0, 1.0)
	require.NoError(t, err)
	assert.Panics(t, func() { NewStepper(other, pol).ComputeNext(fs) })
}
