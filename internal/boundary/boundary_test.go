package boundary

import (
	"errors"
	"testing"

	"navsim/internal/field"
	"navsim/internal/grid"
)

func testFields(t *testing.T, nx, ny int) *field.FieldSet {
	t.Helper()
	g, err := grid.New(nx, ny, 1.0, 1.0)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	fs, err := field.New(g, 1.0, 0.1, 0.01)
	if err != nil {
		t.Fatalf("fields: %v", err)
	}
	return fs
}

func uniformSpec(k Kind) (Spec, Spec, Spec, Spec) {
	s := Spec{Kind: k}
	return s, s, s, s
}

func TestParseKind(t *testing.T) {
	for _, name := range []string{"no-slip", "periodic", "fixed-value", "zero-gradient"} {
		k, err := ParseKind(name)
		if err != nil {
			t.Errorf("parse %q: %v", name, err)
		}
		if k.String() != name {
			t.Errorf("round trip %q -> %q", name, k.String())
		}
	}
	if _, err := ParseKind("slippery"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestPeriodicMustPair(t *testing.T) {
	_, err := NewPolicy(Spec{Kind: Periodic}, Spec{Kind: NoSlip}, Spec{Kind: NoSlip}, Spec{Kind: NoSlip})
	if !errors.Is(err, ErrUnpairedPeriodic) {
		t.Errorf("expected ErrUnpairedPeriodic, got %v", err)
	}
	_, err = NewPolicy(Spec{Kind: Periodic}, Spec{Kind: Periodic}, Spec{Kind: ZeroGradient}, Spec{Kind: Periodic})
	if !errors.Is(err, ErrUnpairedPeriodic) {
		t.Errorf("expected ErrUnpairedPeriodic, got %v", err)
	}
	if _, err := NewPolicy(Spec{Kind: Periodic}, Spec{Kind: Periodic}, Spec{Kind: NoSlip}, Spec{Kind: NoSlip}); err != nil {
		t.Errorf("paired periodic rejected: %v", err)
	}
}

func TestNoSlipZeroesVelocityEdges(t *testing.T) {
	fs := testFields(t, 5, 5)
	fs.U.Fill(3)
	fs.V.Fill(-2)

	pol, _ := NewPolicy(uniformSpec(NoSlip))
	pol.ApplyVelocity(fs)

	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			onEdge := i == 0 || i == 4 || j == 0 || j == 4
			if onEdge && (fs.U.At(i, j) != 0 || fs.V.At(i, j) != 0) {
				t.Fatalf("edge (%d,%d) not zeroed: u=%f v=%f", i, j, fs.U.At(i, j), fs.V.At(i, j))
			}
			if !onEdge && fs.U.At(i, j) != 3 {
				t.Fatalf("interior (%d,%d) touched", i, j)
			}
		}
	}
}

func TestFixedValueIsTangential(t *testing.T) {
	fs := testFields(t, 5, 5)
	pol, _ := NewPolicy(Spec{Kind: NoSlip}, Spec{Kind: NoSlip}, Spec{Kind: NoSlip}, Spec{Kind: FixedValue, Value: 1})
	pol.ApplyVelocity(fs)

	// moving lid on top: u held, v zero
	for i := 1; i < 4; i++ {
		if fs.U.At(i, 4) != 1 || fs.V.At(i, 4) != 0 {
			t.Fatalf("lid at i=%d: u=%f v=%f", i, fs.U.At(i, 4), fs.V.At(i, 4))
		}
	}
}

func TestZeroGradientCopiesInterior(t *testing.T) {
	fs := testFields(t, 5, 5)
	for j := 0; j < 5; j++ {
		fs.P.Set(1, j, float64(10+j))
	}

	pol, _ := NewPolicy(Spec{Kind: ZeroGradient}, Spec{Kind: ZeroGradient}, Spec{Kind: ZeroGradient}, Spec{Kind: ZeroGradient})
	pol.ApplyPressureField(fs.P)

	for j := 1; j < 4; j++ {
		if fs.P.At(0, j) != fs.P.At(1, j) {
			t.Fatalf("left edge j=%d: %f != %f", j, fs.P.At(0, j), fs.P.At(1, j))
		}
	}
}

func TestReferenceCellPin(t *testing.T) {
	fs := testFields(t, 5, 5)
	fs.P.Fill(4)

	pol, _ := NewPolicy(uniformSpec(ZeroGradient))
	if pol.PinsPressure() {
		t.Fatal("zero-gradient everywhere should not pin through an edge")
	}
	pol.ApplyPressureField(fs.P)
	if fs.P.At(0, 0) != 0 {
		t.Errorf("reference cell should be pinned to 0, got %f", fs.P.At(0, 0))
	}

	fixed, _ := NewPolicy(Spec{Kind: FixedValue, Value: 2}, Spec{Kind: ZeroGradient}, Spec{Kind: ZeroGradient}, Spec{Kind: ZeroGradient})
	if !fixed.PinsPressure() {
		t.Fatal("fixed-value edge should pin pressure")
	}
	fs.P.Fill(4)
	fixed.ApplyPressureField(fs.P)
	if fs.P.At(0, 0) != 2 {
		t.Errorf("fixed edge should win over reference pin, got %f", fs.P.At(0, 0))
	}
}

// Applying the policy twice must equal applying it once.
func TestApplyIsIdempotent(t *testing.T) {
	fs := testFields(t, 6, 5)
	fs.Initialize(func(x, y float64) (float64, float64, float64) {
		return x + 2*y, x * y, x - y
	})

	pol, _ := NewPolicy(
		Spec{Kind: FixedValue, Value: 1},
		Spec{Kind: ZeroGradient},
		Spec{Kind: NoSlip},
		Spec{Kind: ZeroGradient},
	)

	pol.ApplyPressure(fs)
	pol.ApplyVelocity(fs)
	pAfter := append([]float64(nil), fs.P.Data...)
	uAfter := append([]float64(nil), fs.U.Data...)
	vAfter := append([]float64(nil), fs.V.Data...)

	pol.ApplyPressure(fs)
	pol.ApplyVelocity(fs)

	for k := range pAfter {
		if fs.P.Data[k] != pAfter[k] || fs.U.Data[k] != uAfter[k] || fs.V.Data[k] != vAfter[k] {
			t.Fatalf("second application changed cell %d", k)
		}
	}
}

// The first-listed edge must win on shared corners: Left beats Top.
func TestCornerPrecedence(t *testing.T) {
	fs := testFields(t, 5, 5)
	pol, _ := NewPolicy(
		Spec{Kind: FixedValue, Value: 5},
		Spec{Kind: ZeroGradient},
		Spec{Kind: ZeroGradient},
		Spec{Kind: FixedValue, Value: 9},
	)
	pol.ApplyPressureField(fs.P)

	if fs.P.At(0, 4) != 5 {
		t.Errorf("top-left corner: left edge should win, got %f", fs.P.At(0, 4))
	}
	if fs.P.At(2, 4) != 9 {
		t.Errorf("top interior cell should carry top value, got %f", fs.P.At(2, 4))
	}
}

func TestPeriodicGhostCopies(t *testing.T) {
	fs := testFields(t, 6, 5)
	for j := 0; j < 5; j++ {
		fs.U.Set(0, j, float64(j)+0.5)
		fs.P.Set(0, j, float64(j)-0.5)
	}

	pol, _ := NewPolicy(Spec{Kind: Periodic}, Spec{Kind: Periodic}, Spec{Kind: NoSlip}, Spec{Kind: NoSlip})
	pol.ApplyVelocity(fs)
	pol.ApplyPressure(fs)

	for j := 1; j < 4; j++ {
		if fs.U.At(5, j) != fs.U.At(0, j) {
			t.Fatalf("u ghost column mismatch at j=%d", j)
		}
		if fs.P.At(5, j) != fs.P.At(0, j) {
			t.Fatalf("p ghost column mismatch at j=%d", j)
		}
	}
}

func TestWrapIndexArithmetic(t *testing.T) {
	pol, _ := NewPolicy(Spec{Kind: Periodic}, Spec{Kind: Periodic}, Spec{Kind: Periodic}, Spec{Kind: Periodic})
	nx, ny := 6, 5

	if pol.XStart() != 0 || pol.YStart() != 0 {
		t.Error("periodic axes should update from index 0")
	}
	if got := pol.LeftOf(0, nx); got != nx-2 {
		t.Errorf("LeftOf(0) = %d, want %d", got, nx-2)
	}
	if got := pol.RightOf(nx-2, nx); got != 0 {
		t.Errorf("RightOf(nx-2) = %d, want 0", got)
	}
	if got := pol.Below(0, ny); got != ny-2 {
		t.Errorf("Below(0) = %d, want %d", got, ny-2)
	}
	if got := pol.Above(ny-2, ny); got != 0 {
		t.Errorf("Above(ny-2) = %d, want 0", got)
	}

	walls, _ := NewPolicy(Spec{Kind: NoSlip}, Spec{Kind: NoSlip}, Spec{Kind: NoSlip}, Spec{Kind: NoSlip})
	if walls.XStart() != 1 || walls.YStart() != 1 {
		t.Error("wall axes should update from index 1")
	}
	if got := walls.LeftOf(2, nx); got != 1 {
		t.Errorf("LeftOf(2) = %d, want 1", got)
	}
}
