package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/pendart/internal/dynamo"
	"github.com/san-kum/pendart/internal/integrators"
	"github.com/san-kum/pendart/internal/models"
)

func unitPendulum(t *testing.T) *models.DoublePendulum {
	t.Helper()
	dp, err := models.NewDoublePendulum(models.UnitParams())
	if err != nil {
		t.Fatal(err)
	}
	return dp
}

func TestEnergyAverage(t *testing.T) {
	dp := unitPendulum(t)
	m := NewEnergy(dp)

	x := dynamo.State{math.Pi / 4, 0, 0, 0}
	m.Observe(x, 0)
	e1 := m.Value()

	if expected := dp.Energy(x); math.Abs(e1-expected) > 1e-12 {
		t.Errorf("expected energy %f, got %f", expected, e1)
	}

	m.Observe(dynamo.State{0, 0, 0, 0}, 0)
	want := (dp.Energy(x) + dp.Energy(dynamo.State{0, 0, 0, 0})) / 2
	if math.Abs(m.Value()-want) > 1e-12 {
		t.Errorf("expected mean %f, got %f", want, m.Value())
	}
}

func TestEnergyReset(t *testing.T) {
	m := NewEnergy(unitPendulum(t))

	m.Observe(dynamo.State{1.0, 1.0, 1.0, 1.0}, 0)
	if m.Value() == 0 {
		t.Error("expected non-zero energy")
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero energy after reset")
	}
}

func TestEnergyDriftUsesScale(t *testing.T) {
	dp := unitPendulum(t)
	m := NewEnergyDrift(dp)

	// Initial energy is exactly zero here.
	m.Observe(dynamo.State{math.Pi / 2, math.Pi / 2, 0, 0}, 0)
	m.Observe(dynamo.State{math.Pi / 2, math.Pi / 2, 0.1, 0}, 0)

	ke := dp.KineticEnergy(dynamo.State{math.Pi / 2, math.Pi / 2, 0.1, 0})
	want := ke / dp.EnergyScale()
	if math.Abs(m.Value()-want) > 1e-12 {
		t.Errorf("drift = %g, want %g", m.Value(), want)
	}
}

func TestEnergyDriftTracksMaximum(t *testing.T) {
	dp := unitPendulum(t)
	m := NewEnergyDrift(dp)
	rk4 := integrators.NewRK4()

	x := models.RestState(math.Pi/2, math.Pi/2)
	dt := 1.0 / 120
	for i := 0; i < 2000; i++ {
		m.Observe(x, float64(i)*dt)
		x = rk4.Step(dp, x, float64(i)*dt, dt)
	}

	if m.Value() <= 0 {
		t.Error("expected some drift to be recorded")
	}
	if m.Value() > 0.02 {
		t.Errorf("drift %g exceeds 2%%", m.Value())
	}

	last := math.Abs(m.Current()) / dp.EnergyScale()
	if last > m.Value()+1e-15 {
		t.Errorf("current drift %g above tracked maximum %g", last, m.Value())
	}
}

func TestFlips(t *testing.T) {
	f := NewFlips()

	f.Observe(dynamo.State{0, 0, 0, 0}, 0)
	f.Observe(dynamo.State{3, 0, 0, 0}, 0)
	if f.Value() != 0 {
		t.Fatalf("no flip yet, got %g", f.Value())
	}

	f.Observe(dynamo.State{3.3, 0, 0, 0}, 0)
	if f.Value() != 1 {
		t.Fatalf("expected 1 flip, got %g", f.Value())
	}

	// back over the top, then the outer arm goes round the other way
	f.Observe(dynamo.State{3.0, -3.3, 0, 0}, 0)
	if f.Value() != 3 {
		t.Fatalf("expected 3 flips, got %g", f.Value())
	}

	f.Reset()
	f.Observe(dynamo.State{10, 10, 0, 0}, 0)
	if f.Value() != 0 {
		t.Errorf("first observation after reset should not count, got %g", f.Value())
	}
}

func TestWinding(t *testing.T) {
	tests := []struct {
		theta float64
		want  int
	}{
		{0, 0},
		{3.1, 0},
		{-3.1, 0},
		{3.2, 1},
		{-3.2, -1},
		{4 * math.Pi, 2},
	}
	for _, tt := range tests {
		if got := Winding(tt.theta); got != tt.want {
			t.Errorf("Winding(%g) = %d, want %d", tt.theta, got, tt.want)
		}
	}
}
