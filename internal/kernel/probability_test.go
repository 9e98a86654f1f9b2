package kernel

import "testing"

func TestNormalCDF(t *testing.T) {
	cases := []struct {
		z    float64
		want float64
		tol  float64
	}{
		{0, 0.5, 1e-3},
		{1, 0.8413, 1e-2},
		{-1, 0.1587, 1e-2},
	}
	for _, c := range cases {
		got := NormalCDF(c.z)
		if diff := got - c.want; diff < -c.tol || diff > c.tol {
			t.Errorf("NormalCDF(%v) = %v, want %v ± %v", c.z, got, c.want, c.tol)
		}
	}
}

func TestNormalCDFMonotonic(t *testing.T) {
	prev := NormalCDF(-5)
	for z := -4.9; z <= 5; z += 0.1 {
		cur := NormalCDF(z)
		if cur < prev {
			t.Fatalf("NormalCDF not monotonic at z=%v: %v < %v", z, cur, prev)
		}
		prev = cur
	}
}

func TestProbAboveBelowComplement(t *testing.T) {
	mean, threshold, stdDev := 16.0, 15.0, 2.5
	above := ProbAbove(mean, threshold, stdDev)
	below := ProbBelow(mean, threshold, stdDev)
	if diff := (above + below) - 1.0; diff < -1e-6 || diff > 1e-6 {
		t.Errorf("ProbAbove+ProbBelow = %v, want 1", above+below)
	}
}

func TestForecastProbabilityScenarios(t *testing.T) {
	if p := ProbAbove(16.0, 15.0, 2.5); p < 0.605 || p > 0.705 {
		t.Errorf("ProbAbove(16,15,2.5) = %v, want ~0.655", p)
	}
	if p := ProbAbove(20.0, 15.0, 2.5); p <= 0.95 {
		t.Errorf("ProbAbove(20,15,2.5) = %v, want > 0.95", p)
	}
	if p := ProbAbove(10.0, 15.0, 2.5); p >= 0.05 {
		t.Errorf("ProbAbove(10,15,2.5) = %v, want < 0.05", p)
	}
}

func TestProbAbovePanicsOnBadStdDev(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for stdDev <= 0")
		}
	}()
	ProbAbove(10, 5, 0)
}
