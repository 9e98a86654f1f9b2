package market

import "testing"

func TestParseWeatherQuestion(t *testing.T) {
	info, err := ParseWeatherQuestion("Will NYC temperature exceed 60°F on 2026-02-17?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.City != "New York" {
		t.Errorf("City = %q, want New York", info.City)
	}
	if diff := info.Threshold - 15.56; diff < -0.05 || diff > 0.05 {
		t.Errorf("Threshold = %v, want ~15.56", info.Threshold)
	}
	if info.Comparison != Above {
		t.Errorf("Comparison = %v, want Above", info.Comparison)
	}
}

func TestExtractTemperatureUnits(t *testing.T) {
	cases := []struct {
		question string
		want     float64
	}{
		{"Will it exceed 60°F in London?", 15.56},
		{"Will it stay below 15°C in Chicago?", 15.0},
		{"Will Seoul exceed 20.5 degrees C today?", 20.5},
	}
	for _, c := range cases {
		info, err := ParseWeatherQuestion(c.question)
		if err != nil {
			t.Fatalf("ParseWeatherQuestion(%q): %v", c.question, err)
		}
		if diff := info.Threshold - c.want; diff < -0.05 || diff > 0.05 {
			t.Errorf("ParseWeatherQuestion(%q).Threshold = %v, want %v", c.question, info.Threshold, c.want)
		}
	}
}

func TestParseWeatherQuestionUnknownCity(t *testing.T) {
	if _, err := ParseWeatherQuestion("Will Miami exceed 90°F?"); err == nil {
		t.Fatal("expected error for unknown city")
	}
}

func TestParseWeatherQuestionNoComparison(t *testing.T) {
	if _, err := ParseWeatherQuestion("London will reach 20°C tomorrow"); err == nil {
		t.Fatal("expected error for missing comparison")
	}
}
