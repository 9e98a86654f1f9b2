package weather

import "testing"

func TestResolveCityInTextOrderAndAliases(t *testing.T) {
	cases := []struct {
		text string
		want string
		ok   bool
	}{
		{"Will NYC temperature exceed 60°F on 2026-02-17?", "New York", true},
		{"Will London see snow this week?", "London", true},
		{"Will it rain in Seoul tomorrow?", "Seoul", true},
		{"Will Chicago hit 90F?", "Chicago", true},
		{"Will Miami be hot?", "", false},
	}
	for _, c := range cases {
		got, ok := ResolveCityInText(c.text)
		if ok != c.ok {
			t.Fatalf("ResolveCityInText(%q) ok = %v, want %v", c.text, ok, c.ok)
		}
		if ok && got.Name != c.want {
			t.Errorf("ResolveCityInText(%q) = %q, want %q", c.text, got.Name, c.want)
		}
	}
}

func TestFahrenheitCelsiusRoundTrip(t *testing.T) {
	c := 15.56
	f := CelsiusToFahrenheit(c)
	back := FahrenheitToCelsius(f)
	if diff := back - c; diff < -1e-6 || diff > 1e-6 {
		t.Errorf("round trip mismatch: %v -> %v -> %v", c, f, back)
	}
}
