package formatting_test

import (
	"math"
	"testing"

	"github.com/JaimeStill/churn/pkg/formatting"
)

func TestFixed(t *testing.T) {
	tests := []struct {
		name     string
		v        float64
		decimals int
		want     string
	}{
		{"four decimals", 0.87654321, 4, "0.8765"},
		{"negative", -0.12346, 4, "-0.1235"},
		{"integer", 3, 0, "3"},
		{"nan", math.NaN(), 4, formatting.Undefined},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatting.Fixed(tt.v, tt.decimals); got != tt.want {
				t.Errorf("Fixed(%v, %d) = %q, want %q", tt.v, tt.decimals, got, tt.want)
			}
		})
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{0.2345, "23.45%"},
		{1, "100.00%"},
		{0, "0.00%"},
		{math.NaN(), formatting.Undefined},
	}

	for _, tt := range tests {
		if got := formatting.Percent(tt.ratio, 2); got != tt.want {
			t.Errorf("Percent(%v) = %q, want %q", tt.ratio, got, tt.want)
		}
	}
}

func TestParseFixed(t *testing.T) {
	v, err := formatting.ParseFixed("0.8765")
	if err != nil || v != 0.8765 {
		t.Errorf("ParseFixed(0.8765) = %v, %v", v, err)
	}

	v, err = formatting.ParseFixed(formatting.Undefined)
	if err != nil || !math.IsNaN(v) {
		t.Errorf("ParseFixed(undefined) = %v, %v; want NaN", v, err)
	}

	if _, err := formatting.ParseFixed("abc"); err == nil {
		t.Error("expected error for non-numeric input")
	}
}
