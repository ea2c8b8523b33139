package pipeline

import (
	"math"
	"strings"
	"testing"

	"github.com/JaimeStill/churn/pkg/repository"
)

func TestNullable(t *testing.T) {
	tests := []struct {
		v     float64
		valid bool
	}{
		{0.5, true},
		{0, true},
		{math.NaN(), false},
		{math.Inf(1), false},
	}

	for _, tt := range tests {
		if got := nullable(tt.v); got.Valid != tt.valid {
			t.Errorf("nullable(%v).Valid = %v, want %v", tt.v, got.Valid, tt.valid)
		}
	}
}

func TestInsertRunPlaceholders(t *testing.T) {
	columns := strings.Count(insertRun[:strings.Index(insertRun, "VALUES")], ",") + 1
	if got := strings.Count(insertRun, "$"); got != columns {
		t.Errorf("placeholders = %d, want %d", got, columns)
	}

	mysql := repository.Rebind("mysql", insertRun)
	if strings.Contains(mysql, "$") || strings.Count(mysql, "?") != columns {
		t.Errorf("mysql query not rebound: %s", mysql)
	}
}
