package styles

import (
	"strings"
	"testing"
)

func TestStatusHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		render func(string) string
		symbol string
	}{
		{"ok", StatusOK, currentSymbols.OK},
		{"warning", StatusWarning, currentSymbols.Warning},
		{"error", StatusError, currentSymbols.Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.render("cache blob present")
			if !strings.Contains(got, tt.symbol) {
				t.Errorf("%s output %q missing symbol %q", tt.name, got, tt.symbol)
			}
			if !strings.Contains(got, "cache blob present") {
				t.Errorf("%s output %q missing message", tt.name, got)
			}
		})
	}
}

func TestFreshnessSymbol(t *testing.T) {
	t.Parallel()

	fresh := FreshnessSymbol(false)
	expired := FreshnessSymbol(true)

	if !strings.Contains(fresh, currentSymbols.Fresh) {
		t.Errorf("fresh marker %q, want to contain %q", fresh, currentSymbols.Fresh)
	}
	if !strings.Contains(expired, currentSymbols.Expired) {
		t.Errorf("expired marker %q, want to contain %q", expired, currentSymbols.Expired)
	}
	if fresh == expired {
		t.Error("fresh and expired markers should differ")
	}
}
