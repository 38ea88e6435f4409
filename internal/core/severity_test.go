package core

import "testing"

func TestClassifySeverity(t *testing.T) {
	tests := []struct {
		days int
		want Severity
	}{
		{0, SeverityWarning},
		{1, SeverityWarning},
		{7, SeverityWarning},
		{8, SeverityDanger},
		{15, SeverityDanger},
		{30, SeverityDanger},
		{31, SeverityCritical},
		{365, SeverityCritical},
	}

	for _, tt := range tests {
		if got := ClassifySeverity(tt.days); got != tt.want {
			t.Errorf("ClassifySeverity(%d) = %v, want %v", tt.days, got, tt.want)
		}
	}
}
