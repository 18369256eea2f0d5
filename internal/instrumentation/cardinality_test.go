package instrumentation

import "testing"

func TestNormalizeOperation(t *testing.T) {
	tests := []struct {
		op       string
		expected string
	}{
		{OperationList, OperationList},
		{OperationFreeBusy, OperationFreeBusy},
		{OperationCreate, OperationCreate},
		{OperationUpdate, OperationUpdate},
		{OperationDelete, OperationDelete},
		{"events.watch", "other"},
		{"", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			if got := NormalizeOperation(tt.op); got != tt.expected {
				t.Errorf("NormalizeOperation(%q) = %q, want %q", tt.op, got, tt.expected)
			}
		})
	}
}
