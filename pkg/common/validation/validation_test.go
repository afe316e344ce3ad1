package validation

import (
	"testing"

	"github.com/shardfeed/shardfeed/pkg/common/errors"
)

func TestValidatePositive(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		wantError bool
	}{
		{"positive value", 10, false},
		{"positive value 1", 1, false},
		{"zero value", 0, true},
		{"negative value", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePositive("pipeline", "batch_size", tt.value)
			if tt.wantError {
				if !errors.IsConfiguration(err) {
					t.Errorf("expected configuration error, got %v", err)
				}
			} else if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidateNonNegative(t *testing.T) {
	if err := ValidateNonNegative("pipeline", "prefetch", 0); err != nil {
		t.Errorf("zero should be allowed, got %v", err)
	}
	if err := ValidateNonNegative("pipeline", "prefetch", -1); !errors.IsConfiguration(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestValidateIndex(t *testing.T) {
	tests := []struct {
		name      string
		index     int
		count     int
		wantError bool
	}{
		{"first", 0, 3, false},
		{"last", 2, 3, false},
		{"past end", 3, 3, true},
		{"negative", -1, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIndex("topology", "process_index", tt.index, tt.count)
			if tt.wantError {
				if !errors.IsConfiguration(err) {
					t.Errorf("expected configuration error, got %v", err)
				}
			} else if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidateNotNil(t *testing.T) {
	if err := ValidateNotNil("pipeline", "source", struct{}{}); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if err := ValidateNotNil("pipeline", "source", nil); !errors.IsConfiguration(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestValidateNotEmpty(t *testing.T) {
	if err := ValidateNotEmpty("pipeline", "dataset", "cifar10"); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if err := ValidateNotEmpty("pipeline", "dataset", ""); !errors.IsConfiguration(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestValidationErrorDetails(t *testing.T) {
	err := ValidatePositive("split", "process_count", -5)
	valErr, ok := err.(*errors.ValidationError)
	if !ok {
		t.Fatalf("expected *errors.ValidationError, got %T", err)
	}
	if valErr.Module != "split" {
		t.Errorf("Module = %q, want %q", valErr.Module, "split")
	}
	if valErr.Field != "process_count" {
		t.Errorf("Field = %q, want %q", valErr.Field, "process_count")
	}
	if valErr.Value != -5 {
		t.Errorf("Value = %v, want %v", valErr.Value, -5)
	}
	if valErr.Reason != "must be positive" {
		t.Errorf("Reason = %q, want %q", valErr.Reason, "must be positive")
	}
	if valErr.Hint == "" {
		t.Error("expected a hint")
	}
}
