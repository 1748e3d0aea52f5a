package validate

import (
	"math/big"
	"testing"

	"github.com/tribeshq/tribes-go/pkg/errors"
)

func TestNonEmptyString(t *testing.T) {
	if err := NonEmptyString("value", "name"); err != nil {
		t.Errorf("NonEmptyString(value) = %v, want nil", err)
	}
	err := NonEmptyString("", "name")
	if err == nil {
		t.Fatal("expected error for empty string")
	}
	if !errors.IsCode(err, errors.ErrCodeValidation) {
		t.Errorf("error code = %v, want VALIDATION_ERROR", err)
	}
}

func TestAddress(t *testing.T) {
	tests := []struct {
		value string
		valid bool
	}{
		{"0x00000000000000000000000000000000000000ff", true},
		{"0x0000000000000000000000000000000000000000", true},
		{"not-an-address", false},
		{"0x123", false},
		{"", false},
	}
	for _, tt := range tests {
		err := Address(tt.value, "addr")
		if tt.valid && err != nil {
			t.Errorf("Address(%q) = %v, want nil", tt.value, err)
		}
		if !tt.valid && err == nil {
			t.Errorf("Address(%q) = nil, want error", tt.value)
		}
	}
}

func TestPositiveAmount(t *testing.T) {
	tests := []struct {
		name   string
		amount *big.Int
		valid  bool
	}{
		{"nil means none attached", nil, true},
		{"positive", big.NewInt(1), true},
		{"zero", big.NewInt(0), false},
		{"negative", big.NewInt(-5), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := PositiveAmount(tt.amount, "fee")
			if tt.valid && err != nil {
				t.Errorf("PositiveAmount(%v) = %v, want nil", tt.amount, err)
			}
			if !tt.valid && err == nil {
				t.Errorf("PositiveAmount(%v) = nil, want error", tt.amount)
			}
		})
	}
}
