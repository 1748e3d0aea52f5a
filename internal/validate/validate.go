// Package validate holds the strict pre-flight argument checks mutating
// operations run before any ledger call is attempted.
package validate

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tribeshq/tribes-go/pkg/errors"
)

// NonEmptyString fails when value is empty.
func NonEmptyString(value, field string) error {
	if value == "" {
		return errors.New(errors.ErrCodeValidation, fmt.Sprintf("%s must not be empty", field))
	}
	return nil
}

// Address fails when value is not a well-formed hex address.
func Address(value, field string) error {
	if !common.IsHexAddress(value) {
		return errors.New(errors.ErrCodeValidation, fmt.Sprintf("%s is not a valid address: %q", field, value))
	}
	return nil
}

// PositiveAmount fails when amount is non-nil and not strictly positive.
// A nil amount means "none attached" and is always allowed.
func PositiveAmount(amount *big.Int, field string) error {
	if amount == nil {
		return nil
	}
	if amount.Sign() <= 0 {
		return errors.New(errors.ErrCodeValidation, fmt.Sprintf("%s must be positive, got %s", field, amount))
	}
	return nil
}
