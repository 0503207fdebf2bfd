package utils

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/scrapeway/paygate/types"
)

var (
	hexRe    = regexp.MustCompile("^[0-9a-fA-F]+$")
	base58Re = regexp.MustCompile("^[1-9A-HJ-NP-Za-km-z]+$")
)

// ValidateAmount checks if an amount string is a valid non-negative decimal.
func ValidateAmount(amount string) (*decimal.Decimal, error) {
	if amount == "" {
		return nil, fmt.Errorf("amount cannot be empty")
	}

	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount format: %w", err)
	}

	if dec.IsNegative() {
		return nil, fmt.Errorf("amount cannot be negative")
	}

	return &dec, nil
}

// ValidateReference checks the expected transaction identifier encoding for a
// network before the reference is used as a replay-guard key.
func ValidateReference(reference string, network types.Network) error {
	if reference == "" {
		return fmt.Errorf("payment reference cannot be empty")
	}

	switch {
	case network.IsEVM():
		// EVM transaction hash - 66 characters (0x + 64 hex)
		if !strings.HasPrefix(reference, "0x") {
			return fmt.Errorf("EVM transaction hash must start with 0x")
		}
		if len(reference) != 66 {
			return fmt.Errorf("EVM transaction hash must be 66 characters long")
		}
		if !hexRe.MatchString(reference[2:]) {
			return fmt.Errorf("EVM transaction hash must be valid hex")
		}

	case network.IsSolana():
		// Solana transaction signature - base58 encoded, typically 87-88 characters
		if len(reference) < 80 || len(reference) > 90 {
			return fmt.Errorf("Solana transaction signature has invalid length")
		}
		if !base58Re.MatchString(reference) {
			return fmt.Errorf("Solana transaction signature must be valid base58")
		}

	default:
		return fmt.Errorf("unsupported network: %s", network)
	}

	return nil
}

// ValidateAddressForNetwork validates recipient and asset addresses.
func ValidateAddressForNetwork(address string, network types.Network) error {
	if address == "" {
		return fmt.Errorf("address cannot be empty")
	}

	switch {
	case network.IsEVM():
		if !strings.HasPrefix(address, "0x") {
			return fmt.Errorf("EVM address must start with 0x")
		}
		if len(address) != 42 {
			return fmt.Errorf("EVM address must be 42 characters long")
		}
		if !hexRe.MatchString(address[2:]) {
			return fmt.Errorf("EVM address must be valid hex")
		}

	case network.IsSolana():
		// Solana address - base58, typically 32-44 characters
		if len(address) < 32 || len(address) > 44 {
			return fmt.Errorf("Solana address has invalid length")
		}
		if !base58Re.MatchString(address) {
			return fmt.Errorf("Solana address must be valid base58")
		}

	default:
		return fmt.Errorf("unsupported network: %s", network)
	}

	return nil
}

// ParseAmountWithDecimals parses a decimal amount string into raw atomic
// units with the given decimal count.
func ParseAmountWithDecimals(amount string, decimals int) (*big.Int, error) {
	dec, err := ValidateAmount(amount)
	if err != nil {
		return nil, err
	}

	multiplier := decimal.NewFromBigInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil), 0)
	return dec.Mul(multiplier).BigInt(), nil
}

// FormatAmountFromBigInt formats raw atomic units as a decimal string.
func FormatAmountFromBigInt(amount *big.Int, decimals int) string {
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}
