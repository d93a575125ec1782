package utils

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/vitwit/kycsbt/types"
)

// NativeDecimals is the precision of the chain's native currency.
const NativeDecimals = 18

var chainIdentifierRe = regexp.MustCompile(`^[-a-z0-9]{3,8}:[-_a-zA-Z0-9]{1,32}$`)

// ValidateAddress parses a hex account address.
func ValidateAddress(address string) (common.Address, error) {
	if address == "" {
		return common.Address{}, fmt.Errorf("address cannot be empty")
	}
	if !common.IsHexAddress(address) {
		return common.Address{}, fmt.Errorf("invalid address: %s", address)
	}
	return common.HexToAddress(address), nil
}

// ValidateENSLabel checks the part of a name the user types, before the
// registry suffix is appended. Only emptiness is checked here; length and
// character rules are the registry's to enforce.
func ValidateENSLabel(label string) error {
	if label == "" {
		return fmt.Errorf("name cannot be empty")
	}
	return nil
}

// ValidateRequest checks the inputs of a KYC request. Nothing is sent when
// it fails.
func ValidateRequest(name string, level types.KycLevel) error {
	if err := ValidateENSLabel(name); err != nil {
		return &types.KycError{Code: types.ErrInvalidInput, Message: err.Error()}
	}
	if !level.Requestable() {
		return &types.KycError{
			Code:    types.ErrInvalidInput,
			Message: fmt.Sprintf("level %d is not requestable", uint8(level)),
		}
	}
	return nil
}

// NormalizeChainIdentifier turns "177" into "eip155:177" and leaves
// namespaced identifiers alone.
func NormalizeChainIdentifier(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("chain identifier cannot be empty")
	}
	if !strings.Contains(id, ":") {
		id = "eip155:" + id
	}
	if !chainIdentifierRe.MatchString(id) {
		return "", fmt.Errorf("invalid chain identifier: %s", id)
	}
	return id, nil
}

// ValidateBigInt checks if a string is a valid big integer
func ValidateBigInt(value string) (*big.Int, error) {
	if value == "" {
		return nil, fmt.Errorf("value cannot be empty")
	}

	bigInt := new(big.Int)
	_, success := bigInt.SetString(value, 10)
	if !success {
		return nil, fmt.Errorf("invalid big integer format")
	}

	return bigInt, nil
}

// ParseAmount converts a decimal amount ("0.5") into base units.
func ParseAmount(amount string, decimals int32) (*big.Int, error) {
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

	scaled := dec.Shift(decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("amount %s has more than %d decimals", amount, decimals)
	}
	return scaled.BigInt(), nil
}

// FormatAmount renders base units with the given number of decimals.
func FormatAmount(amount *big.Int, decimals int32) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -decimals).String()
}

// FormatWei renders a native-currency amount.
func FormatWei(wei *big.Int) string {
	return FormatAmount(wei, NativeDecimals)
}
