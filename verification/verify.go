package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vitwit/kycsbt/types"
)

// HumanChecker is the registry read verification depends on.
type HumanChecker interface {
	IsHuman(ctx context.Context, account common.Address) (types.HumanCheck, error)
}

// Result is the outcome of checking one account.
type Result struct {
	Address       common.Address `json:"address"`
	IsValid       bool           `json:"isValid"`
	Level         types.KycLevel `json:"level"`
	LevelText     string         `json:"levelText"`
	InvalidReason string         `json:"invalidReason,omitempty"`
}

// Verifier interface defines the contract for KYC verification
type Verifier interface {
	Verify(ctx context.Context, account common.Address, minLevel types.KycLevel) (*Result, error)
}

var _ Verifier = (*VerificationService)(nil)

// VerificationService answers "is this account a verified human" against
// one registry.
type VerificationService struct {
	checker HumanChecker
	timeout time.Duration
}

// NewVerificationService creates a new verification service
func NewVerificationService(checker HumanChecker, timeout time.Duration) *VerificationService {
	return &VerificationService{
		checker: checker,
		timeout: timeout,
	}
}

// Verify reports whether account holds valid KYC at minLevel or above.
func (s *VerificationService) Verify(ctx context.Context, account common.Address, minLevel types.KycLevel) (*Result, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if account == (common.Address{}) {
		return &Result{InvalidReason: "zero address"}, nil
	}

	check, err := s.checker.IsHuman(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("isHuman %s: %w", account.Hex(), err)
	}

	result := &Result{
		Address:   account,
		IsValid:   check.IsValid,
		Level:     check.Level,
		LevelText: check.Level.String(),
	}

	switch {
	case !check.IsValid:
		result.InvalidReason = "kyc not approved"
	case check.Level < minLevel:
		result.IsValid = false
		result.InvalidReason = fmt.Sprintf("level %s below required %s", check.Level, minLevel)
	}

	return result, nil
}

// BatchVerify verifies multiple accounts concurrently
func (s *VerificationService) BatchVerify(ctx context.Context, accounts []common.Address, minLevel types.KycLevel) ([]*Result, error) {
	results := make([]*Result, len(accounts))

	type verificationResult struct {
		index  int
		result *Result
		err    error
	}

	resultChan := make(chan verificationResult, len(accounts))

	for i, account := range accounts {
		go func(index int, a common.Address) {
			result, err := s.Verify(ctx, a, minLevel)
			resultChan <- verificationResult{
				index:  index,
				result: result,
				err:    err,
			}
		}(i, account)
	}

	var firstErr error
	for i := 0; i < len(accounts); i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-resultChan:
			if res.err != nil {
				if firstErr == nil {
					firstErr = res.err
				}
				results[res.index] = &Result{
					Address:       accounts[res.index],
					InvalidReason: res.err.Error(),
				}
				continue
			}
			results[res.index] = res.result
		}
	}

	return results, firstErr
}
