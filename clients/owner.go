package clients

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vitwit/kycsbt/types"
)

// Registry administration. Every call here reverts unless the connected
// wallet owns the contract.

func (c *KycSBTClient) SetRegistrationFee(ctx context.Context, fee *big.Int) (PendingTx, error) {
	return c.transact(ctx, "setRegistrationFee", nil, fee)
}

func (c *KycSBTClient) SetEnsFee(ctx context.Context, fee *big.Int) (PendingTx, error) {
	return c.transact(ctx, "setEnsFee", nil, fee)
}

func (c *KycSBTClient) SetMinNameLength(ctx context.Context, length *big.Int) (PendingTx, error) {
	return c.transact(ctx, "setMinNameLength", nil, length)
}

func (c *KycSBTClient) SetSuffix(ctx context.Context, suffix string) (PendingTx, error) {
	return c.transact(ctx, "setSuffix", nil, suffix)
}

func (c *KycSBTClient) SetENSAndResolver(ctx context.Context, ens, resolver common.Address) (PendingTx, error) {
	return c.transact(ctx, "setENSAndResolver", nil, ens, resolver)
}

func (c *KycSBTClient) ApproveEnsName(ctx context.Context, user common.Address, ensName string) (PendingTx, error) {
	return c.transact(ctx, "approveEnsName", nil, user, ensName)
}

// ApproveKyc approves user at level directly, bypassing a paid request.
func (c *KycSBTClient) ApproveKyc(ctx context.Context, user common.Address, level types.KycLevel) (PendingTx, error) {
	return c.transact(ctx, "approveKyc", nil, user, uint8(level))
}

func (c *KycSBTClient) WithdrawFees(ctx context.Context) (PendingTx, error) {
	return c.transact(ctx, "withdrawFees", nil)
}

func (c *KycSBTClient) TransferOwnership(ctx context.Context, newOwner common.Address) (PendingTx, error) {
	return c.transact(ctx, "transferOwnership", nil, newOwner)
}
