package clients

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/vitwit/kycsbt/types"
)

// Backend is the subset of *ethclient.Client the registry client needs.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *gethtypes.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*gethtypes.Receipt, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*gethtypes.Header, error)
	SubscribeNewHead(ctx context.Context, ch chan<- *gethtypes.Header) (ethereum.Subscription, error)
	Close()
}

// PendingTx is a submitted write that can be awaited to its receipt.
type PendingTx interface {
	Hash() common.Hash
	Wait(ctx context.Context) (*gethtypes.Receipt, error)
}

// Ledger is the registry surface the reconciler drives.
type Ledger interface {
	GetKycInfo(ctx context.Context, account common.Address) (types.KycRecord, error)
	IsHuman(ctx context.Context, account common.Address) (types.HumanCheck, error)
	GetTotalFee(ctx context.Context) (*big.Int, error)
	RequestKyc(ctx context.Context, fullName string, level types.KycLevel, fee *big.Int) (PendingTx, error)
	RevokeKyc(ctx context.Context, account common.Address) (PendingTx, error)
	RestoreKyc(ctx context.Context, account common.Address) (PendingTx, error)
}

// BalanceReader reads native balances.
type BalanceReader interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}
