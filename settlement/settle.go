package settlement

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/vitwit/kycsbt/logger"
	"github.com/vitwit/kycsbt/types"
)

// Backend is the part of an RPC client needed to land a transaction.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *gethtypes.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*gethtypes.Receipt, error)
}

// Signer is the wallet side of a submission.
type Signer interface {
	Address() (common.Address, bool)
	SignTx(tx *gethtypes.Transaction, chainID *big.Int) (*gethtypes.Transaction, error)
}

// Call describes one contract write.
type Call struct {
	Method string
	To     common.Address
	Value  *big.Int
	Data   []byte
}

// SettlementService signs, sends and confirms contract writes.
type SettlementService struct {
	backend      Backend
	signer       Signer
	logger       logger.Logger
	timeout      time.Duration
	pollInterval time.Duration

	mu      sync.Mutex
	chainID *big.Int
}

type Option func(*SettlementService)

func WithLogger(l logger.Logger) Option {
	return func(s *SettlementService) {
		s.logger = l
	}
}

// WithTimeout bounds how long Wait blocks for a receipt. Zero waits until
// the caller's context ends.
func WithTimeout(t time.Duration) Option {
	return func(s *SettlementService) {
		s.timeout = t
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(s *SettlementService) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// NewSettlementService creates a new settlement service
func NewSettlementService(backend Backend, signer Signer, opts ...Option) *SettlementService {
	s := &SettlementService{
		backend:      backend,
		signer:       signer,
		logger:       logger.NoopLogger{},
		pollInterval: time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit builds, signs and broadcasts call. It returns once the node has
// accepted the transaction; use PendingTx.Wait for the receipt.
func (s *SettlementService) Submit(ctx context.Context, call Call) (*PendingTx, error) {
	if s.signer == nil {
		return nil, types.NewError(types.ErrNotConnected, "no wallet connected")
	}
	from, ok := s.signer.Address()
	if !ok {
		return nil, types.NewError(types.ErrNotConnected, "no wallet connected")
	}

	value := call.Value
	if value == nil {
		value = new(big.Int)
	}

	chainID, err := s.chain(ctx)
	if err != nil {
		return nil, err
	}

	// Serialize nonce allocation and broadcast for this signer.
	s.mu.Lock()
	defer s.mu.Unlock()

	// Gas estimation runs the call against pending state, so a revert
	// surfaces here before anything is signed.
	gasLimit, err := s.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &call.To,
		Value: value,
		Data:  call.Data,
	})
	if err != nil {
		return nil, txFailed(call.Method, "estimate gas", err)
	}

	gasPrice, err := s.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, txFailed(call.Method, "suggest gas price", err)
	}

	nonce, err := s.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, txFailed(call.Method, "pending nonce", err)
	}

	tx := gethtypes.NewTransaction(nonce, call.To, value, gasLimit, gasPrice, call.Data)

	signed, err := s.signer.SignTx(tx, chainID)
	if err != nil {
		return nil, txFailed(call.Method, "sign tx", err)
	}

	if err := s.backend.SendTransaction(ctx, signed); err != nil {
		return nil, txFailed(call.Method, "send tx", err)
	}

	s.logger.Info("transaction submitted", map[string]any{
		"method": call.Method,
		"txHash": signed.Hash().Hex(),
		"from":   from.Hex(),
		"nonce":  nonce,
	})

	return &PendingTx{
		tx:           signed,
		method:       call.Method,
		backend:      s.backend,
		logger:       s.logger,
		timeout:      s.timeout,
		pollInterval: s.pollInterval,
	}, nil
}

func (s *SettlementService) chain(ctx context.Context) (*big.Int, error) {
	s.mu.Lock()
	cached := s.chainID
	s.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	id, err := s.backend.ChainID(ctx)
	if err != nil {
		return nil, &types.KycError{
			Code:    types.ErrConnectivity,
			Message: fmt.Sprintf("failed to read chain id: %v", err),
		}
	}

	s.mu.Lock()
	s.chainID = id
	s.mu.Unlock()
	return id, nil
}

// PendingTx is a broadcast transaction awaiting confirmation.
type PendingTx struct {
	tx           *gethtypes.Transaction
	method       string
	backend      Backend
	logger       logger.Logger
	timeout      time.Duration
	pollInterval time.Duration
}

func (p *PendingTx) Hash() common.Hash {
	return p.tx.Hash()
}

func (p *PendingTx) Transaction() *gethtypes.Transaction {
	return p.tx
}

// Wait blocks until the transaction is mined. A mined transaction whose
// execution failed is reported as an error.
func (p *PendingTx) Wait(ctx context.Context) (*gethtypes.Receipt, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := p.backend.TransactionReceipt(ctx, p.tx.Hash())
		switch {
		case err == nil && receipt != nil:
			if receipt.Status != gethtypes.ReceiptStatusSuccessful {
				return receipt, &types.KycError{
					Code:    types.ErrTransactionFailed,
					Message: fmt.Sprintf("%s transaction %s reverted", p.method, p.tx.Hash().Hex()),
					Data:    receipt,
				}
			}
			return receipt, nil
		case errors.Is(err, ethereum.NotFound):
			p.logger.Debug("transaction not yet mined", map[string]any{"txHash": p.tx.Hash().Hex()})
		case err != nil:
			p.logger.Debug("receipt retrieval failed", map[string]any{"txHash": p.tx.Hash().Hex(), "error": err})
		}

		select {
		case <-ctx.Done():
			return nil, &types.KycError{
				Code:    types.ErrTransactionFailed,
				Message: fmt.Sprintf("waiting for %s: %v", p.tx.Hash().Hex(), ctx.Err()),
			}
		case <-ticker.C:
		}
	}
}
