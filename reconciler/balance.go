package reconciler

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vitwit/kycsbt/clients"
	"github.com/vitwit/kycsbt/logger"
	"github.com/vitwit/kycsbt/metrics"
	"github.com/vitwit/kycsbt/utils"
)

// BalanceTracker follows the native balance of the connected identity.
// Its failures never touch KYC state.
type BalanceTracker struct {
	mu      sync.RWMutex
	reader  clients.BalanceReader
	account common.Address
	balance *big.Int
	network string

	logger  logger.Logger
	metrics metrics.Recorder
}

func NewBalanceTracker(reader clients.BalanceReader, log logger.Logger, rec metrics.Recorder) *BalanceTracker {
	if log == nil {
		log = logger.NoopLogger{}
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &BalanceTracker{reader: reader, logger: log, metrics: rec}
}

// Rebind points the tracker at another network and forgets the old balance.
func (b *BalanceTracker) Rebind(reader clients.BalanceReader, network string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reader = reader
	b.network = network
	b.balance = nil
}

// Update refetches the latest balance of account.
func (b *BalanceTracker) Update(ctx context.Context, account common.Address) error {
	b.mu.RLock()
	reader, network := b.reader, b.network
	b.mu.RUnlock()
	if reader == nil {
		return nil
	}

	bal, err := reader.BalanceAt(ctx, account, nil)
	if err != nil {
		b.metrics.IncCounter(metrics.EventBalanceFailed, map[string]string{"network": network})
		b.logger.Warn("balance refresh failed", map[string]any{"account": account.Hex(), "error": err})
		return err
	}

	b.mu.Lock()
	b.account = account
	b.balance = bal
	b.mu.Unlock()
	return nil
}

// Reset forgets the balance, e.g. after a disconnect.
func (b *BalanceTracker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.account = common.Address{}
	b.balance = nil
}

// Balance returns the last known balance in wei, or nil.
func (b *BalanceTracker) Balance() *big.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.balance == nil {
		return nil
	}
	return new(big.Int).Set(b.balance)
}

// Formatted renders the balance as a native-currency amount.
func (b *BalanceTracker) Formatted() string {
	return utils.FormatWei(b.Balance())
}
