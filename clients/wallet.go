package clients

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/vitwit/kycsbt/types"
	"github.com/vitwit/kycsbt/utils"
)

// AccountChange is published when the wallet's active account changes.
// Connected is false after a disconnect.
type AccountChange struct {
	Address   common.Address
	Connected bool
}

// Wallet is the signing identity. It never exposes key material.
type Wallet interface {
	Address() (common.Address, bool)
	SubscribeAccounts(ch chan<- AccountChange) ethereum.Subscription
	SignTx(tx *gethtypes.Transaction, chainID *big.Int) (*gethtypes.Transaction, error)
}

var _ Wallet = (*KeyWallet)(nil)

// KeyWallet signs with a local secp256k1 key.
type KeyWallet struct {
	mu        sync.RWMutex
	key       *ecdsa.PrivateKey
	address   common.Address
	connected bool

	feed event.Feed
}

// NewKeyWallet returns a disconnected wallet for hexKey.
func NewKeyWallet(hexKey string) (*KeyWallet, error) {
	key, err := utils.PrivateKeyFromHex(hexKey)
	if err != nil {
		return nil, &types.KycError{Code: types.ErrConfigError, Message: err.Error()}
	}
	return &KeyWallet{
		key:     key,
		address: utils.AddressFromPrivateKey(key),
	}, nil
}

// Connect exposes the account and notifies subscribers.
func (w *KeyWallet) Connect() {
	w.mu.Lock()
	if w.connected {
		w.mu.Unlock()
		return
	}
	w.connected = true
	addr := w.address
	w.mu.Unlock()

	w.feed.Send(AccountChange{Address: addr, Connected: true})
}

// Disconnect hides the account and notifies subscribers.
func (w *KeyWallet) Disconnect() {
	w.mu.Lock()
	if !w.connected {
		w.mu.Unlock()
		return
	}
	w.connected = false
	w.mu.Unlock()

	w.feed.Send(AccountChange{})
}

func (w *KeyWallet) Address() (common.Address, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.connected {
		return common.Address{}, false
	}
	return w.address, true
}

func (w *KeyWallet) SubscribeAccounts(ch chan<- AccountChange) ethereum.Subscription {
	return w.feed.Subscribe(ch)
}

func (w *KeyWallet) SignTx(tx *gethtypes.Transaction, chainID *big.Int) (*gethtypes.Transaction, error) {
	w.mu.RLock()
	connected := w.connected
	w.mu.RUnlock()
	if !connected {
		return nil, types.NewError(types.ErrNotConnected, "wallet is disconnected")
	}
	if chainID == nil {
		return nil, fmt.Errorf("chain id is required for signing")
	}
	return gethtypes.SignTx(tx, gethtypes.LatestSignerForChainID(chainID), w.key)
}
