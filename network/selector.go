package network

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/event"
	"github.com/vitwit/kycsbt/logger"
	"github.com/vitwit/kycsbt/types"
	"github.com/vitwit/kycsbt/utils"
)

// Selector owns the single live NetworkConfig of the process.
type Selector struct {
	mainnet types.NetworkEndpoints
	testnet types.NetworkEndpoints
	store   Store
	logger  logger.Logger

	// selectMu orders persist and publish of concurrent switches.
	selectMu sync.Mutex

	mu      sync.RWMutex
	current types.NetworkConfig

	feed event.Feed
}

// NewSelector restores the persisted selection, falling back to the
// testnet defaults when nothing was saved.
func NewSelector(ctx context.Context, mainnet, testnet types.NetworkEndpoints, store Store, log logger.Logger) (*Selector, error) {
	for _, ep := range []types.NetworkEndpoints{mainnet, testnet} {
		if err := utils.ValidateEndpoints(ep); err != nil {
			return nil, err
		}
	}
	if store == nil {
		store = NewMemoryStore()
	}
	if log == nil {
		log = logger.NoopLogger{}
	}

	s := &Selector{
		mainnet: mainnet,
		testnet: testnet,
		store:   store,
		logger:  log,
		current: types.DeriveNetwork(nil, mainnet, testnet),
	}

	saved, ok, err := store.Load(ctx)
	if err != nil {
		return nil, &types.KycError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("failed to load network selection: %v", err),
		}
	}
	if ok {
		s.current = saved
		log.Debug("restored network selection", map[string]any{"network": saved.Name(), "chainId": saved.NetworkID()})
	}
	return s, nil
}

// Current returns the live configuration.
func (s *Selector) Current() types.NetworkConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneConfig(s.current)
}

// Select switches to the network named by chainIdentifier ("eip155:177").
// nil selects the testnet defaults. The new value is persisted before it
// becomes live; if persisting fails nothing changes.
func (s *Selector) Select(ctx context.Context, chainIdentifier *string) (types.NetworkConfig, error) {
	cfg := types.DeriveNetwork(chainIdentifier, s.mainnet, s.testnet)

	s.selectMu.Lock()
	defer s.selectMu.Unlock()

	if err := s.store.Save(ctx, cfg); err != nil {
		return s.Current(), &types.KycError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("failed to persist network selection: %v", err),
		}
	}

	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()

	s.logger.Info("network selected", map[string]any{
		"network":  cfg.Name(),
		"chainId":  cfg.NetworkID(),
		"contract": cfg.ContractAddress,
	})

	s.feed.Send(cloneConfig(cfg))
	return cloneConfig(cfg), nil
}

// Subscribe delivers every switch to ch until the subscription is cancelled.
// Sends block until ch accepts, so subscribers should buffer or drain
// promptly.
func (s *Selector) Subscribe(ch chan<- types.NetworkConfig) ethereum.Subscription {
	return s.feed.Subscribe(ch)
}
