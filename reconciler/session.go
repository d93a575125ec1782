package reconciler

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/vitwit/kycsbt/clients"
	"github.com/vitwit/kycsbt/logger"
	"github.com/vitwit/kycsbt/metrics"
	"github.com/vitwit/kycsbt/types"
)

// Binding is everything tied to one network's RPC endpoint.
type Binding struct {
	Ledger   clients.Ledger
	Heads    clients.HeadSource
	Balances clients.BalanceReader
	Close    func()
}

// Binder opens a Binding for cfg.
type Binder func(ctx context.Context, cfg types.NetworkConfig) (*Binding, error)

// NetworkSource is the live network selection.
type NetworkSource interface {
	Current() types.NetworkConfig
	Subscribe(ch chan<- types.NetworkConfig) ethereum.Subscription
}

// Session drives a Reconciler from wallet, network and block events. All
// triggers are handled on the goroutine calling Run, one at a time.
type Session struct {
	reconciler *Reconciler
	balance    *BalanceTracker
	wallet     clients.Wallet
	networks   NetworkSource
	bind       Binder

	pollInterval time.Duration
	logger       logger.Logger
	metrics      metrics.Recorder
	onExit       func()
}

type SessionOption func(*Session)

func WithPollInterval(d time.Duration) SessionOption {
	return func(s *Session) {
		s.pollInterval = d
	}
}

func WithSessionLogger(l logger.Logger) SessionOption {
	return func(s *Session) {
		s.logger = l
	}
}

func WithSessionMetrics(m metrics.Recorder) SessionOption {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithOnExit runs fn after Run has closed its own binding, so the owner
// can point the reconciler back at a live ledger.
func WithOnExit(fn func()) SessionOption {
	return func(s *Session) {
		s.onExit = fn
	}
}

func NewSession(r *Reconciler, b *BalanceTracker, wallet clients.Wallet, networks NetworkSource, bind Binder, opts ...SessionOption) *Session {
	s := &Session{
		reconciler:   r,
		balance:      b,
		wallet:       wallet,
		networks:     networks,
		bind:         bind,
		pollInterval: 2 * time.Second,
		logger:       logger.NoopLogger{},
		metrics:      metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) Reconciler() *Reconciler  { return s.reconciler }
func (s *Session) Balance() *BalanceTracker { return s.balance }

// Run blocks until ctx is done. Every subscription it opens is closed
// before it returns.
func (s *Session) Run(ctx context.Context) error {
	if s.onExit != nil {
		defer s.onExit()
	}

	accounts := make(chan clients.AccountChange, 8)
	accountSub := s.wallet.SubscribeAccounts(accounts)
	defer accountSub.Unsubscribe()

	networks := make(chan types.NetworkConfig, 4)
	networkSub := s.networks.Subscribe(networks)
	defer networkSub.Unsubscribe()

	cfg := s.networks.Current()
	binding, err := s.bind(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if binding != nil && binding.Close != nil {
			binding.Close()
		}
	}()
	s.apply(cfg, binding)

	heads := make(chan *gethtypes.Header, 1)
	var headSub ethereum.Subscription
	stopHeads := func() {
		if headSub != nil {
			headSub.Unsubscribe()
			headSub = nil
		}
	}
	defer stopHeads()

	startHeads := func() {
		if headSub != nil || binding == nil || binding.Heads == nil {
			return
		}
		watcher := clients.NewBlockWatcher(binding.Heads, s.pollInterval, s.logger)
		sub, err := watcher.WatchBlocks(ctx, heads)
		if err != nil {
			s.logger.Warn("block watch failed", map[string]any{"error": err})
			return
		}
		headSub = sub
	}

	identity := s.identity()
	s.sync(ctx, identity)
	if identity != nil {
		startHeads()
	}

	for {
		var headErr <-chan error
		if headSub != nil {
			headErr = headSub.Err()
		}

		select {
		case <-ctx.Done():
			return nil

		case change := <-accounts:
			if !change.Connected {
				identity = nil
				stopHeads()
				s.balance.Reset()
				_ = s.reconciler.Refresh(ctx, nil)
				continue
			}
			addr := change.Address
			identity = &addr
			s.sync(ctx, identity)
			startHeads()

		case next := <-networks:
			stopHeads()
			if binding != nil && binding.Close != nil {
				binding.Close()
			}
			binding, err = s.bind(ctx, next)
			if err != nil {
				s.logger.Error("failed to bind network", map[string]any{"network": next.Name(), "error": err})
				binding = nil
			}
			s.apply(next, binding)
			s.sync(ctx, identity)
			if identity != nil {
				startHeads()
			}

		case head := <-heads:
			s.metrics.IncCounter(metrics.EventNewBlock, map[string]string{"network": s.reconciler.View().Network.Name()})
			s.logger.Debug("new block", map[string]any{"number": head.Number.String()})
			if identity != nil {
				s.sync(ctx, identity)
			}

		case err := <-headErr:
			s.logger.Warn("block subscription ended", map[string]any{"error": err})
			headSub = nil
			if identity != nil {
				startHeads()
			}
		}
	}
}

func (s *Session) apply(cfg types.NetworkConfig, b *Binding) {
	var ledger clients.Ledger
	var balances clients.BalanceReader
	if b != nil {
		ledger, balances = b.Ledger, b.Balances
	}
	s.reconciler.Rebind(cfg, ledger)
	s.balance.Rebind(balances, cfg.Name())
}

// sync refreshes KYC state and balance for identity. Errors are logged by
// the reconciler and tracker and do not stop the session.
func (s *Session) sync(ctx context.Context, identity *common.Address) {
	if err := s.reconciler.Refresh(ctx, identity); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Debug("refresh failed", map[string]any{"error": err})
	}
	if identity != nil {
		_ = s.balance.Update(ctx, *identity)
	}
}

func (s *Session) identity() *common.Address {
	addr, ok := s.wallet.Address()
	if !ok {
		return nil
	}
	return &addr
}
