// Package kycsbt keeps a local view of one wallet's KYC soulbound token on
// HashKey Chain and drives its request, revoke and restore writes.
package kycsbt

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/vitwit/kycsbt/clients"
	"github.com/vitwit/kycsbt/config"
	"github.com/vitwit/kycsbt/logger"
	"github.com/vitwit/kycsbt/metrics"
	"github.com/vitwit/kycsbt/network"
	"github.com/vitwit/kycsbt/reconciler"
	"github.com/vitwit/kycsbt/settlement"
	"github.com/vitwit/kycsbt/types"
	"github.com/vitwit/kycsbt/utils"
	"github.com/vitwit/kycsbt/verification"
)

// KycSBT wires configuration, network selection, the registry client and
// the reconciler together.
type KycSBT struct {
	config   *types.Config
	logger   logger.Logger
	metrics  metrics.Recorder
	timeout  time.Duration
	notifier reconciler.Notifier
	store    network.Store
	wallet   clients.Wallet
	dial     func(ctx context.Context, rpcURL string) (clients.Backend, error)

	selector   *network.Selector
	reconciler *reconciler.Reconciler
	balance    *reconciler.BalanceTracker

	mu      sync.RWMutex
	client  *clients.KycSBTClient
	binding *reconciler.Binding
	closed  bool

	closers   []func()
	closeOnce sync.Once
}

// New builds a KycSBT from cfg. A nil cfg uses config.Default(). An
// unreachable RPC endpoint is not fatal: reads and writes report
// CONNECTIVITY until a network switch succeeds in binding.
func New(ctx context.Context, cfg *types.Config, opts ...Option) (*KycSBT, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := utils.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	timeout := 30 * time.Second
	if cfg.DefaultTimeout > 0 {
		timeout = cfg.DefaultTimeout
	}

	k := &KycSBT{
		config:  cfg,
		logger:  logger.NoopLogger{},
		metrics: metrics.NoopRecorder{},
		timeout: timeout,
		dial:    dialEthclient,
	}
	for _, opt := range opts {
		opt(k)
	}

	if k.store == nil {
		store, closer, err := openStore(ctx, cfg.Store)
		if err != nil {
			return nil, err
		}
		k.store = store
		if closer != nil {
			k.closers = append(k.closers, closer)
		}
	}

	selector, err := network.NewSelector(ctx, cfg.Mainnet, cfg.Testnet, k.store, k.logger)
	if err != nil {
		k.Close()
		return nil, err
	}
	k.selector = selector

	if cfg.Chain != "" {
		if err := k.applyConfiguredChain(ctx, cfg.Chain); err != nil {
			k.Close()
			return nil, err
		}
	}

	if k.wallet == nil && cfg.PrivateKey != "" {
		w, err := clients.NewKeyWallet(cfg.PrivateKey)
		if err != nil {
			k.Close()
			return nil, err
		}
		w.Connect()
		k.wallet = w
	}

	ropts := []reconciler.Option{
		reconciler.WithLogger(k.logger),
		reconciler.WithMetrics(k.metrics),
		reconciler.WithSuffix(cfg.Suffix),
	}
	if k.notifier != nil {
		ropts = append(ropts, reconciler.WithNotifier(k.notifier))
	}
	current := k.selector.Current()
	k.reconciler = reconciler.New(nil, current, ropts...)
	k.balance = reconciler.NewBalanceTracker(nil, k.logger, k.metrics)

	k.rebind(ctx, current)
	return k, nil
}

func (k *KycSBT) applyConfiguredChain(ctx context.Context, chain string) error {
	id, err := utils.NormalizeChainIdentifier(chain)
	if err != nil {
		return types.NewError(types.ErrConfigError, err.Error())
	}
	if cur := k.selector.Current().ChainID; cur != nil && *cur == id {
		return nil
	}
	_, err = k.selector.Select(ctx, &id)
	return err
}

// Bind opens a registry client for cfg. It is the binder used by sessions.
func (k *KycSBT) Bind(ctx context.Context, cfg types.NetworkConfig) (*reconciler.Binding, error) {
	client, backend, err := k.open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &reconciler.Binding{
		Ledger:   client,
		Heads:    backend,
		Balances: backend,
		Close:    backend.Close,
	}, nil
}

func (k *KycSBT) open(ctx context.Context, cfg types.NetworkConfig) (*clients.KycSBTClient, clients.Backend, error) {
	dialCtx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()

	backend, err := k.dial(dialCtx, cfg.RPCURL)
	if err != nil {
		return nil, nil, err
	}
	log := logger.With(k.logger, map[string]any{"network": cfg.Name()})
	client, err := clients.NewKycSBTClient(backend, cfg, k.wallet, log,
		settlement.WithTimeout(k.timeout))
	if err != nil {
		backend.Close()
		return nil, nil, err
	}
	return client, backend, nil
}

// rebind swaps the facade's own client for cfg. Failures leave the
// reconciler unbound rather than pointing at the previous network.
func (k *KycSBT) rebind(ctx context.Context, cfg types.NetworkConfig) {
	client, backend, err := k.open(ctx, cfg)
	if err != nil {
		k.logger.Warn("failed to bind network", map[string]any{"network": cfg.Name(), "rpc": cfg.RPCURL, "error": err})
	}

	var binding *reconciler.Binding
	if err == nil {
		binding = &reconciler.Binding{Ledger: client, Heads: backend, Balances: backend, Close: backend.Close}
	}

	k.mu.Lock()
	old := k.binding
	k.binding = binding
	k.client = client
	k.mu.Unlock()

	if old != nil && old.Close != nil {
		old.Close()
	}

	var ledger clients.Ledger
	var balances clients.BalanceReader
	if binding != nil {
		ledger, balances = binding.Ledger, binding.Balances
	}
	k.reconciler.Rebind(cfg, ledger)
	k.balance.Rebind(balances, cfg.Name())
}

// Current returns the live network.
func (k *KycSBT) Current() types.NetworkConfig {
	return k.selector.Current()
}

// Select switches network, persists the choice and rebinds. nil selects
// the testnet defaults.
func (k *KycSBT) Select(ctx context.Context, chainIdentifier *string) (types.NetworkConfig, error) {
	cfg, err := k.selector.Select(ctx, chainIdentifier)
	if err != nil {
		return cfg, err
	}
	k.rebind(ctx, cfg)
	return cfg, nil
}

// Ledger returns the bound registry client, or nil.
func (k *KycSBT) Ledger() clients.Ledger {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.client == nil {
		return nil
	}
	return k.client
}

// Client returns the bound registry client for owner operations.
func (k *KycSBT) Client() (*clients.KycSBTClient, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.client == nil {
		return nil, types.NewError(types.ErrConnectivity, "no ledger bound for "+k.selector.Current().Name())
	}
	return k.client, nil
}

func (k *KycSBT) Networks() *network.Selector         { return k.selector }
func (k *KycSBT) Reconciler() *reconciler.Reconciler  { return k.reconciler }
func (k *KycSBT) Balance() *reconciler.BalanceTracker { return k.balance }
func (k *KycSBT) Wallet() clients.Wallet              { return k.wallet }
func (k *KycSBT) Config() *types.Config               { return k.config }

// Identity is the connected wallet address, if any.
func (k *KycSBT) Identity() (common.Address, bool) {
	if k.wallet == nil {
		return common.Address{}, false
	}
	return k.wallet.Address()
}

// Sync refreshes the reconciler and balance for the connected wallet once.
func (k *KycSBT) Sync(ctx context.Context) error {
	addr, ok := k.Identity()
	if !ok {
		return k.reconciler.Refresh(ctx, nil)
	}
	if err := k.reconciler.Refresh(ctx, &addr); err != nil {
		return err
	}
	_ = k.balance.Update(ctx, addr)
	return nil
}

// Request syncs and then requests KYC for name at level.
func (k *KycSBT) Request(ctx context.Context, name string, level types.KycLevel) (*gethtypes.Receipt, error) {
	if err := k.Sync(ctx); err != nil {
		return nil, err
	}
	return k.reconciler.Request(ctx, name, level)
}

func (k *KycSBT) Revoke(ctx context.Context) (*gethtypes.Receipt, error) {
	if err := k.Sync(ctx); err != nil {
		return nil, err
	}
	return k.reconciler.Revoke(ctx)
}

func (k *KycSBT) Restore(ctx context.Context) (*gethtypes.Receipt, error) {
	if err := k.Sync(ctx); err != nil {
		return nil, err
	}
	return k.reconciler.Restore(ctx)
}

// Verify checks account against the registry of the live network.
func (k *KycSBT) Verify(ctx context.Context, account common.Address, minLevel types.KycLevel) (*verification.Result, error) {
	v, err := k.verifier()
	if err != nil {
		return nil, err
	}
	return v.Verify(ctx, account, minLevel)
}

// BatchVerify verifies multiple accounts concurrently
func (k *KycSBT) BatchVerify(ctx context.Context, accounts []common.Address, minLevel types.KycLevel) ([]*verification.Result, error) {
	if len(accounts) == 0 {
		return nil, types.NewError(types.ErrInvalidInput, "no accounts to verify")
	}
	v, err := k.verifier()
	if err != nil {
		return nil, err
	}
	return v.BatchVerify(ctx, accounts, minLevel)
}

func (k *KycSBT) verifier() (*verification.VerificationService, error) {
	client, err := k.Client()
	if err != nil {
		return nil, err
	}
	return verification.NewVerificationService(client, k.timeout), nil
}

// Session builds a session that follows wallet, network and block events.
// While it runs it rebinds the shared reconciler to its own connections;
// when Run returns the reconciler is bound to the facade's client again.
func (k *KycSBT) Session() (*reconciler.Session, error) {
	if k.wallet == nil {
		return nil, types.NewError(types.ErrNotConnected, "a wallet is required to run a session")
	}
	return reconciler.NewSession(k.reconciler, k.balance, k.wallet, k.selector, k.Bind,
		reconciler.WithPollInterval(k.config.PollInterval),
		reconciler.WithSessionLogger(k.logger),
		reconciler.WithSessionMetrics(k.metrics),
		reconciler.WithOnExit(k.restoreBinding),
	), nil
}

// restoreBinding points the reconciler and balance tracker back at the
// facade's own binding, reopening it if the session moved to another network.
func (k *KycSBT) restoreBinding() {
	cur := k.selector.Current()

	k.mu.RLock()
	b, client, closed := k.binding, k.client, k.closed
	k.mu.RUnlock()

	if closed {
		return
	}
	if b == nil || client == nil || !sameNetwork(client.Network(), cur) {
		ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
		defer cancel()
		k.rebind(ctx, cur)
		return
	}
	k.reconciler.Rebind(cur, b.Ledger)
	k.balance.Rebind(b.Balances, cur.Name())
}

func sameNetwork(a, b types.NetworkConfig) bool {
	return a.IsMainnet == b.IsMainnet && a.RPCURL == b.RPCURL && a.ContractAddress == b.ContractAddress
}

// Close releases the RPC connection and the store.
func (k *KycSBT) Close() {
	k.closeOnce.Do(func() {
		k.mu.Lock()
		b := k.binding
		k.binding, k.client = nil, nil
		k.closed = true
		k.mu.Unlock()

		if b != nil && b.Close != nil {
			b.Close()
		}
		for _, c := range k.closers {
			c()
		}
	})
}

func openStore(ctx context.Context, sc types.StoreConfig) (network.Store, func(), error) {
	switch sc.Driver {
	case "file":
		return network.NewFileStore(sc.Path), nil, nil
	case "redis":
		client, err := network.DialRedis(ctx, sc.RedisURL)
		if err != nil {
			return nil, nil, &types.KycError{Code: types.ErrConnectivity, Message: err.Error()}
		}
		return network.NewRedisStore(client, sc.Prefix), func() { _ = client.Close() }, nil
	case "", "memory":
		return network.NewMemoryStore(), nil, nil
	default:
		return nil, nil, &types.KycError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("unknown store driver %q", sc.Driver),
		}
	}
}

func dialEthclient(ctx context.Context, rpcURL string) (clients.Backend, error) {
	c, err := clients.Dial(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Version information
const Version = "1.0.0"

// GetVersion returns version information
func GetVersion() map[string]interface{} {
	return map[string]interface{}{
		"library_version": Version,
		"supported_networks": []string{
			"eip155:" + types.MainnetChainID,
			"eip155:" + types.TestnetChainID,
		},
		"requestable_levels": []string{
			types.LevelBasic.String(),
			types.LevelAdvanced.String(),
			types.LevelPremium.String(),
			types.LevelUltimate.String(),
		},
	}
}
