package reconciler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/vitwit/kycsbt/clients"
	"github.com/vitwit/kycsbt/logger"
	"github.com/vitwit/kycsbt/metrics"
	"github.com/vitwit/kycsbt/types"
	"github.com/vitwit/kycsbt/utils"
)

// Reconciler keeps a cached KYC record for one identity in step with the
// registry and drives the request/revoke/restore state machine.
type Reconciler struct {
	mu       sync.RWMutex
	ledger   clients.Ledger
	network  types.NetworkConfig
	identity *common.Address
	record   *types.KycRecord
	phase    types.Phase
	loading  bool
	lastErr  string
	// gen changes whenever the identity or the ledger does, so results
	// fetched for an older binding are dropped.
	gen uint64

	processing atomic.Bool

	suffix   string
	logger   logger.Logger
	metrics  metrics.Recorder
	notifier Notifier
}

type Option func(*Reconciler)

func WithLogger(l logger.Logger) Option {
	return func(r *Reconciler) {
		r.logger = l
	}
}

func WithMetrics(m metrics.Recorder) Option {
	return func(r *Reconciler) {
		r.metrics = m
	}
}

func WithNotifier(n Notifier) Option {
	return func(r *Reconciler) {
		r.notifier = n
	}
}

// WithSuffix sets the suffix appended to requested names.
func WithSuffix(s string) Option {
	return func(r *Reconciler) {
		r.suffix = s
	}
}

// New creates a reconciler bound to ledger on network. It starts
// disconnected.
func New(ledger clients.Ledger, network types.NetworkConfig, opts ...Option) *Reconciler {
	r := &Reconciler{
		ledger:   ledger,
		network:  network,
		phase:    types.PhaseDisconnected,
		suffix:   types.DefaultSuffix,
		logger:   logger.NoopLogger{},
		metrics:  metrics.NoopRecorder{},
		notifier: noopNotifier{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rebind switches to another network's ledger. The cached record stays
// until the next refresh replaces it.
func (r *Reconciler) Rebind(network types.NetworkConfig, ledger clients.Ledger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.network = network
	r.ledger = ledger
	r.loading = false
	r.gen++
}

// Refresh refetches the record of identity. nil means no identity is
// connected. On failure the previous record is kept.
func (r *Reconciler) Refresh(ctx context.Context, identity *common.Address) error {
	r.mu.Lock()
	if identity == nil {
		if r.identity != nil {
			r.gen++
		}
		r.identity = nil
		r.record = nil
		r.loading = false
		r.lastErr = ""
		r.phase = types.PhaseDisconnected
		r.mu.Unlock()
		return nil
	}

	id := *identity
	if r.identity == nil || *r.identity != id {
		// never show one identity's record for another
		r.identity = &id
		r.record = nil
		r.phase = types.DerivePhase(true, nil)
		r.gen++
	}
	ledger, gen, network := r.ledger, r.gen, r.network.Name()
	r.loading = true
	r.mu.Unlock()

	if ledger == nil {
		return r.finishRefresh(gen, nil, types.NewError(types.ErrConnectivity, "no ledger bound for "+network))
	}

	start := time.Now()
	rec, err := ledger.GetKycInfo(ctx, id)
	r.metrics.ObserveLatency("refresh", time.Since(start), map[string]string{"network": network})

	if err != nil {
		r.metrics.IncCounter(metrics.EventRefreshFailed, map[string]string{"network": network})
		r.logger.Warn("kyc refresh failed", map[string]any{
			"identity": id.Hex(),
			"network":  network,
			"error":    err,
		})
		return r.finishRefresh(gen, nil, readFailed(err))
	}

	r.metrics.IncCounter(metrics.EventRefreshOK, map[string]string{"network": network})
	r.logger.Debug("kyc record refreshed", map[string]any{
		"identity": id.Hex(),
		"ensName":  rec.EnsName,
		"level":    rec.Level.String(),
		"status":   rec.Status.String(),
	})
	return r.finishRefresh(gen, &rec, nil)
}

func (r *Reconciler) finishRefresh(gen uint64, rec *types.KycRecord, err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.gen {
		// identity or network changed while fetching
		return err
	}
	r.loading = false
	if err != nil {
		r.lastErr = err.Error()
		return err
	}
	r.record = rec
	r.phase = types.DerivePhase(true, rec)
	r.lastErr = ""
	return nil
}

// Request registers name (suffix appended) at level, paying the fee the
// registry quotes. Valid only while unregistered.
func (r *Reconciler) Request(ctx context.Context, name string, level types.KycLevel) (*gethtypes.Receipt, error) {
	if err := utils.ValidateRequest(name, level); err != nil {
		return nil, err
	}
	fullName := name + r.suffix

	return r.write(ctx, types.ActionRequest, types.PhaseActive, func(ctx context.Context, ledger clients.Ledger, _ common.Address) (clients.PendingTx, error) {
		fee, err := ledger.GetTotalFee(ctx)
		if err != nil {
			return nil, err
		}
		r.logger.Info("requesting kyc", map[string]any{
			"ensName": fullName,
			"level":   level.String(),
			"fee":     utils.FormatWei(fee),
		})
		return ledger.RequestKyc(ctx, fullName, level, fee)
	})
}

// Revoke revokes the connected identity's own KYC. Valid only while active.
func (r *Reconciler) Revoke(ctx context.Context) (*gethtypes.Receipt, error) {
	return r.write(ctx, types.ActionRevoke, types.PhaseRevoked, func(ctx context.Context, ledger clients.Ledger, self common.Address) (clients.PendingTx, error) {
		return ledger.RevokeKyc(ctx, self)
	})
}

// Restore restores a revoked KYC. Valid only while revoked.
func (r *Reconciler) Restore(ctx context.Context) (*gethtypes.Receipt, error) {
	return r.write(ctx, types.ActionRestore, types.PhaseActive, func(ctx context.Context, ledger clients.Ledger, self common.Address) (clients.PendingTx, error) {
		return ledger.RestoreKyc(ctx, self)
	})
}

type submitFunc func(ctx context.Context, ledger clients.Ledger, self common.Address) (clients.PendingTx, error)

func (r *Reconciler) write(ctx context.Context, action types.Action, next types.Phase, submit submitFunc) (*gethtypes.Receipt, error) {
	if !r.processing.CompareAndSwap(false, true) {
		r.metrics.IncCounter(metrics.EventWriteRejected, map[string]string{"network": r.View().Network.Name()})
		return nil, types.NewError(types.ErrWriteInFlight, "another transaction is still being processed")
	}
	defer r.processing.Store(false)

	r.mu.RLock()
	identity, phase, ledger, gen, network := r.identity, r.phase, r.ledger, r.gen, r.network.Name()
	r.mu.RUnlock()

	if identity == nil {
		return nil, types.NewError(types.ErrNotConnected, "connect a wallet first")
	}
	if phase.Action() != action {
		r.metrics.IncCounter(metrics.EventWriteRejected, map[string]string{"network": network})
		return nil, &types.KycError{
			Code:    types.ErrInvalidTransition,
			Message: fmt.Sprintf("cannot %s while %s", action, phase),
		}
	}
	if ledger == nil {
		return nil, types.NewError(types.ErrConnectivity, "no ledger bound for "+network)
	}

	self := *identity
	opID := uuid.NewString()
	labels := map[string]string{"network": network}
	start := time.Now()

	tx, err := submit(ctx, ledger, self)
	if err != nil {
		return nil, r.fail(action, opID, common.Hash{}, labels, err)
	}
	r.notifier.Notify(Notice{Kind: NoticeSubmitted, Action: action, OpID: opID, TxHash: tx.Hash()})

	receipt, err := tx.Wait(ctx)
	if err != nil {
		return receipt, r.fail(action, opID, tx.Hash(), labels, err)
	}
	r.metrics.ObserveLatency(action.String(), time.Since(start), labels)
	r.metrics.IncCounter(metrics.EventWriteOK, labels)

	r.mu.Lock()
	if r.gen == gen {
		r.phase = next
	}
	r.mu.Unlock()

	r.notifier.Notify(Notice{
		Kind:    NoticeConfirmed,
		Action:  action,
		OpID:    opID,
		TxHash:  tx.Hash(),
		Message: fmt.Sprintf("%s confirmed in block %v", action, receipt.BlockNumber),
	})

	if err := r.Refresh(ctx, &self); err != nil {
		r.logger.Warn("refresh after write failed", map[string]any{"opId": opID, "error": err})
	}
	return receipt, nil
}

func (r *Reconciler) fail(action types.Action, opID string, hash common.Hash, labels map[string]string, err error) error {
	r.metrics.IncCounter(metrics.EventWriteFailed, labels)
	r.logger.Error("kyc write failed", map[string]any{
		"action": action.String(),
		"opId":   opID,
		"error":  err,
	})
	r.notifier.Notify(Notice{Kind: NoticeFailed, Action: action, OpID: opID, TxHash: hash, Message: err.Error()})

	if types.HasCode(err, types.ErrTransactionFailed) || types.HasCode(err, types.ErrNotConnected) || types.HasCode(err, types.ErrReadFailed) {
		return err
	}
	return &types.KycError{Code: types.ErrTransactionFailed, Message: err.Error()}
}

// View returns a snapshot for rendering.
func (r *Reconciler) View() View {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v := View{
		Connected:  r.identity != nil,
		Loading:    r.loading,
		Processing: r.processing.Load(),
		Phase:      r.phase,
		Action:     r.phase.Action(),
		Network:    r.network,
		LastError:  r.lastErr,
	}
	if r.network.ChainID != nil {
		chainID := *r.network.ChainID
		v.Network.ChainID = &chainID
	}
	v.PhaseText = v.Phase.String()
	v.ActionText = v.Action.String()

	if r.identity != nil {
		id := *r.identity
		v.Identity = &id
	}

	var rec types.KycRecord
	if r.record != nil {
		rec = *r.record
		v.Record = &rec
	}
	v.LevelText = rec.Level.String()
	v.StatusText = rec.Status.String()
	v.CreatedText = rec.CreatedText()
	return v
}

func readFailed(err error) error {
	if types.HasCode(err, types.ErrReadFailed) || types.HasCode(err, types.ErrConnectivity) {
		return err
	}
	return &types.KycError{Code: types.ErrReadFailed, Message: err.Error()}
}
