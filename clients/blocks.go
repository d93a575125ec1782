package clients

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/vitwit/kycsbt/logger"
)

// HeadSource is what BlockWatcher needs from a Backend.
type HeadSource interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*gethtypes.Header, error)
	SubscribeNewHead(ctx context.Context, ch chan<- *gethtypes.Header) (ethereum.Subscription, error)
}

// BlockWatcher delivers new heads of one network.
type BlockWatcher struct {
	source   HeadSource
	interval time.Duration
	logger   logger.Logger
}

func NewBlockWatcher(source HeadSource, interval time.Duration, log logger.Logger) *BlockWatcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &BlockWatcher{source: source, interval: interval, logger: log}
}

// WatchBlocks pushes every new head into ch until the subscription is
// cancelled. Transports without push support are polled instead.
func (w *BlockWatcher) WatchBlocks(ctx context.Context, ch chan<- *gethtypes.Header) (ethereum.Subscription, error) {
	sub, err := w.source.SubscribeNewHead(ctx, ch)
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, rpc.ErrNotificationsUnsupported) {
		w.logger.Debug("head subscription unavailable, polling", map[string]any{"error": err})
	}
	return w.poll(ch), nil
}

func (w *BlockWatcher) poll(ch chan<- *gethtypes.Header) ethereum.Subscription {
	return event.NewSubscription(func(quit <-chan struct{}) error {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		var last *big.Int
		for {
			ctx, cancel := context.WithTimeout(context.Background(), w.interval)
			head, err := w.source.HeaderByNumber(ctx, nil)
			cancel()

			switch {
			case err != nil:
				w.logger.Warn("failed to poll latest header", map[string]any{"error": err})
			case head != nil && (last == nil || head.Number.Cmp(last) > 0):
				last = new(big.Int).Set(head.Number)
				select {
				case ch <- head:
				case <-quit:
					return nil
				}
			}

			select {
			case <-quit:
				return nil
			case <-ticker.C:
			}
		}
	})
}
