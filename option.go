package kycsbt

import (
	"context"
	"time"

	"github.com/vitwit/kycsbt/clients"
	"github.com/vitwit/kycsbt/logger"
	"github.com/vitwit/kycsbt/metrics"
	"github.com/vitwit/kycsbt/network"
	"github.com/vitwit/kycsbt/reconciler"
)

type Option func(*KycSBT)

func WithLogger(l logger.Logger) Option {
	return func(k *KycSBT) {
		k.logger = l
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(k *KycSBT) {
		k.metrics = r
	}
}

func WithTimeout(t time.Duration) Option {
	return func(k *KycSBT) {
		k.timeout = t
	}
}

// WithStore overrides the store named in the configuration.
func WithStore(s network.Store) Option {
	return func(k *KycSBT) {
		k.store = s
	}
}

// WithWallet overrides the key wallet built from the configured private key.
func WithWallet(w clients.Wallet) Option {
	return func(k *KycSBT) {
		k.wallet = w
	}
}

func WithNotifier(n reconciler.Notifier) Option {
	return func(k *KycSBT) {
		k.notifier = n
	}
}

// WithDialer replaces how RPC endpoints are opened.
func WithDialer(d func(ctx context.Context, rpcURL string) (clients.Backend, error)) Option {
	return func(k *KycSBT) {
		k.dial = d
	}
}
