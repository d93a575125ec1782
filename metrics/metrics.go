package metrics

import "time"

// Event names recorded by the reconciler and the ledger client.
const (
	EventRefreshOK     = "refresh_ok"
	EventRefreshFailed = "refresh_failed"
	EventWriteOK       = "write_ok"
	EventWriteFailed   = "write_failed"
	EventWriteRejected = "write_rejected"
	EventBalanceFailed = "balance_failed"
	EventNewBlock      = "new_block"
	EventHTTPError     = "http_error"
)

type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}

// NoopRecorder discards everything. It is the default for every component
// built without WithMetrics.
type NoopRecorder struct{}

var _ Recorder = NoopRecorder{}

func (NoopRecorder) IncCounter(string, map[string]string)                    {}
func (NoopRecorder) ObserveLatency(string, time.Duration, map[string]string) {}
