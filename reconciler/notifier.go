package reconciler

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/vitwit/kycsbt/logger"
	"github.com/vitwit/kycsbt/types"
)

type NoticeKind int

const (
	NoticeSubmitted NoticeKind = iota
	NoticeConfirmed
	NoticeFailed
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeSubmitted:
		return "submitted"
	case NoticeConfirmed:
		return "confirmed"
	case NoticeFailed:
		return "failed"
	}
	return "unknown"
}

// Notice is a user-facing message about one write.
type Notice struct {
	Kind    NoticeKind
	Action  types.Action
	OpID    string
	TxHash  common.Hash
	Message string
}

// Notifier surfaces write progress to the user. Notify must not block.
type Notifier interface {
	Notify(n Notice)
}

type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

type noopNotifier struct{}

func (noopNotifier) Notify(Notice) {}

// LogNotifier writes notices to a logger.
type LogNotifier struct {
	Logger logger.Logger
}

func (l LogNotifier) Notify(n Notice) {
	fields := map[string]any{
		"action": n.Action.String(),
		"opId":   n.OpID,
	}
	if n.TxHash != (common.Hash{}) {
		fields["txHash"] = n.TxHash.Hex()
	}
	switch n.Kind {
	case NoticeFailed:
		fields["error"] = n.Message
		l.Logger.Error("kyc "+n.Action.String()+" failed", fields)
	default:
		l.Logger.Info("kyc "+n.Action.String()+" "+n.Kind.String(), fields)
	}
}
