package types

// Phase is where one identity stands in its KYC lifecycle.
type Phase int

const (
	PhaseDisconnected Phase = iota
	PhaseUnregistered
	PhaseActive
	PhaseRevoked
)

func (p Phase) String() string {
	switch p {
	case PhaseDisconnected:
		return "disconnected"
	case PhaseUnregistered:
		return "unregistered"
	case PhaseActive:
		return "active"
	case PhaseRevoked:
		return "revoked"
	default:
		return "unknown"
	}
}

// Action is the single write a phase allows.
type Action int

const (
	ActionNone Action = iota
	ActionRequest
	ActionRevoke
	ActionRestore
)

func (a Action) String() string {
	switch a {
	case ActionRequest:
		return "request"
	case ActionRevoke:
		return "revoke"
	case ActionRestore:
		return "restore"
	default:
		return "none"
	}
}

// Action returns the only write permitted from p.
func (p Phase) Action() Action {
	switch p {
	case PhaseUnregistered:
		return ActionRequest
	case PhaseActive:
		return ActionRevoke
	case PhaseRevoked:
		return ActionRestore
	default:
		return ActionNone
	}
}

// DerivePhase maps a fetched record onto the lifecycle. A registered record
// that is not revoked counts as active, whatever its raw status code.
func DerivePhase(connected bool, record *KycRecord) Phase {
	switch {
	case !connected:
		return PhaseDisconnected
	case record == nil || !record.Registered():
		return PhaseUnregistered
	case record.Status == StatusRevoked:
		return PhaseRevoked
	default:
		return PhaseActive
	}
}
