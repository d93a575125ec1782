package reconciler

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vitwit/kycsbt/types"
)

// View is a point-in-time snapshot of the reconciler for rendering.
type View struct {
	Connected   bool                `json:"connected"`
	Identity    *common.Address     `json:"identity,omitempty"`
	Loading     bool                `json:"loading"`
	Processing  bool                `json:"processing"`
	Phase       types.Phase         `json:"-"`
	PhaseText   string              `json:"phase"`
	Action      types.Action        `json:"-"`
	ActionText  string              `json:"action"`
	Record      *types.KycRecord    `json:"record,omitempty"`
	LevelText   string              `json:"level"`
	StatusText  string              `json:"status"`
	CreatedText string              `json:"createdAt"`
	Network     types.NetworkConfig `json:"network"`
	LastError   string              `json:"lastError,omitempty"`
}

// CanRequest, CanRevoke and CanRestore gate the three user actions.
func (v View) CanRequest() bool { return v.enabled(types.ActionRequest) }
func (v View) CanRevoke() bool  { return v.enabled(types.ActionRevoke) }
func (v View) CanRestore() bool { return v.enabled(types.ActionRestore) }

func (v View) enabled(a types.Action) bool {
	return v.Connected && !v.Processing && v.Action == a
}

// ExplorerAddressURL links identity on the network's explorer, or "" when
// no explorer is configured.
func (v View) ExplorerAddressURL() string {
	if v.Network.ExplorerURL == "" || v.Identity == nil {
		return ""
	}
	return strings.TrimRight(v.Network.ExplorerURL, "/") + "/address/" + v.Identity.Hex()
}
