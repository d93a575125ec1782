package settlement

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/vitwit/kycsbt/types"
)

// txFailed keeps the node's message intact so callers can show it verbatim.
func txFailed(method, step string, err error) error {
	msg := err.Error()
	if reason, ok := RevertReason(err); ok {
		msg = fmt.Sprintf("%s: %s", msg, reason)
	}
	return &types.KycError{
		Code:    types.ErrTransactionFailed,
		Message: msg,
		Data:    map[string]string{"method": method, "step": step},
	}
}

// RevertReason decodes an Error(string) revert payload attached to an RPC error.
func RevertReason(err error) (string, bool) {
	var de rpc.DataError
	if !errors.As(err, &de) {
		return "", false
	}
	raw, ok := de.ErrorData().(string)
	if !ok {
		return "", false
	}
	data, decodeErr := hexutil.Decode(raw)
	if decodeErr != nil {
		return "", false
	}
	reason, unpackErr := abi.UnpackRevert(data)
	if unpackErr != nil {
		return "", false
	}
	return reason, true
}
