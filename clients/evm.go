package clients

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/vitwit/kycsbt/types"
)

var _ Backend = (*ethclient.Client)(nil)

// Dial connects to an RPC endpoint and checks it answers. There is no retry.
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	if rpcURL == "" {
		return nil, types.NewError(types.ErrConfigError, "rpc url is empty")
	}

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, &types.KycError{
			Code:    types.ErrConnectivity,
			Message: fmt.Sprintf("failed to connect to RPC %s: %v", rpcURL, err),
		}
	}

	// http transports connect lazily; make one round trip so a dead endpoint fails here.
	if _, err := client.ChainID(ctx); err != nil {
		client.Close()
		return nil, &types.KycError{
			Code:    types.ErrConnectivity,
			Message: fmt.Sprintf("RPC %s unreachable: %v", rpcURL, err),
		}
	}

	return client, nil
}
