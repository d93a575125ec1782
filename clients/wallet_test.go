package clients_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitwit/kycsbt/clients"
	"github.com/vitwit/kycsbt/types"
)

func TestKeyWallet_ConnectDisconnect(t *testing.T) {
	w, err := clients.NewKeyWallet("0x" + userKey)
	require.NoError(t, err)

	_, ok := w.Address()
	assert.False(t, ok)

	ch := make(chan clients.AccountChange, 4)
	sub := w.SubscribeAccounts(ch)
	defer sub.Unsubscribe()

	w.Connect()
	w.Connect()
	addr, ok := w.Address()
	require.True(t, ok)
	assert.Equal(t, userAddress, addr)

	w.Disconnect()
	_, ok = w.Address()
	assert.False(t, ok)

	assert.Equal(t, clients.AccountChange{Address: userAddress, Connected: true}, <-ch)
	assert.Equal(t, clients.AccountChange{}, <-ch)
	select {
	case extra := <-ch:
		t.Fatalf("unexpected account change %+v", extra)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestKeyWallet_InvalidKey(t *testing.T) {
	_, err := clients.NewKeyWallet("not-a-key")
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.ErrConfigError))
}

func TestKeyWallet_SignTx(t *testing.T) {
	w, err := clients.NewKeyWallet(userKey)
	require.NoError(t, err)
	chainID := big.NewInt(anvilChainID)
	tx := gethtypes.NewTransaction(0, common.HexToAddress(contract), big.NewInt(1), 21000, big.NewInt(1), nil)

	_, err = w.SignTx(tx, chainID)
	assert.True(t, types.HasCode(err, types.ErrNotConnected))

	w.Connect()
	signed, err := w.SignTx(tx, chainID)
	require.NoError(t, err)
	from, err := gethtypes.Sender(gethtypes.LatestSignerForChainID(chainID), signed)
	require.NoError(t, err)
	assert.Equal(t, userAddress, from)
}
