package clients_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitwit/kycsbt/clients"
	"github.com/vitwit/kycsbt/clients/mocks"
	"github.com/vitwit/kycsbt/settlement"
	"github.com/vitwit/kycsbt/types"
)

const (
	anvilChainID = 1337

	ownerKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	userKey  = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
)

var (
	ownerAddress = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	userAddress  = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	contract     = "0xA45f42F09A7Ae50e556467cf65cF3Cf45711114E"
)

func testnet() types.NetworkConfig {
	id := "eip155:133"
	return types.NetworkConfig{ChainID: &id, ContractAddress: contract, RPCURL: "http://127.0.0.1:8545"}
}

func newClient(t *testing.T, reg *mocks.Registry, key string) (*clients.KycSBTClient, *clients.KeyWallet) {
	t.Helper()
	var wallet *clients.KeyWallet
	var w clients.Wallet
	if key != "" {
		var err error
		wallet, err = clients.NewKeyWallet(key)
		require.NoError(t, err)
		wallet.Connect()
		w = wallet
	}
	c, err := clients.NewKycSBTClient(reg, testnet(), w, nil, settlement.WithPollInterval(5*time.Millisecond))
	require.NoError(t, err)
	return c, wallet
}

func TestKycSBTClient_InvalidContractAddress(t *testing.T) {
	cfg := testnet()
	cfg.ContractAddress = ""
	_, err := clients.NewKycSBTClient(mocks.NewRegistry(anvilChainID, ownerAddress), cfg, nil, nil)
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.ErrConfigError))
}

func TestKycSBTClient_GetKycInfo(t *testing.T) {
	ctx := context.Background()
	reg := mocks.NewRegistry(anvilChainID, ownerAddress)
	c, _ := newClient(t, reg, "")

	rec, err := c.GetKycInfo(ctx, userAddress)
	require.NoError(t, err)
	assert.False(t, rec.Registered())
	assert.Equal(t, types.StatusNone, rec.Status)
	assert.Equal(t, int64(0), rec.CreateTime.Int64())

	reg.SetRecord(userAddress, types.KycRecord{
		EnsName:    "alice.hsk",
		Level:      types.LevelPremium,
		Status:     types.StatusApproved,
		CreateTime: big.NewInt(1700000000),
	})
	rec, err = c.GetKycInfo(ctx, userAddress)
	require.NoError(t, err)
	assert.Equal(t, "alice.hsk", rec.EnsName)
	assert.Equal(t, types.LevelPremium, rec.Level)
	assert.Equal(t, types.StatusApproved, rec.Status)
	assert.Equal(t, int64(1700000000), rec.CreateTime.Int64())
}

func TestKycSBTClient_GetKycInfoKeepsUnknownEnums(t *testing.T) {
	reg := mocks.NewRegistry(anvilChainID, ownerAddress)
	c, _ := newClient(t, reg, "")
	reg.SetRecord(userAddress, types.KycRecord{EnsName: "bob.hsk", Level: 7, Status: 9, CreateTime: big.NewInt(1)})

	rec, err := c.GetKycInfo(context.Background(), userAddress)
	require.NoError(t, err)
	assert.Equal(t, types.KycLevel(7), rec.Level)
	assert.Equal(t, types.KycStatus(9), rec.Status)
	assert.Equal(t, "Unknown", rec.Level.String())
	assert.Equal(t, "Unknown", rec.Status.String())
}

func TestKycSBTClient_ReadFailure(t *testing.T) {
	reg := mocks.NewRegistry(anvilChainID, ownerAddress)
	c, _ := newClient(t, reg, "")
	reg.SetCallErr(errors.New("connection refused"))

	_, err := c.GetKycInfo(context.Background(), userAddress)
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.ErrReadFailed))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestKycSBTClient_Views(t *testing.T) {
	ctx := context.Background()
	reg := mocks.NewRegistry(anvilChainID, ownerAddress)
	c, _ := newClient(t, reg, "")

	fee, err := c.GetTotalFee(ctx)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(3e15), fee)

	cfg, err := c.ContractConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1e15), cfg.RegistrationFee)
	assert.Equal(t, big.NewInt(2e15), cfg.EnsFee)
	assert.Equal(t, int64(3), cfg.MinNameLength.Int64())
	assert.Equal(t, ".hsk", cfg.Suffix)
	assert.Equal(t, int64(365*24*3600), cfg.ValidityPeriod.Int64())

	owner, err := c.Owner(ctx)
	require.NoError(t, err)
	assert.Equal(t, ownerAddress, owner)

	human, err := c.IsHuman(ctx, userAddress)
	require.NoError(t, err)
	assert.False(t, human.IsValid)

	reg.SetRecord(userAddress, types.KycRecord{EnsName: "alice.hsk", Level: types.LevelAdvanced, Status: types.StatusApproved})
	human, err = c.IsHuman(ctx, userAddress)
	require.NoError(t, err)
	assert.True(t, human.IsValid)
	assert.Equal(t, types.LevelAdvanced, human.Level)
}

func TestKycSBTClient_RequestRevokeRestore(t *testing.T) {
	ctx := context.Background()
	reg := mocks.NewRegistry(anvilChainID, ownerAddress)
	reg.ReceiptDelay = 2
	c, _ := newClient(t, reg, userKey)

	fee, err := c.GetTotalFee(ctx)
	require.NoError(t, err)

	tx, err := c.RequestKyc(ctx, "alice.hsk", types.LevelBasic, fee)
	require.NoError(t, err)
	receipt, err := tx.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, tx.Hash(), receipt.TxHash)

	sent := reg.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, fee, sent[0].Value())
	assert.Equal(t, common.HexToAddress(contract), *sent[0].To())
	assert.Equal(t, fee, reg.Collected())

	rec, err := c.GetKycInfo(ctx, userAddress)
	require.NoError(t, err)
	assert.Equal(t, "alice.hsk", rec.EnsName)
	assert.Equal(t, types.StatusApproved, rec.Status)

	tx, err = c.RevokeKyc(ctx, userAddress)
	require.NoError(t, err)
	_, err = tx.Wait(ctx)
	require.NoError(t, err)
	rec, _ = c.GetKycInfo(ctx, userAddress)
	assert.Equal(t, types.StatusRevoked, rec.Status)

	tx, err = c.RestoreKyc(ctx, userAddress)
	require.NoError(t, err)
	_, err = tx.Wait(ctx)
	require.NoError(t, err)
	rec, _ = c.GetKycInfo(ctx, userAddress)
	assert.Equal(t, types.StatusApproved, rec.Status)
	assert.Len(t, reg.Sent(), 3)
}

func TestKycSBTClient_RevertSurfacesBeforeSend(t *testing.T) {
	ctx := context.Background()
	reg := mocks.NewRegistry(anvilChainID, ownerAddress)
	c, _ := newClient(t, reg, userKey)

	_, err := c.RevokeKyc(ctx, userAddress)
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.ErrTransactionFailed))
	assert.Contains(t, err.Error(), "KYC not approved")
	assert.Empty(t, reg.Sent())

	_, err = c.RequestKyc(ctx, "alice.hsk", types.LevelBasic, big.NewInt(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Insufficient fee")
	assert.Empty(t, reg.Sent())
}

func TestKycSBTClient_WriteWithoutWallet(t *testing.T) {
	reg := mocks.NewRegistry(anvilChainID, ownerAddress)
	c, _ := newClient(t, reg, "")

	_, err := c.RevokeKyc(context.Background(), userAddress)
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.ErrNotConnected))
}

func TestKycSBTClient_SendFailureKeepsMessage(t *testing.T) {
	reg := mocks.NewRegistry(anvilChainID, ownerAddress)
	reg.SendErr = errors.New("insufficient funds for gas * price + value")
	c, _ := newClient(t, reg, userKey)

	_, err := c.RequestKyc(context.Background(), "alice.hsk", types.LevelBasic, big.NewInt(3e15))
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.ErrTransactionFailed))
	assert.Equal(t, "insufficient funds for gas * price + value", err.Error())
}

func TestKycSBTClient_OwnerOperations(t *testing.T) {
	ctx := context.Background()
	reg := mocks.NewRegistry(anvilChainID, ownerAddress)
	owner, _ := newClient(t, reg, ownerKey)
	user, _ := newClient(t, reg, userKey)

	wait := func(tx clients.PendingTx, err error) {
		t.Helper()
		require.NoError(t, err)
		_, err = tx.Wait(ctx)
		require.NoError(t, err)
	}

	_, err := user.SetRegistrationFee(ctx, big.NewInt(5))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Ownable")

	wait(owner.SetRegistrationFee(ctx, big.NewInt(5)))
	wait(owner.SetEnsFee(ctx, big.NewInt(7)))
	wait(owner.SetMinNameLength(ctx, big.NewInt(4)))
	wait(owner.SetSuffix(ctx, ".key"))
	wait(owner.SetENSAndResolver(ctx, common.HexToAddress("0x01"), common.HexToAddress("0x02")))

	cfg, err := owner.ContractConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), cfg.RegistrationFee.Int64())
	assert.Equal(t, int64(7), cfg.EnsFee.Int64())
	assert.Equal(t, int64(4), cfg.MinNameLength.Int64())
	assert.Equal(t, ".key", cfg.Suffix)

	approved, err := owner.IsEnsNameApproved(ctx, userAddress, "alice.key")
	require.NoError(t, err)
	assert.False(t, approved)
	wait(owner.ApproveEnsName(ctx, userAddress, "alice.key"))
	approved, err = owner.IsEnsNameApproved(ctx, userAddress, "alice.key")
	require.NoError(t, err)
	assert.True(t, approved)

	wait(owner.ApproveKyc(ctx, userAddress, types.LevelUltimate))
	rec, err := owner.GetKycInfo(ctx, userAddress)
	require.NoError(t, err)
	assert.Equal(t, types.LevelUltimate, rec.Level)
	assert.Equal(t, types.StatusApproved, rec.Status)

	wait(owner.WithdrawFees(ctx))
	wait(owner.TransferOwnership(ctx, userAddress))
	got, err := user.Owner(ctx)
	require.NoError(t, err)
	assert.Equal(t, userAddress, got)
}
