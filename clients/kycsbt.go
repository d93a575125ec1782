package clients

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/vitwit/kycsbt/logger"
	"github.com/vitwit/kycsbt/settlement"
	"github.com/vitwit/kycsbt/types"
	"golang.org/x/sync/errgroup"
)

var _ Ledger = (*KycSBTClient)(nil)

// KycSBTClient talks to one deployed KycSBT registry.
type KycSBTClient struct {
	backend Backend
	address common.Address
	abi     abi.ABI
	wallet  Wallet
	settler *settlement.SettlementService
	network types.NetworkConfig
	logger  logger.Logger
}

// NewKycSBTClient binds a registry client to the contract of network.
// wallet may be nil for read-only use.
func NewKycSBTClient(backend Backend, network types.NetworkConfig, wallet Wallet, log logger.Logger, opts ...settlement.Option) (*KycSBTClient, error) {
	if !common.IsHexAddress(network.ContractAddress) {
		return nil, &types.KycError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("invalid contract address %q for %s", network.ContractAddress, network.Name()),
		}
	}
	if log == nil {
		log = logger.NoopLogger{}
	}

	c := &KycSBTClient{
		backend: backend,
		address: common.HexToAddress(network.ContractAddress),
		abi:     parsedKycSBTABI,
		wallet:  wallet,
		network: network,
		logger:  log,
	}

	var signer settlement.Signer = wallet
	c.settler = settlement.NewSettlementService(backend, signer, append([]settlement.Option{settlement.WithLogger(log)}, opts...)...)
	return c, nil
}

func (c *KycSBTClient) Address() common.Address {
	return c.address
}

func (c *KycSBTClient) Network() types.NetworkConfig {
	return c.network
}

// GetKycInfo reads the record of account. Level and status are passed
// through even when outside their known ranges.
func (c *KycSBTClient) GetKycInfo(ctx context.Context, account common.Address) (types.KycRecord, error) {
	out, err := c.call(ctx, "getKycInfo", account)
	if err != nil {
		return types.KycRecord{}, err
	}
	if len(out) != 4 {
		return types.KycRecord{}, unexpectedOutput("getKycInfo", out)
	}

	ensName, ok1 := out[0].(string)
	level, ok2 := out[1].(uint8)
	status, ok3 := out[2].(uint8)
	createTime, ok4 := out[3].(*big.Int)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return types.KycRecord{}, unexpectedOutput("getKycInfo", out)
	}

	return types.KycRecord{
		EnsName:    ensName,
		Level:      types.KycLevel(level),
		Status:     types.KycStatus(status),
		CreateTime: createTime,
	}, nil
}

func (c *KycSBTClient) IsHuman(ctx context.Context, account common.Address) (types.HumanCheck, error) {
	out, err := c.call(ctx, "isHuman", account)
	if err != nil {
		return types.HumanCheck{}, err
	}
	if len(out) != 2 {
		return types.HumanCheck{}, unexpectedOutput("isHuman", out)
	}
	valid, ok1 := out[0].(bool)
	level, ok2 := out[1].(uint8)
	if !ok1 || !ok2 {
		return types.HumanCheck{}, unexpectedOutput("isHuman", out)
	}
	return types.HumanCheck{IsValid: valid, Level: types.KycLevel(level)}, nil
}

func (c *KycSBTClient) GetTotalFee(ctx context.Context) (*big.Int, error) {
	return c.callUint(ctx, "getTotalFee")
}

// ContractConfig reads the registry parameters concurrently.
func (c *KycSBTClient) ContractConfig(ctx context.Context) (types.ContractConfig, error) {
	var cfg types.ContractConfig
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		cfg.RegistrationFee, err = c.callUint(gctx, "registrationFee")
		return err
	})
	g.Go(func() (err error) {
		cfg.EnsFee, err = c.callUint(gctx, "ensFee")
		return err
	})
	g.Go(func() (err error) {
		cfg.MinNameLength, err = c.callUint(gctx, "minNameLength")
		return err
	})
	g.Go(func() (err error) {
		cfg.ValidityPeriod, err = c.callUint(gctx, "validityPeriod")
		return err
	})
	g.Go(func() error {
		out, err := c.call(gctx, "suffix")
		if err != nil {
			return err
		}
		s, ok := firstOf[string](out)
		if !ok {
			return unexpectedOutput("suffix", out)
		}
		cfg.Suffix = s
		return nil
	})

	if err := g.Wait(); err != nil {
		return types.ContractConfig{}, err
	}
	return cfg, nil
}

func (c *KycSBTClient) IsEnsNameApproved(ctx context.Context, user common.Address, ensName string) (bool, error) {
	out, err := c.call(ctx, "isEnsNameApproved", user, ensName)
	if err != nil {
		return false, err
	}
	approved, ok := firstOf[bool](out)
	if !ok {
		return false, unexpectedOutput("isEnsNameApproved", out)
	}
	return approved, nil
}

func (c *KycSBTClient) Owner(ctx context.Context) (common.Address, error) {
	out, err := c.call(ctx, "owner")
	if err != nil {
		return common.Address{}, err
	}
	owner, ok := firstOf[common.Address](out)
	if !ok {
		return common.Address{}, unexpectedOutput("owner", out)
	}
	return owner, nil
}

// RequestKyc submits requestKyc(fullName, level) paying fee.
func (c *KycSBTClient) RequestKyc(ctx context.Context, fullName string, level types.KycLevel, fee *big.Int) (PendingTx, error) {
	return c.transact(ctx, "requestKyc", fee, fullName, uint8(level))
}

func (c *KycSBTClient) RevokeKyc(ctx context.Context, account common.Address) (PendingTx, error) {
	return c.transact(ctx, "revokeKyc", nil, account)
}

func (c *KycSBTClient) RestoreKyc(ctx context.Context, account common.Address) (PendingTx, error) {
	return c.transact(ctx, "restoreKyc", nil, account)
}

func (c *KycSBTClient) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, &types.KycError{
			Code:    types.ErrInvalidInput,
			Message: fmt.Sprintf("failed to pack %s: %v", method, err),
		}
	}

	msg := ethereum.CallMsg{To: &c.address, Data: data}
	if c.wallet != nil {
		if from, ok := c.wallet.Address(); ok {
			msg.From = from
		}
	}

	raw, err := c.backend.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, &types.KycError{
			Code:    types.ErrReadFailed,
			Message: fmt.Sprintf("%s call failed: %v", method, err),
		}
	}

	out, err := c.abi.Unpack(method, raw)
	if err != nil {
		return nil, &types.KycError{
			Code:    types.ErrReadFailed,
			Message: fmt.Sprintf("failed to decode %s: %v", method, err),
		}
	}
	return out, nil
}

func (c *KycSBTClient) callUint(ctx context.Context, method string) (*big.Int, error) {
	out, err := c.call(ctx, method)
	if err != nil {
		return nil, err
	}
	v, ok := firstOf[*big.Int](out)
	if !ok {
		return nil, unexpectedOutput(method, out)
	}
	return v, nil
}

func (c *KycSBTClient) transact(ctx context.Context, method string, value *big.Int, args ...interface{}) (PendingTx, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, &types.KycError{
			Code:    types.ErrInvalidInput,
			Message: fmt.Sprintf("failed to pack %s: %v", method, err),
		}
	}

	tx, err := c.settler.Submit(ctx, settlement.Call{
		Method: method,
		To:     c.address,
		Value:  value,
		Data:   data,
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func firstOf[T any](out []interface{}) (T, bool) {
	var zero T
	if len(out) == 0 {
		return zero, false
	}
	v, ok := out[0].(T)
	return v, ok
}

func unexpectedOutput(method string, out []interface{}) error {
	return &types.KycError{
		Code:    types.ErrReadFailed,
		Message: fmt.Sprintf("unexpected %s output: %v", method, out),
	}
}
