package mocks

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/vitwit/kycsbt/clients"
	"github.com/vitwit/kycsbt/types"
)

var _ clients.Backend = (*Registry)(nil)

// Registry is an in-memory KycSBT deployment behind a clients.Backend. It
// decodes calldata with the registry ABI and applies the contract rules a
// client can observe.
type Registry struct {
	mu sync.Mutex

	abi     abi.ABI
	chainID *big.Int
	signer  gethtypes.Signer

	Owner           common.Address
	RegistrationFee *big.Int
	EnsFee          *big.Int
	MinNameLength   *big.Int
	Suffix          string
	ValidityPeriod  *big.Int

	records      map[common.Address]types.KycRecord
	ensApprovals map[common.Address]map[string]bool
	balances     map[common.Address]*big.Int
	nonces       map[common.Address]uint64
	receipts     map[common.Hash]*gethtypes.Receipt
	pending      map[common.Hash]int
	collected    *big.Int

	head     uint64
	headFeed event.Feed

	// PushHeads makes SubscribeNewHead succeed; otherwise callers must poll.
	PushHeads bool
	// ReceiptDelay is the number of receipt lookups answered NotFound
	// before a mined receipt is returned.
	ReceiptDelay int
	// Now stamps createTime on approvals.
	Now func() time.Time

	CallErr error
	SendErr error

	sent  []*gethtypes.Transaction
	calls map[string]int
}

// NewRegistry deploys an empty registry owned by owner.
func NewRegistry(chainID int64, owner common.Address) *Registry {
	id := big.NewInt(chainID)
	return &Registry{
		abi:             clients.KycSBTABI(),
		chainID:         id,
		signer:          gethtypes.LatestSignerForChainID(id),
		Owner:           owner,
		RegistrationFee: big.NewInt(1e15),
		EnsFee:          big.NewInt(2e15),
		MinNameLength:   big.NewInt(3),
		Suffix:          types.DefaultSuffix,
		ValidityPeriod:  big.NewInt(365 * 24 * 3600),
		records:         make(map[common.Address]types.KycRecord),
		ensApprovals:    make(map[common.Address]map[string]bool),
		balances:        make(map[common.Address]*big.Int),
		nonces:          make(map[common.Address]uint64),
		receipts:        make(map[common.Hash]*gethtypes.Receipt),
		pending:         make(map[common.Hash]int),
		collected:       new(big.Int),
		head:            1,
		Now:             time.Now,
		calls:           make(map[string]int),
	}
}

// SetRecord overwrites the stored record of account.
func (r *Registry) SetRecord(account common.Address, rec types.KycRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[account] = rec
}

func (r *Registry) Record(account common.Address) (types.KycRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[account]
	return rec, ok
}

func (r *Registry) SetBalance(account common.Address, wei *big.Int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[account] = new(big.Int).Set(wei)
}

func (r *Registry) SetCallErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.CallErr = err
}

// Sent returns every transaction accepted by SendTransaction.
func (r *Registry) Sent() []*gethtypes.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*gethtypes.Transaction(nil), r.sent...)
}

// Calls counts read calls of method.
func (r *Registry) Calls(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[method]
}

func (r *Registry) Collected() *big.Int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return new(big.Int).Set(r.collected)
}

// AdvanceHead mines an empty block and publishes its header to head
// subscribers. It blocks until every subscriber has received it.
func (r *Registry) AdvanceHead() *gethtypes.Header {
	r.mu.Lock()
	r.head++
	h := r.header()
	r.mu.Unlock()

	r.headFeed.Send(h)
	return h
}

func (r *Registry) header() *gethtypes.Header {
	return &gethtypes.Header{
		Number: new(big.Int).SetUint64(r.head),
		Time:   uint64(r.Now().Unix()),
	}
}

func (r *Registry) ChainID(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(r.chainID), nil
}

func (r *Registry) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CallErr != nil {
		return nil, r.CallErr
	}
	method, args, err := r.decode(msg.Data)
	if err != nil {
		return nil, err
	}
	r.calls[method.Name]++

	out, err := r.view(method.Name, args)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(out...)
}

func (r *Registry) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	method, args, err := r.decode(msg.Data)
	if err != nil {
		return 0, err
	}
	if err := r.execute(msg.From, method.Name, args, msg.Value, true); err != nil {
		return 0, fmt.Errorf("execution reverted: %w", err)
	}
	return 120_000, nil
}

func (r *Registry) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (r *Registry) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nonces[account], nil
}

// SendTransaction mines tx immediately. A reverting transaction is still
// included, with a failed receipt.
func (r *Registry) SendTransaction(ctx context.Context, tx *gethtypes.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.SendErr != nil {
		return r.SendErr
	}
	from, err := gethtypes.Sender(r.signer, tx)
	if err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}
	if tx.Nonce() != r.nonces[from] {
		return fmt.Errorf("nonce too low: have %d, want %d", tx.Nonce(), r.nonces[from])
	}
	r.nonces[from]++
	r.sent = append(r.sent, tx)

	status := gethtypes.ReceiptStatusSuccessful
	method, args, err := r.decode(tx.Data())
	if err == nil {
		err = r.execute(from, method.Name, args, tx.Value(), false)
	}
	if err != nil {
		status = gethtypes.ReceiptStatusFailed
	}

	r.head++
	r.receipts[tx.Hash()] = &gethtypes.Receipt{
		Status:      status,
		TxHash:      tx.Hash(),
		BlockNumber: new(big.Int).SetUint64(r.head),
		GasUsed:     tx.Gas(),
	}
	r.pending[tx.Hash()] = r.ReceiptDelay
	return nil
}

func (r *Registry) TransactionReceipt(ctx context.Context, txHash common.Hash) (*gethtypes.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	receipt, ok := r.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	if r.pending[txHash] > 0 {
		r.pending[txHash]--
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

func (r *Registry) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CallErr != nil {
		return nil, r.CallErr
	}
	if b, ok := r.balances[account]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

func (r *Registry) HeaderByNumber(ctx context.Context, number *big.Int) (*gethtypes.Header, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.header(), nil
}

func (r *Registry) SubscribeNewHead(ctx context.Context, ch chan<- *gethtypes.Header) (ethereum.Subscription, error) {
	if !r.PushHeads {
		return nil, rpc.ErrNotificationsUnsupported
	}
	return r.headFeed.Subscribe(ch), nil
}

func (r *Registry) Close() {}

func (r *Registry) decode(data []byte) (*abi.Method, []interface{}, error) {
	if len(data) < 4 {
		return nil, nil, errors.New("missing selector")
	}
	method, err := r.abi.MethodById(data[:4])
	if err != nil {
		return nil, nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, err
	}
	return method, args, nil
}

func (r *Registry) view(name string, args []interface{}) ([]interface{}, error) {
	switch name {
	case "getKycInfo":
		rec := r.records[args[0].(common.Address)]
		ct := rec.CreateTime
		if ct == nil {
			ct = new(big.Int)
		}
		return []interface{}{rec.EnsName, uint8(rec.Level), uint8(rec.Status), ct}, nil
	case "isHuman":
		rec := r.records[args[0].(common.Address)]
		valid := rec.Registered() && rec.Status == types.StatusApproved
		return []interface{}{valid, uint8(rec.Level)}, nil
	case "getTotalFee":
		return []interface{}{new(big.Int).Add(r.RegistrationFee, r.EnsFee)}, nil
	case "registrationFee":
		return []interface{}{r.RegistrationFee}, nil
	case "ensFee":
		return []interface{}{r.EnsFee}, nil
	case "minNameLength":
		return []interface{}{r.MinNameLength}, nil
	case "suffix":
		return []interface{}{r.Suffix}, nil
	case "validityPeriod":
		return []interface{}{r.ValidityPeriod}, nil
	case "owner":
		return []interface{}{r.Owner}, nil
	case "isEnsNameApproved":
		user := args[0].(common.Address)
		return []interface{}{r.ensApprovals[user][args[1].(string)]}, nil
	}
	return nil, fmt.Errorf("%s is not a view method", name)
}

// execute applies a write. With dryRun it only checks the revert conditions.
func (r *Registry) execute(from common.Address, name string, args []interface{}, value *big.Int, dryRun bool) error {
	if value == nil {
		value = new(big.Int)
	}

	onlyOwner := func() error {
		if from != r.Owner {
			return errors.New("Ownable: caller is not the owner")
		}
		return nil
	}

	var apply func()
	switch name {
	case "requestKyc":
		ensName, level := args[0].(string), args[1].(uint8)
		if r.records[from].Registered() {
			return errors.New("KYC already requested")
		}
		if level < 1 || level > 4 {
			return errors.New("Invalid KYC level")
		}
		total := new(big.Int).Add(r.RegistrationFee, r.EnsFee)
		if value.Cmp(total) < 0 {
			return errors.New("Insufficient fee")
		}
		apply = func() {
			r.records[from] = types.KycRecord{
				EnsName:    ensName,
				Level:      types.KycLevel(level),
				Status:     types.StatusApproved,
				CreateTime: big.NewInt(r.Now().Unix()),
			}
			r.collected.Add(r.collected, value)
		}
	case "revokeKyc":
		user := args[0].(common.Address)
		if from != user && from != r.Owner {
			return errors.New("Not authorized")
		}
		rec := r.records[user]
		if !rec.Registered() || rec.Status != types.StatusApproved {
			return errors.New("KYC not approved")
		}
		apply = func() {
			rec.Status = types.StatusRevoked
			r.records[user] = rec
		}
	case "restoreKyc":
		user := args[0].(common.Address)
		if from != user && from != r.Owner {
			return errors.New("Not authorized")
		}
		rec := r.records[user]
		if rec.Status != types.StatusRevoked {
			return errors.New("KYC not revoked")
		}
		apply = func() {
			rec.Status = types.StatusApproved
			r.records[user] = rec
		}
	case "approveKyc":
		if err := onlyOwner(); err != nil {
			return err
		}
		user, level := args[0].(common.Address), args[1].(uint8)
		apply = func() {
			rec := r.records[user]
			rec.Level = types.KycLevel(level)
			rec.Status = types.StatusApproved
			if rec.CreateTime == nil || rec.CreateTime.Sign() == 0 {
				rec.CreateTime = big.NewInt(r.Now().Unix())
			}
			r.records[user] = rec
		}
	case "approveEnsName":
		if err := onlyOwner(); err != nil {
			return err
		}
		user, ensName := args[0].(common.Address), args[1].(string)
		apply = func() {
			if r.ensApprovals[user] == nil {
				r.ensApprovals[user] = make(map[string]bool)
			}
			r.ensApprovals[user][ensName] = true
		}
	case "setRegistrationFee":
		if err := onlyOwner(); err != nil {
			return err
		}
		apply = func() { r.RegistrationFee = args[0].(*big.Int) }
	case "setEnsFee":
		if err := onlyOwner(); err != nil {
			return err
		}
		apply = func() { r.EnsFee = args[0].(*big.Int) }
	case "setMinNameLength":
		if err := onlyOwner(); err != nil {
			return err
		}
		apply = func() { r.MinNameLength = args[0].(*big.Int) }
	case "setSuffix":
		if err := onlyOwner(); err != nil {
			return err
		}
		apply = func() { r.Suffix = args[0].(string) }
	case "setENSAndResolver":
		if err := onlyOwner(); err != nil {
			return err
		}
		apply = func() {}
	case "withdrawFees":
		if err := onlyOwner(); err != nil {
			return err
		}
		apply = func() {
			bal := r.balances[r.Owner]
			if bal == nil {
				bal = new(big.Int)
			}
			r.balances[r.Owner] = new(big.Int).Add(bal, r.collected)
			r.collected = new(big.Int)
		}
	case "transferOwnership":
		if err := onlyOwner(); err != nil {
			return err
		}
		apply = func() { r.Owner = args[0].(common.Address) }
	default:
		return fmt.Errorf("%s is not a write method", name)
	}

	if !dryRun {
		apply()
	}
	return nil
}
