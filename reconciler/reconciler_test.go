package reconciler

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/suite"
	"github.com/vitwit/kycsbt/clients"
	"github.com/vitwit/kycsbt/clients/mocks"
	"github.com/vitwit/kycsbt/types"
	"go.uber.org/mock/gomock"
)

var (
	alice = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	bob   = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")

	totalFee = big.NewInt(3e15)
)

func testnetConfig() types.NetworkConfig {
	id := "eip155:133"
	return types.NetworkConfig{ChainID: &id, ContractAddress: "0xA45f42F09A7Ae50e556467cf65cF3Cf45711114E"}
}

func approved(name string) types.KycRecord {
	return types.KycRecord{EnsName: name, Level: types.LevelBasic, Status: types.StatusApproved, CreateTime: big.NewInt(1700000000)}
}

func revokedRecord(name string) types.KycRecord {
	rec := approved(name)
	rec.Status = types.StatusRevoked
	return rec
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *recordingNotifier) Notify(notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *recordingNotifier) kinds() []NoticeKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]NoticeKind, 0, len(n.notices))
	for _, notice := range n.notices {
		out = append(out, notice.Kind)
	}
	return out
}

func (n *recordingNotifier) last() Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.notices[len(n.notices)-1]
}

type ReconcilerSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	ledger   *mocks.MockLedger
	notifier *recordingNotifier
	r        *Reconciler
}

func TestReconcilerSuite(t *testing.T) {
	suite.Run(t, new(ReconcilerSuite))
}

func (s *ReconcilerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.ledger = mocks.NewMockLedger(s.ctrl)
	s.notifier = &recordingNotifier{}
	s.r = New(s.ledger, testnetConfig(), WithNotifier(s.notifier))
}

func (s *ReconcilerSuite) confirmedTx(hash common.Hash) *mocks.MockPendingTx {
	tx := mocks.NewMockPendingTx(s.ctrl)
	tx.EXPECT().Hash().Return(hash).AnyTimes()
	tx.EXPECT().Wait(gomock.Any()).Return(&gethtypes.Receipt{
		Status:      gethtypes.ReceiptStatusSuccessful,
		TxHash:      hash,
		BlockNumber: big.NewInt(42),
	}, nil)
	return tx
}

// connect refreshes alice with rec as the registry answer.
func (s *ReconcilerSuite) connect(rec types.KycRecord) {
	s.ledger.EXPECT().GetKycInfo(gomock.Any(), alice).Return(rec, nil)
	s.Require().NoError(s.r.Refresh(context.Background(), &alice))
}

func (s *ReconcilerSuite) TestStartsDisconnected() {
	v := s.r.View()
	s.False(v.Connected)
	s.Equal(types.PhaseDisconnected, v.Phase)
	s.Equal(types.ActionNone, v.Action)
	s.False(v.CanRequest())
	s.False(v.CanRevoke())
	s.False(v.CanRestore())
}

func (s *ReconcilerSuite) TestRefreshNilIdentityMakesNoCall() {
	s.connect(approved("alice.hsk"))

	s.Require().NoError(s.r.Refresh(context.Background(), nil))
	v := s.r.View()
	s.False(v.Connected)
	s.Nil(v.Record)
	s.Nil(v.Identity)
	s.Equal(types.PhaseDisconnected, v.Phase)
}

func (s *ReconcilerSuite) TestUnregisteredOnlyAllowsRequest() {
	// a zero record with a non-zero status is still unregistered
	s.connect(types.KycRecord{Status: types.StatusApproved, CreateTime: new(big.Int)})

	v := s.r.View()
	s.True(v.Connected)
	s.Equal(types.PhaseUnregistered, v.Phase)
	s.True(v.CanRequest())
	s.False(v.CanRevoke())
	s.False(v.CanRestore())
	s.Equal("N/A", v.CreatedText)
}

func (s *ReconcilerSuite) TestActiveAndRevokedPhases() {
	s.connect(approved("alice.hsk"))
	v := s.r.View()
	s.Equal(types.PhaseActive, v.Phase)
	s.True(v.CanRevoke())
	s.False(v.CanRequest())
	s.Equal("Basic", v.LevelText)
	s.Equal("Approved", v.StatusText)
	s.Equal("2023-11-14T22:13:20Z", v.CreatedText)

	s.connect(revokedRecord("alice.hsk"))
	v = s.r.View()
	s.Equal(types.PhaseRevoked, v.Phase)
	s.True(v.CanRestore())
	s.False(v.CanRevoke())
}

func (s *ReconcilerSuite) TestUnknownEnumsRenderAsUnknown() {
	s.connect(types.KycRecord{EnsName: "alice.hsk", Level: 9, Status: 7, CreateTime: big.NewInt(1)})

	v := s.r.View()
	s.Equal("Unknown", v.LevelText)
	s.Equal("Unknown", v.StatusText)
	s.Equal(types.KycLevel(9), v.Record.Level)
	s.Equal(types.PhaseActive, v.Phase)
}

func (s *ReconcilerSuite) TestRequestAppendsSuffixAndPaysQuotedFee() {
	ctx := context.Background()
	s.connect(types.KycRecord{})

	hash := common.HexToHash("0x01")
	gomock.InOrder(
		s.ledger.EXPECT().GetTotalFee(gomock.Any()).Return(totalFee, nil),
		s.ledger.EXPECT().RequestKyc(gomock.Any(), "alice.hsk", types.LevelPremium, totalFee).Return(s.confirmedTx(hash), nil),
		s.ledger.EXPECT().GetKycInfo(gomock.Any(), alice).Return(approved("alice.hsk"), nil),
	)

	receipt, err := s.r.Request(ctx, "alice", types.LevelPremium)
	s.Require().NoError(err)
	s.Equal(hash, receipt.TxHash)

	v := s.r.View()
	s.Equal(types.PhaseActive, v.Phase)
	s.Equal("alice.hsk", v.Record.EnsName)
	s.Equal(types.StatusApproved, v.Record.Status)
	s.False(v.Processing)
	s.Equal([]NoticeKind{NoticeSubmitted, NoticeConfirmed}, s.notifier.kinds())
}

func (s *ReconcilerSuite) TestRequestCustomSuffix() {
	s.r = New(s.ledger, testnetConfig(), WithSuffix(".key"))
	s.connect(types.KycRecord{})

	s.ledger.EXPECT().GetTotalFee(gomock.Any()).Return(totalFee, nil)
	s.ledger.EXPECT().RequestKyc(gomock.Any(), "alice.key", types.LevelBasic, totalFee).Return(s.confirmedTx(common.HexToHash("0x02")), nil)
	s.ledger.EXPECT().GetKycInfo(gomock.Any(), alice).Return(approved("alice.key"), nil)

	_, err := s.r.Request(context.Background(), "alice", types.LevelBasic)
	s.Require().NoError(err)
}

func (s *ReconcilerSuite) TestRequestInvalidInputSendsNothing() {
	s.connect(types.KycRecord{})

	_, err := s.r.Request(context.Background(), "", types.LevelBasic)
	s.True(types.HasCode(err, types.ErrInvalidInput))

	_, err = s.r.Request(context.Background(), "alice", types.LevelNone)
	s.True(types.HasCode(err, types.ErrInvalidInput))

	_, err = s.r.Request(context.Background(), "alice", types.KycLevel(5))
	s.True(types.HasCode(err, types.ErrInvalidInput))
	s.Empty(s.notifier.kinds())
}

func (s *ReconcilerSuite) TestWriteFromWrongPhaseIsRejected() {
	ctx := context.Background()
	s.connect(approved("alice.hsk"))

	_, err := s.r.Request(ctx, "alice", types.LevelBasic)
	s.True(types.HasCode(err, types.ErrInvalidTransition))

	_, err = s.r.Restore(ctx)
	s.True(types.HasCode(err, types.ErrInvalidTransition))

	s.connect(revokedRecord("alice.hsk"))
	_, err = s.r.Revoke(ctx)
	s.True(types.HasCode(err, types.ErrInvalidTransition))
	s.Equal(types.PhaseRevoked, s.r.View().Phase)
}

func (s *ReconcilerSuite) TestWriteWhileDisconnected() {
	_, err := s.r.Revoke(context.Background())
	s.True(types.HasCode(err, types.ErrNotConnected))

	_, err = s.r.Request(context.Background(), "alice", types.LevelBasic)
	s.True(types.HasCode(err, types.ErrNotConnected))
}

func (s *ReconcilerSuite) TestRevokeThenRestore() {
	ctx := context.Background()
	s.connect(approved("alice.hsk"))

	s.ledger.EXPECT().RevokeKyc(gomock.Any(), alice).Return(s.confirmedTx(common.HexToHash("0x03")), nil)
	s.ledger.EXPECT().GetKycInfo(gomock.Any(), alice).Return(revokedRecord("alice.hsk"), nil)
	_, err := s.r.Revoke(ctx)
	s.Require().NoError(err)
	s.Equal(types.PhaseRevoked, s.r.View().Phase)
	s.True(s.r.View().CanRestore())

	s.ledger.EXPECT().RestoreKyc(gomock.Any(), alice).Return(s.confirmedTx(common.HexToHash("0x04")), nil)
	s.ledger.EXPECT().GetKycInfo(gomock.Any(), alice).Return(approved("alice.hsk"), nil)
	_, err = s.r.Restore(ctx)
	s.Require().NoError(err)
	s.Equal(types.PhaseActive, s.r.View().Phase)
}

func (s *ReconcilerSuite) TestSecondRevokeIsInvalidTransition() {
	ctx := context.Background()
	s.connect(approved("alice.hsk"))

	s.ledger.EXPECT().RevokeKyc(gomock.Any(), alice).Return(s.confirmedTx(common.HexToHash("0x05")), nil).Times(1)
	s.ledger.EXPECT().GetKycInfo(gomock.Any(), alice).Return(revokedRecord("alice.hsk"), nil)

	_, err := s.r.Revoke(ctx)
	s.Require().NoError(err)

	_, err = s.r.Revoke(ctx)
	s.True(types.HasCode(err, types.ErrInvalidTransition))
}

func (s *ReconcilerSuite) TestPhaseAdvancesEvenIfRefreshAfterWriteFails() {
	ctx := context.Background()
	s.connect(approved("alice.hsk"))

	s.ledger.EXPECT().RevokeKyc(gomock.Any(), alice).Return(s.confirmedTx(common.HexToHash("0x06")), nil)
	s.ledger.EXPECT().GetKycInfo(gomock.Any(), alice).Return(types.KycRecord{}, errors.New("timeout"))

	_, err := s.r.Revoke(ctx)
	s.Require().NoError(err)
	v := s.r.View()
	s.Equal(types.PhaseRevoked, v.Phase)
	s.Equal("alice.hsk", v.Record.EnsName)
	s.NotEmpty(v.LastError)
}

func (s *ReconcilerSuite) TestWriteFailureLeavesStateUnchanged() {
	ctx := context.Background()
	s.connect(approved("alice.hsk"))
	before := s.r.View()

	msg := "execution reverted: KYC not approved"
	s.ledger.EXPECT().RevokeKyc(gomock.Any(), alice).Return(nil, errors.New(msg))

	_, err := s.r.Revoke(ctx)
	s.Require().Error(err)
	s.True(types.HasCode(err, types.ErrTransactionFailed))
	s.Equal(msg, err.Error())

	after := s.r.View()
	s.Equal(before.Phase, after.Phase)
	s.Equal(before.Record, after.Record)
	s.False(after.Processing)

	notice := s.notifier.last()
	s.Equal(NoticeFailed, notice.Kind)
	s.Equal(msg, notice.Message)
	s.Equal(types.ActionRevoke, notice.Action)
}

func (s *ReconcilerSuite) TestRevertedReceiptLeavesStateUnchanged() {
	ctx := context.Background()
	s.connect(approved("alice.hsk"))

	tx := mocks.NewMockPendingTx(s.ctrl)
	tx.EXPECT().Hash().Return(common.HexToHash("0x07")).AnyTimes()
	tx.EXPECT().Wait(gomock.Any()).Return(
		&gethtypes.Receipt{Status: gethtypes.ReceiptStatusFailed},
		types.NewError(types.ErrTransactionFailed, "revokeKyc transaction reverted"),
	)
	s.ledger.EXPECT().RevokeKyc(gomock.Any(), alice).Return(tx, nil)

	_, err := s.r.Revoke(ctx)
	s.True(types.HasCode(err, types.ErrTransactionFailed))
	s.Equal(types.PhaseActive, s.r.View().Phase)
	s.Equal([]NoticeKind{NoticeSubmitted, NoticeFailed}, s.notifier.kinds())
	s.Equal(common.HexToHash("0x07"), s.notifier.last().TxHash)
}

func (s *ReconcilerSuite) TestFeeReadFailureSendsNothing() {
	s.connect(types.KycRecord{})
	s.ledger.EXPECT().GetTotalFee(gomock.Any()).Return(nil, types.NewError(types.ErrReadFailed, "getTotalFee call failed"))

	_, err := s.r.Request(context.Background(), "alice", types.LevelBasic)
	s.True(types.HasCode(err, types.ErrReadFailed))
	s.Equal(types.PhaseUnregistered, s.r.View().Phase)
}

func (s *ReconcilerSuite) TestConcurrentWriteIsRejected() {
	ctx := context.Background()
	s.connect(approved("alice.hsk"))

	submitted := make(chan struct{})
	release := make(chan struct{})

	tx := mocks.NewMockPendingTx(s.ctrl)
	tx.EXPECT().Hash().Return(common.HexToHash("0x08")).AnyTimes()
	tx.EXPECT().Wait(gomock.Any()).DoAndReturn(func(context.Context) (*gethtypes.Receipt, error) {
		<-release
		return &gethtypes.Receipt{Status: gethtypes.ReceiptStatusSuccessful}, nil
	})
	s.ledger.EXPECT().RevokeKyc(gomock.Any(), alice).DoAndReturn(func(context.Context, common.Address) (clients.PendingTx, error) {
		close(submitted)
		return tx, nil
	}).Times(1)
	s.ledger.EXPECT().GetKycInfo(gomock.Any(), alice).Return(revokedRecord("alice.hsk"), nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.r.Revoke(ctx)
		done <- err
	}()

	<-submitted
	s.True(s.r.View().Processing)
	s.False(s.r.View().CanRevoke())

	_, err := s.r.Revoke(ctx)
	s.True(types.HasCode(err, types.ErrWriteInFlight))
	_, err = s.r.Request(ctx, "alice", types.LevelBasic)
	s.True(types.HasCode(err, types.ErrWriteInFlight))

	close(release)
	s.Require().NoError(<-done)
	s.False(s.r.View().Processing)
	s.Equal(types.PhaseRevoked, s.r.View().Phase)
}

func (s *ReconcilerSuite) TestReadFailureKeepsStaleRecord() {
	ctx := context.Background()
	s.connect(approved("alice.hsk"))

	s.ledger.EXPECT().GetKycInfo(gomock.Any(), alice).Return(types.KycRecord{}, errors.New("dial tcp: connection refused"))
	err := s.r.Refresh(ctx, &alice)
	s.Require().Error(err)
	s.True(types.HasCode(err, types.ErrReadFailed))

	v := s.r.View()
	s.False(v.Loading)
	s.Equal("alice.hsk", v.Record.EnsName)
	s.Equal(types.PhaseActive, v.Phase)
	s.Contains(v.LastError, "connection refused")

	s.ledger.EXPECT().GetKycInfo(gomock.Any(), alice).Return(approved("alice.hsk"), nil)
	s.Require().NoError(s.r.Refresh(ctx, &alice))
	s.Empty(s.r.View().LastError)
}

func (s *ReconcilerSuite) TestIdentityChangeClearsCache() {
	ctx := context.Background()
	s.connect(approved("alice.hsk"))

	s.ledger.EXPECT().GetKycInfo(gomock.Any(), bob).Return(types.KycRecord{}, errors.New("boom"))
	s.Require().Error(s.r.Refresh(ctx, &bob))

	v := s.r.View()
	s.Equal(bob, *v.Identity)
	s.Nil(v.Record)
	s.Equal(types.PhaseUnregistered, v.Phase)
}

func (s *ReconcilerSuite) TestResultForOldIdentityIsDropped() {
	ctx := context.Background()
	fetching := make(chan struct{})
	release := make(chan struct{})

	s.ledger.EXPECT().GetKycInfo(gomock.Any(), alice).DoAndReturn(func(context.Context, common.Address) (types.KycRecord, error) {
		close(fetching)
		<-release
		return approved("alice.hsk"), nil
	})
	s.ledger.EXPECT().GetKycInfo(gomock.Any(), bob).Return(types.KycRecord{}, nil)

	done := make(chan error, 1)
	go func() { done <- s.r.Refresh(ctx, &alice) }()

	<-fetching
	s.Require().NoError(s.r.Refresh(ctx, &bob))
	close(release)
	s.Require().NoError(<-done)

	v := s.r.View()
	s.Equal(bob, *v.Identity)
	s.Equal("", v.Record.EnsName)
	s.Equal(types.PhaseUnregistered, v.Phase)
}

func (s *ReconcilerSuite) TestRebindDropsInFlightResult() {
	ctx := context.Background()
	s.connect(types.KycRecord{})

	fetching := make(chan struct{})
	release := make(chan struct{})
	s.ledger.EXPECT().GetKycInfo(gomock.Any(), alice).DoAndReturn(func(context.Context, common.Address) (types.KycRecord, error) {
		close(fetching)
		<-release
		return approved("alice.hsk"), nil
	})

	done := make(chan error, 1)
	go func() { done <- s.r.Refresh(ctx, &alice) }()
	<-fetching

	other := mocks.NewMockLedger(s.ctrl)
	mainnet := testnetConfig()
	mainnet.IsMainnet = true
	s.r.Rebind(mainnet, other)

	close(release)
	s.Require().NoError(<-done)
	v := s.r.View()
	s.True(v.Network.IsMainnet)
	s.Equal(types.PhaseUnregistered, v.Phase, "result fetched from the old network is ignored")
}

func (s *ReconcilerSuite) TestNoLedgerBound() {
	s.r.Rebind(testnetConfig(), nil)
	err := s.r.Refresh(context.Background(), &alice)
	s.True(types.HasCode(err, types.ErrConnectivity))
	s.False(s.r.View().Loading)
}

func (s *ReconcilerSuite) TestExplorerLink() {
	cfg := testnetConfig()
	cfg.ExplorerURL = "https://explorer.example/"
	s.r.Rebind(cfg, s.ledger)
	s.connect(types.KycRecord{})

	s.Equal("https://explorer.example/address/"+alice.Hex(), s.r.View().ExplorerAddressURL())
}
