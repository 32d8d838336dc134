package evm

import (
	"context"
	"errors"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"microlend/internal/domain/apperr"
	"microlend/internal/domain/application"
	"microlend/internal/domain/ledger"
	"microlend/internal/domain/loan"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	registryAddr = common.HexToAddress("0x00000000000000000000000000000000000000cc")
	account      = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

// fakeCaller answers eth_call by decoding the calldata against an ABI.
type fakeCaller struct {
	abi     abi.ABI
	respond func(method string, args []any) ([]any, error)
}

func (f *fakeCaller) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x1}, nil
}

func (f *fakeCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	m, err := f.abi.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := m.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	outs, err := f.respond(m.Name, args)
	if err != nil {
		return nil, err
	}
	return m.Outputs.Pack(outs...)
}

func readOnlyClient(caller *fakeCaller) *Client {
	return &Client{caller: caller}
}

type revertError struct{ data string }

func (e revertError) Error() string          { return "execution reverted" }
func (e revertError) ErrorCode() int         { return 3 }
func (e revertError) ErrorData() interface{} { return e.data }

func revertData(t *testing.T, reason string) string {
	t.Helper()
	strType, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	packed, err := abi.Arguments{{Type: strType}}.Pack(reason)
	require.NoError(t, err)
	selector := []byte{0x08, 0xc3, 0x79, 0xa0}
	return hexutil.Encode(append(selector, packed...))
}

func TestLoanRegistry_Reads(t *testing.T) {
	var gotID *big.Int
	caller := &fakeCaller{abi: loanABI, respond: func(method string, args []any) ([]any, error) {
		switch method {
		case "borrowerCount":
			return []any{big.NewInt(3)}, nil
		case "getName":
			gotID = args[0].(*big.Int)
			return []any{"Ama"}, nil
		case "requestedAmounts":
			return []any{big.NewInt(500)}, nil
		case "isActive":
			return []any{true}, nil
		case "badgeLevel":
			if args[0].(common.Address) != account {
				return nil, errors.New("wrong account")
			}
			return []any{uint8(2)}, nil
		case "getBadgeName":
			return []any{"Silver"}, nil
		}
		return nil, errors.New("unexpected " + method)
	}}
	r := readOnlyClient(caller).LoanRegistry(registryAddr)
	ctx := context.Background()

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)

	name, err := r.Name(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Ama", name)
	assert.Equal(t, int64(3), gotID.Int64())

	req, err := r.RequestedAmount(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(500), req.Int64())

	active, err := r.IsActive(ctx, 3)
	require.NoError(t, err)
	assert.True(t, active)

	lvl, err := r.BadgeLevel(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), lvl)

	label, err := r.BadgeName(ctx, lvl)
	require.NoError(t, err)
	assert.Equal(t, "Silver", label)
	assert.Equal(t, registryAddr, r.Address())
}

func TestApplicationRegistry_Reads(t *testing.T) {
	caller := &fakeCaller{abi: appABI, respond: func(method string, args []any) ([]any, error) {
		switch method {
		case "applicationCount":
			return []any{big.NewInt(2)}, nil
		case "getApplicant":
			return []any{account}, nil
		case "getStatus":
			return []any{uint8(1)}, nil
		case "getTimestamp":
			return []any{big.NewInt(1_700_000_000)}, nil
		}
		return nil, errors.New("unexpected " + method)
	}}
	r := readOnlyClient(caller).ApplicationRegistry(registryAddr)
	ctx := context.Background()

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	who, err := r.Applicant(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, account, who)

	st, err := r.Status(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), st)

	ts, err := r.Timestamp(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1_700_000_000), ts.Int64())
}

func TestTokenStore_Allowance(t *testing.T) {
	token := common.HexToAddress("0x00000000000000000000000000000000000000dd")
	caller := &fakeCaller{abi: tokenABI, respond: func(method string, args []any) ([]any, error) {
		if method != "allowance" || args[0].(common.Address) != account || args[1].(common.Address) != registryAddr {
			return nil, errors.New("bad call")
		}
		return []any{big.NewInt(42)}, nil
	}}
	s := readOnlyClient(caller).TokenStore()
	got, err := s.Allowance(context.Background(), token, account, registryAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Int64())
}

func TestCall_RevertBecomesLedgerRejection(t *testing.T) {
	data := revertData(t, "no such borrower")
	caller := &fakeCaller{abi: loanABI, respond: func(string, []any) ([]any, error) {
		return nil, revertError{data: data}
	}}
	_, err := readOnlyClient(caller).LoanRegistry(registryAddr).Name(context.Background(), 9)

	var lr *apperr.LedgerRejection
	require.True(t, errors.As(err, &lr), "got %v", err)
	assert.Equal(t, "no such borrower", lr.Reason)
	assert.Equal(t, "getName", lr.Step)
}

func TestClassify(t *testing.T) {
	assert.Nil(t, classify("x", nil))

	err := classify("lend", errors.New("insufficient funds for gas * price + value"))
	assert.Equal(t, apperr.KindLedgerRejection, apperr.KindOf(err))

	plain := errors.New("connection refused")
	err = classify("lend", plain)
	assert.ErrorIs(t, err, plain)
	assert.Equal(t, apperr.KindUnknown, apperr.KindOf(err))
}

func TestWrites_ReadOnly(t *testing.T) {
	c := readOnlyClient(&fakeCaller{abi: loanABI})
	assert.True(t, c.ReadOnly())
	assert.Equal(t, common.Address{}, c.From())

	_, err := c.LoanRegistry(registryAddr).Lend(context.Background(), 1, big.NewInt(1))
	assert.ErrorIs(t, err, ledger.ErrReadOnly)
	_, err = c.LoanRegistry(registryAddr).AddLoan(context.Background(), loan.New{Amount: big.NewInt(1)})
	assert.ErrorIs(t, err, ledger.ErrReadOnly)
	_, err = c.ApplicationRegistry(registryAddr).SubmitPhase1(context.Background(), application.Personal{})
	assert.ErrorIs(t, err, ledger.ErrReadOnly)
	_, err = c.Router(registryAddr).SwapExactNativeForTokens(context.Background(), big.NewInt(1), big.NewInt(1), nil, account, big.NewInt(1))
	assert.ErrorIs(t, err, ledger.ErrReadOnly)
}

func TestLoanCreated(t *testing.T) {
	r := readOnlyClient(&fakeCaller{abi: loanABI}).LoanRegistry(registryAddr)

	rcpt := ledger.Receipt{Logs: []*types.Log{
		{Address: common.HexToAddress("0x01"), Topics: []common.Hash{createdID, common.BigToHash(big.NewInt(99))}},
		{Address: registryAddr, Topics: []common.Hash{createdID, common.BigToHash(big.NewInt(7))}},
	}}
	id, err := r.LoanCreated(rcpt)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)

	_, err = r.LoanCreated(ledger.Receipt{})
	assert.ErrorIs(t, err, errNoCreatedEvent)
}

func TestSigner(t *testing.T) {
	opts, err := Signer("", 42220)
	require.NoError(t, err)
	assert.Nil(t, opts)

	opts, err = Signer("0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318", 42220)
	require.NoError(t, err)
	require.NotNil(t, opts)
	assert.NotEqual(t, common.Address{}, opts.From)

	_, err = Signer("zz", 42220)
	assert.Error(t, err)
}

type fakeReceipts struct {
	calls   atomic.Int32
	readyAt int32
	status  uint64
}

func (f *fakeReceipts) TransactionReceipt(ctx context.Context, h common.Hash) (*types.Receipt, error) {
	if f.calls.Add(1) < f.readyAt {
		return nil, ethereum.NotFound
	}
	return &types.Receipt{TxHash: h, Status: f.status, BlockNumber: big.NewInt(12)}, nil
}

func TestConfirmer_PollsUntilMined(t *testing.T) {
	f := &fakeReceipts{readyAt: 3, status: types.ReceiptStatusSuccessful}
	c := NewConfirmer(f, time.Millisecond, nil)

	rcpt, err := c.WaitConfirmed(context.Background(), ledger.Tx{Hash: common.HexToHash("0xabc")})
	require.NoError(t, err)
	assert.Equal(t, uint64(12), rcpt.BlockNumber)
	assert.Equal(t, int32(3), f.calls.Load())
}

func TestConfirmer_FailedReceiptIsRejection(t *testing.T) {
	f := &fakeReceipts{readyAt: 1, status: types.ReceiptStatusFailed}
	c := NewConfirmer(f, time.Millisecond, nil)

	_, err := c.WaitConfirmed(context.Background(), ledger.Tx{Hash: common.HexToHash("0xabc")})
	assert.Equal(t, apperr.KindLedgerRejection, apperr.KindOf(err))
}

func TestConfirmer_ContextDeadline(t *testing.T) {
	f := &fakeReceipts{readyAt: 1 << 30}
	c := NewConfirmer(f, time.Millisecond, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.WaitConfirmed(ctx, ledger.Tx{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
