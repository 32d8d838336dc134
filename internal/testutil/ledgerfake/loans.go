package ledgerfake

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"microlend/internal/domain/ledger"
	"microlend/internal/domain/loan"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// LoanCreatedTopic tags the log emitted by AddLoan.
var LoanCreatedTopic = crypto.Keccak256Hash([]byte("BorrowerCreated(uint256)"))

type loanRecord struct {
	raw   loan.Raw
	token common.Address
}

type LoanRegistry struct {
	chain  *Chain
	tokens *TokenStore
	addr   common.Address
	owner  common.Address

	mu         sync.Mutex
	loans      []loanRecord
	lent       map[common.Address]*big.Int
	points     map[common.Address]*big.Int
	badges     map[common.Address]uint8
	badgeNames map[uint8]string
	// omitCreated drops the creation log from AddLoan receipts.
	omitCreated bool
}

// NewLoanRegistry: tokens may be nil, in which case Lend skips the
// allowance check.
func NewLoanRegistry(c *Chain, tokens *TokenStore, addr, owner common.Address) *LoanRegistry {
	return &LoanRegistry{
		chain:      c,
		tokens:     tokens,
		addr:       addr,
		owner:      owner,
		lent:       map[common.Address]*big.Int{},
		points:     map[common.Address]*big.Int{},
		badges:     map[common.Address]uint8{},
		badgeNames: map[uint8]string{},
	}
}

// Seed appends a loan directly and returns its id.
func (r *LoanRegistry) Seed(raw loan.Raw) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loans = append(r.loans, loanRecord{raw: raw})
	return uint64(len(r.loans))
}

func (r *LoanRegistry) SetLender(a common.Address, lent, points *big.Int, level uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lent[a] = lent
	r.points[a] = points
	r.badges[a] = level
}

func (r *LoanRegistry) SetBadgeName(level uint8, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.badgeNames[level] = name
}

// OmitCreatedEvent makes AddLoan confirm without emitting its creation log.
func (r *LoanRegistry) OmitCreatedEvent() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.omitCreated = true
}

func (r *LoanRegistry) Address() common.Address { return r.addr }

func (r *LoanRegistry) Owner(ctx context.Context) (common.Address, error) {
	if err := r.chain.failure("loan.Owner"); err != nil {
		return common.Address{}, err
	}
	return r.owner, nil
}

func (r *LoanRegistry) Count(ctx context.Context) (uint64, error) {
	if err := r.chain.failure("loan.Count"); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return uint64(len(r.loans)), nil
}

func (r *LoanRegistry) TotalLoansValue(ctx context.Context) (*big.Int, error) {
	if err := r.chain.failure("loan.TotalLoansValue"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := new(big.Int)
	for _, l := range r.loans {
		sum.Add(sum, l.raw.Requested)
	}
	return sum, nil
}

func (r *LoanRegistry) get(op string, id uint64) (loan.Raw, error) {
	if err := r.chain.readFailure(op, id); err != nil {
		return loan.Raw{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == 0 || id > uint64(len(r.loans)) {
		return loan.Raw{}, errors.New("execution reverted: no such borrower")
	}
	return r.loans[id-1].raw, nil
}

func (r *LoanRegistry) Name(ctx context.Context, id uint64) (string, error) {
	raw, err := r.get("loan.Name", id)
	return raw.Name, err
}

func (r *LoanRegistry) Location(ctx context.Context, id uint64) (string, error) {
	raw, err := r.get("loan.Location", id)
	return raw.Location, err
}

func (r *LoanRegistry) Business(ctx context.Context, id uint64) (string, error) {
	raw, err := r.get("loan.Business", id)
	return raw.Business, err
}

func (r *LoanRegistry) Story(ctx context.Context, id uint64) (string, error) {
	raw, err := r.get("loan.Story", id)
	return raw.Story, err
}

func (r *LoanRegistry) Photo(ctx context.Context, id uint64) (string, error) {
	raw, err := r.get("loan.Photo", id)
	return raw.Photo, err
}

func (r *LoanRegistry) RequestedAmount(ctx context.Context, id uint64) (*big.Int, error) {
	raw, err := r.get("loan.RequestedAmount", id)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(raw.Requested), nil
}

func (r *LoanRegistry) FundedAmount(ctx context.Context, id uint64) (*big.Int, error) {
	raw, err := r.get("loan.FundedAmount", id)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(raw.Funded), nil
}

func (r *LoanRegistry) IsActive(ctx context.Context, id uint64) (bool, error) {
	raw, err := r.get("loan.IsActive", id)
	return raw.Active, err
}

func (r *LoanRegistry) TotalLent(ctx context.Context, a common.Address) (*big.Int, error) {
	if err := r.chain.failure("loan.TotalLent"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return orZero(r.lent[a]), nil
}

func (r *LoanRegistry) ImpactPoints(ctx context.Context, a common.Address) (*big.Int, error) {
	if err := r.chain.failure("loan.ImpactPoints"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return orZero(r.points[a]), nil
}

func (r *LoanRegistry) BadgeLevel(ctx context.Context, a common.Address) (uint8, error) {
	if err := r.chain.failure("loan.BadgeLevel"); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.badges[a], nil
}

func (r *LoanRegistry) BadgeName(ctx context.Context, level uint8) (string, error) {
	if err := r.chain.failure("loan.BadgeName"); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.badgeNames[level], nil
}

func (r *LoanRegistry) Lend(ctx context.Context, id uint64, amount *big.Int) (ledger.Tx, error) {
	sender := r.chain.Sender()
	amt := new(big.Int).Set(amount)
	return r.chain.submit("loan.Lend", func() ([]*types.Log, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if id == 0 || id > uint64(len(r.loans)) {
			return nil, errors.New("no such borrower")
		}
		rec := &r.loans[id-1]
		if !rec.raw.Active {
			return nil, errors.New("loan not active")
		}
		remaining := new(big.Int).Sub(rec.raw.Requested, rec.raw.Funded)
		if amt.Cmp(remaining) > 0 {
			return nil, errors.New("amount exceeds remaining")
		}
		if r.tokens != nil {
			if err := r.tokens.spend(sender, r.addr, amt); err != nil {
				return nil, err
			}
		}
		rec.raw.Funded = new(big.Int).Add(rec.raw.Funded, amt)
		if rec.raw.Funded.Cmp(rec.raw.Requested) >= 0 {
			rec.raw.Active = false
		}
		r.lent[sender] = new(big.Int).Add(orZero(r.lent[sender]), amt)
		r.points[sender] = new(big.Int).Add(orZero(r.points[sender]), amt)
		return nil, nil
	})
}

func (r *LoanRegistry) AddLoan(ctx context.Context, in loan.New) (ledger.Tx, error) {
	sender := r.chain.Sender()
	return r.chain.submit("loan.AddLoan", func() ([]*types.Log, error) {
		if sender != r.owner {
			return nil, errors.New("only owner")
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		r.loans = append(r.loans, loanRecord{
			raw: loan.Raw{
				Name:      in.Name,
				Location:  in.Location,
				Business:  in.Business,
				Story:     in.Story,
				Photo:     in.Photo,
				Requested: new(big.Int).Set(in.Amount),
				Funded:    new(big.Int),
				Active:    true,
			},
			token: in.Token,
		})
		if r.omitCreated {
			return nil, nil
		}
		id := common.BigToHash(new(big.Int).SetUint64(uint64(len(r.loans))))
		return []*types.Log{{Address: r.addr, Topics: []common.Hash{LoanCreatedTopic, id}}}, nil
	})
}

func (r *LoanRegistry) LoanCreated(rcpt ledger.Receipt) (uint64, error) {
	for _, l := range rcpt.Logs {
		if l.Address == r.addr && len(l.Topics) == 2 && l.Topics[0] == LoanCreatedTopic {
			return l.Topics[1].Big().Uint64(), nil
		}
	}
	return 0, errors.New("no loan created event")
}

// Token returns the funding token recorded for a loan added through AddLoan.
func (r *LoanRegistry) Token(id uint64) common.Address {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == 0 || id > uint64(len(r.loans)) {
		return common.Address{}
	}
	return r.loans[id-1].token
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
