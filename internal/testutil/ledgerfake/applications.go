package ledgerfake

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"microlend/internal/domain/application"
	"microlend/internal/domain/ledger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type appRecord struct {
	raw          application.Raw
	businessDone bool
}

type ApplicationRegistry struct {
	chain *Chain
	owner common.Address
	now   func() time.Time

	mu   sync.Mutex
	apps []appRecord
}

func NewApplicationRegistry(c *Chain, owner common.Address) *ApplicationRegistry {
	return &ApplicationRegistry{chain: c, owner: owner, now: time.Now}
}

// Seed appends a complete application and returns its id.
func (r *ApplicationRegistry) Seed(raw application.Raw) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apps = append(r.apps, appRecord{raw: raw, businessDone: true})
	return uint64(len(r.apps))
}

func (r *ApplicationRegistry) Owner(ctx context.Context) (common.Address, error) {
	if err := r.chain.failure("app.Owner"); err != nil {
		return common.Address{}, err
	}
	return r.owner, nil
}

func (r *ApplicationRegistry) Count(ctx context.Context) (uint64, error) {
	if err := r.chain.failure("app.Count"); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return uint64(len(r.apps)), nil
}

func (r *ApplicationRegistry) get(op string, id uint64) (application.Raw, error) {
	if err := r.chain.readFailure(op, id); err != nil {
		return application.Raw{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == 0 || id > uint64(len(r.apps)) {
		return application.Raw{}, errors.New("execution reverted: no such application")
	}
	return r.apps[id-1].raw, nil
}

func (r *ApplicationRegistry) Applicant(ctx context.Context, id uint64) (common.Address, error) {
	raw, err := r.get("app.Applicant", id)
	return raw.Applicant, err
}

func (r *ApplicationRegistry) Name(ctx context.Context, id uint64) (string, error) {
	raw, err := r.get("app.Name", id)
	return raw.Name, err
}

func (r *ApplicationRegistry) Email(ctx context.Context, id uint64) (string, error) {
	raw, err := r.get("app.Email", id)
	return raw.Email, err
}

func (r *ApplicationRegistry) Phone(ctx context.Context, id uint64) (string, error) {
	raw, err := r.get("app.Phone", id)
	return raw.Phone, err
}

func (r *ApplicationRegistry) Location(ctx context.Context, id uint64) (string, error) {
	raw, err := r.get("app.Location", id)
	return raw.Location, err
}

func (r *ApplicationRegistry) Business(ctx context.Context, id uint64) (string, error) {
	raw, err := r.get("app.Business", id)
	return raw.Business, err
}

func (r *ApplicationRegistry) Story(ctx context.Context, id uint64) (string, error) {
	raw, err := r.get("app.Story", id)
	return raw.Story, err
}

func (r *ApplicationRegistry) Amount(ctx context.Context, id uint64) (*big.Int, error) {
	raw, err := r.get("app.Amount", id)
	if err != nil {
		return nil, err
	}
	return orZero(raw.Amount), nil
}

func (r *ApplicationRegistry) Timestamp(ctx context.Context, id uint64) (*big.Int, error) {
	raw, err := r.get("app.Timestamp", id)
	if err != nil {
		return nil, err
	}
	return orZero(raw.Timestamp), nil
}

func (r *ApplicationRegistry) Status(ctx context.Context, id uint64) (uint8, error) {
	raw, err := r.get("app.Status", id)
	return raw.Status, err
}

func (r *ApplicationRegistry) SubmitPhase1(ctx context.Context, p application.Personal) (ledger.Tx, error) {
	sender := r.chain.Sender()
	return r.chain.submit("app.SubmitPhase1", func() ([]*types.Log, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.apps = append(r.apps, appRecord{raw: application.Raw{
			Applicant: sender,
			Name:      p.Name,
			Email:     p.Email,
			Phone:     p.Phone,
			Location:  p.Location,
			Amount:    new(big.Int),
			Timestamp: big.NewInt(r.now().Unix()),
			Status:    uint8(application.StatusPending),
		}})
		return nil, nil
	})
}

func (r *ApplicationRegistry) SubmitPhase2(ctx context.Context, business, story string, amount *big.Int) (ledger.Tx, error) {
	sender := r.chain.Sender()
	amt := new(big.Int).Set(amount)
	return r.chain.submit("app.SubmitPhase2", func() ([]*types.Log, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i := len(r.apps) - 1; i >= 0; i-- {
			rec := &r.apps[i]
			if rec.raw.Applicant == sender && !rec.businessDone {
				rec.raw.Business = business
				rec.raw.Story = story
				rec.raw.Amount = amt
				rec.businessDone = true
				return nil, nil
			}
		}
		return nil, errors.New("no application in progress")
	})
}

func (r *ApplicationRegistry) Approve(ctx context.Context, id uint64) (ledger.Tx, error) {
	return r.transition("app.Approve", id, application.StatusApproved)
}

func (r *ApplicationRegistry) Reject(ctx context.Context, id uint64) (ledger.Tx, error) {
	return r.transition("app.Reject", id, application.StatusRejected)
}

func (r *ApplicationRegistry) transition(op string, id uint64, to application.Status) (ledger.Tx, error) {
	sender := r.chain.Sender()
	return r.chain.submit(op, func() ([]*types.Log, error) {
		if sender != r.owner {
			return nil, errors.New("only owner")
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if id == 0 || id > uint64(len(r.apps)) {
			return nil, errors.New("no such application")
		}
		rec := &r.apps[id-1]
		if application.Status(rec.raw.Status) != application.StatusPending {
			return nil, errors.New("not pending")
		}
		rec.raw.Status = uint8(to)
		return nil, nil
	})
}
