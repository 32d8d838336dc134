package incentive

import (
	"context"
	"math/big"

	"microlend/internal/domain/loan"
	"microlend/pkg/units"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Usecase struct {
	registry loan.Registry
	log      *zap.Logger
}

func NewUsecase(r loan.Registry, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{registry: r, log: log}
}

type Position struct {
	Account          common.Address  `json:"account"`
	TotalLent        decimal.Decimal `json:"total_lent"`
	ImpactPoints     string          `json:"impact_points"`
	BadgeLevel       uint8           `json:"badge_level"`
	BadgeLabel       string          `json:"badge_label"`
	Tier             Tier            `json:"tier"`
	TierLabel        string          `json:"tier_label"`
	NextTierProgress decimal.Decimal `json:"next_tier_progress"`
	Ladder           []Rung          `json:"ladder"`
}

// Position reads a lender's standing from the registry. Impact points and
// the badge level are the ledger's own; the label comes from the registry's
// badge name lookup with a local fallback.
func (u *Usecase) Position(ctx context.Context, account common.Address) (*Position, error) {
	var (
		lent, points *big.Int
		level        uint8
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { lent, err = u.registry.TotalLent(gctx, account); return })
	g.Go(func() (err error) { points, err = u.registry.ImpactPoints(gctx, account); return })
	g.Go(func() (err error) { level, err = u.registry.BadgeLevel(gctx, account); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := units.FromWei(lent)
	tier := BadgeTier(total)
	return &Position{
		Account:          account,
		TotalLent:        total,
		ImpactPoints:     points.String(),
		BadgeLevel:       level,
		BadgeLabel:       u.badgeLabel(ctx, level),
		Tier:             tier,
		TierLabel:        tier.Label(),
		NextTierProgress: TierProgress(total, tier),
		Ladder:           Ladder(total),
	}, nil
}

func (u *Usecase) badgeLabel(ctx context.Context, level uint8) string {
	if Tier(level) > MaxTier {
		return Label(0)
	}
	name, err := u.registry.BadgeName(ctx, level)
	if err != nil {
		u.log.Debug("badge name lookup failed", zap.Uint8("level", level), zap.Error(err))
		return Label(0)
	}
	if name == "" {
		return Label(level)
	}
	return name
}
