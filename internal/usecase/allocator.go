package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/stayfront/outreach/internal/entity"
	"github.com/stayfront/outreach/internal/logging"
)

// CampaignAllocation is one campaign with unused daily capacity and its
// resolved messaging strategy.
type CampaignAllocation struct {
	Campaign  *entity.Campaign
	SentToday int
	Strategy  PromptStrategy
}

func (a CampaignAllocation) usageRatio() float64 {
	if a.Campaign.DailyLimit <= 0 {
		return 1.0
	}
	return float64(a.SentToday) / float64(a.Campaign.DailyLimit)
}

// CampaignAllocator selects campaigns that may still send today. The daily
// count is always derived from email records in the campaign's timezone,
// never from a cached counter.
type CampaignAllocator struct {
	Campaigns  CampaignRepositoryInterface
	Emails     EmailRepositoryInterface
	Strategies *StrategyRegistry

	Now func() time.Time
}

func NewCampaignAllocator(campaigns CampaignRepositoryInterface, emails EmailRepositoryInterface, strategies *StrategyRegistry) *CampaignAllocator {
	return &CampaignAllocator{
		Campaigns:  campaigns,
		Emails:     emails,
		Strategies: strategies,
		Now:        time.Now,
	}
}

// Eligible returns campaigns under their daily limit, lowest usage ratio
// first so load spreads evenly instead of exhausting one campaign before
// the next starts. A campaign with an unknown strategy key is skipped and
// logged; it never aborts the run.
func (a *CampaignAllocator) Eligible(ctx context.Context) ([]CampaignAllocation, error) {
	active, err := a.Campaigns.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	now := a.Now()
	allocations := make([]CampaignAllocation, 0, len(active))
	for _, c := range active {
		if c.DailyLimit <= 0 {
			continue
		}

		since := startOfDay(now, c.Location())
		sent, err := a.Emails.CountForCampaignSince(ctx, c.ID, since)
		if err != nil {
			return nil, err
		}
		if sent >= c.DailyLimit {
			continue
		}

		strategy, err := a.Strategies.Resolve(c.StrategyKey)
		if err != nil {
			logging.Logger.Warn().
				Str("campaign_id", c.ID).
				Str("strategy_key", c.StrategyKey).
				Err(err).
				Msg("campaign skipped: unresolvable strategy")
			continue
		}

		allocations = append(allocations, CampaignAllocation{
			Campaign:  c,
			SentToday: sent,
			Strategy:  strategy,
		})
	}

	sort.SliceStable(allocations, func(i, j int) bool {
		ri, rj := allocations[i].usageRatio(), allocations[j].usageRatio()
		if ri != rj {
			return ri < rj
		}
		return allocations[i].Campaign.ID < allocations[j].Campaign.ID
	})

	return allocations, nil
}
