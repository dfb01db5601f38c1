package usecase

import (
	"time"

	"github.com/stayfront/outreach/internal/entity"
)

func prospect(id, email string, score int) *entity.Prospect {
	p := &entity.Prospect{
		ID:        id,
		Name:      "Prospect " + id,
		Stage:     entity.StageNew,
		Score:     score,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if email != "" {
		p.Email = &email
	}
	return p
}

func prospects(ps ...*entity.Prospect) []*entity.Prospect {
	return ps
}

func ids(ps []*entity.Prospect) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func campaign(id, strategy string, dailyLimit int) *entity.Campaign {
	return &entity.Campaign{
		ID:          id,
		Name:        "Campaign " + id,
		StrategyKey: strategy,
		Active:      true,
		DailyLimit:  dailyLimit,
		Timezone:    "UTC",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

func mailbox(id, email string, sentToday, dailyLimit, health int) *entity.Mailbox {
	return &entity.Mailbox{
		ID:          id,
		Email:       email,
		WarmupStage: 3,
		DailyLimit:  dailyLimit,
		SentToday:   sentToday,
		HealthScore: health,
		Status:      entity.MailboxActive,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}
