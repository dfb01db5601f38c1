package usecase

import "github.com/stayfront/outreach/internal/entity"

// HealthTracker maps send outcomes to health deltas. Health only ever goes
// down as a result of engine activity; recovery is an explicit external
// reset.
type HealthTracker struct {
	Penalty    int // subtracted per mailbox-attributable failure
	PauseFloor int // auto-pause below this score
}

func NewHealthTracker(penalty, pauseFloor int) HealthTracker {
	return HealthTracker{Penalty: penalty, PauseFloor: pauseFloor}
}

// Penalize returns the post-failure score and status for a mailbox. It does
// not persist anything; the pool decides what to write.
func (t HealthTracker) Penalize(m *entity.Mailbox) (score int, status string) {
	score = m.HealthScore - t.Penalty
	if score < 0 {
		score = 0
	}
	status = m.Status
	if score < t.PauseFloor && status == entity.MailboxActive {
		status = entity.MailboxPaused
	}
	return score, status
}
