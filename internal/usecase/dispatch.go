package usecase

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/stayfront/outreach/internal/config"
	"github.com/stayfront/outreach/internal/entity"
	"github.com/stayfront/outreach/internal/infra/queue"
	"github.com/stayfront/outreach/internal/logging"
)

// Dispatcher runs one full send pass per invocation:
//
//	SELECTING_PROSPECT -> SELECTING_CAMPAIGN -> SELECTING_MAILBOX ->
//	GENERATING_CONTENT -> SENDING -> RECORDING -> DONE
//
// with SKIPPED (no capacity anywhere, not an error) and FAILED (external
// call failed after retries) terminals. It never loops to send a second
// email; the external trigger calls it again instead.
type Dispatcher struct {
	Eligibility *EligibilityFilter
	Allocator   *CampaignAllocator
	Pool        *MailboxPool

	Generator  ContentGenerator
	Transport  MailTransport
	Emails     EmailRepositoryInterface
	Prospects  ProspectRepositoryInterface
	Campaigns  CampaignRepositoryInterface
	Activities ActivityRepositoryInterface
	Events     EventPublisherInterface

	Cfg *config.Config

	GeneratePolicy RetryPolicy
	SendPolicy     RetryPolicy

	// Sleep is the stagger hook; tests replace it.
	Sleep func(ctx context.Context, d time.Duration)
}

func NewDispatcher(
	eligibility *EligibilityFilter,
	allocator *CampaignAllocator,
	pool *MailboxPool,
	generator ContentGenerator,
	transport MailTransport,
	emails EmailRepositoryInterface,
	prospects ProspectRepositoryInterface,
	campaigns CampaignRepositoryInterface,
	activities ActivityRepositoryInterface,
	events EventPublisherInterface,
	cfg *config.Config,
) *Dispatcher {
	return &Dispatcher{
		Eligibility: eligibility,
		Allocator:   allocator,
		Pool:        pool,
		Generator:   generator,
		Transport:   transport,
		Emails:      emails,
		Prospects:   prospects,
		Campaigns:   campaigns,
		Activities:  activities,
		Events:      events,
		Cfg:         cfg,
		GeneratePolicy: RetryPolicy{
			Attempts:  2, // one retry on transient errors only
			Delay:     2 * time.Second,
			Timeout:   30 * time.Second,
			Retryable: DefaultRetryable,
		},
		SendPolicy: RetryPolicy{
			Attempts:  3,
			Delay:     5 * time.Second,
			Timeout:   15 * time.Second,
			Retryable: DefaultRetryable,
		},
		Sleep: sleepCtx,
	}
}

// Dispatch processes at most one email send and returns the structured
// result for the trigger. Every failure is converted here; nothing escapes
// as an unhandled fault.
func (d *Dispatcher) Dispatch(ctx context.Context) *DispatchResult {
	result := d.run(ctx)

	d.publish(ctx, result)
	logging.Logger.Info().
		Str("outcome", result.Outcome).
		Str("reason", result.Reason).
		Str("prospect_id", result.ProspectID).
		Str("mailbox", result.Mailbox).
		Msg("dispatch finished")

	// Human-timing delay after a send or a failure so back-to-back ticks
	// do not burst. Pure skips return immediately.
	if result.Outcome != OutcomeSkipped {
		d.Sleep(ctx, d.staggerDelay())
	}
	return result
}

func (d *Dispatcher) run(ctx context.Context) *DispatchResult {
	// SELECTING_PROSPECT
	prospects, err := d.Eligibility.Eligible(ctx)
	if err != nil {
		return d.failed(ReasonRepositoryFailed, "", "", "", err)
	}
	if len(prospects) == 0 {
		return skipped(ReasonNoProspects)
	}
	prospect := prospects[0]

	// SELECTING_CAMPAIGN
	allocations, err := d.Allocator.Eligible(ctx)
	if err != nil {
		return d.failed(ReasonRepositoryFailed, prospect.ID, "", "", err)
	}
	if len(allocations) == 0 {
		return skipped(ReasonNoCampaignQuota)
	}
	allocation := allocations[0]
	campaign := allocation.Campaign

	// SELECTING_MAILBOX. A mailbox without credentials is a configuration
	// error that costs only that mailbox this invocation.
	excluded := map[string]bool{}
	var mailbox *entity.Mailbox
	var creds config.MailboxCredentials
	for {
		mailbox, err = d.Pool.Pick(ctx, excluded)
		if err != nil {
			return d.failed(ReasonRepositoryFailed, prospect.ID, campaign.ID, "", err)
		}
		if mailbox == nil {
			return skipped(ReasonNoMailboxCapacity)
		}
		var ok bool
		creds, ok = d.Cfg.CredentialsFor(mailbox.Email)
		if ok {
			break
		}
		logging.Logger.Warn().
			Str("mailbox", mailbox.Email).
			Msg("mailbox skipped: no SMTP credentials configured")
		excluded[mailbox.ID] = true
	}

	// GENERATING_CONTENT
	prompt := allocation.Strategy.BuildPrompt(prospect)
	var content *GeneratedContent
	err = d.GeneratePolicy.Do(ctx, func(ctx context.Context) error {
		c, genErr := d.Generator.Generate(ctx, prompt)
		if genErr != nil {
			return genErr
		}
		if strings.TrimSpace(c.Subject) == "" || strings.TrimSpace(c.Body) == "" {
			return &PermanentError{
				Code:    "MALFORMED_CONTENT",
				Message: "generator returned empty subject or body",
			}
		}
		content = c
		return nil
	})
	if err != nil {
		return d.failed(ReasonGenerationFailed, prospect.ID, campaign.ID, mailbox.Email, err)
	}

	// SENDING
	var messageID string
	err = d.SendPolicy.Do(ctx, func(ctx context.Context) error {
		id, sendErr := d.Transport.Send(ctx, creds, prospect.EmailAddress(), content.Subject, content.Body)
		if sendErr != nil {
			return sendErr
		}
		messageID = id
		return nil
	})
	if err != nil {
		// Transport failures are attributable to the sender identity;
		// penalize health exactly once, before returning.
		if hErr := d.Pool.RecordFailure(ctx, mailbox); hErr != nil {
			logging.Logger.Error().Err(hErr).Str("mailbox", mailbox.Email).Msg("health penalty write failed")
		}
		d.audit(ctx, prospect.ID, "email_failed", "transport: "+err.Error())
		return d.failed(ReasonTransportFailed, prospect.ID, campaign.ID, mailbox.Email, err)
	}

	// RECORDING. The email record goes in first: it is the source of truth
	// for the at-most-once check, so a partial failure after this point can
	// never cause a duplicate send.
	record := entity.NewOutboundEmail(prospect.ID, campaign.ID, mailbox.Email, prospect.EmailAddress(), content.Subject, content.Body)
	record.MessageID = messageID
	if err := d.Emails.Create(ctx, record); err != nil {
		logging.Logger.Error().Err(err).
			Str("prospect_id", prospect.ID).
			Msg("email sent but record insert failed; prospect may be retried")
		return d.failed(ReasonRecordingFailed, prospect.ID, campaign.ID, mailbox.Email, err)
	}

	if err := d.Pool.RecordSuccess(ctx, mailbox); err != nil {
		logging.Logger.Error().Err(err).Str("mailbox", mailbox.Email).Msg("sent_today increment failed")
	}
	if err := d.Prospects.MarkContacted(ctx, prospect.ID, record.SentAt); err != nil {
		logging.Logger.Error().Err(err).Str("prospect_id", prospect.ID).Msg("stage update failed")
	}
	if err := d.Campaigns.IncrementEmailsSent(ctx, campaign.ID); err != nil {
		logging.Logger.Error().Err(err).Str("campaign_id", campaign.ID).Msg("campaign counter update failed")
	}
	d.audit(ctx, prospect.ID, "email_sent", "campaign "+campaign.Name+" via "+mailbox.Email)

	return &DispatchResult{
		Outcome:    OutcomeSent,
		ProspectID: prospect.ID,
		CampaignID: campaign.ID,
		Mailbox:    mailbox.Email,
		MessageID:  messageID,
	}
}

func (d *Dispatcher) failed(reason, prospectID, campaignID, mailbox string, err error) *DispatchResult {
	logging.Logger.Error().Err(err).
		Str("reason", reason).
		Str("prospect_id", prospectID).
		Msg("dispatch failed")
	return &DispatchResult{
		Outcome:    OutcomeFailed,
		Reason:     reason,
		ProspectID: prospectID,
		CampaignID: campaignID,
		Mailbox:    mailbox,
	}
}

func (d *Dispatcher) audit(ctx context.Context, prospectID, kind, detail string) {
	if d.Activities == nil {
		return
	}
	if err := d.Activities.Create(ctx, entity.NewActivity(prospectID, kind, detail)); err != nil {
		logging.Logger.Error().Err(err).Str("prospect_id", prospectID).Msg("activity write failed")
	}
}

func (d *Dispatcher) publish(ctx context.Context, r *DispatchResult) {
	if d.Events == nil {
		return
	}
	payload := queue.DispatchPayload{
		Outcome:    r.Outcome,
		Reason:     r.Reason,
		ProspectID: r.ProspectID,
		CampaignID: r.CampaignID,
		Mailbox:    r.Mailbox,
		MessageID:  r.MessageID,
		At:         time.Now(),
	}
	if err := d.Events.PublishDispatch(ctx, payload); err != nil {
		logging.Logger.Error().Err(err).Msg("dispatch event publish failed")
	}
}

func (d *Dispatcher) staggerDelay() time.Duration {
	min, max := d.Cfg.StaggerMin, d.Cfg.StaggerMax
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
