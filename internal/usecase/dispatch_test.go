package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/stayfront/outreach/internal/config"
	"github.com/stayfront/outreach/internal/entity"
)

type dispatchFixture struct {
	prospects  *MockProspectRepository
	campaigns  *MockCampaignRepository
	mailboxes  *MockMailboxRepository
	emails     *MockEmailRepository
	activities *MockActivityRepository
	generator  *MockContentGenerator
	transport  *MockMailTransport
	events     *MockEventPublisher

	dispatcher *Dispatcher
	slept      []time.Duration
}

func newDispatchFixture() *dispatchFixture {
	f := &dispatchFixture{
		prospects:  new(MockProspectRepository),
		campaigns:  new(MockCampaignRepository),
		mailboxes:  new(MockMailboxRepository),
		emails:     new(MockEmailRepository),
		activities: new(MockActivityRepository),
		generator:  new(MockContentGenerator),
		transport:  new(MockMailTransport),
		events:     new(MockEventPublisher),
	}

	cfg := &config.Config{
		MinProspectScore: 40,
		MinHealthScore:   50,
		HealthPenalty:    15,
		HealthPauseFloor: 30,
		StaggerMin:       time.Second,
		StaggerMax:       time.Second,
		Inboxes: []config.MailboxCredentials{
			{Email: "alice@agency.com", Host: "smtp.agency.com", Port: 587, User: "alice@agency.com", Password: "secret"},
			{Email: "bob@agency.com", Host: "smtp.agency.com", Port: 587, User: "bob@agency.com", Password: "secret"},
		},
	}

	eligibility := NewEligibilityFilter(f.prospects, f.emails, cfg.MinProspectScore)
	allocator := NewCampaignAllocator(f.campaigns, f.emails, DefaultRegistry())
	pool := NewMailboxPool(f.mailboxes, NewHealthTracker(cfg.HealthPenalty, cfg.HealthPauseFloor), cfg.MinHealthScore)

	f.dispatcher = NewDispatcher(
		eligibility, allocator, pool,
		f.generator, f.transport,
		f.emails, f.prospects, f.campaigns, f.activities, f.events,
		cfg,
	)
	f.dispatcher.GeneratePolicy.Delay = 0
	f.dispatcher.SendPolicy.Delay = 0
	f.dispatcher.Sleep = func(ctx context.Context, d time.Duration) {
		f.slept = append(f.slept, d)
	}
	return f
}

func (f *dispatchFixture) withProspect(id, email string) {
	f.prospects.On("FindCandidates", mock.Anything, 40).Return(prospects(prospect(id, email, 90)), nil)
	f.emails.On("OutboundProspectIDs", mock.Anything).Return(map[string]bool{}, nil)
}

func (f *dispatchFixture) withCampaign(id string) {
	f.campaigns.On("FindActive", mock.Anything).Return([]*entity.Campaign{campaign(id, "cold_intro", 20)}, nil)
	f.emails.On("CountForCampaignSince", mock.Anything, id, mock.Anything).Return(0, nil)
}

func (f *dispatchFixture) withMailbox(id, email string) {
	f.mailboxes.On("FindByStatus", mock.Anything, entity.MailboxActive).Return([]*entity.Mailbox{
		mailbox(id, email, 5, 20, 100),
	}, nil)
}

func TestDispatchSendsAndRecords(t *testing.T) {
	f := newDispatchFixture()
	f.withProspect("p1", "ana@grandpalace.com")
	f.withCampaign("c1")
	f.withMailbox("m1", "alice@agency.com")

	f.generator.On("Generate", mock.Anything, mock.Anything).Return(&GeneratedContent{Subject: "Quick question", Body: "Hi Ana"}, nil)
	f.transport.On("Send", mock.Anything, mock.Anything, "ana@grandpalace.com", "Quick question", "Hi Ana").Return("<msg-1>", nil)

	f.emails.On("Create", mock.Anything, mock.MatchedBy(func(e *entity.Email) bool {
		return e.ProspectID == "p1" &&
			e.CampaignID == "c1" &&
			e.FromEmail == "alice@agency.com" &&
			e.Direction == entity.DirectionOutbound &&
			e.Status == entity.EmailStatusSent
	})).Return(nil)
	f.mailboxes.On("IncrementSentToday", mock.Anything, "m1", mock.Anything).Return(true, nil)
	f.prospects.On("MarkContacted", mock.Anything, "p1", mock.Anything).Return(nil)
	f.campaigns.On("IncrementEmailsSent", mock.Anything, "c1").Return(nil)
	f.activities.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.events.On("PublishDispatch", mock.Anything, mock.Anything).Return(nil)

	result := f.dispatcher.Dispatch(context.Background())

	assert.Equal(t, OutcomeSent, result.Outcome)
	assert.Equal(t, "p1", result.ProspectID)
	assert.Equal(t, "c1", result.CampaignID)
	assert.Equal(t, "alice@agency.com", result.Mailbox)
	assert.Equal(t, "<msg-1>", result.MessageID)

	f.emails.AssertExpectations(t)
	f.mailboxes.AssertExpectations(t)
	f.prospects.AssertExpectations(t)
	f.campaigns.AssertExpectations(t)

	// Human-timing delay applies after a send.
	assert.Len(t, f.slept, 1)
	assert.Equal(t, time.Second, f.slept[0])
}

// A lone role-account prospect yields a skip, not an error.
func TestDispatchSkipsWhenOnlyGenericProspect(t *testing.T) {
	f := newDispatchFixture()
	f.withProspect("p1", "info@hotel.com")
	f.events.On("PublishDispatch", mock.Anything, mock.Anything).Return(nil)

	result := f.dispatcher.Dispatch(context.Background())

	assert.Equal(t, OutcomeSkipped, result.Outcome)
	assert.Equal(t, ReasonNoProspects, result.Reason)
	assert.Empty(t, f.slept, "skips return without the stagger delay")
}

func TestDispatchSkipsWithoutCampaignCapacity(t *testing.T) {
	f := newDispatchFixture()
	f.withProspect("p1", "ana@grandpalace.com")
	f.campaigns.On("FindActive", mock.Anything).Return([]*entity.Campaign{campaign("c1", "cold_intro", 20)}, nil)
	f.emails.On("CountForCampaignSince", mock.Anything, "c1", mock.Anything).Return(20, nil)
	f.events.On("PublishDispatch", mock.Anything, mock.Anything).Return(nil)

	result := f.dispatcher.Dispatch(context.Background())

	assert.Equal(t, OutcomeSkipped, result.Outcome)
	assert.Equal(t, ReasonNoCampaignQuota, result.Reason)
}

func TestDispatchSkipsWithoutMailboxCapacity(t *testing.T) {
	f := newDispatchFixture()
	f.withProspect("p1", "ana@grandpalace.com")
	f.withCampaign("c1")
	f.mailboxes.On("FindByStatus", mock.Anything, entity.MailboxActive).Return([]*entity.Mailbox{}, nil)
	f.events.On("PublishDispatch", mock.Anything, mock.Anything).Return(nil)

	result := f.dispatcher.Dispatch(context.Background())

	assert.Equal(t, OutcomeSkipped, result.Outcome)
	assert.Equal(t, ReasonNoMailboxCapacity, result.Reason)
	f.generator.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

// Persistent 503s exhaust the send budget of 3; health is penalized exactly
// once and no email record is written.
func TestDispatchTransportFailurePenalizesHealthOnce(t *testing.T) {
	f := newDispatchFixture()
	f.withProspect("p1", "ana@grandpalace.com")
	f.withCampaign("c1")
	f.withMailbox("m1", "alice@agency.com")

	f.generator.On("Generate", mock.Anything, mock.Anything).Return(&GeneratedContent{Subject: "s", Body: "b"}, nil)
	f.transport.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", &TransientError{Code: "SMTP_UNAVAILABLE", Message: "503"})
	f.mailboxes.On("UpdateHealth", mock.Anything, "m1", 85, entity.MailboxActive).Return(nil)
	f.activities.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.events.On("PublishDispatch", mock.Anything, mock.Anything).Return(nil)

	result := f.dispatcher.Dispatch(context.Background())

	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.Equal(t, ReasonTransportFailed, result.Reason)

	f.transport.AssertNumberOfCalls(t, "Send", 3)
	f.mailboxes.AssertNumberOfCalls(t, "UpdateHealth", 1)
	f.emails.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Len(t, f.slept, 1, "failures still stagger before returning")
}

// Malformed generator output is permanent: one attempt, straight to FAILED,
// no health penalty.
func TestDispatchMalformedContentNotRetried(t *testing.T) {
	f := newDispatchFixture()
	f.withProspect("p1", "ana@grandpalace.com")
	f.withCampaign("c1")
	f.withMailbox("m1", "alice@agency.com")

	f.generator.On("Generate", mock.Anything, mock.Anything).Return(&GeneratedContent{Subject: "s", Body: "  "}, nil)
	f.events.On("PublishDispatch", mock.Anything, mock.Anything).Return(nil)

	result := f.dispatcher.Dispatch(context.Background())

	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.Equal(t, ReasonGenerationFailed, result.Reason)

	f.generator.AssertNumberOfCalls(t, "Generate", 1)
	f.transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.mailboxes.AssertNotCalled(t, "UpdateHealth", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// A mailbox without configured credentials costs only that mailbox; the
// next one in the ranking carries the send.
func TestDispatchSkipsMailboxWithoutCredentials(t *testing.T) {
	f := newDispatchFixture()
	f.withProspect("p1", "ana@grandpalace.com")
	f.withCampaign("c1")

	f.mailboxes.On("FindByStatus", mock.Anything, entity.MailboxActive).Return([]*entity.Mailbox{
		mailbox("m1", "ghost@agency.com", 0, 20, 100), // no SMTP_INBOX entry
		mailbox("m2", "bob@agency.com", 10, 20, 100),
	}, nil)

	f.generator.On("Generate", mock.Anything, mock.Anything).Return(&GeneratedContent{Subject: "s", Body: "b"}, nil)
	f.transport.On("Send", mock.Anything, mock.MatchedBy(func(c config.MailboxCredentials) bool {
		return c.Email == "bob@agency.com"
	}), mock.Anything, mock.Anything, mock.Anything).Return("<msg-2>", nil)

	f.emails.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.mailboxes.On("IncrementSentToday", mock.Anything, "m2", mock.Anything).Return(true, nil)
	f.prospects.On("MarkContacted", mock.Anything, "p1", mock.Anything).Return(nil)
	f.campaigns.On("IncrementEmailsSent", mock.Anything, "c1").Return(nil)
	f.activities.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.events.On("PublishDispatch", mock.Anything, mock.Anything).Return(nil)

	result := f.dispatcher.Dispatch(context.Background())

	assert.Equal(t, OutcomeSent, result.Outcome)
	assert.Equal(t, "bob@agency.com", result.Mailbox)
}

// Once an email record exists for a prospect, later invocations never pick
// them again, no matter how often the trigger fires.
func TestDispatchAtMostOncePerProspect(t *testing.T) {
	f := newDispatchFixture()
	f.withCampaign("c1")
	f.withMailbox("m1", "alice@agency.com")

	f.prospects.On("FindCandidates", mock.Anything, 40).Return(prospects(prospect("p1", "ana@grandpalace.com", 90)), nil)
	// First invocation: untouched. After that the email record exists.
	f.emails.On("OutboundProspectIDs", mock.Anything).Return(map[string]bool{}, nil).Once()
	f.emails.On("OutboundProspectIDs", mock.Anything).Return(map[string]bool{"p1": true}, nil)

	f.generator.On("Generate", mock.Anything, mock.Anything).Return(&GeneratedContent{Subject: "s", Body: "b"}, nil)
	f.transport.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("<msg-1>", nil)
	f.emails.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.mailboxes.On("IncrementSentToday", mock.Anything, "m1", mock.Anything).Return(true, nil)
	f.prospects.On("MarkContacted", mock.Anything, "p1", mock.Anything).Return(nil)
	f.campaigns.On("IncrementEmailsSent", mock.Anything, "c1").Return(nil)
	f.activities.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.events.On("PublishDispatch", mock.Anything, mock.Anything).Return(nil)

	first := f.dispatcher.Dispatch(context.Background())
	second := f.dispatcher.Dispatch(context.Background())
	third := f.dispatcher.Dispatch(context.Background())

	assert.Equal(t, OutcomeSent, first.Outcome)
	assert.Equal(t, OutcomeSkipped, second.Outcome)
	assert.Equal(t, ReasonNoProspects, second.Reason)
	assert.Equal(t, OutcomeSkipped, third.Outcome)

	f.emails.AssertNumberOfCalls(t, "Create", 1)
}
