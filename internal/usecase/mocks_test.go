package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/stayfront/outreach/internal/config"
	"github.com/stayfront/outreach/internal/entity"
	"github.com/stayfront/outreach/internal/infra/queue"
)

// MockProspectRepository
type MockProspectRepository struct {
	mock.Mock
}

func (m *MockProspectRepository) FindCandidates(ctx context.Context, minScore int) ([]*entity.Prospect, error) {
	args := m.Called(ctx, minScore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Prospect), args.Error(1)
}

func (m *MockProspectRepository) MarkContacted(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// MockCampaignRepository
type MockCampaignRepository struct {
	mock.Mock
}

func (m *MockCampaignRepository) FindActive(ctx context.Context) ([]*entity.Campaign, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) IncrementEmailsSent(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockMailboxRepository
type MockMailboxRepository struct {
	mock.Mock
}

func (m *MockMailboxRepository) FindByStatus(ctx context.Context, status string) ([]*entity.Mailbox, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Mailbox), args.Error(1)
}

func (m *MockMailboxRepository) IncrementSentToday(ctx context.Context, id string, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockMailboxRepository) UpdateHealth(ctx context.Context, id string, healthScore int, status string) error {
	args := m.Called(ctx, id, healthScore, status)
	return args.Error(0)
}

// MockEmailRepository
type MockEmailRepository struct {
	mock.Mock
}

func (m *MockEmailRepository) Create(ctx context.Context, e *entity.Email) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEmailRepository) OutboundProspectIDs(ctx context.Context) (map[string]bool, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *MockEmailRepository) CountForCampaignSince(ctx context.Context, campaignID string, since time.Time) (int, error) {
	args := m.Called(ctx, campaignID, since)
	return args.Int(0), args.Error(1)
}

// MockActivityRepository
type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) Create(ctx context.Context, a *entity.Activity) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

// MockContentGenerator
type MockContentGenerator struct {
	mock.Mock
}

func (m *MockContentGenerator) Generate(ctx context.Context, prompt string) (*GeneratedContent, error) {
	args := m.Called(ctx, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*GeneratedContent), args.Error(1)
}

// MockMailTransport
type MockMailTransport struct {
	mock.Mock
}

func (m *MockMailTransport) Send(ctx context.Context, creds config.MailboxCredentials, to, subject, body string) (string, error) {
	args := m.Called(ctx, creds, to, subject, body)
	return args.String(0), args.Error(1)
}

// MockEventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishDispatch(ctx context.Context, payload queue.DispatchPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}
