package usecase

import (
	"context"
	"net/mail"
	"regexp"
	"strings"

	"github.com/stayfront/outreach/internal/entity"
)

// Addresses that look auto-generated or disposable. A hit excludes the
// prospect from outreach entirely.
var fakeEmailPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)@(example|test|invalid)\.`),
	regexp.MustCompile(`(?i)@(mailinator|guerrillamail|10minutemail|yopmail|trashmail)\.`),
	regexp.MustCompile(`(?i)^(test|demo|fake|placeholder|asdf|qwerty)\d*@`),
	regexp.MustCompile(`(?i)^(noreply|no-reply|donotreply|do-not-reply)@`),
	regexp.MustCompile(`\.(png|jpg|jpeg|gif|webp)$`),
}

// Role accounts never reach a decision-maker and drag down deliverability.
var genericPrefixes = []string{
	"info", "sales", "reservations", "reservation", "booking", "bookings",
	"contact", "admin", "office", "support", "hello", "enquiries",
	"inquiries", "frontdesk", "reception", "events", "marketing", "press",
}

// EligibilityFilter decides which prospects may legally receive a new
// outbound email. Read-only; it never mutates anything.
type EligibilityFilter struct {
	Prospects ProspectRepositoryInterface
	Emails    EmailRepositoryInterface
	MinScore  int
}

func NewEligibilityFilter(prospects ProspectRepositoryInterface, emails EmailRepositoryInterface, minScore int) *EligibilityFilter {
	return &EligibilityFilter{
		Prospects: prospects,
		Emails:    emails,
		MinScore:  minScore,
	}
}

// Eligible returns the ranked queue of sendable prospects: candidate pool
// minus anyone already emailed by this engine, minus fake and role-account
// addresses. The queue is consumed once per invocation, so two campaigns can
// never independently pick the same prospect on one tick.
func (f *EligibilityFilter) Eligible(ctx context.Context) ([]*entity.Prospect, error) {
	candidates, err := f.Prospects.FindCandidates(ctx, f.MinScore)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	emailed, err := f.Emails.OutboundProspectIDs(ctx)
	if err != nil {
		return nil, err
	}

	eligible := make([]*entity.Prospect, 0, len(candidates))
	for _, p := range candidates {
		if emailed[p.ID] {
			continue
		}
		if !IsSendableAddress(p.EmailAddress()) {
			continue
		}
		eligible = append(eligible, p)
	}
	return eligible, nil
}

// IsSendableAddress fails closed: anything that cannot be parsed is treated
// as unsendable rather than risked.
func IsSendableAddress(address string) bool {
	if address == "" {
		return false
	}
	parsed, err := mail.ParseAddress(address)
	if err != nil {
		return false
	}
	addr := strings.ToLower(parsed.Address)

	for _, re := range fakeEmailPatterns {
		if re.MatchString(addr) {
			return false
		}
	}

	local := addr
	if at := strings.Index(addr, "@"); at >= 0 {
		local = addr[:at]
	}
	for _, prefix := range genericPrefixes {
		if local == prefix {
			return false
		}
	}
	return true
}
