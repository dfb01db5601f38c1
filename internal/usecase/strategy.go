package usecase

import (
	"fmt"
	"strings"

	"github.com/stayfront/outreach/internal/entity"
)

// PromptStrategy builds the generation prompt for one prospect. What the
// model does with it is the generator's business.
type PromptStrategy interface {
	BuildPrompt(p *entity.Prospect) string
}

// StrategyRegistry resolves campaign strategy keys. Built once at startup;
// an unknown key is a per-campaign configuration error, never a crash.
type StrategyRegistry struct {
	strategies map[string]PromptStrategy
}

func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{strategies: make(map[string]PromptStrategy)}
}

func (r *StrategyRegistry) Register(key string, s PromptStrategy) {
	r.strategies[key] = s
}

func (r *StrategyRegistry) Resolve(key string) (PromptStrategy, error) {
	s, ok := r.strategies[key]
	if !ok {
		return nil, &ConfigurationError{
			Code:    "UNKNOWN_STRATEGY",
			Message: fmt.Sprintf("unknown strategy key %q", key),
		}
	}
	return s, nil
}

// DefaultRegistry wires the built-in strategies.
func DefaultRegistry() *StrategyRegistry {
	r := NewStrategyRegistry()
	r.Register("cold_intro", ColdIntroStrategy{})
	r.Register("value_prop", ValuePropStrategy{})
	r.Register("follow_the_season", SeasonalStrategy{})
	return r
}

// ColdIntroStrategy opens with who we are and one concrete observation
// about the property.
type ColdIntroStrategy struct{}

func (ColdIntroStrategy) BuildPrompt(p *entity.Prospect) string {
	var b strings.Builder
	b.WriteString("Write a short cold outreach email to a hotel decision-maker.\n")
	fmt.Fprintf(&b, "Recipient: %s", p.Name)
	if p.Company != "" {
		fmt.Fprintf(&b, " at %s", p.Company)
	}
	b.WriteString("\nTone: direct, friendly, no fluff. At most 120 words.\n")
	if len(p.Tags) > 0 {
		fmt.Fprintf(&b, "Context tags: %s\n", strings.Join(p.Tags, ", "))
	}
	b.WriteString(`Return JSON with fields "subject" and "body".`)
	return b.String()
}

// ValuePropStrategy leads with the direct-booking revenue angle.
type ValuePropStrategy struct{}

func (ValuePropStrategy) BuildPrompt(p *entity.Prospect) string {
	var b strings.Builder
	b.WriteString("Write a short outreach email focused on recovering direct-booking revenue lost to OTA commissions.\n")
	fmt.Fprintf(&b, "Recipient: %s", p.Name)
	if p.Company != "" {
		fmt.Fprintf(&b, ", property: %s", p.Company)
	}
	b.WriteString("\nOne clear ask: a 15-minute call. At most 100 words.\n")
	b.WriteString(`Return JSON with fields "subject" and "body".`)
	return b.String()
}

// SeasonalStrategy hooks the email on the upcoming booking season.
type SeasonalStrategy struct{}

func (SeasonalStrategy) BuildPrompt(p *entity.Prospect) string {
	var b strings.Builder
	b.WriteString("Write a short outreach email using the upcoming high season as the hook.\n")
	fmt.Fprintf(&b, "Recipient: %s", p.Name)
	if p.Company != "" {
		fmt.Fprintf(&b, ", property: %s", p.Company)
	}
	if len(p.Tags) > 0 {
		fmt.Fprintf(&b, "\nKnown context: %s", strings.Join(p.Tags, ", "))
	}
	b.WriteString("\nAt most 110 words.\n")
	b.WriteString(`Return JSON with fields "subject" and "body".`)
	return b.String()
}
