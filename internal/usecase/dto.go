package usecase

// Dispatch outcomes, one per invocation.
const (
	OutcomeSent    = "SENT"
	OutcomeSkipped = "SKIPPED"
	OutcomeFailed  = "FAILED"
)

// Skip reason codes.
const (
	ReasonNoProspects       = "no eligible prospects"
	ReasonNoCampaignQuota   = "no campaign capacity"
	ReasonNoMailboxCapacity = "no mailbox capacity"
)

// Failure reason codes.
const (
	ReasonGenerationFailed = "content generation failed"
	ReasonTransportFailed  = "transport failed"
	ReasonRecordingFailed  = "record persistence failed"
	ReasonRepositoryFailed = "repository error"
)

// DispatchResult is the structured outcome handed back to the trigger.
type DispatchResult struct {
	Outcome    string `json:"outcome"`
	Reason     string `json:"reason,omitempty"`
	ProspectID string `json:"prospect_id,omitempty"`
	CampaignID string `json:"campaign_id,omitempty"`
	Mailbox    string `json:"mailbox,omitempty"`
	MessageID  string `json:"message_id,omitempty"`
}

func skipped(reason string) *DispatchResult {
	return &DispatchResult{Outcome: OutcomeSkipped, Reason: reason}
}
