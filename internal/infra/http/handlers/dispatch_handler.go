package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/stayfront/outreach/internal/infra/http/middleware"
	"github.com/stayfront/outreach/internal/usecase"
)

// DispatchHandler lets an external scheduler drive the engine over HTTP:
// one POST, one send pass, one structured result.
type DispatchHandler struct {
	Dispatcher *usecase.Dispatcher
}

func NewDispatchHandler(d *usecase.Dispatcher) *DispatchHandler {
	return &DispatchHandler{Dispatcher: d}
}

func (h *DispatchHandler) Handle(w http.ResponseWriter, r *http.Request) {
	result := h.Dispatcher.Dispatch(r.Context())

	middleware.RecordDispatch(result.Outcome, result.Reason)
	if result.Outcome == usecase.OutcomeSent {
		middleware.RecordEmailSent(result.Mailbox, result.CampaignID)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
