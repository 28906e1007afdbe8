package model

import "encoding/json"

type RegisterRequest struct {
	Utr string `json:"utr,omitempty"`
}

// SubmitRegistrationRequest is the backend-facing finalization payload. The
// utr field is omitted entirely for free events.
type SubmitRegistrationRequest struct {
	ParticipantId      string `json:"participant_id"`
	RegistrationNumber string `json:"registration_number"`
	EventId            string `json:"event_id"`
	Utr                string `json:"utr,omitempty"`
}

type RegistrationResult struct {
	TicketCode          string `json:"ticket_code"`
	PendingVerification bool   `json:"pending_verification"`
}

// ExtractTicketCode reads the ticket code from either of the two shapes the
// backend is known to produce: flat, or nested one level under "data".
func ExtractTicketCode(body []byte) string {
	var resp struct {
		TicketCode string `json:"ticket_code"`
		Data       struct {
			TicketCode string `json:"ticket_code"`
		} `json:"data"`
	}

	if err := json.Unmarshal(body, &resp); err != nil {
		return ""
	}

	if resp.TicketCode != "" {
		return resp.TicketCode
	}

	return resp.Data.TicketCode
}
