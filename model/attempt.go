package model

import "time"

type AttemptStep string

const (
	StepLookup  AttemptStep = "lookup"
	StepProfile AttemptStep = "profile"
	StepPayment AttemptStep = "payment"
	StepDone    AttemptStep = "done"
)

// AttemptState is the whole mutable state of one registration attempt. It is
// owned by the attempt handlers and lives in the cache under the attempt id;
// every step loads it, mutates it under the step lock, and stores it back.
type AttemptState struct {
	Id         string      `json:"id"`
	EventId    string      `json:"event_id"`
	Step       AttemptStep `json:"step"`
	Generation int64       `json:"generation"`

	FeeResolved bool          `json:"fee_resolved"`
	Event       *EventFeeInfo `json:"event,omitempty"`

	RegistrationNumber string              `json:"registration_number,omitempty"`
	Participant        *ParticipantProfile `json:"participant,omitempty"`

	Order *PaymentAttempt `json:"order,omitempty"`

	TicketCode          string    `json:"ticket_code,omitempty"`
	PendingVerification bool      `json:"pending_verification"`
	CreatedAt           time.Time `json:"created_at"`
}

func (s *AttemptState) Fee() int64 {
	if s.Event == nil {
		return 0
	}
	return s.Event.Fee
}

type CreateAttemptRequest struct {
	EventId string `json:"event_id" validate:"required"`
}

// AttemptResponse is the outcome view consumed by the UI after every step.
type AttemptResponse struct {
	Id                  string      `json:"id"`
	Step                AttemptStep `json:"step"`
	EventId             string      `json:"event_id"`
	EventName           string      `json:"event_name,omitempty"`
	EventType           string      `json:"event_type,omitempty"`
	Fee                 *int64      `json:"fee,omitempty"`
	QrImage             string      `json:"qr_image,omitempty"`
	RegistrationNumber  string      `json:"registration_number,omitempty"`
	ParticipantName     string      `json:"participant_name,omitempty"`
	TicketCode          string      `json:"ticket_code,omitempty"`
	PendingVerification bool        `json:"pending_verification"`
}

func (s *AttemptState) ToResponse() AttemptResponse {
	resp := AttemptResponse{
		Id:                  s.Id,
		Step:                s.Step,
		EventId:             s.EventId,
		RegistrationNumber:  s.RegistrationNumber,
		TicketCode:          s.TicketCode,
		PendingVerification: s.PendingVerification,
	}

	if s.Event != nil {
		resp.EventName = s.Event.Name
		resp.EventType = s.Event.Type
		resp.QrImage = s.Event.QrImage
	}

	if s.FeeResolved {
		fee := s.Fee()
		resp.Fee = &fee
	}

	if s.Participant != nil {
		resp.ParticipantName = s.Participant.Name
		resp.RegistrationNumber = s.Participant.RegistrationNumber
	}

	return resp
}

type TicketIssuedEventMessage struct {
	RegistrationNumber  string `json:"registration_number"`
	Name                string `json:"name"`
	Email               string `json:"email"`
	EventId             string `json:"event_id"`
	EventName           string `json:"event_name"`
	TicketCode          string `json:"ticket_code"`
	Fee                 int64  `json:"fee"`
	Utr                 string `json:"utr,omitempty"`
	PendingVerification bool   `json:"pending_verification"`
}

type SendEmailEventMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
