package event

import (
	"club-registration/common"
	"club-registration/common/constant"
	"club-registration/model"
	"context"
	"encoding/json"
	"fmt"
	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/text/message"
	"log/slog"
	"time"
)

type TicketEvent struct {
	Publisher            jetstream.Publisher
	InrCurrencyFormatter *message.Printer

	Timeout time.Duration
}

// IssuedHandler turns a ticket issuance into the matching email: confirmed
// for gateway-verified or free registrations, pending wording whenever a
// transaction reference still awaits manual verification.
func (in TicketEvent) IssuedHandler(ctx context.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, in.Timeout)
	defer cancel()

	var req model.TicketIssuedEventMessage
	err := json.Unmarshal(msg, &req)
	if err != nil {
		slog.WarnContext(ctx, "ticket issued event unmarshal error", slog.Any(constant.LogFieldErr, err))
		return nil
	}

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	reqAttr := slog.Any(constant.LogFieldPayload, string(msg))

	subject := "Registration Confirmed"
	if req.PendingVerification {
		subject = "Registration Received - Payment Verification Pending"
	}

	sendEmailReq := model.SendEmailEventMessage{
		To:      req.Email,
		Subject: subject,
		Body:    in.buildTicketEmailBody(req),
	}

	err = common.PublishMessage(ctx, in.Publisher, constant.SubjectSendEmail, sendEmailReq)
	if err != nil {
		slog.ErrorContext(ctx, "ticket issued event publish error", slog.Any(constant.LogFieldErr, err), reqAttr, traceIdAttr)
		return err
	}

	slog.DebugContext(ctx, "ticket issued event publish success", reqAttr, traceIdAttr)

	return nil
}

func (in TicketEvent) buildTicketEmailBody(req model.TicketIssuedEventMessage) string {
	amount := "Free"
	if req.Fee > 0 {
		amount = in.InrCurrencyFormatter.Sprintf("Rs.%d", req.Fee)
	}

	if req.PendingVerification {
		return fmt.Sprintf(constant.EmailRegistrationPendingTemplate,
			req.Name,
			req.EventName,
			req.RegistrationNumber,
			req.EventName,
			req.TicketCode,
			amount,
			req.Utr,
		)
	}

	return fmt.Sprintf(constant.EmailRegistrationConfirmedTemplate,
		req.Name,
		req.EventName,
		req.RegistrationNumber,
		req.EventName,
		req.TicketCode,
		amount,
	)
}
