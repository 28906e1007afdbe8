package http

import (
	"club-registration/common"
	"club-registration/common/constant"
	"club-registration/common/errs"
	"club-registration/common/otel"
	"club-registration/model"
	"club-registration/outbound/clubapi"
	"encoding/json"
	"fmt"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/redis/go-redis/v9"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
)

var utrPattern = regexp.MustCompile(fmt.Sprintf(`^\d{%d}$`, constant.UtrLength))

type RegistrationHttp struct {
	Api       *clubapi.Client
	Cache     *redis.Client
	Publisher jetstream.Publisher
}

func RegisterRegistrationHttp(
	mux *http.ServeMux,
	api *clubapi.Client,
	cache *redis.Client,
	publisher jetstream.Publisher,
) *RegistrationHttp {
	in := &RegistrationHttp{
		Api:       api,
		Cache:     cache,
		Publisher: publisher,
	}

	mux.HandleFunc("POST /api/attempts/{id}/register", in.register)

	return in
}

// register finalizes the attempt on the manual-verification path: paid events
// require a 12-digit transaction reference, free events submit without one.
func (in RegistrationHttp) register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, &errs.HttpError{Code: http.StatusBadRequest, Message: "Invalid request"})
		return
	}

	req.Utr = strings.TrimSpace(req.Utr)

	ctx, span := otel.Tracer.Start(r.Context(), "RegistrationHttp.register")
	defer span.End()

	attemptId := r.PathValue("id")
	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	slog.InfoContext(ctx, "register receive request", traceIdAttr)

	locked, err := acquireStepLock(ctx, in.Cache, attemptId)
	if err != nil {
		slog.ErrorContext(ctx, "failed to acquire step lock", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	if !locked {
		writeErrorResponse(w, errs.Conflict("Another action is already in progress for this attempt"))
		return
	}
	defer releaseStepLock(ctx, in.Cache, attemptId)

	state, err := loadAttempt(ctx, in.Cache, attemptId)
	if err != nil {
		writeErrorResponse(w, err)
		return
	}

	if state.Step == model.StepDone {
		writeErrorResponse(w, errs.Conflict("Attempt is already completed"))
		return
	}

	if state.Step != model.StepPayment || state.Participant == nil {
		writeErrorResponse(w, errs.Conflict("Participant is not resolved yet"))
		return
	}

	if state.Order.Open() {
		writeErrorResponse(w, errs.Conflict("A gateway payment is in progress, cancel it before submitting a transaction reference"))
		return
	}

	if state.Order != nil && state.Order.Status == model.PaymentStatusVerificationFailed {
		writeErrorResponse(w, errs.Conflict("A previous payment failed verification, contact support with your order id"))
		return
	}

	if err := resolveFee(ctx, in.Api, state); err != nil {
		slog.ErrorContext(ctx, "fee resolution failed", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	paid := state.Fee() > 0
	if paid && !utrPattern.MatchString(req.Utr) {
		writeErrorResponse(w, errs.Validation("Validation failed", map[string]string{
			"Utr": fmt.Sprintf("must be exactly %d digits", constant.UtrLength),
		}))
		return
	}

	submitReq := model.SubmitRegistrationRequest{
		ParticipantId:      state.Participant.Id,
		RegistrationNumber: state.Participant.RegistrationNumber,
		EventId:            state.EventId,
	}
	if paid {
		submitReq.Utr = req.Utr
	}

	ticketCode, err := in.Api.SubmitRegistration(ctx, submitReq)
	if err != nil {
		slog.ErrorContext(ctx, "registration submit failed", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	state.TicketCode = ticketCode
	state.PendingVerification = paid
	state.Step = model.StepDone

	if err := saveAttempt(ctx, in.Cache, state); err != nil {
		slog.ErrorContext(ctx, "failed to save attempt state", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	err = common.PublishMessage(ctx, in.Publisher, constant.SubjectTicketIssued, model.TicketIssuedEventMessage{
		RegistrationNumber:  state.Participant.RegistrationNumber,
		Name:                state.Participant.Name,
		Email:               state.Participant.Email,
		EventId:             state.EventId,
		EventName:           state.Event.Name,
		TicketCode:          ticketCode,
		Fee:                 state.Fee(),
		Utr:                 submitReq.Utr,
		PendingVerification: paid,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to publish ticket issued message", traceIdAttr, slog.Any(constant.LogFieldErr, err))
	}

	slog.InfoContext(ctx, "registration submitted", traceIdAttr, slog.Any(constant.LogFieldResponse, ticketCode))

	writeJSONResponse(w, http.StatusOK, state.ToResponse())
}
