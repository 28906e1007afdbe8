package http

import (
	"club-registration/common"
	"club-registration/common/constant"
	"club-registration/common/errs"
	"club-registration/common/otel"
	"club-registration/model"
	"club-registration/outbound/checkout"
	"club-registration/outbound/clubapi"
	"club-registration/outbound/journal"
	"encoding/json"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"log/slog"
	"net/http"
	"time"
)

type PaymentHttp struct {
	Api       *clubapi.Client
	Cache     *redis.Client
	Journal   *journal.Queries
	Publisher jetstream.Publisher
	Validate  *validator.Validate
	Checkout  *checkout.Loader

	TimeNow func() time.Time

	expiredAfter    time.Duration
	sizeBulkAbandon int32
}

func RegisterPaymentHttp(
	mux *http.ServeMux,
	cfg *viper.Viper,
	api *clubapi.Client,
	cache *redis.Client,
	journalQueries *journal.Queries,
	publisher jetstream.Publisher,
	validate *validator.Validate,
	loader *checkout.Loader,
) *PaymentHttp {
	in := &PaymentHttp{
		Api:       api,
		Cache:     cache,
		Journal:   journalQueries,
		Publisher: publisher,
		Validate:  validate,
		Checkout:  loader,
		TimeNow:   time.Now,

		expiredAfter:    cfg.GetDuration("order.expired_after"),
		sizeBulkAbandon: cfg.GetInt32("order.bulk_abandon_size"),
	}

	mux.HandleFunc("POST /api/attempts/{id}/order", in.createOrder)
	mux.HandleFunc("POST /api/attempts/{id}/order/cancel", in.cancelOrder)
	mux.HandleFunc("POST /api/attempts/{id}/payment", in.completePayment)
	mux.HandleFunc("POST /api/payments/expire", in.expire)

	return in
}

func (in PaymentHttp) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer.Start(r.Context(), "PaymentHttp.createOrder")
	defer span.End()

	attemptId := r.PathValue("id")
	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	slog.InfoContext(ctx, "create order receive request", traceIdAttr)

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

	if state.Step != model.StepPayment {
		writeErrorResponse(w, errs.Conflict("Participant is not resolved yet"))
		return
	}

	if err := resolveFee(ctx, in.Api, state); err != nil {
		slog.ErrorContext(ctx, "fee resolution failed", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	if state.Fee() == 0 {
		writeErrorResponse(w, errs.Conflict("Event is free, submit the registration directly"))
		return
	}

	// Script-load failure is an initialization error, distinct from any
	// payment failure.
	if err := in.Checkout.Ready(); err != nil {
		writeErrorResponse(w, err)
		return
	}

	// A frozen order stays on the attempt until support reconciles it.
	if state.Order != nil && state.Order.Status == model.PaymentStatusVerificationFailed {
		writeErrorResponse(w, errs.Conflict("A previous payment failed verification, contact support with your order id"))
		return
	}

	if state.Order.Open() {
		writeErrorResponse(w, errs.Conflict("A payment order is already in progress"))
		return
	}

	order, err := in.Api.CreateOrder(ctx, state.Participant.RegistrationNumber, state.EventId)
	if err != nil {
		slog.ErrorContext(ctx, "order creation failed", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	expiredAt := in.TimeNow().Add(in.expiredAfter)
	_, err = in.Journal.InsertPaymentAttempt(ctx, journal.InsertPaymentAttemptParams{
		AttemptID:          state.Id,
		OrderID:            order.OrderId,
		RegistrationNumber: state.Participant.RegistrationNumber,
		EventID:            state.EventId,
		Amount:             order.Amount,
		Currency:           order.Currency,
		ExpiredAt:          pgtype.Timestamp{Time: expiredAt, Valid: true},
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to journal payment attempt", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	state.Order = &model.PaymentAttempt{
		OrderId:  order.OrderId,
		Amount:   order.Amount,
		Currency: order.Currency,
		Status:   model.PaymentStatusCreated,
	}

	if err := saveAttempt(ctx, in.Cache, state); err != nil {
		slog.ErrorContext(ctx, "failed to save attempt state", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	keyId := order.KeyId
	if keyId == "" {
		keyId = in.Checkout.KeyId
	}

	slog.InfoContext(ctx, "payment order created", traceIdAttr, slog.Any(constant.LogFieldResponse, order.OrderId))

	writeJSONResponse(w, http.StatusOK, model.CreateOrderResponse{
		OrderId:  order.OrderId,
		Amount:   order.Amount,
		Currency: order.Currency,
		KeyId:    keyId,
		Prefill: model.PaymentPrefill{
			Name:  state.Participant.Name,
			Email: state.Participant.Email,
			Phone: state.Participant.Phone,
		},
	})
}

func (in PaymentHttp) cancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer.Start(r.Context(), "PaymentHttp.cancelOrder")
	defer span.End()

	attemptId := r.PathValue("id")
	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	slog.InfoContext(ctx, "cancel order receive request", traceIdAttr)

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

	// Dismissing the widget returns the attempt to a retryable idle state.
	if state.Order.Open() {
		_, err = in.Journal.UpdatePaymentAttemptStatus(ctx, journal.UpdatePaymentAttemptStatusParams{
			OrderID:    state.Order.OrderId,
			FromStatus: model.PaymentStatusCreated,
			ToStatus:   model.PaymentStatusAbandoned,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to journal abandoned order", traceIdAttr, slog.Any(constant.LogFieldErr, err))
			writeErrorResponse(w, err)
			return
		}

		state.Order = nil
		if err := saveAttempt(ctx, in.Cache, state); err != nil {
			slog.ErrorContext(ctx, "failed to save attempt state", traceIdAttr, slog.Any(constant.LogFieldErr, err))
			writeErrorResponse(w, err)
			return
		}
	}

	slog.InfoContext(ctx, "order cancelled", traceIdAttr)

	writeJSONResponse(w, http.StatusOK, state.ToResponse())
}

func (in PaymentHttp) completePayment(w http.ResponseWriter, r *http.Request) {
	var req model.CompletePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, &errs.HttpError{Code: http.StatusBadRequest, Message: "Invalid request"})
		return
	}

	if err := in.Validate.Struct(req); err != nil {
		writeErrorResponse(w, err)
		return
	}

	ctx, span := otel.Tracer.Start(r.Context(), "PaymentHttp.completePayment")
	defer span.End()

	attemptId := r.PathValue("id")
	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	slog.InfoContext(ctx, "complete payment receive request", traceIdAttr)

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

	// Completion is single-shot: only the one open order can be completed.
	if !state.Order.Open() || state.Order.OrderId != req.OrderId {
		writeErrorResponse(w, errs.Conflict("No matching payment is in progress for this attempt"))
		return
	}

	if err := in.Api.VerifyPayment(ctx, state.Participant.RegistrationNumber, req); err != nil {
		if errs.KindOf(err) == errs.KindVerificationFailed {
			// Funds may have moved. Record it and freeze the order so a
			// retry cannot double-charge; support reconciles from the journal.
			_, journalErr := in.Journal.UpdatePaymentAttemptStatus(ctx, journal.UpdatePaymentAttemptStatusParams{
				OrderID:       state.Order.OrderId,
				FromStatus:    model.PaymentStatusCreated,
				ToStatus:      model.PaymentStatusVerificationFailed,
				FailureReason: pgtype.Text{String: "signature verification failed", Valid: true},
			})
			if journalErr != nil {
				slog.ErrorContext(ctx, "failed to journal verification failure", traceIdAttr, slog.Any(constant.LogFieldErr, journalErr))
			}

			state.Order.Status = model.PaymentStatusVerificationFailed
			if saveErr := saveAttempt(ctx, in.Cache, state); saveErr != nil {
				slog.ErrorContext(ctx, "failed to save attempt state", traceIdAttr, slog.Any(constant.LogFieldErr, saveErr))
			}
		}

		slog.ErrorContext(ctx, "payment verification failed", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	_, err = in.Journal.UpdatePaymentAttemptStatus(ctx, journal.UpdatePaymentAttemptStatusParams{
		OrderID:    state.Order.OrderId,
		FromStatus: model.PaymentStatusCreated,
		ToStatus:   model.PaymentStatusCompleted,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to journal completed payment", traceIdAttr, slog.Any(constant.LogFieldErr, err))
	}

	state.Order.Status = model.PaymentStatusCompleted

	ticketCode, err := in.Api.SubmitRegistration(ctx, model.SubmitRegistrationRequest{
		ParticipantId:      state.Participant.Id,
		RegistrationNumber: state.Participant.RegistrationNumber,
		EventId:            state.EventId,
	})
	if err != nil {
		if saveErr := saveAttempt(ctx, in.Cache, state); saveErr != nil {
			slog.ErrorContext(ctx, "failed to save attempt state", traceIdAttr, slog.Any(constant.LogFieldErr, saveErr))
		}

		slog.ErrorContext(ctx, "registration submit failed after verified payment", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, errs.Unavailable("Payment verified but the registration could not be finalized, contact support with your order id", err))
		return
	}

	state.TicketCode = ticketCode
	state.PendingVerification = false
	state.Step = model.StepDone

	if err := saveAttempt(ctx, in.Cache, state); err != nil {
		slog.ErrorContext(ctx, "failed to save attempt state", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	err = common.PublishMessage(ctx, in.Publisher, constant.SubjectTicketIssued, model.TicketIssuedEventMessage{
		RegistrationNumber: state.Participant.RegistrationNumber,
		Name:               state.Participant.Name,
		Email:              state.Participant.Email,
		EventId:            state.EventId,
		EventName:          state.Event.Name,
		TicketCode:         ticketCode,
		Fee:                state.Fee(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to publish ticket issued message", traceIdAttr, slog.Any(constant.LogFieldErr, err))
	}

	slog.InfoContext(ctx, "gateway registration completed", traceIdAttr, slog.Any(constant.LogFieldResponse, ticketCode))

	writeJSONResponse(w, http.StatusOK, state.ToResponse())
}

func (in PaymentHttp) expire(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer.Start(r.Context(), "PaymentHttp.expire")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	slog.InfoContext(ctx, "expire payment attempts receive request", traceIdAttr)

	abandoned, err := in.Journal.BulkAbandonExpired(ctx, journal.BulkAbandonExpiredParams{
		Limit:     in.sizeBulkAbandon,
		UpdatedAt: pgtype.Timestamp{Time: in.TimeNow(), Valid: true},
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to abandon expired payment attempts", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	if len(abandoned) == 0 {
		slog.DebugContext(ctx, "no expired payment attempts", traceIdAttr)
		writeJSONResponse(w, http.StatusOK, nil)
		return
	}

	slog.InfoContext(ctx, "expired payment attempts abandoned", slog.Any(constant.LogFieldResponse, len(abandoned)), traceIdAttr)

	writeJSONResponse(w, http.StatusOK, nil)
}
