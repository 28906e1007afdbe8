package http

import (
	"club-registration/common"
	"club-registration/common/constant"
	"club-registration/common/errs"
	"club-registration/common/otel"
	"club-registration/model"
	"club-registration/outbound/clubapi"
	"context"
	"encoding/json"
	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type AttemptHttp struct {
	Api      *clubapi.Client
	Cache    *redis.Client
	Validate *validator.Validate

	TimeNow func() time.Time
	NewId   func() string
}

func RegisterAttemptHttp(
	mux *http.ServeMux,
	api *clubapi.Client,
	cache *redis.Client,
	validate *validator.Validate,
) *AttemptHttp {
	in := &AttemptHttp{
		Api:      api,
		Cache:    cache,
		Validate: validate,
		TimeNow:  time.Now,
		NewId:    func() string { return ulid.Make().String() },
	}

	mux.HandleFunc("POST /api/attempts", in.create)
	mux.HandleFunc("GET /api/attempts/{id}", in.get)
	mux.HandleFunc("POST /api/attempts/{id}/lookup", in.lookup)
	mux.HandleFunc("POST /api/attempts/{id}/profile", in.profile)

	return in
}

func (in AttemptHttp) create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, &errs.HttpError{Code: http.StatusBadRequest, Message: "Invalid request"})
		return
	}

	if err := in.Validate.Struct(req); err != nil {
		writeErrorResponse(w, err)
		return
	}

	ctx, span := otel.Tracer.Start(r.Context(), "AttemptHttp.create")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	slog.InfoContext(ctx, "create attempt receive request", slog.Any(constant.LogFieldPayload, req), traceIdAttr)

	state := &model.AttemptState{
		Id:        in.NewId(),
		EventId:   req.EventId,
		Step:      model.StepLookup,
		CreatedAt: in.TimeNow(),
	}

	// The fee resolved here is authoritative for the whole attempt. A failed
	// fetch leaves the attempt fee-unresolved; payment and submission refuse
	// until an explicit retry resolves it.
	info, err := in.Api.GetEvent(ctx, state.EventId)
	if err != nil {
		if errs.KindOf(err) == errs.KindNotFound {
			writeErrorResponse(w, err)
			return
		}
		slog.WarnContext(ctx, "fee resolution failed on attempt creation", traceIdAttr, slog.Any(constant.LogFieldErr, err))
	} else {
		state.Event = info
		state.FeeResolved = true
	}

	if err := saveAttempt(ctx, in.Cache, state); err != nil {
		slog.ErrorContext(ctx, "failed to save attempt state", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	slog.InfoContext(ctx, "attempt created", traceIdAttr, slog.Any(constant.LogFieldResponse, state.Id))

	writeJSONResponse(w, http.StatusOK, state.ToResponse())
}

func (in AttemptHttp) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	state, err := loadAttempt(ctx, in.Cache, r.PathValue("id"))
	if err != nil {
		writeErrorResponse(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, state.ToResponse())
}

func (in AttemptHttp) lookup(w http.ResponseWriter, r *http.Request) {
	var req model.LookupParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, &errs.HttpError{Code: http.StatusBadRequest, Message: "Invalid request"})
		return
	}

	req.RegistrationNumber = strings.ToUpper(strings.TrimSpace(req.RegistrationNumber))

	// Local validation first: a malformed number never reaches the network.
	if err := in.Validate.Struct(req); err != nil {
		writeErrorResponse(w, err)
		return
	}

	ctx, span := otel.Tracer.Start(r.Context(), "AttemptHttp.lookup")
	defer span.End()

	attemptId := r.PathValue("id")
	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	slog.InfoContext(ctx, "lookup receive request", slog.Any(constant.LogFieldPayload, req), traceIdAttr)

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

	// Changing the number supersedes any earlier lookup: bump the generation
	// and persist it before the network call, so a stale response observed
	// after a lock expiry can never be applied.
	generation := state.Generation + 1
	state.Generation = generation
	state.RegistrationNumber = req.RegistrationNumber
	state.Participant = nil
	state.Step = model.StepLookup

	if err := saveAttempt(ctx, in.Cache, state); err != nil {
		slog.ErrorContext(ctx, "failed to save attempt state", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	profile, lookupErr := in.Api.LookupParticipant(ctx, req.RegistrationNumber)
	if lookupErr != nil && errs.KindOf(lookupErr) != errs.KindNotFound {
		slog.ErrorContext(ctx, "participant lookup failed", traceIdAttr, slog.Any(constant.LogFieldErr, lookupErr))
		writeErrorResponse(w, lookupErr)
		return
	}

	state, err = in.reloadForGeneration(ctx, attemptId, generation)
	if err != nil {
		writeErrorResponse(w, err)
		return
	}

	if lookupErr != nil {
		// Distinguished not-found: the new-participant branch, not an error.
		state.Step = model.StepProfile
	} else {
		state.Participant = profile
		state.RegistrationNumber = profile.RegistrationNumber
		state.Step = model.StepPayment
	}

	if err := saveAttempt(ctx, in.Cache, state); err != nil {
		slog.ErrorContext(ctx, "failed to save attempt state", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	slog.InfoContext(ctx, "lookup resolved", traceIdAttr, slog.Any(constant.LogFieldResponse, state.Step))

	writeJSONResponse(w, http.StatusOK, state.ToResponse())
}

func (in AttemptHttp) profile(w http.ResponseWriter, r *http.Request) {
	var req model.CreateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, &errs.HttpError{Code: http.StatusBadRequest, Message: "Invalid request"})
		return
	}

	req.RegistrationNumber = strings.ToUpper(strings.TrimSpace(req.RegistrationNumber))

	if err := in.Validate.Struct(req); err != nil {
		writeErrorResponse(w, err)
		return
	}

	ctx, span := otel.Tracer.Start(r.Context(), "AttemptHttp.profile")
	defer span.End()

	attemptId := r.PathValue("id")
	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	slog.InfoContext(ctx, "profile receive request", traceIdAttr)

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

	if state.Participant != nil {
		writeErrorResponse(w, errs.Conflict("A participant profile already exists for this attempt"))
		return
	}

	if state.Step != model.StepProfile {
		writeErrorResponse(w, errs.Conflict("Attempt is not at the profile step"))
		return
	}

	if req.RegistrationNumber != state.RegistrationNumber {
		writeErrorResponse(w, errs.Validation("Validation failed", map[string]string{
			"RegistrationNumber": "does not match the looked-up number",
		}))
		return
	}

	generation := state.Generation
	profile, err := in.Api.CreateParticipant(ctx, req)
	if err != nil {
		slog.ErrorContext(ctx, "participant creation failed", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	state, err = in.reloadForGeneration(ctx, attemptId, generation)
	if err != nil {
		writeErrorResponse(w, err)
		return
	}

	state.Participant = profile
	state.Step = model.StepPayment

	if err := saveAttempt(ctx, in.Cache, state); err != nil {
		slog.ErrorContext(ctx, "failed to save attempt state", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	slog.InfoContext(ctx, "participant profile created", traceIdAttr, slog.Any(constant.LogFieldResponse, profile.Id))

	writeJSONResponse(w, http.StatusOK, state.ToResponse())
}

// reloadForGeneration re-reads the attempt after a network round trip and
// refuses to apply the response when the attempt moved on in the meantime.
func (in AttemptHttp) reloadForGeneration(ctx context.Context, attemptId string, generation int64) (*model.AttemptState, error) {
	state, err := loadAttempt(ctx, in.Cache, attemptId)
	if err != nil {
		return nil, err
	}

	if state.Generation != generation {
		return nil, errs.Conflict("Attempt was updated while the request was in flight, please retry")
	}

	return state, nil
}
