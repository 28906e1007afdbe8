package http

import (
	"club-registration/common/constant"
	"club-registration/common/errs"
	"club-registration/model"
	"club-registration/outbound/clubapi"
	"context"
	"encoding/json"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"net/http"
)

func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func writeErrorResponse(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	w.Header().Set("Content-Type", "application/json")

	var message string
	var data any
	if httpErr, ok := err.(*errs.HttpError); ok {
		message = httpErr.Message
		data = httpErr.Data
		w.WriteHeader(httpErr.Code)
	} else if wfErr, ok := err.(*errs.WorkflowError); ok {
		message = wfErr.Message
		if len(wfErr.Fields) > 0 {
			data = wfErr.Fields
		}
		w.WriteHeader(statusCodeForKind(wfErr.Kind))
	} else if validationErr, ok := err.(validator.ValidationErrors); ok {
		message = "Validation failed"
		w.WriteHeader(http.StatusBadRequest)

		validationErrors := make(map[string]string)
		for _, fieldErr := range validationErr {
			fieldName := fieldErr.Field()
			validationErrors[fieldName] = fieldErr.Tag()
		}

		data = validationErrors
	} else {
		message = "Internal Server Error"
		w.WriteHeader(500)
	}

	errorResponse := model.ErrorResponse{Error: message, Data: data}
	if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func statusCodeForKind(kind errs.Kind) int {
	switch kind {
	case errs.KindValidation:
		return http.StatusBadRequest
	case errs.KindServerValidation:
		return http.StatusUnprocessableEntity
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindConflict:
		return http.StatusConflict
	case errs.KindNetwork:
		return http.StatusGatewayTimeout
	case errs.KindUnavailable:
		return http.StatusBadGateway
	case errs.KindVerificationFailed:
		return http.StatusPaymentRequired
	case errs.KindInitFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func loadAttempt(ctx context.Context, cache *redis.Client, attemptId string) (*model.AttemptState, error) {
	raw, err := cache.Get(ctx, fmt.Sprintf(constant.AttemptStateKey, attemptId)).Result()
	if err == redis.Nil {
		return nil, errs.NotFound("Attempt not found or expired")
	}
	if err != nil {
		return nil, err
	}

	var state model.AttemptState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, err
	}

	return &state, nil
}

func saveAttempt(ctx context.Context, cache *redis.Client, state *model.AttemptState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}

	return cache.Set(ctx, fmt.Sprintf(constant.AttemptStateKey, state.Id), string(raw), constant.AttemptStateTTL).Err()
}

// acquireStepLock serializes the steps of one attempt so repeated clicks can
// never trigger the same action twice while a request is outstanding.
func acquireStepLock(ctx context.Context, cache *redis.Client, attemptId string) (bool, error) {
	return cache.SetNX(ctx, fmt.Sprintf(constant.AttemptStepLock, attemptId), true, constant.AttemptStepLockTTL).Result()
}

func releaseStepLock(ctx context.Context, cache *redis.Client, attemptId string) {
	cache.Del(ctx, fmt.Sprintf(constant.AttemptStepLock, attemptId))
}

// resolveFee retries the authoritative fee fetch for attempts created while
// the backend was unreachable. Submission stays blocked until it settles.
func resolveFee(ctx context.Context, api *clubapi.Client, state *model.AttemptState) error {
	if state.FeeResolved {
		return nil
	}

	info, err := api.GetEvent(ctx, state.EventId)
	if err != nil {
		return errs.Unavailable("Event details are unavailable, the registration cannot proceed yet", err)
	}

	state.Event = info
	state.FeeResolved = true

	return nil
}
