package http

import (
	"club-registration/common"
	"club-registration/common/constant"
	"club-registration/common/vars"
	"club-registration/model"
	"club-registration/outbound/clubapi"
	"encoding/json"
	"fmt"
	"github.com/redis/go-redis/v9"
	"log/slog"
	"net/http"
)

type EventHttp struct {
	Api   *clubapi.Client
	Cache *redis.Client
}

func RegisterEventHttp(mux *http.ServeMux, api *clubapi.Client, cache *redis.Client) *EventHttp {
	in := &EventHttp{
		Api:   api,
		Cache: cache,
	}

	mux.HandleFunc("GET /api/events", in.list)
	mux.HandleFunc("GET /api/events/{id}", in.get)

	return in
}

func (in EventHttp) list(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"events": vars.GetEvents(),
	})
}

func (in EventHttp) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventId := r.PathValue("id")
	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	cached, err := in.Cache.Get(ctx, fmt.Sprintf(constant.EachEventKey, eventId)).Result()
	if err == nil {
		var info model.EventFeeInfo
		if err := json.Unmarshal([]byte(cached), &info); err == nil {
			writeJSONResponse(w, http.StatusOK, info)
			return
		}
	} else if err != redis.Nil {
		slog.ErrorContext(ctx, "failed to read event cache", traceIdAttr, slog.Any(constant.LogFieldErr, err))
	}

	info, err := in.Api.GetEvent(ctx, eventId)
	if err != nil {
		slog.ErrorContext(ctx, "failed to fetch event", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	if raw, err := json.Marshal(info); err == nil {
		if err := in.Cache.Set(ctx, fmt.Sprintf(constant.EachEventKey, eventId), string(raw), constant.EventCacheDefaultTTL).Err(); err != nil {
			slog.ErrorContext(ctx, "failed to cache event", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		}
	}

	writeJSONResponse(w, http.StatusOK, info)
}
