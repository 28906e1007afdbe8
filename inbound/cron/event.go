package cron

import (
	"club-registration/common"
	"club-registration/common/constant"
	"club-registration/common/vars"
	"club-registration/outbound/clubapi"
	"context"
	"encoding/json"
	"fmt"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"log/slog"
	"time"
)

// EventCron keeps the event-catalogue snapshot warm so browse pages never
// block on the remote backend. The fee pinned to an attempt is still fetched
// authoritatively at attempt creation; this cache only serves display.
type EventCron struct {
	Cfg   *viper.Viper
	Cache *redis.Client
	Api   *clubapi.Client
}

func (in EventCron) Start(ctx context.Context) {
	refreshTicker := time.NewTicker(in.Cfg.GetDuration("cron.event.refresh.interval"))
	defer refreshTicker.Stop()

	in.refresh(ctx)

	slog.Info("event cron started")

	for {
		select {
		case <-refreshTicker.C:
			in.refresh(ctx)
		case <-ctx.Done():
			slog.Info("event cron stopped")
			return
		}
	}
}

func (in EventCron) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, in.Cfg.GetDuration("cron.event.refresh.timeout"))
	defer cancel()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	slog.DebugContext(ctx, "refreshing event catalogue", traceIdAttr)

	events, err := in.Api.ListEvents(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list events", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		return
	}

	pipeline := in.Cache.Pipeline()
	for _, event := range events {
		raw, err := json.Marshal(event)
		if err != nil {
			slog.ErrorContext(ctx, "failed to marshal event", traceIdAttr, slog.Any(constant.LogFieldErr, err))
			return
		}

		pipeline.Set(ctx, fmt.Sprintf(constant.EachEventKey, event.Id), string(raw), constant.EventCacheDefaultTTL)
	}

	if _, err := pipeline.Exec(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to cache events", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		return
	}

	vars.SetEvents(events)

	slog.DebugContext(ctx, "event catalogue refreshed successfully", traceIdAttr)
}
