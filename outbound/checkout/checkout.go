package checkout

import (
	"club-registration/common/constant"
	"club-registration/common/errs"
	"context"
	"fmt"
	"github.com/spf13/viper"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Loader gates gateway payments on the third-party checkout script being
// reachable. Loading is asynchronous and single-shot: Load probes the script
// URL with retries, and order creation is refused until it has settled.
// A load failure is an initialization error, never a payment failure.
type Loader struct {
	ScriptUrl string
	KeyId     string
	Http      *http.Client

	retries  int
	interval time.Duration

	once    sync.Once
	ready   chan struct{}
	loadErr error
}

func NewLoader(cfg *viper.Viper) *Loader {
	return &Loader{
		ScriptUrl: cfg.GetString("checkout.script_url"),
		KeyId:     cfg.GetString("checkout.key_id"),
		Http:      &http.Client{Timeout: cfg.GetDuration("checkout.probe_timeout")},
		retries:   cfg.GetInt("checkout.probe_retries"),
		interval:  cfg.GetDuration("checkout.probe_interval"),
		ready:     make(chan struct{}),
	}
}

// Load probes the checkout script once per process lifetime and closes the
// ready channel on the outcome, success or not.
func (l *Loader) Load(ctx context.Context) {
	l.once.Do(func() {
		defer close(l.ready)

		if l.ScriptUrl == "" || l.KeyId == "" {
			l.loadErr = fmt.Errorf("checkout.script_url and checkout.key_id must be configured")
			slog.ErrorContext(ctx, "checkout loader misconfigured", slog.Any(constant.LogFieldErr, l.loadErr))
			return
		}

		attempts := l.retries
		if attempts < 1 {
			attempts = 1
		}

		for i := 0; i < attempts; i++ {
			if i > 0 {
				select {
				case <-time.After(l.interval):
				case <-ctx.Done():
					l.loadErr = ctx.Err()
					return
				}
			}

			if err := l.probe(ctx); err != nil {
				l.loadErr = err
				continue
			}

			l.loadErr = nil
			slog.InfoContext(ctx, "checkout script loaded", slog.String("script_url", l.ScriptUrl))
			return
		}

		slog.ErrorContext(ctx, "checkout script load failed", slog.Any(constant.LogFieldErr, l.loadErr))
	})
}

func (l *Loader) probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, l.ScriptUrl, nil)
	if err != nil {
		return err
	}

	resp, err := l.Http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("checkout script responded with status %d", resp.StatusCode)
	}

	return nil
}

// Ready reports whether gateway payments can be offered. It never blocks; a
// pending load counts as not ready so callers surface a retryable state.
func (l *Loader) Ready() error {
	select {
	case <-l.ready:
		if l.loadErr != nil {
			return &errs.WorkflowError{
				Kind:    errs.KindInitFailed,
				Message: "Payment gateway is unavailable right now, please try again later",
				Cause:   l.loadErr,
			}
		}
		return nil
	default:
		return &errs.WorkflowError{
			Kind:    errs.KindInitFailed,
			Message: "Payment gateway is still starting up, please try again",
		}
	}
}

// NewStatic returns an already-loaded loader, for tests and the dev command.
func NewStatic(keyId string) *Loader {
	l := &Loader{KeyId: keyId, ready: make(chan struct{})}
	close(l.ready)
	return l
}
