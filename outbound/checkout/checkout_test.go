package checkout

import (
	"club-registration/common/errs"
	"context"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestLoader(t *testing.T, handler http.HandlerFunc) *Loader {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := viper.New()
	cfg.Set("checkout.script_url", server.URL+"/v1/checkout.js")
	cfg.Set("checkout.key_id", "rzp_test_k")
	cfg.Set("checkout.probe_timeout", "2s")
	cfg.Set("checkout.probe_retries", 2)
	cfg.Set("checkout.probe_interval", "1ms")

	return NewLoader(cfg)
}

func TestReadyBeforeLoad(t *testing.T) {
	loader := NewLoader(viper.New())

	err := loader.Ready()
	require.Error(t, err)
	assert.Equal(t, errs.KindInitFailed, errs.KindOf(err))
	assert.Contains(t, err.Error(), "starting up")
}

func TestLoadSuccess(t *testing.T) {
	probes := 0
	loader := newTestLoader(t, func(w http.ResponseWriter, r *http.Request) {
		probes++
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(http.StatusOK)
	})

	loader.Load(context.Background())

	assert.NoError(t, loader.Ready())
	assert.Equal(t, 1, probes)
}

func TestLoadRetriesThenSucceeds(t *testing.T) {
	probes := 0
	loader := newTestLoader(t, func(w http.ResponseWriter, r *http.Request) {
		probes++
		if probes == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	loader.Load(context.Background())

	assert.NoError(t, loader.Ready())
	assert.Equal(t, 2, probes)
}

func TestLoadFailure(t *testing.T) {
	loader := newTestLoader(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	loader.Load(context.Background())

	err := loader.Ready()
	require.Error(t, err)
	assert.Equal(t, errs.KindInitFailed, errs.KindOf(err))
	assert.Contains(t, err.Error(), "unavailable right now")
}

func TestLoadMisconfigured(t *testing.T) {
	loader := NewLoader(viper.New())

	loader.Load(context.Background())

	err := loader.Ready()
	require.Error(t, err)
	assert.Equal(t, errs.KindInitFailed, errs.KindOf(err))
}

func TestLoadIsSingleShot(t *testing.T) {
	probes := 0
	loader := newTestLoader(t, func(w http.ResponseWriter, r *http.Request) {
		probes++
		w.WriteHeader(http.StatusOK)
	})

	loader.Load(context.Background())
	loader.Load(context.Background())

	assert.Equal(t, 1, probes)
}

func TestNewStatic(t *testing.T) {
	loader := NewStatic("rzp_test_k")

	assert.NoError(t, loader.Ready())
	assert.Equal(t, "rzp_test_k", loader.KeyId)
}
