package clubapi

import (
	"club-registration/common/errs"
	"club-registration/model"
	"context"
	"fmt"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := viper.New()
	cfg.Set("backend.base_url", server.URL)
	cfg.Set("backend.timeout", "2s")

	client, err := NewClient(cfg)
	require.NoError(t, err)

	return client
}

func TestNewClient(t *testing.T) {
	t.Run("missing base url is fatal", func(t *testing.T) {
		_, err := NewClient(viper.New())
		assert.Error(t, err)
	})

	t.Run("trailing slash is trimmed", func(t *testing.T) {
		cfg := viper.New()
		cfg.Set("backend.base_url", "https://api.lolo.srkr.ac.in/")

		client, err := NewClient(cfg)
		require.NoError(t, err)
		assert.Equal(t, "https://api.lolo.srkr.ac.in", client.BaseUrl)
	})

	t.Run("default timeout", func(t *testing.T) {
		cfg := viper.New()
		cfg.Set("backend.base_url", "https://api.lolo.srkr.ac.in")

		client, err := NewClient(cfg)
		require.NoError(t, err)
		assert.Equal(t, 5*time.Second, client.Http.Timeout)
	})
}

func TestLookupParticipant(t *testing.T) {
	tests := []struct {
		name         string
		handler      http.HandlerFunc
		expectedKind errs.Kind
		expectedName string
	}{
		{
			name: "found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/participants/20B91A0501", r.URL.Path)
				fmt.Fprint(w, `{"id":"p1","registration_number":"20B91A0501","name":"Asha"}`)
			},
			expectedName: "Asha",
		},
		{
			name: "not found is a distinguished outcome",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			expectedKind: errs.KindNotFound,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			expectedKind: errs.KindUnavailable,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, tc.handler)

			profile, err := client.LookupParticipant(context.Background(), "20B91A0501")

			if tc.expectedKind != errs.KindUnknown {
				require.Error(t, err)
				assert.Equal(t, tc.expectedKind, errs.KindOf(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectedName, profile.Name)
		})
	}
}

func TestLookupParticipantNetworkError(t *testing.T) {
	cfg := viper.New()
	cfg.Set("backend.base_url", "http://127.0.0.1:1")
	cfg.Set("backend.timeout", "200ms")

	client, err := NewClient(cfg)
	require.NoError(t, err)

	_, err = client.LookupParticipant(context.Background(), "20B91A0501")
	require.Error(t, err)
	assert.Equal(t, errs.KindNetwork, errs.KindOf(err))
}

func TestCreateParticipant(t *testing.T) {
	req := model.CreateProfileRequest{
		Name:               "Asha",
		Email:              "asha@example.com",
		Phone:              "9876543210",
		RegistrationNumber: "20B91A0501",
		Gender:             "female",
		Branch:             "CSE",
		Year:               3,
	}

	t.Run("success", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/participants", r.URL.Path)
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"id":"p1","registration_number":"20B91A0501","name":"Asha"}`)
		})

		profile, err := client.CreateParticipant(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "p1", profile.Id)
	})

	t.Run("field errors surface per field", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			fmt.Fprint(w, `{"error":"Validation failed","data":{"phone":"already registered"}}`)
		})

		_, err := client.CreateParticipant(context.Background(), req)
		require.Error(t, err)

		wfErr, ok := err.(*errs.WorkflowError)
		require.True(t, ok)
		assert.Equal(t, errs.KindServerValidation, wfErr.Kind)
		assert.Equal(t, "already registered", wfErr.Fields["phone"])
	})
}

func TestGetEvent(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		expectedFee  int64
		expectedKind errs.Kind
		status       int
	}{
		{
			name:        "numeric fee",
			body:        `{"id":"EVT1","name":"Kalakriti","type":"cultural","fee":250}`,
			status:      http.StatusOK,
			expectedFee: 250,
		},
		{
			name:        "string fee",
			body:        `{"id":"EVT1","name":"Kalakriti","type":"cultural","fee":"250"}`,
			status:      http.StatusOK,
			expectedFee: 250,
		},
		{
			name:        "free token",
			body:        `{"id":"EVT1","name":"Kalakriti","type":"cultural","fee":"free"}`,
			status:      http.StatusOK,
			expectedFee: 0,
		},
		{
			name:         "not found",
			status:       http.StatusNotFound,
			expectedKind: errs.KindNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			})

			info, err := client.GetEvent(context.Background(), "EVT1")

			if tc.expectedKind != errs.KindUnknown {
				require.Error(t, err)
				assert.Equal(t, tc.expectedKind, errs.KindOf(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectedFee, info.Fee)
		})
	}
}

func TestListEvents(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/events", r.URL.Path)
		fmt.Fprint(w, `{"events":[{"id":"EVT1","name":"Kalakriti","type":"cultural","fee":"250"},{"id":"EVT2","name":"Open Mic","type":"music","fee":"free"}]}`)
	})

	events, err := client.ListEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(250), events[0].Fee)
	assert.Equal(t, int64(0), events[1].Fee)
}

func TestCreateOrder(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/payments/order", r.URL.Path)
			fmt.Fprint(w, `{"order_id":"order_abc","amount":250,"currency":"INR","key_id":"rzp_test_k"}`)
		})

		order, err := client.CreateOrder(context.Background(), "20B91A0501", "EVT1")
		require.NoError(t, err)
		assert.Equal(t, "order_abc", order.OrderId)
		assert.Equal(t, int64(250), order.Amount)
	})

	t.Run("empty order id is unavailable", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{}`)
		})

		_, err := client.CreateOrder(context.Background(), "20B91A0501", "EVT1")
		require.Error(t, err)
		assert.Equal(t, errs.KindUnavailable, errs.KindOf(err))
	})
}

func TestVerifyPayment(t *testing.T) {
	completion := model.CompletePaymentRequest{
		PaymentId: "pay_xyz",
		OrderId:   "order_abc",
		Signature: "sig",
	}

	tests := []struct {
		name        string
		handler     http.HandlerFunc
		expectError bool
	}{
		{
			name: "success",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"success":true}`)
			},
		},
		{
			name: "explicit failure",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"success":false}`)
			},
			expectError: true,
		},
		{
			name: "non-200 status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
			},
			expectError: true,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `not json`)
			},
			expectError: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, tc.handler)

			err := client.VerifyPayment(context.Background(), "20B91A0501", completion)

			if tc.expectError {
				require.Error(t, err)
				assert.Equal(t, errs.KindVerificationFailed, errs.KindOf(err))
				return
			}

			require.NoError(t, err)
		})
	}
}

func TestSubmitRegistration(t *testing.T) {
	req := model.SubmitRegistrationRequest{
		ParticipantId:      "p1",
		RegistrationNumber: "20B91A0501",
		EventId:            "EVT1",
	}

	tests := []struct {
		name         string
		handler      http.HandlerFunc
		expectedCode string
		expectedKind errs.Kind
	}{
		{
			name: "flat ticket code",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"ticket_code":"LOLO-1"}`)
			},
			expectedCode: "LOLO-1",
		},
		{
			name: "nested ticket code",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusCreated)
				fmt.Fprint(w, `{"data":{"ticket_code":"LOLO-2"}}`)
			},
			expectedCode: "LOLO-2",
		},
		{
			name: "missing ticket code",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{}`)
			},
			expectedKind: errs.KindUnavailable,
		},
		{
			name: "field errors",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				fmt.Fprint(w, `{"error":"Already registered for this event","data":{"event_id":"duplicate"}}`)
			},
			expectedKind: errs.KindServerValidation,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, tc.handler)

			code, err := client.SubmitRegistration(context.Background(), req)

			if tc.expectedKind != errs.KindUnknown {
				require.Error(t, err)
				assert.Equal(t, tc.expectedKind, errs.KindOf(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectedCode, code)
		})
	}
}
