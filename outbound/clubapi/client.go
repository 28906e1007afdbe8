package clubapi

import (
	"bytes"
	"club-registration/common"
	"club-registration/common/constant"
	"club-registration/common/errs"
	"club-registration/common/otel"
	"club-registration/model"
	"context"
	"encoding/json"
	"fmt"
	"github.com/spf13/viper"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Client talks to the remote club backend. Every call carries a finite
// timeout; transport failures are reported as network errors, never as a
// content outcome.
type Client struct {
	BaseUrl string
	Http    *http.Client

	timeout time.Duration
}

func NewClient(cfg *viper.Viper) (*Client, error) {
	baseUrl := strings.TrimRight(cfg.GetString("backend.base_url"), "/")
	if baseUrl == "" {
		return nil, fmt.Errorf("backend.base_url is not configured")
	}

	timeout := cfg.GetDuration("backend.timeout")
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		BaseUrl: baseUrl,
		Http:    &http.Client{Timeout: timeout},
		timeout: timeout,
	}, nil
}

func (c *Client) LookupParticipant(ctx context.Context, registrationNumber string) (*model.ParticipantProfile, error) {
	ctx, span := otel.Tracer.Start(ctx, "clubapi.LookupParticipant")
	defer span.End()

	body, status, err := c.do(ctx, http.MethodGet, "/api/participants/"+registrationNumber, nil)
	if err != nil {
		common.UtilSpanError(span, err)
		return nil, err
	}

	switch {
	case status == http.StatusNotFound:
		return nil, errs.NotFound("Participant not found")
	case status != http.StatusOK:
		return nil, c.unexpectedStatus(ctx, status, body)
	}

	var profile model.ParticipantProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, errs.Unavailable("Unexpected response from backend", err)
	}

	return &profile, nil
}

func (c *Client) CreateParticipant(ctx context.Context, req model.CreateProfileRequest) (*model.ParticipantProfile, error) {
	ctx, span := otel.Tracer.Start(ctx, "clubapi.CreateParticipant")
	defer span.End()

	body, status, err := c.do(ctx, http.MethodPost, "/api/participants", req)
	if err != nil {
		common.UtilSpanError(span, err)
		return nil, err
	}

	switch {
	case status == http.StatusUnprocessableEntity:
		return nil, c.fieldErrors(body)
	case status != http.StatusOK && status != http.StatusCreated:
		return nil, c.unexpectedStatus(ctx, status, body)
	}

	var profile model.ParticipantProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, errs.Unavailable("Unexpected response from backend", err)
	}

	return &profile, nil
}

func (c *Client) GetEvent(ctx context.Context, eventId string) (*model.EventFeeInfo, error) {
	ctx, span := otel.Tracer.Start(ctx, "clubapi.GetEvent")
	defer span.End()

	body, status, err := c.do(ctx, http.MethodGet, "/api/events/"+eventId, nil)
	if err != nil {
		common.UtilSpanError(span, err)
		return nil, err
	}

	switch {
	case status == http.StatusNotFound:
		return nil, errs.NotFound("Event not found")
	case status != http.StatusOK:
		return nil, c.unexpectedStatus(ctx, status, body)
	}

	var resp model.EventApiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errs.Unavailable("Unexpected response from backend", err)
	}

	info := resp.ToFeeInfo()
	return &info, nil
}

func (c *Client) ListEvents(ctx context.Context) ([]model.EventFeeInfo, error) {
	ctx, span := otel.Tracer.Start(ctx, "clubapi.ListEvents")
	defer span.End()

	body, status, err := c.do(ctx, http.MethodGet, "/api/events", nil)
	if err != nil {
		common.UtilSpanError(span, err)
		return nil, err
	}

	if status != http.StatusOK {
		return nil, c.unexpectedStatus(ctx, status, body)
	}

	var resp struct {
		Events []model.EventApiResponse `json:"events"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errs.Unavailable("Unexpected response from backend", err)
	}

	events := make([]model.EventFeeInfo, 0, len(resp.Events))
	for _, event := range resp.Events {
		events = append(events, event.ToFeeInfo())
	}

	return events, nil
}

type createOrderRequest struct {
	RegistrationNumber string `json:"registration_number"`
	EventId            string `json:"event_id"`
}

func (c *Client) CreateOrder(ctx context.Context, registrationNumber, eventId string) (*model.GatewayOrder, error) {
	ctx, span := otel.Tracer.Start(ctx, "clubapi.CreateOrder")
	defer span.End()

	body, status, err := c.do(ctx, http.MethodPost, "/api/payments/order", createOrderRequest{
		RegistrationNumber: registrationNumber,
		EventId:            eventId,
	})
	if err != nil {
		common.UtilSpanError(span, err)
		return nil, err
	}

	if status != http.StatusOK && status != http.StatusCreated {
		return nil, c.unexpectedStatus(ctx, status, body)
	}

	var order model.GatewayOrder
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, errs.Unavailable("Unexpected response from backend", err)
	}

	if order.OrderId == "" {
		return nil, errs.Unavailable("Backend returned an empty order", nil)
	}

	return &order, nil
}

type verifyPaymentRequest struct {
	PaymentId          string `json:"payment_id"`
	OrderId            string `json:"order_id"`
	Signature          string `json:"signature"`
	RegistrationNumber string `json:"registration_number"`
}

func (c *Client) VerifyPayment(ctx context.Context, registrationNumber string, completion model.CompletePaymentRequest) error {
	ctx, span := otel.Tracer.Start(ctx, "clubapi.VerifyPayment")
	defer span.End()

	body, status, err := c.do(ctx, http.MethodPost, "/api/payments/verify", verifyPaymentRequest{
		PaymentId:          completion.PaymentId,
		OrderId:            completion.OrderId,
		Signature:          completion.Signature,
		RegistrationNumber: registrationNumber,
	})
	if err != nil {
		common.UtilSpanError(span, err)
		return err
	}

	if status != http.StatusOK {
		return &errs.WorkflowError{
			Kind:    errs.KindVerificationFailed,
			Message: "Payment verification failed. Do not retry the payment, contact support with your order id.",
		}
	}

	var resp struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || !resp.Success {
		return &errs.WorkflowError{
			Kind:    errs.KindVerificationFailed,
			Message: "Payment verification failed. Do not retry the payment, contact support with your order id.",
		}
	}

	return nil
}

func (c *Client) SubmitRegistration(ctx context.Context, req model.SubmitRegistrationRequest) (string, error) {
	ctx, span := otel.Tracer.Start(ctx, "clubapi.SubmitRegistration")
	defer span.End()

	body, status, err := c.do(ctx, http.MethodPost, "/api/registrations", req)
	if err != nil {
		common.UtilSpanError(span, err)
		return "", err
	}

	switch {
	case status == http.StatusUnprocessableEntity:
		return "", c.fieldErrors(body)
	case status != http.StatusOK && status != http.StatusCreated:
		return "", c.unexpectedStatus(ctx, status, body)
	}

	ticketCode := model.ExtractTicketCode(body)
	if ticketCode == "" {
		return "", errs.Unavailable("Backend did not return a ticket code", nil)
	}

	return ticketCode, nil
}

func (c *Client) do(ctx context.Context, method, path string, reqBody any) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return nil, 0, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseUrl+path, reader)
	if err != nil {
		return nil, 0, err
	}

	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Http.Do(req)
	if err != nil {
		return nil, 0, errs.Network("Could not reach the registration backend, please try again", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, errs.Network("Could not reach the registration backend, please try again", err)
	}

	return body, resp.StatusCode, nil
}

func (c *Client) fieldErrors(body []byte) error {
	var resp struct {
		Error string            `json:"error"`
		Data  map[string]string `json:"data"`
	}

	message := "Validation failed"
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error != "" {
		message = resp.Error
	}

	return &errs.WorkflowError{Kind: errs.KindServerValidation, Message: message, Fields: resp.Data}
}

func (c *Client) unexpectedStatus(ctx context.Context, status int, body []byte) error {
	slog.WarnContext(ctx, "unexpected backend status",
		slog.Int("status", status),
		slog.Any(constant.LogFieldResponse, string(body)),
	)

	return errs.Unavailable("The registration backend returned an unexpected response", fmt.Errorf("status %d", status))
}
