package model

const (
	PaymentStatusCreated            = "created"
	PaymentStatusCompleted          = "completed"
	PaymentStatusVerificationFailed = "verification_failed"
	PaymentStatusAbandoned          = "abandoned"
)

// PaymentAttempt is the gateway order pinned to a registration attempt.
// At most one may be open (status created) at a time.
type PaymentAttempt struct {
	OrderId  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

func (p *PaymentAttempt) Open() bool {
	return p != nil && p.Status == PaymentStatusCreated
}

type CreateOrderResponse struct {
	OrderId  string         `json:"order_id"`
	Amount   int64          `json:"amount"`
	Currency string         `json:"currency"`
	KeyId    string         `json:"key_id"`
	Prefill  PaymentPrefill `json:"prefill"`
}

type PaymentPrefill struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// CompletePaymentRequest carries the checkout widget's completion callback.
type CompletePaymentRequest struct {
	PaymentId string `json:"payment_id" validate:"required"`
	OrderId   string `json:"order_id" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

type GatewayOrder struct {
	OrderId  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyId    string `json:"key_id"`
}
