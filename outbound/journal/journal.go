package journal

import (
	"club-registration/common/contract"
	"context"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// Queries journals every gateway payment attempt so support can reconcile
// the cases where funds moved but verification failed or the widget was
// abandoned. The journal is append-and-transition only; the club backend
// stays the system of record for registrations.
type Queries struct {
	db contract.DbConn
}

func New(db contract.DbConn) *Queries {
	return &Queries{db: db}
}

const insertPaymentAttempt = `
INSERT INTO payment_attempts (attempt_id, order_id, registration_number, event_id, amount, currency, status, expired_at)
VALUES ($1, $2, $3, $4, $5, $6, 'created', $7)
RETURNING id
`

type InsertPaymentAttemptParams struct {
	AttemptID          string
	OrderID            string
	RegistrationNumber string
	EventID            string
	Amount             int64
	Currency           string
	ExpiredAt          pgtype.Timestamp
}

func (q *Queries) InsertPaymentAttempt(ctx context.Context, arg InsertPaymentAttemptParams) (int32, error) {
	row := q.db.QueryRow(ctx, insertPaymentAttempt,
		arg.AttemptID,
		arg.OrderID,
		arg.RegistrationNumber,
		arg.EventID,
		arg.Amount,
		arg.Currency,
		arg.ExpiredAt,
	)

	var id int32
	err := row.Scan(&id)
	return id, err
}

const updatePaymentAttemptStatus = `
UPDATE payment_attempts
SET status = $3, failure_reason = $4, updated_at = now()
WHERE order_id = $1 AND status = $2
`

type UpdatePaymentAttemptStatusParams struct {
	OrderID       string
	FromStatus    string
	ToStatus      string
	FailureReason pgtype.Text
}

// UpdatePaymentAttemptStatus transitions an attempt with a status guard, so a
// completed attempt can never be re-opened or re-completed.
func (q *Queries) UpdatePaymentAttemptStatus(ctx context.Context, arg UpdatePaymentAttemptStatusParams) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, updatePaymentAttemptStatus,
		arg.OrderID,
		arg.FromStatus,
		arg.ToStatus,
		arg.FailureReason,
	)
}

const bulkAbandonExpired = `
UPDATE payment_attempts
SET status = 'abandoned', updated_at = $2
WHERE id IN (
    SELECT id FROM payment_attempts
    WHERE status = 'created' AND expired_at < $2
    ORDER BY expired_at
    LIMIT $1
)
RETURNING id, attempt_id, order_id, registration_number, event_id
`

type BulkAbandonExpiredParams struct {
	Limit     int32
	UpdatedAt pgtype.Timestamp
}

type BulkAbandonExpiredRow struct {
	ID                 int32
	AttemptID          string
	OrderID            string
	RegistrationNumber string
	EventID            string
}

func (q *Queries) BulkAbandonExpired(ctx context.Context, arg BulkAbandonExpiredParams) ([]BulkAbandonExpiredRow, error) {
	rows, err := q.db.Query(ctx, bulkAbandonExpired, arg.Limit, arg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []BulkAbandonExpiredRow
	for rows.Next() {
		var item BulkAbandonExpiredRow
		if err := rows.Scan(&item.ID, &item.AttemptID, &item.OrderID, &item.RegistrationNumber, &item.EventID); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}
