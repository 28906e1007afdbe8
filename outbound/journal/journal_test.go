package journal

import (
	"context"
	"fmt"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/suite"
	"testing"
	"time"
)

type JournalTestSuite struct {
	suite.Suite

	PgxMock pgxmock.PgxPoolIface
	Queries *Queries
}

func (s *JournalTestSuite) SetupTest() {
	pool, err := pgxmock.NewPool()
	if err != nil {
		s.T().Fatalf("failed to create pgxmock pool: %v", err)
	}

	s.PgxMock = pool
	s.Queries = New(pool)
}

func (s *JournalTestSuite) TearDownTest() {
	s.PgxMock.Close()
}

func TestJournalTestSuite(t *testing.T) {
	suite.Run(t, new(JournalTestSuite))
}

func (s *JournalTestSuite) TestInsertPaymentAttempt() {
	expiredAt := pgtype.Timestamp{Time: time.Date(2026, 2, 10, 9, 45, 0, 0, time.UTC), Valid: true}

	arg := InsertPaymentAttemptParams{
		AttemptID:          "01JC0TESTATTEMPT00000000",
		OrderID:            "order_abc123",
		RegistrationNumber: "20B91A0501",
		EventID:            "EVT1",
		Amount:             250,
		Currency:           "INR",
		ExpiredAt:          expiredAt,
	}

	s.Run("success", func() {
		s.PgxMock.ExpectQuery("INSERT INTO payment_attempts").
			WithArgs("01JC0TESTATTEMPT00000000", "order_abc123", "20B91A0501", "EVT1", int64(250), "INR", expiredAt).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int32(7)))

		id, err := s.Queries.InsertPaymentAttempt(context.Background(), arg)
		s.NoError(err)
		s.Equal(int32(7), id)
		s.NoError(s.PgxMock.ExpectationsWereMet())
	})

	s.Run("database error", func() {
		s.PgxMock.ExpectQuery("INSERT INTO payment_attempts").
			WithArgs("01JC0TESTATTEMPT00000000", "order_abc123", "20B91A0501", "EVT1", int64(250), "INR", expiredAt).
			WillReturnError(fmt.Errorf("database error"))

		_, err := s.Queries.InsertPaymentAttempt(context.Background(), arg)
		s.Error(err)
		s.NoError(s.PgxMock.ExpectationsWereMet())
	})
}

func (s *JournalTestSuite) TestUpdatePaymentAttemptStatus() {
	s.Run("status guard allows only the expected transition", func() {
		s.PgxMock.ExpectExec("UPDATE payment_attempts").
			WithArgs("order_abc123", "created", "completed", pgtype.Text{}).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		tag, err := s.Queries.UpdatePaymentAttemptStatus(context.Background(), UpdatePaymentAttemptStatusParams{
			OrderID:    "order_abc123",
			FromStatus: "created",
			ToStatus:   "completed",
		})
		s.NoError(err)
		s.Equal(int64(1), tag.RowsAffected())
		s.NoError(s.PgxMock.ExpectationsWereMet())
	})

	s.Run("failure reason is recorded", func() {
		reason := pgtype.Text{String: "signature verification failed", Valid: true}

		s.PgxMock.ExpectExec("UPDATE payment_attempts").
			WithArgs("order_abc123", "created", "verification_failed", reason).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		_, err := s.Queries.UpdatePaymentAttemptStatus(context.Background(), UpdatePaymentAttemptStatusParams{
			OrderID:       "order_abc123",
			FromStatus:    "created",
			ToStatus:      "verification_failed",
			FailureReason: reason,
		})
		s.NoError(err)
		s.NoError(s.PgxMock.ExpectationsWereMet())
	})

	s.Run("completed order is not re-opened", func() {
		s.PgxMock.ExpectExec("UPDATE payment_attempts").
			WithArgs("order_abc123", "created", "abandoned", pgtype.Text{}).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		tag, err := s.Queries.UpdatePaymentAttemptStatus(context.Background(), UpdatePaymentAttemptStatusParams{
			OrderID:    "order_abc123",
			FromStatus: "created",
			ToStatus:   "abandoned",
		})
		s.NoError(err)
		s.Equal(int64(0), tag.RowsAffected())
		s.NoError(s.PgxMock.ExpectationsWereMet())
	})
}

func (s *JournalTestSuite) TestBulkAbandonExpired() {
	updatedAt := pgtype.Timestamp{Time: time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC), Valid: true}

	s.Run("returns abandoned rows", func() {
		rows := pgxmock.NewRows([]string{"id", "attempt_id", "order_id", "registration_number", "event_id"}).
			AddRow(int32(1), "01JC0TESTATTEMPT00000000", "order_abc123", "20B91A0501", "EVT1").
			AddRow(int32(2), "01JC0TESTATTEMPT00000001", "order_def456", "20B91A0502", "EVT2")

		s.PgxMock.ExpectQuery("UPDATE payment_attempts").
			WithArgs(int32(100), updatedAt).
			WillReturnRows(rows)

		items, err := s.Queries.BulkAbandonExpired(context.Background(), BulkAbandonExpiredParams{
			Limit:     100,
			UpdatedAt: updatedAt,
		})
		s.NoError(err)
		s.Len(items, 2)
		s.Equal("order_abc123", items[0].OrderID)
		s.Equal("EVT2", items[1].EventID)
		s.NoError(s.PgxMock.ExpectationsWereMet())
	})

	s.Run("empty batch", func() {
		s.PgxMock.ExpectQuery("UPDATE payment_attempts").
			WithArgs(int32(100), updatedAt).
			WillReturnRows(pgxmock.NewRows([]string{"id", "attempt_id", "order_id", "registration_number", "event_id"}))

		items, err := s.Queries.BulkAbandonExpired(context.Background(), BulkAbandonExpiredParams{
			Limit:     100,
			UpdatedAt: updatedAt,
		})
		s.NoError(err)
		s.Empty(items)
		s.NoError(s.PgxMock.ExpectationsWereMet())
	})
}
